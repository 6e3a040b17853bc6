package server

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/joseph-ayodele/exam-grader/internal/auth"
	"github.com/joseph-ayodele/exam-grader/internal/common"
)

func (s *Server) readCredentials(c *fiber.Ctx) (auth.Credentials, error) {
	var in auth.Credentials
	if err := c.BodyParser(&in); err != nil {
		return in, common.NewValidationError("body must be JSON with mail_id and password", err)
	}
	return in, common.ValidateStruct(in)
}

func (s *Server) signUp(c *fiber.Ctx) error {
	in, err := s.readCredentials(c)
	if err != nil {
		return s.writeError(c, err)
	}
	user, err := s.deps.Auth.SignUp(c.UserContext(), in)
	if err != nil {
		return s.writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "User created successfully", "user": user})
}

func (s *Server) signIn(c *fiber.Ctx) error {
	in, err := s.readCredentials(c)
	if err != nil {
		return s.writeError(c, err)
	}
	sess, err := s.deps.Auth.SignIn(c.UserContext(), in)
	if err != nil {
		return s.writeError(c, err)
	}

	cookie := &fiber.Cookie{
		Name:     auth.AccessTokenCookie,
		Value:    sess.AccessToken,
		HTTPOnly: true,
		Secure:   s.opts.CookieSecure,
		SameSite: fiber.CookieSameSiteLaxMode,
	}
	if sess.ExpiresIn > 0 {
		cookie.Expires = time.Now().Add(time.Duration(sess.ExpiresIn) * time.Second)
	}
	c.Cookie(cookie)
	return c.JSON(fiber.Map{"message": "User signed in successfully", "user": sess.User})
}

func (s *Server) signOut(c *fiber.Ctx) error {
	if err := s.deps.Auth.SignOut(c.UserContext(), auth.AccessToken(c)); err != nil {
		// the local session ends regardless of what the provider says
		s.logger.Warn("auth.signout.provider_error", "user_id", auth.UserID(c), "error", err)
	}
	c.ClearCookie(auth.AccessTokenCookie)
	return c.JSON(fiber.Map{"message": "signed out"})
}

func (s *Server) getUser(c *fiber.Ctx) error {
	user, err := s.deps.Auth.GetUser(c.UserContext(), auth.AccessToken(c))
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(fiber.Map{"user": user})
}
