package auth

import (
	"github.com/gofiber/fiber/v2"
	jwtware "github.com/gofiber/jwt/v3"
	"github.com/golang-jwt/jwt/v4"

	"github.com/joseph-ayodele/exam-grader/internal/common"
)

const (
	// AccessTokenCookie carries the provider access token between requests.
	AccessTokenCookie = "access_token"

	localToken  = "jwt"
	localUserID = "user_id"
)

// Claims are the parts of a Supabase access token we rely on.
type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

type MiddlewareConfig struct {
	Secret   string // HS256 signing key (SUPABASE_JWT_KEY)
	Audience string // required aud claim; empty disables the check
}

// Protected verifies the access_token cookie locally and stores the user id
// (sub claim) for handlers; see UserID.
func Protected(cfg MiddlewareConfig) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey:     []byte(cfg.Secret),
		SigningMethod:  jwtware.HS256,
		Claims:         &Claims{},
		ContextKey:     localToken,
		TokenLookup:    "cookie:" + AccessTokenCookie,
		SuccessHandler: onVerified(cfg.Audience),
		ErrorHandler:   jwtError,
	})
}

func onVerified(audience string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, ok := c.Locals(localToken).(*jwt.Token)
		if !ok {
			return unauthorized(c, "invalid token")
		}
		claims, ok := token.Claims.(*Claims)
		if !ok || claims.Subject == "" {
			return unauthorized(c, "token has no subject")
		}
		if audience != "" && !claims.VerifyAudience(audience, true) {
			return unauthorized(c, "token audience mismatch")
		}
		c.Locals(localUserID, claims.Subject)
		c.SetUserContext(common.WithUserID(c.UserContext(), claims.Subject))
		return c.Next()
	}
}

func jwtError(c *fiber.Ctx, err error) error {
	if err.Error() == "Missing or malformed JWT" {
		return unauthorized(c, "not authenticated (no cookie)")
	}
	return unauthorized(c, "invalid or expired token")
}

func unauthorized(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"message": msg,
		"error":   common.CodeUnauthorized,
	})
}

// UserID returns the authenticated user id set by Protected, or "".
func UserID(c *fiber.Ctx) string {
	id, _ := c.Locals(localUserID).(string)
	return id
}

// AccessToken returns the raw verified token string, or "".
func AccessToken(c *fiber.Ctx) string {
	if t, ok := c.Locals(localToken).(*jwt.Token); ok {
		return t.Raw
	}
	return ""
}
