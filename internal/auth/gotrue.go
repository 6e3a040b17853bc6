package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/joseph-ayodele/exam-grader/internal/common"
)

type GoTrueConfig struct {
	URL     string // project URL, e.g. https://xyz.supabase.co
	APIKey  string // anon key
	Timeout time.Duration
}

// GoTrue is a Provider backed by the Supabase auth REST API.
type GoTrue struct {
	base   string
	apiKey string
	http   *http.Client
	logger *slog.Logger
}

func NewGoTrue(cfg GoTrueConfig, logger *slog.Logger) *GoTrue {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &GoTrue{
		base:   strings.TrimRight(cfg.URL, "/") + "/auth/v1",
		apiKey: cfg.APIKey,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

func (g *GoTrue) headers(accessToken string) map[string]string {
	h := map[string]string{"apikey": g.apiKey}
	if accessToken != "" {
		h["Authorization"] = "Bearer " + accessToken
	} else {
		h["Authorization"] = "Bearer " + g.apiKey
	}
	return h
}

type credentialsBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (g *GoTrue) SignUp(ctx context.Context, c Credentials) (*User, error) {
	raw, _, err := SendJSON(ctx, g.http, http.MethodPost, g.base+"/signup",
		credentialsBody{Email: c.Email, Password: c.Password}, g.headers(""), g.logger)
	if err != nil {
		return nil, g.classify("sign up failed", common.CodeValidation, err)
	}
	// with email confirmation on, GoTrue returns the user; otherwise a session
	var out struct {
		User
		Session *struct {
			User User `json:"user"`
		} `json:"session"`
		NestedUser *User `json:"user"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode signup response: %w", err)
	}
	switch {
	case out.ID != "":
		return &out.User, nil
	case out.NestedUser != nil:
		return out.NestedUser, nil
	case out.Session != nil:
		return &out.Session.User, nil
	}
	return nil, errors.New("signup response carried no user")
}

func (g *GoTrue) SignIn(ctx context.Context, c Credentials) (*Session, error) {
	raw, _, err := SendJSON(ctx, g.http, http.MethodPost, g.base+"/token?grant_type=password",
		credentialsBody{Email: c.Email, Password: c.Password}, g.headers(""), g.logger)
	if err != nil {
		return nil, g.classify("sign in failed", common.CodeUnauthorized, err)
	}
	var s Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decode token response: %w", err)
	}
	if s.AccessToken == "" {
		return nil, errors.New("token response carried no access token")
	}
	return &s, nil
}

func (g *GoTrue) SignOut(ctx context.Context, accessToken string) error {
	_, _, err := SendJSON(ctx, g.http, http.MethodPost, g.base+"/logout", nil, g.headers(accessToken), g.logger)
	if err != nil {
		return g.classify("sign out failed", common.CodeUnauthorized, err)
	}
	return nil
}

func (g *GoTrue) GetUser(ctx context.Context, accessToken string) (*User, error) {
	raw, _, err := SendJSON(ctx, g.http, http.MethodGet, g.base+"/user", nil, g.headers(accessToken), g.logger)
	if err != nil {
		return nil, g.classify("get user failed", common.CodeUnauthorized, err)
	}
	var u User
	if err := json.Unmarshal(raw, &u); err != nil {
		return nil, fmt.Errorf("decode user response: %w", err)
	}
	return &u, nil
}

// classify turns 4xx responses into caller errors with the provider's
// message; transport failures and 5xx stay internal.
func (g *GoTrue) classify(msg, code string, err error) error {
	var se *StatusError
	if !errors.As(err, &se) || se.Status >= 500 {
		return fmt.Errorf("%s: %w", msg, err)
	}
	if detail := providerMessage(se.Body); detail != "" {
		msg = msg + ": " + detail
	}
	return common.NewAppError(code, msg, err)
}

func providerMessage(body []byte) string {
	var e struct {
		Msg              string `json:"msg"`
		Message          string `json:"message"`
		ErrorDescription string `json:"error_description"`
		Error            string `json:"error"`
	}
	if json.Unmarshal(body, &e) != nil {
		return ""
	}
	for _, s := range []string{e.Msg, e.Message, e.ErrorDescription, e.Error} {
		if s != "" {
			return s
		}
	}
	return ""
}
