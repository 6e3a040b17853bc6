// Package auth talks to the Supabase GoTrue identity provider and verifies
// its access tokens locally.
package auth

import (
	"context"
	"time"
)

// Credentials is the sign-up / sign-in payload.
type Credentials struct {
	Email    string `json:"mail_id" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Role      string    `json:"role,omitempty"`
	Aud       string    `json:"aud,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type Session struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	ExpiresAt    int64  `json:"expires_at,omitempty"`
	RefreshToken string `json:"refresh_token"`
	User         User   `json:"user"`
}

// Provider is the identity provider surface the HTTP layer needs.
type Provider interface {
	SignUp(ctx context.Context, c Credentials) (*User, error)
	SignIn(ctx context.Context, c Credentials) (*Session, error)
	SignOut(ctx context.Context, accessToken string) error
	GetUser(ctx context.Context, accessToken string) (*User, error)
}
