// Package calendar talks to the external calendar providers. Each provider
// translates its own event shape into the system's EventInput; everything
// persisted goes through the storage layer like any other event.
package calendar

import (
	"context"
	"time"

	"golang.org/x/oauth2"

	"tasksync/internal/storage"
)

// Provider is one external calendar service (Google, Outlook).
type Provider interface {
	// Name is the event source tag, e.g. "google".
	Name() string
	// AuthURL returns the provider consent page URL for the OAuth redirect.
	AuthURL(state string) string
	// Exchange trades an authorization code for tokens.
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
	// Refresh obtains a fresh access token from a refresh token.
	Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error)
	// ListEvents fetches the user's events between from and to.
	ListEvents(ctx context.Context, accessToken string, from, to time.Time) ([]storage.EventInput, error)
}

func strptr(s string) *string {
	return &s
}
