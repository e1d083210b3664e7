package calendar

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"tasksync/internal/config"
	"tasksync/internal/models"
	"tasksync/internal/storage"
)

const googleEventsURL = "https://www.googleapis.com/calendar/v3/calendars/primary/events"

// GoogleProvider syncs the user's primary Google Calendar.
type GoogleProvider struct {
	oauth      *oauth2.Config
	httpClient *http.Client
}

// NewGoogleProvider builds the provider from the configured OAuth client.
func NewGoogleProvider(cfg config.OAuthConfig) *GoogleProvider {
	return &GoogleProvider{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Endpoint:     google.Endpoint,
			Scopes: []string{
				"https://www.googleapis.com/auth/calendar.readonly",
				"https://www.googleapis.com/auth/calendar.events",
			},
		},
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (p *GoogleProvider) Name() string { return string(models.SourceGoogle) }

func (p *GoogleProvider) AuthURL(state string) string {
	return p.oauth.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"))
}

func (p *GoogleProvider) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := p.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("google code exchange: %w", err)
	}
	return token, nil
}

func (p *GoogleProvider) Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	source := p.oauth.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	token, err := source.Token()
	if err != nil {
		return nil, fmt.Errorf("google token refresh: %w", err)
	}
	return token, nil
}

type googleEventTime struct {
	DateTime string `json:"dateTime"`
	Date     string `json:"date"`
}

type googleEvent struct {
	ID          string          `json:"id"`
	Summary     string          `json:"summary"`
	Description string          `json:"description"`
	Location    string          `json:"location"`
	Start       googleEventTime `json:"start"`
	End         googleEventTime `json:"end"`
}

func (p *GoogleProvider) ListEvents(ctx context.Context, accessToken string, from, to time.Time) ([]storage.EventInput, error) {
	params := url.Values{}
	params.Set("timeMin", from.Format(time.RFC3339))
	params.Set("timeMax", to.Format(time.RFC3339))
	params.Set("singleEvents", "true")
	params.Set("orderBy", "startTime")
	params.Set("maxResults", "250")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, googleEventsURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build google events request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch google events: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("google events request failed with status %d", resp.StatusCode)
	}

	var payload struct {
		Items []googleEvent `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode google events: %w", err)
	}

	var inputs []storage.EventInput
	for _, item := range payload.Items {
		start, err := parseGoogleTime(item.Start)
		if err != nil {
			continue // all-day or malformed entries are skipped
		}
		end, err := parseGoogleTime(item.End)
		if err != nil {
			continue
		}

		title := item.Summary
		if title == "" {
			title = "Untitled Event"
		}
		inputs = append(inputs, storage.EventInput{
			ExternalID:  strptr(item.ID),
			Title:       title,
			Description: strptr(item.Description),
			StartTime:   start,
			EndTime:     end,
			Location:    strptr(item.Location),
			Source:      string(models.SourceGoogle),
		})
	}
	return inputs, nil
}

func parseGoogleTime(t googleEventTime) (time.Time, error) {
	if t.DateTime == "" {
		return time.Time{}, fmt.Errorf("no dateTime")
	}
	return time.Parse(time.RFC3339, t.DateTime)
}
