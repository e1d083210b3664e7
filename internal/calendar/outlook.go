package calendar

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/microsoft"

	"tasksync/internal/config"
	"tasksync/internal/models"
	"tasksync/internal/storage"
)

const graphCalendarViewURL = "https://graph.microsoft.com/v1.0/me/calendarview"

// Graph returns naive local timestamps with a separate timeZone field.
const graphTimeLayout = "2006-01-02T15:04:05.0000000"

// OutlookProvider syncs the user's Outlook calendar through Microsoft Graph.
type OutlookProvider struct {
	oauth      *oauth2.Config
	httpClient *http.Client
}

// NewOutlookProvider builds the provider from the configured OAuth client.
func NewOutlookProvider(cfg config.OAuthConfig) *OutlookProvider {
	return &OutlookProvider{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Endpoint:     microsoft.AzureADEndpoint("common"),
			Scopes: []string{
				"https://graph.microsoft.com/Calendars.ReadWrite",
				"offline_access",
			},
		},
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (p *OutlookProvider) Name() string { return string(models.SourceOutlook) }

func (p *OutlookProvider) AuthURL(state string) string {
	return p.oauth.AuthCodeURL(state, oauth2.SetAuthURLParam("response_mode", "query"))
}

func (p *OutlookProvider) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := p.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("outlook code exchange: %w", err)
	}
	return token, nil
}

func (p *OutlookProvider) Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	source := p.oauth.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	token, err := source.Token()
	if err != nil {
		return nil, fmt.Errorf("outlook token refresh: %w", err)
	}
	return token, nil
}

type graphDateTime struct {
	DateTime string `json:"dateTime"`
	TimeZone string `json:"timeZone"`
}

type graphEvent struct {
	ID       string        `json:"id"`
	Subject  string        `json:"subject"`
	Body     struct {
		Content string `json:"content"`
	} `json:"body"`
	Start    graphDateTime `json:"start"`
	End      graphDateTime `json:"end"`
	Location struct {
		DisplayName string `json:"displayName"`
	} `json:"location"`
}

func (p *OutlookProvider) ListEvents(ctx context.Context, accessToken string, from, to time.Time) ([]storage.EventInput, error) {
	params := url.Values{}
	params.Set("startDateTime", from.Format(time.RFC3339))
	params.Set("endDateTime", to.Format(time.RFC3339))
	params.Set("$select", "id,subject,body,start,end,location")
	params.Set("$orderby", "start/dateTime")
	params.Set("$top", "250")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, graphCalendarViewURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build outlook events request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch outlook events: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("outlook events request failed with status %d", resp.StatusCode)
	}

	var payload struct {
		Value []graphEvent `json:"value"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode outlook events: %w", err)
	}

	var inputs []storage.EventInput
	for _, item := range payload.Value {
		start, err := parseGraphTime(item.Start)
		if err != nil {
			continue
		}
		end, err := parseGraphTime(item.End)
		if err != nil {
			continue
		}

		title := item.Subject
		if title == "" {
			title = "Untitled Event"
		}
		inputs = append(inputs, storage.EventInput{
			ExternalID:  strptr(item.ID),
			Title:       title,
			Description: strptr(item.Body.Content),
			StartTime:   start,
			EndTime:     end,
			Location:    strptr(item.Location.DisplayName),
			Source:      string(models.SourceOutlook),
		})
	}
	return inputs, nil
}

func parseGraphTime(t graphDateTime) (time.Time, error) {
	loc := time.UTC
	if t.TimeZone != "" && t.TimeZone != "UTC" {
		if l, err := time.LoadLocation(t.TimeZone); err == nil {
			loc = l
		}
	}
	if ts, err := time.ParseInLocation(graphTimeLayout, t.DateTime, loc); err == nil {
		return ts, nil
	}
	return time.ParseInLocation("2006-01-02T15:04:05", t.DateTime, loc)
}
