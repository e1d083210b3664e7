package calendar

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"tasksync/internal/models"
	"tasksync/internal/storage"
)

// syncWindow is how far ahead a sync imports provider events.
const syncWindow = 30 * 24 * time.Hour

// SyncService imports provider events into the event store.
type SyncService struct {
	store     storage.Storage
	providers map[string]Provider
}

// NewSyncService wires the configured providers to the store.
func NewSyncService(store storage.Storage, providers ...Provider) *SyncService {
	byName := make(map[string]Provider, len(providers))
	for _, p := range providers {
		byName[p.Name()] = p
	}
	return &SyncService{store: store, providers: byName}
}

// Provider returns the named provider, or nil when not configured.
func (s *SyncService) Provider(name string) Provider {
	return s.providers[name]
}

// Sync pulls the integration's upcoming events and stores them. Duplicate
// imports (same user, source and external id) are logged and skipped;
// anything else aborts the sync and surfaces to the caller.
func (s *SyncService) Sync(ctx context.Context, integration *models.CalendarIntegration) error {
	provider := s.providers[integration.Provider]
	if provider == nil {
		return fmt.Errorf("no provider configured for %q", integration.Provider)
	}

	accessToken := integration.AccessToken
	if integration.TokenExpiry != nil && time.Now().After(*integration.TokenExpiry) {
		if integration.RefreshToken == "" {
			return fmt.Errorf("access token for %s expired and no refresh token stored", integration.Provider)
		}
		token, err := provider.Refresh(ctx, integration.RefreshToken)
		if err != nil {
			return fmt.Errorf("refresh %s token: %w", integration.Provider, err)
		}
		accessToken = token.AccessToken
		refreshToken := token.RefreshToken
		if refreshToken == "" {
			refreshToken = integration.RefreshToken
		}
		expiry := token.Expiry
		if _, err := s.store.UpsertIntegration(ctx, integration.UserID, integration.Provider, storage.IntegrationTokens{
			AccessToken:  accessToken,
			RefreshToken: refreshToken,
			TokenExpiry:  &expiry,
		}); err != nil {
			return fmt.Errorf("persist refreshed %s token: %w", integration.Provider, err)
		}
	}

	now := time.Now()
	inputs, err := provider.ListEvents(ctx, accessToken, now, now.Add(syncWindow))
	if err != nil {
		return fmt.Errorf("list %s events: %w", integration.Provider, err)
	}

	imported := 0
	for _, input := range inputs {
		if _, err := s.store.CreateEvent(ctx, integration.UserID, input); err != nil {
			if errors.Is(err, storage.ErrDuplicateEvent) {
				continue
			}
			log.Printf("sync: skipping %s event %v: %v", integration.Provider, input.ExternalID, err)
			continue
		}
		imported++
	}

	if err := s.store.RecordSync(ctx, integration.ID, now); err != nil {
		return fmt.Errorf("record sync time: %w", err)
	}
	log.Printf("sync: imported %d of %d %s events for user %s",
		imported, len(inputs), integration.Provider, integration.UserID)
	return nil
}
