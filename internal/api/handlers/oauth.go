package handlers

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"tasksync/internal/storage"
)

const oauthStateKey = "oauthState"

// AuthURL returns the provider's consent page URL for the named provider.
func (h *Handlers) AuthURL(provider string) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := h.Sync.Provider(provider)
		if p == nil {
			c.JSON(http.StatusNotFound, gin.H{"message": "Provider not configured"})
			return
		}

		state := uuid.NewString()
		session := sessions.Default(c)
		session.Set(oauthStateKey, state)
		if err := session.Save(); err != nil {
			respondStoreError(c, err, "start OAuth flow")
			return
		}
		c.JSON(http.StatusOK, gin.H{"authUrl": p.AuthURL(state)})
	}
}

// OAuthCallback completes the provider handshake: it verifies the state,
// exchanges the authorization code, persists the tokens as an integration
// row and sends the browser back to the calendar page.
func (h *Handlers) OAuthCallback(provider string) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := h.Sync.Provider(provider)
		if p == nil {
			c.JSON(http.StatusNotFound, gin.H{"message": "Provider not configured"})
			return
		}

		code := c.Query("code")
		if code == "" {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Authorization code not provided"})
			return
		}

		session := sessions.Default(c)
		wantState, _ := session.Get(oauthStateKey).(string)
		session.Delete(oauthStateKey)
		_ = session.Save()
		if wantState == "" || c.Query("state") != wantState {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid OAuth state"})
			return
		}

		token, err := p.Exchange(c.Request.Context(), code)
		if err != nil {
			respondStoreError(c, err, "complete OAuth flow")
			return
		}

		expiry := token.Expiry
		if _, err := h.Store.UpsertIntegration(c.Request.Context(), currentUserID(c), provider, storage.IntegrationTokens{
			AccessToken:  token.AccessToken,
			RefreshToken: token.RefreshToken,
			TokenExpiry:  &expiry,
		}); err != nil {
			respondStoreError(c, err, "save integration")
			return
		}

		c.Redirect(http.StatusFound, "/calendar")
	}
}
