package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

type fakeAccounts struct {
	email string
	name  string
}

func (f *fakeAccounts) LoginFederated(_ context.Context, email, name string) (string, error) {
	f.email = email
	f.name = name
	return "issued-token", nil
}

func newGoogleRouter(svc *GoogleService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	svc.RegisterRoutes(r.Group("/auth"))
	return r
}

func TestGoogleStartRequiresConfiguration(t *testing.T) {
	svc := NewGoogleService("", "", "", "http://ui.local/done", &fakeAccounts{})
	assert.False(t, svc.Enabled())

	resp := httptest.NewRecorder()
	newGoogleRouter(svc).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/auth/google/start", nil))
	assert.Equal(t, http.StatusInternalServerError, resp.Code)
	assert.Contains(t, resp.Body.String(), "auth_not_configured")
}

func TestGoogleStartRedirectsWithState(t *testing.T) {
	svc := NewGoogleService("client", "secret", "http://api.local/auth/google/callback", "http://ui.local/done", &fakeAccounts{})

	resp := httptest.NewRecorder()
	newGoogleRouter(svc).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/auth/google/start", nil))
	require.Equal(t, http.StatusFound, resp.Code)

	loc, err := url.Parse(resp.Header().Get("Location"))
	require.NoError(t, err)
	state := loc.Query().Get("state")
	require.NotEmpty(t, state)
	assert.Equal(t, "client", loc.Query().Get("client_id"))
	assert.True(t, svc.stateStore.consume(state))
	assert.False(t, svc.stateStore.consume(state))
}

func TestGoogleCallbackIssuesToken(t *testing.T) {
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/token":
			_ = json.NewEncoder(w).Encode(map[string]any{"access_token": "google-access", "token_type": "Bearer"})
		case "/userinfo":
			if r.Header.Get("Authorization") != "Bearer google-access" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]any{"id": "g-1", "email": "ada@example.com", "verified_email": true, "name": "Ada"})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer provider.Close()

	accounts := &fakeAccounts{}
	svc := NewGoogleService("client", "secret", "http://api.local/auth/google/callback", "http://ui.local/done?from=google", accounts)
	svc.oauthConfig.Endpoint = oauth2.Endpoint{
		AuthURL:   provider.URL + "/auth",
		TokenURL:  provider.URL + "/token",
		AuthStyle: oauth2.AuthStyleInParams,
	}
	svc.userInfoURL = provider.URL + "/userinfo"
	svc.stateStore.put("s1", time.Now().Add(time.Minute))

	resp := httptest.NewRecorder()
	newGoogleRouter(svc).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/auth/google/callback?state=s1&code=c1", nil))
	require.Equal(t, http.StatusFound, resp.Code, resp.Body.String())

	loc, err := url.Parse(resp.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "issued-token", loc.Query().Get("token"))
	assert.Equal(t, "google", loc.Query().Get("from"))
	assert.Equal(t, "ada@example.com", accounts.email)
	assert.Equal(t, "Ada", accounts.name)
}

func TestGoogleCallbackRejectsBadState(t *testing.T) {
	svc := NewGoogleService("client", "secret", "http://api.local/cb", "http://ui.local/done", &fakeAccounts{})
	r := newGoogleRouter(svc)

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/auth/google/callback?code=c1", nil))
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/auth/google/callback?state=unknown&code=c1", nil))
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Contains(t, resp.Body.String(), "invalid or expired state")
}

func TestStateStoreExpiry(t *testing.T) {
	store := newStateStore()
	store.put("old", time.Now().Add(-time.Second))
	assert.False(t, store.consume("old"))
}

func TestAppendToken(t *testing.T) {
	got, err := appendToken("http://ui.local/done?x=1", "abc")
	require.NoError(t, err)
	assert.Equal(t, "http://ui.local/done?token=abc&x=1", got)

	_, err = appendToken("", "abc")
	assert.Error(t, err)
}
