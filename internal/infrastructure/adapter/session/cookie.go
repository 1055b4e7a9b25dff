package session

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/sessions"
)

// DefaultCookieName is used when no cookie name is configured
const DefaultCookieName = "cf_payment"

// CookieOptions configures the browser cookie that remembers payment sessions
type CookieOptions struct {
	Name   string
	Secret string
	MaxAge int // seconds
	Secure bool
}

// CookieManager keeps the payment session id of every project the browser is paying for
type CookieManager struct {
	store *sessions.CookieStore
	name  string
}

// NewCookieManager creates a CookieManager backed by a signed gorilla cookie store
func NewCookieManager(opts CookieOptions) (*CookieManager, error) {
	if len(opts.Secret) < 16 {
		return nil, errors.New("session secret must be at least 16 bytes")
	}
	if opts.Name == "" {
		opts.Name = DefaultCookieName
	}

	store := sessions.NewCookieStore([]byte(opts.Secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   opts.MaxAge,
		HttpOnly: true,
		Secure:   opts.Secure,
		// The gateway returns the payer through a top level GET redirect
		SameSite: http.SameSiteLaxMode,
	}

	return &CookieManager{store: store, name: opts.Name}, nil
}

func projectKey(projectID uint64) string {
	return "project_" + strconv.FormatUint(projectID, 10)
}

// SessionID returns the payment session id remembered for the project, or empty
func (m *CookieManager) SessionID(r *http.Request, projectID uint64) string {
	cookie, err := m.store.Get(r, m.name)
	if err != nil {
		return ""
	}
	id, _ := cookie.Values[projectKey(projectID)].(string)
	return id
}

// SetSessionID remembers the payment session id for the project
func (m *CookieManager) SetSessionID(w http.ResponseWriter, r *http.Request, projectID uint64, sessionID string) error {
	// A cookie that fails to decode is replaced by a fresh one
	cookie, _ := m.store.Get(r, m.name)
	cookie.Values[projectKey(projectID)] = sessionID
	return cookie.Save(r, w)
}

// Forget drops the payment session id remembered for the project
func (m *CookieManager) Forget(w http.ResponseWriter, r *http.Request, projectID uint64) error {
	cookie, _ := m.store.Get(r, m.name)
	delete(cookie.Values, projectKey(projectID))
	return cookie.Save(r, w)
}
