package server

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/brk3/habitboard/internal/config"
	"github.com/brk3/habitboard/internal/logger"
	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/gorilla/securecookie"
	"golang.org/x/oauth2"
)

const (
	sessionCookieName = "session"
	sessionMaxAge     = 24 * time.Hour
	stateTTL          = 5 * time.Minute
	apiKeyPrefix      = "hab_"
	anonymousUserID   = "anonymous"
)

var errNoCredentials = errors.New("no credentials")

type userCtxKey struct{}

type User struct {
	Subject string
	Email   string
	UserID  string
	Claims  map[string]any
}

// StateStore holds in-flight PKCE login state, keyed by the OAuth2 state
// parameter. Entries expire after ttl.
type StateStore struct {
	ttl time.Duration
	mu  sync.Mutex
	m   map[string]authState
}

type authState struct {
	Verifier string
	Return   string
	ExpireAt time.Time
}

func NewStateStore(ttl time.Duration) *StateStore {
	s := &StateStore{ttl: ttl, m: make(map[string]authState)}
	go s.janitor(time.Minute)
	return s
}

func (s *StateStore) janitor(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for now := range ticker.C {
		s.mu.Lock()
		for k, v := range s.m {
			if now.After(v.ExpireAt) {
				delete(s.m, k)
			}
		}
		s.mu.Unlock()
	}
}

func (s *StateStore) Put(key string, v authState) {
	if v.ExpireAt.IsZero() {
		v.ExpireAt = time.Now().Add(s.ttl)
	}
	s.mu.Lock()
	s.m[key] = v
	s.mu.Unlock()
}

func (s *StateStore) GetAndDelete(key string) (authState, bool) {
	s.mu.Lock()
	v, ok := s.m[key]
	delete(s.m, key)
	s.mu.Unlock()
	if !ok || time.Now().After(v.ExpireAt) {
		return authState{}, false
	}
	return v, true
}

func ConfigureOIDCProviders(cfg *config.Config) (map[string]*AuthProvider, *securecookie.SecureCookie, error) {
	logger.Info("Configuring OIDC providers", "count", len(cfg.OIDCProviders))

	hashKey := securecookie.GenerateRandomKey(64)
	blockKey := securecookie.GenerateRandomKey(32)
	if hashKey == nil || blockKey == nil {
		return nil, nil, errors.New("failed to generate secure cookie keys")
	}
	cookie := securecookie.New(hashKey, blockKey)
	cookie.MaxAge(int(sessionMaxAge.Seconds()))

	providers := make(map[string]*AuthProvider, len(cfg.OIDCProviders))
	for _, pc := range cfg.OIDCProviders {
		logger.Debug("Setting up OIDC provider", "id", pc.Id, "issuer", pc.IssuerURL)
		prov, err := oidc.NewProvider(context.Background(), pc.IssuerURL)
		if err != nil {
			return nil, nil, fmt.Errorf("oidc provider %q: %w", pc.Id, err)
		}
		scopes := pc.Scopes
		if len(scopes) == 0 {
			scopes = []string{oidc.ScopeOpenID, "email", oidc.ScopeOfflineAccess}
		}
		name := pc.Name
		if name == "" {
			name = pc.Id
		}
		providers[pc.Id] = &AuthProvider{
			name: name,
			oauth2: &oauth2.Config{
				ClientID:     pc.ClientID,
				ClientSecret: pc.ClientSecret,
				Endpoint:     prov.Endpoint(),
				RedirectURL:  pc.RedirectURL,
				Scopes:       scopes,
			},
			oidcProv:   prov,
			idVerifier: prov.Verifier(&oidc.Config{ClientID: pc.ClientID}),
			state:      NewStateStore(stateTTL),
		}
		logger.Info("OIDC provider configured", "id", pc.Id, "name", name)
	}

	return providers, cookie, nil
}

// authMiddleware accepts, in order: a session cookie, an API key bearer
// token, or a "provider:jwt" bearer token. The resolved User is stored in
// the request context.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		bearer, hasBearer := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")

		if hasBearer && strings.HasPrefix(bearer, apiKeyPrefix) {
			user, ok := s.authenticateAPIKey(bearer)
			if !ok {
				RecordAuthEvent("verification", "failed", "apikey")
				s.handleAuthFailure(w, r, false)
				return
			}
			RecordAuthEvent("verification", "success", "apikey")
			next.ServeHTTP(w, withUser(r, user))
			return
		}

		providerID, rawIDToken, err := s.sessionToken(r)
		if errors.Is(err, errNoCredentials) && hasBearer {
			providerID, rawIDToken, err = s.bearerToken(bearer)
		}
		if err != nil {
			logger.Debug("No usable credentials", "path", r.URL.Path, "error", err)
			RecordAuthEvent("verification", "missing_token", "unknown")
			s.handleAuthFailure(w, r, false)
			return
		}

		user, err := s.verifyIDToken(w, r, providerID, rawIDToken)
		if err != nil {
			logger.Debug("ID token rejected", "provider", providerID, "error", err)
			s.handleAuthFailure(w, r, true)
			return
		}
		next.ServeHTTP(w, withUser(r, user))
	})
}

func withUser(r *http.Request, u *User) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), userCtxKey{}, u))
}

func (s *Server) sessionToken(r *http.Request) (providerID, rawIDToken string, err error) {
	c, err := r.Cookie(sessionCookieName)
	if err != nil {
		return "", "", errNoCredentials
	}
	var prefixed string
	if err := s.sessionCookie.Decode(sessionCookieName, c.Value, &prefixed); err != nil {
		return "", "", fmt.Errorf("decode session cookie: %w", errNoCredentials)
	}
	providerID, rawIDToken, err = parseProviderToken(prefixed)
	if err != nil {
		return "", "", fmt.Errorf("%v: %w", err, errNoCredentials)
	}
	return providerID, rawIDToken, nil
}

func (s *Server) bearerToken(token string) (providerID, rawIDToken string, err error) {
	providerID, rawIDToken, err = parseProviderToken(token)
	if err != nil {
		return "", "", err
	}
	if _, ok := s.authProviders[providerID]; !ok {
		return "", "", fmt.Errorf("unknown provider %q", providerID)
	}
	return providerID, rawIDToken, nil
}

// verifyIDToken checks rawIDToken against the provider, falling back to a
// stored refresh token when it has expired. A refreshed token is written
// back to the session cookie.
func (s *Server) verifyIDToken(w http.ResponseWriter, r *http.Request, providerID, rawIDToken string) (*User, error) {
	prov, ok := s.authProviders[providerID]
	if !ok {
		return nil, fmt.Errorf("unknown provider %q", providerID)
	}

	idTok, err := prov.idVerifier.Verify(r.Context(), rawIDToken)
	if err == nil {
		RecordAuthEvent("verification", "success", providerID)
	} else {
		RecordAuthEvent("verification", "failed", providerID)
		refreshed, ok := s.tryRefreshToken(r.Context(), providerID, rawIDToken)
		if !ok {
			RecordAuthEvent("refresh", "failed", providerID)
			return nil, err
		}
		idTok, err = prov.idVerifier.Verify(r.Context(), refreshed)
		if err != nil {
			RecordAuthEvent("refresh", "verification_failed", providerID)
			return nil, err
		}
		RecordAuthEvent("refresh", "success", providerID)
		if err := s.setSessionCookie(w, providerID+":"+refreshed); err != nil {
			return nil, err
		}
	}

	var claims map[string]any
	if err := idTok.Claims(&claims); err != nil {
		return nil, fmt.Errorf("extract claims: %w", err)
	}
	return &User{
		Subject: idTok.Subject,
		Email:   strClaim(claims, "email"),
		UserID:  userIDFromClaims(claims),
		Claims:  claims,
	}, nil
}

func (s *Server) setSessionCookie(w http.ResponseWriter, prefixedToken string) error {
	val, err := s.sessionCookie.Encode(sessionCookieName, prefixedToken)
	if err != nil {
		return fmt.Errorf("encode session cookie: %w", err)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    val,
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(sessionMaxAge.Seconds()),
	})
	return nil
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
}

// parseProviderToken splits a "provider:jwt" token.
func parseProviderToken(token string) (providerID, jwt string, err error) {
	providerID, jwt, found := strings.Cut(token, ":")
	switch {
	case token == "":
		return "", "", errors.New("empty token")
	case !found:
		return "", "", errors.New("invalid token format: expected 'provider:jwt'")
	case providerID == "":
		return "", "", errors.New("empty provider ID")
	case jwt == "":
		return "", "", errors.New("empty JWT token")
	}
	return providerID, jwt, nil
}

func strClaim(m map[string]any, k string) string {
	v, _ := m[k].(string)
	return v
}

// userIDFromClaims derives a stable user ID from the issuer and subject.
func userIDFromClaims(claims map[string]any) string {
	iss := strClaim(claims, "iss")
	sub := strClaim(claims, "sub")
	if iss == "" || sub == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(iss + "|" + sub))
	return fmt.Sprintf("user-%x", sum[:8])
}

// userIDFromContext returns the caller's user ID, "anonymous" when auth is
// off, or "" when auth is on but no user was resolved.
func userIDFromContext(authEnabled bool, r *http.Request) string {
	if !authEnabled {
		return anonymousUserID
	}
	user, ok := r.Context().Value(userCtxKey{}).(*User)
	if !ok {
		return ""
	}
	return user.UserID
}

func (s *Server) handleAuthFailure(w http.ResponseWriter, r *http.Request, clearCookie bool) {
	if clearCookie {
		clearSessionCookie(w)
	}

	accept := r.Header.Get("Accept")
	if r.Method == http.MethodGet && (accept == "" || strings.Contains(accept, "text/html")) {
		http.Redirect(w, r, "/auth/login", http.StatusFound)
		return
	}
	if clearCookie {
		w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
	} else {
		w.Header().Set("WWW-Authenticate", `Bearer realm="habits"`)
	}
	writeError(w, http.StatusUnauthorized, "unauthorized")
}

// expiredTokenClaims reads the claims of an ID token whose signature is
// valid but whose expiry has passed.
func (s *Server) expiredTokenClaims(ctx context.Context, providerID, token string) (map[string]any, error) {
	prov := s.authProviders[providerID]
	verifier := prov.oidcProv.Verifier(&oidc.Config{
		ClientID:        prov.oauth2.ClientID,
		SkipExpiryCheck: true,
	})
	idTok, err := verifier.Verify(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("parse expired token: %w", err)
	}
	var claims map[string]any
	err = idTok.Claims(&claims)
	return claims, err
}

func (s *Server) tryRefreshToken(ctx context.Context, providerID, expiredIDToken string) (string, bool) {
	claims, err := s.expiredTokenClaims(ctx, providerID, expiredIDToken)
	if err != nil {
		logger.Debug("Cannot refresh token", "provider", providerID, "error", err)
		return "", false
	}
	userID := userIDFromClaims(claims)
	if userID == "" {
		return "", false
	}

	stored, found, err := s.store.GetRefreshToken(userID)
	if err != nil {
		logger.Error("Failed to load refresh token", "user_id", userID, "error", err)
		return "", false
	}
	if !found {
		logger.Debug("No refresh token stored", "user_id", userID)
		return "", false
	}

	fresh, err := s.authProviders[providerID].oauth2.TokenSource(ctx, stored).Token()
	if err != nil {
		logger.Debug("Token refresh failed", "user_id", userID, "error", err)
		if err := s.store.DeleteRefreshToken(userID); err != nil {
			logger.Error("Failed to delete refresh token", "user_id", userID, "error", err)
		}
		return "", false
	}
	if err := s.store.PutRefreshToken(userID, fresh); err != nil {
		logger.Error("Failed to persist refresh token", "user_id", userID, "error", err)
	}

	newIDToken, _ := fresh.Extra("id_token").(string)
	if newIDToken == "" {
		logger.Debug("No id_token in refreshed token", "user_id", userID)
		return "", false
	}
	logger.Debug("Refreshed ID token", "user_id", userID, "expiry", fresh.Expiry)
	return newIDToken, true
}

func (s *Server) authenticateAPIKey(apiKey string) (*User, bool) {
	keyHash := hashAPIKey(apiKey)
	userID, found, err := s.store.GetAPIKey(keyHash)
	if err != nil {
		logger.Error("Failed to look up API key", "key_hash", truncateHash(keyHash), "error", err)
		return nil, false
	}
	if !found {
		logger.Debug("Unknown API key", "key_hash", truncateHash(keyHash))
		return nil, false
	}
	return &User{
		UserID:  userID,
		Subject: "apikey:" + truncateHash(keyHash),
		Claims:  map[string]any{"auth_method": "api_key"},
	}, true
}
