package server

import (
	"html/template"
	"net/http"
	"net/url"
	"slices"

	"github.com/brk3/habitboard/internal/logger"
	"github.com/go-chi/chi/v5"
	"golang.org/x/oauth2"
)

var loginPage = template.Must(template.New("login").Parse(`<!doctype html>
<h1>Log in to habits</h1>
<style>button{display:block;margin:10px 0;padding:10px 20px;}</style>
{{range .}}<form action="/auth/login/{{.ID}}"><button>{{.Name}}</button></form>
{{end}}`))

type APIKeyResponse struct {
	APIKey string `json:"api_key"`
}

type APIKeyInfo struct {
	KeyHash string `json:"key_hash"`
}

type APIKeyListResponse struct {
	Keys []APIKeyInfo `json:"keys"`
}

func (s *Server) provider(w http.ResponseWriter, r *http.Request) (string, *AuthProvider, bool) {
	id := chi.URLParam(r, "id")
	prov, ok := s.authProviders[id]
	if !ok {
		writeError(w, http.StatusNotFound, "unknown auth provider")
		return "", nil, false
	}
	return id, prov, true
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	_, prov, ok := s.provider(w, r)
	if !ok {
		return
	}

	verifier, challenge, err := newPKCE()
	if err != nil {
		logger.Error("PKCE generation failed", "error", err)
		writeError(w, http.StatusInternalServerError, "pkce gen failed")
		return
	}
	st, err := newState()
	if err != nil {
		logger.Error("State generation failed", "error", err)
		writeError(w, http.StatusInternalServerError, "state gen failed")
		return
	}

	prov.state.Put(st, authState{
		Verifier: verifier,
		Return:   safeReturnPath(r.URL.Query().Get("return")),
	})

	authURL := prov.oauth2.AuthCodeURL(st,
		oauth2.SetAuthURLParam("code_challenge", challenge),
		oauth2.SetAuthURLParam("code_challenge_method", "S256"),
	)
	http.Redirect(w, r, authURL, http.StatusFound)
}

// safeReturnPath keeps post-login redirects on this host.
func safeReturnPath(ret string) string {
	if ret == "" {
		return "/"
	}
	u, err := url.Parse(ret)
	if err != nil || u.IsAbs() || u.Host != "" {
		return "/"
	}
	return ret
}

func (s *Server) callback(w http.ResponseWriter, r *http.Request) {
	id, prov, ok := s.provider(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	st, code := q.Get("state"), q.Get("code")
	if st == "" || code == "" {
		writeError(w, http.StatusBadRequest, "missing state or code")
		return
	}

	saved, ok := prov.state.GetAndDelete(st)
	if !ok || saved.Verifier == "" {
		RecordAuthEvent("login", "invalid_state", id)
		writeError(w, http.StatusBadRequest, "invalid or expired state")
		return
	}

	tok, err := prov.oauth2.Exchange(r.Context(), code,
		oauth2.SetAuthURLParam("code_verifier", saved.Verifier),
	)
	if err != nil {
		logger.Warn("Code exchange failed", "provider", id, "error", err)
		RecordAuthEvent("login", "exchange_failed", id)
		writeError(w, http.StatusBadGateway, "code exchange failed")
		return
	}
	rawIDToken, _ := tok.Extra("id_token").(string)
	if rawIDToken == "" {
		writeError(w, http.StatusBadGateway, "no id_token in response")
		return
	}
	idToken, err := prov.idVerifier.Verify(r.Context(), rawIDToken)
	if err != nil {
		RecordAuthEvent("login", "invalid_token", id)
		writeError(w, http.StatusUnauthorized, "id_token invalid")
		return
	}

	if tok.RefreshToken != "" {
		var claims map[string]any
		if err := idToken.Claims(&claims); err != nil {
			writeError(w, http.StatusUnauthorized, "token claims invalid")
			return
		}
		if userID := userIDFromClaims(claims); userID != "" {
			if err := s.store.PutRefreshToken(userID, tok); err != nil {
				logger.Error("Failed to store refresh token", "user_id", userID, "error", err)
			}
		}
	} else {
		logger.Debug("No refresh token issued, sessions will not be refreshed", "provider", id)
	}

	if err := s.setSessionCookie(w, id+":"+rawIDToken); err != nil {
		logger.Error("Failed to set session cookie", "error", err)
		writeError(w, http.StatusInternalServerError, "session encoding failed")
		return
	}
	RecordAuthEvent("login", "success", id)
	http.Redirect(w, r, saved.Return, http.StatusFound)
}

func (s *Server) logout(w http.ResponseWriter, _ *http.Request) {
	clearSessionCookie(w)
	logger.Info("User logged out")
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) simpleLogin(w http.ResponseWriter, _ *http.Request) {
	type entry struct{ ID, Name string }
	ids := make([]string, 0, len(s.authProviders))
	for id := range s.authProviders {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	entries := make([]entry, 0, len(ids))
	for _, id := range ids {
		entries = append(entries, entry{ID: id, Name: s.authProviders[id].name})
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := loginPage.Execute(w, entries); err != nil {
		logger.Error("Failed to render login page", "error", err)
	}
}

// getAPIToken returns the "provider:jwt" token held in the session cookie,
// for pasting into the CLI config.
func (s *Server) getAPIToken(w http.ResponseWriter, r *http.Request) {
	c, err := r.Cookie(sessionCookieName)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "not logged in")
		return
	}
	var prefixed string
	if err := s.sessionCookie.Decode(sessionCookieName, c.Value, &prefixed); err != nil {
		writeError(w, http.StatusUnauthorized, "invalid session cookie")
		return
	}
	w.Header().Set("Content-Type", "text/plain")
	_, _ = w.Write([]byte(prefixed))
}

func (s *Server) generateAPIKey(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromContext(true, r)
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	key, err := newAPIKey()
	if err != nil {
		logger.Error("Failed to generate API key", "error", err)
		writeError(w, http.StatusInternalServerError, "key generation failed")
		return
	}
	keyHash := hashAPIKey(key)
	if err := s.store.PutAPIKey(keyHash, userID); err != nil {
		logger.Error("Failed to store API key", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "storage error")
		return
	}
	logger.Info("API key generated", "user_id", userID, "key_hash", truncateHash(keyHash))
	_ = writeJSON(w, http.StatusOK, APIKeyResponse{APIKey: key})
}

func (s *Server) listAPIKeys(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromContext(true, r)
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	hashes, err := s.store.ListAPIKeyHashes(userID)
	if err != nil {
		logger.Error("Failed to list API keys", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "storage error")
		return
	}
	resp := APIKeyListResponse{Keys: make([]APIKeyInfo, 0, len(hashes))}
	for _, h := range hashes {
		resp.Keys = append(resp.Keys, APIKeyInfo{KeyHash: h})
	}
	_ = writeJSON(w, http.StatusOK, resp)
}

func (s *Server) deleteAPIKey(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromContext(true, r)
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	keyHash := chi.URLParam(r, "key_hash")
	owner, found, err := s.store.GetAPIKey(keyHash)
	if err != nil {
		logger.Error("Failed to look up API key", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "storage error")
		return
	}
	if !found || owner != userID {
		writeError(w, http.StatusNotFound, "api key not found")
		return
	}
	if err := s.store.DeleteAPIKey(keyHash); err != nil {
		logger.Error("Failed to delete API key", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "storage error")
		return
	}
	logger.Info("API key revoked", "user_id", userID, "key_hash", truncateHash(keyHash))
	w.WriteHeader(http.StatusNoContent)
}
