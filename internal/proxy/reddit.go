package proxy

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"time"
)

const (
	redditDefaultLimit = 25
	redditMaxLimit     = 100
)

var subredditPattern = regexp.MustCompile(`^[A-Za-z0-9_]{2,21}$`)

type redditRequest struct {
	Subreddit string `json:"subreddit"`
	Limit     int    `json:"limit"`
}

// redditError keeps the listing shape so callers can always range over children
type redditError struct {
	Error string `json:"error"`
	Data  struct {
		Children []any `json:"children"`
	} `json:"data"`
}

func newRedditError(msg string) redditError {
	e := redditError{Error: msg}
	e.Data.Children = []any{}
	return e
}

type redditTokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

// HandleReddit serves POST /api/reddit {subreddit, limit} with the newest
// posts of the subreddit. Upstream failures keep the listing shape.
func (h *Handler) HandleReddit(w http.ResponseWriter, r *http.Request) {
	var req redditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		record("reddit", http.StatusBadRequest)
		writeJSON(w, http.StatusBadRequest, newRedditError("invalid request body"))
		return
	}
	if !subredditPattern.MatchString(req.Subreddit) {
		record("reddit", http.StatusBadRequest)
		writeJSON(w, http.StatusBadRequest, newRedditError("invalid subreddit"))
		return
	}
	if req.Limit <= 0 {
		req.Limit = redditDefaultLimit
	}
	if req.Limit > redditMaxLimit {
		req.Limit = redditMaxLimit
	}

	body, status, err := h.fetchSubreddit(r, req)
	if err != nil {
		h.logUpstreamError("reddit", err)
		record("reddit", status)
		writeJSON(w, status, newRedditError(err.Error()))
		return
	}

	record("reddit", http.StatusOK)
	writeRaw(w, body)
}

func (h *Handler) fetchSubreddit(r *http.Request, req redditRequest) ([]byte, int, error) {
	request := h.client.R().
		SetContext(r.Context()).
		SetQueryParam("limit", fmt.Sprintf("%d", req.Limit)).
		SetQueryParam("raw_json", "1")

	endpoint := fmt.Sprintf("%s/r/%s/new.json", h.redditWWW, url.PathEscape(req.Subreddit))
	if h.redditClientID != "" && h.redditClientSecret != "" {
		token, err := h.redditAccessToken(r)
		if err != nil {
			return nil, http.StatusBadGateway, err
		}
		request.SetAuthToken(token)
		endpoint = fmt.Sprintf("%s/r/%s/new", h.redditOAuth, url.PathEscape(req.Subreddit))
	}

	resp, err := request.Get(endpoint)
	if err != nil {
		return nil, http.StatusBadGateway, fmt.Errorf("reddit request failed: %w", err)
	}

	switch {
	case resp.StatusCode() == http.StatusTooManyRequests:
		return nil, http.StatusTooManyRequests, fmt.Errorf("reddit rate limit exceeded")
	case resp.StatusCode() == http.StatusUnauthorized:
		h.resetToken()
		return nil, http.StatusBadGateway, fmt.Errorf("reddit rejected credentials")
	case resp.StatusCode() != http.StatusOK:
		return nil, http.StatusBadGateway, fmt.Errorf("reddit returned status %d", resp.StatusCode())
	}

	return resp.Body(), http.StatusOK, nil
}

// redditAccessToken returns a cached client-credentials token, refreshing it a
// minute before it expires.
func (h *Handler) redditAccessToken(r *http.Request) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.redditToken != "" && h.now().Before(h.tokenExpiry) {
		return h.redditToken, nil
	}

	var token redditTokenResponse
	resp, err := h.client.R().
		SetContext(r.Context()).
		SetBasicAuth(h.redditClientID, h.redditClientSecret).
		SetFormData(map[string]string{"grant_type": "client_credentials"}).
		SetResult(&token).
		Post(h.redditWWW + "/api/v1/access_token")
	if err != nil {
		return "", fmt.Errorf("reddit token request failed: %w", err)
	}
	if resp.StatusCode() != http.StatusOK || token.AccessToken == "" {
		return "", fmt.Errorf("reddit token endpoint returned status %d", resp.StatusCode())
	}

	h.redditToken = token.AccessToken
	h.tokenExpiry = h.now().Add(time.Duration(token.ExpiresIn)*time.Second - time.Minute)
	return h.redditToken, nil
}

func (h *Handler) resetToken() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.redditToken = ""
}
