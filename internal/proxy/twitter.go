package proxy

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"
)

const (
	twitterMinResults = 10
	twitterMaxResults = 100
)

type twitterRequest struct {
	Query      string `json:"query"`
	MaxResults int    `json:"maxResults"`
}

type twitterError struct {
	Error string `json:"error"`
	Data  []any  `json:"data"`
}

func newTwitterError(msg string) twitterError {
	return twitterError{Error: msg, Data: []any{}}
}

// HandleTwitter serves POST /api/twitter {query, maxResults} from the v2
// recent search API. A rate-limited upstream is reported as 429 so the
// caller can back off; nothing is retried here.
func (h *Handler) HandleTwitter(w http.ResponseWriter, r *http.Request) {
	var req twitterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Query) == "" {
		record("twitter", http.StatusBadRequest)
		writeJSON(w, http.StatusBadRequest, newTwitterError("query is required"))
		return
	}

	if h.twitterToken == "" {
		record("twitter", http.StatusServiceUnavailable)
		writeJSON(w, http.StatusServiceUnavailable, newTwitterError("Twitter API is not configured"))
		return
	}

	req.MaxResults = max(twitterMinResults, min(req.MaxResults, twitterMaxResults))

	resp, err := h.client.R().
		SetContext(r.Context()).
		SetAuthToken(h.twitterToken).
		SetQueryParams(map[string]string{
			"query":        req.Query,
			"max_results":  fmt.Sprintf("%d", req.MaxResults),
			"tweet.fields": "created_at,public_metrics,author_id,referenced_tweets",
			"expansions":   "author_id",
			"user.fields":  "username,name",
		}).
		Get(h.twitterAPI + "/2/tweets/search/recent")
	if err != nil {
		h.logUpstreamError("twitter", err)
		record("twitter", http.StatusBadGateway)
		writeJSON(w, http.StatusBadGateway, newTwitterError("twitter request failed"))
		return
	}

	switch resp.StatusCode() {
	case http.StatusOK:
		record("twitter", http.StatusOK)
		writeRaw(w, resp.Body())
	case http.StatusTooManyRequests:
		logrus.Warn("Twitter rate limit exceeded")
		record("twitter", http.StatusTooManyRequests)
		writeJSON(w, http.StatusTooManyRequests, newTwitterError("Twitter rate limit exceeded"))
	default:
		h.logUpstreamError("twitter", fmt.Errorf("status %d: %s", resp.StatusCode(), truncate(resp.String(), 200)))
		record("twitter", http.StatusBadGateway)
		writeJSON(w, http.StatusBadGateway, newTwitterError(fmt.Sprintf("twitter returned status %d", resp.StatusCode())))
	}
}

func (h *Handler) logUpstreamError(platform string, err error) {
	logrus.WithField("platform", platform).Errorf("Proxy upstream error: %v", err)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
