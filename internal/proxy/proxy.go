package proxy

import (
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/gorilla/mux"
	"github.com/scopa-ai/signal/internal/config"
	"github.com/scopa-ai/signal/internal/metrics"
	"github.com/sirupsen/logrus"
)

const (
	defaultRedditWWW   = "https://www.reddit.com"
	defaultRedditOAuth = "https://oauth.reddit.com"
	defaultTwitterAPI  = "https://api.twitter.com"

	userAgent      = "signal-scanner/1.0 (lead discovery)"
	requestTimeout = 20 * time.Second
)

// Handler serves the same-origin proxy endpoints that keep platform
// credentials on the server.
type Handler struct {
	client *resty.Client

	redditClientID     string
	redditClientSecret string
	twitterToken       string

	redditWWW   string
	redditOAuth string
	twitterAPI  string

	now func() time.Time

	mu          sync.Mutex
	redditToken string
	tokenExpiry time.Time
}

type Option func(*Handler)

// WithRedditURLs points the proxy at alternate Reddit hosts
func WithRedditURLs(www, oauth string) Option {
	return func(h *Handler) {
		h.redditWWW = www
		h.redditOAuth = oauth
	}
}

func WithTwitterURL(url string) Option {
	return func(h *Handler) {
		h.twitterAPI = url
	}
}

func WithClock(now func() time.Time) Option {
	return func(h *Handler) {
		h.now = now
	}
}

// NewHandler creates the proxy from the platform credentials in cfg
func NewHandler(cfg *config.Config, opts ...Option) *Handler {
	h := &Handler{
		client: resty.New().
			SetTimeout(requestTimeout).
			SetHeader("User-Agent", userAgent),
		redditClientID:     cfg.RedditClientID,
		redditClientSecret: cfg.RedditClientSecret,
		twitterToken:       cfg.TwitterBearerToken,
		redditWWW:          defaultRedditWWW,
		redditOAuth:        defaultRedditOAuth,
		twitterAPI:         defaultTwitterAPI,
		now:                time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register mounts the proxy routes on r
func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/api/reddit", h.HandleReddit).Methods(http.MethodPost)
	r.HandleFunc("/api/twitter", h.HandleTwitter).Methods(http.MethodPost)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.Errorf("Failed to write proxy response: %v", err)
	}
}

func writeRaw(w http.ResponseWriter, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func record(platform string, status int) {
	metrics.ProxyRequest(platform, strconv.Itoa(status))
}
