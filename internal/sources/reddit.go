package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/scopa-ai/signal/internal/heuristics"
	"github.com/scopa-ai/signal/internal/models"
	"github.com/scopa-ai/signal/internal/ratelimit"
	"github.com/sirupsen/logrus"
)

const (
	redditPerSubredditCap = 10
	redditFetchLimit      = 25
	redditDefaultPause    = 2 * time.Second
)

var (
	leadSubreddits = []string{
		"forhire", "freelance", "slavelabour", "hiring", "jobbit",
		"startups", "smallbusiness", "entrepreneur",
	}
	opportunitySubreddits = []string{
		"SaaS", "Entrepreneur", "smallbusiness", "startups",
		"sideproject", "indiehackers", "productivity", "webdev",
	}
)

// RedditSource scans subreddits through the same-origin /api/reddit proxy
type RedditSource struct {
	client  *resty.Client
	limiter *ratelimit.Limiter
	cfg     scanConfig
}

// RedditListing is the payload returned by the Reddit proxy. On upstream
// failure the proxy sets Error and an empty children list.
type RedditListing struct {
	Error string `json:"error,omitempty"`
	Data  struct {
		Children []RedditChild `json:"children"`
	} `json:"data"`
}

type RedditChild struct {
	Data RedditPost `json:"data"`
}

type RedditPost struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Selftext    string  `json:"selftext"`
	Author      string  `json:"author"`
	Subreddit   string  `json:"subreddit"`
	URL         string  `json:"url"`
	Permalink   string  `json:"permalink"`
	Created     float64 `json:"created_utc"`
	Score       int     `json:"score"`
	NumComments int     `json:"num_comments"`
}

type redditProxyRequest struct {
	Subreddit string `json:"subreddit"`
	Limit     int    `json:"limit"`
}

// NewRedditSource creates a new Reddit source. proxyURL is the base URL of
// the service exposing POST /api/reddit.
func NewRedditSource(proxyURL string, limiter *ratelimit.Limiter, opts ...Option) *RedditSource {
	opts = append([]Option{WithPause(redditDefaultPause)}, opts...)
	return &RedditSource{
		client:  newRestyClient(),
		limiter: limiter,
		cfg:     newScanConfig(strings.TrimRight(proxyURL, "/"), opts),
	}
}

func (r *RedditSource) GetName() string {
	return "reddit"
}

func (r *RedditSource) IsEnabled() bool {
	return r.cfg.baseURL != ""
}

func (r *RedditSource) Supports(mode models.SearchMode) bool {
	return true
}

// Subreddits returns the sub-sources scanned for a mode
func Subreddits(mode models.SearchMode) []string {
	if mode == models.ModeOpportunity {
		return opportunitySubreddits
	}
	return leadSubreddits
}

func (r *RedditSource) FetchLeads(ctx context.Context, query string, mode models.SearchMode) ([]models.Lead, error) {
	if !r.IsEnabled() {
		logrus.Debug("Reddit source disabled - missing proxy URL")
		return nil, nil
	}

	var allLeads []models.Lead

	for i, subreddit := range Subreddits(mode) {
		// Subreddits are walked strictly in order to stay under Reddit's limits
		if i > 0 && r.cfg.pause > 0 {
			select {
			case <-ctx.Done():
				logrus.Warnf("Reddit scan cancelled after %d subreddits", i)
				return allLeads, nil
			case <-time.After(r.cfg.pause):
			}
		}

		if err := r.limiter.Wait(ctx, ratelimit.Reddit); err != nil {
			logrus.Warnf("Reddit scan stopped waiting for rate limit: %v", err)
			return allLeads, nil
		}

		leads, err := r.scanSubreddit(ctx, subreddit, query, mode)
		if err != nil {
			logrus.Errorf("Failed to scan subreddit %s: %v", subreddit, err)
			continue
		}

		logrus.Debugf("Found %d leads in r/%s", len(leads), subreddit)
		allLeads = append(allLeads, leads...)
	}

	return allLeads, nil
}

func (r *RedditSource) scanSubreddit(ctx context.Context, subreddit, query string, mode models.SearchMode) ([]models.Lead, error) {
	resp, err := r.client.R().
		SetContext(ctx).
		SetBody(redditProxyRequest{Subreddit: subreddit, Limit: redditFetchLimit}).
		Post(r.cfg.baseURL + "/api/reddit")

	if err != nil {
		return nil, err
	}

	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("reddit proxy returned status %d", resp.StatusCode())
	}

	var listing RedditListing
	if err := json.Unmarshal(resp.Body(), &listing); err != nil {
		return nil, fmt.Errorf("failed to parse reddit listing: %w", err)
	}

	if listing.Error != "" {
		return nil, fmt.Errorf("reddit proxy error: %s", listing.Error)
	}

	now := r.cfg.now()
	var leads []models.Lead

	for _, child := range listing.Data.Children {
		post := child.Data
		fullText := post.Title + " " + post.Selftext

		if !r.cfg.matcher(fullText, query) || !heuristics.ContainsLeadIndicators(fullText, mode) {
			continue
		}

		lead := scoredLead(prefixReddit, models.SourceReddit, fullText, query, time.Unix(int64(post.Created), 0), now)
		lead.ProspectName = post.Author
		lead.Username = "u/" + post.Author
		lead.RequestSummary = summarize(post.Title, post.Selftext)
		lead.ContactInfo = "Reddit DM: u/" + post.Author
		lead.SourceURL = "https://reddit.com" + post.Permalink

		leads = append(leads, lead)
		if len(leads) >= redditPerSubredditCap {
			break
		}
	}

	return leads, nil
}
