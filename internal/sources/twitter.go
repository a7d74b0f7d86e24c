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

const twitterMaxResults = 25

var painPointPhrases = []string{
	"looking for", "need help", "anyone recommend", "frustrated with",
	"struggling with", "wish there was",
}

// TwitterSource adapts TwitterCollector to the Source interface
type TwitterSource struct {
	collector *TwitterCollector
}

// TwitterCollector searches recent tweets through the /api/twitter proxy and
// scores them by engagement instead of the fit-score formula.
type TwitterCollector struct {
	client  *resty.Client
	limiter *ratelimit.Limiter
	cfg     scanConfig
}

// TwitterSearchResponse is the payload returned by the Twitter proxy
type TwitterSearchResponse struct {
	Error    string         `json:"error,omitempty"`
	Data     []TwitterTweet `json:"data"`
	Includes struct {
		Users []TwitterUser `json:"users"`
	} `json:"includes"`
}

type TwitterTweet struct {
	ID            string `json:"id"`
	Text          string `json:"text"`
	AuthorID      string `json:"author_id"`
	CreatedAt     string `json:"created_at"`
	PublicMetrics struct {
		RetweetCount int `json:"retweet_count"`
		LikeCount    int `json:"like_count"`
		ReplyCount   int `json:"reply_count"`
	} `json:"public_metrics"`
	ReferencedTweets []struct {
		Type string `json:"type"`
		ID   string `json:"id"`
	} `json:"referenced_tweets,omitempty"`
}

type TwitterUser struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
}

type twitterProxyRequest struct {
	Query      string `json:"query"`
	MaxResults int    `json:"maxResults"`
}

// NewTwitterSource creates a new Twitter source backed by the proxy at proxyURL
func NewTwitterSource(proxyURL string, limiter *ratelimit.Limiter, opts ...Option) *TwitterSource {
	return &TwitterSource{collector: NewTwitterCollector(proxyURL, limiter, opts...)}
}

// NewTwitterCollector creates the underlying tweet collector
func NewTwitterCollector(proxyURL string, limiter *ratelimit.Limiter, opts ...Option) *TwitterCollector {
	return &TwitterCollector{
		client:  newRestyClient(),
		limiter: limiter,
		cfg:     newScanConfig(strings.TrimRight(proxyURL, "/"), opts),
	}
}

func (t *TwitterSource) GetName() string {
	return "twitter"
}

func (t *TwitterSource) IsEnabled() bool {
	return t.collector.cfg.baseURL != ""
}

func (t *TwitterSource) Supports(mode models.SearchMode) bool {
	return true
}

func (t *TwitterSource) FetchLeads(ctx context.Context, query string, mode models.SearchMode) ([]models.Lead, error) {
	if !t.IsEnabled() {
		logrus.Debug("Twitter source disabled - missing proxy URL")
		return nil, nil
	}
	return t.collector.Collect(ctx, strings.Fields(query))
}

// BuildQuery combines the user's keywords with the fixed pain-point phrases
func (c *TwitterCollector) BuildQuery(keywords []string) string {
	var terms []string
	for _, keyword := range keywords {
		if keyword = strings.TrimSpace(keyword); keyword != "" {
			terms = append(terms, keyword)
		}
	}

	phrases := make([]string, len(painPointPhrases))
	for i, phrase := range painPointPhrases {
		phrases[i] = fmt.Sprintf("%q", phrase)
	}

	painClause := "(" + strings.Join(phrases, " OR ") + ")"
	if len(terms) == 0 {
		return painClause + " -is:retweet lang:en"
	}
	return fmt.Sprintf("(%s) %s -is:retweet lang:en", strings.Join(terms, " OR "), painClause)
}

// Collect fetches and maps tweets. A 429 from the proxy yields no leads and
// is not retried.
func (c *TwitterCollector) Collect(ctx context.Context, keywords []string) ([]models.Lead, error) {
	if err := c.limiter.Wait(ctx, ratelimit.Twitter); err != nil {
		logrus.Warnf("Twitter scan stopped waiting for rate limit: %v", err)
		return nil, nil
	}

	query := c.BuildQuery(keywords)
	logrus.Debugf("Twitter proxy request: %s", query)

	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(twitterProxyRequest{Query: query, MaxResults: twitterMaxResults}).
		Post(c.cfg.baseURL + "/api/twitter")

	if err != nil {
		logrus.Errorf("Twitter proxy request failed: %v", err)
		return nil, nil
	}

	if resp.StatusCode() == 429 {
		logrus.Warn("Twitter rate limit hit - returning no tweets for this search")
		return []models.Lead{}, nil
	}

	if resp.StatusCode() != 200 {
		logrus.Errorf("Twitter proxy returned status %d: %s", resp.StatusCode(), string(resp.Body()))
		return nil, nil
	}

	var searchResp TwitterSearchResponse
	if err := json.Unmarshal(resp.Body(), &searchResp); err != nil {
		logrus.Errorf("Failed to parse Twitter response: %v", err)
		return nil, nil
	}

	return c.mapTweets(searchResp), nil
}

func (c *TwitterCollector) mapTweets(searchResp TwitterSearchResponse) []models.Lead {
	users := make(map[string]TwitterUser, len(searchResp.Includes.Users))
	for _, user := range searchResp.Includes.Users {
		users[user.ID] = user
	}

	now := c.cfg.now()
	var leads []models.Lead

	for _, tweet := range searchResp.Data {
		if isRetweet(tweet) {
			continue
		}

		createdAt, err := time.Parse(time.RFC3339, tweet.CreatedAt)
		if err != nil {
			logrus.Debugf("Failed to parse Twitter timestamp %q: %v", tweet.CreatedAt, err)
		}

		budget := heuristics.ExtractBudget(tweet.Text)
		lead := models.Lead{
			ID:             newLeadID(prefixTwitter),
			RequestSummary: summarize(tweet.Text, ""),
			PostedAt:       heuristics.FormatPostedAt(createdAt, now),
			Source:         models.SourceTwitter,
			Location:       heuristics.ExtractLocation(tweet.Text),
			FitScore: EngagementScore(
				tweet.PublicMetrics.ReplyCount,
				tweet.PublicMetrics.RetweetCount,
				tweet.PublicMetrics.LikeCount,
			),
			Budget:       budget.Category,
			BudgetAmount: budget.Amount,
			Urgency:      heuristics.ExtractUrgency(tweet.Text),
			Status:       models.StatusNew,
		}

		if user, ok := users[tweet.AuthorID]; ok {
			lead.ProspectName = user.Name
			lead.Username = "@" + user.Username
			lead.ContactInfo = "Twitter: @" + user.Username
			lead.SourceURL = fmt.Sprintf("https://twitter.com/%s/status/%s", user.Username, tweet.ID)
		} else {
			lead.ProspectName = tweet.AuthorID
			lead.Username = tweet.AuthorID
			lead.ContactInfo = "Twitter user " + tweet.AuthorID
			lead.SourceURL = fmt.Sprintf("https://twitter.com/i/status/%s", tweet.ID)
		}

		leads = append(leads, lead)
	}

	return leads
}

// engagement thresholds, highest first
var engagementTiers = []struct {
	min   int
	score int
}{
	{500, 10}, {200, 9}, {100, 8}, {50, 7}, {20, 6},
	{10, 5}, {5, 4}, {2, 3}, {1, 2},
}

// EngagementScore maps replies x3 + retweets x2 + likes onto a 1-10 scale
func EngagementScore(replies, retweets, likes int) int {
	engagement := replies*3 + retweets*2 + likes
	for _, tier := range engagementTiers {
		if engagement >= tier.min {
			return tier.score
		}
	}
	return 1
}

func isRetweet(tweet TwitterTweet) bool {
	for _, ref := range tweet.ReferencedTweets {
		if ref.Type == "retweeted" {
			return true
		}
	}
	return false
}
