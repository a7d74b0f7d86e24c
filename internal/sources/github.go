package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/scopa-ai/signal/internal/models"
	"github.com/scopa-ai/signal/internal/ratelimit"
	"github.com/sirupsen/logrus"
)

const (
	gitHubBaseURL  = "https://api.github.com"
	gitHubPageSize = 30
)

// GitHubSource searches open issues asking for outside help
type GitHubSource struct {
	client  *resty.Client
	limiter *ratelimit.Limiter
	cfg     scanConfig
}

type gitHubSearchResponse struct {
	TotalCount int           `json:"total_count"`
	Items      []gitHubIssue `json:"items"`
}

type gitHubIssue struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	User  struct {
		Login string `json:"login"`
	} `json:"user"`
	CreatedAt string `json:"created_at"`
	HTMLURL   string `json:"html_url"`
}

// NewGitHubSource creates a new GitHub issue-search source. A token is optional
// and only raises the API quota.
func NewGitHubSource(limiter *ratelimit.Limiter, opts ...Option) *GitHubSource {
	return &GitHubSource{
		client:  newRestyClient().SetHeader("Accept", "application/vnd.github+json"),
		limiter: limiter,
		cfg:     newScanConfig(gitHubBaseURL, opts),
	}
}

func (g *GitHubSource) GetName() string {
	return "github"
}

func (g *GitHubSource) IsEnabled() bool {
	return true
}

// Supports limits GitHub to lead searches; issues are not a market-gap signal
func (g *GitHubSource) Supports(mode models.SearchMode) bool {
	return mode == models.ModeLead
}

// BuildGitHubQuery builds the issue-search expression for a user query
func BuildGitHubQuery(query string) string {
	return fmt.Sprintf(`%s in:title,body state:open type:issue label:"help wanted","good first issue",freelance`, query)
}

func (g *GitHubSource) FetchLeads(ctx context.Context, query string, mode models.SearchMode) ([]models.Lead, error) {
	if err := g.limiter.Wait(ctx, ratelimit.GitHub); err != nil {
		logrus.Warnf("GitHub scan stopped waiting for rate limit: %v", err)
		return nil, nil
	}

	req := g.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"q":        BuildGitHubQuery(query),
			"sort":     "created",
			"order":    "desc",
			"per_page": fmt.Sprintf("%d", gitHubPageSize),
		})
	if g.cfg.token != "" {
		req.SetAuthToken(g.cfg.token)
	}

	resp, err := req.Get(g.cfg.baseURL + "/search/issues")
	if err != nil {
		logrus.Errorf("GitHub issue search failed: %v", err)
		return nil, nil
	}

	if resp.StatusCode() != 200 {
		logrus.Errorf("GitHub API returned status %d: %s", resp.StatusCode(), string(resp.Body()))
		return nil, nil
	}

	var searchResp gitHubSearchResponse
	if err := json.Unmarshal(resp.Body(), &searchResp); err != nil {
		logrus.Errorf("Failed to parse GitHub response: %v", err)
		return nil, nil
	}

	now := g.cfg.now()
	var leads []models.Lead

	for _, issue := range searchResp.Items {
		fullText := issue.Title + " " + issue.Body
		if !g.cfg.matcher(fullText, query) {
			continue
		}

		createdAt, err := time.Parse(time.RFC3339, issue.CreatedAt)
		if err != nil {
			logrus.Debugf("Failed to parse GitHub timestamp %q: %v", issue.CreatedAt, err)
		}

		login := issue.User.Login
		lead := scoredLead(prefixGitHub, models.SourceGitHub, fullText, query, createdAt, now)
		lead.ProspectName = login
		lead.Username = "@" + login
		lead.RequestSummary = summarize(issue.Title, issue.Body)
		lead.ContactInfo = "GitHub: @" + login
		lead.SourceURL = issue.HTMLURL

		leads = append(leads, lead)
	}

	return leads, nil
}
