package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"github.com/scopa-ai/signal/internal/models"
	"github.com/scopa-ai/signal/internal/ratelimit"
	"github.com/sirupsen/logrus"
)

const (
	hackerNewsBaseURL   = "https://hacker-news.firebaseio.com"
	hackerNewsScanDepth = 50
	hackerNewsLeadCap   = 3
)

// HackerNewsSource implements Hacker News API source
type HackerNewsSource struct {
	client  *resty.Client
	limiter *ratelimit.Limiter
	cfg     scanConfig
}

type hackerNewsItem struct {
	ID          int    `json:"id"`
	Type        string `json:"type"`
	By          string `json:"by"`
	Time        int64  `json:"time"`
	Text        string `json:"text"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	Score       int    `json:"score"`
	Descendants int    `json:"descendants"`
	Deleted     bool   `json:"deleted"`
	Dead        bool   `json:"dead"`
}

// NewHackerNewsSource creates a new Hacker News source
func NewHackerNewsSource(limiter *ratelimit.Limiter, opts ...Option) *HackerNewsSource {
	return &HackerNewsSource{
		client:  newRestyClient(),
		limiter: limiter,
		cfg:     newScanConfig(hackerNewsBaseURL, opts),
	}
}

func (h *HackerNewsSource) GetName() string {
	return "hackernews"
}

func (h *HackerNewsSource) IsEnabled() bool {
	return true // Hacker News API doesn't require authentication
}

func (h *HackerNewsSource) Supports(mode models.SearchMode) bool {
	return true
}

func (h *HackerNewsSource) FetchLeads(ctx context.Context, query string, mode models.SearchMode) ([]models.Lead, error) {
	if err := h.limiter.Wait(ctx, ratelimit.HackerNews); err != nil {
		logrus.Warnf("Hacker News scan stopped waiting for rate limit: %v", err)
		return nil, nil
	}

	itemIDs, err := h.getRecentItems(ctx)
	if err != nil {
		logrus.Errorf("Failed to get recent Hacker News items: %v", err)
		return nil, nil
	}

	if len(itemIDs) > hackerNewsScanDepth {
		itemIDs = itemIDs[:hackerNewsScanDepth]
	}

	var leads []models.Lead
	now := h.cfg.now()

	// One request per story, sequentially; the API has no batch endpoint
	for _, itemID := range itemIDs {
		if err := h.limiter.Wait(ctx, ratelimit.HackerNews); err != nil {
			logrus.Warnf("Hacker News scan stopped after %d leads: %v", len(leads), err)
			return leads, nil
		}

		item, err := h.getItem(ctx, itemID)
		if err != nil {
			logrus.Debugf("Failed to get HN item %d: %v", itemID, err)
			continue
		}

		if item == nil || item.ID == 0 || item.Deleted || item.Dead {
			continue
		}

		text := plainText(item.Text)
		fullText := item.Title + " " + text
		if !h.cfg.matcher(fullText, query) {
			continue
		}

		lead := scoredLead(prefixHackerNews, models.SourceHackerNews, fullText, query, time.Unix(item.Time, 0), now)
		lead.ProspectName = item.By
		lead.Username = item.By
		lead.RequestSummary = summarize(item.Title, text)
		lead.ContactInfo = "HN: " + item.By
		lead.SourceURL = fmt.Sprintf("https://news.ycombinator.com/item?id=%d", item.ID)

		leads = append(leads, lead)
		if len(leads) >= hackerNewsLeadCap {
			break
		}
	}

	return leads, nil
}

func (h *HackerNewsSource) getRecentItems(ctx context.Context) ([]int, error) {
	resp, err := h.client.R().
		SetContext(ctx).
		Get(h.cfg.baseURL + "/v0/newstories.json")

	if err != nil {
		return nil, err
	}

	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("hacker news API returned status %d", resp.StatusCode())
	}

	var itemIDs []int
	if err := json.Unmarshal(resp.Body(), &itemIDs); err != nil {
		return nil, err
	}

	return itemIDs, nil
}

func (h *HackerNewsSource) getItem(ctx context.Context, itemID int) (*hackerNewsItem, error) {
	resp, err := h.client.R().
		SetContext(ctx).
		Get(fmt.Sprintf("%s/v0/item/%d.json", h.cfg.baseURL, itemID))

	if err != nil {
		return nil, err
	}

	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("hacker news API returned status %d for item %d", resp.StatusCode(), itemID)
	}

	var item *hackerNewsItem
	if err := json.Unmarshal(resp.Body(), &item); err != nil {
		return nil, err
	}

	return item, nil
}

// plainText flattens the HTML fragments HN uses in item text
func plainText(fragment string) string {
	if fragment == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(strings.ReplaceAll(fragment, "<p>", " <p>")))
	if err != nil {
		return fragment
	}

	return strings.Join(strings.Fields(doc.Text()), " ")
}
