package soccerview

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/riskibarqy/predictions-league/internal/domain/points"
	"github.com/riskibarqy/predictions-league/internal/platform/logging"
	"github.com/riskibarqy/predictions-league/internal/usecase"
)

var scoreRegex = regexp.MustCompile(`(\d+)\s*[-–:]\s*(\d+)`)

type ClientConfig struct {
	HTTPClient *http.Client
	BaseURL    string
	Timeout    time.Duration
	Logger     *logging.Logger
}

// Client scrapes full-time results from the soccerview gameweek pages. It is
// the fallback usecase.ResultsProvider for when the data API is not
// configured.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *logging.Logger
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 20 * time.Second
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		logger:     logger,
	}
}

func (c *Client) FetchResults(ctx context.Context, gameweek int) ([]usecase.ProvidedResult, error) {
	if gameweek <= 0 {
		return nil, fmt.Errorf("gameweek must be greater than zero")
	}
	if c.baseURL == "" {
		return nil, fmt.Errorf("scraper base url is not configured")
	}

	pageURL := fmt.Sprintf("%s/gameweeks/%d", c.baseURL, gameweek)
	doc, err := c.fetchDocument(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("fetch results page gameweek=%d: %w", gameweek, err)
	}

	out := parseResultRows(doc)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].HomeTeam != out[j].HomeTeam {
			return out[i].HomeTeam < out[j].HomeTeam
		}
		return out[i].AwayTeam < out[j].AwayTeam
	})
	return out, nil
}

// fetchDocument retries once: the site drops connections under load and a
// second attempt usually lands.
func (c *Client) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		if attempt > 0 {
			timer := time.NewTimer(time.Second)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, ctx.Err()
			case <-timer.C:
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("accept", "text/html")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("send request: %w", err)
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			_ = resp.Body.Close()
			lastErr = fmt.Errorf("scrape status=%d", resp.StatusCode)
			if resp.StatusCode < http.StatusInternalServerError && resp.StatusCode != http.StatusTooManyRequests {
				return nil, lastErr
			}
			continue
		}

		doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, 6<<20))
		_ = resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("parse results page: %w", err)
			continue
		}
		return doc, nil
	}

	c.logger.WarnContext(ctx, "soccerview scrape failed", "url", pageURL, "error", lastErr)
	return nil, lastErr
}

func parseResultRows(doc *goquery.Document) []usecase.ProvidedResult {
	out := make([]usecase.ProvidedResult, 0, 16)
	doc.Find("table.results tr.match").Each(func(_ int, row *goquery.Selection) {
		homeTeam := strings.TrimSpace(row.Find("td.home").First().Text())
		awayTeam := strings.TrimSpace(row.Find("td.away").First().Text())
		if homeTeam == "" || awayTeam == "" {
			return
		}
		if !isFullTimeText(row.Find("td.status").First().Text()) {
			return
		}
		home, away, ok := parseScoreText(row.Find("td.score").First().Text())
		if !ok {
			return
		}
		out = append(out, usecase.ProvidedResult{
			HomeTeam: homeTeam,
			AwayTeam: awayTeam,
			Score:    points.ScoreLine{Home: home, Away: away},
		})
	})
	return out
}

func parseScoreText(raw string) (int, int, bool) {
	match := scoreRegex.FindStringSubmatch(strings.TrimSpace(raw))
	if len(match) != 3 {
		return 0, 0, false
	}
	home, err := strconv.Atoi(match[1])
	if err != nil {
		return 0, 0, false
	}
	away, err := strconv.Atoi(match[2])
	if err != nil {
		return 0, 0, false
	}
	return home, away, true
}

func isFullTimeText(raw string) bool {
	value := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case value == "ft", value == "aet", value == "finished":
		return true
	case strings.Contains(value, "full time"), strings.Contains(value, "full-time"), strings.Contains(value, "finish"):
		return true
	default:
		return false
	}
}
