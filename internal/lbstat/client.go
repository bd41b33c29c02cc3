package lbstat

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/yegors/hamsearch/internal/metrics"
	"github.com/yegors/hamsearch/internal/outcome"
	"github.com/yegors/hamsearch/pkg/logger"
)

const (
	upstreamName = "lbstat"

	// maxPageBytes caps how much of a statistics page is read
	maxPageBytes = 2 << 20
)

// Client scrapes logbook statistics pages
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	parser     Parser
	metrics    *metrics.Collector
	logger     *logger.Logger
}

// NewClient creates a new logbook scraper. A nil parser selects the TextParser.
func NewClient(cfg Config, parser Parser, collector *metrics.Collector, logger *logger.Logger) *Client {
	if parser == nil {
		parser = NewTextParser()
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		userAgent: cfg.UserAgent,
		parser:    parser,
		metrics:   collector,
		logger:    logger.Named("lbstat-client"),
	}
}

// Stats fetches and parses the statistics page for callsign
func (c *Client) Stats(ctx context.Context, callsign string) (*LogbookStats, error) {
	start := time.Now()
	stats, err := c.stats(ctx, callsign)

	result := "success"
	if err != nil {
		result = string(outcome.Classify(err).Kind)
	}
	c.metrics.RecordUpstream(upstreamName, result, time.Since(start))

	return stats, err
}

func (c *Client) stats(ctx context.Context, callsign string) (*LogbookStats, error) {
	url := fmt.Sprintf("%s/%s", c.baseURL, callsign)
	log := c.logger.WithCallsign(callsign)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, outcome.Malformed(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Accept", "text/html")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	log.Debug("Fetching logbook statistics", logger.String("url", url))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Warn("Logbook request failed", logger.Error(err))
		return nil, outcome.Unavailable(
			fmt.Sprintf("Unable to reach the QRZ Logbook for %s. Please try again later.", callsign),
			fmt.Errorf("failed to execute request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Warn("Unexpected logbook status code", logger.Int("status_code", resp.StatusCode))
		return nil, outcome.Unavailable(
			fmt.Sprintf("Failed to retrieve logbook statistics for %s (HTTP %d). Please try again later.", callsign, resp.StatusCode),
			fmt.Errorf("unexpected status code: %d", resp.StatusCode))
	}

	page, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return nil, outcome.Unavailable(
			fmt.Sprintf("Unable to reach the QRZ Logbook for %s. Please try again later.", callsign),
			fmt.Errorf("failed to read response body: %w", err))
	}

	stats, err := c.parser.Parse(callsign, bytes.NewReader(page))
	if err != nil {
		log.Debug("No statistics extracted", logger.Error(err))
		return nil, err
	}

	log.Debug("Parsed logbook statistics",
		logger.Int("qsos", stats.QSOs),
		logger.Int("confirmed", stats.Confirmed))

	return stats, nil
}
