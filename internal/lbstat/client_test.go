package lbstat

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/yegors/hamsearch/internal/metrics"
	"github.com/yegors/hamsearch/internal/outcome"
	"github.com/yegors/hamsearch/pkg/logger"
)

func newTestClient(t *testing.T, status int, page string, parser Parser) (*Client, *metrics.Collector) {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/lbstat/N0CALL" && r.URL.Path != "/lbstat/W1AW" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, page)
	}))
	t.Cleanup(server.Close)

	collector := metrics.NewCollector("test", prometheus.NewRegistry())

	cfg := DefaultConfig()
	cfg.BaseURL = server.URL + "/lbstat/"
	cfg.RequestTimeout = 2 * time.Second
	return NewClient(cfg, parser, collector, logger.NewNop()), collector
}

func TestStatsSuccess(t *testing.T) {
	client, collector := newTestClient(t, http.StatusOK, `<p>1,234 QSOs confirmed 987 confirmed</p>`, nil)

	stats, err := client.Stats(context.Background(), "W1AW")
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.QSOs != 1234 || stats.Confirmed != 987 {
		t.Errorf("unexpected stats %+v", stats)
	}

	if got := testutil.CollectAndCount(collector.UpstreamDuration); got != 1 {
		t.Errorf("expected one upstream observation series, got %d", got)
	}
}

func TestStatsNon200IsUnavailable(t *testing.T) {
	client, _ := newTestClient(t, http.StatusNotFound, `<p>Not Found</p>`, nil)

	stats, err := client.Stats(context.Background(), "N0CALL")
	if stats != nil {
		t.Fatalf("expected no stats, got %+v", stats)
	}

	var oe *outcome.Error
	if !errors.As(err, &oe) || oe.Kind != outcome.KindUpstreamUnavailable {
		t.Fatalf("expected %s, got %v", outcome.KindUpstreamUnavailable, err)
	}
	if !strings.Contains(oe.UserMessage, "N0CALL") {
		t.Errorf("message should name the callsign: %q", oe.UserMessage)
	}
}

func TestStatsWithoutPatternsIsStatsNotFound(t *testing.T) {
	client, _ := newTestClient(t, http.StatusOK, `<html><body>Welcome to the logbook</body></html>`, nil)

	_, err := client.Stats(context.Background(), "N0CALL")

	var oe *outcome.Error
	if !errors.As(err, &oe) || oe.Kind != outcome.KindStatsNotFound {
		t.Fatalf("expected %s, got %v", outcome.KindStatsNotFound, err)
	}
}

type fixedParser struct {
	page string
}

func (p *fixedParser) Parse(callsign string, page io.Reader) (*LogbookStats, error) {
	body, err := io.ReadAll(page)
	if err != nil {
		return nil, err
	}
	p.page = string(body)
	return &LogbookStats{Callsign: callsign, QSOs: 1, Confirmed: 1}, nil
}

func TestStatsUsesInjectedParser(t *testing.T) {
	parser := &fixedParser{}
	client, _ := newTestClient(t, http.StatusOK, `{"format": "changed"}`, parser)

	stats, err := client.Stats(context.Background(), "W1AW")
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.QSOs != 1 {
		t.Errorf("expected stats from injected parser, got %+v", stats)
	}
	if parser.page != `{"format": "changed"}` {
		t.Errorf("parser received %q", parser.page)
	}
}
