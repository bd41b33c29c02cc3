package lookup

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/yegors/hamsearch/internal/audit"
	"github.com/yegors/hamsearch/internal/callook"
	"github.com/yegors/hamsearch/internal/geo"
	"github.com/yegors/hamsearch/internal/lbstat"
	"github.com/yegors/hamsearch/internal/outcome"
	"github.com/yegors/hamsearch/pkg/logger"
)

// fakeRegistry answers from a map; callsigns listed in block wait for ctx cancellation
type fakeRegistry struct {
	records map[string]*callook.StationRecord
	errs    map[string]error
	block   map[string]bool

	mu        sync.Mutex
	cancelled []string
}

func (f *fakeRegistry) Lookup(ctx context.Context, callsign string) (*callook.StationRecord, error) {
	if f.block[callsign] {
		<-ctx.Done()
		f.mu.Lock()
		f.cancelled = append(f.cancelled, callsign)
		f.mu.Unlock()
		return nil, outcome.Unavailable("registry unavailable", ctx.Err())
	}
	if err, ok := f.errs[callsign]; ok {
		return nil, err
	}
	if r, ok := f.records[callsign]; ok {
		return r, nil
	}
	return nil, outcome.NotFound("Callsign '" + callsign + "' not found.")
}

type fakeLogbook struct {
	stats *lbstat.LogbookStats
	err   error
}

func (f *fakeLogbook) Stats(ctx context.Context, callsign string) (*lbstat.LogbookStats, error) {
	return f.stats, f.err
}

type fakeAuditor struct {
	mu      sync.Mutex
	entries []audit.Entry
}

func (f *fakeAuditor) Record(e audit.Entry) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, e)
}

func (f *fakeAuditor) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.entries)
}

var (
	w1aw = &callook.StationRecord{
		Callsign: "W1AW", Gridsquare: "FN31pr",
		Latitude: 41.714775, Longitude: -72.727260, HasLocation: true,
	}
	k7abc = &callook.StationRecord{
		Callsign: "K7ABC", Gridsquare: "CN87uo",
		Latitude: 47.606209, Longitude: -122.332071, HasLocation: true,
	}
	noLocation = &callook.StationRecord{Callsign: "KL7XYZ", Gridsquare: ""}
)

var testInvocation = Invocation{User: "ki5xyz", Source: "test"}

func newTestService(reg Registry, lb Logbook, aud Auditor) *Service {
	return NewService(reg, lb, aud, Config{ConditionsImageURL: "https://www.hamqsl.com/solar101vhf.php"}, nil, logger.NewNop())
}

func TestLookupSuccessIsAudited(t *testing.T) {
	aud := &fakeAuditor{}
	svc := newTestService(&fakeRegistry{records: map[string]*callook.StationRecord{"W1AW": w1aw}}, nil, aud)

	out := svc.Lookup(context.Background(), testInvocation, "W1AW")
	if !out.OK() {
		t.Fatalf("expected success, got %v", out.Failure)
	}
	if out.Payload.(*callook.StationRecord) != w1aw {
		t.Errorf("unexpected payload %+v", out.Payload)
	}

	if aud.count() != 1 {
		t.Fatalf("expected 1 audit entry, got %d", aud.count())
	}
	e := aud.entries[0]
	if e.User != "ki5xyz" || e.Command != CommandLookup || len(e.Args) != 1 || e.Args[0] != "W1AW" {
		t.Errorf("unexpected audit entry %+v", e)
	}
}

func TestLookupNotFoundIsNotAudited(t *testing.T) {
	aud := &fakeAuditor{}
	svc := newTestService(&fakeRegistry{}, nil, aud)

	out := svc.Lookup(context.Background(), testInvocation, "N0CALL")
	if out.OK() {
		t.Fatal("expected failure")
	}
	if out.Failure.Kind != outcome.KindNotFound {
		t.Errorf("expected %s, got %s", outcome.KindNotFound, out.Failure.Kind)
	}
	if out.Failure.UserMessage != "Callsign 'N0CALL' not found." {
		t.Errorf("unexpected message %q", out.Failure.UserMessage)
	}
	if aud.count() != 0 {
		t.Errorf("failures must not be audited, got %d entries", aud.count())
	}
}

func TestStatsPropagatesOutcome(t *testing.T) {
	hedged := outcome.StatsNotFound("No logbook statistics found for N0CALL. The callsign may be invalid, or the operator may not use the QRZ Logbook.")

	tests := []struct {
		name     string
		logbook  *fakeLogbook
		wantKind outcome.Kind
	}{
		{"success", &fakeLogbook{stats: &lbstat.LogbookStats{Callsign: "W1AW", QSOs: 1234, Confirmed: 987}}, ""},
		{"stats not found", &fakeLogbook{err: hedged}, outcome.KindStatsNotFound},
		{"unavailable", &fakeLogbook{err: outcome.Unavailable("down", errors.New("404"))}, outcome.KindUpstreamUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(nil, tt.logbook, nil)
			out := svc.Stats(context.Background(), testInvocation, "N0CALL")

			if tt.wantKind == "" {
				if !out.OK() {
					t.Fatalf("expected success, got %v", out.Failure)
				}
				return
			}
			if out.OK() || out.Failure.Kind != tt.wantKind {
				t.Fatalf("expected %s, got %+v", tt.wantKind, out)
			}
			if tt.wantKind == outcome.KindStatsNotFound && out.Failure != hedged {
				t.Error("expected the scraper's failure to be passed through unchanged")
			}
		})
	}
}

func TestDistanceSuccess(t *testing.T) {
	aud := &fakeAuditor{}
	reg := &fakeRegistry{records: map[string]*callook.StationRecord{"W1AW": w1aw, "K7ABC": k7abc}}
	svc := newTestService(reg, nil, aud)

	out := svc.Distance(context.Background(), testInvocation, "W1AW", "K7ABC")
	if !out.OK() {
		t.Fatalf("expected success, got %v", out.Failure)
	}

	result := out.Payload.(*DistanceResult)
	wantKm, wantMiles := geo.Distance(w1aw.Latitude, w1aw.Longitude, k7abc.Latitude, k7abc.Longitude)
	if math.Abs(result.Kilometers-wantKm) > 1e-9 || math.Abs(result.Miles-wantMiles) > 1e-9 {
		t.Errorf("unexpected distance %+v", result)
	}
	if result.From.Callsign != "W1AW" || result.To.Callsign != "K7ABC" {
		t.Errorf("endpoints out of order: %+v", result)
	}
	if result.Kilometers < 3850 || result.Kilometers > 3950 {
		t.Errorf("Newington to Seattle should be about 3900 km, got %f", result.Kilometers)
	}
	if aud.count() != 1 {
		t.Errorf("expected 1 audit entry, got %d", aud.count())
	}
}

func TestDistanceNotFoundDoesNotWaitForOtherLookup(t *testing.T) {
	reg := &fakeRegistry{
		records: map[string]*callook.StationRecord{},
		block:   map[string]bool{"K1ABC": true},
	}
	svc := newTestService(reg, nil, &fakeAuditor{})

	done := make(chan outcome.Outcome, 1)
	go func() {
		done <- svc.Distance(context.Background(), testInvocation, "W1AW", "K1ABC")
	}()

	var out outcome.Outcome
	select {
	case out = <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Distance waited on the in-flight lookup after the other one failed")
	}

	if out.OK() {
		t.Fatal("expected failure")
	}
	if out.Failure.Kind != outcome.KindNotFound {
		t.Errorf("expected %s, got %s", outcome.KindNotFound, out.Failure.Kind)
	}
	if out.Failure.UserMessage != "One or both callsigns not found." {
		t.Errorf("unexpected message %q", out.Failure.UserMessage)
	}

	// the abandoned lookup is released through its context
	deadline := time.Now().Add(2 * time.Second)
	for {
		reg.mu.Lock()
		n := len(reg.cancelled)
		reg.mu.Unlock()
		if n == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("blocked lookup was never cancelled")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestDistanceWithoutLocationIsNotFound(t *testing.T) {
	reg := &fakeRegistry{records: map[string]*callook.StationRecord{"W1AW": w1aw, "KL7XYZ": noLocation}}
	svc := newTestService(reg, nil, nil)

	out := svc.Distance(context.Background(), testInvocation, "W1AW", "KL7XYZ")
	if out.OK() || out.Failure.Kind != outcome.KindNotFound {
		t.Fatalf("expected %s, got %+v", outcome.KindNotFound, out)
	}
	if out.Failure.UserMessage != "One or both callsigns not found." {
		t.Errorf("unexpected message %q", out.Failure.UserMessage)
	}
}

func TestDistanceUpstreamFailurePropagates(t *testing.T) {
	reg := &fakeRegistry{
		records: map[string]*callook.StationRecord{"W1AW": w1aw},
		errs:    map[string]error{"K7ABC": outcome.Malformed(errors.New("missing otherInfo.frn"))},
	}
	svc := newTestService(reg, nil, nil)

	out := svc.Distance(context.Background(), testInvocation, "W1AW", "K7ABC")
	if out.OK() || out.Failure.Kind != outcome.KindMalformedResponse {
		t.Fatalf("expected %s, got %+v", outcome.KindMalformedResponse, out)
	}
	if out.Failure.UserMessage != outcome.GenericFailureMessage {
		t.Errorf("malformed responses must use the generic message, got %q", out.Failure.UserMessage)
	}
}

func TestConditions(t *testing.T) {
	aud := &fakeAuditor{}
	svc := newTestService(nil, nil, aud)

	out := svc.Conditions(context.Background(), testInvocation)
	if !out.OK() {
		t.Fatalf("expected success, got %v", out.Failure)
	}
	if c := out.Payload.(*Conditions); c.ImageURL != "https://www.hamqsl.com/solar101vhf.php" {
		t.Errorf("unexpected image URL %q", c.ImageURL)
	}
	if aud.count() != 1 {
		t.Errorf("expected 1 audit entry, got %d", aud.count())
	}
}

func TestExecuteDispatch(t *testing.T) {
	reg := &fakeRegistry{records: map[string]*callook.StationRecord{"W1AW": w1aw, "K7ABC": k7abc}}
	lb := &fakeLogbook{stats: &lbstat.LogbookStats{Callsign: "W1AW", QSOs: 5, Confirmed: 3}}
	svc := newTestService(reg, lb, nil)

	tests := []struct {
		command  string
		args     []string
		wantCmd  string
		wantKind outcome.Kind
	}{
		{"lookup", []string{"W1AW"}, CommandLookup, ""},
		{"ham", []string{"W1AW"}, CommandLookup, ""},
		{"STATS", []string{"W1AW"}, CommandStats, ""},
		{"distance", []string{"W1AW", "K7ABC"}, CommandDistance, ""},
		{"conditions", nil, CommandConditions, ""},
		{"distance", []string{"W1AW"}, CommandDistance, outcome.KindInvalidArguments},
		{"lookup", []string{"  "}, CommandLookup, outcome.KindInvalidArguments},
		{"propagation", nil, "propagation", outcome.KindInvalidArguments},
	}

	for _, tt := range tests {
		t.Run(tt.command, func(t *testing.T) {
			out := svc.Execute(context.Background(), testInvocation, tt.command, tt.args)
			if out.Command != tt.wantCmd {
				t.Errorf("command = %q, want %q", out.Command, tt.wantCmd)
			}
			if tt.wantKind == "" {
				if !out.OK() {
					t.Errorf("expected success, got %v", out.Failure)
				}
				return
			}
			if out.OK() || out.Failure.Kind != tt.wantKind {
				t.Errorf("expected %s, got %+v", tt.wantKind, out)
			}
		})
	}
}
