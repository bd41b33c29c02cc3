package callook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/yegors/hamsearch/internal/geo"
	"github.com/yegors/hamsearch/internal/metrics"
	"github.com/yegors/hamsearch/internal/outcome"
	"github.com/yegors/hamsearch/pkg/logger"
)

const (
	upstreamName = "callook"

	// maxBodyBytes caps how much of a registry response is read
	maxBodyBytes = 1 << 20

	unavailableMessage = "The callsign registry is unavailable right now. Please try again later."

	// resultCancelled labels requests the caller stopped waiting for
	resultCancelled = "cancelled"
)

// Client fetches station records from the callook.info registry
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	metrics    *metrics.Collector
	logger     *logger.Logger
}

// NewClient creates a new registry client
func NewClient(cfg Config, collector *metrics.Collector, logger *logger.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		userAgent: cfg.UserAgent,
		metrics:   collector,
		logger:    logger.Named("callook-client"),
	}
}

// Lookup fetches the registry record for callsign. The callsign is used verbatim.
// A missing record yields an *outcome.Error of kind KindNotFound.
func (c *Client) Lookup(ctx context.Context, callsign string) (*StationRecord, error) {
	start := time.Now()
	record, err := c.lookup(ctx, callsign)

	result := "success"
	switch {
	case err == nil:
	case abandoned(ctx):
		result = resultCancelled
	default:
		result = string(outcome.Classify(err).Kind)
	}
	c.metrics.RecordUpstream(upstreamName, result, time.Since(start))

	return record, err
}

func (c *Client) lookup(ctx context.Context, callsign string) (*StationRecord, error) {
	url := fmt.Sprintf("%s/%s/json", c.baseURL, callsign)
	log := c.logger.WithCallsign(callsign)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, outcome.Malformed(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	log.Debug("Fetching registry record", logger.String("url", url))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if abandoned(ctx) {
			log.Debug("Registry request abandoned by caller")
		} else {
			log.Warn("Registry request failed", logger.Error(err))
		}
		return nil, outcome.Unavailable(unavailableMessage, fmt.Errorf("failed to execute request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Warn("Unexpected registry status code", logger.Int("status_code", resp.StatusCode))
		return nil, outcome.Unavailable(unavailableMessage, fmt.Errorf("unexpected status code: %d", resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, outcome.Unavailable(unavailableMessage, fmt.Errorf("failed to read response body: %w", err))
	}

	record, err := decodeRecord(body)
	if err != nil {
		if oe := outcome.Classify(err); oe.Kind == outcome.KindNotFound {
			log.Debug("Callsign not present in registry")
			oe.UserMessage = fmt.Sprintf("Callsign '%s' not found.", callsign)
			return nil, oe
		}
		log.Error("Malformed registry response", logger.Error(err))
		return nil, err
	}

	log.Debug("Fetched registry record",
		logger.String("oper_class", record.OperatorClass),
		logger.Bool("has_location", record.HasLocation))

	return record, nil
}

// decodeRecord turns a registry body into a StationRecord. A non-null "current"
// key alone decides whether the callsign exists; after that every consumed
// field must be present.
func decodeRecord(body []byte) (*StationRecord, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(body, &top); err != nil {
		return nil, outcome.Malformed(fmt.Errorf("failed to parse JSON: %w", err))
	}
	// the registry answers unknown callsigns with "current": null
	if raw, ok := top["current"]; !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, outcome.NotFound("callsign not found")
	}

	var wire registryResponse
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, outcome.Malformed(fmt.Errorf("failed to decode registry record: %w", err))
	}

	var missing []string
	str := func(path string, v *string) string {
		if v == nil {
			missing = append(missing, path)
			return ""
		}
		return *v
	}

	var cur currentLicense
	if wire.Current != nil {
		cur = *wire.Current
	}
	var addr registryAddress
	if wire.Address != nil {
		addr = *wire.Address
	} else {
		missing = append(missing, "address")
	}
	var loc registryLoc
	if wire.Location != nil {
		loc = *wire.Location
	} else {
		missing = append(missing, "location")
	}
	var info otherInfo
	if wire.OtherInfo != nil {
		info = *wire.OtherInfo
	} else {
		missing = append(missing, "otherInfo")
	}

	record := &StationRecord{
		Callsign:      str("current.callsign", cur.Callsign),
		OperatorClass: str("current.operClass", cur.OperClass),
		Name:          str("name", wire.Name),
		GrantDate:     str("otherInfo.grantDate", info.GrantDate),
		ExpiryDate:    str("otherInfo.expiryDate", info.ExpiryDate),
		FRN:           str("otherInfo.frn", info.FRN),
		ULSURL:        str("otherInfo.ulsUrl", info.ULSURL),
		Gridsquare:    str("location.gridsquare", loc.Gridsquare),
	}
	if wire.Address != nil {
		record.AddressLines = [2]string{str("address.line1", addr.Line1), str("address.line2", addr.Line2)}
	}
	if wire.Location != nil {
		if loc.Latitude == nil {
			missing = append(missing, "location.latitude")
		}
		if loc.Longitude == nil {
			missing = append(missing, "location.longitude")
		}
	}

	if len(missing) > 0 {
		return nil, outcome.Malformed(fmt.Errorf("registry record missing fields: %s", strings.Join(missing, ", ")))
	}

	lat, lon := strings.TrimSpace(string(*loc.Latitude)), strings.TrimSpace(string(*loc.Longitude))
	if lat == "" || lon == "" {
		return record, nil
	}

	var err error
	if record.Latitude, err = geo.ParseCoordinate(lat); err != nil {
		return nil, outcome.Malformed(fmt.Errorf("location.latitude: %w", err))
	}
	if record.Longitude, err = geo.ParseCoordinate(lon); err != nil {
		return nil, outcome.Malformed(fmt.Errorf("location.longitude: %w", err))
	}
	record.LatitudeText, record.LongitudeText = lat, lon
	record.HasLocation = true

	return record, nil
}

// abandoned reports whether the caller cancelled ctx. Deadline expiry is an
// upstream failure and does not count.
func abandoned(ctx context.Context) bool {
	return errors.Is(ctx.Err(), context.Canceled)
}
