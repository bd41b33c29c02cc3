package lbstat

import (
	"io"
	"time"
)

// LogbookStats holds the two counters published on a logbook statistics page.
// Confirmed is not guaranteed to be <= QSOs; the page is taken at its word.
type LogbookStats struct {
	Callsign  string `json:"callsign"`
	QSOs      int    `json:"qsos"`
	Confirmed int    `json:"confirmed"`
}

// Parser extracts LogbookStats from a statistics page
type Parser interface {
	Parse(callsign string, page io.Reader) (*LogbookStats, error)
}

// Config represents the logbook scraper configuration
type Config struct {
	BaseURL        string
	RequestTimeout time.Duration
	UserAgent      string
}

// DefaultConfig returns the public QRZ logbook statistics endpoint
func DefaultConfig() Config {
	return Config{
		BaseURL:        "https://logbook.qrz.com/lbstat",
		RequestTimeout: 10 * time.Second,
		UserAgent:      "hamsearch/1.0",
	}
}
