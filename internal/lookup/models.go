package lookup

import (
	"context"

	"github.com/yegors/hamsearch/internal/audit"
	"github.com/yegors/hamsearch/internal/callook"
	"github.com/yegors/hamsearch/internal/geo"
	"github.com/yegors/hamsearch/internal/lbstat"
)

// Command names understood by Execute
const (
	CommandLookup     = "lookup"
	CommandStats      = "stats"
	CommandDistance   = "distance"
	CommandConditions = "conditions"
)

// commandAliases maps alternate names onto canonical commands
var commandAliases = map[string]string{
	"ham": CommandLookup,
}

// Registry resolves callsigns to station records
type Registry interface {
	Lookup(ctx context.Context, callsign string) (*callook.StationRecord, error)
}

// Logbook fetches logbook statistics for a callsign
type Logbook interface {
	Stats(ctx context.Context, callsign string) (*lbstat.LogbookStats, error)
}

// Auditor receives one entry per successful command. Record must not block.
type Auditor interface {
	Record(entry audit.Entry)
}

// Invocation identifies who triggered a command and from where
type Invocation struct {
	User   string
	Source string // discord, api, cli
}

// Endpoint is one side of a distance calculation
type Endpoint struct {
	Callsign   string    `json:"callsign"`
	Gridsquare string    `json:"gridsquare"`
	Point      geo.Point `json:"point"`
}

// DistanceResult is the great-circle distance between two stations
type DistanceResult struct {
	Kilometers float64  `json:"kilometers"`
	Miles      float64  `json:"miles"`
	From       Endpoint `json:"from"`
	To         Endpoint `json:"to"`
}

// Conditions points at the current band conditions image
type Conditions struct {
	ImageURL string `json:"image_url"`
}

// Config represents the command handler configuration
type Config struct {
	ConditionsImageURL string
}
