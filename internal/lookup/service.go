package lookup

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/yegors/hamsearch/internal/audit"
	"github.com/yegors/hamsearch/internal/callook"
	"github.com/yegors/hamsearch/internal/geo"
	"github.com/yegors/hamsearch/internal/metrics"
	"github.com/yegors/hamsearch/internal/outcome"
	"github.com/yegors/hamsearch/pkg/logger"
)

const distanceNotFoundMessage = "One or both callsigns not found."

// Service runs bot commands against the registry and logbook
type Service struct {
	registry Registry
	logbook  Logbook
	auditor  Auditor
	config   Config
	metrics  *metrics.Collector
	logger   *logger.Logger
}

// NewService creates a new command service. auditor and collector may be nil.
func NewService(
	registry Registry,
	logbook Logbook,
	auditor Auditor,
	config Config,
	collector *metrics.Collector,
	logger *logger.Logger,
) *Service {
	return &Service{
		registry: registry,
		logbook:  logbook,
		auditor:  auditor,
		config:   config,
		metrics:  collector,
		logger:   logger.Named("lookup-service"),
	}
}

// Execute dispatches a command by name. Adapters use this so they share one
// argument contract.
func (s *Service) Execute(ctx context.Context, inv Invocation, command string, args []string) outcome.Outcome {
	name := strings.ToLower(command)
	if canonical, ok := commandAliases[name]; ok {
		name = canonical
	}

	need := map[string]int{
		CommandLookup:     1,
		CommandStats:      1,
		CommandDistance:   2,
		CommandConditions: 0,
	}
	want, known := need[name]
	if !known {
		return outcome.Failure(command, outcome.InvalidArguments(fmt.Sprintf("Unknown command '%s'.", command)))
	}
	if len(args) != want {
		return outcome.Failure(name, outcome.InvalidArguments(
			fmt.Sprintf("The %s command takes %d argument(s), got %d.", name, want, len(args))))
	}
	for _, a := range args {
		if strings.TrimSpace(a) == "" {
			return outcome.Failure(name, outcome.InvalidArguments("A callsign is required."))
		}
	}

	switch name {
	case CommandLookup:
		return s.Lookup(ctx, inv, args[0])
	case CommandStats:
		return s.Stats(ctx, inv, args[0])
	case CommandDistance:
		return s.Distance(ctx, inv, args[0], args[1])
	default:
		return s.Conditions(ctx, inv)
	}
}

// Lookup returns the registry record for callsign
func (s *Service) Lookup(ctx context.Context, inv Invocation, callsign string) outcome.Outcome {
	return s.run(ctx, inv, CommandLookup, []string{callsign}, func(ctx context.Context) (any, error) {
		return s.registry.Lookup(ctx, callsign)
	})
}

// Stats returns logbook statistics for callsign
func (s *Service) Stats(ctx context.Context, inv Invocation, callsign string) outcome.Outcome {
	return s.run(ctx, inv, CommandStats, []string{callsign}, func(ctx context.Context) (any, error) {
		return s.logbook.Stats(ctx, callsign)
	})
}

// Distance returns the great-circle distance between two stations
func (s *Service) Distance(ctx context.Context, inv Invocation, from, to string) outcome.Outcome {
	return s.run(ctx, inv, CommandDistance, []string{from, to}, func(ctx context.Context) (any, error) {
		return s.distance(ctx, from, to)
	})
}

// Conditions returns the band conditions image
func (s *Service) Conditions(ctx context.Context, inv Invocation) outcome.Outcome {
	return s.run(ctx, inv, CommandConditions, nil, func(context.Context) (any, error) {
		return &Conditions{ImageURL: s.config.ConditionsImageURL}, nil
	})
}

// fetchResult carries one registry lookup back to Distance
type fetchResult struct {
	index  int
	record *callook.StationRecord
	err    error
}

// distance looks both callsigns up concurrently. The first failure is returned
// straight away; the other lookup is cancelled and its result discarded.
func (s *Service) distance(ctx context.Context, from, to string) (*DistanceResult, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	callsigns := [2]string{from, to}
	results := make(chan fetchResult, len(callsigns))
	for i, callsign := range callsigns {
		go func(index int, callsign string) {
			record, err := s.registry.Lookup(ctx, callsign)
			results <- fetchResult{index: index, record: record, err: err}
		}(i, callsign)
	}

	var records [2]*callook.StationRecord
	for range callsigns {
		res := <-results
		if res.err != nil {
			if oe := outcome.Classify(res.err); oe.Kind == outcome.KindNotFound {
				return nil, &outcome.Error{Kind: outcome.KindNotFound, UserMessage: distanceNotFoundMessage, Err: res.err}
			}
			return nil, res.err
		}
		if !res.record.HasLocation {
			return nil, &outcome.Error{
				Kind:        outcome.KindNotFound,
				UserMessage: distanceNotFoundMessage,
				Err:         fmt.Errorf("no location published for %s", callsigns[res.index]),
			}
		}
		records[res.index] = res.record
	}

	a, b := endpoint(records[0]), endpoint(records[1])
	km, miles := geo.Between(a.Point, b.Point)

	return &DistanceResult{
		Kilometers: km,
		Miles:      miles,
		From:       a,
		To:         b,
	}, nil
}

func endpoint(r *callook.StationRecord) Endpoint {
	return Endpoint{
		Callsign:   r.Callsign,
		Gridsquare: r.Gridsquare,
		Point:      geo.Point{Lat: r.Latitude, Lon: r.Longitude},
	}
}

// run wraps a handler with metrics, logging and the audit write
func (s *Service) run(ctx context.Context, inv Invocation, command string, args []string, handler func(context.Context) (any, error)) outcome.Outcome {
	start := time.Now()
	log := s.logger.With(
		logger.String("command", command),
		logger.Strings("args", args),
		logger.String("user", inv.User),
		logger.String("source", inv.Source),
	)

	payload, err := handler(ctx)
	if err != nil {
		failure := outcome.Failure(command, err)
		s.metrics.RecordCommand(command, string(failure.Failure.Kind), time.Since(start))

		switch {
		case failure.Failure.Benign():
			log.Debug("Command answered with a benign failure", logger.String("kind", string(failure.Failure.Kind)))
		case failure.Failure.Kind == outcome.KindUpstreamUnavailable:
			log.Warn("Upstream unavailable", logger.Error(err))
		default:
			log.Error("Command failed", logger.Error(err))
		}
		return failure
	}

	s.metrics.RecordCommand(command, "success", time.Since(start))
	log.Info("Command succeeded", logger.Duration("duration", time.Since(start)))

	if s.auditor != nil {
		s.auditor.Record(audit.Entry{
			User:    inv.User,
			Command: command,
			Args:    args,
		})
	}

	return outcome.Success(command, payload)
}
