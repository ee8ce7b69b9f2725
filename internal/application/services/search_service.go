package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/skylane/flightsearch/backend/internal/domain/entities"
	"github.com/skylane/flightsearch/backend/internal/infrastructure/clients/fareengine"
	"github.com/skylane/flightsearch/backend/internal/infrastructure/observability"
	"github.com/skylane/flightsearch/backend/pkg/config"
	apperrors "github.com/skylane/flightsearch/backend/pkg/errors"
	"github.com/skylane/flightsearch/backend/pkg/retry"
)

// FareClient is the slice of the fare engine client the search session needs
type FareClient interface {
	Create(ctx context.Context, req fareengine.SearchRequest) (*fareengine.SearchEnvelope, error)
	Poll(ctx context.Context, sessionToken string, req fareengine.SearchRequest) (*fareengine.SearchEnvelope, error)
}

// SearchOptions tunes one search invocation
type SearchOptions struct {
	// Precall fires the create call once and waits the configured warm-up
	// before the authoritative search. Latency hiding only; the result of
	// the warm-up call is discarded.
	Precall bool
}

// SearchService drives a query to completion against the fare engine's
// two-phase create/poll protocol. One instance serves any number of
// concurrent searches; each chain owns its own session token and shares no
// mutable state with the others.
type SearchService struct {
	client      FareClient
	normalizer  *Normalizer
	pollDelay   time.Duration
	precallWait time.Duration
	retryCfg    retry.Config
	metrics     *observability.Metrics
}

// NewSearchService creates a search service
func NewSearchService(client FareClient, normalizer *Normalizer, cfg *config.FareEngineConfig, retryCfg retry.Config, metrics *observability.Metrics) *SearchService {
	return &SearchService{
		client:      client,
		normalizer:  normalizer,
		pollDelay:   cfg.PollDelay,
		precallWait: cfg.PrecallWait,
		retryCfg:    retryCfg,
		metrics:     metrics,
	}
}

// Create issues a single create call and normalizes whatever came back,
// complete or not
func (s *SearchService) Create(ctx context.Context, query entities.SearchQuery) (*entities.SearchResult, error) {
	envelope, err := s.client.Create(ctx, searchRequest(query))
	if err != nil {
		return nil, apperrors.NewExternalError("create call failed", err)
	}
	return s.normalizer.NormalizeSearch(envelope)
}

// Poll issues a single poll call for a held token and normalizes the response
func (s *SearchService) Poll(ctx context.Context, sessionToken string, query entities.SearchQuery) (*entities.SearchResult, error) {
	envelope, err := s.client.Poll(ctx, sessionToken, searchRequest(query))
	if err != nil {
		return nil, apperrors.NewExternalError("poll call failed", err)
	}
	return s.normalizer.NormalizeSearch(envelope)
}

// SearchUntilComplete hides the create/poll loop from callers: it runs the
// session to a terminal COMPLETE status and returns the normalized result.
// Transport failures restart the chain with bounded exponential backoff,
// reusing a session token once one is held; a normalization failure is
// terminal and surfaces as a MALFORMED error.
func (s *SearchService) SearchUntilComplete(ctx context.Context, query entities.SearchQuery, opts SearchOptions) (*entities.SearchResult, error) {
	chainID := uuid.NewString()
	logger := observability.LoggerFromContext(ctx).With().
		Str("chain_id", chainID).
		Str("from", query.From.EntityID).
		Str("to", query.To.EntityID).
		Logger()
	start := time.Now()

	if opts.Precall {
		if _, err := s.client.Create(ctx, searchRequest(query)); err != nil {
			logger.Warn().Err(err).Msg("pre-call create failed, continuing with authoritative search")
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(s.precallWait):
		}
	}

	// The token survives chain restarts: once the engine has handed one
	// out, retries poll the existing session instead of opening a new one.
	sessionToken := ""
	polls := 0
	var envelope *fareengine.SearchEnvelope

	err := retry.DoWithLog(ctx, s.retryCfg, "search",
		func(ctx context.Context) error {
			var err error
			envelope, err = s.runChain(ctx, &logger, query, &sessionToken, &polls)
			return err
		},
		func(attempt int, err error, nextDelay time.Duration) {
			logger.Warn().
				Err(err).
				Int("attempt", attempt).
				Dur("next_delay", nextDelay).
				Str("session_token", sessionToken).
				Msg("search chain failed, restarting")
		},
	)
	if err != nil {
		s.recordOutcome(ctx, "error", polls, start)
		return nil, apperrors.NewExternalError("search did not reach a terminal status", err)
	}

	result, err := s.normalizer.NormalizeSearch(envelope)
	if err != nil {
		s.recordOutcome(ctx, "malformed", polls, start)
		return nil, err
	}

	logger.Info().
		Int("polls", polls).
		Int("itineraries", result.Stats.Total).
		Dur("elapsed", time.Since(start)).
		Msg("search complete")
	s.recordOutcome(ctx, "complete", polls, start)
	return result, nil
}

// runChain performs one create(+poll...) pass and returns the terminal
// envelope. Any transport or status problem is returned as an error for the
// retry layer; the held token is updated in place so a restart resumes the
// same session.
func (s *SearchService) runChain(ctx context.Context, logger *zerolog.Logger, query entities.SearchQuery, sessionToken *string, polls *int) (*fareengine.SearchEnvelope, error) {
	req := searchRequest(query)

	var envelope *fareengine.SearchEnvelope
	var err error
	if *sessionToken == "" {
		envelope, err = s.client.Create(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("create call failed: %w", err)
		}
		*sessionToken = envelope.SessionToken
	} else {
		envelope, err = s.client.Poll(ctx, *sessionToken, req)
		*polls++
		if err != nil {
			return nil, fmt.Errorf("poll call failed: %w", err)
		}
	}

	for envelope.Status != fareengine.StatusComplete {
		logger.Debug().
			Str("session_token", *sessionToken).
			Int("polls", *polls).
			Msg("results incomplete, polling again")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(s.pollDelay):
		}

		envelope, err = s.client.Poll(ctx, *sessionToken, req)
		*polls++
		if err != nil {
			return nil, fmt.Errorf("poll call failed: %w", err)
		}
	}

	// An empty itinerary set on a completed poll is upstream trouble in a
	// 200 wrapper; retried like a transport failure but logged apart.
	if len(envelope.Content.Results.Itineraries) == 0 {
		return nil, fmt.Errorf("search completed with an empty itinerary set")
	}

	return envelope, nil
}

func (s *SearchService) recordOutcome(ctx context.Context, outcome string, polls int, start time.Time) {
	if s.metrics != nil {
		observability.RecordSearchMetric(ctx, s.metrics, outcome, polls, time.Since(start))
	}
}

func searchRequest(query entities.SearchQuery) fareengine.SearchRequest {
	req := fareengine.SearchRequest{
		From:   query.From.EntityID,
		To:     query.To.EntityID,
		Depart: query.Depart,
	}
	if !query.OneWay() {
		req.Return = *query.Return
	}
	return req
}
