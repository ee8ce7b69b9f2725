package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skylane/flightsearch/backend/internal/domain/entities"
	"github.com/skylane/flightsearch/backend/internal/infrastructure/clients/fareengine"
	"github.com/skylane/flightsearch/backend/pkg/config"
	apperrors "github.com/skylane/flightsearch/backend/pkg/errors"
	"github.com/skylane/flightsearch/backend/pkg/retry"
)

// scriptedFareClient replays canned responses; a nil envelope means a
// transport failure for that call
type scriptedFareClient struct {
	createResponses []*fareengine.SearchEnvelope
	pollResponses   []*fareengine.SearchEnvelope
	creates         int
	polls           int
	polledTokens    []string
}

var errTransport = errors.New("connection reset")

func (c *scriptedFareClient) Create(ctx context.Context, req fareengine.SearchRequest) (*fareengine.SearchEnvelope, error) {
	idx := c.creates
	c.creates++
	if idx >= len(c.createResponses) || c.createResponses[idx] == nil {
		return nil, errTransport
	}
	return c.createResponses[idx], nil
}

func (c *scriptedFareClient) Poll(ctx context.Context, sessionToken string, req fareengine.SearchRequest) (*fareengine.SearchEnvelope, error) {
	idx := c.polls
	c.polls++
	c.polledTokens = append(c.polledTokens, sessionToken)
	if idx >= len(c.pollResponses) || c.pollResponses[idx] == nil {
		return nil, errTransport
	}
	return c.pollResponses[idx], nil
}

func incompleteEnvelope(token string) *fareengine.SearchEnvelope {
	return &fareengine.SearchEnvelope{SessionToken: token, Status: fareengine.StatusIncomplete}
}

func testQuery() entities.SearchQuery {
	ret := "2025-06-08"
	return entities.SearchQuery{
		From:   entities.Place{EntityID: "27546294", Iata: "LHR"},
		To:     entities.Place{EntityID: "27537542", Iata: "CDG"},
		Depart: "2025-06-01",
		Return: &ret,
	}
}

func newTestService(client FareClient) *SearchService {
	return NewSearchService(client, NewNormalizer("£"), &config.FareEngineConfig{
		PollDelay:   time.Millisecond,
		PrecallWait: time.Millisecond,
	}, retry.Config{
		MaxAttempts:   5,
		InitialDelay:  time.Millisecond,
		MaxDelay:      time.Millisecond,
		BackoffFactor: 1.0,
	}, nil)
}

func TestSearchUntilComplete_PollsUntilTerminal(t *testing.T) {
	// create INCOMPLETE, poll INCOMPLETE, poll COMPLETE with one £120 itinerary
	client := &scriptedFareClient{
		createResponses: []*fareengine.SearchEnvelope{incompleteEnvelope("T1")},
		pollResponses: []*fareengine.SearchEnvelope{
			incompleteEnvelope("T1"),
			minimalEnvelope(),
		},
	}

	service := newTestService(client)
	result, err := service.SearchUntilComplete(context.Background(), testQuery(), SearchOptions{})

	require.NoError(t, err)
	assert.Equal(t, 1, client.creates)
	assert.Equal(t, 2, client.polls)
	assert.Equal(t, []string{"T1", "T1"}, client.polledTokens)
	require.Len(t, result.Cheapest, 1)
	assert.Equal(t, "£120.00", result.Cheapest[0].Price)
	assert.Equal(t, entities.SearchStatusComplete, result.Status)
}

func TestSearchUntilComplete_ImmediateComplete(t *testing.T) {
	client := &scriptedFareClient{
		createResponses: []*fareengine.SearchEnvelope{minimalEnvelope()},
	}

	service := newTestService(client)
	result, err := service.SearchUntilComplete(context.Background(), testQuery(), SearchOptions{})

	require.NoError(t, err)
	assert.Equal(t, 0, client.polls)
	assert.Equal(t, "T1", result.SessionToken)
}

func TestSearchUntilComplete_RetriesCreateFailure(t *testing.T) {
	client := &scriptedFareClient{
		createResponses: []*fareengine.SearchEnvelope{nil, minimalEnvelope()},
	}

	service := newTestService(client)
	result, err := service.SearchUntilComplete(context.Background(), testQuery(), SearchOptions{})

	require.NoError(t, err)
	assert.Equal(t, 2, client.creates)
	assert.Len(t, result.Best, 1)
}

func TestSearchUntilComplete_ReusesTokenOnPollFailure(t *testing.T) {
	// once a token is held, a restart resumes the session rather than
	// issuing a fresh create
	client := &scriptedFareClient{
		createResponses: []*fareengine.SearchEnvelope{incompleteEnvelope("T1")},
		pollResponses: []*fareengine.SearchEnvelope{
			nil, // transport failure
			minimalEnvelope(),
		},
	}

	service := newTestService(client)
	result, err := service.SearchUntilComplete(context.Background(), testQuery(), SearchOptions{})

	require.NoError(t, err)
	assert.Equal(t, 1, client.creates)
	assert.Equal(t, 2, client.polls)
	assert.Equal(t, "T1", result.SessionToken)
}

func TestSearchUntilComplete_EmptyOnCompleteIsRetried(t *testing.T) {
	empty := &fareengine.SearchEnvelope{SessionToken: "T1", Status: fareengine.StatusComplete}
	client := &scriptedFareClient{
		createResponses: []*fareengine.SearchEnvelope{empty},
		pollResponses:   []*fareengine.SearchEnvelope{minimalEnvelope()},
	}

	service := newTestService(client)
	result, err := service.SearchUntilComplete(context.Background(), testQuery(), SearchOptions{})

	require.NoError(t, err)
	assert.Equal(t, 1, client.creates)
	assert.Equal(t, 1, client.polls)
	assert.Len(t, result.Best, 1)
}

func TestSearchUntilComplete_ExhaustsRetries(t *testing.T) {
	client := &scriptedFareClient{} // every call fails

	service := newTestService(client)
	_, err := service.SearchUntilComplete(context.Background(), testQuery(), SearchOptions{})

	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeExternal))
	// no token was ever issued, so every restart begins with a fresh create
	assert.Equal(t, 5, client.creates)
	assert.Equal(t, 0, client.polls)
}

func TestSearchUntilComplete_MalformedResultIsTerminal(t *testing.T) {
	broken := minimalEnvelope()
	delete(broken.Content.Results.Legs, "l1")
	client := &scriptedFareClient{
		createResponses: []*fareengine.SearchEnvelope{broken, broken},
	}

	service := newTestService(client)
	_, err := service.SearchUntilComplete(context.Background(), testQuery(), SearchOptions{})

	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeMalformed))
	// normalization failure must not restart the chain
	assert.Equal(t, 1, client.creates)
}

func TestSearchUntilComplete_PrecallFiresExtraCreate(t *testing.T) {
	client := &scriptedFareClient{
		createResponses: []*fareengine.SearchEnvelope{minimalEnvelope(), minimalEnvelope()},
	}

	service := newTestService(client)
	_, err := service.SearchUntilComplete(context.Background(), testQuery(), SearchOptions{Precall: true})

	require.NoError(t, err)
	assert.Equal(t, 2, client.creates)
}

func TestSearchUntilComplete_ContextCancellation(t *testing.T) {
	client := &scriptedFareClient{
		createResponses: []*fareengine.SearchEnvelope{incompleteEnvelope("T1")},
		pollResponses: []*fareengine.SearchEnvelope{
			incompleteEnvelope("T1"), incompleteEnvelope("T1"), incompleteEnvelope("T1"),
		},
	}

	service := NewSearchService(client, NewNormalizer("£"), &config.FareEngineConfig{
		PollDelay: 50 * time.Millisecond,
	}, retry.Config{
		MaxAttempts:   5,
		InitialDelay:  time.Millisecond,
		MaxDelay:      time.Millisecond,
		BackoffFactor: 1.0,
	}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := service.SearchUntilComplete(ctx, testQuery(), SearchOptions{})
	require.Error(t, err)
}

func TestCreateAndPoll_SingleShot(t *testing.T) {
	client := &scriptedFareClient{
		createResponses: []*fareengine.SearchEnvelope{incompleteEnvelope("T1")},
		pollResponses:   []*fareengine.SearchEnvelope{minimalEnvelope()},
	}
	service := newTestService(client)

	created, err := service.Create(context.Background(), testQuery())
	require.NoError(t, err)
	assert.Equal(t, entities.SearchStatusIncomplete, created.Status)
	assert.Equal(t, "T1", created.SessionToken)

	polled, err := service.Poll(context.Background(), "T1", testQuery())
	require.NoError(t, err)
	assert.Equal(t, entities.SearchStatusComplete, polled.Status)
}
