package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skylane/flightsearch/backend/internal/domain/entities"
	"github.com/skylane/flightsearch/backend/internal/infrastructure/clients/fareengine"
)

type fakeIndicativeClient struct {
	envelope *fareengine.IndicativeEnvelope
	err      error
}

func (c *fakeIndicativeClient) Indicative(ctx context.Context, req fareengine.IndicativeRequest) (*fareengine.IndicativeEnvelope, error) {
	return c.envelope, c.err
}

func quoteOn(id, date string, price float64) entities.Quote {
	return entities.Quote{
		ID:       id,
		RawPrice: price,
		Outbound: entities.QuoteLeg{
			Origin:        entities.Place{EntityID: "27546294"},
			Destination:   entities.Place{EntityID: "27537542"},
			DepartureDate: date,
		},
	}
}

func TestQuotes_FetchesAndNormalizes(t *testing.T) {
	service := NewIndicativeService(&fakeIndicativeClient{envelope: indicativeEnvelope()}, NewNormalizer("£"))

	quotes, err := service.Quotes(context.Background(), fareengine.IndicativeRequest{From: "a", To: "b"})
	require.NoError(t, err)
	require.Len(t, quotes, 1)
	assert.Equal(t, "£45.00", quotes[0].Price)
}

func TestFillDateRange_InsertsGapMarkers(t *testing.T) {
	service := NewIndicativeService(nil, NewNormalizer("£"))
	quotes := []entities.Quote{quoteOn("q1", "2025-06-02", 45)}

	days, err := service.FillDateRange("2025-06-01", "2025-06-03", quotes)
	require.NoError(t, err)
	require.Len(t, days, 3)

	assert.Equal(t, "2025-06-01", days[0].Date)
	assert.Nil(t, days[0].Quote)
	assert.Equal(t, "2025-06-02", days[1].Date)
	require.NotNil(t, days[1].Quote)
	assert.Equal(t, "q1", days[1].Quote.ID)
	assert.Nil(t, days[2].Quote)
}

func TestFillDateRange_RejectsInvertedRange(t *testing.T) {
	service := NewIndicativeService(nil, NewNormalizer("£"))
	_, err := service.FillDateRange("2025-06-03", "2025-06-01", nil)
	assert.Error(t, err)
}

func TestGroupByDate_BucketsAndOrders(t *testing.T) {
	service := NewIndicativeService(nil, NewNormalizer("£"))
	quotes := []entities.Quote{
		quoteOn("late", "2025-07-10", 80),
		quoteOn("early", "2025-06-02", 45),
		quoteOn("early2", "2025-06-02", 50),
	}

	groups := service.GroupByDate(quotes)
	require.Len(t, groups, 2)
	// ordered by the numeric YYYYMMDD of each group's first outbound date
	assert.Equal(t, "2025-06-02", groups[0].Key)
	assert.Len(t, groups[0].Quotes, 2)
	assert.Equal(t, "2025-07-10", groups[1].Key)
}

func TestGroupByMonth_BucketsByYearMonth(t *testing.T) {
	service := NewIndicativeService(nil, NewNormalizer("£"))
	quotes := []entities.Quote{
		quoteOn("a", "2025-06-02", 45),
		quoteOn("b", "2025-06-28", 60),
		quoteOn("c", "2025-07-01", 80),
	}

	groups := service.GroupByMonth(quotes)
	require.Len(t, groups, 2)
	assert.Equal(t, "2025-06", groups[0].Key)
	assert.Len(t, groups[0].Quotes, 2)
	assert.Equal(t, "2025-07", groups[1].Key)
}

func TestGroupByRoute(t *testing.T) {
	service := NewIndicativeService(nil, NewNormalizer("£"))
	other := quoteOn("other", "2025-06-02", 45)
	other.Outbound.Destination.EntityID = "99999999"
	quotes := []entities.Quote{
		quoteOn("a", "2025-06-02", 45),
		other,
		quoteOn("b", "2025-06-03", 50),
	}

	groups := service.GroupByRoute(quotes)
	require.Len(t, groups, 2)
	assert.Equal(t, "27546294-27537542", groups[0].Key)
	assert.Len(t, groups[0].Quotes, 2)
}

func TestBarHeights_ScalesAgainstGroupMax(t *testing.T) {
	service := NewIndicativeService(nil, NewNormalizer("£"))
	quotes := []entities.Quote{
		quoteOn("cheap", "2025-06-01", 50),
		quoteOn("max", "2025-06-02", 100),
		quoteOn("mid", "2025-06-03", 75),
	}

	bars := service.BarHeights(quotes)
	require.Len(t, bars, 3)
	assert.Equal(t, 50, bars[0].Percent)
	assert.Equal(t, 100, bars[1].Percent)
	assert.Equal(t, 75, bars[2].Percent)

	for _, bar := range bars {
		assert.GreaterOrEqual(t, bar.Percent, 0)
		assert.LessOrEqual(t, bar.Percent, 100)
	}
}

func TestBarHeights_EmptyAndZeroPrices(t *testing.T) {
	service := NewIndicativeService(nil, NewNormalizer("£"))

	assert.Empty(t, service.BarHeights(nil))

	bars := service.BarHeights([]entities.Quote{quoteOn("free", "2025-06-01", 0)})
	require.Len(t, bars, 1)
	assert.Equal(t, 0, bars[0].Percent)
}
