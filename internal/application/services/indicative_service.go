package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/skylane/flightsearch/backend/internal/domain/entities"
	"github.com/skylane/flightsearch/backend/internal/infrastructure/clients/fareengine"
	apperrors "github.com/skylane/flightsearch/backend/pkg/errors"
)

const dateLayout = "2006-01-02"

// IndicativeClient is the slice of the fare engine client the aggregator needs
type IndicativeClient interface {
	Indicative(ctx context.Context, req fareengine.IndicativeRequest) (*fareengine.IndicativeEnvelope, error)
}

// IndicativeService turns coarse indicative price samples into the
// date-bucketed groupings calendar and heatmap views are built from. Runs
// independently of the search session client against its own endpoint.
type IndicativeService struct {
	client     IndicativeClient
	normalizer *Normalizer
}

// NewIndicativeService creates an indicative price service
func NewIndicativeService(client IndicativeClient, normalizer *Normalizer) *IndicativeService {
	return &IndicativeService{
		client:     client,
		normalizer: normalizer,
	}
}

// Quotes fetches and normalizes the indicative quotes for a route
func (s *IndicativeService) Quotes(ctx context.Context, req fareengine.IndicativeRequest) ([]entities.Quote, error) {
	envelope, err := s.client.Indicative(ctx, req)
	if err != nil {
		return nil, apperrors.NewExternalError("indicative call failed", err)
	}
	return s.normalizer.NormalizeIndicative(envelope)
}

// GroupByRoute buckets quotes by origin/destination pair
func (s *IndicativeService) GroupByRoute(quotes []entities.Quote) []entities.QuoteGroup {
	return groupBy(quotes, func(q entities.Quote) string {
		return fmt.Sprintf("%s-%s", q.Outbound.Origin.EntityID, q.Outbound.Destination.EntityID)
	})
}

// GroupByDate buckets quotes by outbound departure date
func (s *IndicativeService) GroupByDate(quotes []entities.Quote) []entities.QuoteGroup {
	return SortGroupsByDate(groupBy(quotes, func(q entities.Quote) string {
		return q.Outbound.DepartureDate
	}))
}

// GroupByMonth buckets quotes by outbound departure month (YYYY-MM)
func (s *IndicativeService) GroupByMonth(quotes []entities.Quote) []entities.QuoteGroup {
	return SortGroupsByDate(groupBy(quotes, func(q entities.Quote) string {
		if len(q.Outbound.DepartureDate) >= 7 {
			return q.Outbound.DepartureDate[:7]
		}
		return q.Outbound.DepartureDate
	}))
}

// FillDateRange produces one entry per calendar day in [start, end]
// inclusive, pairing each day with its quote when the upstream returned one
// and a gap marker when it did not
func (s *IndicativeService) FillDateRange(start, end string, quotes []entities.Quote) ([]entities.CalendarDay, error) {
	from, err := time.Parse(dateLayout, start)
	if err != nil {
		return nil, apperrors.NewValidationError(fmt.Sprintf("invalid range start %q", start))
	}
	to, err := time.Parse(dateLayout, end)
	if err != nil {
		return nil, apperrors.NewValidationError(fmt.Sprintf("invalid range end %q", end))
	}
	if to.Before(from) {
		return nil, apperrors.NewValidationError("range end precedes range start")
	}

	byDate := make(map[string]*entities.Quote, len(quotes))
	for i := range quotes {
		quote := quotes[i]
		if _, taken := byDate[quote.Outbound.DepartureDate]; !taken {
			byDate[quote.Outbound.DepartureDate] = &quote
		}
	}

	var days []entities.CalendarDay
	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		key := day.Format(dateLayout)
		days = append(days, entities.CalendarDay{
			Date:  key,
			Quote: byDate[key],
		})
	}
	return days, nil
}

// BarHeights computes each quote's bar height as a percentage of the most
// expensive quote in the group: 100 - ceil(((max-price)/max)*100). The most
// expensive quote is always 100; the result can never leave [0,100] because
// no price exceeds the maximum.
func (s *IndicativeService) BarHeights(quotes []entities.Quote) []entities.QuoteBar {
	max := 0.0
	for _, quote := range quotes {
		if quote.RawPrice > max {
			max = quote.RawPrice
		}
	}

	bars := make([]entities.QuoteBar, 0, len(quotes))
	for _, quote := range quotes {
		percent := 0
		if max > 0 {
			percent = 100 - int(math.Ceil(((max-quote.RawPrice)/max)*100))
		}
		bars = append(bars, entities.QuoteBar{Quote: quote, Percent: percent})
	}
	return bars
}

// SortGroupsByDate orders quote groups by the numeric YYYYMMDD concatenation
// of each group's first outbound departure date
func SortGroupsByDate(groups []entities.QuoteGroup) []entities.QuoteGroup {
	sort.SliceStable(groups, func(i, j int) bool {
		return groupDateKey(groups[i]) < groupDateKey(groups[j])
	})
	return groups
}

func groupDateKey(group entities.QuoteGroup) int {
	if len(group.Quotes) == 0 {
		return 0
	}
	digits := strings.ReplaceAll(group.Quotes[0].Outbound.DepartureDate, "-", "")
	key, err := strconv.Atoi(digits)
	if err != nil {
		return 0
	}
	return key
}

// groupBy buckets quotes by key, preserving first-seen key order inside a
// deterministic (sorted) group layout
func groupBy(quotes []entities.Quote, key func(entities.Quote) string) []entities.QuoteGroup {
	index := make(map[string]int)
	var groups []entities.QuoteGroup
	for _, quote := range quotes {
		k := key(quote)
		if at, ok := index[k]; ok {
			groups[at].Quotes = append(groups[at].Quotes, quote)
			continue
		}
		index[k] = len(groups)
		groups = append(groups, entities.QuoteGroup{Key: k, Quotes: []entities.Quote{quote}})
	}
	return groups
}
