package fareengine

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/skylane/flightsearch/backend/pkg/config"
)

// Client talks to the upstream fare engine's two-phase search protocol
type Client interface {
	Create(ctx context.Context, req SearchRequest) (*SearchEnvelope, error)
	Poll(ctx context.Context, sessionToken string, req SearchRequest) (*SearchEnvelope, error)
	Indicative(ctx context.Context, req IndicativeRequest) (*IndicativeEnvelope, error)
}

// SearchRequest carries the resolved query of a create or poll call
type SearchRequest struct {
	From   string // origin entity id
	To     string // destination entity id
	Depart string // YYYY-MM-DD
	Return string // YYYY-MM-DD, empty for one-way
	Mode   string // optional, e.g. "complete"
}

// IndicativeRequest parameterizes the indicative price endpoint
type IndicativeRequest struct {
	From      string
	To        string
	TripType  string
	Month     int
	Year      int
	EndMonth  int
	EndYear   int
	GroupType string // "date" or "month"
}

// HTTPClient is the default Client implementation
type HTTPClient struct {
	baseURL    string
	apiKey     string
	market     string
	currency   string
	locale     string
	httpClient *http.Client
}

// NewClient creates a fare engine client from configuration
func NewClient(cfg *config.FareEngineConfig) *HTTPClient {
	return &HTTPClient{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:   cfg.APIKey,
		market:   cfg.Market,
		currency: cfg.Currency,
		locale:   cfg.Locale,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Create starts a search session
func (c *HTTPClient) Create(ctx context.Context, req SearchRequest) (*SearchEnvelope, error) {
	parsed, err := url.Parse(fmt.Sprintf("%s/create", c.baseURL))
	if err != nil {
		return nil, err
	}
	parsed.RawQuery = c.searchQuery(req).Encode()

	out := &SearchEnvelope{}
	if err := c.doJSON(ctx, http.MethodGet, parsed.String(), out); err != nil {
		return nil, err
	}
	return out, nil
}

// Poll fetches the current state of an in-flight session
func (c *HTTPClient) Poll(ctx context.Context, sessionToken string, req SearchRequest) (*SearchEnvelope, error) {
	if strings.TrimSpace(sessionToken) == "" {
		return nil, fmt.Errorf("session token is required")
	}
	parsed, err := url.Parse(fmt.Sprintf("%s/poll/%s", c.baseURL, url.PathEscape(sessionToken)))
	if err != nil {
		return nil, err
	}
	parsed.RawQuery = c.searchQuery(req).Encode()

	out := &SearchEnvelope{}
	if err := c.doJSON(ctx, http.MethodGet, parsed.String(), out); err != nil {
		return nil, err
	}
	return out, nil
}

// Indicative fetches coarse per-date price samples for a route
func (c *HTTPClient) Indicative(ctx context.Context, req IndicativeRequest) (*IndicativeEnvelope, error) {
	parsed, err := url.Parse(fmt.Sprintf("%s/indicative", c.baseURL))
	if err != nil {
		return nil, err
	}

	query := c.baseQuery()
	query.Set("from", req.From)
	query.Set("to", req.To)
	if req.TripType != "" {
		query.Set("tripType", req.TripType)
	}
	if req.Month > 0 {
		query.Set("month", strconv.Itoa(req.Month))
	}
	if req.Year > 0 {
		query.Set("year", strconv.Itoa(req.Year))
	}
	if req.EndMonth > 0 {
		query.Set("endMonth", strconv.Itoa(req.EndMonth))
	}
	if req.EndYear > 0 {
		query.Set("endYear", strconv.Itoa(req.EndYear))
	}
	if req.GroupType != "" {
		query.Set("groupType", req.GroupType)
	}
	parsed.RawQuery = query.Encode()

	out := &IndicativeEnvelope{}
	if err := c.doJSON(ctx, http.MethodGet, parsed.String(), out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) searchQuery(req SearchRequest) url.Values {
	query := c.baseQuery()
	query.Set("from", req.From)
	query.Set("to", req.To)
	query.Set("depart", req.Depart)
	if req.Return != "" {
		query.Set("return", req.Return)
	}
	if req.Mode != "" {
		query.Set("mode", req.Mode)
	}
	return query
}

func (c *HTTPClient) baseQuery() url.Values {
	query := url.Values{}
	if c.market != "" {
		query.Set("market", c.market)
	}
	if c.currency != "" {
		query.Set("currency", c.currency)
	}
	if c.locale != "" {
		query.Set("locale", c.locale)
	}
	return query
}

func (c *HTTPClient) doJSON(ctx context.Context, method, endpoint string, out interface{}) error {
	httpReq, err := http.NewRequestWithContext(ctx, method, endpoint, nil)
	if err != nil {
		return err
	}
	httpReq.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("X-Api-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("fare engine returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode fare engine response: %w", err)
	}

	return nil
}
