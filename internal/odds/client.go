package odds

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Classified provider failures. Callers branch on these with errors.Is;
// no raw transport error crosses the package boundary unclassified.
var (
	// ErrConfig means the provider cannot be called at all (no API key).
	ErrConfig = errors.New("odds provider not configured")
	// ErrProvider covers non-2xx responses, network failures, and
	// undecodable payloads.
	ErrProvider = errors.New("odds provider error")
)

const defaultBaseURL = "https://api.the-odds-api.com/v4"

// Event is one match as returned by the odds provider.
type Event struct {
	ID           string      `json:"id"`
	SportKey     string      `json:"sport_key"`
	CommenceTime time.Time   `json:"commence_time"`
	HomeTeam     string      `json:"home_team"`
	AwayTeam     string      `json:"away_team"`
	Bookmakers   []Bookmaker `json:"bookmakers"`
}

// Bookmaker carries one book's markets for an event.
type Bookmaker struct {
	Key     string   `json:"key"`
	Title   string   `json:"title"`
	Markets []Market `json:"markets"`
}

// Market is a single betting market (this client only requests h2h).
type Market struct {
	Key      string    `json:"key"`
	Outcomes []Outcome `json:"outcomes"`
}

// Outcome is one priced selection within a market.
type Outcome struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// Client fetches upcoming head-to-head odds from The Odds API.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewClient creates an odds provider client. The per-invocation deadline is
// expected on the caller's context; the client timeout is only a backstop.
func NewClient(apiKey string) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// SetBaseURL points the client at a different provider host.
func (c *Client) SetBaseURL(baseURL string) {
	c.baseURL = baseURL
}

// FetchUpcoming issues one GET for the league's upcoming fixtures with
// head-to-head bookmaker prices. Cancelling ctx aborts the connection.
func (c *Client) FetchUpcoming(ctx context.Context, sport, region string) ([]Event, error) {
	if c.apiKey == "" {
		return nil, ErrConfig
	}

	u, err := url.Parse(fmt.Sprintf("%s/sports/%s/odds", c.baseURL, url.PathEscape(sport)))
	if err != nil {
		return nil, fmt.Errorf("%w: build url: %v", ErrProvider, err)
	}
	q := u.Query()
	q.Set("apiKey", c.apiKey)
	q.Set("regions", region)
	q.Set("markets", "h2h")
	q.Set("oddsFormat", "decimal")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %v", ErrProvider, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Preserve cancellation and deadline errors for the caller's
		// timeout classification.
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", ErrProvider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: status %d: %s", ErrProvider, resp.StatusCode, string(body))
	}

	var events []Event
	if err := json.NewDecoder(resp.Body).Decode(&events); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: decode response: %v", ErrProvider, err)
	}

	return events, nil
}
