// Package census loads the state reference table from the Census Bureau
// population estimates API.
package census

import (
	"context"
	"fmt"
	"slices"

	"github.com/dukerupert/addressd/internal/address"
	"github.com/dukerupert/addressd/internal/httpclient"
)

// DefaultURL lists every state with its FIPS code.
const DefaultURL = "https://api.census.gov/data/2021/pep/population?get=NAME&for=state:*"

// Client implements address.StateReference.
type Client struct {
	http *httpclient.Client
	url  string
}

var _ address.StateReference = (*Client)(nil)

// New returns a Client that fetches url (DefaultURL when empty).
func New(hc *httpclient.Client, url string) *Client {
	if url == "" {
		url = DefaultURL
	}
	return &Client{http: hc, url: url}
}

// FetchStates returns the states the API reports, in canonical table order.
// Rows whose name is not a known state (territories) are dropped. The API
// carries no city lists.
func (c *Client) FetchStates(ctx context.Context) ([]address.StateRecord, error) {
	var rows [][]string
	if err := c.http.GetJSON(ctx, c.url, &rows); err != nil {
		return nil, fmt.Errorf("census states: %w", err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("census states: empty response")
	}

	order := make(map[string]int)
	for i, s := range address.CanonicalStates() {
		order[s.Code] = i
	}

	states := make([]address.StateRecord, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if len(row) < 2 {
			continue
		}
		code, ok := address.StateCodeForName(row[0])
		if !ok {
			continue
		}
		states = append(states, address.StateRecord{Name: row[0], Code: code, FIPS: row[1]})
	}

	slices.SortFunc(states, func(a, b address.StateRecord) int {
		return order[a.Code] - order[b.Code]
	})
	return states, nil
}
