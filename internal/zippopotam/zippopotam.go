// Package zippopotam looks up US ZIP codes against the Zippopotam.us API.
package zippopotam

import (
	"context"
	"net/url"
	"strings"

	"github.com/dukerupert/addressd/internal/address"
	"github.com/dukerupert/addressd/internal/httpclient"
)

// DefaultBaseURL is the public US endpoint.
const DefaultBaseURL = "https://api.zippopotam.us/us"

type place struct {
	PlaceName         string `json:"place name"`
	State             string `json:"state"`
	StateAbbreviation string `json:"state abbreviation"`
	PostCode          string `json:"post code"`
}

type response struct {
	PostCode string  `json:"post code"`
	Places   []place `json:"places"`
}

// Client implements address.Locator and address.ZipLister.
type Client struct {
	http *httpclient.Client
}

var (
	_ address.Locator   = (*Client)(nil)
	_ address.ZipLister = (*Client)(nil)
)

// New returns a Client backed by hc, whose base URL should point at the
// country root (DefaultBaseURL).
func New(hc *httpclient.Client) *Client {
	return &Client{http: hc}
}

// LocationByZip returns the first place registered for zip, or nil when the
// ZIP is unknown.
func (c *Client) LocationByZip(ctx context.Context, zip string) (*address.AuthoritativeLocation, error) {
	var resp response
	if err := c.http.GetJSON(ctx, "/"+url.PathEscape(zip), &resp); err != nil {
		if httpclient.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	if len(resp.Places) == 0 {
		return nil, nil
	}

	p := resp.Places[0]
	return &address.AuthoritativeLocation{
		City:  p.PlaceName,
		State: strings.ToUpper(p.StateAbbreviation),
	}, nil
}

// ZipsByCityState lists the distinct ZIP codes of a city, in response order.
func (c *Client) ZipsByCityState(ctx context.Context, city, state string) ([]string, error) {
	path := "/" + url.PathEscape(strings.ToLower(state)) + "/" + url.PathEscape(strings.ToLower(city))

	var resp response
	if err := c.http.GetJSON(ctx, path, &resp); err != nil {
		if httpclient.IsNotFound(err) {
			return []string{}, nil
		}
		return nil, err
	}

	seen := make(map[string]struct{}, len(resp.Places))
	zips := make([]string, 0, len(resp.Places))
	for _, p := range resp.Places {
		if p.PostCode == "" {
			continue
		}
		if _, dup := seen[p.PostCode]; dup {
			continue
		}
		seen[p.PostCode] = struct{}{}
		zips = append(zips, p.PostCode)
	}
	return zips, nil
}
