package zippopotam

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/dukerupert/addressd/internal/address"
)

// CachedLocator memoizes positive ZIP answers in a fixed-size LRU.
// Unknown ZIPs and errors always reach the wrapped Locator.
type CachedLocator struct {
	next  address.Locator
	cache *lru.Cache[string, address.AuthoritativeLocation]
}

// NewCachedLocator wraps next with an LRU of size entries. A size of zero or
// less returns next unchanged.
func NewCachedLocator(next address.Locator, size int) (address.Locator, error) {
	if size <= 0 {
		return next, nil
	}
	cache, err := lru.New[string, address.AuthoritativeLocation](size)
	if err != nil {
		return nil, err
	}
	return &CachedLocator{next: next, cache: cache}, nil
}

func (c *CachedLocator) LocationByZip(ctx context.Context, zip string) (*address.AuthoritativeLocation, error) {
	if loc, ok := c.cache.Get(zip); ok {
		return &loc, nil
	}

	loc, err := c.next.LocationByZip(ctx, zip)
	if err != nil || loc == nil {
		return loc, err
	}
	c.cache.Add(zip, *loc)
	return loc, nil
}

// Len reports the number of cached ZIPs.
func (c *CachedLocator) Len() int {
	return c.cache.Len()
}
