package server

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/goliatone/go-docfill/pkg/apiclient"
	"github.com/goliatone/go-docfill/pkg/session"
)

type cachedBundle struct {
	bundle   *session.Bundle
	loadedAt time.Time
}

// bundleCache shares loaded template bundles between requests for ttl and
// collapses concurrent loads of the same template.
type bundleCache struct {
	client  apiclient.Client
	options []session.Option
	ttl     time.Duration
	now     func() time.Time

	group singleflight.Group
	mu    sync.Mutex
	items map[string]cachedBundle
}

func newBundleCache(client apiclient.Client, ttl time.Duration, options ...session.Option) *bundleCache {
	return &bundleCache{
		client:  client,
		options: options,
		ttl:     ttl,
		now:     time.Now,
		items:   make(map[string]cachedBundle),
	}
}

func (c *bundleCache) Get(ctx context.Context, templateID string) (*session.Bundle, error) {
	if c.ttl > 0 {
		c.mu.Lock()
		item, ok := c.items[templateID]
		c.mu.Unlock()
		if ok && c.now().Sub(item.loadedAt) < c.ttl {
			return item.bundle, nil
		}
	}

	v, err, _ := c.group.Do(templateID, func() (any, error) {
		bundle, err := session.Load(ctx, c.client, templateID, c.options...)
		if err != nil {
			return nil, err
		}
		if c.ttl > 0 {
			c.mu.Lock()
			c.items[templateID] = cachedBundle{bundle: bundle, loadedAt: c.now()}
			c.mu.Unlock()
		}
		return bundle, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*session.Bundle), nil
}

func (c *bundleCache) Invalidate(templateID string) {
	c.mu.Lock()
	delete(c.items, templateID)
	c.mu.Unlock()
}
