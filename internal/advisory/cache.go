package advisory

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"finsage/internal/logging"
)

const defaultOptionsCacheSize = 256

// OptionsFetcher is the behaviour the decision provider needs from a
// decision-options backend.
type OptionsFetcher interface {
	FetchOptions(ctx context.Context, req OptionsRequest) (*OptionsResponse, error)
}

// CachedOptionsFetcher memoizes decision-options responses. The backend's
// decision table is a pure function of advisor, step and path, so replaying
// the same prefix (restart, back-and-forth advisor switching) can skip the
// network entirely.
type CachedOptionsFetcher struct {
	inner  OptionsFetcher
	cache  *lru.Cache[string, OptionsResponse]
	logger logging.Logger
}

// NewCachedOptionsFetcher wraps inner with an LRU of the given size.
func NewCachedOptionsFetcher(inner OptionsFetcher, size int, logger logging.Logger) (*CachedOptionsFetcher, error) {
	if size <= 0 {
		size = defaultOptionsCacheSize
	}
	cache, err := lru.New[string, OptionsResponse](size)
	if err != nil {
		return nil, fmt.Errorf("create options cache: %w", err)
	}
	return &CachedOptionsFetcher{
		inner:  inner,
		cache:  cache,
		logger: logging.OrNop(logger),
	}, nil
}

// FetchOptions serves from cache when possible, otherwise delegates.
// Failures are never cached.
func (c *CachedOptionsFetcher) FetchOptions(ctx context.Context, req OptionsRequest) (*OptionsResponse, error) {
	key := cacheKey(req)
	if cached, ok := c.cache.Get(key); ok {
		c.logger.Debug("options cache hit for %s step %d", req.AdvisorID, req.Step)
		return cloneResponse(cached), nil
	}

	resp, err := c.inner.FetchOptions(ctx, req)
	if err != nil {
		return nil, err
	}
	c.cache.Add(key, *cloneResponse(*resp))
	return resp, nil
}

// cloneResponse copies the options slice so cached entries never share
// backing arrays with what callers hold.
func cloneResponse(resp OptionsResponse) *OptionsResponse {
	out := resp
	out.Options = append([]Option(nil), resp.Options...)
	return &out
}

// Purge drops every cached entry.
func (c *CachedOptionsFetcher) Purge() {
	c.cache.Purge()
}

func cacheKey(req OptionsRequest) string {
	key := fmt.Sprintf("%s|%d|", req.AdvisorID, req.Step)
	for _, s := range req.Path {
		key += fmt.Sprintf("%d:%s;", s.StepIndex, s.SelectionID)
	}
	return key
}
