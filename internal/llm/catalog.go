package llm

import (
	"context"
	"errors"
	"sync"
)

// Catalog holds the generator's model list, fetched at most once
type Catalog struct {
	gen    Generator
	mu     sync.Mutex
	done   bool
	models []string
	err    error
}

// NewCatalog creates a catalog over gen
func NewCatalog(gen Generator) *Catalog {
	return &Catalog{gen: gen}
}

// Models returns the generation-capable models. The first completed call
// queries the service; every later call returns the same list (or the same
// error). A call cut short by its own context is not remembered, so the next
// caller queries again.
func (c *Catalog) Models(ctx context.Context) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.done {
		models, err := c.gen.ListModels(ctx)
		if err != nil && isContextError(err) {
			return nil, err
		}
		c.models, c.err, c.done = models, err, true
	}
	if c.err != nil {
		return nil, c.err
	}
	return append([]string(nil), c.models...), nil
}

func isContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
