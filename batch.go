package stmtql

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Request is one statement of a batch.
type Request struct {
	Kind       StatementKind
	Descriptor QueryDescriptor
}

// CompileAll compiles requests concurrently. Results are in request order.
// The first failure cancels the remaining work and is returned.
func (c *Compiler) CompileAll(ctx context.Context, reqs []Request) ([]*Statement, error) {
	out := make([]*Statement, len(reqs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, req := range reqs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			st, err := c.Compile(req.Kind, req.Descriptor)
			if err != nil {
				return err
			}
			out[i] = st
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
