package airtable

import (
	"context"

	"golang.org/x/sync/errgroup"
)

const (
	// BatchLimit is the maximum number of records per write or delete request
	BatchLimit = 10
	// DefaultConcurrency is the number of batch requests in flight at once
	DefaultConcurrency = 5
)

// chunk splits items into consecutive groups of at most size elements.
// Empty input yields no groups. size must be positive.
func chunk[T any](items []T, size int) [][]T {
	if size <= 0 {
		panic("airtable: chunk size must be positive")
	}

	groups := make([][]T, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		groups = append(groups, items[start:end])
	}
	return groups
}

// runBatches calls fn once per group with at most limit calls in flight and
// concatenates the results in group order. The first failure cancels the
// remaining groups and is returned alone.
func runBatches[T, R any](ctx context.Context, groups [][]T, limit int, fn func(ctx context.Context, group []T) ([]R, error)) ([]R, error) {
	if len(groups) == 0 {
		return []R{}, nil
	}

	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}

	results := make([][]R, len(groups))
	for i, group := range groups {
		g.Go(func() error {
			// no new requests once the operation failed or was abandoned
			if err := ctx.Err(); err != nil {
				return mapError(err)
			}
			out, err := fn(ctx, group)
			if err != nil {
				return err
			}
			results[i] = out
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := 0
	for _, r := range results {
		total += len(r)
	}
	all := make([]R, 0, total)
	for _, r := range results {
		all = append(all, r...)
	}
	return all, nil
}
