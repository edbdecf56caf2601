package search

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"golang.org/x/sync/errgroup"

	"omics-backend/internal/omics"
)

// Search is the non-paginated convenience form: it fans out one scan per
// store, joins on all of them, and merges the results. A failing store is
// logged and excluded; only enumeration failure or cancellation fails the
// whole call. No cross-store ordering is guaranteed.
func (e *Engine) Search(ctx context.Context, kind omics.StoreKind, typeFilter FileType, terms []string) ([]File, error) {
	stores, err := e.client.ListStores(ctx, kind)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate %s stores: %w", kind, err)
	}

	conv := e.newConverter(ctx)

	var mu sync.Mutex
	var results []File
	seen := make(map[string]bool)

	g, ctx := errgroup.WithContext(ctx)
	for _, store := range stores {
		store := store
		g.Go(func() error {
			files, err := e.drainStore(ctx, store, conv, typeFilter, terms)
			if err != nil {
				if ctx.Err() != nil {
					// Cancellation discards the partial result set; the call
					// as a whole fails instead of returning a silent subset.
					return err
				}
				slog.Error("store search failed, excluding store from results", "store_id", store.Id, "error", err)
				return nil
			}

			mu.Lock()
			defer mu.Unlock()
			for _, f := range files {
				if seen[f.Path] {
					continue
				}
				seen[f.Path] = true
				results = append(results, f)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// drainStore consumes one store completely, applying the same two-phase
// policy as the paginated scan.
func (e *Engine) drainStore(ctx context.Context, store omics.Store, conv *Converter, typeFilter FileType, terms []string) ([]File, error) {
	var files []File
	seen := make(map[string]bool)
	sc := &storeCursor{}

	if err := e.scanStore(ctx, store, sc, conv, typeFilter, terms, &files, seen, math.MaxInt); err != nil {
		return nil, err
	}
	return files, nil
}
