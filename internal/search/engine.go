package search

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"omics-backend/internal/omics"
)

const defaultPageSize = 100

// Engine is the multi-store search engine. It is stateless across calls;
// every paginated call carries its position in the continuation token.
type Engine struct {
	client   omics.Client
	pageSize int32
}

// NewEngine builds an engine over the given upstream client. pageSize bounds
// each upstream listing request; values below 1 select the default.
func NewEngine(client omics.Client, pageSize int32) *Engine {
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	return &Engine{client: client, pageSize: pageSize}
}

// SearchPaginated scans stores in enumeration order, classifying items until
// MaxResults results are accepted or every store is exhausted. The returned
// token resumes the same logical sequence with no duplicated and no skipped
// items.
func (e *Engine) SearchPaginated(ctx context.Context, params SearchParams) (ResultPage, error) {
	maxResults := params.MaxResults
	if maxResults < 1 {
		maxResults = 1
	}

	stores, err := e.client.ListStores(ctx, params.Kind)
	if err != nil {
		return ResultPage{}, fmt.Errorf("failed to enumerate %s stores: %w", params.Kind, err)
	}

	cursors := decodeCursorSet(params.NextToken)
	conv := e.newConverter(ctx)

	var results []File
	seen := make(map[string]bool)

	for _, store := range stores {
		sc := cursors.get(store.Id)
		if sc.Done {
			continue
		}

		err := e.scanStore(ctx, store, sc, conv, params.TypeFilter, params.Terms, &results, seen, maxResults)
		if err != nil {
			if ctx.Err() != nil {
				return ResultPage{}, err
			}
			if len(stores) == 1 {
				return ResultPage{}, err
			}
			slog.Error("store scan failed, excluding store from results", "store_id", store.Id, "error", err)
			sc.Done = true
			continue
		}

		if len(results) >= maxResults {
			break
		}
	}

	hasMore := false
	for _, store := range stores {
		if sc, ok := cursors.Stores[store.Id]; !ok || !sc.Done {
			hasMore = true
			break
		}
	}

	page := ResultPage{Results: results, HasMore: hasMore}
	if hasMore {
		page.NextToken = cursors.encode()
	}

	scanned := 0
	for _, sc := range cursors.Stores {
		scanned += sc.Scanned
	}
	slog.Debug("paginated search page complete",
		"kind", params.Kind, "accepted", len(results), "scanned", scanned, "has_more", hasMore)

	return page, nil
}

// scanStore advances one store's scan until the result budget is filled or
// the store is exhausted, applying the two-phase filter policy: phase 1
// issues one server-side filtered listing per term; if phase 1 accepts
// nothing and terms were supplied, phase 2 relists unfiltered and relies on
// the classifier's client-side term matching.
func (e *Engine) scanStore(ctx context.Context, store omics.Store, sc *storeCursor, conv *Converter, typeFilter FileType, terms []string, out *[]File, seen map[string]bool, maxResults int) error {
	for !sc.Done && len(*out) < maxResults {
		var filterName string
		if !sc.Unfiltered {
			if len(terms) == 0 {
				// No terms: the unfiltered listing is the only phase.
				sc.Unfiltered = true
				continue
			}
			if sc.TermIndex >= len(terms) {
				if sc.Matched {
					sc.Done = true
					return nil
				}
				// Phase 2: the server-indexed field missed every term, so
				// relist without the filter and match on metadata instead.
				sc.Unfiltered = true
				sc.Token = ""
				continue
			}
			filterName = terms[sc.TermIndex]
		}

		// Requesting at most the remaining budget keeps the accepted count
		// within maxResults while still letting the upstream token resume
		// exactly after the items of this page.
		fetchSize := e.pageSize
		if remaining := maxResults - len(*out); remaining < int(fetchSize) {
			fetchSize = int32(remaining)
		}

		page, err := e.client.FetchPage(ctx, store, filterName, sc.Token, fetchSize)
		if err != nil {
			return fmt.Errorf("failed to fetch page from store %s: %w", store.Id, err)
		}

		sc.Scanned += len(page.Items)
		for _, item := range page.Items {
			// An item whose name also matches an earlier term was already
			// listed and classified during that term's scan. The in-call seen
			// set cannot catch this across pages, so suppress it here to keep
			// resumed pagination free of duplicates.
			if !sc.Unfiltered && coveredByEarlierTerm(item, terms[:sc.TermIndex]) {
				continue
			}
			file, skip := conv.Convert(ctx, item, store, typeFilter, terms)
			if skip != SkipNone {
				slog.Debug("item skipped", "store_id", store.Id, "reason", skip.String())
				continue
			}
			if !sc.Unfiltered {
				sc.Matched = true
			}
			if seen[file.Path] {
				continue
			}
			seen[file.Path] = true
			*out = append(*out, file)
		}

		if page.NextToken == "" {
			if sc.Unfiltered {
				sc.Done = true
				return nil
			}
			sc.TermIndex++
			sc.Token = ""
		} else {
			sc.Token = page.NextToken
		}
	}
	return nil
}

// coveredByEarlierTerm reports whether the item's server-indexed name matches
// a term whose filtered scan already ran. The server name filter would have
// listed the item during that earlier scan, so the current scan must not emit
// it again. The phase-2 unfiltered scan needs no such check: it only runs when
// phase 1 emitted nothing at all.
func coveredByEarlierTerm(item omics.RawItem, earlier []string) bool {
	var name string
	switch {
	case item.ReadSet != nil:
		name = item.ReadSet.Name
	case item.Reference != nil:
		name = item.Reference.Name
	}
	if name == "" {
		return false
	}
	name = strings.ToLower(name)
	for _, term := range earlier {
		if term != "" && strings.Contains(name, strings.ToLower(term)) {
			return true
		}
	}
	return false
}

func (e *Engine) newConverter(ctx context.Context) *Converter {
	account, err := e.client.AccountId(ctx)
	if err != nil {
		slog.Warn("failed to resolve account id for access URIs", "error", err)
	}
	return &Converter{client: e.client, account: account, region: e.client.Region()}
}
