package github

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

// maxPages guards against a listing endpoint that keeps reporting a next
// page. 100 pages at the maximum page size covers 10,000 entities, far past
// any organization this tool targets.
const maxPages = 100

// pager accumulates entities from paged listing endpoints. Entities are
// deduplicated by key with first-seen-wins semantics, so a pager can be fed
// several overlapping endpoints and retain discovery order.
type pager[T any] struct {
	client *Client
	limit  int // 0 means unbounded
	key    func(T) string
	filter func(T) bool // nil means keep everything
	seen   map[string]bool
	items  []T
}

func newPager[T any](c *Client, limit int, key func(T) string) *pager[T] {
	return &pager[T]{
		client: c,
		limit:  limit,
		key:    key,
		seen:   make(map[string]bool),
	}
}

// collect walks endpoint page by page, adding unseen entities until the
// endpoint is exhausted or the limit is reached. A non-success page status
// ends the endpoint without failing the pager; overlapping endpoints mean a
// listing the token cannot reach is an expected outcome, not an error.
func (p *pager[T]) collect(ctx context.Context, endpoint string) error {
	sep := "?"
	if strings.Contains(endpoint, "?") {
		sep = "&"
	}

	for page := 1; page <= maxPages; page++ {
		if p.full() {
			return nil
		}

		url := fmt.Sprintf("%s%spage=%d&per_page=%d", endpoint, sep, page, p.client.perPage)
		var batch []T
		res, err := p.client.getJSON(ctx, url, &batch)
		if err != nil {
			return err
		}
		if res.StatusCode != http.StatusOK {
			p.client.logger.Warn("listing endpoint unavailable",
				"status", res.StatusCode, "page", page)
			return nil
		}
		if len(batch) == 0 {
			return nil
		}

		for _, item := range batch {
			if p.filter != nil && !p.filter(item) {
				continue
			}
			k := p.key(item)
			if p.seen[k] {
				continue
			}
			p.seen[k] = true
			p.items = append(p.items, item)
			if p.full() {
				return nil
			}
		}

		if !hasNextPage(res.Header, len(batch), p.client.perPage) {
			return nil
		}
		if err := p.client.pause(ctx, p.client.pageDelay); err != nil {
			return err
		}
	}

	p.client.logger.Warn("listing exceeded page guard, stopping", "pages", maxPages)
	return nil
}

func (p *pager[T]) full() bool {
	return p.limit > 0 && len(p.items) >= p.limit
}

// results returns accumulated entities in discovery order, capped at the
// limit.
func (p *pager[T]) results() []T {
	if p.limit > 0 && len(p.items) > p.limit {
		return p.items[:p.limit]
	}
	return p.items
}

// hasNextPage reports whether another page should be fetched. The Link
// header is authoritative when present; otherwise a full page implies more
// may follow.
func hasNextPage(header http.Header, got, perPage int) bool {
	if link := header.Get("Link"); link != "" {
		return strings.Contains(link, `rel="next"`)
	}
	return got == perPage
}
