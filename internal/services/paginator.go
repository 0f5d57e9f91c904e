package services

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

const defaultPageSize = 20

// Page is one page of a cursor-driven listing.
type Page[T any] struct {
	Items   []T
	HasNext bool
}

// PageFunc fetches one page of items starting at offset.
type PageFunc[T any] func(ctx context.Context, offset, limit int) (Page[T], error)

// Paginator drains a paginated endpoint page by page, advancing the offset
// by the number of items actually returned. A short final page is normal;
// iteration stops on an empty page or when the source reports no next page.
//
// The Paginator performs no retries; transient fetch failures propagate to
// the caller, which owns retry policy.
type Paginator[T any] struct {
	Fetch    PageFunc[T]
	Limit    int           // Items requested per page; defaults to 20
	MaxPages int           // Page cap for unbounded feeds, 0 for unlimited
	Limiter  *rate.Limiter // Optional page-fetch rate limit
}

// Each invokes fn for every item across all pages, in order.
//
// An error from fn stops iteration immediately and is returned verbatim,
// as is any page-fetch error.
func (p Paginator[T]) Each(ctx context.Context, fn func(item T) error) error {
	if p.Fetch == nil {
		return fmt.Errorf("paginator: nil fetch function")
	}

	limit := p.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}

	offset := 0
	for pages := 0; p.MaxPages <= 0 || pages < p.MaxPages; pages++ {
		if p.Limiter != nil {
			if err := p.Limiter.Wait(ctx); err != nil {
				return err
			}
		}

		page, err := p.Fetch(ctx, offset, limit)
		if err != nil {
			return err
		}

		if len(page.Items) == 0 {
			return nil
		}

		for _, item := range page.Items {
			if err := fn(item); err != nil {
				return err
			}
		}

		offset += len(page.Items)

		if !page.HasNext {
			return nil
		}
	}

	return nil
}

// All collects every item across all pages into one slice.
func (p Paginator[T]) All(ctx context.Context) ([]T, error) {
	var items []T
	err := p.Each(ctx, func(item T) error {
		items = append(items, item)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}
