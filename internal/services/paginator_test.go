package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

// pagedSource simulates an endpoint holding total items served in limit-sized pages.
func pagedSource(total int, calls *[]int) PageFunc[int] {
	return func(ctx context.Context, offset, limit int) (Page[int], error) {
		*calls = append(*calls, offset)

		var items []int
		for i := offset; i < total && i < offset+limit; i++ {
			items = append(items, i)
		}

		return Page[int]{Items: items, HasNext: offset+len(items) < total}, nil
	}
}

func TestPaginator(t *testing.T) {
	ctx := context.Background()

	t.Run("Drains Short Final Page", func(t *testing.T) {
		var calls []int
		p := Paginator[int]{Fetch: pagedSource(113, &calls), Limit: 50}

		items, err := p.All(ctx)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if len(items) != 113 {
			t.Errorf("expected 113 items, got %d", len(items))
		}
		if len(calls) != 3 {
			t.Errorf("expected 3 page fetches, got %d (offsets %v)", len(calls), calls)
		}

		wantOffsets := []int{0, 50, 100}
		for i, offset := range wantOffsets {
			if calls[i] != offset {
				t.Errorf("fetch %d: expected offset %d, got %d", i, offset, calls[i])
			}
		}

		for i, item := range items {
			if item != i {
				t.Fatalf("item %d out of order: got %d", i, item)
			}
		}
	})

	t.Run("Short Page Then Empty Page", func(t *testing.T) {
		// Source always claims more data, so a short page does not stop
		// iteration; only the empty fourth page does.
		var calls []int
		p := Paginator[int]{
			Fetch: func(ctx context.Context, offset, limit int) (Page[int], error) {
				calls = append(calls, offset)

				var items []int
				for i := offset; i < 113 && i < offset+limit; i++ {
					items = append(items, i)
				}
				return Page[int]{Items: items, HasNext: true}, nil
			},
			Limit: 50,
		}

		items, err := p.All(ctx)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if len(items) != 113 {
			t.Errorf("expected 113 items, got %d", len(items))
		}
		if len(calls) != 4 {
			t.Fatalf("expected 4 page fetches, got %d (offsets %v)", len(calls), calls)
		}

		wantOffsets := []int{0, 50, 100, 113}
		for i, offset := range wantOffsets {
			if calls[i] != offset {
				t.Errorf("fetch %d: expected offset %d, got %d", i, offset, calls[i])
			}
		}
	})

	t.Run("Stops On Empty Page", func(t *testing.T) {
		var calls []int
		p := Paginator[int]{
			Fetch: func(ctx context.Context, offset, limit int) (Page[int], error) {
				calls = append(calls, offset)
				// Lies about having more data
				return Page[int]{HasNext: true}, nil
			},
		}

		items, err := p.All(ctx)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(items) != 0 {
			t.Errorf("expected no items, got %d", len(items))
		}
		if len(calls) != 1 {
			t.Errorf("expected exactly 1 fetch, got %d", len(calls))
		}
	})

	t.Run("Exact Multiple Of Page Size", func(t *testing.T) {
		var calls []int
		p := Paginator[int]{Fetch: pagedSource(100, &calls), Limit: 50}

		items, err := p.All(ctx)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(items) != 100 {
			t.Errorf("expected 100 items, got %d", len(items))
		}
	})

	t.Run("Propagates Fetch Error", func(t *testing.T) {
		fetchErr := errors.New("upstream failure")
		p := Paginator[int]{
			Fetch: func(ctx context.Context, offset, limit int) (Page[int], error) {
				if offset > 0 {
					return Page[int]{}, fetchErr
				}
				return Page[int]{Items: []int{0, 1}, HasNext: true}, nil
			},
			Limit: 2,
		}

		_, err := p.All(ctx)
		if !errors.Is(err, fetchErr) {
			t.Errorf("expected fetch error to propagate, got %v", err)
		}
	})

	t.Run("Stops Iteration On Callback Error", func(t *testing.T) {
		var calls []int
		stop := fmt.Errorf("stop here")
		seen := 0

		p := Paginator[int]{Fetch: pagedSource(100, &calls), Limit: 10}
		err := p.Each(ctx, func(item int) error {
			seen++
			if seen == 5 {
				return stop
			}
			return nil
		})

		if !errors.Is(err, stop) {
			t.Errorf("expected callback error, got %v", err)
		}
		if seen != 5 {
			t.Errorf("expected 5 items seen, got %d", seen)
		}
		if len(calls) != 1 {
			t.Errorf("expected 1 fetch before stopping, got %d", len(calls))
		}
	})

	t.Run("Respects MaxPages", func(t *testing.T) {
		var calls []int
		p := Paginator[int]{Fetch: pagedSource(1000, &calls), Limit: 10, MaxPages: 3}

		items, err := p.All(ctx)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(items) != 30 {
			t.Errorf("expected 30 items, got %d", len(items))
		}
		if len(calls) != 3 {
			t.Errorf("expected 3 fetches, got %d", len(calls))
		}
	})

	t.Run("Nil Fetch Function", func(t *testing.T) {
		p := Paginator[int]{}
		if _, err := p.All(ctx); err == nil {
			t.Error("expected error for nil fetch function")
		}
	})

	t.Run("Default Page Size", func(t *testing.T) {
		var gotLimit int
		p := Paginator[int]{
			Fetch: func(ctx context.Context, offset, limit int) (Page[int], error) {
				gotLimit = limit
				return Page[int]{}, nil
			},
		}

		if _, err := p.All(ctx); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if gotLimit != defaultPageSize {
			t.Errorf("expected default limit %d, got %d", defaultPageSize, gotLimit)
		}
	})
}
