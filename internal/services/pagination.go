package services

import (
	"context"
	"math"

	"github.com/walletledger/backend/internal/models"
	"golang.org/x/sync/errgroup"
)

const (
	defaultPage  = 1
	defaultLimit = 10
	maxLimit     = 100
)

// PageRequest is a 1-indexed page of limit items.
type PageRequest struct {
	Page  int
	Limit int
}

func (r PageRequest) normalize() PageRequest {
	if r.Page < 1 {
		r.Page = defaultPage
	}
	if r.Limit < 1 {
		r.Limit = defaultLimit
	}
	if r.Limit > maxLimit {
		r.Limit = maxLimit
	}
	return r
}

// offset reports false when the page starts beyond what an int can address.
func (r PageRequest) offset() (int, bool) {
	if r.Page-1 > math.MaxInt/r.Limit {
		return 0, false
	}
	return (r.Page - 1) * r.Limit, true
}

// Paginate runs count and fetch concurrently and assembles one page. A page
// past the end yields empty data with accurate totals.
func Paginate[T any](
	ctx context.Context,
	req PageRequest,
	count func(ctx context.Context) (int, error),
	fetch func(ctx context.Context, limit, offset int) ([]T, error),
) (*models.Page[T], error) {
	req = req.normalize()

	var (
		total int
		data  []T
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		total, err = count(gctx)
		return err
	})
	if offset, ok := req.offset(); ok {
		g.Go(func() error {
			var err error
			data, err = fetch(gctx, req.Limit, offset)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if data == nil {
		data = []T{}
	}
	return &models.Page[T]{
		Data: data,
		Pagination: models.Pagination{
			Total:      total,
			Page:       req.Page,
			Limit:      req.Limit,
			TotalPages: (total + req.Limit - 1) / req.Limit,
		},
	}, nil
}
