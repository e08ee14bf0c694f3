package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrDraftNotFound        = errors.New("listing draft not found")
	ErrViewNotFound         = errors.New("property view not found")
	ErrListingNotFound      = errors.New("listing not found")
	ErrBuyerSessionNotFound = errors.New("buyer session not found")
	ErrStatusChanged        = errors.New("draft status changed concurrently")
)

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}
