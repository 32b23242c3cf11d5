package service

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// TxRunner scopes a function to a single store transaction. Satisfied by
// persistence.Postgres.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error
}
