package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/vvasilje/murmur/internal/repository"
)

const uniqueViolation = "23505"

// mapErr translates driver unique-violation errors into
// repository.ErrConflict. Everything else passes through.
func mapErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return repository.ErrConflict
	}
	return err
}
