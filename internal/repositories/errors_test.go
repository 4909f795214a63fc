package repositories

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestMapErr(t *testing.T) {
	other := errors.New("connection reset")
	cases := []struct {
		name string
		in   error
		want error
	}{
		{"no rows", pgx.ErrNoRows, ErrNotFound},
		{"unique violation", &pgconn.PgError{Code: "23505"}, ErrDuplicate},
		{"deadlock", &pgconn.PgError{Code: "40P01", Message: "deadlock detected"}, ErrStale},
		{"serialization failure", fmt.Errorf("update: %w", &pgconn.PgError{Code: "40001"}), ErrStale},
		{"check violation", &pgconn.PgError{Code: "23514"}, nil},
		{"other", other, other},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := mapErr(tc.in)
			if tc.want == nil {
				assert.Equal(t, tc.in, got)
				return
			}
			assert.ErrorIs(t, got, tc.want)
		})
	}
	assert.NoError(t, mapErr(nil))
}
