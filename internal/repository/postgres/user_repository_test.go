package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestIsUsernameConflict(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "username unique violation",
			err:  fmt.Errorf("exec: %w", &pgconn.PgError{Code: uniqueViolation, ConstraintName: usernameConstraint}),
			want: true,
		},
		{
			name: "primary key violation",
			err:  &pgconn.PgError{Code: uniqueViolation, ConstraintName: "users_pkey"},
			want: false,
		},
		{
			name: "other pg error",
			err:  &pgconn.PgError{Code: "42P01"},
			want: false,
		},
		{
			name: "not a pg error",
			err:  errors.New("connection refused"),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isUsernameConflict(tt.err))
		})
	}
}
