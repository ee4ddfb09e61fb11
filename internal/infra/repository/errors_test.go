package repository

import (
	"errors"
	"fmt"
	"testing"

	repo "shop/internal/repository"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestTranslateError(t *testing.T) {
	other := errors.New("boom")

	cases := []struct {
		name string
		in   error
		want error
	}{
		{"nil", nil, nil},
		{"not found", gorm.ErrRecordNotFound, repo.ErrNotFound},
		{"wrapped not found", fmt.Errorf("find: %w", gorm.ErrRecordNotFound), repo.ErrNotFound},
		{"duplicated key", gorm.ErrDuplicatedKey, repo.ErrConflict},
		{"fk violated", gorm.ErrForeignKeyViolated, repo.ErrConflict},
		{"pg unique", &pgconn.PgError{Code: "23505"}, repo.ErrConflict},
		{"pg fk", &pgconn.PgError{Code: "23503"}, repo.ErrConflict},
		{"pg check", &pgconn.PgError{Code: "23514"}, nil},
		{"other", other, other},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := translateError(tc.in)
			switch {
			case tc.in == nil:
				assert.NoError(t, got)
			case tc.want == nil:
				// 変換せずそのまま返す
				assert.Equal(t, tc.in, got)
			default:
				assert.ErrorIs(t, got, tc.want)
			}
		})
	}
}
