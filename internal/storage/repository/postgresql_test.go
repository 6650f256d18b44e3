package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/magabrotheeeer/entitlements/internal/models"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantErr error
	}{
		{name: "nil", err: nil, wantErr: nil},
		{name: "no rows", err: sql.ErrNoRows, wantErr: models.ErrNotFound},
		{name: "already classified", err: models.ErrNotPending, wantErr: models.ErrNotPending},
		{name: "deadline", err: context.DeadlineExceeded, wantErr: models.ErrUnavailable},
		{
			name:    "duplicate email",
			err:     &pgconn.PgError{Code: uniqueViolation, ConstraintName: "profiles_email_key"},
			wantErr: models.ErrEmailTaken,
		},
		{
			name:    "duplicate active access",
			err:     &pgconn.PgError{Code: uniqueViolation, ConstraintName: "user_access_one_active"},
			wantErr: models.ErrInvalidState,
		},
		{
			name:    "deleted owner",
			err:     fmt.Errorf("insert: %w", &pgconn.PgError{Code: foreignKeyViolation, ConstraintName: "user_access_user_id_fkey"}),
			wantErr: models.ErrNotFound,
		},
		{
			name:    "deadlock",
			err:     &pgconn.PgError{Code: deadlockDetected},
			wantErr: models.ErrUnavailable,
		},
		{
			name:    "serialization failure",
			err:     &pgconn.PgError{Code: serializationFailure},
			wantErr: models.ErrUnavailable,
		},
		{
			name:    "syntax error",
			err:     &pgconn.PgError{Code: "42601"},
			wantErr: models.ErrInternal,
		},
		{name: "unknown", err: errors.New("boom"), wantErr: models.ErrInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classify(tt.err)
			if tt.wantErr == nil {
				assert.NoError(t, got)
				return
			}
			assert.ErrorIs(t, got, tt.wantErr)
		})
	}
}

func TestClassify_DeletedOwnerIsNotInternal(t *testing.T) {
	got := classify(&pgconn.PgError{Code: foreignKeyViolation})
	assert.False(t, errors.Is(got, models.ErrInternal))
}
