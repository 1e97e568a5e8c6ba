package purchasing

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

func TestTranslateProposalError(t *testing.T) {
	fk := &pgconn.PgError{Code: "23503", ConstraintName: "proposals_supplier_id_fkey"}
	require.ErrorIs(t, translateProposalError(fk), ErrValidation)

	unique := &pgconn.PgError{Code: "23505"}
	require.NotErrorIs(t, translateProposalError(unique), ErrValidation)

	plain := errors.New("connection reset")
	require.Equal(t, plain, translateProposalError(plain))
}
