package postgres

import (
	"testing"

	"github.com/stretchr/testify/require"

	"signstore/internal/entity"
	"signstore/internal/repository"
)

func requireConnectionError(t *testing.T, err error) {
	t.Helper()
	var connErr *repository.ConnectionError
	require.ErrorAs(t, err, &connErr)
}

func requireNotFound(t *testing.T, err error, kind string) {
	t.Helper()
	var nf *repository.NotFoundError
	require.ErrorAs(t, err, &nf)
	require.Equal(t, kind, nf.Kind)
}

func requireNotFoundID(t *testing.T, err error, kind string, id any) {
	t.Helper()
	var nf *repository.NotFoundError
	require.ErrorAs(t, err, &nf)
	require.Equal(t, kind, nf.Kind)
	require.Equal(t, id, nf.ID)
}

func requireTransactionError(t *testing.T, err error) {
	t.Helper()
	var txErr *repository.TransactionError
	require.ErrorAs(t, err, &txErr)
}

func requireDuplicate(t *testing.T, err error, kind string) {
	t.Helper()
	var dup *repository.DuplicateError
	require.ErrorAs(t, err, &dup)
	require.Equal(t, kind, dup.Kind)
}

func requireDuplicateValue(t *testing.T, err error, kind string, value any) {
	t.Helper()
	var dup *repository.DuplicateError
	require.ErrorAs(t, err, &dup)
	require.Equal(t, kind, dup.Kind)
	require.Equal(t, value, dup.Value)
}

func requireValidation(t *testing.T, err error, field string) {
	t.Helper()
	var verr *entity.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, field, verr.Field)
}
