package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotFoundError(t *testing.T) {
	err := &NotFoundError{Kind: "Project", ID: int64(42)}
	assert.EqualError(t, err, "Project 42 not found")

	wrapped := fmt.Errorf("loading: %w", err)
	var nf *NotFoundError
	require.ErrorAs(t, wrapped, &nf)
	assert.Equal(t, "Project", nf.Kind)
}

func TestDuplicateError(t *testing.T) {
	err := &DuplicateError{Kind: "Project", Field: "name", Value: "demo"}
	assert.EqualError(t, err, "Project with name demo already exists")
}

func TestWrappingErrorsUnwrap(t *testing.T) {
	cause := errors.New("broken pipe")

	conn := &ConnectionError{Op: "acquire", Err: cause}
	assert.ErrorIs(t, conn, cause)
	assert.EqualError(t, conn, "acquire: connection failed: broken pipe")

	tx := &TransactionError{Err: cause}
	assert.ErrorIs(t, tx, cause)

	db := &DatabaseError{Op: "insert project", Err: cause}
	assert.ErrorIs(t, db, cause)
	assert.EqualError(t, db, "insert project: broken pipe")
}

func TestConnectionErrorWithoutCause(t *testing.T) {
	err := &ConnectionError{Op: "query"}
	assert.EqualError(t, err, "query: connection failed")
	assert.Nil(t, errors.Unwrap(err))
}
