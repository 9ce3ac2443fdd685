package service

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassifyStorageError(t *testing.T) {
	require.NoError(t, classifyStorageError(nil))

	for _, cause := range []error{driver.ErrBadConn, context.DeadlineExceeded, fmt.Errorf("query: %w", driver.ErrBadConn)} {
		err := classifyStorageError(cause)
		require.ErrorIs(t, err, ErrStorageUnavailable)
		require.ErrorIs(t, err, cause)
	}

	plain := errors.New("syntax error")
	require.Equal(t, plain, classifyStorageError(plain))

	already := fmt.Errorf("%w: boom", ErrStorageUnavailable)
	require.Equal(t, already, classifyStorageError(already))
}

func TestValidationErrorMessage(t *testing.T) {
	err := newValidationError("date", "must be a valid date in DD-MM-YYYY format")
	require.Equal(t, "date: must be a valid date in DD-MM-YYYY format", err.Error())
}
