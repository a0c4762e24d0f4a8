package database

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	apperrors "github.com/kbukum/ecommerce-shared/errors"
)

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errors.New("dial tcp 10.0.0.5:1433: connect: connection refused"), true},
		{fmt.Errorf("query: %w", driver.ErrBadConn), true},
		{errors.New("Transaction (Process ID 52) was deadlocked on lock resources"), true},
		{errors.New("database is locked"), true},
		{errors.New("pq: too many connections for role"), true},
		{errors.New("UNIQUE constraint failed: products.name"), false},
		{gorm.ErrRecordNotFound, false},
		{context.Canceled, false},
		{fmt.Errorf("read: %w", context.DeadlineExceeded), false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsRetryableError(tt.err), "%v", tt.err)
	}
}

func TestFromDatabase(t *testing.T) {
	assert.Nil(t, FromDatabase(nil, "product"))

	notFound := FromDatabase(fmt.Errorf("first: %w", gorm.ErrRecordNotFound), "product")
	assert.Equal(t, apperrors.ErrCodeNotFound, notFound.Code)
	assert.Equal(t, http.StatusNotFound, notFound.HTTPStatus)

	dup := FromDatabase(gorm.ErrDuplicatedKey, "product")
	assert.Equal(t, apperrors.ErrCodeAlreadyExists, dup.Code)
	assert.Equal(t, http.StatusConflict, dup.HTTPStatus)

	conn := FromDatabase(errors.New("connection reset by peer"), "product")
	assert.Equal(t, apperrors.ErrCodeDatabaseError, conn.Code)
	assert.Equal(t, http.StatusServiceUnavailable, conn.HTTPStatus)
	assert.True(t, conn.Retryable)

	timeout := FromDatabase(context.DeadlineExceeded, "product")
	assert.Equal(t, apperrors.ErrCodeTimeout, timeout.Code)

	generic := FromDatabase(errors.New("syntax error"), "product")
	assert.Equal(t, apperrors.ErrCodeDatabaseError, generic.Code)
	assert.ErrorContains(t, generic, "syntax error")

	existing := apperrors.InvalidInput("price", "must be positive")
	assert.Same(t, existing, FromDatabase(existing, "product"))
}
