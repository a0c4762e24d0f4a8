package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/kbukum/ecommerce-shared/errors"
)

type inner struct {
	Driver     string `mapstructure:"driver" validate:"oneof=sqlserver postgres sqlite"`
	MaxRetries int    `mapstructure:"max_retries" validate:"gte=0"`
}

type Base struct {
	Name string `mapstructure:"name" validate:"required"`
}

type outer struct {
	Base     `mapstructure:",squash"`
	Database inner  `mapstructure:"database"`
	Email    string `json:"contactEmail" validate:"omitempty,email"`
	Audience string `validate:"max=5"`
}

func TestStructValid(t *testing.T) {
	err := Struct(outer{
		Base:     Base{Name: "orders"},
		Database: inner{Driver: "sqlite"},
		Email:    "ops@example.com",
	})
	assert.NoError(t, err)
}

func TestStructReportsConfigPaths(t *testing.T) {
	err := Struct(outer{
		Database: inner{Driver: "oracle", MaxRetries: -1},
		Email:    "nope",
		Audience: "toolong",
	})
	require.Error(t, err)

	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeInvalidInput, appErr.Code)
	assert.Equal(t, 400, appErr.HTTPStatus)

	fields, ok := appErr.Details["fields"].([]FieldError)
	require.True(t, ok)
	assert.Equal(t, []FieldError{
		{Field: "name", Message: "is required"},
		{Field: "database.driver", Message: "must be one of: sqlserver postgres sqlite"},
		{Field: "database.max_retries", Message: "must be at least 0"},
		{Field: "contactEmail", Message: "must be a valid email address"},
		{Field: "audience", Message: "must be at most 5 characters"},
	}, fields)
	assert.Contains(t, appErr.Message, "name: is required; database.driver: must be one of")
}

func TestStructNonStruct(t *testing.T) {
	err := Struct("not a struct")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidInput))
}

func TestFieldPath(t *testing.T) {
	assert.Equal(t, "database.driver", fieldPath("SharedConfig.database.driver"))
	assert.Equal(t, "name", fieldPath("SharedConfig.~.name"))
	assert.Equal(t, "name", fieldPath("name"))
}
