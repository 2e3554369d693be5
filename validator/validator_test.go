package validator

import (
	"testing"

	ierr "tuition_go/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type contact struct {
	Name  string `validate:"required"`
	Email string `validate:"required,email"`
}

func TestValidateRequest(t *testing.T) {
	require.NoError(t, ValidateRequest(contact{Name: "Asha", Email: "asha@example.com"}))

	err := ValidateRequest(contact{Email: "not-an-email"})
	require.Error(t, err)
	assert.True(t, ierr.IsValidation(err))
	assert.Equal(t, map[string]string{"Name": "required", "Email": "email"}, FieldErrors(err))
}
