package validator

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testStruct struct {
	Username string `json:"username" validate:"required"`
	Message  string `json:"message" validate:"required,notblank,max=10"`
}

func TestValidate_Success(t *testing.T) {
	assert.NoError(t, Validate(testStruct{Username: "demo", Message: "hi"}))
}

func TestValidate_UsesJSONFieldNames(t *testing.T) {
	err := Validate(testStruct{Message: "hi"})
	require.Error(t, err)

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, map[string]string{"username": "is required"}, valErr.Fields())
}

func TestValidate_NotBlank(t *testing.T) {
	err := Validate(testStruct{Username: "demo", Message: "   \t"})
	require.Error(t, err)

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "must not be blank", valErr.Fields()["message"])
}

func TestValidate_Max(t *testing.T) {
	err := Validate(testStruct{Username: "demo", Message: strings.Repeat("x", 11)})
	require.Error(t, err)

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Contains(t, valErr.Fields()["message"], "10")
}

func TestValidationError_ErrorString(t *testing.T) {
	err := Validate(testStruct{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "field 'username'")
	assert.Contains(t, err.Error(), "is required")
}

func TestDecodeAndValidate(t *testing.T) {
	t.Run("valid body", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"username":"demo","message":"hi"}`))
		var dst testStruct
		require.NoError(t, DecodeAndValidate(r, &dst))
		assert.Equal(t, "demo", dst.Username)
	})

	t.Run("malformed JSON", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{`))
		var dst testStruct
		err := DecodeAndValidate(r, &dst)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "decode request body")
	})
}
