package validation

import (
	"encoding/json"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
)

type registerForm struct {
	Email    string `form:"email" validate:"required,email"`
	Password string `json:"passwd" validate:"required,pwd"`
	Age      int    `json:"age" validate:"personage"`
}

func TestToDetails(t *testing.T) {
	v := validator.New()
	Configure(v)

	err := v.Struct(registerForm{Email: "nope", Password: "short", Age: 200})
	details := ToDetails(err)

	assert.Equal(t, map[string]string{
		"email":  "must be a valid email",
		"passwd": "must be at least 8 characters",
		"age":    "must be less than or equal to 150",
	}, details)
}

func TestToDetailsPayloadErrors(t *testing.T) {
	var dst map[string]any
	err := json.Unmarshal([]byte("{"), &dst)
	assert.Equal(t, map[string]string{"payload": "invalid json"}, ToDetails(err))
	assert.Nil(t, ToDetails(nil))
}
