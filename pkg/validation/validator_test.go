package validation

import (
	"encoding/json"
	"testing"

	"github.com/gin-gonic/gin/binding"
	"github.com/stretchr/testify/assert"
)

type signupPayload struct {
	Email    string `json:"email" binding:"required,mailbox"`
	Username string `json:"username" binding:"required,username"`
	Count    int    `json:"count" binding:"max=3"`
}

func TestToDetails_UsesJSONNames(t *testing.T) {
	Init()

	err := binding.Validator.ValidateStruct(&signupPayload{Email: "not-an-email", Username: "has space", Count: 9})

	details := ToDetails(err)
	assert.Equal(t, "must be a valid email", details["email"])
	assert.Equal(t, "must be 1 to 64 characters without spaces", details["username"])
	assert.Equal(t, "must be at most 3", details["count"])
}

func TestToDetails_Required(t *testing.T) {
	Init()

	details := ToDetails(binding.Validator.ValidateStruct(&signupPayload{}))

	assert.Equal(t, "is required", details["email"])
	assert.Equal(t, "is required", details["username"])
}

func TestToDetails_JSONErrors(t *testing.T) {
	var p signupPayload
	err := json.Unmarshal([]byte(`{"email":`), &p)
	assert.Equal(t, map[string]string{"payload": "invalid json"}, ToDetails(err))

	err = json.Unmarshal([]byte(`{"count":"x"}`), &p)
	assert.Equal(t, map[string]string{"count": "must be a int"}, ToDetails(err))

	assert.Nil(t, ToDetails(nil))
}
