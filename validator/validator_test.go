package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pradeepkasula/online-shopping-cart/api"
)

func TestAddToCartPayload(t *testing.T) {
	assert.NoError(t, AddToCartPayload{ProductID: 11, Quantity: 2}.Validate())
	assert.Error(t, AddToCartPayload{ProductID: 0, Quantity: 2}.Validate())
	assert.Error(t, AddToCartPayload{ProductID: 11, Quantity: 0}.Validate())
	assert.Error(t, AddToCartPayload{ProductID: 11, Quantity: -1}.Validate())
}

func TestUpdateQuantityPayload(t *testing.T) {
	assert.NoError(t, UpdateQuantityPayload{ItemID: 3, Quantity: 1}.Validate())
	assert.Error(t, UpdateQuantityPayload{ItemID: 3, Quantity: 0}.Validate())
	assert.Error(t, UpdateQuantityPayload{ItemID: 0, Quantity: 1}.Validate())
}

func TestSignupPayload(t *testing.T) {
	valid := SignupPayload{
		Username: "bob",
		Password: "hunter22",
		Email:    "bob@example.com",
	}
	assert.NoError(t, valid.Validate())

	short := valid
	short.Password = "abc"
	assert.Error(t, short.Validate())

	badEmail := valid
	badEmail.Email = "not-an-email"
	assert.Error(t, badEmail.Validate())

	missing := valid
	missing.Username = ""
	assert.Error(t, missing.Validate())
}

func TestLoginPayload(t *testing.T) {
	assert.NoError(t, LoginPayload{Username: "alice", Password: "secret"}.Validate())
	assert.Error(t, LoginPayload{Username: "alice"}.Validate())
	assert.Error(t, LoginPayload{Password: "secret"}.Validate())
}

func TestChangePasswordPayloadConfirmationMustMatch(t *testing.T) {
	valid := ChangePasswordPayload{
		Username:        "alice",
		TempPassword:    "temp-9f2c",
		NewPassword:     "newsecret",
		ConfirmPassword: "newsecret",
	}
	assert.NoError(t, valid.Validate())

	mismatch := valid
	mismatch.ConfirmPassword = "different"
	assert.Error(t, mismatch.Validate())

	short := valid
	short.NewPassword = "abc"
	short.ConfirmPassword = "abc"
	assert.Error(t, short.Validate())
}

func TestValidationErrorResponseKeepsTaxonomy(t *testing.T) {
	err := ValidationErrorResponse(AddToCartPayload{}.Validate())
	require.Error(t, err)
	assert.True(t, api.IsValidation(err))
}
