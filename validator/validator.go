// Package validator holds the local input checks applied before any network
// call is made.
package validator

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/pradeepkasula/online-shopping-cart/api"
)

const minPasswordLength = 6

// AddToCartPayload is the add-to-cart form input.
type AddToCartPayload struct {
	ProductID int64
	Quantity  int
}

func (p AddToCartPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.ProductID, validation.Required),
		validation.Field(&p.Quantity, validation.Required, validation.Min(1)),
	)
}

// UpdateQuantityPayload is the cart line quantity-change input.
type UpdateQuantityPayload struct {
	ItemID   int64
	Quantity int
}

func (p UpdateQuantityPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.ItemID, validation.Required),
		validation.Field(&p.Quantity, validation.Required, validation.Min(1)),
	)
}

// SignupPayload is the registration form input.
type SignupPayload struct {
	Username string
	Password string
	Email    string
	FullName string
	Phone    string
}

func (p SignupPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Username, validation.Required),
		validation.Field(&p.Password, validation.Required, validation.Length(minPasswordLength, 0)),
		validation.Field(&p.Email, validation.Required, is.Email),
	)
}

// LoginPayload is the login form input.
type LoginPayload struct {
	Username string
	Password string
}

func (p LoginPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Username, validation.Required),
		validation.Field(&p.Password, validation.Required),
	)
}

// ChangePasswordPayload is the password-change form input. The confirmation
// check mirrors the one the login screens apply before submitting.
type ChangePasswordPayload struct {
	Username        string
	TempPassword    string
	NewPassword     string
	ConfirmPassword string
}

func (p ChangePasswordPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Username, validation.Required),
		validation.Field(&p.TempPassword, validation.Required),
		validation.Field(&p.NewPassword, validation.Required, validation.Length(minPasswordLength, 0)),
		validation.Field(&p.ConfirmPassword, validation.Required, validation.By(p.matchesNewPassword)),
	)
}

func (p ChangePasswordPayload) matchesNewPassword(value interface{}) error {
	s, _ := value.(string)
	if s != p.NewPassword {
		return errors.New("new passwords do not match")
	}
	return nil
}

// ValidationErrorResponse converts a validation failure into the transport
// client's closed error taxonomy so call sites handle it uniformly.
func ValidationErrorResponse(err error) error {
	return api.ValidationError("%v", err)
}
