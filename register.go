package session

import (
	"context"
	"errors"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/nyaruka/phonenumbers"
)

// Profile document field names
const (
	FieldUID         = "uid"
	FieldEmail       = "email"
	FieldDisplayName = "displayName"
	FieldPhone       = "phone"
	FieldDateCreated = "dateCreated"
)

// RegisterInput carries the register payload. DisplayName and Phone are
// optional.
type RegisterInput struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
	Phone       string `json:"phone"`
}

func (r RegisterInput) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(6, 72)),
		validation.Field(&r.DisplayName, validation.Length(0, 200)),
		validation.Field(&r.Phone, validation.By(validatePhone)),
	)
}

func validatePhone(value any) error {
	raw, _ := value.(string)
	if raw == "" {
		return nil
	}

	num, err := phonenumbers.Parse(raw, "US")
	if err != nil {
		return err
	}

	if !phonenumbers.IsValidNumber(num) {
		return errors.New("must be a valid phone number")
	}

	return nil
}

// Register creates the account in two phases: the identity first, then its
// profile document at <collection>/<id> with a server-assigned creation
// timestamp. A phase-two failure leaves the identity without a profile; the
// watch side reports that as a profile error, not a crash.
func (m *Manager) Register(ctx context.Context, input RegisterInput) bool {
	if err := input.Validate(); err != nil {
		m.logger.Error("register input rejected", "email", input.Email, "error", err)
		m.recordError(err.Error())
		return false
	}

	ident, err := m.auth.SignUp(ctx, input.Email, input.Password)
	if err != nil {
		m.logger.Error("register sign-up failed", "email", input.Email, "error", err)
		m.recordError(err.Error() + " (check that the identity provider is enabled for this project)")
		return false
	}

	fields := Document{
		FieldUID:         ident.ID(),
		FieldEmail:       input.Email,
		FieldDisplayName: input.DisplayName,
		FieldDateCreated: ServerTimestamp,
	}
	if input.Phone != "" {
		fields[FieldPhone] = input.Phone
	}

	if err := m.store.Put(ctx, m.collection, ident.ID(), fields); err != nil {
		// The identity already exists at this point. No rollback; the
		// account is usable and the missing profile surfaces on the read
		// side until a retry writes it.
		m.logger.Error("register profile write failed", "uid", ident.ID(), "error", err)
		m.recordError(err.Error() + " (check that the document store is provisioned for this project)")
		return false
	}

	return true
}
