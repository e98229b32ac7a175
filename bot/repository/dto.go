package repository

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/m3rciful/delofix/bot/model"
)

type NewTask struct {
	OwnerID     int64   `validate:"required"`
	Description string  `validate:"required"`
	PhotoID     *string `validate:"omitempty,min=1"`
	Location    string  `validate:"required"`
}

type MasterProfile struct {
	UserID      int64  `validate:"required"`
	Name        string `validate:"required"`
	Skills      string `validate:"required"`
	ServiceArea string `validate:"required"`
}

type NewOffer struct {
	TaskID       model.ID `validate:"required,gt=0"`
	MasterUserID int64    `validate:"required"`
	Price        string   `validate:"required"`
	Message      string
}

// NewAd is an ad campaign to activate. Button text and URL come together or not at all.
type NewAd struct {
	Text        string  `validate:"required"`
	PhotoID     *string `validate:"omitempty,min=1"`
	ButtonText  *string `validate:"required_with=ButtonURL,omitempty,min=1"`
	ButtonURL   *string `validate:"required_with=ButtonText,omitempty,startswith=http"`
	TargetViews int     `validate:"gte=0,lte=2147483647"`
}

var validate = validator.New()

// Validate checks a DTO and reports failures as model.ErrInvalid.
func Validate(dto any) error {
	err := validate.Struct(dto)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err
	}
	msgs := make([]string, 0, len(ve))
	for _, fe := range ve {
		msgs = append(msgs, fieldError(fe))
	}
	return fmt.Errorf("%w: %s", model.ErrInvalid, strings.Join(msgs, "; "))
}

func fieldError(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "required_with":
		return fmt.Sprintf("%s is required with %s", field, strings.ToLower(fe.Param()))
	case "startswith":
		return fmt.Sprintf("%s must start with %q", field, fe.Param())
	case "gt", "gte", "lte":
		return fmt.Sprintf("%s must be %s %s", field, fe.Tag(), fe.Param())
	default:
		return fmt.Sprintf("%s failed validation (%s)", field, fe.Tag())
	}
}
