package handler

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"evote/internal/voting/models"
	dErrors "evote/pkg/domain-errors"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// CandidateRequest is the body of roster create and update calls. Vote
// fields are not part of it, so strict decoding rejects them.
type CandidateRequest struct {
	Name  string `json:"name" validate:"required,max=128"`
	Party string `json:"party" validate:"required,max=128"`
}

// Validate trims the fields and checks them.
func (r *CandidateRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	r.Party = strings.TrimSpace(r.Party)

	if err := validate.Struct(r); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			return dErrors.New(dErrors.CodeValidation, describeField(fieldErrs[0]))
		}
		return dErrors.Wrap(err, dErrors.CodeValidation, "invalid candidate")
	}
	return nil
}

func describeField(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "max":
		return fmt.Sprintf("%s must be at most %d characters", field, maxLengthFor(field))
	default:
		return field + " is invalid"
	}
}

func maxLengthFor(field string) int {
	if field == "party" {
		return models.MaxPartyLength
	}
	return models.MaxNameLength
}
