package tabs

import (
	"fmt"

	"tabnest/internal/domain"
)

type validatable interface {
	Validate() error
}

// validateRequest runs a request's ozzo rules and tags failures as domain.ErrValidation
func validateRequest(req validatable) error {
	if err := req.Validate(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	return nil
}
