package tabs

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
)

// requiredUser rejects uuid.Nil. validation.Required cannot: a UUID is a
// driver.Valuer whose zero value renders as a non-empty string.
var requiredUser = validation.By(func(value interface{}) error {
	if id, _ := value.(uuid.UUID); id == uuid.Nil {
		return errors.New("user is required")
	}
	return nil
})
