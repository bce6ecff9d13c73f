package models

import (
	"errors"

	"gorm.io/gorm"
)

// IsDuplicateError reports whether err is a unique constraint violation.
// TranslateError must be enabled on the connection.
func IsDuplicateError(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

// IsNotFound reports whether err is gorm's record not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
