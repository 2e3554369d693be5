package database

import (
	"errors"

	ierr "tuition_go/errors"

	"gorm.io/gorm"
)

// translate marks gorm failures with the service error taxonomy.
func translate(err error, entity string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ierr.WithError(err).
			WithHintf("%s not found", entity).
			Mark(ierr.ErrNotFound)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ierr.WithError(err).
			WithHintf("%s already exists", entity).
			Mark(ierr.ErrAlreadyExists)
	default:
		return ierr.WithError(err).
			WithHint("Database operation failed").
			Mark(ierr.ErrDatabase)
	}
}
