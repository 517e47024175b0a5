package service

import (
	"errors"

	appErrors "github.com/noah-isme/sis-portal/pkg/errors"
)

// saveError maps a failed collection update to SAVE_FAILED. Domain errors
// raised inside the update keep their own code.
func saveError(err error, message string) error {
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return appErrors.Wrap(err, appErrors.ErrSaveFailed.Code, appErrors.ErrSaveFailed.Status, message)
}
