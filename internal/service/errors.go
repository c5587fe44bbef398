package service

import (
	"errors"

	"github.com/noah-isme/campus-placement-api/internal/repository"
	appErrors "github.com/noah-isme/campus-placement-api/pkg/errors"
)

var errDatabaseUnavailable = appErrors.Clone(appErrors.ErrServiceUnavailable, "Database unavailable")

// notFoundOr maps a repository error to 404, 503 or 500.
func notFoundOr(err error, notFound, internal string) error {
	switch {
	case repository.IsNotFound(err):
		return appErrors.Clone(appErrors.ErrNotFound, notFound)
	case errors.Is(err, repository.ErrStoreUnavailable):
		return errDatabaseUnavailable
	default:
		return internalError(err, internal)
	}
}

func internalError(err error, message string) error {
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return err
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}

func validationError(err error, message string) error {
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
}
