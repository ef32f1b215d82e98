package usecase

import (
	stderrors "errors"

	"github.com/route-draft-service/internal/domain/repository"
	"github.com/route-draft-service/internal/pkg/errors"
)

// storeError переводит ошибки хранилища в таксономию AppError
func storeError(err error) error {
	if err == nil {
		return nil
	}

	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}

	switch {
	case stderrors.Is(err, repository.ErrDocumentNotFound):
		return errors.ErrRouteNotFound
	case stderrors.Is(err, repository.ErrEncoding):
		return errors.ErrEncodingError.Wrap(err)
	case stderrors.Is(err, repository.ErrSchemaMismatch):
		return errors.ErrSchemaMismatch.Wrap(err)
	default:
		return errors.ErrDatabaseError.Wrap(err)
	}
}

func isNotFound(err error) bool {
	return stderrors.Is(err, repository.ErrDocumentNotFound)
}
