package service

import (
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/repository"
	apperrors "github.com/spec-kit/support-desk/pkg/util/errorutil"
)

var tracer = otel.Tracer("github.com/spec-kit/support-desk/internal/service")

// storeError maps repository sentinels onto API error kinds.
func storeError(resource string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NewNotFound(resource, nil)
	case errors.Is(err, repository.ErrDuplicate):
		return apperrors.NewConflict(resource+" already exists", nil)
	case errors.Is(err, repository.ErrInvalidReference):
		return apperrors.NewValidationError("referenced record does not exist", nil)
	case errors.Is(err, repository.ErrUnavailable):
		return apperrors.NewStoreUnavailable(err)
	}
	return apperrors.NewInternalError(err)
}

func enumError(err error) error {
	var enumErr *domain.EnumError
	if errors.As(err, &enumErr) {
		return apperrors.NewInvalidEnumValue(enumErr.Field, enumErr.Value, enumErr.Allowed)
	}
	return apperrors.NewValidationError(err.Error(), nil)
}

// endSpan records err on span before ending it.
func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
