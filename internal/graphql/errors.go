package graphql

import (
	"context"
	"errors"

	"expensetracker/internal/core"
	"expensetracker/internal/log"
)

// Error codes carried in the extensions of a GraphQL error.
const (
	CodeValidation      = "VALIDATION_ERROR"
	CodeForbidden       = "FORBIDDEN"
	CodeUnauthenticated = "UNAUTHENTICATED"
	CodeNotFound        = "NOT_FOUND"
	CodeInternal        = "INTERNAL_SERVER_ERROR"
)

// apiError is returned from resolvers; graphql-go copies Extensions into the
// response.
type apiError struct {
	code    string
	message string
	fields  core.ValidationErrors
}

func (e *apiError) Error() string { return e.message }

func (e *apiError) Extensions() map[string]interface{} {
	ext := map[string]interface{}{"code": e.code}
	if len(e.fields) > 0 {
		details := make([]map[string]string, 0, len(e.fields))
		for _, f := range e.fields {
			details = append(details, map[string]string{"field": f.Field, "message": f.Message})
		}
		ext["fields"] = details
	}
	return ext
}

// toAPIError maps domain errors onto client-facing ones. Anything unknown is
// logged and hidden behind a generic message.
func toAPIError(ctx context.Context, op string, err error) error {
	if err == nil {
		return nil
	}
	var ve core.ValidationErrors
	switch {
	case errors.As(err, &ve):
		return &apiError{code: CodeValidation, message: ve.Error(), fields: ve}
	case errors.Is(err, core.ErrNoFieldsToUpdate):
		return &apiError{code: CodeValidation, message: err.Error()}
	case errors.Is(err, core.ErrForbidden):
		return &apiError{code: CodeForbidden, message: err.Error()}
	case errors.Is(err, core.ErrUnauthenticated):
		return &apiError{code: CodeUnauthenticated, message: err.Error()}
	case errors.Is(err, core.ErrExpenseNotFound):
		return &apiError{code: CodeNotFound, message: err.Error()}
	}
	fields := log.NewFields().WithError(err)
	fields[log.FieldGraphQLOp] = op
	log.FromContext(ctx).WithComponent(log.ComponentGraphQL).
		ErrorContext(ctx, "Resolver failed", fields.ToSlice()...)
	return &apiError{code: CodeInternal, message: "internal error"}
}
