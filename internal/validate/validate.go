// Package validate parses and validates JSON payloads before they reach the
// terminal handler.
package validate

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/assetflow/assetflow/internal/platform/httpx"
)

type payloadContextKey struct{}

// Body decodes the request body into a fresh payload from newPayload and
// runs struct validation on it. Downstream handlers read the typed result
// with Payload; the raw body is never re-inspected after this stage.
func Body(v *validator.Validate, newPayload func() any) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			target := newPayload()
			if err := httpx.DecodeJSON(r, target); err != nil {
				httpx.RespondError(w, httpx.ErrInvalidJSON)
				return
			}
			if err := v.Struct(target); err != nil {
				var fieldErrs validator.ValidationErrors
				var details []string
				if errors.As(err, &fieldErrs) {
					details = make([]string, 0, len(fieldErrs))
					for _, fe := range fieldErrs {
						details = append(details, fe.Error())
					}
				}
				httpx.JSON(w, http.StatusBadRequest, httpx.ErrorBody{
					Error:   "Validation failed",
					Details: details,
				})
				return
			}
			ctx := context.WithValue(r.Context(), payloadContextKey{}, target)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Payload retrieves the validated payload placed by Body. T is the pointer
// type produced by the route's payload factory.
func Payload[T any](ctx context.Context) (T, bool) {
	v, ok := ctx.Value(payloadContextKey{}).(T)
	return v, ok
}
