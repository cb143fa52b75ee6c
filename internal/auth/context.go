// ABOUTME: Authenticated subject propagation through request contexts
// ABOUTME: Provides WithSubject/SubjectFromContext used by the HTTP middleware

package auth

import (
	"context"
)

// subjectKey is the key type for storing the subject in context.Context.
type subjectKey struct{}

// WithSubject returns a new context carrying the authenticated subject.
func WithSubject(ctx context.Context, subject string) context.Context {
	return context.WithValue(ctx, subjectKey{}, subject)
}

// SubjectFromContext returns the authenticated subject, or "" if the request
// was not authenticated.
func SubjectFromContext(ctx context.Context) string {
	sub, _ := ctx.Value(subjectKey{}).(string)
	return sub
}
