package subjectctx

import (
	"context"
	"strings"
)

// SubjectContextKey is the request context key for the authenticated subject ID.
type SubjectContextKey struct{}

// WithSubjectID stores the subject ID in the context.
func WithSubjectID(ctx context.Context, subjectID string) context.Context {
	return context.WithValue(ctx, SubjectContextKey{}, subjectID)
}

// SubjectIDFromContext returns the subject ID from context, if set.
func SubjectIDFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}

	value, ok := ctx.Value(SubjectContextKey{}).(string)
	if !ok {
		return "", false
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return "", false
	}
	return value, true
}
