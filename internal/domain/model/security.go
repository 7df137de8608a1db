package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SecurityContext is derived once per request and ties together every
// audit line written while handling it.
type SecurityContext struct {
	CorrelationID string
	ClientIP      string
	UserAgent     string
	ReceivedAt    time.Time
}

func NewSecurityContext(clientIP, userAgent string, receivedAt time.Time) SecurityContext {
	return SecurityContext{
		CorrelationID: uuid.NewString(),
		ClientIP:      clientIP,
		UserAgent:     userAgent,
		ReceivedAt:    receivedAt.UTC(),
	}
}

type securityContextKey struct{}

func WithSecurityContext(ctx context.Context, sc SecurityContext) context.Context {
	return context.WithValue(ctx, securityContextKey{}, sc)
}

// SecurityContextFrom returns the request's security context, if one was attached.
func SecurityContextFrom(ctx context.Context) (SecurityContext, bool) {
	sc, ok := ctx.Value(securityContextKey{}).(SecurityContext)
	return sc, ok
}

// CorrelationID is a convenience for log fields; it returns "" when absent.
func CorrelationID(ctx context.Context) string {
	sc, _ := SecurityContextFrom(ctx)
	return sc.CorrelationID
}
