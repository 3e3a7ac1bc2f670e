package ctxutil

import (
	"context"
	"time"
)

// приватные ключи, чтобы исключить коллизии
type key int

const (
	keyRequestID key = iota
	keyOrganizationID
	keyOpName
)

// WithRequestID /RequestID — id входящего запроса (для логов и Sentry)
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, keyRequestID, id)
}

func RequestID(ctx context.Context) (string, bool) {
	return stringValue(ctx, keyRequestID)
}

// WithOrganizationID /OrganizationID — тенант, к которому отнесли запрос
func WithOrganizationID(ctx context.Context, orgID string) context.Context {
	return context.WithValue(ctx, keyOrganizationID, orgID)
}

func OrganizationID(ctx context.Context) (string, bool) {
	return stringValue(ctx, keyOrganizationID)
}

// WithOp /Op — имя операции (для логов/трейса)
func WithOp(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, keyOpName, name)
}

func Op(ctx context.Context) (string, bool) {
	return stringValue(ctx, keyOpName)
}

func stringValue(ctx context.Context, k key) (string, bool) {
	v := ctx.Value(k)
	if v == nil {
		return "", false
	}
	s, ok := v.(string)
	return s, ok && s != ""
}

var (
	DefaultDBTimeout      = 5 * time.Second
	DefaultOutboundTimeout = 15 * time.Second
)

// WithTimeout — удобная обёртка над context.WithTimeout.
func WithTimeout(parent context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, d)
}

// WithDBTimeout — стандартный таймаут для БД.
func WithDBTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	if dl, ok := parent.Deadline(); ok {
		// если у родителя осталось меньше DefaultDBTimeout — берем остаток
		remain := time.Until(dl)
		if remain < DefaultDBTimeout {
			return context.WithTimeout(parent, remain)
		}
	}
	return context.WithTimeout(parent, DefaultDBTimeout)
}
