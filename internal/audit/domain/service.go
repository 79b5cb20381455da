package domain

import "context"

// Service writes audit entries. Actor, request IP and user agent are
// pulled from the request context when present.
type Service interface {
	AuditLog(ctx context.Context, action, targetType string, targetID *string, metadata map[string]any) error
	List(ctx context.Context, filter ListFilter) ([]*AuditLog, error)
}
