package repository

import (
	"context"

	"github.com/oksasatya/go-credential-service/internal/domain/entity"
)

// AuditRepository persists account audit events.
type AuditRepository interface {
	Insert(ctx context.Context, ev *entity.AuditEvent) error
}
