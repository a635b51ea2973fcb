package service

import (
	"context"
	"time"

	"ravito/internal/model"
	"ravito/internal/worker"

	"github.com/google/uuid"
)

// Actor is the authenticated caller, taken from the JWT claims.
type Actor struct {
	UserID uuid.UUID
	OrgID  uuid.UUID
	Role   string
}

func (a Actor) IsAdmin() bool    { return a.Role == model.RoleAdmin }
func (a Actor) IsClient() bool   { return a.Role == model.RoleClient }
func (a Actor) IsSupplier() bool { return a.Role == model.RoleSupplier }

// Cache is a byte cache with expiry (implemented by infra.RedisCache).
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// Locker hands out exclusive locks (implemented by infra.RedisLocker).
type Locker interface {
	Obtain(ctx context.Context, key string, ttl time.Duration) (func(), error)
}

// Jobs enqueues background work (implemented by worker.Dispatcher).
type Jobs interface {
	EnqueueEmail(ctx context.Context, payload worker.EmailJobPayload) error
	EnqueueClosureReport(ctx context.Context, payload worker.ClosureReportPayload) error
}

// Objects reads stored documents (implemented by infra.Storage).
type Objects interface {
	Get(ctx context.Context, name string) ([]byte, error)
}

func ts(t time.Time) string { return t.Format(time.RFC3339) }

func tsPtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := ts(*t)
	return &s
}
