package applications

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Cache interface {
	GetJSON(ctx context.Context, key string, out any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	AcquireLock(ctx context.Context, key, token string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, key, token string) error
}

func AppliedCacheKey(jobID, seekerID uuid.UUID) string {
	return "applications:applied:" + jobID.String() + ":" + seekerID.String()
}

func SubmitLockKey(jobID, seekerID uuid.UUID) string {
	return "applications:submit:lock:" + jobID.String() + ":" + seekerID.String()
}

type nopCache struct{}

func (nopCache) GetJSON(context.Context, string, any) (bool, error)        { return false, nil }
func (nopCache) SetJSON(context.Context, string, any, time.Duration) error { return nil }
func (nopCache) Delete(context.Context, string) error                      { return nil }
func (nopCache) ReleaseLock(context.Context, string, string) error         { return nil }
func (nopCache) AcquireLock(context.Context, string, string, time.Duration) (bool, error) {
	return true, nil
}
