package repository

import (
	"context"
	"fmt"
	"time"

	"pos-order-service/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// SyncRepository persists the offline mutation queue. Queued mutations
// drain in submission order per actor.
type SyncRepository interface {
	Enqueue(ctx context.Context, mutation *models.SyncMutation) error
	FindQueued(ctx context.Context, tenantID uuid.UUID, actorID string) ([]models.SyncMutation, error)
	MarkApplied(ctx context.Context, id uuid.UUID) error
}

type GormSyncRepository struct {
	db *gorm.DB
}

func NewGormSyncRepository(db *gorm.DB) SyncRepository {
	return &GormSyncRepository{db: db}
}

func (r *GormSyncRepository) Enqueue(ctx context.Context, mutation *models.SyncMutation) error {
	return r.db.WithContext(ctx).Create(mutation).Error
}

// FindQueued returns the actor's unapplied mutations, oldest first.
func (r *GormSyncRepository) FindQueued(ctx context.Context, tenantID uuid.UUID, actorID string) ([]models.SyncMutation, error) {
	var mutations []models.SyncMutation
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND actor_id = ? AND applied = ?", tenantID, actorID, false).
		Order("submitted_at ASC").
		Find(&mutations).Error; err != nil {
		return nil, err
	}
	return mutations, nil
}

func (r *GormSyncRepository) MarkApplied(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.SyncMutation{}).
		Where("id = ?", id).
		UpdateColumn("applied", true).
		Error
}

// IdempotencyStore remembers which client operation IDs have already
// been applied, so a replayed mutation is a no-op.
type IdempotencyStore interface {
	// MarkOnce records the op ID; it returns false if the ID was
	// already recorded.
	MarkOnce(ctx context.Context, opID string) (bool, error)
	// Release forgets an op ID whose apply did not go through, so a
	// later replay is not mistaken for a duplicate.
	Release(ctx context.Context, opID string) error
}

// RedisIdempotencyStore implements IdempotencyStore on Redis SETNX
// with a retention TTL.
type RedisIdempotencyStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisIdempotencyStore(client *redis.Client, ttl time.Duration) *RedisIdempotencyStore {
	return &RedisIdempotencyStore{client: client, ttl: ttl}
}

func (s *RedisIdempotencyStore) key(opID string) string {
	return fmt.Sprintf("sync:op:%s", opID)
}

func (s *RedisIdempotencyStore) MarkOnce(ctx context.Context, opID string) (bool, error) {
	return s.client.SetNX(ctx, s.key(opID), "1", s.ttl).Result()
}

func (s *RedisIdempotencyStore) Release(ctx context.Context, opID string) error {
	return s.client.Del(ctx, s.key(opID)).Err()
}
