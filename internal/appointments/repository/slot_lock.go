package repository

import (
	"context"
	"fmt"
	"time"

	appointmentserrors "clinic/internal/appointments/errors"
	"clinic/pkg/config"
	mongotx "clinic/pkg/db/mongo"
	"clinic/pkg/model"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	LockCollectionName = "Slot_locks"
)

// SlotLocker serialises writers of one slot. It complements the unique
// active-slot index, which stays the final word on double booking.
type SlotLocker interface {
	WithSlotLock(ctx context.Context, slot model.Slot, fn func(ctx context.Context) error) error
}

type mongoSlotLocker struct {
	collection *mongo.Collection
	ttl        time.Duration
	timeout    time.Duration
	now        func() time.Time
}

// NewMongoSlotLocker stores locks as documents keyed by slot. A duplicate _id
// means the slot is held. The expires_at TTL index reaps abandoned locks.
func NewMongoSlotLocker(cfg *config.Config) SlotLocker {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoSlotLocker{
		collection: db.Collection(LockCollectionName),
		ttl:        cfg.SlotLockTTL,
		timeout:    cfg.WriteTimeout,
		now:        time.Now,
	}
}

func (l *mongoSlotLocker) WithSlotLock(ctx context.Context, slot model.Slot, fn func(ctx context.Context) error) error {
	key := slot.Key()
	token := uuid.NewString()

	if err := l.acquire(ctx, key, token); err != nil {
		return err
	}
	defer func() {
		_ = l.release(context.WithoutCancel(ctx), key, token)
	}()

	lockCtx, cancel := context.WithTimeout(ctx, l.ttl)
	defer cancel()

	return fn(lockCtx)
}

func (l *mongoSlotLocker) acquire(ctx context.Context, key, token string) error {
	ctx, cancel := mongotx.WithTimeout(ctx, l.timeout)
	defer cancel()

	for attempt := 0; attempt < 2; attempt++ {
		now := l.now().UTC()
		lock := &model.SlotLock{
			ID:        key,
			Token:     token,
			ExpiresAt: now.Add(l.ttl),
			CreatedAt: now,
		}

		_, err := l.collection.InsertOne(ctx, lock)
		if err == nil {
			return nil
		}
		if !mongotx.IsDuplicateKey(err) {
			return fmt.Errorf("acquire slot lock: %w", err)
		}

		// The TTL monitor runs about once a minute, so clear an expired
		// holder ourselves and try once more.
		result, err := l.collection.DeleteOne(ctx, bson.M{"_id": key, "expires_at": bson.M{"$lt": now}})
		if err != nil {
			return fmt.Errorf("clear expired slot lock: %w", err)
		}
		if result.DeletedCount == 0 {
			break
		}
	}
	return appointmentserrors.ErrLockNotAcquired
}

func (l *mongoSlotLocker) release(ctx context.Context, key, token string) error {
	ctx, cancel := mongotx.WithTimeout(ctx, l.timeout)
	defer cancel()

	if _, err := l.collection.DeleteOne(ctx, bson.M{"_id": key, "token": token}); err != nil {
		return fmt.Errorf("release slot lock: %w", err)
	}
	return nil
}
