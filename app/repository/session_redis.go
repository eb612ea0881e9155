package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/snapbooth/identity/app/entity"
)

const sessionKeyPrefix = "session:"

// RedisSessionRepository stores sessions as JSON values with a TTL equal to
// the sweep age, so abandoned sessions fall out of Redis on their own even
// if the sweep command never runs. The idle-timeout check stays in the
// service layer, same as with the MySQL store.
type RedisSessionRepository struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisSessionRepository(client *redis.Client, ttl time.Duration) *RedisSessionRepository {
	return &RedisSessionRepository{client: client, ttl: ttl}
}

type redisSession struct {
	ID           string    `json:"id"`
	UserID       uint64    `json:"user_id"`
	CSRFToken    string    `json:"csrf_token"`
	CreatedAt    time.Time `json:"created_at"`
	LastAccessed time.Time `json:"last_accessed"`
}

func (r *RedisSessionRepository) Create(ctx context.Context, session *entity.Session) error {
	data, err := json.Marshal(redisSession{
		ID:           session.ID,
		UserID:       session.UserID,
		CSRFToken:    session.CSRFToken,
		CreatedAt:    session.CreatedAt,
		LastAccessed: session.LastAccessed,
	})
	if err != nil {
		return err
	}
	return r.client.Set(ctx, sessionKeyPrefix+session.ID, data, r.ttl).Err()
}

func (r *RedisSessionRepository) FindByID(ctx context.Context, id string) (*entity.Session, error) {
	data, err := r.client.Get(ctx, sessionKeyPrefix+id).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var rec redisSession
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	return &entity.Session{
		ID:           rec.ID,
		UserID:       rec.UserID,
		CSRFToken:    rec.CSRFToken,
		CreatedAt:    rec.CreatedAt,
		LastAccessed: rec.LastAccessed,
	}, nil
}

func (r *RedisSessionRepository) Touch(ctx context.Context, id string, at time.Time) error {
	session, err := r.FindByID(ctx, id)
	if err != nil || session == nil {
		return err
	}
	session.LastAccessed = at
	// Rewriting the value re-arms the TTL, giving Redis the same sliding
	// lifetime the MySQL sweep provides.
	return r.Create(ctx, session)
}

func (r *RedisSessionRepository) Delete(ctx context.Context, id string) (bool, error) {
	deleted, err := r.client.Del(ctx, sessionKeyPrefix+id).Result()
	if err != nil {
		return false, err
	}
	return deleted > 0, nil
}

func (r *RedisSessionRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	var count int64
	iter := r.client.Scan(ctx, 0, sessionKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		data, err := r.client.Get(ctx, key).Bytes()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			return count, err
		}

		var rec redisSession
		if err := json.Unmarshal(data, &rec); err != nil {
			continue
		}
		if rec.LastAccessed.Before(cutoff) {
			deleted, err := r.client.Del(ctx, key).Result()
			if err != nil {
				return count, err
			}
			count += deleted
		}
	}
	if err := iter.Err(); err != nil {
		return count, err
	}
	return count, nil
}
