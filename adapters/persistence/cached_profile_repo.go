package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/khoahotran/career-compass/internal/domain/profile"
	"github.com/khoahotran/career-compass/pkg/logger"
)

const profileKeyPrefix = "career-compass:profile:"

// cachedProfileRepo is a read-through Redis cache in front of another
// profile.Repository. Writes go to the inner repository first and then drop
// the cached entry. Cache failures are logged and never fail a call.
type cachedProfileRepo struct {
	inner  profile.Repository
	rdb    *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

func NewCachedProfileRepo(inner profile.Repository, rdb *redis.Client, ttl time.Duration, log logger.Logger) profile.Repository {
	return &cachedProfileRepo{inner: inner, rdb: rdb, ttl: ttl, logger: log}
}

func externalKey(externalID string) string {
	return profileKeyPrefix + "ext:" + externalID
}

func idKey(id int64) string {
	return fmt.Sprintf("%sid:%d", profileKeyPrefix, id)
}

func (r *cachedProfileRepo) GetByExternalID(ctx context.Context, externalID string) (*profile.Profile, error) {
	key := externalKey(externalID)

	data, err := r.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var p profile.Profile
		if err := json.Unmarshal(data, &p); err == nil {
			return &p, nil
		}
		r.logger.Warn("Dropping undecodable cached profile", zap.String("key", key))
		r.rdb.Del(ctx, key)
	case !errors.Is(err, redis.Nil):
		r.logger.Warn("Profile cache read failed", zap.String("key", key), zap.Error(err))
	}

	p, err := r.inner.GetByExternalID(ctx, externalID)
	if err != nil {
		return nil, err
	}
	r.store(ctx, p)
	return p, nil
}

func (r *cachedProfileRepo) UpdateChosenCareer(ctx context.Context, id int64, career string) error {
	if err := r.inner.UpdateChosenCareer(ctx, id, career); err != nil {
		return err
	}
	r.invalidate(ctx, id)
	return nil
}

func (r *cachedProfileRepo) MarkCompleted(ctx context.Context, id int64) error {
	if err := r.inner.MarkCompleted(ctx, id); err != nil {
		return err
	}
	r.invalidate(ctx, id)
	return nil
}

func (r *cachedProfileRepo) store(ctx context.Context, p *profile.Profile) {
	data, err := json.Marshal(p)
	if err != nil {
		r.logger.Warn("Failed to encode profile for cache", zap.Int64("profile_id", p.ID), zap.Error(err))
		return
	}

	_, err = r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, externalKey(p.ExternalID), data, r.ttl)
		pipe.Set(ctx, idKey(p.ID), p.ExternalID, r.ttl)
		return nil
	})
	if err != nil {
		r.logger.Warn("Profile cache write failed", zap.Int64("profile_id", p.ID), zap.Error(err))
	}
}

func (r *cachedProfileRepo) invalidate(ctx context.Context, id int64) {
	externalID, err := r.rdb.Get(ctx, idKey(id)).Result()
	if errors.Is(err, redis.Nil) {
		return
	}
	if err != nil {
		r.logger.Warn("Profile cache lookup failed during invalidation", zap.Int64("profile_id", id), zap.Error(err))
		return
	}
	if err := r.rdb.Del(ctx, externalKey(externalID), idKey(id)).Err(); err != nil {
		r.logger.Warn("Profile cache invalidation failed", zap.Int64("profile_id", id), zap.Error(err))
	}
}
