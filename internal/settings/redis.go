package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisRepository keeps each clinic's settings in one Redis hash
// (field = setting key, value = JSON record) plus an id → location index.
type RedisRepository struct {
	redis *redis.Client
}

// NewRedisRepository creates a Redis-backed settings repository.
func NewRedisRepository(redisClient *redis.Client) *RedisRepository {
	return &RedisRepository{redis: redisClient}
}

func (r *RedisRepository) clinicKey(clinicID string) string {
	return fmt.Sprintf("clinic:settings:%s", clinicID)
}

func (r *RedisRepository) idKey(id string) string {
	return fmt.Sprintf("clinic:settings:id:%s", id)
}

// ListByClinic returns the clinic's settings ordered by key.
func (r *RedisRepository) ListByClinic(ctx context.Context, clinicID string) ([]Setting, error) {
	fields, err := r.redis.HGetAll(ctx, r.clinicKey(clinicID)).Result()
	if err != nil {
		return nil, fmt.Errorf("settings: redis list: %w", err)
	}
	out := make([]Setting, 0, len(fields))
	for key, raw := range fields {
		var s Setting
		if err := json.Unmarshal([]byte(raw), &s); err != nil {
			return nil, fmt.Errorf("settings: redis decode %s: %w", key, err)
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

// Update overwrites the record stored under id. The clinic and key of the
// stored record win over those in s.
func (r *RedisRepository) Update(ctx context.Context, id string, s Setting) (Setting, error) {
	loc, err := r.redis.Get(ctx, r.idKey(id)).Result()
	if errors.Is(err, redis.Nil) {
		return Setting{}, fmt.Errorf("%w: id %s", ErrNotFound, id)
	}
	if err != nil {
		return Setting{}, fmt.Errorf("settings: redis lookup: %w", err)
	}
	clinicID, key, ok := strings.Cut(loc, "\x00")
	if !ok {
		return Setting{}, fmt.Errorf("settings: redis index for %s is corrupt", id)
	}
	s.ID = id
	s.ClinicID = clinicID
	s.Key = key
	if err := s.Validate(); err != nil {
		return Setting{}, err
	}
	if err := r.put(ctx, s); err != nil {
		return Setting{}, err
	}
	return s, nil
}

// Create stores a new record, reusing the existing id when the clinic
// already has a record for the key.
func (r *RedisRepository) Create(ctx context.Context, s Setting) (Setting, error) {
	if err := s.Validate(); err != nil {
		return Setting{}, err
	}
	raw, err := r.redis.HGet(ctx, r.clinicKey(s.ClinicID), s.Key).Result()
	switch {
	case errors.Is(err, redis.Nil):
		s.ID = uuid.NewString()
	case err != nil:
		return Setting{}, fmt.Errorf("settings: redis create lookup: %w", err)
	default:
		var existing Setting
		if err := json.Unmarshal([]byte(raw), &existing); err != nil || existing.ID == "" {
			s.ID = uuid.NewString()
		} else {
			s.ID = existing.ID
		}
	}
	if err := r.put(ctx, s); err != nil {
		return Setting{}, err
	}
	return s, nil
}

func (r *RedisRepository) put(ctx context.Context, s Setting) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("settings: marshal: %w", err)
	}
	_, err = r.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, r.clinicKey(s.ClinicID), s.Key, data)
		pipe.Set(ctx, r.idKey(s.ID), s.ClinicID+"\x00"+s.Key, 0)
		return nil
	})
	if err != nil {
		return fmt.Errorf("settings: redis write: %w", err)
	}
	return nil
}

// Ping verifies Redis is reachable.
func (r *RedisRepository) Ping(ctx context.Context) error {
	return r.redis.Ping(ctx).Err()
}
