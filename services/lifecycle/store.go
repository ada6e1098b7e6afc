package lifecycle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"fieldly/models"

	"github.com/go-redis/redis/v8"
)

const sessionKeyPrefix = "jobsession:"

// Checkpoint is the persisted view of an active job session: the last
// committed stage plus the provider snapshot. A restarted gateway resumes
// tracking from here instead of re-matching.
type Checkpoint struct {
	JobID     string                  `json:"jobId"`
	RawStatus string                  `json:"rawStatus"`
	Stage     models.ClientStage      `json:"stage"`
	Snapshot  models.TrackingSnapshot `json:"snapshot"`
	UpdatedAt time.Time               `json:"updatedAt"`
}

// SessionStore persists session checkpoints in Redis with a TTL.
type SessionStore struct {
	cache *redis.Client
	ttl   time.Duration
}

func NewSessionStore(cache *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{cache: cache, ttl: ttl}
}

// Save writes the checkpoint, refreshing its TTL.
func (s *SessionStore) Save(ctx context.Context, cp Checkpoint) error {
	data, err := json.Marshal(cp)
	if err != nil {
		return fmt.Errorf("failed to marshal session checkpoint: %w", err)
	}
	if err := s.cache.Set(ctx, sessionKeyPrefix+cp.JobID, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store session checkpoint: %w", err)
	}
	return nil
}

// Load returns the checkpoint for the job, or nil when none exists.
func (s *SessionStore) Load(ctx context.Context, jobID string) (*Checkpoint, error) {
	data, err := s.cache.Get(ctx, sessionKeyPrefix+jobID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load session checkpoint: %w", err)
	}
	var cp Checkpoint
	if err := json.Unmarshal([]byte(data), &cp); err != nil {
		return nil, fmt.Errorf("failed to parse session checkpoint: %w", err)
	}
	return &cp, nil
}

// Delete removes the checkpoint once the session reaches a terminal stage.
func (s *SessionStore) Delete(ctx context.Context, jobID string) error {
	return s.cache.Del(ctx, sessionKeyPrefix+jobID).Err()
}
