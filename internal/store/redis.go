// Package store persists boss snapshots in Redis so encounters survive restarts.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"riftcore/internal/combat"
)

const (
	// DefaultTTL bounds how long an abandoned encounter is kept.
	DefaultTTL = 24 * time.Hour
	KeyPrefix  = "riftcore:snapshot:"
)

var ErrNotFound = errors.New("snapshot not found")

type Options struct {
	Addr       string
	Password   string
	DB         int
	MaxRetries uint64
}

// Connect dials Redis and pings it with exponential backoff.
func Connect(ctx context.Context, opts Options) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), opts.MaxRetries), ctx)
	err := backoff.Retry(func() error {
		if err := client.Ping(ctx).Err(); err != nil {
			logrus.Warnf("Redis connection to %s failed: %v, retrying...", opts.Addr, err)
			return err
		}
		return nil
	}, b)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", opts.Addr, err)
	}
	logrus.Infof("connected to Redis at %s", opts.Addr)
	return client, nil
}

// SnapshotStore keeps one JSON snapshot per encounter key.
type SnapshotStore struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewSnapshotStore(client redis.UniversalClient, ttl time.Duration) *SnapshotStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &SnapshotStore{client: client, ttl: ttl}
}

func makeKey(encounter string) string {
	return KeyPrefix + encounter
}

func (s *SnapshotStore) Save(ctx context.Context, encounter string, snap combat.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	if err := s.client.Set(ctx, makeKey(encounter), data, s.ttl).Err(); err != nil {
		logrus.Errorf("failed to save snapshot %s: %v", encounter, err)
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	logrus.WithFields(logrus.Fields{"encounter": encounter, "tick": snap.Tick, "ttl": s.ttl}).Debug("saved snapshot")
	return nil
}

// Load returns ErrNotFound when no snapshot exists or it has expired.
func (s *SnapshotStore) Load(ctx context.Context, encounter string) (*combat.Snapshot, error) {
	data, err := s.client.Get(ctx, makeKey(encounter)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%s: %w", encounter, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}
	var snap combat.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot %s: %w", encounter, err)
	}
	return &snap, nil
}

func (s *SnapshotStore) Delete(ctx context.Context, encounter string) error {
	if err := s.client.Del(ctx, makeKey(encounter)).Err(); err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	return nil
}

// List returns the stored encounter keys, without prefix.
func (s *SnapshotStore) List(ctx context.Context) ([]string, error) {
	var out []string
	iter := s.client.Scan(ctx, 0, KeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		out = append(out, iter.Val()[len(KeyPrefix):])
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	return out, nil
}
