package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"

	"github.com/campusmesh/campusmesh/core"
)

var sessionJSON = jsoniter.ConfigCompatibleWithStandardLibrary

// DefaultTTL is the session expiry applied when none is configured.
const DefaultTTL = 30 * time.Minute

// RedisStore is a SessionStore persisting each session as one JSON value with
// a sliding TTL. Turns within a session are processed sequentially by the
// owning client, so the read-modify-write cycles below do not race with
// themselves; concurrent writers to the same session get last-write-wins.
type RedisStore struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// RedisOptions configures a RedisStore.
type RedisOptions struct {
	// KeyPrefix namespaces session keys; defaults to "campusmesh:session:".
	KeyPrefix string
	// TTL is the sliding session expiry; defaults to DefaultTTL.
	TTL time.Duration
}

// NewRedisStore wraps an existing Redis client as a session store.
func NewRedisStore(client *redis.Client, optFns ...func(o *RedisOptions)) *RedisStore {
	opts := RedisOptions{
		KeyPrefix: "campusmesh:session:",
		TTL:       DefaultTTL,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &RedisStore{
		client:    client,
		keyPrefix: opts.KeyPrefix,
		ttl:       opts.TTL,
	}
}

func (s *RedisStore) key(id string) string { return s.keyPrefix + id }

// Get returns an existing session or creates and persists a new one lazily.
func (s *RedisStore) Get(ctx context.Context, id string) (*core.Session, error) {
	raw, err := s.client.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		sess := core.NewSession(id)
		if err := s.Save(ctx, sess); err != nil {
			return nil, err
		}
		return sess, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get session %s: %w", id, err)
	}

	sess := &core.Session{}
	if err := sessionJSON.Unmarshal(raw, sess); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	return sess, nil
}

// Touch returns the session like Get and refreshes its TTL.
func (s *RedisStore) Touch(ctx context.Context, id string) (*core.Session, error) {
	sess, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.client.Expire(ctx, s.key(id), s.ttl).Err(); err != nil {
		return nil, fmt.Errorf("redis touch session %s: %w", id, err)
	}
	return sess, nil
}

// Save persists the session snapshot and resets its TTL.
func (s *RedisStore) Save(ctx context.Context, sess *core.Session) error {
	raw, err := sessionJSON.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", sess.ID, err)
	}
	if err := s.client.Set(ctx, s.key(sess.ID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis save session %s: %w", sess.ID, err)
	}
	return nil
}

// ApplyDelta merges a key/value delta into the session state and persists it.
func (s *RedisStore) ApplyDelta(ctx context.Context, id string, delta map[string]any) error {
	sess, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	sess.ApplyStateDelta(delta)
	return s.Save(ctx, sess)
}

// AppendTurn adds a turn record to the session history and persists it.
func (s *RedisStore) AppendTurn(ctx context.Context, id string, t core.TurnRecord) error {
	sess, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	sess.AddTurn(t)
	return s.Save(ctx, sess)
}
