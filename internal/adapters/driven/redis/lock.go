package redis

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/custodia-labs/docdash/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.DistributedLock = (*Lock)(nil)

// DefaultLockPrefix namespaces lock keys
const DefaultLockPrefix = "docdash:lock:"

// Lock implements DistributedLock with SET NX PX.
// Every value is this instance's owner ID, so another instance can never
// release or extend a lock it does not hold.
type Lock struct {
	client  *redis.Client
	prefix  string
	ownerID string
}

// NewLock creates a Redis-backed lock using DefaultLockPrefix.
func NewLock(client *redis.Client) *Lock {
	return NewLockWithPrefix(client, DefaultLockPrefix)
}

// NewLockWithPrefix creates a lock whose keys start with prefix.
func NewLockWithPrefix(client *redis.Client, prefix string) *Lock {
	return &Lock{
		client:  client,
		prefix:  prefix,
		ownerID: newOwnerID(),
	}
}

// newOwnerID returns hostname:pid:random
func newOwnerID() string {
	hostname, _ := os.Hostname()
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return fmt.Sprintf("%s:%d:%s", hostname, os.Getpid(), hex.EncodeToString(b))
}

func (l *Lock) key(name string) string {
	return l.prefix + name
}

// Acquire sets the lock key only if absent. Returns false when another holder has it.
func (l *Lock) Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error) {
	ok, err := l.client.SetNX(ctx, l.key(name), l.ownerID, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire lock %s: %w", name, err)
	}
	return ok, nil
}

// Deletes the key only while it still carries our owner ID.
var releaseScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	end
	return 0
`)

// Release drops the lock if this instance holds it. Expired or foreign locks are left alone.
func (l *Lock) Release(ctx context.Context, name string) error {
	err := releaseScript.Run(ctx, l.client, []string{l.key(name)}, l.ownerID).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("release lock %s: %w", name, err)
	}
	return nil
}

// Resets the TTL only while the key still carries our owner ID.
var extendScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("pexpire", KEYS[1], ARGV[2])
	end
	return 0
`)

// Extend pushes back the expiry of a held lock.
func (l *Lock) Extend(ctx context.Context, name string, ttl time.Duration) error {
	n, err := extendScript.Run(ctx, l.client, []string{l.key(name)}, l.ownerID, ttl.Milliseconds()).Int64()
	if err != nil {
		return fmt.Errorf("extend lock %s: %w", name, err)
	}
	if n == 0 {
		return fmt.Errorf("lock %s not held by this instance", name)
	}
	return nil
}

// Ping checks if the Redis backend is healthy.
func (l *Lock) Ping(ctx context.Context) error {
	return l.client.Ping(ctx).Err()
}

// OwnerID identifies this instance in lock values.
func (l *Lock) OwnerID() string {
	return l.ownerID
}
