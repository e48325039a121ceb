// Package inflight guards against cache stampedes: two concurrent requests
// for the same uncached (pdf, swimmer) pair must not both pay for a model
// call. The first request takes a short-lived Redis reservation; the second
// waits for the cache to fill instead of duplicating work.
package inflight

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "heatsheet:extract:"

// Reservations implements the in-flight marker with Redis SETNX + TTL.
type Reservations struct {
	client  *redis.Client
	ownerID string
	ttl     time.Duration
}

// New creates a reservation store. ttl bounds how long a crashed extraction
// can block waiters.
func New(client *redis.Client, ttl time.Duration) *Reservations {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Reservations{
		client:  client,
		ownerID: generateOwnerID(),
		ttl:     ttl,
	}
}

// Format: hostname:pid:random, so a stuck reservation is attributable.
func generateOwnerID() string {
	hostname, _ := os.Hostname()
	randomBytes := make([]byte, 8)
	_, _ = rand.Read(randomBytes)
	return fmt.Sprintf("%s:%d:%s", hostname, os.Getpid(), hex.EncodeToString(randomBytes))
}

func key(pdfID, normalizedName string) string {
	return keyPrefix + pdfID + ":" + normalizedName
}

// Acquire attempts to reserve the (pdfID, normalizedName) pair. Returns true
// if this process should run the extraction, false if another one already is.
func (r *Reservations) Acquire(ctx context.Context, pdfID, normalizedName string) (bool, error) {
	ok, err := r.client.SetNX(ctx, key(pdfID, normalizedName), r.ownerID, r.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire reservation: %w", err)
	}
	return ok, nil
}

// releaseScript only deletes the reservation if this process owns it, so a
// slow extraction cannot drop a successor's marker after its own TTL expired.
var releaseScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`)

// Release drops the reservation if held by this instance. Safe to call when
// the reservation expired or was never acquired.
func (r *Reservations) Release(ctx context.Context, pdfID, normalizedName string) error {
	_, err := releaseScript.Run(ctx, r.client, []string{key(pdfID, normalizedName)}, r.ownerID).Result()
	if err != nil && err != redis.Nil {
		return fmt.Errorf("release reservation: %w", err)
	}
	return nil
}

// Held reports whether any process currently holds the reservation.
func (r *Reservations) Held(ctx context.Context, pdfID, normalizedName string) (bool, error) {
	n, err := r.client.Exists(ctx, key(pdfID, normalizedName)).Result()
	if err != nil {
		return false, fmt.Errorf("check reservation: %w", err)
	}
	return n > 0, nil
}

// TTL returns the reservation lifetime, which bounds how long waiters poll.
func (r *Reservations) TTL() time.Duration {
	return r.ttl
}

// Ping checks if the Redis backend is healthy.
func (r *Reservations) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
