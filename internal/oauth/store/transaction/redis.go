package transaction

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"ecotrace/internal/oauth/models"
	"ecotrace/pkg/platform/sentinel"
)

const keyPrefix = "oauth:tx:"

// Redis stores transactions as JSON values with a server-side TTL. GETDEL
// makes consumption atomic across processes, which the memory store cannot
// offer beyond a single node.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis constructs a Redis-backed transaction store.
func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

// Create stores the transaction under its ID with a fresh TTL.
func (s *Redis) Create(ctx context.Context, tx *models.Transaction) error {
	payload, err := json.Marshal(tx)
	if err != nil {
		return fmt.Errorf("marshal transaction: %w", err)
	}
	if err := s.client.Set(ctx, keyPrefix+tx.ID, payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("store transaction: %w", err)
	}
	return nil
}

// Consume removes and returns the transaction in one round trip. Redis expires
// keys server-side, so an expired transaction is simply absent.
func (s *Redis) Consume(ctx context.Context, id string) (*models.Transaction, error) {
	payload, err := s.client.GetDel(ctx, keyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("transaction %s: %w", id, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("consume transaction: %w", err)
	}

	var tx models.Transaction
	if err := json.Unmarshal(payload, &tx); err != nil {
		return nil, fmt.Errorf("unmarshal transaction: %w", err)
	}
	return &tx, nil
}
