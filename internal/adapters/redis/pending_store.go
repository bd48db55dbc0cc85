package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	domainauth "github.com/henry-enterprise/portal-gateway/internal/domain/auth"
	"github.com/henry-enterprise/portal-gateway/internal/ports"
)

// PendingStore persists pending-authentication records between the two login
// steps. Records are bounded both by Redis TTL and by their embedded expiry.
type PendingStore struct {
	client redis.UniversalClient
	prefix string
}

// NewPendingStore creates a pending store with the default "pending:" prefix.
func NewPendingStore(client redis.UniversalClient) *PendingStore {
	return &PendingStore{client: client, prefix: "pending:"}
}

func (s *PendingStore) Save(ctx context.Context, pending domainauth.PendingAuthentication) error {
	if pending.ID == "" {
		return errors.New("pending ID cannot be empty")
	}

	data, err := json.Marshal(pending)
	if err != nil {
		return fmt.Errorf("marshal pending authentication: %w", err)
	}

	ttl := time.Until(pending.ExpiresAt)
	if ttl <= 0 {
		return errors.New("pending authentication is expired")
	}

	return s.client.Set(ctx, s.prefix+pending.ID, data, ttl).Err()
}

func (s *PendingStore) Get(ctx context.Context, id string) (domainauth.PendingAuthentication, error) {
	if id == "" {
		return domainauth.PendingAuthentication{}, ports.ErrNotFound
	}

	data, err := s.client.Get(ctx, s.prefix+id).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domainauth.PendingAuthentication{}, ports.ErrNotFound
		}
		return domainauth.PendingAuthentication{}, fmt.Errorf("redis get: %w", err)
	}

	return s.decode(data)
}

// Consume atomically retrieves and deletes the record via GETDEL, so two
// racing promotions of the same pending authentication cannot both succeed.
func (s *PendingStore) Consume(ctx context.Context, id string) (domainauth.PendingAuthentication, error) {
	if id == "" {
		return domainauth.PendingAuthentication{}, ports.ErrNotFound
	}

	data, err := s.client.GetDel(ctx, s.prefix+id).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domainauth.PendingAuthentication{}, ports.ErrNotFound
		}
		return domainauth.PendingAuthentication{}, fmt.Errorf("redis getdel: %w", err)
	}

	return s.decode(data)
}

func (s *PendingStore) Delete(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	return s.client.Del(ctx, s.prefix+id).Err()
}

func (s *PendingStore) decode(data string) (domainauth.PendingAuthentication, error) {
	var pending domainauth.PendingAuthentication
	if err := json.Unmarshal([]byte(data), &pending); err != nil {
		return domainauth.PendingAuthentication{}, fmt.Errorf("unmarshal pending authentication: %w", err)
	}
	if pending.Expired(time.Now()) {
		return domainauth.PendingAuthentication{}, ports.ErrNotFound
	}
	return pending, nil
}
