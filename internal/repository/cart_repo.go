package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"ravito/internal/cart"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// CartRepository persists one cart state per user in Redis.
type CartRepository interface {
	// Load returns an empty state when the user has no cart yet.
	Load(ctx context.Context, userID uuid.UUID) (cart.State, error)
	Save(ctx context.Context, userID uuid.UUID, s cart.State) error
	Delete(ctx context.Context, userID uuid.UUID) error
}

type cartRepo struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewCartRepository(rdb *redis.Client, ttl time.Duration) CartRepository {
	return &cartRepo{rdb: rdb, ttl: ttl}
}

func cartKey(userID uuid.UUID) string { return "cart:" + userID.String() }

func (r *cartRepo) Load(ctx context.Context, userID uuid.UUID) (cart.State, error) {
	raw, err := r.rdb.Get(ctx, cartKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return cart.State{Items: []cart.Item{}}, nil
	}
	if err != nil {
		return cart.State{}, err
	}
	var s cart.State
	if err := json.Unmarshal(raw, &s); err != nil {
		return cart.State{}, err
	}
	if s.Items == nil {
		s.Items = []cart.Item{}
	}
	return s, nil
}

func (r *cartRepo) Save(ctx context.Context, userID uuid.UUID, s cart.State) error {
	if s.Empty() {
		return r.Delete(ctx, userID)
	}
	raw, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return r.rdb.Set(ctx, cartKey(userID), raw, r.ttl).Err()
}

func (r *cartRepo) Delete(ctx context.Context, userID uuid.UUID) error {
	return r.rdb.Del(ctx, cartKey(userID)).Err()
}
