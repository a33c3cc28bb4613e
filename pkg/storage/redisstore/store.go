// Package redisstore menyimpan draft sementara (keranjang POS, wizard penjualan)
// yang berpindah antar layar resepsionis.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var ErrNotFound = errors.New("draft tidak ditemukan atau sudah kedaluwarsa")

const defaultPrefix = "optik:draft:"

type Store struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// Connect membuat client Redis dan memastikan server bisa dihubungi.
func Connect(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

func New(client *redis.Client, ttl time.Duration) *Store {
	return &Store{client: client, prefix: defaultPrefix, ttl: ttl}
}

func NewID() string {
	return uuid.NewString()
}

func (s *Store) key(kind, id string) string {
	return s.prefix + kind + ":" + id
}

// Save menulis draft sebagai JSON. Setiap penyimpanan memperpanjang TTL.
func (s *Store) Save(ctx context.Context, kind, id string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode draft %s: %w", kind, err)
	}
	if err := s.client.Set(ctx, s.key(kind, id), b, s.ttl).Err(); err != nil {
		return fmt.Errorf("save draft %s: %w", kind, err)
	}
	return nil
}

func (s *Store) Load(ctx context.Context, kind, id string, v any) error {
	b, err := s.client.Get(ctx, s.key(kind, id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("load draft %s: %w", kind, err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("decode draft %s: %w", kind, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, kind, id string) error {
	if err := s.client.Del(ctx, s.key(kind, id)).Err(); err != nil {
		return fmt.Errorf("delete draft %s: %w", kind, err)
	}
	return nil
}
