package store

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// RedisStore est la variante partagée du store local, pour les environnements
// de dev où plusieurs postes veulent le même état. Les clés sont préfixées
// par utilisateur ("qrstock:<prefix>:<key>"), dernier écrivain gagnant.
type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(addr, password, prefix string) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})
	return &RedisStore{client: client, prefix: prefix}
}

func (r *RedisStore) key(key string) string {
	return "qrstock:" + r.prefix + ":" + key
}

func (r *RedisStore) Get(key string) ([]byte, error) {
	data, err := r.client.Get(context.Background(), r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (r *RedisStore) Set(key string, value []byte) error {
	// Pas de TTL : l'état client vit jusqu'à suppression explicite.
	return r.client.Set(context.Background(), r.key(key), value, 0).Err()
}

func (r *RedisStore) Delete(key string) error {
	return r.client.Del(context.Background(), r.key(key)).Err()
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}
