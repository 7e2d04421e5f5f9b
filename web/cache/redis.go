// Package cache provides the Redis backend for authgate sessions.
// It runs an embedded Redis (miniredis) unless an external address is given.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/authgate/authgate/logger"
	"github.com/redis/go-redis/v9"
)

var (
	client     *redis.Client
	miniRedis  *miniredis.Miniredis
	isEmbedded = true
)

var errNotInitialized = errors.New("redis client not initialized")

// InitRedis initializes the Redis client. An empty addr starts an embedded
// Redis, otherwise the external server at addr is used.
func InitRedis(addr, password string) error {
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			return fmt.Errorf("failed to start embedded Redis: %w", err)
		}
		miniRedis = mr
		client = redis.NewClient(&redis.Options{
			Addr: mr.Addr(),
		})
		isEmbedded = true
		logger.Info("Embedded Redis started on ", mr.Addr())
		return nil
	}

	client = redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})
	isEmbedded = false

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	logger.Info("Connected to external Redis at ", addr)
	return nil
}

// GetClient returns the Redis client instance.
func GetClient() *redis.Client {
	return client
}

// IsEmbedded returns true if using embedded Redis.
func IsEmbedded() bool {
	return isEmbedded
}

// FastForward advances the embedded Redis clock by d so that keys whose TTL
// has run out are dropped. miniredis does not expire keys on its own.
func FastForward(d time.Duration) error {
	if miniRedis == nil {
		return errNotInitialized
	}
	miniRedis.FastForward(d)
	return nil
}

// Close closes the Redis connection and stops embedded Redis if running.
func Close() error {
	var err error
	if client != nil {
		err = client.Close()
		client = nil
	}
	if miniRedis != nil {
		miniRedis.Close()
		miniRedis = nil
	}
	return err
}
