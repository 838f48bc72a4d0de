package rediscache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kirillkom/compliance-assistant/internal/core/domain"
)

const keyPrefix = "compliance:answer:"

type kv interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
}

// AnswerCache stores result envelopes keyed by the normalized question text.
type AnswerCache struct {
	client kv
}

// Connect parses a redis:// URL and pings the server.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

func New(client *redis.Client) *AnswerCache {
	return &AnswerCache{client: client}
}

func (c *AnswerCache) Get(ctx context.Context, question string) (*domain.ResultEnvelope, bool, error) {
	raw, err := c.client.Get(ctx, Key(question)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get answer: %w", err)
	}

	var env domain.ResultEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, false, fmt.Errorf("decode cached answer: %w", err)
	}
	return &env, true, nil
}

func (c *AnswerCache) Set(ctx context.Context, question string, envelope *domain.ResultEnvelope, ttl time.Duration) error {
	if envelope == nil {
		return nil
	}
	raw, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("encode answer: %w", err)
	}
	if err := c.client.Set(ctx, Key(question), raw, ttl).Err(); err != nil {
		return fmt.Errorf("redis set answer: %w", err)
	}
	return nil
}

// Key is the sha256 of the trimmed, lowercased question.
func Key(question string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(question))))
	return keyPrefix + hex.EncodeToString(sum[:])
}
