package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// PolicyPublic is the bucket applied to every inbound request.
const PolicyPublic = "public"

var ErrUnknownPolicy = errors.New("unknown rate limit policy")

// Policy allows Limit requests per Window for a single client key.
type Policy struct {
	Limit  int
	Window time.Duration
}

type Policies map[string]Policy

func (p Policies) get(name string) (Policy, error) {
	policy, ok := p[name]
	if !ok || policy.Limit <= 0 || policy.Window <= 0 {
		return Policy{}, fmt.Errorf("%w: %q", ErrUnknownPolicy, name)
	}
	return policy, nil
}

// RateLimiter is a fixed-window counter shared through Redis.
type RateLimiter struct {
	client   *redis.Client
	policies Policies
	now      func() time.Time
}

func NewRateLimiter(redisURL string, policies Policies) (*RateLimiter, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	return NewWithClient(redis.NewClient(opt), policies), nil
}

func NewWithClient(client *redis.Client, policies Policies) *RateLimiter {
	return &RateLimiter{client: client, policies: policies, now: time.Now}
}

func (rl *RateLimiter) Allow(ctx context.Context, clientKey, policyName string) (bool, error) {
	policy, err := rl.policies.get(policyName)
	if err != nil {
		return false, err
	}

	window := rl.now().Truncate(policy.Window).Unix()
	key := fmt.Sprintf("ratelimit:%s:%s:%d", policyName, clientKey, window)

	count, err := rl.client.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("rate limit incr: %w", err)
	}

	if count == 1 {
		if err := rl.client.Expire(ctx, key, policy.Window).Err(); err != nil {
			return false, fmt.Errorf("rate limit expire: %w", err)
		}
	}

	return count <= int64(policy.Limit), nil
}

func (rl *RateLimiter) Close() error {
	return rl.client.Close()
}
