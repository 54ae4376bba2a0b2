package middleware

import (
	"context"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// newTestRedisClient connects to the Redis named by REDIS_URL (default
// localhost:6379) and skips the test when none is reachable.
func newTestRedisClient(t *testing.T) *redis.Client {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping Redis integration test in short mode")
	}

	addr := "localhost:6379"
	var client *redis.Client
	if url := os.Getenv("REDIS_URL"); url != "" {
		opts, err := redis.ParseURL(url)
		if err != nil {
			t.Fatalf("invalid REDIS_URL: %v", err)
		}
		client = redis.NewClient(opts)
	} else {
		client = redis.NewClient(&redis.Options{Addr: addr})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skip("Redis not available, skipping integration test")
	}
	t.Cleanup(func() { client.Close() })
	return client
}

// testRateLimitKey builds a unique key so parallel runs never collide.
func testRateLimitKey(prefix string) string {
	return "plated-test:" + prefix + ":" + strconv.FormatInt(time.Now().UnixNano(), 10)
}

func TestRedisRateLimitStore_Allow(t *testing.T) {
	client := newTestRedisClient(t)

	store := NewRedisRateLimitStore(client)
	config := RateLimitConfig{
		RequestsPerWindow: 5,
		WindowDuration:    time.Minute,
	}

	testKey := testRateLimitKey("user:alice")
	ctx := context.Background()

	// Test that requests are allowed up to the limit
	for i := 0; i < 5; i++ {
		allowed, remaining, _ := store.Allow(ctx, testKey, config)
		if !allowed {
			t.Errorf("request %d should be allowed", i+1)
		}
		expectedRemaining := 4 - i
		if remaining != expectedRemaining {
			t.Errorf("request %d: expected remaining=%d, got %d", i+1, expectedRemaining, remaining)
		}
	}

	// Test that the 6th request is blocked
	allowed, remaining, retryAfter := store.Allow(ctx, testKey, config)
	if allowed {
		t.Error("6th request should be blocked")
	}
	if remaining != 0 {
		t.Errorf("expected remaining=0 when blocked, got %d", remaining)
	}
	if retryAfter <= 0 || retryAfter > 60 {
		t.Errorf("expected retryAfter between 1 and 60, got %d", retryAfter)
	}

	// Cleanup
	client.Del(ctx, testKey)
}

// TestRedisRateLimitStore_DifferentKeys tests that different keys have independent limits.
func TestRedisRateLimitStore_DifferentKeys(t *testing.T) {
	client := newTestRedisClient(t)

	store := NewRedisRateLimitStore(client)
	config := RateLimitConfig{
		RequestsPerWindow: 1,
		WindowDuration:    time.Minute,
	}

	key1 := testRateLimitKey("user:alice")
	key2 := testRateLimitKey("ip:203.0.113.9")
	ctx := context.Background()

	// Each key should have its own limit
	allowed1, _, _ := store.Allow(ctx, key1, config)
	allowed2, _, _ := store.Allow(ctx, key2, config)

	if !allowed1 || !allowed2 {
		t.Error("both keys should be allowed their first request")
	}

	// Both should now be at their limit
	blocked1, _, _ := store.Allow(ctx, key1, config)
	blocked2, _, _ := store.Allow(ctx, key2, config)

	if blocked1 || blocked2 {
		t.Error("both keys should be blocked after reaching limit")
	}

	// Cleanup
	client.Del(ctx, key1, key2)
}

// TestRedisRateLimitStore_WindowExpiry tests that limits reset after the window expires.
func TestRedisRateLimitStore_WindowExpiry(t *testing.T) {
	client := newTestRedisClient(t)

	store := NewRedisRateLimitStore(client)
	config := RateLimitConfig{
		RequestsPerWindow: 1,
		WindowDuration:    100 * time.Millisecond,
	}

	testKey := testRateLimitKey("expiry")
	ctx := context.Background()

	// Use up the limit
	allowed, _, _ := store.Allow(ctx, testKey, config)
	if !allowed {
		t.Error("first request should be allowed")
	}

	// Should be blocked
	allowed, _, _ = store.Allow(ctx, testKey, config)
	if allowed {
		t.Error("second request should be blocked")
	}

	// Wait for window to expire
	time.Sleep(150 * time.Millisecond)

	// Should be allowed again
	allowed, _, _ = store.Allow(ctx, testKey, config)
	if !allowed {
		t.Error("request after window expiry should be allowed")
	}

	// Cleanup
	client.Del(ctx, testKey)
}

// TestRedisRateLimitStore_FailOpen tests that the store fails open on Redis errors.
func TestRedisRateLimitStore_FailOpen(t *testing.T) {
	// Create a client with invalid address to simulate connection failure
	client := redis.NewClient(&redis.Options{
		Addr: "localhost:9999", // Invalid port
	})
	defer client.Close()

	store := NewRedisRateLimitStore(client)
	config := RateLimitConfig{
		RequestsPerWindow: 5,
		WindowDuration:    time.Minute,
	}

	ctx := context.Background()

	// Should fail open and allow the request despite Redis being unavailable
	allowed, remaining, _ := store.Allow(ctx, "plated-test:failopen", config)
	if !allowed {
		t.Error("should fail open and allow request when Redis is unavailable")
	}
	if remaining != config.RequestsPerWindow {
		t.Errorf("should return full quota on error, got %d", remaining)
	}
}
