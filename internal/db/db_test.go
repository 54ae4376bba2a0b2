package db

import (
	"context"
	"testing"
	"time"
)

func TestOpen_InvalidURL(t *testing.T) {
	_, err := Open(context.Background(), "not a connection string")
	if err == nil {
		t.Fatal("expected error for malformed connection string")
	}
}

func TestOpen_UnreachableHost(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping connection attempt in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	// Reserved TEST-NET address; the ping must fail, not hang.
	_, err := Open(ctx, "postgres://plated@192.0.2.1:5432/plated?sslmode=disable&connect_timeout=1")
	if err == nil {
		t.Fatal("expected error for unreachable host")
	}
}
