package storage

import (
	"context"
	"fmt"
)

type Config struct {
	Type string // "memory" or "s3"
	S3   S3Options
	// MemoryBaseURL is the URL prefix returned by the memory store.
	MemoryBaseURL string
}

// NewFromConfig creates an ObjectStore based on the configured type.
func NewFromConfig(ctx context.Context, cfg Config) (ObjectStore, error) {
	switch cfg.Type {
	case "memory", "":
		return NewMemoryStore(cfg.MemoryBaseURL), nil
	case "s3":
		return NewS3Store(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}
