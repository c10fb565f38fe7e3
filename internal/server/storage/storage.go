package storage

import "context"

// Store aggregates every persistence concern of the server
type Store interface {
	UserStorage
	TokenStorage
	PostStorage
	LikeStorage
	CommentStorage

	// Ping checks database connectivity
	Ping(ctx context.Context) error

	// Close releases the underlying connection pool
	Close() error
}
