package store

import (
	"context"
	"errors"

	"github.com/pliu/newsportal/internal/models"
)

// Document keys inside a profile's key space.
const (
	UserKey         = "user"
	ChatMessagesKey = "chatMessages"
)

var (
	// ErrNotFound means the document has never been written (or was deleted).
	ErrNotFound = errors.New("document not found")
	// ErrCorrupt means the stored document could not be decoded.
	ErrCorrupt = errors.New("stored document is malformed")
)

// Store holds the documents of one browser profile. Every write replaces the
// whole document.
type Store interface {
	// User operations
	GetUser(ctx context.Context) (*models.User, error)
	SaveUser(ctx context.Context, user models.User) error
	DeleteUser(ctx context.Context) error

	// Chat log operations
	GetMessages(ctx context.Context) ([]models.ChatMessage, error)
	SaveMessages(ctx context.Context, messages []models.ChatMessage) error
}

// Profiles hands out the Store of a given profile.
type Profiles interface {
	Profile(profileID string) Store
}
