package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/martinprlt/diario-gestion-archivos-sub000/internal/models"
)

// DataStore defines the interface for persistent storage of users and direct
// messages. Both PostgresStore and SQLiteStore implement this interface.
type DataStore interface {
	// Connection management
	Close()
	Ping(ctx context.Context) error

	// User operations
	CreateUser(ctx context.Context, username, name, role, passwordHash string) (*models.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	CountUsers(ctx context.Context) (int64, error)

	// Message operations
	SaveMessage(ctx context.Context, senderID, recipientID, content string) (*models.StoredMessage, error)
	History(ctx context.Context, userA, userB string) ([]models.StoredMessage, error)
	CountMessages(ctx context.Context) (int64, error)
}

// MessageStore is the narrow view of DataStore the broadcast router depends
// on: persist one message, read one conversation.
type MessageStore interface {
	SaveMessage(ctx context.Context, senderID, recipientID, content string) (*models.StoredMessage, error)
	History(ctx context.Context, userA, userB string) ([]models.StoredMessage, error)
}
