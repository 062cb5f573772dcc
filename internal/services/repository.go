package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/thereayou/convoy/internal/events"
	"github.com/thereayou/convoy/internal/models"
)

// ConversationRepository — примитивы хранилища, которыми пользуется сервис бесед.
// Реализуется internal/database.Database.
type ConversationRepository interface {
	FindPrivateConversation(userA, userB uuid.UUID) (*models.Conversation, error)
	FindGroupsByName(name string) ([]models.Conversation, error)
	CreateConversation(conv *models.Conversation, memberIDs []uuid.UUID) error
	GetConversation(id string) (*models.Conversation, error)
	GetUserConversations(userID uuid.UUID) ([]models.Conversation, error)
	AddMembership(userID, conversationID uuid.UUID) error
	RemoveMembershipCascade(userID, conversationID uuid.UUID) (removed bool, conversationDeleted bool, err error)
	CountMemberships(conversationID uuid.UUID) (int64, error)
	IsMember(userID, conversationID uuid.UUID) (bool, error)
	InsertMessage(message *models.Message) error
	GetConversationMessages(conversationID uuid.UUID, limit, offset int) ([]models.Message, error)
	MarkMessagesRead(conversationID, readerID uuid.UUID) error
}

// UserDirectory — справочник пользователей
type UserDirectory interface {
	UserExists(id uuid.UUID) (bool, error)
	ResolveUser(id uuid.UUID) (*models.User, error)
}

// Notifier — внешний получатель уведомлений, доставка best-effort
type Notifier interface {
	Notify(ctx context.Context, event events.Event) error
}
