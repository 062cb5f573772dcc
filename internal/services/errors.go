package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrSelfConversation     = errors.New("cannot start a conversation with yourself")
	ErrUserNotFound         = errors.New("user not found")
	ErrConversationNotFound = errors.New("conversation not found")
	ErrInvalidGroupName     = errors.New("group name must be between 1 and 100 characters")
	ErrNoMembers            = errors.New("member list must not be empty")
	ErrNotMember            = errors.New("you are not a member of this conversation")
	ErrAlreadyMember        = errors.New("you are already a member of this conversation")
	ErrPrivateConversation  = errors.New("cannot join a private conversation")
	ErrInvalidMessageType   = errors.New("unknown message type")
	ErrInvalidPage          = errors.New("page and page_size must be positive")
)

// UnknownUsersError перечисляет все несуществующие id из запроса разом,
// а не только первый найденный
type UnknownUsersError struct {
	IDs []uuid.UUID
}

func (e *UnknownUsersError) Error() string {
	ids := make([]string, len(e.IDs))
	for i, id := range e.IDs {
		ids[i] = id.String()
	}
	return fmt.Sprintf("unknown users: %s", strings.Join(ids, ", "))
}
