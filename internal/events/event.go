package events

import (
	"github.com/google/uuid"
	"time"
)

const (
	KindMessagePersisted  = "message_persisted"
	KindMembershipChanged = "membership_changed"
)

const (
	ChangeJoined = "joined"
	ChangeLeft   = "left"
)

type MessagePayload struct {
	MessageID      uuid.UUID `json:"message_id"`
	ConversationID uuid.UUID `json:"conversation_id"`
	SenderID       uuid.UUID `json:"sender_id"`
	SenderName     string    `json:"sender_name,omitempty"`
	Type           string    `json:"type"`
	Content        string    `json:"content"`
	MediaURL       string    `json:"media_url,omitempty"`
	SentAt         time.Time `json:"sent_at"`
}

type MembershipPayload struct {
	ConversationID      uuid.UUID `json:"conversation_id"`
	UserID              uuid.UUID `json:"user_id"`
	Change              string    `json:"change"`
	ConversationDeleted bool      `json:"conversation_deleted,omitempty"`
}

// Event — то, что уходит внешнему получателю уведомлений. Заполнено ровно
// одно из полей Message/Membership в зависимости от Kind.
type Event struct {
	Kind       string             `json:"kind"`
	OccurredAt time.Time          `json:"occurred_at"`
	Message    *MessagePayload    `json:"message,omitempty"`
	Membership *MembershipPayload `json:"membership,omitempty"`
}

// Key возвращает ключ партиционирования — id беседы
func (e Event) Key() string {
	switch {
	case e.Message != nil:
		return e.Message.ConversationID.String()
	case e.Membership != nil:
		return e.Membership.ConversationID.String()
	}
	return ""
}
