package models

import (
	"github.com/google/uuid"
	"time"
)

const (
	MessageTypeText   = "text"
	MessageTypeImage  = "image"
	MessageTypeVideo  = "video"
	MessageTypeFile   = "file"
	MessageTypeSystem = "system"
)

type Message struct {
	ID             uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	ConversationID uuid.UUID `gorm:"not null"`
	SenderID       uuid.UUID `gorm:"not null"`
	Content        string
	Type           string `gorm:"default:'text';check:type IN ('text','image','video','file','system')"`
	MediaURL       string
	SentAt         time.Time
	IsRead         bool `gorm:"not null;default:false"`

	// Связи
	Sender       User         `gorm:"foreignKey:SenderID"`
	Conversation Conversation `gorm:"foreignKey:ConversationID"`
}

// ValidMessageType проверяет, что тип сообщения из допустимого набора
func ValidMessageType(t string) bool {
	switch t {
	case MessageTypeText, MessageTypeImage, MessageTypeVideo, MessageTypeFile, MessageTypeSystem:
		return true
	}
	return false
}
