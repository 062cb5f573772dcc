package models

import (
	"github.com/google/uuid"
	"time"
)

type Conversation struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	IsGroup   bool      `gorm:"not null;default:false"`
	GroupName string    `gorm:"size:100"`
	CreatedBy uuid.UUID
	CreatedAt time.Time

	// Связи
	Members  []User    `gorm:"many2many:conversation_members"`
	Messages []Message `gorm:"foreignKey:ConversationID"`
}

// MemberIDs возвращает множество id участников
func (c *Conversation) MemberIDs() map[uuid.UUID]bool {
	ids := make(map[uuid.UUID]bool, len(c.Members))
	for _, m := range c.Members {
		ids[m.ID] = true
	}
	return ids
}
