package models

import (
	"github.com/google/uuid"
	"time"
)

// ConversationMember — чистая join-таблица, только внешние ключи.
// Составной первичный ключ запрещает дублирование членства на уровне БД.
type ConversationMember struct {
	ConversationID uuid.UUID `gorm:"primaryKey"`
	UserID         uuid.UUID `gorm:"primaryKey"`
	JoinedAt       time.Time `gorm:"autoCreateTime"`
}
