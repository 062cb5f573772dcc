package database

import (
	"github.com/google/uuid"
	"github.com/thereayou/convoy/internal/models"
)

func (d *Database) InsertMessage(message *models.Message) error {
	return d.db.Create(message).Error
}

func (d *Database) GetMessage(id string) (*models.Message, error) {
	var message models.Message
	if err := d.db.First(&message, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &message, nil
}

func (d *Database) CountMessages(conversationID uuid.UUID) (int64, error) {
	var count int64
	err := d.db.Model(&models.Message{}).
		Where("conversation_id = ?", conversationID).
		Count(&count).Error
	return count, err
}

// GetConversationMessages получает страницу сообщений беседы. Окно выбирается
// от самых новых, но внутри страницы сообщения идут в хронологическом порядке.
func (d *Database) GetConversationMessages(conversationID uuid.UUID, limit, offset int) ([]models.Message, error) {
	var messages []models.Message

	err := d.db.
		Where("conversation_id = ?", conversationID).
		Order("sent_at DESC").
		Offset(offset).
		Limit(limit).
		Preload("Sender").
		Find(&messages).Error

	if err != nil {
		return nil, err
	}

	// Разворачиваем порядок, чтобы старые сообщения были первыми
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return messages, nil
}

// MarkMessagesRead помечает прочитанными все чужие сообщения беседы
func (d *Database) MarkMessagesRead(conversationID, readerID uuid.UUID) error {
	return d.db.Model(&models.Message{}).
		Where("conversation_id = ? AND sender_id != ? AND is_read = false", conversationID, readerID).
		Update("is_read", true).Error
}
