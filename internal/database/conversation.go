package database

import (
	"github.com/google/uuid"
	"github.com/thereayou/convoy/internal/models"
	"gorm.io/gorm"
)

// FindPrivateConversation ищет личную беседу между двумя пользователями.
// Возвращает nil без ошибки, если такой беседы нет.
func (d *Database) FindPrivateConversation(userA, userB uuid.UUID) (*models.Conversation, error) {
	var conv models.Conversation

	err := d.db.
		Joins("JOIN conversation_members cm1 ON cm1.conversation_id = conversations.id").
		Joins("JOIN conversation_members cm2 ON cm2.conversation_id = conversations.id").
		Where("conversations.is_group = false AND cm1.user_id = ? AND cm2.user_id = ?", userA, userB).
		Where("(SELECT COUNT(*) FROM conversation_members cm WHERE cm.conversation_id = conversations.id) = 2").
		First(&conv).Error

	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if err := d.db.Model(&conv).Association("Members").Find(&conv.Members); err != nil {
		return nil, err
	}

	return &conv, nil
}

// FindGroupsByName возвращает групповые беседы с точным совпадением имени
func (d *Database) FindGroupsByName(name string) ([]models.Conversation, error) {
	var convs []models.Conversation

	err := d.db.
		Preload("Members").
		Where("is_group = true AND group_name = ?", name).
		Find(&convs).Error

	if err != nil {
		return nil, err
	}

	return convs, nil
}

// CreateConversation создает беседу вместе с начальными членствами.
// Либо записывается все, либо ничего.
func (d *Database) CreateConversation(conv *models.Conversation, memberIDs []uuid.UUID) error {
	return d.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(conv).Error; err != nil {
			return err
		}

		for _, userID := range memberIDs {
			member := models.ConversationMember{
				ConversationID: conv.ID,
				UserID:         userID,
			}
			if err := tx.Create(&member).Error; err != nil {
				return err
			}
		}

		return tx.Model(conv).Association("Members").Find(&conv.Members)
	})
}

func (d *Database) GetConversation(id string) (*models.Conversation, error) {
	var conv models.Conversation
	if err := d.db.Preload("Members").First(&conv, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &conv, nil
}

// GetUserConversations получает список бесед пользователя
func (d *Database) GetUserConversations(userID uuid.UUID) ([]models.Conversation, error) {
	var convs []models.Conversation

	err := d.db.
		Joins("JOIN conversation_members cm ON cm.conversation_id = conversations.id").
		Where("cm.user_id = ?", userID).
		Order("conversations.created_at DESC").
		Find(&convs).Error

	if err != nil {
		return nil, err
	}

	// Для каждой беседы загружаем участников
	for i := range convs {
		if err := d.db.Model(&convs[i]).Association("Members").Find(&convs[i].Members); err != nil {
			return nil, err
		}
	}

	return convs, nil
}

// AddMembership добавляет пользователя в беседу
func (d *Database) AddMembership(userID, conversationID uuid.UUID) error {
	member := models.ConversationMember{
		ConversationID: conversationID,
		UserID:         userID,
	}
	return d.db.Create(&member).Error
}

// RemoveMembership удаляет членство и сообщает, существовало ли оно
func (d *Database) RemoveMembership(userID, conversationID uuid.UUID) (bool, error) {
	res := d.db.
		Where("conversation_id = ? AND user_id = ?", conversationID, userID).
		Delete(&models.ConversationMember{})

	if res.Error != nil {
		return false, res.Error
	}

	return res.RowsAffected > 0, nil
}

func (d *Database) CountMemberships(conversationID uuid.UUID) (int64, error) {
	var count int64
	err := d.db.Model(&models.ConversationMember{}).
		Where("conversation_id = ?", conversationID).
		Count(&count).Error
	return count, err
}

func (d *Database) IsMember(userID, conversationID uuid.UUID) (bool, error) {
	var count int64
	err := d.db.Model(&models.ConversationMember{}).
		Where("conversation_id = ? AND user_id = ?", conversationID, userID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// RemoveMembershipCascade удаляет членство и, если беседа опустела, саму беседу
// с сообщениями. Все в одной транзакции, чтобы параллельный join не потерял
// только что добавленного участника.
func (d *Database) RemoveMembershipCascade(userID, conversationID uuid.UUID) (removed bool, conversationDeleted bool, err error) {
	err = d.db.Transaction(func(tx *gorm.DB) error {
		res := tx.
			Where("conversation_id = ? AND user_id = ?", conversationID, userID).
			Delete(&models.ConversationMember{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		removed = true

		var remaining int64
		if err := tx.Model(&models.ConversationMember{}).
			Where("conversation_id = ?", conversationID).
			Count(&remaining).Error; err != nil {
			return err
		}
		if remaining > 0 {
			return nil
		}

		if err := tx.Delete(&models.Message{}, "conversation_id = ?", conversationID).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.Conversation{}, "id = ?", conversationID).Error; err != nil {
			return err
		}
		conversationDeleted = true
		return nil
	})
	return removed, conversationDeleted, err
}

// DeleteConversation удаляет беседу каскадно: сначала сообщения и членства, затем саму беседу
func (d *Database) DeleteConversation(conversationID uuid.UUID) error {
	return d.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.Message{}, "conversation_id = ?", conversationID).Error; err != nil {
			return err
		}

		if err := tx.Delete(&models.ConversationMember{}, "conversation_id = ?", conversationID).Error; err != nil {
			return err
		}

		return tx.Delete(&models.Conversation{}, "id = ?", conversationID).Error
	})
}
