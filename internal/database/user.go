package database

import (
	"github.com/google/uuid"
	"github.com/thereayou/convoy/internal/models"
	"time"
)

func (d *Database) SaveUser(user *models.User) error {
	if err := d.db.Create(user).Error; err != nil {
		return err
	}
	return nil
}

func (d *Database) GetUser(id string) (*models.User, error) {
	user := models.User{}
	if err := d.db.First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (d *Database) FindUserByEmail(email string) (*models.User, error) {
	user := models.User{}
	if err := d.db.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// UserExists проверяет, существует ли пользователь
func (d *Database) UserExists(id uuid.UUID) (bool, error) {
	var count int64
	if err := d.db.Model(&models.User{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// ResolveUser возвращает пользователя по id
func (d *Database) ResolveUser(id uuid.UUID) (*models.User, error) {
	return d.GetUser(id.String())
}

func (d *Database) UpdateLastSeen(id string) error {
	return d.db.Model(&models.User{}).Where("id = ?", id).Update("last_seen_at", time.Now()).Error
}
