package model

import "time"

// AdminUser — учётная запись администратора панели управления.
// Хранится в таблице admin_users.
type AdminUser struct {
	// ID — UUID администратора
	ID string
	// Email — уникальный email (логин)
	Email string
	// PasswordHash — bcrypt-хеш пароля
	PasswordHash string
	// CreatedAt — время создания записи
	CreatedAt time.Time
}
