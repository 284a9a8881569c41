// errors.go — ошибки бизнес-логики сервисного слоя.
package service

import "errors"

var (
	// ErrNotFound — ресурс не найден.
	ErrNotFound = errors.New("ресурс не найден")
	// ErrValidation — ошибка валидации входных данных.
	ErrValidation = errors.New("ошибка валидации")
	// ErrPinLimit — достигнут лимит закреплённых записей.
	ErrPinLimit = errors.New("достигнут лимит закреплённых записей")
	// ErrUpload — загрузка в объектное хранилище не удалась.
	ErrUpload = errors.New("ошибка загрузки в объектное хранилище")
	// ErrInvalidCredentials — неверные учётные данные администратора.
	ErrInvalidCredentials = errors.New("неверный email или пароль")
)
