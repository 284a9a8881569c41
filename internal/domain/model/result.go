package model

import "time"

// ResultRecord — запись галереи результатов.
// Хранится в таблице results.
type ResultRecord struct {
	// ID — UUID записи (задаётся при создании)
	ID string
	// Title — подпись к изображению
	Title string
	// ImageURL — постоянная публичная ссылка на изображение
	ImageURL string
	// StorageKey — ключ объекта в хранилище; используется только при удалении.
	// NULL для записей, созданных до появления поля, — это не ошибка данных.
	StorageKey *string
	// IsPinned — закреплена ли запись на главной странице
	IsPinned bool
	// CreatedAt — время создания; ключ сортировки (новые первыми)
	CreatedAt time.Time
}
