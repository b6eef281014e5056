package models

import "time"

// BaseModel is gorm.Model without DeletedAt: rows are removed for real.
type BaseModel struct {
	ID        uint `gorm:"primarykey"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
