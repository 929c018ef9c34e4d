package models

import "time"

// Setting is a key-value configuration entry partitioned by category.
type Setting struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Key         string    `gorm:"column:key;unique;not null;size:100;index" json:"key"`
	Value       string    `gorm:"column:value;type:text;not null" json:"value"`
	Description string    `gorm:"column:description;type:text" json:"description,omitempty"`
	Category    string    `gorm:"column:category;size:50;not null;default:'general';index" json:"category"`
	CreatedAt   time.Time `gorm:"column:created_at;default:CURRENT_TIMESTAMP" json:"createdAt"`
	UpdatedAt   time.Time `gorm:"column:updated_at;default:CURRENT_TIMESTAMP" json:"updatedAt"`
}

func (Setting) TableName() string {
	return "settings"
}
