package model

import (
	"time"
)

// swagger:model
type BaseModel struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// 默认状态字符串
const (
	StatusActive    = "Active"
	StatusPlanned   = "Planned"
	StatusPending   = "Pending"
	StatusScheduled = "Scheduled"
)

func (b *BaseModel) GetID() uint {
	return b.ID
}

func (b *BaseModel) SetID(id uint) {
	b.ID = id
}
