package model

import (
	"time"
)

// Task 分配给田间小组的任务，负责人可选
// swagger:model Task
type Task struct {
	BaseModel
	Title       string     `gorm:"size:255;not null" json:"title" binding:"required"`
	Description string     `gorm:"type:text" json:"description"`
	FieldTeamID uint       `gorm:"index;not null" json:"fieldTeamId" binding:"required"`
	FieldTeam   *FieldTeam `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	AssigneeID  *uint      `gorm:"index" json:"assigneeId,omitempty"`
	Assignee    *Employee  `gorm:"constraint:OnDelete:SET NULL" json:"-"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	Status      string     `gorm:"size:30;default:'Pending'" json:"status"`
}

func (Task) TableName() string {
	return "tasks"
}
