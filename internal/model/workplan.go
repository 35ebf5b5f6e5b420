package model

import (
	"time"
)

// WorkPlan 的工作流和负责人必须引用已存在的记录
// swagger:model WorkPlan
type WorkPlan struct {
	BaseModel
	Title        string      `gorm:"size:255;not null" json:"title" binding:"required"`
	WorkStreamID uint        `gorm:"index;not null" json:"workStreamId" binding:"required"`
	WorkStream   *WorkStream `gorm:"constraint:OnDelete:RESTRICT" json:"-"`
	SupervisorID uint        `gorm:"index;not null" json:"supervisorId" binding:"required"`
	Supervisor   *Employee   `gorm:"constraint:OnDelete:RESTRICT" json:"-"`
	StartDate    *time.Time  `json:"startDate,omitempty"`
	EndDate      *time.Time  `json:"endDate,omitempty"`
	Status       string      `gorm:"size:30;default:'Planned'" json:"status"`
}

func (WorkPlan) TableName() string {
	return "workplans"
}

// Target 工作计划下的量化目标
// swagger:model Target
type Target struct {
	BaseModel
	WorkPlanID    uint      `gorm:"index;not null" json:"workPlanId" binding:"required"`
	WorkPlan      *WorkPlan `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Description   string    `gorm:"type:text;not null" json:"description" binding:"required"`
	TargetValue   float64   `json:"targetValue"`
	AchievedValue float64   `json:"achievedValue"`
	Status        string    `gorm:"size:30;default:'Pending'" json:"status"`
}

func (Target) TableName() string {
	return "targets"
}

// Schedule 员工的现场活动安排
// swagger:model Schedule
type Schedule struct {
	BaseModel
	EmployeeID   uint      `gorm:"index;not null" json:"employeeId" binding:"required"`
	Employee     *Employee `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Activity     string    `gorm:"size:255;not null" json:"activity" binding:"required"`
	Location     string    `gorm:"size:255" json:"location"`
	ScheduledFor time.Time `json:"scheduledFor"`
	Status       string    `gorm:"size:30;default:'Scheduled'" json:"status"`
}

func (Schedule) TableName() string {
	return "schedules"
}
