package model

import (
	"gorm.io/datatypes"
)

// QuizRecord 持久化的测验记录，只在有会话时写入
// swagger:model QuizRecord
type QuizRecord struct {
	BaseModel
	Subject    string         `gorm:"size:150;index;not null" json:"subject"`
	EmployeeID *uint          `gorm:"index" json:"employeeId,omitempty"`
	Program    ProgramKey     `gorm:"size:20;not null" json:"program"`
	QuizFile   string         `gorm:"size:255;not null" json:"quizFile"`
	Score      int            `gorm:"not null" json:"score"`
	Total      int            `gorm:"not null" json:"total"`
	Answers    datatypes.JSON `json:"answers"`
}

func (QuizRecord) TableName() string {
	return "quiz_records"
}
