package model

// Program 是 PMU 视角的项目（棉花、奶业等）
// swagger:model Program
type Program struct {
	BaseModel
	Name        string `gorm:"size:100;uniqueIndex;not null" json:"name" binding:"required"`
	Description string `gorm:"type:text" json:"description"`
	Status      string `gorm:"size:30;default:'Active'" json:"status"`
}

func (Program) TableName() string {
	return "programs"
}

// WorkStream 隶属于某个项目的工作流
// swagger:model WorkStream
type WorkStream struct {
	BaseModel
	Name      string   `gorm:"size:150;not null" json:"name" binding:"required"`
	ProgramID uint     `gorm:"index;not null" json:"programId" binding:"required"`
	Program   *Program `gorm:"constraint:OnDelete:RESTRICT" json:"-"`
	Status    string   `gorm:"size:30;default:'Active'" json:"status"`
}

func (WorkStream) TableName() string {
	return "workstreams"
}
