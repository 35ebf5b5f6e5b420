package model

// Employee 既是 PMU 员工档案，也是成员登录账号
// swagger:model Employee
type Employee struct {
	BaseModel
	Name         string `gorm:"size:100;not null" json:"name"`
	Email        string `gorm:"size:100;uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"size:100;not null" json:"-"`
	Designation  string `gorm:"size:100" json:"designation"`
}

func (Employee) TableName() string {
	return "employees"
}

// MemberOption 是成员登录下拉框中的一项
type MemberOption struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}
