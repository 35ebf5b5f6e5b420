package model

type UserRole string

const (
	Admin  UserRole = "admin"
	Member UserRole = "member"
)

// Identity 是统一后的登录主体：管理员来自配置，成员来自 employees 表
// swagger:model Identity
type Identity struct {
	Subject    string   `json:"subject"`
	Name       string   `json:"name"`
	Role       UserRole `json:"role"`
	EmployeeID uint     `json:"employeeId,omitempty"`
}

func (i *Identity) IsAdmin() bool {
	return i != nil && i.Role == Admin
}
