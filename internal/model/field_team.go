package model

// swagger:model FieldTeam
type FieldTeam struct {
	BaseModel
	Name     string    `gorm:"size:150;not null" json:"name" binding:"required"`
	Region   string    `gorm:"size:100" json:"region"`
	LeaderID uint      `gorm:"index;not null" json:"leaderId" binding:"required"`
	Leader   *Employee `gorm:"constraint:OnDelete:RESTRICT" json:"-"`
	Status   string    `gorm:"size:30;default:'Active'" json:"status"`
}

func (FieldTeam) TableName() string {
	return "field_teams"
}

// FarmerData 田间小组采集的农户产量记录
// swagger:model FarmerData
type FarmerData struct {
	BaseModel
	FarmerName  string     `gorm:"size:150;not null" json:"farmerName" binding:"required"`
	FarmerCode  string     `gorm:"size:50;index" json:"farmerCode"`
	FieldTeamID uint       `gorm:"index;not null" json:"fieldTeamId" binding:"required"`
	FieldTeam   *FieldTeam `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Crop        string     `gorm:"size:50" json:"crop"`
	Acres       float64    `json:"acres"`
	YieldKg     float64    `json:"yieldKg"`
	Season      string     `gorm:"size:30" json:"season"`
}

func (FarmerData) TableName() string {
	return "farmer_data"
}
