package model

// PopulationInput 播种量计算输入
// swagger:model PopulationInput
type PopulationInput struct {
	FarmerName   string  `json:"farmerName" validate:"required"`
	FarmerID     string  `json:"farmerId" validate:"required"`
	State        string  `json:"state" validate:"required"`
	SpacingUnit  string  `json:"spacingUnit" validate:"required,oneof=cm m"`
	RowSpacing   float64 `json:"rowSpacing" validate:"gt=0"`
	PlantSpacing float64 `json:"plantSpacing" validate:"gt=0"`
	LandAcres    float64 `json:"landAcres" validate:"gt=0"`
}

// PopulationResult 除 RequiredPackets 外均为四舍五入后的整数
// swagger:model PopulationResult
type PopulationResult struct {
	FarmerName         string  `json:"farmerName"`
	FarmerID           string  `json:"farmerId"`
	State              string  `json:"state"`
	RowSpacingM        float64 `json:"rowSpacingM"`
	PlantSpacingM      float64 `json:"plantSpacingM"`
	PlantAreaM2        float64 `json:"plantAreaM2"`
	PlantsPerM2        float64 `json:"plantsPerM2"`
	FieldAreaM2        float64 `json:"fieldAreaM2"`
	CalculatedCapacity int64   `json:"calculatedCapacity"`
	TargetPlants       int64   `json:"targetPlants"`
	RequiredSeeds      int64   `json:"requiredSeeds"`
	RequiredPackets    int64   `json:"requiredPackets"`
}
