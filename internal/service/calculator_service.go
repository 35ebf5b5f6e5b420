package service

import (
	"agri_training_backend/internal/config"
	"agri_training_backend/internal/model"
	"agri_training_backend/internal/util"
	"agri_training_backend/pkg/monitoring"
	"errors"
	"math"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

const (
	SquareMetersPerAcre = 4046.86
	centimetersPerMeter = 100.0
)

// CalculatorService 棉花播种量计算
type CalculatorService struct {
	validate *validator.Validate

	mu              sync.RWMutex
	densities       map[string]float64
	names           map[string]string
	germinationRate float64
	seedsPerPacket  float64
}

func NewCalculatorService(cfg *config.CalculatorConfig) *CalculatorService {
	v := validator.New()
	// 错误信息里使用 json 字段名
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	s := &CalculatorService{validate: v}
	s.Reload(cfg)
	return s
}

// Reload 热更新密度表等参数
func (s *CalculatorService) Reload(cfg *config.CalculatorConfig) {
	densities := make(map[string]float64, len(cfg.Densities))
	names := make(map[string]string, len(cfg.Densities))
	for k, v := range cfg.Densities {
		densities[strings.ToLower(k)] = v
		names[strings.ToLower(k)] = k
	}
	for _, name := range cfg.StateNames {
		if _, ok := densities[strings.ToLower(name)]; ok {
			names[strings.ToLower(name)] = name
		}
	}

	germination := cfg.GerminationRate
	if germination <= 0 || germination > 1 {
		germination = 0.90
	}
	perPacket := cfg.SeedsPerPacket
	if perPacket <= 0 {
		perPacket = 7500
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.densities = densities
	s.names = names
	s.germinationRate = germination
	s.seedsPerPacket = perPacket
}

// States 可选地区的显示名，按小写键排序
func (s *CalculatorService) States() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.densities))
	for k := range s.densities {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	states := make([]string, len(keys))
	for i, k := range keys {
		states[i] = s.names[k]
	}
	return states
}

// Calculate 任一输入不合法时整体拒绝，不返回部分结果
func (s *CalculatorService) Calculate(in model.PopulationInput) (*model.PopulationResult, error) {
	in.FarmerName = strings.TrimSpace(in.FarmerName)
	in.FarmerID = strings.TrimSpace(in.FarmerID)
	in.State = strings.TrimSpace(in.State)
	in.SpacingUnit = strings.ToLower(strings.TrimSpace(in.SpacingUnit))

	if err := s.validate.Struct(in); err != nil {
		return nil, translateValidation(err)
	}
	for field, v := range map[string]float64{"rowSpacing": in.RowSpacing, "plantSpacing": in.PlantSpacing, "landAcres": in.LandAcres} {
		if math.IsInf(v, 0) || math.IsNaN(v) {
			return nil, util.NewValidationError(field, "must be a finite number")
		}
	}

	s.mu.RLock()
	density, ok := s.densities[strings.ToLower(in.State)]
	display := s.names[strings.ToLower(in.State)]
	germination := s.germinationRate
	perPacket := s.seedsPerPacket
	s.mu.RUnlock()
	if !ok {
		return nil, util.NewValidationError("state", "unknown state %q", in.State)
	}

	rowM, plantM := in.RowSpacing, in.PlantSpacing
	if in.SpacingUnit == "cm" {
		rowM /= centimetersPerMeter
		plantM /= centimetersPerMeter
	}

	plantArea := rowM * plantM
	plantsPerM2 := 1 / plantArea
	fieldArea := in.LandAcres * SquareMetersPerAcre
	capacity := plantsPerM2 * fieldArea
	target := density * in.LandAcres
	seeds := target / germination

	if err := checkRange(plantArea, plantsPerM2, fieldArea, capacity, target, seeds); err != nil {
		return nil, err
	}

	monitoring.CalculatorRuns.WithLabelValues(strings.ToLower(in.State)).Inc()

	return &model.PopulationResult{
		FarmerName:         in.FarmerName,
		FarmerID:           in.FarmerID,
		State:              display,
		RowSpacingM:        rowM,
		PlantSpacingM:      plantM,
		PlantAreaM2:        plantArea,
		PlantsPerM2:        plantsPerM2,
		FieldAreaM2:        fieldArea,
		CalculatedCapacity: int64(math.Round(capacity)),
		TargetPlants:       int64(math.Round(target)),
		RequiredSeeds:      int64(math.Round(seeds)),
		RequiredPackets:    int64(math.Floor(seeds / perPacket)),
	}, nil
}

// maxCount 超过该值的计数无法用 int64 表示
const maxCount = float64(math.MaxInt64)

func inRange(v float64) bool {
	return !math.IsInf(v, 0) && !math.IsNaN(v) && v < maxCount
}

// checkRange 极端间距或面积会让中间结果下溢为 0 或溢出
func checkRange(plantArea, plantsPerM2, fieldArea, capacity, target, seeds float64) error {
	if plantArea == 0 || !inRange(plantsPerM2) || !inRange(plantsPerM2*SquareMetersPerAcre) {
		return util.NewValidationError("rowSpacing", "spacing produces a result out of range")
	}
	if !inRange(fieldArea) || !inRange(capacity) || !inRange(target) || !inRange(seeds) {
		return util.NewValidationError("landAcres", "produces a result out of range")
	}
	return nil
}

// translateValidation 只报告第一个不合法字段
func translateValidation(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return util.NewValidationError("", "%v", err)
	}

	fe := verrs[0]
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return util.NewValidationError(field, "is required")
	case "oneof":
		return util.NewValidationError(field, "must be one of: %s", fe.Param())
	case "gt":
		return util.NewValidationError(field, "must be greater than %s", fe.Param())
	default:
		return util.NewValidationError(field, "is invalid")
	}
}
