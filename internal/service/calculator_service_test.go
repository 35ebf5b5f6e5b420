package service

import (
	"math"
	"testing"

	"agri_training_backend/internal/config"
	"agri_training_backend/internal/model"
	"agri_training_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCalculator() *CalculatorService {
	return NewCalculatorService(&config.CalculatorConfig{
		Densities:       map[string]float64{"regionA": 14000, "regionB": 7400},
		GerminationRate: 0.90,
		SeedsPerPacket:  7500,
	})
}

func validInput() model.PopulationInput {
	return model.PopulationInput{
		FarmerName:   "Sunita Jadhav",
		FarmerID:     "F-1042",
		State:        "regionA",
		SpacingUnit:  "cm",
		RowSpacing:   60,
		PlantSpacing: 30,
		LandAcres:    10,
	}
}

func TestCalculateWorkedExample(t *testing.T) {
	res, err := newCalculator().Calculate(validInput())
	require.NoError(t, err)

	assert.InDelta(t, 0.6, res.RowSpacingM, 1e-9)
	assert.InDelta(t, 0.3, res.PlantSpacingM, 1e-9)
	assert.InDelta(t, 0.18, res.PlantAreaM2, 1e-9)
	assert.InDelta(t, 5.5556, res.PlantsPerM2, 1e-4)
	assert.InDelta(t, 40468.6, res.FieldAreaM2, 1e-6)
	assert.Equal(t, int64(224826), res.CalculatedCapacity)
	assert.Equal(t, int64(140000), res.TargetPlants)
	assert.Equal(t, int64(155556), res.RequiredSeeds)
	assert.Equal(t, int64(20), res.RequiredPackets)
	assert.Equal(t, "Sunita Jadhav", res.FarmerName)
}

func TestCalculateUnitsAreEquivalent(t *testing.T) {
	calc := newCalculator()

	inCM := validInput()
	inM := validInput()
	inM.SpacingUnit = "M"
	inM.RowSpacing = 0.6
	inM.PlantSpacing = 0.3

	a, err := calc.Calculate(inCM)
	require.NoError(t, err)
	b, err := calc.Calculate(inM)
	require.NoError(t, err)
	assert.Equal(t, a.CalculatedCapacity, b.CalculatedCapacity)
	assert.Equal(t, a.RequiredPackets, b.RequiredPackets)
}

func TestCalculateStateIsCaseInsensitive(t *testing.T) {
	in := validInput()
	in.State = "  REGIONB "
	res, err := newCalculator().Calculate(in)
	require.NoError(t, err)
	assert.Equal(t, int64(74000), res.TargetPlants)
	assert.Equal(t, int64(82222), res.RequiredSeeds)
	assert.Equal(t, int64(10), res.RequiredPackets)
	assert.Equal(t, "regionB", res.State)
}

func TestCalculateRejectsInvalidInput(t *testing.T) {
	cases := map[string]struct {
		mutate func(*model.PopulationInput)
		field  string
	}{
		"missing name":   {func(in *model.PopulationInput) { in.FarmerName = "  " }, "farmerName"},
		"missing id":     {func(in *model.PopulationInput) { in.FarmerID = "" }, "farmerId"},
		"bad unit":       {func(in *model.PopulationInput) { in.SpacingUnit = "inch" }, "spacingUnit"},
		"zero row":       {func(in *model.PopulationInput) { in.RowSpacing = 0 }, "rowSpacing"},
		"negative plant": {func(in *model.PopulationInput) { in.PlantSpacing = -1 }, "plantSpacing"},
		"zero land":      {func(in *model.PopulationInput) { in.LandAcres = 0 }, "landAcres"},
		"infinite land":  {func(in *model.PopulationInput) { in.LandAcres = math.Inf(1) }, "landAcres"},
		"unknown state":  {func(in *model.PopulationInput) { in.State = "atlantis" }, "state"},
		"tiny spacing": {func(in *model.PopulationInput) {
			in.RowSpacing = 1e-200
			in.PlantSpacing = 1e-200
		}, "rowSpacing"},
		"dense spacing": {func(in *model.PopulationInput) {
			in.RowSpacing = 1e-10
			in.PlantSpacing = 1e-10
		}, "rowSpacing"},
		"huge land":        {func(in *model.PopulationInput) { in.LandAcres = 1e300 }, "landAcres"},
		"overflowing land": {func(in *model.PopulationInput) { in.LandAcres = 1e16 }, "landAcres"},
	}

	calc := newCalculator()
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			in := validInput()
			tc.mutate(&in)
			res, err := calc.Calculate(in)
			assert.Nil(t, res)

			var ve *util.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tc.field, ve.Field)
		})
	}
}

func TestCalculatorReloadAndStates(t *testing.T) {
	calc := newCalculator()
	assert.Equal(t, []string{"regionA", "regionB"}, calc.States())

	calc.Reload(&config.CalculatorConfig{Densities: map[string]float64{"RegionC": 10000}})
	assert.Equal(t, []string{"RegionC"}, calc.States())

	// 配置文件加载后键是小写，显示名来自 StateNames
	calc.Reload(&config.CalculatorConfig{
		Densities:  map[string]float64{"regionc": 10000, "regiond": 9000},
		StateNames: []string{"RegionC", "Unused"},
	})
	assert.Equal(t, []string{"RegionC", "regiond"}, calc.States())

	in := validInput()
	in.State = "regionC"
	res, err := calc.Calculate(in)
	require.NoError(t, err)
	// 非法的发芽率和每包粒数回退到默认值
	assert.Equal(t, int64(111111), res.RequiredSeeds)
	assert.Equal(t, int64(14), res.RequiredPackets)
}
