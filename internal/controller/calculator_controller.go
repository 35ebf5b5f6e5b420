package controller

import (
	"agri_training_backend/internal/model"
	"agri_training_backend/internal/service"
	"agri_training_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type CalculatorController struct {
	CalculatorService *service.CalculatorService
}

func NewCalculatorController(calculatorService *service.CalculatorService) *CalculatorController {
	return &CalculatorController{CalculatorService: calculatorService}
}

// PlantPopulation godoc
// @Summary 播种量计算
// @Description 根据行距、株距、面积和地区密度计算所需种子和包数
// @Tags 计算器
// @Accept  json
// @Produce  json
// @Param body body model.PopulationInput true "计算输入"
// @Success 200 {object} util.Response{data=model.PopulationResult}
// @Failure 400 {object} util.Response
// @Router /api/calculator/plant-population [post]
func (c *CalculatorController) PlantPopulation(ctx *gin.Context) {
	var in model.PopulationInput
	if err := ctx.ShouldBindJSON(&in); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.CalculatorService.Calculate(in)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, result)
}

// States godoc
// @Summary 可选地区
// @Tags 计算器
// @Produce  json
// @Success 200 {object} util.Response{data=[]string}
// @Router /api/calculator/states [get]
func (c *CalculatorController) States(ctx *gin.Context) {
	util.Success(ctx, c.CalculatorService.States())
}
