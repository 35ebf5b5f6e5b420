package controller

import (
	"agri_training_backend/internal/service"
	"agri_training_backend/internal/util"
	"strconv"

	"github.com/gin-gonic/gin"
)

// EntityController PMU 表的通用增删改查接口
type EntityController[T any, PT service.EntityModel[T]] struct {
	Service *service.EntityService[T, PT]
}

func NewEntityController[T any, PT service.EntityModel[T]](svc *service.EntityService[T, PT]) *EntityController[T, PT] {
	return &EntityController[T, PT]{Service: svc}
}

func pageParams(ctx *gin.Context) (int, int) {
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "50"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 200 {
		limit = 50
	}
	return page, limit
}

func (c *EntityController[T, PT]) List(ctx *gin.Context) {
	page, limit := pageParams(ctx)
	result, err := c.Service.List(ctx.Request.Context(), page, limit)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, result)
}

func (c *EntityController[T, PT]) Get(ctx *gin.Context) {
	id, err := util.ParseIDParam(ctx, "id")
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	item, err := c.Service.Get(ctx.Request.Context(), id)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, item)
}

func (c *EntityController[T, PT]) Create(ctx *gin.Context) {
	item := new(T)
	if err := ctx.ShouldBindJSON(item); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	created, err := c.Service.Create(ctx.Request.Context(), item)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, created)
}

func (c *EntityController[T, PT]) Update(ctx *gin.Context) {
	id, err := util.ParseIDParam(ctx, "id")
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	item := new(T)
	if err := ctx.ShouldBindJSON(item); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	updated, err := c.Service.Update(ctx.Request.Context(), id, item)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, updated)
}

func (c *EntityController[T, PT]) Delete(ctx *gin.Context) {
	id, err := util.ParseIDParam(ctx, "id")
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	if err := c.Service.Delete(ctx.Request.Context(), id); err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"id": id})
}

// Register 成员只读，写操作需要管理员
func (c *EntityController[T, PT]) Register(read, write *gin.RouterGroup, path string) {
	read.GET(path, c.List)
	read.GET(path+"/:id", c.Get)
	write.POST(path, c.Create)
	write.PUT(path+"/:id", c.Update)
	write.DELETE(path+"/:id", c.Delete)
}

// EmployeeController 员工需要单独处理密码
type EmployeeController struct {
	EmployeeService *service.EmployeeService
}

func NewEmployeeController(employeeService *service.EmployeeService) *EmployeeController {
	return &EmployeeController{EmployeeService: employeeService}
}

func (c *EmployeeController) List(ctx *gin.Context) {
	page, limit := pageParams(ctx)
	result, err := c.EmployeeService.List(ctx.Request.Context(), page, limit)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, result)
}

func (c *EmployeeController) Get(ctx *gin.Context) {
	id, err := util.ParseIDParam(ctx, "id")
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	employee, err := c.EmployeeService.Get(ctx.Request.Context(), id)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, employee)
}

func (c *EmployeeController) Create(ctx *gin.Context) {
	var in service.EmployeeInput
	if err := ctx.ShouldBindJSON(&in); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	employee, err := c.EmployeeService.Create(ctx.Request.Context(), &in)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, employee)
}

func (c *EmployeeController) Update(ctx *gin.Context) {
	id, err := util.ParseIDParam(ctx, "id")
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	var in service.EmployeeInput
	if err := ctx.ShouldBindJSON(&in); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	employee, err := c.EmployeeService.Update(ctx.Request.Context(), id, &in)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, employee)
}

func (c *EmployeeController) Delete(ctx *gin.Context) {
	id, err := util.ParseIDParam(ctx, "id")
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	if err := c.EmployeeService.Delete(ctx.Request.Context(), id); err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"id": id})
}

func (c *EmployeeController) Register(read, write *gin.RouterGroup, path string) {
	read.GET(path, c.List)
	read.GET(path+"/:id", c.Get)
	write.POST(path, c.Create)
	write.PUT(path+"/:id", c.Update)
	write.DELETE(path+"/:id", c.Delete)
}
