package controllers

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"medshift-http-service/internal/domain/models"
	"medshift-http-service/internal/domain/services"
	"medshift-http-service/internal/domain/services/container"
	"medshift-http-service/internal/error/code"
	"medshift-http-service/internal/error/response"
)

// InterfaceWorkerController 定义员工控制器接口
type InterfaceWorkerController interface {
	GetWorkers()
	GetWorker()
	CreateWorker()
	UpdateWorker()
	DeleteWorker()
	RegisterDestination()
}

// WorkerController 处理员工档案相关的请求
type WorkerController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewWorkerController 创建一个新的员工控制器
func NewWorkerController(ctx *gin.Context, container *container.ServiceContainer) *WorkerController {
	return &WorkerController{
		Ctx:       ctx,
		Container: container,
	}
}

// HandleWorkerFunc 返回一个处理员工请求的Gin处理函数
func HandleWorkerFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewWorkerController(ctx, container)

		switch method {
		case "getWorkers":
			controller.GetWorkers()
		case "getWorker":
			controller.GetWorker()
		case "createWorker":
			controller.CreateWorker()
		case "updateWorker":
			controller.UpdateWorker()
		case "deleteWorker":
			controller.DeleteWorker()
		case "registerDestination":
			controller.RegisterDestination()
		default:
			response.ParamError(ctx, "无效的方法")
		}
	}
}

// CreateWorkerRequest 创建员工请求
type CreateWorkerRequest struct {
	Name        string  `json:"name" binding:"required" example:"张护士"`
	Phone       string  `json:"phone" binding:"required" example:"13812345678"`
	Role        string  `json:"role" example:"RN"`
	Department  string  `json:"department" example:"ICU"`
	HourlyRate  float64 `json:"hourly_rate" example:"38.5"`
	Destination string  `json:"destination" example:"acct-88213"`
	Username    string  `json:"username" example:"zhangsan"`
	Password    string  `json:"password" example:"secret123"`
	Remark      string  `json:"remark" example:"夜班优先"`
}

// DestinationRequest 登记收款账户请求
type DestinationRequest struct {
	Destination string `json:"destination" binding:"required" example:"acct-88213"`
}

// GetWorkers 获取员工列表
// @Summary      获取员工列表
// @Description  分页获取员工列表，支持按姓名/手机号搜索
// @Tags         Worker
// @Produce      json
// @Param        page query int false "页码" example:"1"
// @Param        page_size query int false "每页数量" example:"10"
// @Param        search query string false "搜索关键词"
// @Success      200  {object}  map[string]interface{}
// @Router       /workers [get]
// @Security     BearerAuth
func (c *WorkerController) GetWorkers() {
	page, _ := strconv.Atoi(c.Ctx.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.Ctx.DefaultQuery("page_size", "10"))
	search := c.Ctx.Query("search")

	identityService := c.Container.GetService("identity").(services.InterfaceIdentityService)

	workers, total, err := identityService.GetAllWorkers(page, pageSize, search)
	if err != nil {
		response.FailWithMessage(c.Ctx, code.ErrDatabase, "获取员工列表失败: "+err.Error(), nil)
		return
	}

	response.Success(c.Ctx, gin.H{
		"workers": workers,
		"pagination": gin.H{
			"page":      page,
			"page_size": pageSize,
			"total":     total,
		},
	})
}

// GetWorker 获取单个员工
// @Summary      获取员工详情
// @Description  根据ID获取员工档案
// @Tags         Worker
// @Produce      json
// @Param        id path int true "员工ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  ErrorResponse
// @Router       /workers/{id} [get]
// @Security     BearerAuth
func (c *WorkerController) GetWorker() {
	id, err := c.idParam()
	if err != nil {
		response.ParamError(c.Ctx, "无效的员工ID参数")
		return
	}

	identityService := c.Container.GetService("identity").(services.InterfaceIdentityService)

	worker, err := identityService.GetWorkerByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.Fail(c.Ctx, code.ErrWorkerNotFound, nil)
			return
		}
		response.FailWithMessage(c.Ctx, code.ErrDatabase, "获取员工失败: "+err.Error(), nil)
		return
	}

	response.Success(c.Ctx, worker)
}

// CreateWorker 创建员工
// @Summary      创建员工
// @Description  创建新的员工档案，手机号唯一
// @Tags         Worker
// @Accept       json
// @Produce      json
// @Param        request body CreateWorkerRequest true "员工信息"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  ErrorResponse
// @Router       /workers [post]
// @Security     BearerAuth
func (c *WorkerController) CreateWorker() {
	var req CreateWorkerRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.FailWithMessage(c.Ctx, code.ErrBind, "无效的请求参数", nil)
		return
	}

	worker := &models.Worker{
		Name:        req.Name,
		Phone:       req.Phone,
		Role:        req.Role,
		Department:  req.Department,
		HourlyRate:  req.HourlyRate,
		Destination: req.Destination,
		Username:    req.Username,
		Password:    req.Password,
		Remark:      req.Remark,
	}

	identityService := c.Container.GetService("identity").(services.InterfaceIdentityService)

	if err := identityService.CreateWorker(worker); err != nil {
		response.FailWithMessage(c.Ctx, code.ErrWorkerAlreadyExist, "创建员工失败: "+err.Error(), nil)
		return
	}

	response.Success(c.Ctx, worker)
}

// UpdateWorker 更新员工
// @Summary      更新员工
// @Description  更新员工档案字段
// @Tags         Worker
// @Accept       json
// @Produce      json
// @Param        id path int true "员工ID"
// @Param        request body map[string]interface{} true "待更新字段"
// @Success      200  {object}  map[string]interface{}
// @Router       /workers/{id} [put]
// @Security     BearerAuth
func (c *WorkerController) UpdateWorker() {
	id, err := c.idParam()
	if err != nil {
		response.ParamError(c.Ctx, "无效的员工ID参数")
		return
	}

	var updates map[string]interface{}
	if err := c.Ctx.ShouldBindJSON(&updates); err != nil {
		response.FailWithMessage(c.Ctx, code.ErrBind, "无效的请求参数", nil)
		return
	}

	identityService := c.Container.GetService("identity").(services.InterfaceIdentityService)

	worker, err := identityService.UpdateWorker(id, updates)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.Fail(c.Ctx, code.ErrWorkerNotFound, nil)
			return
		}
		response.FailWithMessage(c.Ctx, code.ErrDatabase, "更新员工失败: "+err.Error(), nil)
		return
	}

	response.Success(c.Ctx, worker)
}

// DeleteWorker 删除员工
// @Summary      删除员工
// @Description  根据ID删除员工档案
// @Tags         Worker
// @Produce      json
// @Param        id path int true "员工ID"
// @Success      200  {object}  map[string]interface{}
// @Router       /workers/{id} [delete]
// @Security     BearerAuth
func (c *WorkerController) DeleteWorker() {
	id, err := c.idParam()
	if err != nil {
		response.ParamError(c.Ctx, "无效的员工ID参数")
		return
	}

	identityService := c.Container.GetService("identity").(services.InterfaceIdentityService)

	if err := identityService.DeleteWorker(id); err != nil {
		response.FailWithMessage(c.Ctx, code.ErrDatabase, "删除员工失败: "+err.Error(), nil)
		return
	}

	response.Success(c.Ctx, gin.H{"id": id})
}

// RegisterDestination 登记收款账户
// @Summary      登记收款账户
// @Description  为员工登记结算收款账户，挂起的结算在下次结算时恢复
// @Tags         Worker
// @Accept       json
// @Produce      json
// @Param        id path int true "员工ID"
// @Param        request body DestinationRequest true "收款账户"
// @Success      200  {object}  map[string]interface{}
// @Router       /workers/{id}/destination [post]
// @Security     BearerAuth
func (c *WorkerController) RegisterDestination() {
	id, err := c.idParam()
	if err != nil {
		response.ParamError(c.Ctx, "无效的员工ID参数")
		return
	}

	var req DestinationRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.FailWithMessage(c.Ctx, code.ErrBind, "无效的请求参数", nil)
		return
	}

	identityService := c.Container.GetService("identity").(services.InterfaceIdentityService)

	if err := identityService.RegisterDestination(id, req.Destination); err != nil {
		response.FailWithMessage(c.Ctx, code.ErrDatabase, "登记收款账户失败: "+err.Error(), nil)
		return
	}

	response.Success(c.Ctx, gin.H{
		"worker_id":   id,
		"destination": req.Destination,
	})
}

// idParam 解析URL中的ID参数
func (c *WorkerController) idParam() (uint, error) {
	idStr := c.Ctx.Param("id")
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}
