package controllers

import (
	"errors"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"medshift-http-service/internal/domain/services"
	"medshift-http-service/internal/domain/services/container"
	"medshift-http-service/internal/error/code"
	"medshift-http-service/internal/error/response"
)

// InterfaceCensusController 定义排班人力控制器接口
type InterfaceCensusController interface {
	SubmitCensus()
	GetCensus()
	GetRequiredStaff()
}

// CensusController 处理科室患者普查和人力配比相关的请求
type CensusController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewCensusController 创建一个新的普查控制器
func NewCensusController(ctx *gin.Context, container *container.ServiceContainer) *CensusController {
	return &CensusController{
		Ctx:       ctx,
		Container: container,
	}
}

// HandleCensusFunc 返回一个处理普查请求的Gin处理函数
func HandleCensusFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewCensusController(ctx, container)

		switch method {
		case "submitCensus":
			controller.SubmitCensus()
		case "getCensus":
			controller.GetCensus()
		case "getRequiredStaff":
			controller.GetRequiredStaff()
		default:
			response.ParamError(ctx, "无效的方法")
		}
	}
}

// CensusRequest 提交科室普查请求
type CensusRequest struct {
	Department    string  `json:"department" binding:"required" example:"ICU"`
	TotalPatients int     `json:"total_patients" binding:"min=0" example:"18"`
	HighAcuity    int     `json:"high_acuity" binding:"min=0" example:"6"`
	UpdatedBy     uint    `json:"updated_by" binding:"required" example:"1"`
	BaseRate      float64 `json:"base_rate" example:"38.5"`
}

// SubmitCensus 提交科室普查
// @Summary      提交科室患者普查
// @Description  上报科室患者数和重症数，计算所需人力与缺口；人力不足时自动触发加价广播
// @Tags         Census
// @Accept       json
// @Produce      json
// @Param        request body CensusRequest true "普查数据"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  ErrorResponse
// @Router       /census [post]
// @Security     BearerAuth
func (c *CensusController) SubmitCensus() {
	var req CensusRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.FailWithMessage(c.Ctx, code.ErrBind, "无效的请求参数", nil)
		return
	}

	if req.HighAcuity > req.TotalPatients {
		response.FailWithMessage(c.Ctx, code.ErrValidation, "重症患者数不能超过患者总数", nil)
		return
	}

	staffingService := c.Container.GetService("staffing").(services.InterfaceStaffingService)

	report, err := staffingService.SubmitCensus(req.Department, req.TotalPatients, req.HighAcuity, req.UpdatedBy, req.BaseRate)
	if err != nil {
		response.FailWithMessage(c.Ctx, code.ErrDatabase, "提交普查失败: "+err.Error(), nil)
		return
	}

	// 普查已更新，刷新科室缓存快照
	redisService := c.Container.GetService("redis").(services.InterfaceRedisService)
	if census, err := staffingService.GetCensus(req.Department); err == nil {
		_ = redisService.CacheCensus(census, 60*time.Second)
	}

	response.Success(c.Ctx, report)
}

// GetCensus 查询科室普查
// @Summary      查询科室普查
// @Description  按科室查询最近一次患者普查记录
// @Tags         Census
// @Produce      json
// @Param        department path string true "科室名称" example:"ICU"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  ErrorResponse
// @Router       /census/{department} [get]
// @Security     BearerAuth
func (c *CensusController) GetCensus() {
	department := c.Ctx.Param("department")
	if department == "" {
		response.ParamError(c.Ctx, "无效的科室参数")
		return
	}

	redisService := c.Container.GetService("redis").(services.InterfaceRedisService)
	if census, err := redisService.GetCensus(department); err == nil {
		response.Success(c.Ctx, census)
		return
	}

	staffingService := c.Container.GetService("staffing").(services.InterfaceStaffingService)

	census, err := staffingService.GetCensus(department)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c.Ctx, "科室尚无普查记录")
			return
		}
		response.FailWithMessage(c.Ctx, code.ErrDatabase, "查询普查失败: "+err.Error(), nil)
		return
	}

	_ = redisService.CacheCensus(census, 60*time.Second)

	response.Success(c.Ctx, census)
}

// GetRequiredStaff 试算需求人数
// @Summary      试算需求人数
// @Description  按患者总数与重症数试算所需人力，不落库不触发广播
// @Tags         Census
// @Produce      json
// @Param        total_patients query int true "患者总数" example:"10"
// @Param        high_acuity query int true "重症患者数" example:"3"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  ErrorResponse
// @Router       /staffing/required [get]
// @Security     BearerAuth
func (c *CensusController) GetRequiredStaff() {
	totalPatients, err := strconv.Atoi(c.Ctx.Query("total_patients"))
	if err != nil || totalPatients < 0 {
		response.ParamError(c.Ctx, "无效的患者总数参数")
		return
	}
	highAcuity, err := strconv.Atoi(c.Ctx.Query("high_acuity"))
	if err != nil || highAcuity < 0 || highAcuity > totalPatients {
		response.ParamError(c.Ctx, "无效的重症患者数参数")
		return
	}

	staffingService := c.Container.GetService("staffing").(services.InterfaceStaffingService)
	required := staffingService.RequiredStaff(totalPatients, highAcuity)

	response.Success(c.Ctx, gin.H{
		"total_patients": totalPatients,
		"high_acuity":    highAcuity,
		"required":       required,
	})
}
