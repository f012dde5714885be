package controllers

import (
	"errors"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"medshift-http-service/internal/domain/services"
	"medshift-http-service/internal/domain/services/container"
	"medshift-http-service/internal/error/code"
	"medshift-http-service/internal/error/response"
)

// InterfaceShiftController 定义班次控制器接口
type InterfaceShiftController interface {
	ClockIn()
	ClockOut()
	LocationPing()
	GetStatus()
	GetWorkLogs()
}

// ShiftController 处理班次打卡和位置上报相关的请求
type ShiftController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewShiftController 创建一个新的班次控制器
func NewShiftController(ctx *gin.Context, container *container.ServiceContainer) *ShiftController {
	return &ShiftController{
		Ctx:       ctx,
		Container: container,
	}
}

// HandleShiftFunc 返回一个处理班次请求的Gin处理函数
func HandleShiftFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewShiftController(ctx, container)

		switch method {
		case "clockIn":
			controller.ClockIn()
		case "clockOut":
			controller.ClockOut()
		case "locationPing":
			controller.LocationPing()
		case "getStatus":
			controller.GetStatus()
		case "getWorkLogs":
			controller.GetWorkLogs()
		default:
			response.ParamError(ctx, "无效的方法")
		}
	}
}

// ClockRequest 打卡请求
type ClockRequest struct {
	WorkerID uint    `json:"worker_id" binding:"required" example:"1"`
	Lat      float64 `json:"lat" example:"31.2304"`
	Lon      float64 `json:"lon" example:"121.4737"`
}

// PingRequest 位置上报请求
type PingRequest struct {
	WorkerID uint    `json:"worker_id" binding:"required" example:"1"`
	Lat      float64 `json:"lat" binding:"required" example:"31.2304"`
	Lon      float64 `json:"lon" binding:"required" example:"121.4737"`
}

// ClockIn 打卡上班
// @Summary      打卡上班
// @Description  员工打卡上班，记录开始时间和位置；已在上班状态时返回冲突
// @Tags         Shift
// @Accept       json
// @Produce      json
// @Param        request body ClockRequest true "打卡请求"
// @Success      200  {object}  map[string]interface{}
// @Failure      409  {object}  ErrorResponse  "已处于上班状态"
// @Router       /shifts/clock-in [post]
// @Security     BearerAuth
func (c *ShiftController) ClockIn() {
	var req ClockRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.FailWithMessage(c.Ctx, code.ErrBind, "无效的请求参数", nil)
		return
	}

	shiftService := c.Container.GetService("shift").(services.InterfaceShiftService)

	shift, err := shiftService.ClockIn(req.WorkerID, req.Lat, req.Lon)
	if err != nil {
		if errors.Is(err, services.ErrAlreadyActive) {
			response.Fail(c.Ctx, code.ErrAlreadyActive, nil)
			return
		}
		response.FailWithMessage(c.Ctx, code.ErrDatabase, "打卡上班失败: "+err.Error(), nil)
		return
	}

	// 状态已变更，使缓存失效
	c.invalidateStatusCache(req.WorkerID)

	response.Success(c.Ctx, gin.H{
		"worker_id":   shift.WorkerID,
		"status":      shift.Status,
		"shift_start": shift.ShiftStart,
	})
}

// ClockOut 打卡下班
// @Summary      打卡下班
// @Description  员工打卡下班，按工时计算本班次税前收入并累加到未结算余额
// @Tags         Shift
// @Accept       json
// @Produce      json
// @Param        request body ClockRequest true "打卡请求"
// @Success      200  {object}  map[string]interface{}
// @Failure      409  {object}  ErrorResponse  "不在上班状态"
// @Router       /shifts/clock-out [post]
// @Security     BearerAuth
func (c *ShiftController) ClockOut() {
	var req ClockRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.FailWithMessage(c.Ctx, code.ErrBind, "无效的请求参数", nil)
		return
	}

	shiftService := c.Container.GetService("shift").(services.InterfaceShiftService)

	gross, shift, err := shiftService.ClockOut(req.WorkerID)
	if err != nil {
		if errors.Is(err, services.ErrNotActive) {
			response.Fail(c.Ctx, code.ErrNotActive, nil)
			return
		}
		response.FailWithMessage(c.Ctx, code.ErrDatabase, "打卡下班失败: "+err.Error(), nil)
		return
	}

	c.invalidateStatusCache(req.WorkerID)

	response.Success(c.Ctx, gin.H{
		"worker_id":       shift.WorkerID,
		"status":          shift.Status,
		"shift_gross":     gross,
		"accrued_balance": shift.AccruedBalance,
	})
}

// LocationPing 提交位置上报
// @Summary      位置上报
// @Description  上班员工的周期性位置上报；越出围栏时自动打卡下班并结算
// @Tags         Shift
// @Accept       json
// @Produce      json
// @Param        request body PingRequest true "位置上报请求"
// @Success      200  {object}  map[string]interface{}
// @Router       /shifts/location-ping [post]
func (c *ShiftController) LocationPing() {
	var req PingRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.FailWithMessage(c.Ctx, code.ErrBind, "无效的请求参数", nil)
		return
	}

	geofenceService := c.Container.GetService("geofence").(services.InterfaceGeofenceService)

	result, err := geofenceService.ProcessPing(req.WorkerID, req.Lat, req.Lon)
	if err != nil {
		response.FailWithMessage(c.Ctx, code.ErrDatabase, "位置上报处理失败: "+err.Error(), nil)
		return
	}

	if result.Outcome == services.PingOutcomeAutoClockedOut {
		c.invalidateStatusCache(req.WorkerID)
	}

	response.Success(c.Ctx, result)
}

// GetStatus 查询员工班次状态
// @Summary      查询班次状态
// @Description  根据员工ID查询当前班次状态和未结算余额
// @Tags         Shift
// @Produce      json
// @Param        worker_id path int true "员工ID" example:"1"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  ErrorResponse
// @Router       /shifts/{worker_id}/status [get]
// @Security     BearerAuth
func (c *ShiftController) GetStatus() {
	workerID, err := c.workerIDParam()
	if err != nil {
		response.ParamError(c.Ctx, "无效的员工ID参数")
		return
	}

	// 先查缓存快照，未命中再读数据库
	redisService := c.Container.GetService("redis").(services.InterfaceRedisService)
	if shift, err := redisService.GetShiftStatus(workerID); err == nil {
		response.Success(c.Ctx, shift)
		return
	}

	shiftService := c.Container.GetService("shift").(services.InterfaceShiftService)
	shift, err := shiftService.GetShift(workerID)
	if err != nil {
		response.FailWithMessage(c.Ctx, code.ErrDatabase, "查询班次状态失败: "+err.Error(), nil)
		return
	}

	// 缓存写入失败不影响响应
	_ = redisService.CacheShiftStatus(shift, 30*time.Second)

	response.Success(c.Ctx, shift)
}

// GetWorkLogs 查询员工审计日志
// @Summary      查询审计日志
// @Description  按时间倒序返回员工的打卡/结算/补贴历史
// @Tags         Shift
// @Produce      json
// @Param        worker_id path int true "员工ID" example:"1"
// @Param        limit query int false "返回条数，默认50" example:"50"
// @Success      200  {object}  map[string]interface{}
// @Router       /shifts/{worker_id}/logs [get]
// @Security     BearerAuth
func (c *ShiftController) GetWorkLogs() {
	workerID, err := c.workerIDParam()
	if err != nil {
		response.ParamError(c.Ctx, "无效的员工ID参数")
		return
	}

	limit, _ := strconv.Atoi(c.Ctx.DefaultQuery("limit", "50"))

	shiftService := c.Container.GetService("shift").(services.InterfaceShiftService)
	logs, err := shiftService.GetWorkLogs(workerID, limit)
	if err != nil {
		response.FailWithMessage(c.Ctx, code.ErrDatabase, "查询审计日志失败: "+err.Error(), nil)
		return
	}

	response.Success(c.Ctx, gin.H{
		"worker_id": workerID,
		"logs":      logs,
	})
}

// workerIDParam 解析URL中的员工ID参数
func (c *ShiftController) workerIDParam() (uint, error) {
	idStr := c.Ctx.Param("worker_id")
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}

// invalidateStatusCache 班次状态变更后使缓存失效，失败只记录
func (c *ShiftController) invalidateStatusCache(workerID uint) {
	redisService := c.Container.GetService("redis").(services.InterfaceRedisService)
	_ = redisService.InvalidateShiftStatus(workerID)
}
