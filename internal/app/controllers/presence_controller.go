package controllers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"medshift-http-service/internal/domain/services"
	"medshift-http-service/internal/domain/services/container"
	"medshift-http-service/internal/error/code"
	"medshift-http-service/internal/error/response"
)

// InterfacePresenceController 定义室内定位控制器接口
type InterfacePresenceController interface {
	RecordBeacon()
	CheckHazard()
	GetPresence()
}

// PresenceController 处理信标定位和危险岗位补贴核验相关的请求
type PresenceController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewPresenceController 创建一个新的定位控制器
func NewPresenceController(ctx *gin.Context, container *container.ServiceContainer) *PresenceController {
	return &PresenceController{
		Ctx:       ctx,
		Container: container,
	}
}

// HandlePresenceFunc 返回一个处理定位请求的Gin处理函数
func HandlePresenceFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewPresenceController(ctx, container)

		switch method {
		case "recordBeacon":
			controller.RecordBeacon()
		case "checkHazard":
			controller.CheckHazard()
		case "getPresence":
			controller.GetPresence()
		default:
			response.ParamError(ctx, "无效的方法")
		}
	}
}

// BeaconRequest 信标定位上报请求
type BeaconRequest struct {
	WorkerID       uint    `json:"worker_id" binding:"required" example:"1"`
	Floor          string  `json:"floor" binding:"required" example:"3F"`
	Room           string  `json:"room" binding:"required" example:"ICU-302"`
	SignalStrength float64 `json:"signal_strength" binding:"required" example:"-52"`
}

// HazardCheckRequest 危险岗位补贴核验请求
type HazardCheckRequest struct {
	WorkerID uint   `json:"worker_id" binding:"required" example:"1"`
	Room     string `json:"room" binding:"required" example:"ICU-302"`
}

// RecordBeacon 上报信标定位
// @Summary      上报信标定位
// @Description  记录员工最近一次信标定位；信号强度弱于阈值的上报被丢弃
// @Tags         Presence
// @Accept       json
// @Produce      json
// @Param        request body BeaconRequest true "信标数据"
// @Success      200  {object}  map[string]interface{}
// @Router       /presence/beacon [post]
func (c *PresenceController) RecordBeacon() {
	var req BeaconRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.FailWithMessage(c.Ctx, code.ErrBind, "无效的请求参数", nil)
		return
	}

	presenceService := c.Container.GetService("presence").(services.InterfacePresenceService)

	result, err := presenceService.RecordBeacon(req.WorkerID, req.Floor, req.Room, req.SignalStrength)
	if err != nil {
		response.FailWithMessage(c.Ctx, code.ErrDatabase, "记录信标定位失败: "+err.Error(), nil)
		return
	}

	response.Success(c.Ctx, result)
}

// CheckHazard 核验危险岗位补贴
// @Summary      核验危险岗位补贴资格
// @Description  核验员工近期是否出现在目标病房内，通过则记一笔固定补贴
// @Tags         Presence
// @Accept       json
// @Produce      json
// @Param        request body HazardCheckRequest true "核验请求"
// @Success      200  {object}  map[string]interface{}
// @Router       /presence/hazard-check [post]
// @Security     BearerAuth
func (c *PresenceController) CheckHazard() {
	var req HazardCheckRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.FailWithMessage(c.Ctx, code.ErrBind, "无效的请求参数", nil)
		return
	}

	presenceService := c.Container.GetService("presence").(services.InterfacePresenceService)

	eligibility, err := presenceService.CheckHazardEligibility(req.WorkerID, req.Room)
	if err != nil {
		response.FailWithMessage(c.Ctx, code.ErrDatabase, "补贴核验失败: "+err.Error(), nil)
		return
	}

	response.Success(c.Ctx, eligibility)
}

// GetPresence 查询员工最近定位
// @Summary      查询员工最近定位
// @Description  查询员工最近一次被接受的信标定位记录
// @Tags         Presence
// @Produce      json
// @Param        worker_id path int true "员工ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  ErrorResponse
// @Router       /presence/{worker_id} [get]
// @Security     BearerAuth
func (c *PresenceController) GetPresence() {
	idStr := c.Ctx.Param("worker_id")
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		response.ParamError(c.Ctx, "无效的员工ID参数")
		return
	}

	presenceService := c.Container.GetService("presence").(services.InterfacePresenceService)

	record, err := presenceService.GetPresence(uint(id))
	if err != nil {
		response.FailWithMessage(c.Ctx, code.ErrDatabase, "查询定位失败: "+err.Error(), nil)
		return
	}
	if record == nil {
		response.NotFound(c.Ctx, "员工尚无定位记录")
		return
	}

	response.Success(c.Ctx, record)
}
