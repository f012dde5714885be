package controllers

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"medshift-http-service/internal/domain/services"
	"medshift-http-service/internal/domain/services/container"
	"medshift-http-service/internal/error/code"
	"medshift-http-service/internal/error/response"
)

// InterfaceMarketController 定义悬赏班次市场控制器接口
type InterfaceMarketController interface {
	PostBounty()
	LockEscrow()
	ClaimBounty()
	ReleaseEscrow()
	GetListings()
	GetListing()
}

// MarketController 处理悬赏班次市场相关的请求
type MarketController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewMarketController 创建一个新的市场控制器
func NewMarketController(ctx *gin.Context, container *container.ServiceContainer) *MarketController {
	return &MarketController{
		Ctx:       ctx,
		Container: container,
	}
}

// HandleMarketFunc 返回一个处理市场请求的Gin处理函数
func HandleMarketFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewMarketController(ctx, container)

		switch method {
		case "postBounty":
			controller.PostBounty()
		case "lockEscrow":
			controller.LockEscrow()
		case "claimBounty":
			controller.ClaimBounty()
		case "releaseEscrow":
			controller.ReleaseEscrow()
		case "getListings":
			controller.GetListings()
		case "getListing":
			controller.GetListing()
		default:
			response.ParamError(ctx, "无效的方法")
		}
	}
}

// PostBountyRequest 发布悬赏班次请求
type PostBountyRequest struct {
	PosterID  uint    `json:"poster_id" binding:"required" example:"1"`
	Role      string  `json:"role" binding:"required" example:"RN"`
	Rate      float64 `json:"rate" binding:"required" example:"52.5"`
	ShiftDate string  `json:"shift_date" binding:"required" example:"2026-09-02"`
	StartTime string  `json:"start_time" binding:"required" example:"19:00"`
	EndTime   string  `json:"end_time" binding:"required" example:"07:00"`
}

// ClaimRequest 认领悬赏班次请求
type ClaimRequest struct {
	WorkerID uint `json:"worker_id" binding:"required" example:"2"`
}

// PostBounty 发布悬赏班次
// @Summary      发布悬赏班次
// @Description  发布一条悬赏班次挂单，状态为OPEN，托管资金为PENDING
// @Tags         Market
// @Accept       json
// @Produce      json
// @Param        request body PostBountyRequest true "悬赏信息"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  ErrorResponse
// @Router       /market/bounties [post]
// @Security     BearerAuth
func (c *MarketController) PostBounty() {
	var req PostBountyRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.FailWithMessage(c.Ctx, code.ErrBind, "无效的请求参数", nil)
		return
	}

	marketService := c.Container.GetService("market").(services.InterfaceMarketService)

	listing, err := marketService.PostBounty(req.PosterID, req.Role, req.Rate, req.ShiftDate, req.StartTime, req.EndTime)
	if err != nil {
		response.FailWithMessage(c.Ctx, code.ErrDatabase, "发布悬赏失败: "+err.Error(), nil)
		return
	}

	response.Success(c.Ctx, listing)
}

// LockEscrow 锁定托管资金
// @Summary      锁定托管资金
// @Description  支付确认后将挂单的托管资金从PENDING置为LOCKED
// @Tags         Market
// @Produce      json
// @Param        id path int true "挂单ID"
// @Success      200  {object}  map[string]interface{}
// @Router       /market/bounties/{id}/lock [post]
// @Security     BearerAuth
func (c *MarketController) LockEscrow() {
	id, err := c.listingIDParam()
	if err != nil {
		response.ParamError(c.Ctx, "无效的挂单ID参数")
		return
	}

	marketService := c.Container.GetService("market").(services.InterfaceMarketService)

	if err := marketService.LockEscrow(id); err != nil {
		response.FailWithMessage(c.Ctx, code.ErrDatabase, "锁定托管资金失败: "+err.Error(), nil)
		return
	}

	response.Success(c.Ctx, gin.H{"listing_id": id})
}

// ClaimBounty 认领悬赏班次
// @Summary      认领悬赏班次
// @Description  认领OPEN状态的悬赏班次；并发认领最多一人成功，落败方返回冲突
// @Tags         Market
// @Accept       json
// @Produce      json
// @Param        id path int true "挂单ID"
// @Param        request body ClaimRequest true "认领人"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  ErrorResponse  "挂单不存在"
// @Failure      409  {object}  ErrorResponse  "挂单已被认领"
// @Router       /market/bounties/{id}/claim [post]
// @Security     BearerAuth
func (c *MarketController) ClaimBounty() {
	id, err := c.listingIDParam()
	if err != nil {
		response.ParamError(c.Ctx, "无效的挂单ID参数")
		return
	}

	var req ClaimRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.FailWithMessage(c.Ctx, code.ErrBind, "无效的请求参数", nil)
		return
	}

	marketService := c.Container.GetService("market").(services.InterfaceMarketService)

	listing, err := marketService.Claim(id, req.WorkerID)
	if err != nil {
		if errors.Is(err, services.ErrListingNotFound) {
			response.Fail(c.Ctx, code.ErrListingNotFound, nil)
			return
		}
		if errors.Is(err, services.ErrListingNotOpen) {
			response.Fail(c.Ctx, code.ErrListingNotOpen, nil)
			return
		}
		response.FailWithMessage(c.Ctx, code.ErrDatabase, "认领悬赏失败: "+err.Error(), nil)
		return
	}

	response.Success(c.Ctx, listing)
}

// ReleaseEscrow 释放托管资金
// @Summary      释放托管资金
// @Description  班次完成后将LOCKED状态的托管资金释放给认领人；非LOCKED状态为无操作
// @Tags         Market
// @Accept       json
// @Produce      json
// @Param        id path int true "挂单ID"
// @Param        request body ClaimRequest true "认领人"
// @Success      200  {object}  map[string]interface{}
// @Router       /market/bounties/{id}/release [post]
// @Security     BearerAuth
func (c *MarketController) ReleaseEscrow() {
	id, err := c.listingIDParam()
	if err != nil {
		response.ParamError(c.Ctx, "无效的挂单ID参数")
		return
	}

	var req ClaimRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.FailWithMessage(c.Ctx, code.ErrBind, "无效的请求参数", nil)
		return
	}

	identityService := c.Container.GetService("identity").(services.InterfaceIdentityService)
	destination, err := identityService.Destination(req.WorkerID)
	if err != nil && !errors.Is(err, services.ErrNoDestination) {
		response.FailWithMessage(c.Ctx, code.ErrDatabase, "查询收款账户失败: "+err.Error(), nil)
		return
	}

	marketService := c.Container.GetService("market").(services.InterfaceMarketService)
	shiftService := c.Container.GetService("shift").(services.InterfaceShiftService)

	// 释放出账和余额清零在员工锁内完成，避免和手动结算并发时重复出账
	released, gross, err := shiftService.ReleaseBalance(req.WorkerID, func(gross float64) (bool, error) {
		return marketService.ReleaseEscrow(id, req.WorkerID, destination, gross)
	})
	if err != nil {
		response.FailWithMessage(c.Ctx, code.ErrDatabase, "释放托管资金失败: "+err.Error(), nil)
		return
	}

	response.Success(c.Ctx, gin.H{
		"listing_id": id,
		"released":   released,
		"amount":     gross,
	})
}

// GetListings 获取悬赏班次列表
// @Summary      获取悬赏班次列表
// @Description  分页获取悬赏班次挂单，支持按状态过滤
// @Tags         Market
// @Produce      json
// @Param        status query string false "挂单状态" Enums(OPEN, CLAIMED)
// @Param        page query int false "页码" example:"1"
// @Param        page_size query int false "每页数量" example:"10"
// @Success      200  {object}  map[string]interface{}
// @Router       /market/bounties [get]
// @Security     BearerAuth
func (c *MarketController) GetListings() {
	status := c.Ctx.Query("status")
	page, _ := strconv.Atoi(c.Ctx.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.Ctx.DefaultQuery("page_size", "10"))

	marketService := c.Container.GetService("market").(services.InterfaceMarketService)

	listings, total, err := marketService.GetListings(status, page, pageSize)
	if err != nil {
		response.FailWithMessage(c.Ctx, code.ErrDatabase, "获取挂单列表失败: "+err.Error(), nil)
		return
	}

	response.Success(c.Ctx, gin.H{
		"listings": listings,
		"pagination": gin.H{
			"page":      page,
			"page_size": pageSize,
			"total":     total,
		},
	})
}

// GetListing 获取单条悬赏班次
// @Summary      获取悬赏班次详情
// @Description  根据ID获取悬赏班次挂单
// @Tags         Market
// @Produce      json
// @Param        id path int true "挂单ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  ErrorResponse
// @Router       /market/bounties/{id} [get]
// @Security     BearerAuth
func (c *MarketController) GetListing() {
	id, err := c.listingIDParam()
	if err != nil {
		response.ParamError(c.Ctx, "无效的挂单ID参数")
		return
	}

	marketService := c.Container.GetService("market").(services.InterfaceMarketService)

	listing, err := marketService.GetListingByID(id)
	if err != nil {
		if errors.Is(err, services.ErrListingNotFound) {
			response.Fail(c.Ctx, code.ErrListingNotFound, nil)
			return
		}
		response.FailWithMessage(c.Ctx, code.ErrDatabase, "获取挂单失败: "+err.Error(), nil)
		return
	}

	response.Success(c.Ctx, listing)
}

// listingIDParam 解析URL中的挂单ID参数
func (c *MarketController) listingIDParam() (uint, error) {
	idStr := c.Ctx.Param("id")
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}
