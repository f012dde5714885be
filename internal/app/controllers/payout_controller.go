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

// InterfacePayoutController 定义结算控制器接口
type InterfacePayoutController interface {
	Settle()
	GetTransactions()
}

// PayoutController 处理结算拆分相关的请求
type PayoutController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewPayoutController 创建一个新的结算控制器
func NewPayoutController(ctx *gin.Context, container *container.ServiceContainer) *PayoutController {
	return &PayoutController{
		Ctx:       ctx,
		Container: container,
	}
}

// HandlePayoutFunc 返回一个处理结算请求的Gin处理函数
func HandlePayoutFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewPayoutController(ctx, container)

		switch method {
		case "settle":
			controller.Settle()
		case "getTransactions":
			controller.GetTransactions()
		default:
			response.ParamError(ctx, "无效的方法")
		}
	}
}

// SettleRequest 手动结算请求
type SettleRequest struct {
	WorkerID uint `json:"worker_id" binding:"required" example:"1"`
	// Amount 为0时结算员工当前全部未结算余额
	Amount float64 `json:"amount" example:"0"`
}

// Settle 手动触发结算
// @Summary      手动触发结算
// @Description  将员工未结算余额拆分为净收入和代扣税两笔交易；未登记收款账户时挂起
// @Tags         Payout
// @Accept       json
// @Produce      json
// @Param        request body SettleRequest true "结算请求"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  ErrorResponse  "金额非法或未登记收款账户"
// @Router       /payouts/settle [post]
// @Security     BearerAuth
func (c *PayoutController) Settle() {
	var req SettleRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.FailWithMessage(c.Ctx, code.ErrBind, "无效的请求参数", nil)
		return
	}

	identityService := c.Container.GetService("identity").(services.InterfaceIdentityService)

	destination, err := identityService.Destination(req.WorkerID)
	if err != nil {
		if errors.Is(err, services.ErrNoDestination) {
			// 资金保留，待登记收款账户后再结算
			response.Fail(c.Ctx, code.ErrNoDestinationOnFile, nil)
			return
		}
		response.FailWithMessage(c.Ctx, code.ErrDatabase, "查询收款账户失败: "+err.Error(), nil)
		return
	}

	// 全额结算走班次服务的员工锁，读余额、拆分出账和清零是一个临界区，
	// 并发的结算请求不会对同一笔余额重复出账
	if req.Amount == 0 {
		shiftService := c.Container.GetService("shift").(services.InterfaceShiftService)
		result, err := shiftService.SettleBalance(req.WorkerID, destination)
		if err != nil {
			response.FailWithMessage(c.Ctx, code.ErrSettlementFailed, "结算失败: "+err.Error(), nil)
			return
		}
		if result == nil {
			response.Success(c.Ctx, gin.H{"settled": false, "message": "没有未结算余额"})
			return
		}
		response.Success(c.Ctx, result)
		return
	}

	payoutService := c.Container.GetService("payout").(services.InterfacePayoutService)

	result, err := payoutService.Settle(req.WorkerID, req.Amount, destination)
	if err != nil {
		if errors.Is(err, services.ErrInvalidGross) {
			response.Fail(c.Ctx, code.ErrInvalidAmount, nil)
			return
		}
		response.FailWithMessage(c.Ctx, code.ErrSettlementFailed, "结算失败: "+err.Error(), nil)
		return
	}

	response.Success(c.Ctx, result)
}

// GetTransactions 查询员工交易流水
// @Summary      查询交易流水
// @Description  按时间倒序返回员工的结算交易记录
// @Tags         Payout
// @Produce      json
// @Param        worker_id path int true "员工ID"
// @Param        limit query int false "返回条数，默认50" example:"50"
// @Success      200  {object}  map[string]interface{}
// @Router       /payouts/{worker_id}/transactions [get]
// @Security     BearerAuth
func (c *PayoutController) GetTransactions() {
	idStr := c.Ctx.Param("worker_id")
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		response.ParamError(c.Ctx, "无效的员工ID参数")
		return
	}

	limit, _ := strconv.Atoi(c.Ctx.DefaultQuery("limit", "50"))

	payoutService := c.Container.GetService("payout").(services.InterfacePayoutService)

	transactions, err := payoutService.GetTransactions(uint(id), limit)
	if err != nil {
		response.FailWithMessage(c.Ctx, code.ErrDatabase, "查询交易流水失败: "+err.Error(), nil)
		return
	}

	response.Success(c.Ctx, gin.H{
		"worker_id":    id,
		"transactions": transactions,
	})
}
