package code

// 错误码消息映射
var codeMessageMap = map[int]string{
	// 通用错误码
	ErrSuccess:      "成功",
	ErrUnknown:      "未知错误",
	ErrBind:         "请求参数绑定错误",
	ErrValidation:   "请求参数验证错误",
	ErrTokenInvalid: "无效的认证令牌",

	// 员工相关错误码
	ErrWorkerNotFound:          "员工不存在",
	ErrWorkerAlreadyExist:      "员工已存在",
	ErrWorkerPasswordIncorrect: "员工密码错误",

	// 班次相关错误码
	ErrAlreadyActive: "员工已处于上班状态",
	ErrNotActive:     "员工当前不在上班状态",
	ErrNotOnShift:    "员工不在班次中",

	// 结算相关错误码
	ErrInvalidAmount:       "结算金额非法",
	ErrNoDestinationOnFile: "未登记收款账户，结算已挂起",
	ErrSettlementFailed:    "结算写入失败",

	// 悬赏市场相关错误码
	ErrListingNotFound: "悬赏班次不存在",
	ErrListingNotOpen:  "悬赏班次已被认领或已关闭",
	ErrEscrowNotLocked: "托管资金未处于锁定状态",

	// 驻场核验相关错误码
	ErrPresenceStale:    "驻场记录已过期",
	ErrPresenceNotFound: "驻场记录不存在",

	// 数据库相关错误码
	ErrDatabase:       "数据库错误",
	ErrRecordNotFound: "记录不存在",

	// 迁移相关错误码
	ErrMigrationFailed:  "迁移失败",
	ErrConnectionFailed: "连接失败",
}

// 错误码HTTP状态码映射
var codeStatusMap = map[int]int{
	// 通用错误码
	ErrSuccess:      StatusOK,
	ErrUnknown:      StatusInternalServerError,
	ErrBind:         StatusBadRequest,
	ErrValidation:   StatusBadRequest,
	ErrTokenInvalid: StatusUnauthorized,

	// 员工相关错误码
	ErrWorkerNotFound:          StatusNotFound,
	ErrWorkerAlreadyExist:      StatusBadRequest,
	ErrWorkerPasswordIncorrect: StatusUnauthorized,

	// 班次相关错误码
	ErrAlreadyActive: StatusConflict,
	ErrNotActive:     StatusConflict,
	ErrNotOnShift:    StatusConflict,

	// 结算相关错误码
	ErrInvalidAmount:       StatusBadRequest,
	ErrNoDestinationOnFile: StatusBadRequest,
	ErrSettlementFailed:    StatusInternalServerError,

	// 悬赏市场相关错误码
	ErrListingNotFound: StatusNotFound,
	ErrListingNotOpen:  StatusConflict,
	ErrEscrowNotLocked: StatusConflict,

	// 驻场核验相关错误码
	ErrPresenceStale:    StatusBadRequest,
	ErrPresenceNotFound: StatusNotFound,

	// 数据库相关错误码
	ErrDatabase:       StatusInternalServerError,
	ErrRecordNotFound: StatusNotFound,

	// 迁移相关错误码
	ErrMigrationFailed:  StatusInternalServerError,
	ErrConnectionFailed: StatusInternalServerError,
}

// GetMessage 获取错误码对应的消息
func GetMessage(code int) string {
	if msg, ok := codeMessageMap[code]; ok {
		return msg
	}
	return "未知错误"
}

// GetStatus 获取错误码对应的HTTP状态码
func GetStatus(code int) int {
	if status, ok := codeStatusMap[code]; ok {
		return status
	}
	return StatusInternalServerError
}
