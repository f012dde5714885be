package code

// HTTP状态码.
const (
	// StatusOK - 200: 成功.
	StatusOK = 200
	// StatusBadRequest - 400: 请求参数错误.
	StatusBadRequest = 400
	// StatusUnauthorized - 401: 未授权.
	StatusUnauthorized = 401
	// StatusForbidden - 403: 禁止访问.
	StatusForbidden = 403
	// StatusNotFound - 404: 资源不存在.
	StatusNotFound = 404
	// StatusConflict - 409: 状态冲突.
	StatusConflict = 409
	// StatusInternalServerError - 500: 服务器内部错误.
	StatusInternalServerError = 500
	// StatusTooManyRequests - 429: 请求过多.
	StatusTooManyRequests = 429
)

// 通用错误码 (100xxx).
const (
	// ErrSuccess - 200: 成功.
	ErrSuccess int = iota + 100000
	// ErrUnknown - 500: 未知错误.
	ErrUnknown
	// ErrBind - 400: 请求参数绑定错误.
	ErrBind
	// ErrValidation - 400: 请求参数验证错误.
	ErrValidation
	// ErrTokenInvalid - 401: 令牌无效.
	ErrTokenInvalid
	// ErrTooManyRequests - 429: 请求频率过高.
	ErrTooManyRequests
)

// 员工相关错误码 (101xxx).
const (
	// ErrWorkerNotFound - 404: 员工不存在.
	ErrWorkerNotFound int = iota + 101000
	// ErrWorkerAlreadyExist - 400: 员工已存在.
	ErrWorkerAlreadyExist
	// ErrWorkerPasswordIncorrect - 401: 员工密码错误.
	ErrWorkerPasswordIncorrect
)

// 班次相关错误码 (102xxx).
const (
	// ErrAlreadyActive - 409: 员工已在上班状态，不能重复打卡上班.
	ErrAlreadyActive int = iota + 102000
	// ErrNotActive - 409: 员工不在上班状态，无法打卡下班.
	ErrNotActive
	// ErrNotOnShift - 409: 员工不在班次中，位置上报被忽略.
	ErrNotOnShift
)

// 结算相关错误码 (103xxx).
const (
	// ErrInvalidAmount - 400: 结算金额非法.
	ErrInvalidAmount int = iota + 103000
	// ErrNoDestinationOnFile - 400: 未登记收款账户，结算已挂起.
	ErrNoDestinationOnFile
	// ErrSettlementFailed - 500: 结算写入失败.
	ErrSettlementFailed
)

// 悬赏市场相关错误码 (104xxx).
const (
	// ErrListingNotFound - 404: 悬赏班次不存在.
	ErrListingNotFound int = iota + 104000
	// ErrListingNotOpen - 409: 悬赏班次已被认领或已关闭.
	ErrListingNotOpen
	// ErrEscrowNotLocked - 409: 托管资金未处于锁定状态，无可释放资金.
	ErrEscrowNotLocked
)

// 数据库相关错误码 (105xxx).
const (
	// ErrDatabase - 500: 数据库错误.
	ErrDatabase int = iota + 105000
	// ErrRecordNotFound - 404: 记录不存在.
	ErrRecordNotFound
)

// 驻场核验相关错误码 (106xxx).
const (
	// ErrPresenceStale - 400: 驻场记录已过期.
	ErrPresenceStale int = iota + 106000
	// ErrPresenceNotFound - 404: 驻场记录不存在.
	ErrPresenceNotFound
)

// 迁移相关错误码 (109xxx).
const (
	// ErrMigrationFailed - 500: 迁移失败.
	ErrMigrationFailed int = iota + 109000
	// ErrConnectionFailed - 500: 连接失败.
	ErrConnectionFailed
)
