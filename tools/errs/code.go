package errs

// 错误码分段：
//   1xxx 通用/参数
//   11xx 认证
//   12xx 连接/人脉协议
//   13xx 交易与协作
//   14xx 挑战
//   15xx 存储与下游
const (
	NoError             = 0
	ServerInternalError = 500

	ArgsError          = 1001 // 参数缺失或非法
	RecordNotFoundErr  = 1004
	DuplicateKeyError  = 1009
	StatusConflictErr  = 1010 // 状态机不允许的迁移

	TokenExpiredError  = 1101
	TokenInvalidError  = 1102
	PermissionDenied   = 1103

	SelfConnectError     = 1201 // 不允许与自己建立连接
	ConnExistsError      = 1202 // 已存在未处理的连接请求
	ConnNotPendingError  = 1203 // 连接请求已不再是 pending
	UserNotFoundError    = 1204

	TradeClosedError     = 1301 // 交易已终态
	RoleFilledError      = 1302 // 协作角色已被占用
	NotParticipantError  = 1303

	ChallengeClosedError = 1401
	AlreadyJoinedError   = 1402

	DatabaseError = 1500
	BrokerError   = 1501
)

// 预定义错误：handler 层直接 errors.Is 判断，或通过 CodeOf 映射 HTTP 应答
var (
	ErrInternalServer = NewCodeError(ServerInternalError, "server internal error")
	ErrArgs           = NewCodeError(ArgsError, "args invalid")
	ErrRecordNotFound = NewCodeError(RecordNotFoundErr, "record not found")
	ErrDuplicateKey   = NewCodeError(DuplicateKeyError, "duplicate record")
	ErrStatusConflict = NewCodeError(StatusConflictErr, "status transition not allowed")

	ErrTokenExpired     = NewCodeError(TokenExpiredError, "token expired")
	ErrTokenInvalid     = NewCodeError(TokenInvalidError, "token invalid")
	ErrPermissionDenied = NewCodeError(PermissionDenied, "permission denied")

	ErrSelfConnect     = NewCodeError(SelfConnectError, "cannot connect with yourself")
	ErrConnExists      = NewCodeError(ConnExistsError, "connection request already exists")
	ErrConnNotPending  = NewCodeError(ConnNotPendingError, "connection request is no longer pending")
	ErrUserNotFound    = NewCodeError(UserNotFoundError, "one or both users not found")

	ErrTradeClosed    = NewCodeError(TradeClosedError, "trade already closed")
	ErrRoleFilled     = NewCodeError(RoleFilledError, "role already filled")
	ErrNotParticipant = NewCodeError(NotParticipantError, "not a participant")

	ErrChallengeClosed = NewCodeError(ChallengeClosedError, "challenge not active")
	ErrAlreadyJoined   = NewCodeError(AlreadyJoinedError, "already joined")

	ErrDatabase = NewCodeError(DatabaseError, "database error")
	ErrBroker   = NewCodeError(BrokerError, "message broker error")
)
