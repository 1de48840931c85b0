package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"TradeYa/logger"
	"TradeYa/module/connections/model"
	"TradeYa/module/connections/store"
	"TradeYa/service/storage"
	"TradeYa/tools/errs"
)

// Notifier 面向用户的提示面（成功/失败 toast）。
// 每个操作完成后都要出一条通知；失败通知带上错误消息后原样返回错误。
type Notifier interface {
	Success(ctx context.Context, userID, title, body string)
	Failure(ctx context.Context, userID, title, body string)
}

// Emitter 活动事件出口（接 Kafka，喂给 gamification 的 XP 流水）
type Emitter interface {
	ConnectionAccepted(ctx context.Context, fromUserID, toUserID string)
}

type noopNotifier struct{}

func (noopNotifier) Success(context.Context, string, string, string) {}
func (noopNotifier) Failure(context.Context, string, string, string) {}

type noopEmitter struct{}

func (noopEmitter) ConnectionAccepted(context.Context, string, string) {}

const statusCacheTTL = 30 * time.Second

// Directory 人脉目录：负责连接请求协议的全部不变量。
//
// 两侧视图（connections / sent_requests）没有数据库层的双向一致性保证，
// 一致性靠这里的事务写入维护：查重与写入在同一个事务里完成，
// 并发的重复请求会在唯一索引/事务回滚处挡住。
type Directory struct {
	store  store.Store
	notify Notifier
	events Emitter
	clock  func() time.Time
}

func NewDirectory(s store.Store, opts ...Option) *Directory {
	d := &Directory{
		store:  s,
		notify: noopNotifier{},
		events: noopEmitter{},
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

type Option func(*Directory)

func WithNotifier(n Notifier) Option {
	return func(d *Directory) {
		if n != nil {
			d.notify = n
		}
	}
}

func WithEmitter(e Emitter) Option {
	return func(d *Directory) {
		if e != nil {
			d.events = e
		}
	}
}

func WithClock(clock func() time.Time) Option {
	return func(d *Directory) {
		if clock != nil {
			d.clock = clock
		}
	}
}

// validateIDs 公共入参校验。"_" 是组合键分隔符，用户ID里不允许出现。
func validateIDs(a, b string) error {
	if a == "" || b == "" {
		return errs.ErrArgs.WithDetail("both user ids are required")
	}
	if strings.Contains(a, "_") || strings.Contains(b, "_") {
		return errs.ErrArgs.WithDetail("user id must not contain '_'")
	}
	return nil
}

// SendConnectionRequest 发起连接请求：
// 两侧各写一条 pending 记录（共用同一时间戳），查重与写入在一个事务内。
func (d *Directory) SendConnectionRequest(ctx context.Context, fromUserID, toUserID string) error {
	err := d.sendConnectionRequest(ctx, fromUserID, toUserID)
	if err != nil {
		d.notify.Failure(ctx, fromUserID, "Failed to Send Request", errs.MsgOf(err))
		return err
	}
	d.notify.Success(ctx, toUserID, "Connection Request", "you have a new connection request")
	d.notify.Success(ctx, fromUserID, "Request Sent", "connection request sent")
	return nil
}

func (d *Directory) sendConnectionRequest(ctx context.Context, fromUserID, toUserID string) error {
	if err := validateIDs(fromUserID, toUserID); err != nil {
		return err
	}
	if fromUserID == toUserID {
		// 自连在任何读写之前拒绝
		return errs.ErrSelfConnect.Wrap()
	}

	// 双方都必须存在；两次点查并行发出
	var (
		wg      sync.WaitGroup
		fromOK  bool
		toOK    bool
		fromErr error
		toErr   error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		fromOK, fromErr = d.store.UserExists(ctx, fromUserID)
	}()
	go func() {
		defer wg.Done()
		toOK, toErr = d.store.UserExists(ctx, toUserID)
	}()
	wg.Wait()
	if fromErr != nil {
		return fromErr
	}
	if toErr != nil {
		return toErr
	}
	if !fromOK || !toOK {
		return errs.ErrUserNotFound.Wrap()
	}

	connID := model.BuildConnID(fromUserID, toUserID)
	now := d.clock()

	err := d.store.Transaction(ctx, func(txCtx context.Context) error {
		// 查重：两侧的收件视图 + 两侧的发件视图都要看，
		// 否则 B→A 的反向请求会绕过 A→B 已有的 pending 边。
		// 放进事务里做，挡掉并发双写产生两条 pending 的竞态。
		for _, pair := range [][2]string{{toUserID, fromUserID}, {fromUserID, toUserID}} {
			existing, err := d.store.FindConnectionWith(txCtx, pair[0], pair[1])
			if err != nil {
				return err
			}
			if existing != nil {
				return errs.ErrConnExists.Wrap()
			}
			sent, err := d.store.FindSentRequestTo(txCtx, pair[0], pair[1])
			if err != nil {
				return err
			}
			if sent != nil {
				return errs.ErrConnExists.Wrap()
			}
		}

		// 收件侧
		if err := d.store.PutConnection(txCtx, &model.Connection{
			ConnID:     connID,
			OwnerID:    toUserID,
			UserID:     fromUserID,
			FromUserID: fromUserID,
			ToUserID:   toUserID,
			Status:     model.StatusPending,
			Timestamp:  now,
		}); err != nil {
			return err
		}
		// 发件侧
		return d.store.PutSentRequest(txCtx, &model.Connection{
			ConnID:     connID,
			OwnerID:    fromUserID,
			UserID:     toUserID,
			FromUserID: fromUserID,
			ToUserID:   toUserID,
			Status:     model.StatusPending,
			Timestamp:  now,
		})
	})
	if err != nil {
		return err
	}

	d.dropStatusCache(fromUserID, toUserID)
	return nil
}

// GetConnectionStatus 查询双方关系：none / pending / accepted。
// 收到的请求优先于发出的请求（两者同时存在时以收件视图为准）。
func (d *Directory) GetConnectionStatus(ctx context.Context, userID, otherUserID string) (string, error) {
	if err := validateIDs(userID, otherUserID); err != nil {
		return "", err
	}

	if status, ok, err := storage.ConnStatusCacheGet(userID, otherUserID); err == nil && ok {
		return status, nil
	}

	status := model.StatusNone
	received, err := d.store.FindConnectionWith(ctx, userID, otherUserID)
	if err != nil {
		return "", err
	}
	if received != nil {
		status = received.Status
	} else {
		sent, err := d.store.FindSentRequestTo(ctx, userID, otherUserID)
		if err != nil {
			return "", err
		}
		if sent != nil {
			status = sent.Status
		}
	}

	if err := storage.ConnStatusCacheSet(userID, otherUserID, status, statusCacheTTL); err != nil {
		logger.Debug("conn status cache set skipped: " + err.Error())
	}
	return status, nil
}

// AcceptConnectionRequest 接受请求：一个事务内完成全部状态迁移，共用同一时间戳。
//  1. 收件人 connections/{from}_{to} -> accepted
//  2. 发起人 sent_requests/{from}_{to} -> accepted
//  3. 发起人 connections/{to}_{from} 反向边 -> accepted（不存在则创建）
func (d *Directory) AcceptConnectionRequest(ctx context.Context, userID, connID string) error {
	err := d.acceptConnectionRequest(ctx, userID, connID)
	if err != nil {
		d.notify.Failure(ctx, userID, "Failed to Accept Request", errs.MsgOf(err))
		return err
	}
	d.notify.Success(ctx, userID, "Connection Accepted", "you are now connected")
	return nil
}

func (d *Directory) acceptConnectionRequest(ctx context.Context, userID, connID string) error {
	// connID 本身带 "_"，用户ID的分隔符校验不适用，这里只查空值
	if userID == "" || connID == "" {
		return errs.ErrArgs.WithDetail("user id and connection id are required")
	}

	req, err := d.store.GetConnection(ctx, userID, connID)
	if err != nil {
		return err
	}
	if req == nil {
		return errs.ErrRecordNotFound.WithDetail("connection request not found").Wrap()
	}
	if req.ToUserID != userID {
		// 只有收件人能接受
		return errs.ErrPermissionDenied.Wrap()
	}
	if req.Status != model.StatusPending {
		return errs.ErrConnNotPending.Wrap()
	}

	fromUserID, toUserID := req.FromUserID, req.ToUserID
	reverseID := model.BuildConnID(toUserID, fromUserID)
	now := d.clock()

	err = d.store.Transaction(ctx, func(txCtx context.Context) error {
		// 1. 收件人的正向边
		if err := d.store.PutConnection(txCtx, &model.Connection{
			ConnID:     connID,
			OwnerID:    toUserID,
			UserID:     fromUserID,
			FromUserID: fromUserID,
			ToUserID:   toUserID,
			Status:     model.StatusAccepted,
			Timestamp:  now,
		}); err != nil {
			return err
		}
		// 2. 发起人的发件记录
		if err := d.store.PutSentRequest(txCtx, &model.Connection{
			ConnID:     connID,
			OwnerID:    fromUserID,
			UserID:     toUserID,
			FromUserID: fromUserID,
			ToUserID:   toUserID,
			Status:     model.StatusAccepted,
			Timestamp:  now,
		}); err != nil {
			return err
		}
		// 3. 发起人的反向边（不存在则创建）
		return d.store.PutConnection(txCtx, &model.Connection{
			ConnID:     reverseID,
			OwnerID:    fromUserID,
			UserID:     toUserID,
			FromUserID: toUserID,
			ToUserID:   fromUserID,
			Status:     model.StatusAccepted,
			Timestamp:  now,
		})
	})
	if err != nil {
		return err
	}

	d.dropStatusCache(fromUserID, toUserID)
	d.events.ConnectionAccepted(ctx, fromUserID, toUserID)
	return nil
}

// DeclineConnectionRequest 拒绝请求：两侧记录直接删除，不留 declined 终态。
// 拒绝后对外表现与"从未请求过"一致（产品层面已知的取舍）。
func (d *Directory) DeclineConnectionRequest(ctx context.Context, userID, connID string) error {
	err := d.declineConnectionRequest(ctx, userID, connID)
	if err != nil {
		d.notify.Failure(ctx, userID, "Failed to Decline Request", errs.MsgOf(err))
		return err
	}
	d.notify.Success(ctx, userID, "Request Declined", "connection request declined")
	return nil
}

func (d *Directory) declineConnectionRequest(ctx context.Context, userID, connID string) error {
	if userID == "" || connID == "" {
		return errs.ErrArgs.WithDetail("user id and connection id are required")
	}

	req, err := d.store.GetConnection(ctx, userID, connID)
	if err != nil {
		return err
	}
	if req == nil {
		return errs.ErrRecordNotFound.WithDetail("connection request not found").Wrap()
	}

	fromUserID, toUserID := req.FromUserID, req.ToUserID
	err = d.store.Transaction(ctx, func(txCtx context.Context) error {
		if err := d.store.DeleteConnection(txCtx, userID, connID); err != nil {
			return err
		}
		return d.store.DeleteSentRequest(txCtx, fromUserID, connID)
	})
	if err != nil {
		return err
	}

	d.dropStatusCache(fromUserID, toUserID)
	return nil
}

// RemoveConnection 解除连接：最多删四条（两个方向的 connections 加残留的 sent_requests）。
// 目标不存在也不算错，反复调用结果一致。
func (d *Directory) RemoveConnection(ctx context.Context, userID, connID string) error {
	err := d.removeConnection(ctx, userID, connID)
	if err != nil {
		d.notify.Failure(ctx, userID, "Failed to Remove Connection", errs.MsgOf(err))
		return err
	}
	d.notify.Success(ctx, userID, "Connection Removed", "connection removed")
	return nil
}

func (d *Directory) removeConnection(ctx context.Context, userID, connID string) error {
	if userID == "" || connID == "" {
		return errs.ErrArgs.WithDetail("user id and connection id are required")
	}

	fromUserID, toUserID, err := d.resolvePair(ctx, userID, connID)
	if err != nil {
		return err
	}
	forwardID := model.BuildConnID(fromUserID, toUserID)
	reverseID := model.BuildConnID(toUserID, fromUserID)

	err = d.store.Transaction(ctx, func(txCtx context.Context) error {
		if err := d.store.DeleteConnection(txCtx, toUserID, forwardID); err != nil {
			return err
		}
		if err := d.store.DeleteConnection(txCtx, fromUserID, reverseID); err != nil {
			return err
		}
		if err := d.store.DeleteSentRequest(txCtx, fromUserID, forwardID); err != nil {
			return err
		}
		return d.store.DeleteSentRequest(txCtx, toUserID, reverseID)
	})
	if err != nil {
		return err
	}

	d.dropStatusCache(fromUserID, toUserID)
	return nil
}

// resolvePair 还原 connID 对应的有序用户对。
// 优先读存量文档上的显式字段；找不到文档时退回按分隔符拆（老数据兜底）。
func (d *Directory) resolvePair(ctx context.Context, userID, connID string) (string, string, error) {
	if c, err := d.store.GetConnection(ctx, userID, connID); err != nil {
		return "", "", err
	} else if c != nil {
		return c.FromUserID, c.ToUserID, nil
	}
	if c, err := d.store.GetSentRequest(ctx, userID, connID); err != nil {
		return "", "", err
	} else if c != nil {
		return c.FromUserID, c.ToUserID, nil
	}

	parts := strings.Split(connID, "_")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", errs.ErrArgs.WithDetail("malformed connection id").Wrap()
	}
	return parts[0], parts[1], nil
}

// ListConnections 当前用户的连接列表（pending + accepted）
func (d *Directory) ListConnections(ctx context.Context, userID string) ([]*model.Connection, error) {
	if userID == "" {
		return nil, errs.ErrArgs.WithDetail("user id is required")
	}
	return d.store.ListConnections(ctx, userID)
}

// ListSentRequests 当前用户发出的请求
func (d *Directory) ListSentRequests(ctx context.Context, userID string) ([]*model.Connection, error) {
	if userID == "" {
		return nil, errs.ErrArgs.WithDetail("user id is required")
	}
	return d.store.ListSentRequests(ctx, userID)
}

func (d *Directory) dropStatusCache(a, b string) {
	if err := storage.ConnStatusCacheDrop(a, b); err != nil {
		logger.Debug("conn status cache drop skipped: " + err.Error())
	}
}
