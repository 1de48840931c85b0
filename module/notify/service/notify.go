package service

import (
	"context"
	"encoding/json"
	"time"

	"TradeYa/logger"
	"TradeYa/module/notify/model"
	"TradeYa/module/notify/store"
	"TradeYa/service/natsx"
	"TradeYa/tools/errs"
	"TradeYa/tools/ids"
)

// NATS 业务路由名；main 启动时注册 subject 映射
const BizUserNotify = "notify.user"

// Publisher 推送出口（natsx 门面满足该接口）
type Publisher interface {
	Publish(ctx context.Context, biz string, data []byte, hdr map[string]string) error
}

// natsPublisher 走全局 natsx 单例
type natsPublisher struct{}

func (natsPublisher) Publish(ctx context.Context, biz string, data []byte, hdr map[string]string) error {
	return natsx.Publish(ctx, biz, data, hdr)
}

// Center 通知中心：先落库，再经 NATS 推给网关。
// 推送失败只记日志不回滚——通知是尽力而为的，库里的记录才是事实。
type Center struct {
	store store.Store
	pub   Publisher
	clock func() time.Time
}

func NewCenter(s store.Store, opts ...Option) *Center {
	c := &Center{
		store: s,
		pub:   natsPublisher{},
		clock: time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type Option func(*Center)

func WithPublisher(p Publisher) Option {
	return func(c *Center) {
		if p != nil {
			c.pub = p
		}
	}
}

func WithClock(clock func() time.Time) Option {
	return func(c *Center) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// Success / Failure 实现 connections 等模块的 Notifier 面
func (c *Center) Success(ctx context.Context, userID, title, body string) {
	c.deliver(ctx, userID, model.LevelSuccess, title, body)
}

func (c *Center) Failure(ctx context.Context, userID, title, body string) {
	c.deliver(ctx, userID, model.LevelError, title, body)
}

func (c *Center) deliver(ctx context.Context, userID, level, title, body string) {
	n := &model.Notification{
		NotifyID:  ids.GenerateString(),
		UserID:    userID,
		Level:     level,
		Title:     title,
		Body:      body,
		CreatedAt: c.clock(),
	}
	if err := c.store.Insert(ctx, n); err != nil {
		logger.Errorf("notify persist failed user=%s title=%s: %v", userID, title, err)
		return
	}
	payload, err := json.Marshal(n)
	if err != nil {
		logger.Errorf("notify marshal failed: %v", err)
		return
	}
	if err := c.pub.Publish(ctx, BizUserNotify, payload, map[string]string{"user_id": userID}); err != nil {
		logger.Warnf("notify push skipped user=%s: %v", userID, err)
	}
}

// List 最近通知
func (c *Center) List(ctx context.Context, userID string, limit int64) ([]*model.Notification, error) {
	if userID == "" {
		return nil, errs.ErrArgs.WithDetail("user id is required")
	}
	return c.store.List(ctx, userID, limit)
}

// MarkRead 标记已读（幂等）
func (c *Center) MarkRead(ctx context.Context, userID, notifyID string) error {
	if userID == "" || notifyID == "" {
		return errs.ErrArgs.WithDetail("user id and notify id are required")
	}
	return c.store.MarkRead(ctx, userID, notifyID)
}

// UnreadCount 未读数（角标）
func (c *Center) UnreadCount(ctx context.Context, userID string) (int64, error) {
	if userID == "" {
		return 0, errs.ErrArgs.WithDetail("user id is required")
	}
	return c.store.CountUnread(ctx, userID)
}
