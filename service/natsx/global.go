package natsx

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
)

// NatsManager 统一门面：对外只暴露这一个对象来用
type NatsManager struct {
	client   *NatsxClient
	producer *NatsxProducer
	consumer *NatsxConsumer
}

// NewNatsManager 初始化
func NewNatsManager(cfg NatsxConfig, middlewares ...NatsxMiddleware) (*NatsManager, error) {
	c, err := NewNatsxClient(cfg)
	if err != nil {
		return nil, err
	}
	return &NatsManager{
		client:   c,
		producer: NewNatsxProducer(c),
		consumer: NewNatsxConsumer(c, middlewares...),
	}, nil
}

// Close 释放资源（优雅关闭订阅与连接）
func (m *NatsManager) Close() error {
	if m == nil || m.client == nil {
		return nil
	}
	return m.client.Close()
}

// RegisterRoute 注册业务路由（biz -> subject / mode / queue / durable ...）
func (m *NatsManager) RegisterRoute(r NatsxRoute) error {
	if m == nil || m.client == nil {
		return fmt.Errorf("manager not initialized")
	}
	return m.client.RegisterRoute(r)
}

// Publish 生产消息（按 biz 路由）
func (m *NatsManager) Publish(ctx context.Context, biz string, data []byte, hdr map[string]string) error {
	if m == nil || m.producer == nil {
		return fmt.Errorf("manager not initialized")
	}
	return m.producer.Publish(ctx, biz, data, hdr)
}

// Subscribe 订阅
func (m *NatsManager) Subscribe(biz string, h NatsxHandler) error {
	if m == nil || m.consumer == nil {
		return fmt.Errorf("manager not initialized")
	}
	return m.consumer.Subscribe(biz, h)
}

// ---------- 全局单例（启动前注册的路由/订阅会被缓存） ----------

var (
	globalMgr *NatsManager
	startOnce sync.Once

	mu              sync.Mutex
	pendingRoutes   = make(map[string]NatsxRoute)
	pendingHandlers = make(map[string][]NatsxHandler)
)

// StartNats 启动全局 NATS（只会执行一次），应用启动前缓存的路由与订阅
func StartNats(cfg NatsxConfig, mws ...NatsxMiddleware) error {
	var startErr error
	startOnce.Do(func() {
		mgr, err := NewNatsManager(cfg, mws...)
		if err != nil {
			startErr = err
			return
		}

		mu.Lock()
		defer mu.Unlock()
		globalMgr = mgr

		for biz, r := range pendingRoutes {
			if err := globalMgr.RegisterRoute(r); err != nil {
				log.Printf("register route failed (biz=%s): %v", biz, err)
			}
		}
		for biz, hs := range pendingHandlers {
			for _, h := range hs {
				if err := globalMgr.Subscribe(biz, h); err != nil {
					log.Printf("subscribe failed (biz=%s): %v", biz, err)
				}
			}
		}
		pendingRoutes = make(map[string]NatsxRoute)
		pendingHandlers = make(map[string][]NatsxHandler)
	})
	return startErr
}

// StopNats 优雅关闭
func StopNats() error {
	mu.Lock()
	defer mu.Unlock()
	if globalMgr == nil {
		return nil
	}
	err := globalMgr.Close()
	globalMgr = nil
	return err
}

// RegisterRoute 全局注册路由；启动前调用会先缓存
func RegisterRoute(r NatsxRoute) error {
	mu.Lock()
	defer mu.Unlock()
	if globalMgr == nil {
		pendingRoutes[r.Biz] = r
		return nil
	}
	return globalMgr.RegisterRoute(r)
}

// RegisterHandler 为某个 Biz 注册订阅处理器；启动前调用会先缓存
func RegisterHandler(biz string, h NatsxHandler) error {
	mu.Lock()
	defer mu.Unlock()
	if globalMgr == nil {
		pendingHandlers[biz] = append(pendingHandlers[biz], h)
		return nil
	}
	return globalMgr.Subscribe(biz, h)
}

// Publish 对外发布消息（需要已启动）
func Publish(ctx context.Context, biz string, data []byte, hdr map[string]string) error {
	mu.Lock()
	m := globalMgr
	mu.Unlock()
	if m == nil {
		return errors.New("NatsManager not started")
	}
	return m.Publish(ctx, biz, data, hdr)
}
