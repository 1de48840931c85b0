package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"TradeYa/global"
	"TradeYa/logger"
	"TradeYa/middleware"
	midsec "TradeYa/middleware/security"
	chhandler "TradeYa/module/challenge/handler"
	chsvc "TradeYa/module/challenge/service"
	chstore "TradeYa/module/challenge/store"
	collabhandler "TradeYa/module/collaboration/handler"
	collabsvc "TradeYa/module/collaboration/service"
	collabstore "TradeYa/module/collaboration/store"
	connhandler "TradeYa/module/connections/handler"
	connsvc "TradeYa/module/connections/service"
	connstore "TradeYa/module/connections/store"
	"TradeYa/module/gamification/event"
	gamehandler "TradeYa/module/gamification/handler"
	gamesvc "TradeYa/module/gamification/service"
	gamestore "TradeYa/module/gamification/store"
	msghandler "TradeYa/module/messaging/handler"
	msgsvc "TradeYa/module/messaging/service"
	msgstore "TradeYa/module/messaging/store"
	notifyhandler "TradeYa/module/notify/handler"
	notifysvc "TradeYa/module/notify/service"
	notifystore "TradeYa/module/notify/store"
	tradehandler "TradeYa/module/trade/handler"
	tradesvc "TradeYa/module/trade/service"
	tradestore "TradeYa/module/trade/store"
	userhandler "TradeYa/module/user/handler"
	usersvc "TradeYa/module/user/service"
	userstore "TradeYa/module/user/store"
	"TradeYa/service/gateway"
	"TradeYa/service/kafka"
	mgoSrv "TradeYa/service/mgo"
	"TradeYa/service/natsx"
	"TradeYa/service/storage"
	redis "TradeYa/service/storage/redis"
	"TradeYa/tools/safe"

	"github.com/gin-gonic/gin"
)

type indexed interface {
	EnsureIndexes(ctx context.Context) error
}

func ensureIndexes(ctx context.Context, stores ...indexed) {
	for _, s := range stores {
		if err := s.EnsureIndexes(ctx); err != nil {
			logger.Warnf("ensure indexes: %v", err)
		}
	}
}

func main() {
	cfgPath := flag.String("config", "config.yaml", "配置文件路径")
	flag.Parse()

	if err := global.Load(*cfgPath); err != nil {
		logger.Errorf("load config: %v", err)
		os.Exit(1)
	}
	global.ConfigIds()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- Mongo ----
	mgoSrv.StartAsync(ctx, global.MongoConfig())
	waitCtx, waitCancel := context.WithTimeout(ctx, 30*time.Second)
	err := mgoSrv.WaitReady(waitCtx, mgoSrv.Manager())
	waitCancel()
	if err != nil {
		logger.Errorf("mongo not ready: %v", err)
		os.Exit(1)
	}
	db := mgoSrv.GetDB()
	mtx := mgoSrv.GetTx()

	// ---- Redis ----
	if err := redis.InitRedis(global.RedisConfig()); err != nil {
		logger.Errorf("redis init: %v", err)
		os.Exit(1)
	}
	storage.Bind(redis.GetRedis())

	// ---- 存储层 ----
	users := userstore.NewMongoStore(db)
	conns := connstore.NewMongoStore(db, mtx)
	notifies := notifystore.NewMongoStore(db)
	trades := tradestore.NewMongoStore(db)
	collabs := collabstore.NewMongoStore(db)
	messages := msgstore.NewMongoStore(db)
	challenges := chstore.NewMongoStore(db)
	accounts := gamestore.NewMongoStore(db)
	ensureIndexes(ctx, users, conns, notifies, trades, collabs, messages, challenges, accounts)

	// ---- 服务层 ----
	center := notifysvc.NewCenter(notifies)
	emitter := event.NewEmitter(nil) // 默认 KafkaSink

	accountSvc := usersvc.NewAccounts(users, global.JwtOptions())
	directory := connsvc.NewDirectory(conns,
		connsvc.WithNotifier(center), connsvc.WithEmitter(emitter))
	exchange := tradesvc.NewExchange(trades,
		tradesvc.WithNotifier(center), tradesvc.WithEmitter(emitter))
	projects := collabsvc.NewProjects(collabs,
		collabsvc.WithNotifier(center), collabsvc.WithEmitter(emitter))
	messenger := msgsvc.NewMessenger(messages, directory)
	arena := chsvc.NewArena(challenges,
		chsvc.WithEmitter(emitter), chsvc.WithTemplates(global.ChallengeTemplates()))
	ledger := gamesvc.NewLedger(accounts)

	// ---- Kafka（活动事件管道；起不来只降级，不拦启动） ----
	global.ConfigKafka()
	if err := kafka.InitKafkaClient(); err != nil {
		logger.Warnf("kafka unavailable, activity events disabled: %v", err)
	} else {
		if err := kafka.InitSyncProducerFromClient(); err != nil {
			logger.Warnf("kafka producer init: %v", err)
		}
		ledger.Register()
		safe.Go(func() {
			if err := kafka.StartConsumerGroup(ctx,
				global.Global.Kafka.Brokers, global.Global.Kafka.GroupID,
				[]string{event.TopicActivity}); err != nil {
				logger.Errorf("kafka consumer stopped: %v", err)
			}
		})
	}

	// ---- NATS + 网关 ----
	if err := natsx.RegisterRoute(natsx.NatsxRoute{
		Biz: notifysvc.BizUserNotify, Subject: "ty.notify.user", Mode: natsx.Core,
	}); err != nil {
		logger.Warnf("register route %s: %v", notifysvc.BizUserNotify, err)
	}
	if err := natsx.RegisterRoute(natsx.NatsxRoute{
		Biz: msgsvc.BizChatDeliver, Subject: "ty.chat.deliver", Mode: natsx.Core,
	}); err != nil {
		logger.Warnf("register route %s: %v", msgsvc.BizChatDeliver, err)
	}

	gw := gateway.NewServer(global.Global.Server.GatewayID, global.JwtOptions(), 0)
	if err := gw.BindNats(msgsvc.BizChatDeliver, notifysvc.BizUserNotify); err != nil {
		logger.Warnf("bind gateway: %v", err)
	}
	if err := natsx.StartNats(global.NatsConfig()); err != nil {
		logger.Warnf("nats unavailable, online push disabled: %v", err)
	}

	// 周期挑战开闭由后台轮转驱动
	arena.Run(ctx, time.Hour)

	// ---- HTTP ----
	middleware.ConfigAuth(midsec.DefaultOptions(global.JwtOptions()))
	r := gin.New()
	r.Use(gin.Recovery())

	userhandler.NewUserHandler(accountSvc).RegisterRoutes(r)
	connhandler.NewConnectionHandler(directory).RegisterRoutes(r)
	notifyhandler.NewNotifyHandler(center).RegisterRoutes(r)
	tradehandler.NewTradeHandler(exchange).RegisterRoutes(r)
	collabhandler.NewCollaborationHandler(projects).RegisterRoutes(r)
	msghandler.NewMessageHandler(messenger).RegisterRoutes(r)
	chhandler.NewChallengeHandler(arena).RegisterRoutes(r)
	gamehandler.NewGamificationHandler(ledger).RegisterRoutes(r)
	gw.RegisterRoutes(r)

	srv := &http.Server{Addr: global.Global.Server.Addr, Handler: r}
	safe.Go(func() {
		logger.Infof("tradeya listening on %s", global.Global.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("http server: %v", err)
		}
	})

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Infof("shutting down")

	shutCtx, shutCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutCancel()
	if err := srv.Shutdown(shutCtx); err != nil {
		logger.Warnf("http shutdown: %v", err)
	}
	if err := natsx.StopNats(); err != nil {
		logger.Warnf("nats shutdown: %v", err)
	}
	cancel()
}
