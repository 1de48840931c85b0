package global

import (
	"os"
	"time"

	"TradeYa/data/database/mgo/mongoutil"
	chmodel "TradeYa/module/challenge/model"
	"TradeYa/service/kafka"
	"TradeYa/service/natsx"
	redis "TradeYa/service/storage/redis"
	"TradeYa/tools"
	"TradeYa/tools/errs"
	"TradeYa/tools/ids"
	jwtlib "TradeYa/tools/security"

	"gopkg.in/yaml.v3"
)

// AppConfig 全量配置；yaml 文件 + 环境变量两层，环境变量优先
type AppConfig struct {
	Server struct {
		Addr      string `yaml:"addr"`
		GatewayID string `yaml:"gatewayId"`
	} `yaml:"server"`

	Mongo struct {
		Uri         string `yaml:"uri"`
		Database    string `yaml:"database"`
		Username    string `yaml:"username"`
		Password    string `yaml:"password"`
		MaxPoolSize int    `yaml:"maxPoolSize"`
	} `yaml:"mongo"`

	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	Nats struct {
		Servers []string `yaml:"servers"`
		Name    string   `yaml:"name"`
	} `yaml:"nats"`

	Kafka struct {
		Brokers []string `yaml:"brokers"`
		GroupID string   `yaml:"groupId"`
	} `yaml:"kafka"`

	Jwt struct {
		Secret    string `yaml:"secret"`
		ExpireMin int    `yaml:"expireMin"`
	} `yaml:"jwt"`

	NodeID int64 `yaml:"nodeId"`

	Challenges []chmodel.Template `yaml:"challenges"`
}

var Global = AppConfig{}

func init() {
	Global.Server.Addr = ":8080"
	Global.Server.GatewayID = "ty_gateway_1"
	Global.Mongo.Uri = "mongodb://localhost:27017"
	Global.Mongo.Database = "tradeya"
	Global.Mongo.MaxPoolSize = 20
	Global.Redis.Addr = "127.0.0.1:6379"
	Global.Nats.Servers = []string{"nats://127.0.0.1:4222"}
	Global.Nats.Name = "tradeya-api"
	Global.Kafka.Brokers = []string{"127.0.0.1:9092"}
	Global.Kafka.GroupID = "ty-activity-consumer-1"
	Global.Jwt.Secret = "mN9b1f8zPq+W2xjX/45sKcVd0TfyoG+3Hp5Z8q9Rj1o="
	Global.Jwt.ExpireMin = 0 // 0 走 jwtlib 默认值
	Global.NodeID = 100
}

// Load 读 yaml 覆盖默认值，再套环境变量。文件不存在不算错，直接用默认值起。
func Load(path string) error {
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return errs.WrapMsg(err, "read config", "path", path)
			}
		} else if err := yaml.Unmarshal(data, &Global); err != nil {
			return errs.WrapMsg(err, "parse config", "path", path)
		}
	}
	applyEnv()
	return nil
}

func applyEnv() {
	g := &Global
	g.Server.Addr = tools.GetEnv("TY_ADDR", g.Server.Addr)
	g.Server.GatewayID = tools.GetEnv("TY_GATEWAY_ID", g.Server.GatewayID)
	g.Mongo.Uri = tools.GetEnv("TY_MONGO_URI", g.Mongo.Uri)
	g.Mongo.Database = tools.GetEnv("TY_MONGO_DB", g.Mongo.Database)
	g.Mongo.Username = tools.GetEnv("TY_MONGO_USER", g.Mongo.Username)
	g.Mongo.Password = tools.GetEnv("TY_MONGO_PASS", g.Mongo.Password)
	g.Redis.Addr = tools.GetEnv("TY_REDIS_ADDR", g.Redis.Addr)
	g.Redis.Password = tools.GetEnv("TY_REDIS_PASS", g.Redis.Password)
	g.Redis.DB = tools.GetEnvInt("TY_REDIS_DB", g.Redis.DB)
	if v := tools.GetEnv("TY_NATS_URL", ""); v != "" {
		g.Nats.Servers = []string{v}
	}
	if v := tools.GetEnv("TY_KAFKA_BROKERS", ""); v != "" {
		g.Kafka.Brokers = []string{v}
	}
	g.Kafka.GroupID = tools.GetEnv("TY_KAFKA_GROUP", g.Kafka.GroupID)
	g.Jwt.Secret = tools.GetEnv("TY_JWT_SECRET", g.Jwt.Secret)
	g.NodeID = int64(tools.GetEnvInt("TY_NODE_ID", int(g.NodeID)))
}

func GetJwtSecret() []byte {
	return []byte(Global.Jwt.Secret)
}

// JwtOptions 统一的签发/校验参数；handler 与 gateway 共用
func JwtOptions() jwtlib.Options {
	opts := jwtlib.DefaultOptions(GetJwtSecret())
	if Global.Jwt.ExpireMin > 0 {
		opts.TTL = time.Duration(Global.Jwt.ExpireMin) * time.Minute
	}
	return opts
}

func ConfigIds() {
	ids.SetNodeID(Global.NodeID)
}

func MongoConfig() *mongoutil.Config {
	return &mongoutil.Config{
		Uri:         Global.Mongo.Uri,
		Database:    Global.Mongo.Database,
		Username:    Global.Mongo.Username,
		Password:    Global.Mongo.Password,
		MaxPoolSize: Global.Mongo.MaxPoolSize,
		MaxRetry:    3,
	}
}

func RedisConfig() redis.Config {
	return redis.Config{
		Addr:     Global.Redis.Addr,
		Password: Global.Redis.Password,
		DB:       Global.Redis.DB,
	}
}

func NatsConfig() natsx.NatsxConfig {
	return natsx.NatsxConfig{
		Servers: Global.Nats.Servers,
		Name:    Global.Nats.Name,
	}
}

func ConfigKafka() {
	kafka.Cfg = kafka.Config{
		Brokers:               Global.Kafka.Brokers,
		ConsumerInitialOffset: "newest",
	}
}

// ChallengeTemplates 配置没给就用内置的三个常驻挑战
func ChallengeTemplates() []chmodel.Template {
	if len(Global.Challenges) > 0 {
		return Global.Challenges
	}
	return []chmodel.Template{
		{TemplateID: "weekly_design", Title: "Weekly Design Sprint", Description: "Ship one polished design artifact this week.", Skill: "design", Duration: 7 * 24 * time.Hour},
		{TemplateID: "weekly_code", Title: "Weekly Code Kata", Description: "Build and share a small working project.", Skill: "programming", Duration: 7 * 24 * time.Hour},
		{TemplateID: "monthly_mentor", Title: "Monthly Mentorship", Description: "Complete a mentorship session and write it up.", Skill: "mentoring", Duration: 30 * 24 * time.Hour},
	}
}
