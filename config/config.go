package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServicePort    string
	MetricsPort    string
	Environment    string
	MongoDBConfig  MongoDBConfig
	RedisConfig    RedisConfig
	KafkaConfig    KafkaConfig
	JWTConfig      JWTConfig
	PaymentConfig  PaymentConfig
	SMTPConfig     SMTPConfig
	TracingConfig  TracingConfig
	CheckoutConfig CheckoutConfig
}

func CreateNewConfig() *Config {
	godotenv.Load(".env")

	conf := Config{
		ServicePort: os.Getenv("SERVICE_PORT"),
		MetricsPort: os.Getenv("METRICS_PORT"),
		Environment: os.Getenv("ENVIRONMENT"),
		MongoDBConfig: MongoDBConfig{
			URI:    os.Getenv("MONGODB_URI"),
			DBName: getEnv("DB_NAME", "quicart"),
		},
		RedisConfig: RedisConfig{
			Address:  os.Getenv("REDIS_ADDRESS"),
			Password: os.Getenv("REDIS_PASSWORD"),
		},
		KafkaConfig: KafkaConfig{
			BrokerAddress: os.Getenv("BROKER_ADDRESS"),
			BrokerTopic:   os.Getenv("BROKER_TOPIC"),
		},
		JWTConfig: JWTConfig{
			JWTSecret: os.Getenv("JWT_SECRET"),
			JWTKid:    os.Getenv("JWT_KID"),
		},
		PaymentConfig: PaymentConfig{
			Driver:            getEnv("PAYMENT_DRIVER", PaymentDriverIntent),
			APIHost:           os.Getenv("PAYMENT_API_HOST"),
			MidtransServerKey: os.Getenv("MIDTRANS_SERVER_KEY"),
		},
		SMTPConfig: SMTPConfig{
			Host:     os.Getenv("SMTP_HOST"),
			Username: os.Getenv("SMTP_USERNAME"),
			Password: os.Getenv("SMTP_PASSWORD"),
			Sender:   os.Getenv("SMTP_SENDER"),
		},
		TracingConfig: TracingConfig{
			CollectorHost: os.Getenv("COLLECTOR_HOST"),
		},
	}

	conf.KafkaConfig.BrokerPartition = getEnvInt("BROKER_PARTITION", 0)
	conf.RedisConfig.DB = getEnvInt("REDIS_DB", 0)
	conf.SMTPConfig.Port = getEnvInt("SMTP_PORT", 587)
	conf.JWTConfig.TokenTTL = getEnvDuration("JWT_TTL", 24*time.Hour)
	conf.JWTConfig.PasswordResetTTL = getEnvDuration("PASSWORD_RESET_TTL", 30*time.Minute)
	conf.CheckoutConfig.PendingTTL = getEnvDuration("CHECKOUT_PENDING_TTL", 30*time.Minute)
	conf.CheckoutConfig.ApplyInterval = getEnvDuration("CHECKOUT_APPLY_INTERVAL", 30*time.Second)

	return &conf
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}
