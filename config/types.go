package config

import "time"

const (
	PaymentDriverIntent   = "intent"
	PaymentDriverMidtrans = "midtrans"
)

type MongoDBConfig struct {
	URI    string
	DBName string
}

type RedisConfig struct {
	Address  string
	Password string
	DB       int
}

type KafkaConfig struct {
	BrokerAddress   string
	BrokerTopic     string
	BrokerPartition int
}

type JWTConfig struct {
	JWTSecret        string
	JWTKid           string
	TokenTTL         time.Duration
	PasswordResetTTL time.Duration
}

type PaymentConfig struct {
	Driver            string
	APIHost           string
	MidtransServerKey string
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	Sender   string
}

type TracingConfig struct {
	CollectorHost string
}

type CheckoutConfig struct {
	// PendingTTL is how long an unconfirmed checkout intent stays open.
	PendingTTL    time.Duration
	ApplyInterval time.Duration
}
