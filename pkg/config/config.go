package config

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/dizhouwu/QuantBeat/pkg/redis"
)

// KafkaConfig holds the order-stream consumer configuration.
type KafkaConfig struct {
	Brokers []string `env:"BROKERS" envDefault:"localhost:9092"`
	Topic   string   `env:"TOPIC" envDefault:"orders"`
}

// MatchPublisherConfig holds the match-event producer configuration.
type MatchPublisherConfig struct {
	Brokers []string `env:"BROKERS" envDefault:"localhost:9092"`
	Topic   string   `env:"TOPIC" envDefault:"matches"`
}

// JournalConfig holds the trade journal configuration.
type JournalConfig struct {
	Dir string `env:"DIR" envDefault:"./data/trade-journal"`
}

// BroadcasterConfig holds the pending-trade rebroadcast job configuration.
type BroadcasterConfig struct {
	Brokers  []string      `env:"BROKERS" envDefault:"localhost:9092"`
	Topic    string        `env:"TOPIC" envDefault:"matches"`
	Interval time.Duration `env:"INTERVAL" envDefault:"250ms"`
}

// Config is the root configuration of the matching engine service.
type Config struct {
	Pair string `env:"PAIR" envDefault:"BTC-USD"`

	Kafka          KafkaConfig          `envPrefix:"KAFKA_"`
	MatchPublisher MatchPublisherConfig `envPrefix:"MATCH_PUBLISHER_"`
	Journal        JournalConfig        `envPrefix:"JOURNAL_"`
	Broadcaster    BroadcasterConfig    `envPrefix:"BROADCASTER_"`
	Redis          redis.Config         `envPrefix:"REDIS_"`
}

// Load reads configuration from the environment, loading a .env file
// first when one is present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
