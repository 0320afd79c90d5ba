package config

import (
	"log"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	HTTP   HTTPConfig   `mapstructure:"http"`
	Chain  ChainConfig  `mapstructure:"chain"`
	Market MarketConfig `mapstructure:"market"`
	Redis  RedisConfig  `mapstructure:"redis"`
	Mongo  MongoConfig  `mapstructure:"mongo"`
	NATS   NATSConfig   `mapstructure:"nats"`
}

type HTTPConfig struct {
	Port            string        `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// ChainConfig points the engine at the chain gateway fronting the NFT and
// trading contracts.
type ChainConfig struct {
	GatewayURL          string        `mapstructure:"gateway_url"`
	NFTAddress          string        `mapstructure:"nft_address"`
	TradingAddress      string        `mapstructure:"trading_address"`
	RequestTimeout      time.Duration `mapstructure:"request_timeout"`
	ConfirmTimeout      time.Duration `mapstructure:"confirm_timeout"`
	ConfirmPollInterval time.Duration `mapstructure:"confirm_poll_interval"`
}

type MarketConfig struct {
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
	ReconcileFanOut int           `mapstructure:"reconcile_fan_out"`
	ProbeWindow     uint64        `mapstructure:"probe_window"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type MongoConfig struct {
	URI            string        `mapstructure:"uri"`
	Username       string        `mapstructure:"username"`
	Password       string        `mapstructure:"password"`
	Database       string        `mapstructure:"database"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

type NATSConfig struct {
	URL            string        `mapstructure:"url"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

func LoadConfig(path string) (*Config, error) {
	viper.SetDefault("http.port", "8080")
	viper.SetDefault("http.shutdown_timeout", "10s")

	viper.SetDefault("chain.gateway_url", "http://localhost:8545")
	viper.SetDefault("chain.request_timeout", "15s")
	viper.SetDefault("chain.confirm_timeout", "2m")
	viper.SetDefault("chain.confirm_poll_interval", "2s")

	viper.SetDefault("market.refresh_interval", "30s")
	viper.SetDefault("market.reconcile_fan_out", 8)
	viper.SetDefault("market.probe_window", 100)

	viper.SetDefault("redis.address", "localhost:6379")
	viper.SetDefault("redis.db", 0)

	viper.SetDefault("mongo.uri", "mongodb://localhost:27017")
	viper.SetDefault("mongo.database", "pokemon_market")
	viper.SetDefault("mongo.connect_timeout", "10s")

	viper.SetDefault("nats.url", "nats://localhost:4222")
	viper.SetDefault("nats.connect_timeout", "5s")

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		if fi, _ := os.Stat(path); !fi.IsDir() {
			viper.SetConfigFile(path)
		} else {
			viper.AddConfigPath(path)
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("MARKET")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Println("Config file not found; using defaults and environment variables.")
		} else {
			return nil, err
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
