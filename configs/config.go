package configs

import (
	"fmt"
	"strings"

	"file-utility-bot/pkg/validator"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Config struct
type Config struct {
	App       `mapstructure:"app"`
	Telegram  `mapstructure:"telegram"`
	Owner     `mapstructure:"owner"`
	Postgres  `mapstructure:"postgres"`
	Registry  `mapstructure:"registry"`
	Session   `mapstructure:"session"`
	Worker    `mapstructure:"worker"`
	Storage   `mapstructure:"storage"`
	KeepAlive `mapstructure:"keepalive"`
	Broadcast `mapstructure:"broadcast"`
	Media     `mapstructure:"media"`
}

// App struct
type App struct {
	Debug bool   `mapstructure:"debug"`
	Env   string `mapstructure:"env"`
	Port  string `mapstructure:"port"`
	Name  string `mapstructure:"name"`
}

// Telegram struct
type Telegram struct {
	Token       string `mapstructure:"token" validate:"required"`
	Username    string `mapstructure:"username"`
	PollTimeout int    `mapstructure:"poll_timeout" validate:"gte=0"` // seconds
}

// Owner struct
type Owner struct {
	ID int64 `mapstructure:"id"` // 0 disables /broadcast
}

// Postgres struct
type Postgres struct {
	URL      string `mapstructure:"url"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	DbName   string `mapstructure:"database"`
	SSLMode  bool   `mapstructure:"sslmode"`
}

// Registry struct
type Registry struct {
	Driver     string `mapstructure:"driver" validate:"omitempty,oneof=postgres sqlite"`
	SQLitePath string `mapstructure:"sqlite_path"`
}

// Session struct
type Session struct {
	IdleTimeout   int `mapstructure:"idle_timeout" validate:"gte=0"`   // minutes, 0 disables eviction
	SweepInterval int `mapstructure:"sweep_interval" validate:"gte=0"` // seconds
}

// Worker struct
type Worker struct {
	Size      int `mapstructure:"size" validate:"gte=0"`
	QueueSize int `mapstructure:"queue_size" validate:"gte=0"`
}

// Storage struct
type Storage struct {
	TempDir           string `mapstructure:"temp_dir"`
	MaxExtractEntries int    `mapstructure:"max_extract_entries" validate:"gte=0"`
}

// KeepAlive struct
type KeepAlive struct {
	URL      string `mapstructure:"url" validate:"omitempty,url"`
	Interval int    `mapstructure:"interval" validate:"gte=0"` // seconds
}

// Broadcast struct
type Broadcast struct {
	Delay int `mapstructure:"delay" validate:"gte=0"` // milliseconds
}

// Media struct
type Media struct {
	FFmpeg string `mapstructure:"ffmpeg"`
}

var config Config

// InitViper func
func InitViper(path, env string) {
	getConfig(path, env)
}

// GetViper func
func GetViper() *Config {
	return &config
}

// RegistryDriver returns the configured driver, postgres when unset
func (c *Config) RegistryDriver() string {
	if c.Registry.Driver == "" {
		return "postgres"
	}
	return c.Registry.Driver
}

// HasPostgres reports whether any postgres connection setting is present
func (c *Config) HasPostgres() bool {
	return c.Postgres.URL != "" || (c.Postgres.Host != "" && c.Postgres.DbName != "")
}

// Validate checks the settings needed before serving
func (c *Config) Validate() error {
	if err := validator.New().ValidateStruct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	switch c.RegistryDriver() {
	case "postgres":
		if !c.HasPostgres() {
			return fmt.Errorf("invalid configuration: postgres.url or postgres.host and postgres.database are required")
		}
	case "sqlite":
		if c.Registry.SQLitePath == "" {
			return fmt.Errorf("invalid configuration: registry.sqlite_path is required")
		}
	}
	return nil
}

// ConfigureLogger sets the logrus level and formatter from the app section
func (c *Config) ConfigureLogger() {
	if c.App.Debug {
		logrus.SetLevel(logrus.DebugLevel)
	} else {
		logrus.SetLevel(logrus.InfoLevel)
	}
	if c.App.Env == "production" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
}

func getConfig(path, env string) {
	viper.SetConfigName("config")
	viper.AddConfigPath(path)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	err := viper.ReadInConfig()
	if err != nil {
		panic(err)
	}
	if env != "" {
		viper.Set("app.env", env)
	}
	viper.WatchConfig()
	viper.OnConfigChange(func(e fsnotify.Event) {
		logrus.Infoln("Config file has changed: ", e.Name)
	})
	err = viper.Unmarshal(&config)
	if err != nil {
		logrus.Fatalln(err)
	}
}
