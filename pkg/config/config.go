package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// EnvPrefix 环境变量前缀（INKBIRD_SERVER_ADDR -> server.addr）
const EnvPrefix = "INKBIRD"

var valid = validator.New()

// Config 全局配置结构体（聚合所有核心模块）
type Config struct {
	Server  ServerConfig  `yaml:"server" mapstructure:"server" comment:"HTTP服务配置"`
	Probe   ProbeConfig   `yaml:"probe" mapstructure:"probe" comment:"蓝牙探针采集配置"`
	Monitor MonitorConfig `yaml:"monitor" mapstructure:"monitor" comment:"主机自监控配置"`
	Log     ZapLogConfig  `yaml:"log" mapstructure:"log" comment:"日志配置"`
}

// ServerConfig HTTP服务配置（超时统一为time.Duration，支持"30s"解析）
type ServerConfig struct {
	Addr         string        `yaml:"addr" mapstructure:"addr" validate:"required,hostname_port" comment:"HTTP监听地址（格式：ip:port）"`
	ReadTimeout  time.Duration `yaml:"read-timeout" mapstructure:"read-timeout" validate:"required,gt=0" comment:"读取超时时间"`
	WriteTimeout time.Duration `yaml:"write-timeout" mapstructure:"write-timeout" validate:"required,gt=0" comment:"写入超时时间"`
	IdleTimeout  time.Duration `yaml:"idle-timeout" mapstructure:"idle-timeout" validate:"required,gt=0" comment:"空闲连接超时时间"`
}

// ProbeConfig 蓝牙温度探针配置
type ProbeConfig struct {
	Name              string        `yaml:"name" mapstructure:"name" validate:"required" comment:"设备广播名称（精确匹配）"`
	ScanTimeout       time.Duration `yaml:"scan-timeout" mapstructure:"scan-timeout" validate:"required,gt=0" comment:"单次扫描窗口"`
	ConnectTimeout    time.Duration `yaml:"connect-timeout" mapstructure:"connect-timeout" validate:"required,gt=0" comment:"连接超时"`
	PollInterval      time.Duration `yaml:"poll-interval" mapstructure:"poll-interval" validate:"required,gt=0" comment:"通知轮询间隔"`
	RetryMin          time.Duration `yaml:"retry-min" mapstructure:"retry-min" validate:"required,gt=0" comment:"失败后首次等待"`
	RetryMax          time.Duration `yaml:"retry-max" mapstructure:"retry-max" validate:"required,gt=0" comment:"失败后最长等待"`
	StaleTimeout      time.Duration `yaml:"stale-timeout" mapstructure:"stale-timeout" validate:"gte=0" comment:"无数据超时重连（0为关闭）"`
	ResetOnDisconnect bool          `yaml:"reset-on-disconnect" mapstructure:"reset-on-disconnect" comment:"断开后是否将温度置为NaN"`
}

// MonitorConfig 主机自监控配置
type MonitorConfig struct {
	Interval time.Duration `yaml:"interval" mapstructure:"interval" validate:"required,gt=0" comment:"采集间隔（如15s）"`
	Host     HostConfig    `yaml:"host" mapstructure:"host" comment:"主机指标采集器"`
}

// HostConfig 主机采集器配置
type HostConfig struct {
	Enable bool `yaml:"enable" mapstructure:"enable" comment:"是否启用主机采集器"`
}

// ZapLogConfig 日志配置
type ZapLogConfig struct {
	Level        string        `yaml:"level" mapstructure:"level" validate:"required,oneof=debug info warn error" comment:"日志级别"`
	Format       string        `yaml:"format" mapstructure:"format" validate:"required,oneof=json console" comment:"控制台日志格式（json/console）"`
	Path         string        `yaml:"path" mapstructure:"path" validate:"required" comment:"日志存储路径"`
	MaxSize      int           `yaml:"max-size" mapstructure:"max-size" validate:"gt=0" comment:"单个日志文件最大大小（MB）"`
	MaxAge       int           `yaml:"max-age" mapstructure:"max-age" validate:"gt=0" comment:"日志文件最大保存天数"`
	RotationTime time.Duration `yaml:"rotation-time" mapstructure:"rotation-time" validate:"required,gt=0" comment:"日志切割周期"`
}

// NewDefaultConfig 创建默认配置（所有字段兜底，避免空指针/非法值）
func NewDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:         "127.0.0.1:9121",
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  15 * time.Second,
		},
		Probe: ProbeConfig{
			Name:           "iBBQ",
			ScanTimeout:    10 * time.Second,
			ConnectTimeout: 2 * time.Second,
			PollInterval:   time.Second,
			RetryMin:       60 * time.Second,
			RetryMax:       60 * time.Second,
		},
		Monitor: MonitorConfig{
			Interval: 15 * time.Second,
			Host: HostConfig{
				Enable: true,
			},
		},
		Log: ZapLogConfig{
			Level:        "info",
			Format:       "console",
			Path:         "./logs",
			MaxSize:      100,
			MaxAge:       7,
			RotationTime: 24 * time.Hour,
		},
	}
}

// LoadConfigWithCli 支持 time.Duration，(Flags + YAML + ENV)
func LoadConfigWithCli(cmd *cobra.Command) (*Config, error) {
	v := viper.New()

	// 1. 绑定 Cobra Flags → Viper
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return nil, fmt.Errorf("bind flags: %w", err)
	}

	// 2. 解析配置文件 (--config)，未指定则只用 flag + env
	configFile, _ := cmd.Flags().GetString("config")
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", configFile, err)
		}
	}

	return Decode(v)
}

// Decode 将 viper 中的配置解码到结构体并校验
func Decode(v *viper.Viper) (*Config, error) {
	cfg := NewDefaultConfig()

	// 绑定环境变量 ENV -> Viper （INKBIRD_PROBE_POLL_INTERVAL -> probe.poll-interval）
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	decoderConfig := &mapstructure.DecoderConfig{
		Metadata:         nil,
		Result:           cfg,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	}

	decoder, err := mapstructure.NewDecoder(decoderConfig)
	if err != nil {
		return nil, fmt.Errorf("new decoder: %w", err)
	}

	if err := decoder.Decode(v.AllSettings()); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// Validate 配置校验
func (c *Config) Validate() error {
	if err := valid.Struct(c); err != nil {
		return err
	}
	// 	1,校验Server服务配置
	if err := c.Server.Validate(); err != nil {
		return err
	}
	// 	2，校验探针配置
	if err := c.Probe.Validate(); err != nil {
		return err
	}
	// 	3，校验主机采集配置
	if err := c.Monitor.Validate(); err != nil {
		return err
	}
	// 	4，校验日志配置
	if err := c.Log.Validate(); err != nil {
		return err
	}
	return nil
}
