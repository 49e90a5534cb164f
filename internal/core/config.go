package core

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/RecoveryAshes/linkrelay/internal/models"
	"github.com/RecoveryAshes/linkrelay/internal/utils"
	"github.com/spf13/viper"
)

// Config 应用程序配置
type Config struct {
	Source  models.SourceConfig  `mapstructure:"source"`
	Run     models.RunConfig     `mapstructure:"run"`
	Browser models.BrowserConfig `mapstructure:"browser"`
	Logging LoggingConfig        `mapstructure:"logging"`
	Report  ReportConfig         `mapstructure:"report"`
}

// LoggingConfig 日志配置
type LoggingConfig struct {
	Level    string         `mapstructure:"level"`
	LogDir   string         `mapstructure:"log_dir"`
	NoColor  bool           `mapstructure:"no_color"`
	Rotation RotationConfig `mapstructure:"rotation"`
}

// RotationConfig 日志轮转配置
type RotationConfig struct {
	MaxSize    int  `mapstructure:"max_size"`
	MaxBackups int  `mapstructure:"max_backups"`
	MaxAge     int  `mapstructure:"max_age"`
	Compress   bool `mapstructure:"compress"`
}

// ReportConfig 运行报告与进度条配置
type ReportConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Dir      string `mapstructure:"dir"`
	Progress bool   `mapstructure:"progress"`
}

// LoadConfig 加载配置文件
// configPath为空时依序搜索 ./configs, ., ~/.linkrelay 下的 config.yaml,找不到则使用默认值
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		v.AddConfigPath("./configs")
		v.AddConfigPath(".")

		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".linkrelay"))
		}
	}

	// LINKRELAY_RUN_WORKERS 之类的环境变量覆盖
	v.SetEnvPrefix("linkrelay")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, &models.ConfigError{FilePath: configPath, Cause: fmt.Errorf("读取配置文件失败: %w", err)}
		}
		utils.Debugf("未找到配置文件,使用默认值")
	} else {
		utils.Debugf("使用配置文件: %s", v.ConfigFileUsed())
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, &models.ConfigError{FilePath: v.ConfigFileUsed(), Cause: fmt.Errorf("解析配置文件失败: %w", err)}
	}

	return &config, nil
}

// setDefaults 设置默认配置值,与 config_template.yaml 一致
func setDefaults(v *viper.Viper) {
	// 来源
	v.SetDefault("source.kind", string(models.SourceSheet))
	v.SetDefault("source.sheet_id", "")
	v.SetDefault("source.gid", "0")
	v.SetDefault("source.query", "select E,F where E is not null")
	v.SetDefault("source.base_url", "https://docs.google.com/spreadsheets/d")
	v.SetDefault("source.list_file", "")
	v.SetDefault("source.links", "")
	v.SetDefault("source.default_destination", "https://www.google.com")
	v.SetDefault("source.fetch_timeout", "30s")
	v.SetDefault("source.headers_file", "configs/headers.yaml")

	// 运行
	v.SetDefault("run.workers", 1)
	v.SetDefault("run.launch_gap", 0)
	v.SetDefault("run.reload_every", 20)
	v.SetDefault("run.source_wait.min", "40s")
	v.SetDefault("run.source_wait.max", "60s")
	v.SetDefault("run.destination_wait.min", "60s")
	v.SetDefault("run.destination_wait.max", "100s")
	v.SetDefault("run.cooldown.min", "15s")
	v.SetDefault("run.cooldown.max", "25s")
	v.SetDefault("run.settle_delay", "600ms")

	// 浏览器
	v.SetDefault("browser.headless", false)
	v.SetDefault("browser.bin", "")
	v.SetDefault("browser.user_data_dir", "")
	v.SetDefault("browser.window.width", 375)
	v.SetDefault("browser.window.height", 812)
	v.SetDefault("browser.window.left", 100)
	v.SetDefault("browser.window.top", 100)
	v.SetDefault("browser.navigate_timeout", "30s")
	v.SetDefault("browser.max_windows", 16)
	v.SetDefault("browser.safety_reserve_memory", 1024)
	v.SetDefault("browser.safety_threshold", 500)
	v.SetDefault("browser.window_memory_usage", 100)
	v.SetDefault("browser.cpu_load_threshold", 200)

	// 日志
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.log_dir", "logs")
	v.SetDefault("logging.no_color", false)
	v.SetDefault("logging.rotation.max_size", 10)
	v.SetDefault("logging.rotation.max_backups", 3)
	v.SetDefault("logging.rotation.max_age", 28)
	v.SetDefault("logging.rotation.compress", true)

	// 报告
	v.SetDefault("report.enabled", true)
	v.SetDefault("report.dir", "reports")
	v.SetDefault("report.progress", true)
}

// LogConfig 转换为日志系统配置
func (c *Config) LogConfig() utils.LogConfig {
	return utils.LogConfig{
		Level:      c.Logging.Level,
		LogDir:     c.Logging.LogDir,
		MaxSize:    c.Logging.Rotation.MaxSize,
		MaxBackups: c.Logging.Rotation.MaxBackups,
		MaxAge:     c.Logging.Rotation.MaxAge,
		Compress:   c.Logging.Rotation.Compress,
		NoColor:    c.Logging.NoColor,
	}
}

// Validate 验证来源与运行配置
func (c *Config) Validate() error {
	if err := c.Source.Validate(); err != nil {
		return err
	}
	return c.Run.Validate()
}
