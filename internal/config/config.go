package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Data     DataConfig     `yaml:"data" mapstructure:"data"`
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Workflow WorkflowConfig `yaml:"workflow" mapstructure:"workflow"`
	Review   ReviewConfig   `yaml:"review" mapstructure:"review"`
	Display  DisplayConfig  `yaml:"display" mapstructure:"display"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// DataConfig names the CSV tables loaded at startup.
type DataConfig struct {
	FirmsCSV      string `yaml:"firms_csv" mapstructure:"firms_csv"`
	PatentsCSV    string `yaml:"patents_csv" mapstructure:"patents_csv"`
	ApplicantsCSV string `yaml:"applicants_csv" mapstructure:"applicants_csv"`
}

// StoreConfig selects the record store backend. Both backends live in
// memory for the lifetime of the process.
type StoreConfig struct {
	Driver string `yaml:"driver" mapstructure:"driver"`
}

// WorkflowConfig tunes the grant queue.
type WorkflowConfig struct {
	CycleThreshold      int    `yaml:"cycle_threshold" mapstructure:"cycle_threshold"`
	PlaceholderFirmName string `yaml:"placeholder_firm_name" mapstructure:"placeholder_firm_name"`
	GrantDateFormat     string `yaml:"grant_date_format" mapstructure:"grant_date_format"`
}

// ReviewConfig selects the reviewer. An empty RulesPath prompts on the terminal.
type ReviewConfig struct {
	RulesPath string `yaml:"rules_path" mapstructure:"rules_path"`
}

// DisplayConfig limits how much the CLI prints per firm.
type DisplayConfig struct {
	DetailPatents int `yaml:"detail_patents" mapstructure:"detail_patents"`
	BriefPatents  int `yaml:"brief_patents" mapstructure:"brief_patents"`
	TitleWidth    int `yaml:"title_width" mapstructure:"title_width"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("PATENT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("data.firms_csv", "data/FirmData.csv")
	v.SetDefault("data.patents_csv", "data/FirmPatent.csv")
	v.SetDefault("data.applicants_csv", "data/Applicants.csv")
	v.SetDefault("store.driver", "memory")
	v.SetDefault("workflow.cycle_threshold", 3)
	v.SetDefault("workflow.placeholder_firm_name", "New Firm")
	v.SetDefault("workflow.grant_date_format", "20060102")
	v.SetDefault("review.rules_path", "")
	v.SetDefault("display.detail_patents", 50)
	v.SetDefault("display.brief_patents", 3)
	v.SetDefault("display.title_width", 60)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var problems []string
	switch c.Store.Driver {
	case "memory", "sqlite":
	default:
		problems = append(problems, "store.driver must be memory or sqlite")
	}
	if c.Data.PatentsCSV == "" {
		problems = append(problems, "data.patents_csv is required")
	}
	if c.Workflow.CycleThreshold < 1 {
		problems = append(problems, "workflow.cycle_threshold must be positive")
	}
	if c.Workflow.PlaceholderFirmName == "" {
		problems = append(problems, "workflow.placeholder_firm_name is required")
	}
	if c.Workflow.GrantDateFormat == "" {
		problems = append(problems, "workflow.grant_date_format is required")
	}
	if c.Display.DetailPatents < 0 || c.Display.BriefPatents < 0 {
		problems = append(problems, "display limits must not be negative")
	}
	if len(problems) > 0 {
		return eris.Errorf("config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
