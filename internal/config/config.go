package config

import (
	"strings"

	"github.com/spf13/viper"

	"github.com/statwise/abengine/internal/models"
	"github.com/statwise/abengine/internal/utils"
)

type Config struct {
	Environment string           `mapstructure:"environment"`
	LogLevel    string           `mapstructure:"log_level"`
	Test        TestConfig       `mapstructure:"test"`
	Sequential  SequentialConfig `mapstructure:"sequential"`
	Simulation  SimulationConfig `mapstructure:"simulation"`
	Design      DesignConfig     `mapstructure:"design"`
}

// TestConfig holds the default fixed-horizon test parameters.
type TestConfig struct {
	Alpha           float64 `mapstructure:"alpha"`
	Power           float64 `mapstructure:"power"`
	ConfidenceLevel float64 `mapstructure:"confidence_level"`
	Sidedness       string  `mapstructure:"sidedness"`
}

// SequentialConfig holds the group-sequential monitoring defaults.
type SequentialConfig struct {
	BoundaryFamily   string  `mapstructure:"boundary_family"`
	PlannedLooks     int     `mapstructure:"planned_looks"`
	WangTsiatisDelta float64 `mapstructure:"wang_tsiatis_delta"`
	FutilityEnabled  bool    `mapstructure:"futility_enabled"`
	HarmEnabled      bool    `mapstructure:"harm_enabled"`
}

// SimulationConfig holds Monte Carlo batch defaults.
type SimulationConfig struct {
	Runs        int   `mapstructure:"runs"`
	HorizonDays int   `mapstructure:"horizon_days"`
	Seed        int64 `mapstructure:"seed"`
	MinWorkers  int   `mapstructure:"min_workers"`
	MaxWorkers  int   `mapstructure:"max_workers"`
}

// DesignConfig holds multi-variant design defaults.
type DesignConfig struct {
	DailyTraffic    int64   `mapstructure:"daily_traffic"`
	CostPerVisitor  float64 `mapstructure:"cost_per_visitor"`
	TrafficExposure float64 `mapstructure:"traffic_exposure"`
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath(".")

	// Set default values
	setDefaults()

	// Enable environment variable support
	viper.SetEnvPrefix("abengine")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Read config file
	if err := viper.ReadInConfig(); err != nil {
		// Config file not found, use defaults and environment variables
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	config.Environment = strings.ToLower(config.Environment)

	if err := config.validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) validate() error {
	if c.Test.Alpha <= 0 || c.Test.Alpha >= 1 {
		return utils.NewDomainErrorf("test.alpha must be in (0,1), got %v", c.Test.Alpha)
	}
	if c.Test.Power <= 0 || c.Test.Power >= 1 {
		return utils.NewDomainErrorf("test.power must be in (0,1), got %v", c.Test.Power)
	}
	if c.Test.ConfidenceLevel <= 0 || c.Test.ConfidenceLevel >= 1 {
		return utils.NewDomainErrorf("test.confidence_level must be in (0,1), got %v", c.Test.ConfidenceLevel)
	}
	switch models.Sidedness(c.Test.Sidedness) {
	case models.OneTailed, models.TwoTailed:
	default:
		return utils.NewInvalidInputErrorf("test.sidedness must be %q or %q, got %q", models.OneTailed, models.TwoTailed, c.Test.Sidedness)
	}
	switch models.BoundaryFamily(c.Sequential.BoundaryFamily) {
	case models.OBrienFleming, models.Pocock, models.WangTsiatis:
	default:
		return utils.NewInvalidInputErrorf("unknown sequential.boundary_family %q", c.Sequential.BoundaryFamily)
	}
	if c.Simulation.Runs <= 0 {
		return utils.NewInvalidInputErrorf("simulation.runs must be positive, got %d", c.Simulation.Runs)
	}
	if c.Simulation.HorizonDays <= 0 {
		return utils.NewInvalidInputErrorf("simulation.horizon_days must be positive, got %d", c.Simulation.HorizonDays)
	}
	if c.Design.TrafficExposure <= 0 || c.Design.TrafficExposure > 1 {
		return utils.NewInvalidDesignErrorf("design.traffic_exposure must be in (0,1], got %v", c.Design.TrafficExposure)
	}
	return nil
}

func setDefaults() {
	// Environment
	viper.SetDefault("environment", "development")
	viper.SetDefault("log_level", "info")

	// Fixed-horizon test defaults
	viper.SetDefault("test.alpha", 0.05)
	viper.SetDefault("test.power", 0.8)
	viper.SetDefault("test.confidence_level", 0.95)
	viper.SetDefault("test.sidedness", string(models.TwoTailed))

	// Sequential monitoring
	viper.SetDefault("sequential.boundary_family", string(models.OBrienFleming))
	viper.SetDefault("sequential.planned_looks", 5)
	viper.SetDefault("sequential.wang_tsiatis_delta", 0.25)
	viper.SetDefault("sequential.futility_enabled", true)
	viper.SetDefault("sequential.harm_enabled", true)

	// Monte Carlo simulation
	viper.SetDefault("simulation.runs", 1000)
	viper.SetDefault("simulation.horizon_days", 30)
	viper.SetDefault("simulation.seed", 0)
	viper.SetDefault("simulation.min_workers", 2)
	viper.SetDefault("simulation.max_workers", 16)

	// Multi-variant design
	viper.SetDefault("design.daily_traffic", 10000)
	viper.SetDefault("design.cost_per_visitor", 0.05)
	viper.SetDefault("design.traffic_exposure", 1.0)
}
