package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/chatwing/chatwing/internal/config"
	"github.com/chatwing/chatwing/internal/llm"
	"github.com/chatwing/chatwing/types"
)

// GlobalAppConfig holds the global application configuration instance.
var GlobalAppConfig types.AppConfig

// validate is a single validator instance; it caches struct info.
var validate = validator.New()

// InitConfig reads in config file and ENV variables if set.
func InitConfig() {
	// .env first if present; absence is fine
	_ = godotenv.Load()

	// Env handling before the config file so CHATWING_* vars always apply
	viper.SetEnvPrefix(config.EnvPrefix)
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	cfgFileFlag := viper.GetString("config")
	if cfgFileFlag != "" {
		viper.SetConfigFile(cfgFileFlag)
	} else if _, err := os.Stat(config.ConfigDirName); !os.IsNotExist(err) {
		// Project-local config directory takes priority
		viper.AddConfigPath(config.ConfigDirName)
		viper.SetConfigName(config.ConfigName)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigName(config.ConfigName)
	}

	if err := viper.ReadInConfig(); err == nil {
		if viper.GetBool("verbose") {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	} else if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		if cfgFileFlag != "" {
			fmt.Fprintln(os.Stderr, "Error: specified config file not found:", cfgFileFlag)
		}
	} else {
		fmt.Fprintln(os.Stderr, "Error reading config file:", viper.ConfigFileUsed(), "-", err)
	}

	viper.SetDefault("llm.provider", llm.DefaultProvider)
	viper.SetDefault("llm.maxTurnIterations", 10)
	viper.SetDefault("budget.systemPromptTokens", config.DefaultSystemPromptTokens)
	viper.SetDefault("budget.debounceMs", config.DefaultDebounceMs)
	viper.SetDefault("telemetry.enabled", false)

	if err := viper.Unmarshal(&GlobalAppConfig); err != nil {
		fmt.Fprintf(os.Stderr, "Error unmarshaling config: %s\n", err)
		os.Exit(1)
	}

	if GlobalAppConfig.LLM.Model == "" {
		GlobalAppConfig.LLM.Model = llm.DefaultModelForProvider(GlobalAppConfig.LLM.Provider)
	}

	if err := validate.Struct(&GlobalAppConfig); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %s\n", err)
		os.Exit(1)
	}

	setupLogging()
}

// setupLogging routes slog to stderr, at debug level when verbose.
func setupLogging() {
	level := slog.LevelWarn
	if viper.GetBool("verbose") {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// GetConfig returns the loaded application configuration.
func GetConfig() *types.AppConfig {
	return &GlobalAppConfig
}
