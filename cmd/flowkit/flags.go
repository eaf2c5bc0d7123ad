package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/c360/flowkit/config"
)

// GlobalFlags holds the flags shared by every command
type GlobalFlags struct {
	ConfigPath string
	LogLevel   string
	LogFormat  string
}

// registerGlobalFlags registers persistent flags whose defaults come from
// the environment
func registerGlobalFlags(cmd *cobra.Command, flags *GlobalFlags) {
	cmd.PersistentFlags().StringVarP(&flags.ConfigPath, "config", "c",
		getEnv(config.EnvPrefix+"_CONFIG", ""),
		"Path to a JSON configuration file (env: FLOWKIT_CONFIG)")

	cmd.PersistentFlags().StringVar(&flags.LogLevel, "log-level",
		getEnv(config.EnvPrefix+"_LOG_LEVEL", ""),
		"Log level: debug, info, warn, error (env: FLOWKIT_LOG_LEVEL)")

	cmd.PersistentFlags().StringVar(&flags.LogFormat, "log-format",
		getEnv(config.EnvPrefix+"_LOG_FORMAT", ""),
		"Log format: json, text (env: FLOWKIT_LOG_FORMAT)")
}

func validateFlags(flags *GlobalFlags) error {
	if flags.LogLevel != "" && !contains([]string{"debug", "info", "warn", "error"}, strings.ToLower(flags.LogLevel)) {
		return fmt.Errorf("invalid log level: %s", flags.LogLevel)
	}
	if flags.LogFormat != "" && !contains([]string{"json", "text"}, strings.ToLower(flags.LogFormat)) {
		return fmt.Errorf("invalid log format: %s", flags.LogFormat)
	}
	if flags.ConfigPath != "" {
		if _, err := os.Stat(flags.ConfigPath); err != nil {
			return fmt.Errorf("config file not found: %s", flags.ConfigPath)
		}
	}
	return nil
}

// parseSettings turns "target.param=value" pairs into per-target parameter
// maps. The target is everything before the last dot of the key, so it can be
// a module name ("text.grep.pattern=^a") or an element id
// ("2.text.grep.pattern=^a").
func parseSettings(pairs []string) (map[string]map[string]string, error) {
	out := make(map[string]map[string]string)
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("setting %q: missing '='", pair)
		}
		dot := strings.LastIndex(key, ".")
		if dot <= 0 || dot == len(key)-1 {
			return nil, fmt.Errorf("setting %q: key must be <target>.<parameter>", pair)
		}
		target, name := key[:dot], key[dot+1:]
		if out[target] == nil {
			out[target] = make(map[string]string)
		}
		out[target][name] = value
	}
	return out, nil
}

// splitChain splits a comma separated chain, dropping blanks
func splitChain(chain string) []string {
	var out []string
	for _, part := range strings.Split(chain, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
