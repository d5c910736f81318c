package main

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/ukaji3/pricematch-go/pkg/pricematch"
	"github.com/ukaji3/pricematch-go/pkg/pricematch/logging"
	"github.com/ukaji3/pricematch-go/pkg/pricematch/matcher"
	"github.com/ukaji3/pricematch-go/pkg/pricematch/models"
)

// envPrefix prefixes every environment variable, e.g.
// PRICEMATCH_WORKING_FILE_FILE_PATH or PRICEMATCH_MATCHING_THRESHOLD.
const envPrefix = "PRICEMATCH"

// flagKeys maps command line flags to configuration keys.
var flagKeys = map[string]string{
	"working-file":        "working_file.file_path",
	"working-column":      "working_file.description_column",
	"working-start":       "working_file.description_range.start",
	"working-end":         "working_file.description_range.end",
	"price-target-column": "working_file.price_target_column",
	"reference-file":      "reference_file.file_path",
	"reference-column":    "reference_file.description_column",
	"reference-start":     "reference_file.description_range.start",
	"reference-end":       "reference_file.description_range.end",
	"price-source-column": "reference_file.price_source_column",
	"threshold":           "matching_threshold",
	"scorer":              "scorer",
	"fold-case":           "fold_case",
	"log-level":           "log.level",
	"log-format":          "log.format",
	"log-file":            "log.file",
	"log-caller":          "log.caller",
}

// settings is everything a command needs, resolved from flags, environment,
// .env files and the config file, in that order of precedence.
type settings struct {
	Matching models.MatchingConfig
	Scorer   string
	FoldCase bool
	Log      logging.Config
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("matching_threshold", models.DefaultThreshold)
	v.SetDefault("scorer", matcher.ScorerRatio)
	v.SetDefault("fold_case", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "auto")
	v.SetDefault("log.file", "stderr")
	v.SetDefault("log.time_format", "kitchen")
	return v
}

func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for name, key := range flagKeys {
		flag := fs.Lookup(name)
		if flag == nil {
			return fmt.Errorf("flag --%s is not defined", name)
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("binding --%s: %w", name, err)
		}
	}
	return nil
}

// readConfig reads path if given, otherwise looks for pricematch.{yaml,json,toml}
// in the working directory and in ~/.config/pricematch. A missing default
// file is not an error.
func readConfig(v *viper.Viper, path string) error {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config %s: %w", path, err)
		}
		return nil
	}

	v.SetConfigName("pricematch")
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "pricematch"))
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("reading config: %w", err)
	}
	return nil
}

// loadEnvFiles loads .env.local and then .env. godotenv never overrides a
// variable that is already set, so .env.local wins over .env and the real
// environment wins over both.
func loadEnvFiles() {
	for _, name := range []string{".env.local", ".env"} {
		_ = godotenv.Load(name)
	}
}

func loadSettings(v *viper.Viper) settings {
	return settings{
		Matching: models.MatchingConfig{
			WorkingFile: models.WorkingFile{
				FilePath:          v.GetString("working_file.file_path"),
				DescriptionColumn: v.GetString("working_file.description_column"),
				DescriptionRange: models.CellRange{
					Start: v.GetString("working_file.description_range.start"),
					End:   v.GetString("working_file.description_range.end"),
				},
				PriceTargetColumn: v.GetString("working_file.price_target_column"),
			},
			ReferenceFile: models.ReferenceFile{
				FilePath:          v.GetString("reference_file.file_path"),
				DescriptionColumn: v.GetString("reference_file.description_column"),
				DescriptionRange: models.CellRange{
					Start: v.GetString("reference_file.description_range.start"),
					End:   v.GetString("reference_file.description_range.end"),
				},
				PriceSourceColumn: v.GetString("reference_file.price_source_column"),
			},
			Threshold: intSetting(v, "matching_threshold"),
		},
		Scorer:   v.GetString("scorer"),
		FoldCase: v.GetBool("fold_case"),
		Log:      logConfig(v),
	}
}

// logConfig reads the log section. log.fields is a map of default fields
// added to every entry and is only settable from a config file.
func logConfig(v *viper.Viper) logging.Config {
	cfg := *logging.DefaultConfig()
	cfg.Level = v.GetString("log.level")
	cfg.Format = v.GetString("log.format")
	cfg.Output = v.GetString("log.file")
	cfg.TimeFormat = v.GetString("log.time_format")
	cfg.AddCaller = v.GetBool("log.caller")
	for k, val := range v.GetStringMap("log.fields") {
		cfg.Fields[k] = val
	}
	return cfg
}

// intSetting reads key as a whole number. Values that are not integers, such
// as "abc" or 85.5, resolve to 0, which validation rejects.
func intSetting(v *viper.Viper, key string) int {
	switch x := v.Get(key).(type) {
	case int:
		return x
	case int32:
		return int(x)
	case int64:
		return int(x)
	case uint:
		return int(x)
	case uint64:
		return int(x)
	case float64:
		if x == math.Trunc(x) {
			return int(x)
		}
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(x)); err == nil {
			return n
		}
	}
	return 0
}

func (s settings) options() pricematch.Options {
	opts := pricematch.DefaultOptions()
	opts.Scorer = s.Scorer
	opts.FoldCase = s.FoldCase
	return opts
}
