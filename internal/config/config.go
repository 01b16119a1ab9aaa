// Package config loads application settings from an optional TOML file,
// SORTPLAY_* environment variables and built-in defaults.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"sortplay/pkg/round"
)

const (
	configName = "sortplay"
	configType = "toml"
	envPrefix  = "SORTPLAY"

	KeyServerAddr          = "server.addr"
	KeyServerBaseURL       = "server.base_url"
	KeyLogLevel            = "log.level"
	KeyAudioEnabled        = "audio.enabled"
	KeyFreeSortSettle      = "timing.free_sort_settle"
	KeyDashCorrectSettle   = "timing.dash_correct_settle"
	KeyDashIncorrectSettle = "timing.dash_incorrect_settle"
	KeyTimeoutSettle       = "timing.timeout_settle"
	KeyTick                = "timing.tick"
	KeyLessonsDir          = "lessons.dir"
)

var ErrInvalid = errors.New("invalid configuration")

// Config is the resolved application configuration.
type Config struct {
	Server  Server
	Log     Log
	Audio   Audio
	Timing  Timing
	Lessons Lessons
	// File is the config file that was read, empty when none was found.
	File string
}

type Server struct {
	Addr    string
	BaseURL string
}

type Log struct {
	Level zerolog.Level
}

type Audio struct {
	Enabled bool
}

// Timing holds the feedback display delays and the countdown push interval.
type Timing struct {
	FreeSortSettle      time.Duration
	DashCorrectSettle   time.Duration
	DashIncorrectSettle time.Duration
	TimeoutSettle       time.Duration
	Tick                time.Duration
}

// Delays converts the settle times for the round state machine.
func (t Timing) Delays() round.Delays {
	return round.Delays{
		FreeSort:      t.FreeSortSettle,
		DashCorrect:   t.DashCorrectSettle,
		DashIncorrect: t.DashIncorrectSettle,
		Timeout:       t.TimeoutSettle,
	}
}

type Lessons struct {
	Dir string
}

// New returns a viper instance with defaults, env binding and the usual
// search paths applied.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetConfigName(configName)
	v.SetConfigType(configType)
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/sortplay")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// SetDefaults registers every key's default on v.
func SetDefaults(v *viper.Viper) {
	d := round.DefaultDelays()
	v.SetDefault(KeyServerAddr, ":8080")
	v.SetDefault(KeyServerBaseURL, "")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyAudioEnabled, true)
	v.SetDefault(KeyFreeSortSettle, d.FreeSort)
	v.SetDefault(KeyDashCorrectSettle, d.DashCorrect)
	v.SetDefault(KeyDashIncorrectSettle, d.DashIncorrect)
	v.SetDefault(KeyTimeoutSettle, d.Timeout)
	v.SetDefault(KeyTick, 250*time.Millisecond)
	v.SetDefault(KeyLessonsDir, "")
}

// Load reads the config file if one exists and resolves v. A missing file is
// not an error; a malformed one is. file, if set, replaces the search paths.
func Load(v *viper.Viper, file string) (Config, error) {
	if v == nil {
		v = New()
	}
	if file != "" {
		v.SetConfigFile(file)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}
	cfg, err := resolve(v)
	if err != nil {
		return Config{}, err
	}
	cfg.File = v.ConfigFileUsed()
	return cfg, nil
}

func resolve(v *viper.Viper) (Config, error) {
	level, err := zerolog.ParseLevel(strings.ToLower(v.GetString(KeyLogLevel)))
	if err != nil {
		return Config{}, fmt.Errorf("%w: %s: %w", ErrInvalid, KeyLogLevel, err)
	}
	cfg := Config{
		Server: Server{
			Addr:    strings.TrimSpace(v.GetString(KeyServerAddr)),
			BaseURL: strings.TrimRight(strings.TrimSpace(v.GetString(KeyServerBaseURL)), "/"),
		},
		Log:   Log{Level: level},
		Audio: Audio{Enabled: v.GetBool(KeyAudioEnabled)},
		Timing: Timing{
			FreeSortSettle:      v.GetDuration(KeyFreeSortSettle),
			DashCorrectSettle:   v.GetDuration(KeyDashCorrectSettle),
			DashIncorrectSettle: v.GetDuration(KeyDashIncorrectSettle),
			TimeoutSettle:       v.GetDuration(KeyTimeoutSettle),
			Tick:                v.GetDuration(KeyTick),
		},
		Lessons: Lessons{Dir: strings.TrimSpace(v.GetString(KeyLessonsDir))},
	}
	if cfg.Server.Addr == "" {
		return Config{}, fmt.Errorf("%w: %s is empty", ErrInvalid, KeyServerAddr)
	}
	if err := cfg.Timing.Delays().Validate(); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if cfg.Timing.Tick < 0 {
		return Config{}, fmt.Errorf("%w: %s is negative", ErrInvalid, KeyTick)
	}
	return cfg, nil
}
