package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"
)

const (
	defaultWorkshopFile = "workshop.yaml"
	defaultPortMin      = 7000
	defaultPortMax      = 7099
	defaultReadyGrace   = 2 * time.Second
	defaultLogLevel     = "info"

	envWorkshopFile  = "DEVDECK_WORKSHOP_FILE"
	envPortMin       = "DEVDECK_PORT_MIN"
	envPortMax       = "DEVDECK_PORT_MAX"
	envReadyGrace    = "DEVDECK_READY_GRACE"
	envWatchManifest = "DEVDECK_WATCH_MANIFEST"
	envLogLevel      = "DEVDECK_LOG_LEVEL"
)

// Config aggregates daemon tunables: where the workshop lives, which ports
// dev servers may claim, and how spawned children are observed.
type Config struct {
	WorkshopFile  string
	PortMin       int
	PortMax       int
	ReadyGrace    time.Duration
	WatchManifest bool
	LogLevel      string
}

// Load builds a Config from an optional JSON file path plus environment overrides.
func Load(path string) (Config, error) {
	cfg := Config{
		WorkshopFile:  defaultWorkshopFile,
		PortMin:       defaultPortMin,
		PortMax:       defaultPortMax,
		ReadyGrace:    defaultReadyGrace,
		WatchManifest: true,
		LogLevel:      defaultLogLevel,
	}

	if path != "" {
		fileCfg, err := loadFromFile(path)
		if err != nil {
			return cfg, fmt.Errorf("load config %s: %w", path, err)
		}
		if fileCfg.WorkshopFile != "" {
			cfg.WorkshopFile = fileCfg.WorkshopFile
		}
		if fileCfg.PortMin != 0 {
			cfg.PortMin = fileCfg.PortMin
		}
		if fileCfg.PortMax != 0 {
			cfg.PortMax = fileCfg.PortMax
		}
		if fileCfg.ReadyGrace != 0 {
			cfg.ReadyGrace = fileCfg.ReadyGrace
		}
		if fileCfg.WatchManifest != nil {
			cfg.WatchManifest = *fileCfg.WatchManifest
		}
		if fileCfg.LogLevel != "" {
			cfg.LogLevel = fileCfg.LogLevel
		}
	}

	applyEnvOverrides(&cfg)

	if cfg.PortMin <= 0 {
		return cfg, errors.New("port_min must be > 0")
	}
	if cfg.PortMax < cfg.PortMin {
		return cfg, errors.New("port_max must be >= port_min")
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv(envWorkshopFile); v != "" {
		cfg.WorkshopFile = v
	}
	if v := os.Getenv(envPortMin); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.PortMin = n
		} else {
			log.Printf("invalid %s value %q", envPortMin, v)
		}
	}
	if v := os.Getenv(envPortMax); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.PortMax = n
		} else {
			log.Printf("invalid %s value %q", envPortMax, v)
		}
	}
	if v := os.Getenv(envReadyGrace); v != "" {
		if dur, err := time.ParseDuration(v); err == nil && dur > 0 {
			cfg.ReadyGrace = dur
		} else {
			log.Printf("invalid %s value %q", envReadyGrace, v)
		}
	}
	if v := os.Getenv(envWatchManifest); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.WatchManifest = b
		} else {
			log.Printf("invalid %s value %q", envWatchManifest, v)
		}
	}
	if v := os.Getenv(envLogLevel); v != "" {
		cfg.LogLevel = v
	}
}

type parsedFile struct {
	WorkshopFile  string
	PortMin       int
	PortMax       int
	ReadyGrace    time.Duration
	WatchManifest *bool
	LogLevel      string
}

type fileConfig struct {
	WorkshopFile  string `json:"workshop_file"`
	PortMin       int    `json:"port_min"`
	PortMax       int    `json:"port_max"`
	ReadyGrace    string `json:"ready_grace"`
	WatchManifest *bool  `json:"watch_manifest"`
	LogLevel      string `json:"log_level"`
}

func loadFromFile(path string) (parsedFile, error) {
	var cfg parsedFile

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	var raw fileConfig
	if err := json.Unmarshal(data, &raw); err != nil {
		return cfg, err
	}

	cfg.WorkshopFile = raw.WorkshopFile
	cfg.PortMin = raw.PortMin
	cfg.PortMax = raw.PortMax
	cfg.WatchManifest = raw.WatchManifest
	cfg.LogLevel = raw.LogLevel

	if raw.ReadyGrace != "" {
		dur, err := time.ParseDuration(raw.ReadyGrace)
		if err != nil {
			return cfg, fmt.Errorf("parse ready_grace: %w", err)
		}
		if dur <= 0 {
			return cfg, errors.New("ready_grace must be > 0")
		}
		cfg.ReadyGrace = dur
	}

	return cfg, nil
}
