package main

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

type config struct {
	Device  string
	RawMode bool
	MQTTURL string
}

func defaultConfig() config {
	return config{
		Device:  "-",
		RawMode: true,
	}
}

type fileConfig struct {
	Device  string `toml:"device"`
	RawMode bool   `toml:"raw_mode"`
	MQTTURL string `toml:"mqtt_url"`
}

// loadConfig reads a TOML config file; only keys present in the file
// override the defaults.
func loadConfig(path string) (config, error) {
	cfg := defaultConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return config{}, fmt.Errorf("load config: %w", err)
	}

	if meta.IsDefined("device") {
		if dev := strings.TrimSpace(raw.Device); dev != "" {
			cfg.Device = dev
		}
	}
	if meta.IsDefined("raw_mode") {
		cfg.RawMode = raw.RawMode
	}
	if meta.IsDefined("mqtt_url") {
		cfg.MQTTURL = strings.TrimSpace(raw.MQTTURL)
	}
	return cfg, nil
}
