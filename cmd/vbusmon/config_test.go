package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigExample(t *testing.T) {
	conf, err := loadConfig("ex.config.toml")
	require.NoError(t, err)
	require.Equal(t, "/dev/ttyUSB0", conf.Device)
	require.True(t, conf.RawMode)
	require.Equal(t, "mqtt://localhost:1883/solar", conf.MQTTURL)
}

func TestLoadConfigPartialKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf.toml")
	require.NoError(t, os.WriteFile(path, []byte("raw_mode = false\n"), 0600))

	conf, err := loadConfig(path)
	require.NoError(t, err)
	require.Equal(t, "-", conf.Device)
	require.False(t, conf.RawMode)
	require.Empty(t, conf.MQTTURL)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := loadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
}
