package settings

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/packlaunch/packlaunch/core"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// ConfigPath is the config file settings are written to: the one viper loaded, otherwise config.toml in the
// data dir
func ConfigPath() (string, error) {
	if f := viper.ConfigFileUsed(); f != "" {
		return f, nil
	}
	dataDir, err := core.GetLauncherDataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dataDir, "config.toml"), nil
}

// updateConfig reads the config file, lets update change it and writes it back. Changed keys are also set in
// viper so the rest of the process sees them.
func updateConfig(update func(cfg map[string]interface{}) error) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	cfg := make(map[string]interface{})
	if _, err := toml.DecodeFile(path, &cfg); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := update(cfg); err != nil {
		return err
	}

	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	// Disable indentation
	enc.Indent = ""
	if err := enc.Encode(cfg); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return err
	}
	if err := core.WriteFileAtomic(path, buf.Bytes()); err != nil {
		return err
	}
	core.Log.Debug("wrote config", zap.String("path", path))
	return nil
}

// setKey sets a dotted key in a nested config map, deleting it when value is nil
func setKey(cfg map[string]interface{}, key string, value interface{}) {
	parts := strings.Split(key, ".")
	m := cfg
	for _, p := range parts[:len(parts)-1] {
		next, ok := m[p].(map[string]interface{})
		if !ok {
			next = make(map[string]interface{})
			m[p] = next
		}
		m = next
	}
	last := parts[len(parts)-1]
	if value == nil {
		delete(m, last)
	} else {
		m[last] = value
	}
	viper.Set(key, value)
}
