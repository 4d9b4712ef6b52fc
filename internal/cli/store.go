package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	configFileName = "config.yaml"
	memoryFileName = "memory.yaml"
)

// Memory is the last search, offered as the default for the next one.
type Memory struct {
	GameName string `koanf:"game_name"`
	TagLine  string `koanf:"tag_line"`
	Region   string `koanf:"region"`
}

// defaultDir is the per-user directory for CLI state.
func defaultDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "."
	}
	return filepath.Join(dir, "sniped")
}

// exists reports whether path names an existing file.
func exists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

// readYAML loads path. A missing file yields an empty instance.
func readYAML(path string) (*koanf.Koanf, error) {
	k := koanf.New(".")
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return k, nil
	}
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return k, nil
}

// writeYAML stores k at path with owner-only permissions.
func writeYAML(path string, k *koanf.Koanf) error {
	b, err := k.Marshal(yaml.Parser())
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o600)
}

func loadMemory(path string) (Memory, error) {
	k, err := readYAML(path)
	if err != nil {
		return Memory{}, err
	}
	var m Memory
	if err := k.UnmarshalWithConf("", &m, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return Memory{}, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return m, nil
}

func saveMemory(path string, m Memory) error {
	k := koanf.New(".")
	_ = k.Set("game_name", m.GameName)
	_ = k.Set("tag_line", m.TagLine)
	_ = k.Set("region", m.Region)
	return writeYAML(path, k)
}

// setKey stores key in the config file, keeping its other settings.
func setKey(path, key string) error {
	k, err := readYAML(path)
	if err != nil {
		return err
	}
	if err := k.Set("riot_api_key", key); err != nil {
		return err
	}
	return writeYAML(path, k)
}
