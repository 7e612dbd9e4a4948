package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

type Status int

const (
	StatusLoaded Status = iota
	StatusCreated
	StatusRecovered
)

func (s Status) String() string {
	switch s {
	case StatusCreated:
		return "created"
	case StatusRecovered:
		return "recovered"
	default:
		return "loaded"
	}
}

// ErrInvalid marks a settings file that exists but cannot be used.
var ErrInvalid = errors.New("invalid settings file")

// Load reads and validates path. Missing fields keep their defaults.
func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	s := Default()
	if err := decode(path, data, s); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if err := validateSchema(s); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return s, nil
}

// LoadOrCreate never leaves the user without settings: a missing file is
// created with defaults, and an unusable one is moved to <path>.bak and
// replaced with defaults.
func LoadOrCreate(path string) (*Settings, Status, error) {
	s, err := Load(path)
	switch {
	case err == nil:
		return s, StatusLoaded, nil
	case errors.Is(err, fs.ErrNotExist):
		s = Default()
		if err := Save(path, s); err != nil {
			return nil, StatusCreated, fmt.Errorf("create default settings: %w", err)
		}
		return s, StatusCreated, nil
	case errors.Is(err, ErrInvalid):
		if err := backup(path); err != nil {
			return nil, StatusRecovered, err
		}
		s = Default()
		if err := Save(path, s); err != nil {
			return nil, StatusRecovered, fmt.Errorf("rewrite default settings: %w", err)
		}
		return s, StatusRecovered, nil
	default:
		return nil, StatusLoaded, fmt.Errorf("read settings: %w", err)
	}
}

// Save writes s in the format implied by path's extension, replacing the
// file atomically.
func Save(path string, s *Settings) error {
	data, err := encode(path, s)
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".config-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func backup(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("back up settings: %w", err)
	}
	if err := os.WriteFile(path+".bak", data, 0o644); err != nil {
		return fmt.Errorf("back up settings: %w", err)
	}
	return nil
}

func format(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return "toml"
	case ".yaml", ".yml":
		return "yaml"
	default:
		return "json"
	}
}

func decode(path string, data []byte, s *Settings) error {
	switch format(path) {
	case "toml":
		if _, err := toml.Decode(string(data), s); err != nil {
			return fmt.Errorf("decode TOML: %w", err)
		}
	case "yaml":
		if err := yaml.Unmarshal(data, s); err != nil {
			return fmt.Errorf("decode YAML: %w", err)
		}
	default:
		if err := json.Unmarshal(data, s); err != nil {
			return fmt.Errorf("decode JSON: %w", err)
		}
	}
	return nil
}

func encode(path string, s *Settings) ([]byte, error) {
	switch format(path) {
	case "toml":
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(s); err != nil {
			return nil, fmt.Errorf("encode TOML: %w", err)
		}
		return buf.Bytes(), nil
	case "yaml":
		return yaml.Marshal(s)
	default:
		data, err := json.MarshalIndent(s, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	}
}
