package infra

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	"data-migration-tool/internal/domain"
)

// FileConfigLoader はYAML（またはJSON）の外部設定ファイルを読み込む。
type FileConfigLoader struct {
	path string
}

// NewFileConfigLoader は新しいFileConfigLoaderを生成する。
func NewFileConfigLoader(path string) *FileConfigLoader {
	return &FileConfigLoader{path: path}
}

// Load は外部設定ファイルを読み込む。形式の検証は呼び出し側で行う。
func (l *FileConfigLoader) Load() (*domain.ExternalConfig, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s not found", domain.ErrInvalidExternalConfig, l.path)
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidExternalConfig, err)
	}

	var cfg domain.ExternalConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrInvalidExternalConfig, l.path, err)
	}
	return &cfg, nil
}
