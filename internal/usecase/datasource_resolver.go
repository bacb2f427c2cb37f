package usecase

import (
	"fmt"
	"net/url"
	"os"

	"data-migration-tool/internal/domain"
	"data-migration-tool/internal/schema"
)

// ExternalConfigLoader は外部設定を読み込むインターフェース。
type ExternalConfigLoader interface {
	Load() (*domain.ExternalConfig, error)
}

// DatasourceResolver はスキーマのdatasourceブロックから接続先を解決する。
type DatasourceResolver struct {
	loader    ExternalConfigLoader
	lookupEnv func(string) (string, bool)
}

// NewDatasourceResolver は新しいDatasourceResolverを生成する。
func NewDatasourceResolver(loader ExternalConfigLoader) *DatasourceResolver {
	return &DatasourceResolver{
		loader:    loader,
		lookupEnv: os.LookupEnv,
	}
}

// ResolveFile はスキーマファイル（またはディレクトリ）を読み込んで接続先を解決する。
func (r *DatasourceResolver) ResolveFile(path string) (domain.DatasourceConfig, error) {
	s, err := schema.ParseFile(path)
	if err != nil {
		return domain.DatasourceConfig{}, err
	}
	return r.Resolve(s)
}

// Resolve は構文木から接続先を解決する。
// url が定義されていない場合は外部設定の datasource.url を使用する。
func (r *DatasourceResolver) Resolve(s *schema.Schema) (domain.DatasourceConfig, error) {
	blocks := s.Blocks("datasource")
	if len(blocks) != 1 {
		return domain.DatasourceConfig{}, fmt.Errorf("%w: found %d", domain.ErrDatasourceNotFound, len(blocks))
	}
	block := blocks[0]

	providerField := block.Field("provider")
	if providerField == nil {
		return domain.DatasourceConfig{}, fmt.Errorf("%w: datasource %q", domain.ErrMissingProvider, block.Name)
	}
	providerValue, err := r.evaluate(providerField.Value)
	if err != nil {
		return domain.DatasourceConfig{}, fmt.Errorf("datasource provider: %w", err)
	}
	provider, err := domain.ParseProvider(providerValue)
	if err != nil {
		return domain.DatasourceConfig{}, err
	}

	var rawURL string
	if urlField := block.Field("url"); urlField != nil {
		rawURL, err = r.evaluate(urlField.Value)
		if err != nil {
			return domain.DatasourceConfig{}, fmt.Errorf("datasource url: %w", err)
		}
		if !isValidURL(rawURL) {
			return domain.DatasourceConfig{}, fmt.Errorf("%w: datasource %q", domain.ErrInvalidDatasourceURL, block.Name)
		}
	} else {
		rawURL, err = r.externalURL()
		if err != nil {
			return domain.DatasourceConfig{}, err
		}
	}

	return domain.DatasourceConfig{Provider: provider, URL: rawURL}, nil
}

// evaluate は文字列リテラルと env("NAME") のみを評価する。
func (r *DatasourceResolver) evaluate(e schema.Expr) (string, error) {
	switch e := e.(type) {
	case *schema.StringLit:
		return e.Value, nil
	case *schema.FuncCall:
		if e.Name == "env" && len(e.Args) == 1 {
			if name, ok := e.Args[0].(*schema.StringLit); ok {
				value, ok := r.lookupEnv(name.Value)
				if !ok {
					return "", fmt.Errorf("%w: %s", domain.ErrMissingEnvVar, name.Value)
				}
				return value, nil
			}
		}
	}
	return "", fmt.Errorf("%w: %s", domain.ErrUnsupportedExpression, schema.FormatExpr(e))
}

func (r *DatasourceResolver) externalURL() (string, error) {
	if r.loader == nil {
		return "", fmt.Errorf("%w: datasource url is not defined and no external config is available", domain.ErrInvalidExternalConfig)
	}
	cfg, err := r.loader.Load()
	if err != nil {
		return "", err
	}
	if cfg == nil || cfg.Datasource == nil || cfg.Datasource.URL == nil {
		return "", fmt.Errorf("%w: datasource.url is required", domain.ErrInvalidExternalConfig)
	}
	if !isValidURL(*cfg.Datasource.URL) {
		return "", fmt.Errorf("%w: datasource.url is not a valid url", domain.ErrInvalidExternalConfig)
	}
	return *cfg.Datasource.URL, nil
}

func isValidURL(s string) bool {
	if s == "" {
		return false
	}
	u, err := url.Parse(s)
	return err == nil && u.Scheme != ""
}
