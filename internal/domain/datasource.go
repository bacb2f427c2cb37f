package domain

// Provider はデータソースのプロバイダ種別を表す。
type Provider string

const (
	ProviderPostgreSQL  Provider = "postgresql"
	ProviderCockroachDB Provider = "cockroachdb"
	ProviderMySQL       Provider = "mysql"
	ProviderSQLite      Provider = "sqlite"
)

// SupportedProviders はサポート対象のプロバイダ一覧（エラーメッセージの表示順）。
var SupportedProviders = []Provider{
	ProviderPostgreSQL,
	ProviderCockroachDB,
	ProviderMySQL,
	ProviderSQLite,
}

// ParseProvider は文字列をProviderに変換する。サポート外の場合はエラーを返す。
func ParseProvider(s string) (Provider, error) {
	for _, p := range SupportedProviders {
		if string(p) == s {
			return p, nil
		}
	}
	return "", UnsupportedProvider(s)
}

// DatasourceConfig は接続先データソースを表す。実行ごとに1度だけ解決され、永続化されない。
type DatasourceConfig struct {
	Provider Provider
	URL      string
}

// ExternalConfig は外部設定ファイルの内容を表す。
type ExternalConfig struct {
	Datasource *ExternalDatasource `json:"datasource" yaml:"datasource"`
}

// ExternalDatasource は外部設定ファイルのdatasourceセクション。
type ExternalDatasource struct {
	URL *string `json:"url" yaml:"url"`
}
