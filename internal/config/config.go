package config

import (
	"time"

	"github.com/olusolaa/catalog-entity-provider/internal/adapters/discovery"
	"github.com/olusolaa/catalog-entity-provider/internal/adapters/state/tfstate"
	"github.com/olusolaa/catalog-entity-provider/internal/core/domain"
	"github.com/olusolaa/catalog-entity-provider/internal/log"
	"github.com/olusolaa/catalog-entity-provider/internal/schedule"
)

const (
	ProviderEKS      = "eks"
	ProviderAccounts = "accounts"

	SinkHTTP   = "http"
	SinkRDB    = "rdb"
	SinkStdout = "stdout"
)

type Config struct {
	Settings       SettingsConfig       `mapstructure:"settings" yaml:"settings"`
	Accounts       []AccountConfig      `mapstructure:"accounts" yaml:"accounts" validate:"dive"`
	AccountSources AccountSourcesConfig `mapstructure:"account_sources" yaml:"account_sources"`
	Discovery      discovery.Config     `mapstructure:"discovery" yaml:"discovery"`
	Providers      ProvidersConfig      `mapstructure:"providers" yaml:"providers"`
	Catalog        CatalogConfig        `mapstructure:"catalog" yaml:"catalog"`
	Reporting      ReportingConfig      `mapstructure:"reporting" yaml:"reporting"`
}

type SettingsConfig struct {
	LogLevel    log.Level  `mapstructure:"log_level" yaml:"log_level" validate:"oneof=debug info warn error"`
	LogFormat   log.Format `mapstructure:"log_format" yaml:"log_format" validate:"oneof=text json"`
	Concurrency int        `mapstructure:"concurrency" yaml:"concurrency" validate:"min=1,max=64"`
	MetricsAddr string     `mapstructure:"metrics_addr" yaml:"metrics_addr" validate:"omitempty,hostname_port"`
	Owner       string     `mapstructure:"owner" yaml:"owner" validate:"required"`
	Lifecycle   string     `mapstructure:"lifecycle" yaml:"lifecycle" validate:"required"`
}

type AccountConfig struct {
	AccountID     string `mapstructure:"account_id" yaml:"account_id" validate:"required,awsaccount"`
	RoleARN       string `mapstructure:"role_arn" yaml:"role_arn" validate:"omitempty,arn"`
	DefaultRegion string `mapstructure:"default_region" yaml:"default_region" validate:"required"`
}

func (a AccountConfig) Account() domain.Account {
	return domain.Account{AccountID: a.AccountID, RoleARN: a.RoleARN, DefaultRegion: a.DefaultRegion}
}

type AccountSourcesConfig struct {
	TFState *tfstate.Config `mapstructure:"tfstate" yaml:"tfstate,omitempty"`
}

type ProvidersConfig struct {
	EKS      *EKSProviderConfig      `mapstructure:"eks" yaml:"eks,omitempty"`
	Accounts *AccountsProviderConfig `mapstructure:"accounts" yaml:"accounts,omitempty"`
	REST     []RESTProviderConfig    `mapstructure:"rest" yaml:"rest" validate:"unique=Name,dive"`
}

type EKSProviderConfig struct {
	Enabled           bool              `mapstructure:"enabled" yaml:"enabled"`
	Regions           []string          `mapstructure:"regions" yaml:"regions"`
	Schedule          schedule.Schedule `mapstructure:"schedule" yaml:"schedule"`
	Annotations       map[string]string `mapstructure:"annotations" yaml:"annotations"`
	RequestsPerSecond int               `mapstructure:"requests_per_second" yaml:"requests_per_second" validate:"omitempty,min=1,max=100"`
}

type AccountsProviderConfig struct {
	Enabled           bool              `mapstructure:"enabled" yaml:"enabled"`
	Schedule          schedule.Schedule `mapstructure:"schedule" yaml:"schedule"`
	Annotations       map[string]string `mapstructure:"annotations" yaml:"annotations"`
	RequestsPerSecond int               `mapstructure:"requests_per_second" yaml:"requests_per_second" validate:"omitempty,min=1,max=100"`
}

// RESTProviderConfig describes one generic inventory reached with an
// authenticated GET, either directly (URL) or through the portal proxy
// (ProxyPath).
type RESTProviderConfig struct {
	Name             string            `mapstructure:"name" yaml:"name" validate:"required,excludesall=:/"`
	Disabled         bool              `mapstructure:"disabled" yaml:"disabled"`
	URL              string            `mapstructure:"url" yaml:"url" validate:"required_without=ProxyPath,omitempty,url"`
	ProxyPath        string            `mapstructure:"proxy_path" yaml:"proxy_path" validate:"omitempty,startswith=/"`
	Token            string            `mapstructure:"token" yaml:"token"`
	AuthScheme       string            `mapstructure:"auth_scheme" yaml:"auth_scheme"`
	ItemsPath        string            `mapstructure:"items_path" yaml:"items_path"`
	Headers          map[string]string `mapstructure:"headers" yaml:"headers"`
	Timeout          time.Duration     `mapstructure:"timeout" yaml:"timeout"`
	Kind             domain.EntityKind `mapstructure:"kind" yaml:"kind" validate:"omitempty,oneof=Resource Component User Group System"`
	Type             string            `mapstructure:"type" yaml:"type"`
	NameField        string            `mapstructure:"name_field" yaml:"name_field"`
	TitleField       string            `mapstructure:"title_field" yaml:"title_field"`
	DescriptionField string            `mapstructure:"description_field" yaml:"description_field"`
	AnnotationFields map[string]string `mapstructure:"annotation_fields" yaml:"annotation_fields"`
	SpecFields       map[string]string `mapstructure:"spec_fields" yaml:"spec_fields"`
	Annotations      map[string]string `mapstructure:"annotations" yaml:"annotations"`
	Schedule         schedule.Schedule `mapstructure:"schedule" yaml:"schedule"`
}

type CatalogConfig struct {
	Sink string          `mapstructure:"sink" yaml:"sink" validate:"oneof=http rdb stdout"`
	HTTP *HTTPSinkConfig `mapstructure:"http" yaml:"http,omitempty" validate:"required_if=Sink http,omitempty"`
	RDB  *RDBSinkConfig  `mapstructure:"rdb" yaml:"rdb,omitempty" validate:"required_if=Sink rdb,omitempty"`
}

type HTTPSinkConfig struct {
	URL          string        `mapstructure:"url" yaml:"url" validate:"required,url"`
	Token        string        `mapstructure:"token" yaml:"token"`
	RetryMax     int           `mapstructure:"retry_max" yaml:"retry_max" validate:"min=0,max=10"`
	RetryWaitMin time.Duration `mapstructure:"retry_wait_min" yaml:"retry_wait_min"`
	RetryWaitMax time.Duration `mapstructure:"retry_wait_max" yaml:"retry_wait_max"`
	Timeout      time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

type RDBSinkConfig struct {
	URL string `mapstructure:"url" yaml:"url" validate:"required"`
}

type ReportingConfig struct {
	Format  string `mapstructure:"format" yaml:"format" validate:"oneof=text json"`
	NoColor bool   `mapstructure:"no_color" yaml:"no_color"`
}

// HasAWSProviders reports whether any provider needs AWS accounts.
func (c *Config) HasAWSProviders() bool {
	return (c.Providers.EKS != nil && c.Providers.EKS.Enabled) ||
		(c.Providers.Accounts != nil && c.Providers.Accounts.Enabled)
}

func (c *Config) StaticAccounts() []domain.Account {
	accounts := make([]domain.Account, 0, len(c.Accounts))
	for _, a := range c.Accounts {
		accounts = append(accounts, a.Account())
	}
	return accounts
}

func DefaultConfig() *Config {
	return &Config{
		Settings: SettingsConfig{
			LogLevel:    log.LevelInfo,
			LogFormat:   log.FormatText,
			Concurrency: 4,
			Owner:       "unknown",
			Lifecycle:   "production",
		},
		Catalog: CatalogConfig{
			Sink: SinkStdout,
		},
		Reporting: ReportingConfig{
			Format: "text",
		},
	}
}
