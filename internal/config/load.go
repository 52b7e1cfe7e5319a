package config

import (
	"context"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/olusolaa/catalog-entity-provider/internal/errors"
)

var (
	accountIDPattern = regexp.MustCompile(`^\d{12}$`)
	arnPattern       = regexp.MustCompile(`^arn:[a-z0-9-]+:[a-z0-9-]+:[a-z0-9-]*:\d{0,12}:.+$`)
)

// KeyDelimiter separates nested keys. Annotation keys such as
// "example.com/team" contain dots, so viper's default delimiter cannot be used.
const KeyDelimiter = "::"

// NewViper returns a viper instance set up for this configuration: the
// custom key delimiter and CATALOG_ environment overrides.
func NewViper() *viper.Viper {
	v := viper.NewWithOptions(viper.KeyDelimiter(KeyDelimiter))
	v.SetEnvPrefix("CATALOG")
	v.SetEnvKeyReplacer(strings.NewReplacer(KeyDelimiter, "_"))
	v.AutomaticEnv()
	return v
}

// Key joins nested key segments with KeyDelimiter.
func Key(parts ...string) string {
	return strings.Join(parts, KeyDelimiter)
}

// Load decodes the viper settings over DefaultConfig and validates the result.
func Load(ctx context.Context, v *viper.Viper) (*Config, error) {
	cfg := DefaultConfig()
	err := v.Unmarshal(cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)))
	if err != nil {
		return nil, errors.WrapUserFacing(err, errors.CodeConfigParseError,
			"failed to decode configuration", "Check the types of values in your configuration file.")
	}
	if err := Validate(ctx, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newValidator() *validator.Validate {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("mapstructure"), ",")
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	_ = validate.RegisterValidation("awsaccount", func(fl validator.FieldLevel) bool {
		return accountIDPattern.MatchString(fl.Field().String())
	})
	_ = validate.RegisterValidation("arn", func(fl validator.FieldLevel) bool {
		return arnPattern.MatchString(fl.Field().String())
	})
	validate.RegisterStructValidation(validateDiscoveredRegion, Config{})
	return validate
}

// validateDiscoveredRegion rejects tfstate discovery without a default region
// when an AWS provider would fall back to the account's default region.
func validateDiscoveredRegion(sl validator.StructLevel) {
	cfg := sl.Current().Interface().(Config)
	tf := cfg.AccountSources.TFState
	if tf == nil || tf.DefaultRegion != "" {
		return
	}
	p := cfg.Providers
	needsRegion := (p.Accounts != nil && p.Accounts.Enabled) ||
		(p.EKS != nil && p.EKS.Enabled && len(p.EKS.Regions) == 0)
	if needsRegion {
		sl.ReportError(tf.DefaultRegion, "account_sources.tfstate.default_region", "DefaultRegion", "required_for_aws_providers", "")
	}
}

func Validate(ctx context.Context, cfg *Config) error {
	err := newValidator().StructCtx(ctx, cfg)
	if err == nil {
		return nil
	}
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return errors.Wrap(err, errors.CodeConfigValidation, "configuration validation failed")
	}

	var details strings.Builder
	details.WriteString("Configuration validation failed:")
	for _, fe := range validationErrors {
		details.WriteString(fmt.Sprintf("\n - Field '%s': Failed on '%s' validation (value: '%v')", fe.Namespace(), fe.Tag(), fe.Value()))
	}
	return errors.NewUserFacing(errors.CodeConfigValidation, details.String(), "Please check your configuration file or flags.")
}
