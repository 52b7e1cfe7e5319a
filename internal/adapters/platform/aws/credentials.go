package aws

import (
	"context"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials/stscreds"
	"github.com/aws/aws-sdk-go-v2/service/sts"

	"github.com/olusolaa/catalog-entity-provider/internal/core/domain"
	"github.com/olusolaa/catalog-entity-provider/internal/errors"
)

const (
	appID       = "catalog-entity-provider"
	sessionName = "catalog-entity-provider"
)

// ConfigFactory derives per-account SDK configs from the ambient credentials.
// Accounts with a role ARN get an assume-role provider; the cached credentials
// are shared by every region of that account.
type ConfigFactory struct {
	base aws.Config

	mu    sync.Mutex
	creds map[string]aws.CredentialsProvider

	newSTS func(aws.Config) stscreds.AssumeRoleAPIClient
}

func NewConfigFactory(ctx context.Context) (*ConfigFactory, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithAppID(appID))
	if err != nil {
		return nil, errors.WrapUserFacing(err, errors.CodeConfigValidation,
			"failed to load default AWS config",
			"Check AWS_PROFILE, AWS_REGION and the shared credentials file.")
	}
	return NewConfigFactoryFromConfig(cfg), nil
}

func NewConfigFactoryFromConfig(base aws.Config) *ConfigFactory {
	return &ConfigFactory{
		base:  base,
		creds: make(map[string]aws.CredentialsProvider),
		newSTS: func(cfg aws.Config) stscreds.AssumeRoleAPIClient {
			return sts.NewFromConfig(cfg)
		},
	}
}

// ForAccount returns a copy of the base config for region, falling back to
// the account's default region, using the account's role when one is set.
func (f *ConfigFactory) ForAccount(account domain.Account, region string) aws.Config {
	cfg := f.base.Copy()
	if region == "" {
		region = account.DefaultRegion
	}
	if region != "" {
		cfg.Region = region
	}
	if account.RoleARN != "" {
		cfg.Credentials = f.assumeRole(account.RoleARN)
	}
	return cfg
}

func (f *ConfigFactory) assumeRole(roleARN string) aws.CredentialsProvider {
	f.mu.Lock()
	defer f.mu.Unlock()

	if p, ok := f.creds[roleARN]; ok {
		return p
	}
	p := aws.NewCredentialsCache(stscreds.NewAssumeRoleProvider(
		f.newSTS(f.base),
		roleARN,
		func(o *stscreds.AssumeRoleOptions) {
			o.RoleSessionName = sessionName
		},
	))
	f.creds[roleARN] = p
	return p
}
