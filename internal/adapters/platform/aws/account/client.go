package account

import (
	"context"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/sts"

	"github.com/olusolaa/catalog-entity-provider/internal/adapters/platform/aws/shared"
	"github.com/olusolaa/catalog-entity-provider/internal/core/domain"
	"github.com/olusolaa/catalog-entity-provider/internal/core/ports"
	apperrors "github.com/olusolaa/catalog-entity-provider/internal/errors"
)

const ClientType = "aws-account"

type Options struct {
	Configs      shared.ConfigSource
	Limiter      shared.RateLimiter
	ErrorHandler shared.ErrorHandler
	Logger       ports.Logger
	NewSTS       func(cfg aws.Config) shared.STSClientInterface
	NewEC2       func(cfg aws.Config) shared.EC2RegionsInterface
}

// Client describes the account itself: the identity the provider runs as
// and the regions enabled for it.
type Client struct {
	configs shared.ConfigSource
	limiter shared.RateLimiter
	errs    shared.ErrorHandler
	logger  ports.Logger
	newSTS  func(cfg aws.Config) shared.STSClientInterface
	newEC2  func(cfg aws.Config) shared.EC2RegionsInterface
}

func NewClient(opts Options) (*Client, error) {
	if opts.Configs == nil || opts.Limiter == nil || opts.ErrorHandler == nil || opts.Logger == nil {
		return nil, apperrors.New(apperrors.CodeInternal, "account client requires configs, limiter, error handler and logger")
	}
	c := &Client{
		configs: opts.Configs,
		limiter: opts.Limiter,
		errs:    opts.ErrorHandler,
		logger:  opts.Logger.WithFields(map[string]any{"component": ClientType}),
		newSTS:  opts.NewSTS,
		newEC2:  opts.NewEC2,
	}
	if c.newSTS == nil {
		c.newSTS = func(cfg aws.Config) shared.STSClientInterface { return sts.NewFromConfig(cfg) }
	}
	if c.newEC2 == nil {
		c.newEC2 = func(cfg aws.Config) shared.EC2RegionsInterface { return ec2.NewFromConfig(cfg) }
	}
	return c, nil
}

func (c *Client) Type() string {
	return ClientType
}

// ListRecords returns exactly one record for the account.
func (c *Client) ListRecords(ctx context.Context, account domain.Account) ([]domain.SourcedRecord, error) {
	cfg := c.configs.ForAccount(account, "")

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, c.errs.Handle(ctx, "sts", "GetCallerIdentity", err)
	}
	identity, err := c.newSTS(cfg).GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return nil, c.errs.Handle(ctx, "sts", "GetCallerIdentity", err)
	}
	if identity.Account == nil {
		return nil, apperrors.New(apperrors.CodeAPIError, "AWS caller identity response did not contain Account ID")
	}
	if *identity.Account != account.AccountID {
		c.logger.Warnf(ctx, "Configured account %s resolved to caller account %s", account.AccountID, *identity.Account)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, c.errs.Handle(ctx, "ec2", "DescribeRegions", err)
	}
	out, err := c.newEC2(cfg).DescribeRegions(ctx, &ec2.DescribeRegionsInput{})
	if err != nil {
		return nil, c.errs.Handle(ctx, "ec2", "DescribeRegions", err)
	}
	regions := make([]any, 0, len(out.Regions))
	names := make([]string, 0, len(out.Regions))
	for _, r := range out.Regions {
		if r.RegionName != nil {
			names = append(names, *r.RegionName)
		}
	}
	sort.Strings(names)
	for _, n := range names {
		regions = append(regions, n)
	}

	rec := domain.RawRecord{
		domain.FieldAccountID: account.AccountID,
		domain.FieldRegions:   regions,
	}
	if identity.Arn != nil {
		rec[domain.FieldARN] = *identity.Arn
	}
	if identity.UserId != nil {
		rec[domain.FieldUserID] = *identity.UserId
	}

	return []domain.SourcedRecord{{
		Record:  rec,
		Context: domain.RenderContext{AccountID: account.AccountID, Region: cfg.Region},
	}}, nil
}
