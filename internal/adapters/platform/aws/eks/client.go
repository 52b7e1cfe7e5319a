package eks

import (
	"context"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eks"
	ekstypes "github.com/aws/aws-sdk-go-v2/service/eks/types"

	"github.com/olusolaa/catalog-entity-provider/internal/adapters/platform/aws/shared"
	"github.com/olusolaa/catalog-entity-provider/internal/core/domain"
	"github.com/olusolaa/catalog-entity-provider/internal/core/ports"
	apperrors "github.com/olusolaa/catalog-entity-provider/internal/errors"
)

const (
	ClientType       = "aws-eks"
	ClusterTypeValue = "eks-cluster"
	serviceName      = "eks"
)

type Options struct {
	Configs      shared.ConfigSource
	Regions      []string
	Limiter      shared.RateLimiter
	ErrorHandler shared.ErrorHandler
	Logger       ports.Logger
	// NewAPI builds the EKS client for one account and region. Defaults to
	// eks.NewFromConfig.
	NewAPI func(cfg aws.Config) shared.EKSClientInterface
}

// Client lists EKS clusters for an account across the configured regions.
// It does not retry; the SDK's own retryer is the only retry layer.
type Client struct {
	configs shared.ConfigSource
	regions []string
	limiter shared.RateLimiter
	errs    shared.ErrorHandler
	logger  ports.Logger
	newAPI  func(cfg aws.Config) shared.EKSClientInterface
}

func NewClient(opts Options) (*Client, error) {
	if opts.Configs == nil || opts.Limiter == nil || opts.ErrorHandler == nil || opts.Logger == nil {
		return nil, apperrors.New(apperrors.CodeInternal, "eks client requires configs, limiter, error handler and logger")
	}
	newAPI := opts.NewAPI
	if newAPI == nil {
		newAPI = func(cfg aws.Config) shared.EKSClientInterface { return eks.NewFromConfig(cfg) }
	}
	return &Client{
		configs: opts.Configs,
		regions: append([]string(nil), opts.Regions...),
		limiter: opts.Limiter,
		errs:    opts.ErrorHandler,
		logger:  opts.Logger.WithFields(map[string]any{"component": ClientType}),
		newAPI:  newAPI,
	}, nil
}

func (c *Client) Type() string {
	return ClientType
}

// ListRecords returns one record per cluster. Any failed call fails the whole
// account, so a partial listing is never mistaken for deleted clusters.
func (c *Client) ListRecords(ctx context.Context, account domain.Account) ([]domain.SourcedRecord, error) {
	regions := c.regions
	if len(regions) == 0 {
		if account.DefaultRegion == "" {
			return nil, apperrors.NewUserFacing(apperrors.CodeConfigValidation,
				"account "+account.AccountID+" has no default region and no EKS regions are configured",
				"Set providers.eks.regions or the account's default_region.")
		}
		regions = []string{account.DefaultRegion}
	}

	var records []domain.SourcedRecord
	for _, region := range regions {
		logger := c.logger.WithFields(map[string]any{"account_id": account.AccountID, "region": region})
		api := c.newAPI(c.configs.ForAccount(account, region))

		names, err := c.listClusterNames(ctx, api, logger)
		if err != nil {
			return nil, err
		}
		logger.Debugf(ctx, "Found %d EKS clusters", len(names))

		rc := domain.RenderContext{AccountID: account.AccountID, Region: region}
		for _, name := range names {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, c.errs.Handle(ctx, serviceName, "DescribeCluster", err)
			}
			out, err := api.DescribeCluster(ctx, &eks.DescribeClusterInput{Name: aws.String(name)})
			if err != nil {
				handled := c.errs.Handle(ctx, serviceName, "DescribeCluster", err)
				if apperrors.Is(handled, apperrors.CodeAPINotFound) {
					logger.Debugf(ctx, "Cluster %s disappeared between list and describe", name)
					continue
				}
				return nil, handled
			}
			if out.Cluster == nil {
				continue
			}
			records = append(records, domain.SourcedRecord{Record: clusterRecord(out.Cluster), Context: rc})
		}
	}
	return records, nil
}

func (c *Client) listClusterNames(ctx context.Context, api shared.EKSClientInterface, logger ports.Logger) ([]string, error) {
	paginator := eks.NewListClustersPaginator(api, &eks.ListClustersInput{})

	var names []string
	pageNum := 0
	for paginator.HasMorePages() {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, c.errs.Handle(ctx, serviceName, "ListClusters", err)
		}
		pageNum++
		logger.Debugf(ctx, "Fetching EKS clusters page %d", pageNum)
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, c.errs.Handle(ctx, serviceName, "ListClusters", err)
		}
		names = append(names, page.Clusters...)
	}
	sort.Strings(names)
	return names, nil
}

func clusterRecord(c *ekstypes.Cluster) domain.RawRecord {
	rec := domain.RawRecord{
		domain.FieldClusterTypeValue: ClusterTypeValue,
	}
	setString(rec, domain.FieldName, c.Name)
	setString(rec, domain.FieldARN, c.Arn)
	setString(rec, domain.FieldEndpoint, c.Endpoint)
	setString(rec, domain.FieldRoleARN, c.RoleArn)
	setString(rec, domain.FieldVersion, c.Version)
	setString(rec, domain.FieldPlatformVersion, c.PlatformVersion)
	if c.Status != "" {
		rec[domain.FieldStatus] = string(c.Status)
	}
	if len(c.Tags) > 0 {
		tags := make(map[string]any, len(c.Tags))
		for k, v := range c.Tags {
			tags[k] = v
		}
		rec[domain.FieldTags] = tags
	}
	return rec
}

func setString(rec domain.RawRecord, key string, v *string) {
	if v != nil && *v != "" {
		rec[key] = *v
	}
}
