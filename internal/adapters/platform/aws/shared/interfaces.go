package shared

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/eks"
	"github.com/aws/aws-sdk-go-v2/service/sts"

	"github.com/olusolaa/catalog-entity-provider/internal/core/domain"
)

// RateLimiter blocks until a call may proceed.
type RateLimiter interface {
	Wait(ctx context.Context) error
}

// ErrorHandler classifies an error returned by an AWS call.
type ErrorHandler interface {
	Handle(ctx context.Context, service, operation string, err error) error
}

// ConfigSource returns an SDK config scoped to one account and region.
type ConfigSource interface {
	ForAccount(account domain.Account, region string) aws.Config
}

type STSClientInterface interface {
	GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

type EC2RegionsInterface interface {
	DescribeRegions(ctx context.Context, params *ec2.DescribeRegionsInput, optFns ...func(*ec2.Options)) (*ec2.DescribeRegionsOutput, error)
}

type EKSClientInterface interface {
	ListClusters(ctx context.Context, params *eks.ListClustersInput, optFns ...func(*eks.Options)) (*eks.ListClustersOutput, error)
	DescribeCluster(ctx context.Context, params *eks.DescribeClusterInput, optFns ...func(*eks.Options)) (*eks.DescribeClusterOutput, error)
}
