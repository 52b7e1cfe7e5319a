package account

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	awserrors "github.com/olusolaa/catalog-entity-provider/internal/adapters/platform/aws/errors"
	"github.com/olusolaa/catalog-entity-provider/internal/adapters/platform/aws/shared"
	"github.com/olusolaa/catalog-entity-provider/internal/core/domain"
	apperrors "github.com/olusolaa/catalog-entity-provider/internal/errors"
	"github.com/olusolaa/catalog-entity-provider/mocks"
)

type regionConfigs struct{}

func (regionConfigs) ForAccount(a domain.Account, region string) aws.Config {
	if region == "" {
		region = a.DefaultRegion
	}
	return aws.Config{Region: region}
}

type noLimit struct{}

func (noLimit) Wait(context.Context) error { return nil }

var account = domain.Account{AccountID: "123456789012", RoleARN: "arn:aws:iam::123456789012:role/x", DefaultRegion: "us-east-1"}

func newTestClient(t *testing.T, stsAPI *mocks.MockSTSClient, ec2API *mocks.MockEC2Client) *Client {
	t.Helper()
	c, err := NewClient(Options{
		Configs:      regionConfigs{},
		Limiter:      noLimit{},
		ErrorHandler: &awserrors.DefaultErrorHandler{},
		Logger:       mocks.NewTestLogger(),
		NewSTS:       func(aws.Config) shared.STSClientInterface { return stsAPI },
		NewEC2:       func(aws.Config) shared.EC2RegionsInterface { return ec2API },
	})
	require.NoError(t, err)
	return c
}

func TestListRecords(t *testing.T) {
	stsAPI := new(mocks.MockSTSClient)
	stsAPI.On("GetCallerIdentity", mock.Anything, mock.Anything).Return(&sts.GetCallerIdentityOutput{
		Account: aws.String("123456789012"),
		Arn:     aws.String("arn:aws:sts::123456789012:assumed-role/x/catalog-entity-provider"),
		UserId:  aws.String("AROAEXAMPLE:catalog-entity-provider"),
	}, nil)
	ec2API := new(mocks.MockEC2Client)
	ec2API.On("DescribeRegions", mock.Anything, mock.Anything).Return(&ec2.DescribeRegionsOutput{
		Regions: []ec2types.Region{{RegionName: aws.String("us-west-2")}, {RegionName: aws.String("eu-west-1")}},
	}, nil)

	records, err := newTestClient(t, stsAPI, ec2API).ListRecords(context.Background(), account)
	require.NoError(t, err)
	require.Len(t, records, 1)

	rec := records[0]
	assert.Equal(t, domain.RenderContext{AccountID: "123456789012", Region: "us-east-1"}, rec.Context)
	assert.Equal(t, "123456789012", rec.Record["accountId"])
	assert.Equal(t, []any{"eu-west-1", "us-west-2"}, rec.Record["regions"])
	assert.Equal(t, "arn:aws:sts::123456789012:assumed-role/x/catalog-entity-provider", rec.Record["arn"])
}

func TestListRecords_STSFailure(t *testing.T) {
	stsAPI := new(mocks.MockSTSClient)
	stsAPI.On("GetCallerIdentity", mock.Anything, mock.Anything).
		Return(nil, &smithy.GenericAPIError{Code: "ExpiredToken", Message: "expired"})
	ec2API := new(mocks.MockEC2Client)

	_, err := newTestClient(t, stsAPI, ec2API).ListRecords(context.Background(), account)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeAPIAuthError, apperrors.GetCode(err))
	ec2API.AssertNotCalled(t, "DescribeRegions", mock.Anything, mock.Anything)
}
