package tfstate

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olusolaa/catalog-entity-provider/internal/core/domain"
	"github.com/olusolaa/catalog-entity-provider/internal/errors"
	"github.com/olusolaa/catalog-entity-provider/mocks"
)

const rawState = `{
  "version": 4,
  "terraform_version": "1.7.5",
  "serial": 12,
  "lineage": "3f1c",
  "resources": [
    {
      "mode": "managed",
      "type": "aws_organizations_account",
      "name": "members",
      "provider": "provider[\"registry.terraform.io/hashicorp/aws\"]",
      "instances": [
        {"schema_version": 0, "attributes": {"id": "222222222222", "name": "payments", "status": "ACTIVE"}},
        {"schema_version": 0, "attributes": {"id": "111111111111", "name": "identity", "status": "ACTIVE"}},
        {"schema_version": 0, "attributes": {"id": "333333333333", "name": "closed", "status": "SUSPENDED"}}
      ]
    },
    {
      "mode": "data",
      "type": "aws_organizations_account",
      "name": "lookup",
      "instances": [{"schema_version": 0, "attributes": {"id": "444444444444"}}]
    },
    {
      "mode": "managed",
      "type": "aws_s3_bucket",
      "name": "logs",
      "instances": [{"schema_version": 0, "attributes": {"id": "logs"}}]
    }
  ]
}`

const showJSON = `{
  "format_version": "1.0",
  "terraform_version": "1.7.5",
  "values": {
    "root_module": {
      "child_modules": [
        {
          "address": "module.org",
          "resources": [
            {
              "address": "module.org.aws_organizations_account.sandbox",
              "mode": "managed",
              "type": "aws_organizations_account",
              "name": "sandbox",
              "provider_name": "registry.terraform.io/hashicorp/aws",
              "schema_version": 0,
              "values": {"id": "555555555555", "status": "ACTIVE"}
            }
          ]
        }
      ]
    }
  }
}`

func writeState(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "org.tfstate")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestAccountSource_RawState(t *testing.T) {
	path := writeState(t, rawState)
	src, err := NewAccountSource(Config{FilePath: path, RoleName: "catalog-reader", DefaultRegion: "us-east-1"}, mocks.NewTestLogger())
	require.NoError(t, err)

	accounts, err := src.Accounts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []domain.Account{
		{AccountID: "111111111111", RoleARN: "arn:aws:iam::111111111111:role/catalog-reader", DefaultRegion: "us-east-1"},
		{AccountID: "222222222222", RoleARN: "arn:aws:iam::222222222222:role/catalog-reader", DefaultRegion: "us-east-1"},
	}, accounts)
}

func TestAccountSource_ShowJSON(t *testing.T) {
	path := writeState(t, showJSON)
	src, err := NewAccountSource(Config{FilePath: path}, mocks.NewTestLogger())
	require.NoError(t, err)

	accounts, err := src.Accounts(context.Background())
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, "555555555555", accounts[0].AccountID)
	assert.Empty(t, accounts[0].RoleARN)
}

func TestAccountSource_ReloadsOnChange(t *testing.T) {
	path := writeState(t, rawState)
	src, err := NewAccountSource(Config{FilePath: path}, mocks.NewTestLogger())
	require.NoError(t, err)

	first, err := src.Accounts(context.Background())
	require.NoError(t, err)
	require.Len(t, first, 2)

	require.NoError(t, os.WriteFile(path, []byte(showJSON), 0o600))
	later := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(path, later, later))

	second, err := src.Accounts(context.Background())
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, "555555555555", second[0].AccountID)
}

func TestAccountSource_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"empty file", "   "},
		{"invalid json", "{not json"},
		{"old version", `{"version": 2, "resources": []}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, err := NewAccountSource(Config{FilePath: writeState(t, tt.content)}, mocks.NewTestLogger())
			require.NoError(t, err)
			_, err = src.Accounts(context.Background())
			require.Error(t, err)
			assert.Equal(t, errors.CodeAccountSourceError, errors.GetCode(err))
		})
	}

	t.Run("missing file", func(t *testing.T) {
		src, err := NewAccountSource(Config{FilePath: filepath.Join(t.TempDir(), "nope.tfstate")}, mocks.NewTestLogger())
		require.NoError(t, err)
		_, err = src.Accounts(context.Background())
		assert.Equal(t, errors.CodeAccountSourceError, errors.GetCode(err))
	})

	t.Run("path required", func(t *testing.T) {
		_, err := NewAccountSource(Config{}, mocks.NewTestLogger())
		assert.Equal(t, errors.CodeConfigValidation, errors.GetCode(err))
	})
}
