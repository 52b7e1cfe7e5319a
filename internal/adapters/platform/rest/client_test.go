package rest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olusolaa/catalog-entity-provider/internal/adapters/discovery"
	"github.com/olusolaa/catalog-entity-provider/internal/core/domain"
	"github.com/olusolaa/catalog-entity-provider/internal/errors"
	"github.com/olusolaa/catalog-entity-provider/mocks"
)

var source = domain.Account{AccountID: "bamboohr"}

const directory = `{
  "fields": [{"id": "displayName"}],
  "employees": [
    {"id": "4021", "displayName": "Ada Lovelace", "workEmail": "ada@example.com"},
    {"id": "4022", "displayName": "Alan Turing", "workEmail": "alan@example.com"},
    "not-an-object"
  ]
}`

func TestListRecords_ThroughProxy(t *testing.T) {
	var gotPath, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(directory))
	}))
	defer srv.Close()

	d := discovery.New(discovery.Config{BaseURL: srv.URL})
	c, err := NewClient(Config{
		Name:      "bamboohr",
		ProxyPath: "/bamboohr/api/gateway.php/acme/v1/employees/directory",
		Token:     "secret",
		ItemsPath: "employees",
	}, d, mocks.NewTestLogger())
	require.NoError(t, err)

	records, err := c.ListRecords(context.Background(), source)
	require.NoError(t, err)

	assert.Equal(t, "/api/proxy/bamboohr/api/gateway.php/acme/v1/employees/directory", gotPath)
	assert.Equal(t, "Bearer secret", gotAuth)
	require.Len(t, records, 2)
	assert.Equal(t, "Ada Lovelace", records[0].Record["displayName"])
	assert.Equal(t, "bamboohr", records[0].Context.AccountID)
	assert.Equal(t, "rest:bamboohr", c.Type())
}

func TestListRecords_StatusClassification(t *testing.T) {
	tests := []struct {
		status int
		want   errors.Code
	}{
		{http.StatusUnauthorized, errors.CodeAPIAuthError},
		{http.StatusForbidden, errors.CodeAPIAuthError},
		{http.StatusTooManyRequests, errors.CodeAPIRateLimit},
		{http.StatusNotFound, errors.CodeAPINotFound},
		{http.StatusBadGateway, errors.CodeAPIError},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			c, err := NewClient(Config{Name: "glean", URL: srv.URL}, nil, mocks.NewTestLogger())
			require.NoError(t, err)
			_, err = c.ListRecords(context.Background(), source)
			require.Error(t, err)
			assert.Equal(t, tt.want, errors.GetCode(err))
			assert.True(t, errors.IsAPIError(err))
		})
	}
}

func TestListRecords_ItemsPathNotArray(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"employees": {"count": 2}}`))
	}))
	defer srv.Close()

	c, err := NewClient(Config{Name: "bamboohr", URL: srv.URL, ItemsPath: "employees"}, nil, mocks.NewTestLogger())
	require.NoError(t, err)
	_, err = c.ListRecords(context.Background(), source)
	assert.Equal(t, errors.CodeAPIError, errors.GetCode(err))
}

func TestListRecords_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	c, err := NewClient(Config{Name: "bamboo", URL: url}, nil, mocks.NewTestLogger())
	require.NoError(t, err)
	_, err = c.ListRecords(context.Background(), source)
	require.Error(t, err)
	assert.Equal(t, errors.CodeAPINetworkError, errors.GetCode(err))
}

func TestNewClient_RequiresTarget(t *testing.T) {
	_, err := NewClient(Config{Name: "x"}, nil, mocks.NewTestLogger())
	assert.Equal(t, errors.CodeConfigValidation, errors.GetCode(err))

	_, err = NewClient(Config{Name: "x", ProxyPath: "/x"}, nil, mocks.NewTestLogger())
	assert.Equal(t, errors.CodeConfigValidation, errors.GetCode(err))
}
