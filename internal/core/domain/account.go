package domain

// Account identifies one external account to poll. Values are fixed once
// loaded from configuration.
type Account struct {
	AccountID     string `json:"accountId" yaml:"account_id"`
	RoleARN       string `json:"roleArn" yaml:"role_arn"`
	DefaultRegion string `json:"defaultRegion" yaml:"default_region"`
}

// RawRecord is one loosely-typed document returned by an external inventory.
type RawRecord map[string]any

// RenderContext carries the fields a renderer needs besides the record itself.
type RenderContext struct {
	AccountID string
	Region    string
}

// SourcedRecord is a raw record together with the account and region it came from.
type SourcedRecord struct {
	Record  RawRecord
	Context RenderContext
}
