package errors

type Code string

const (
	CodeUnknown          Code = "UNKNOWN"
	CodeInternal         Code = "INTERNAL_ERROR"
	CodeConfigValidation Code = "CONFIG_VALIDATION_ERROR"
	CodeConfigReadError  Code = "CONFIG_READ_ERROR"
	CodeConfigParseError Code = "CONFIG_PARSE_ERROR"
	CodeNotImplemented   Code = "NOT_IMPLEMENTED"
	CodeTimeout          Code = "TIMEOUT_ERROR"

	// External API client failures (ApiError)
	CodeAPIError        Code = "API_ERROR"
	CodeAPIAuthError    Code = "API_AUTH_ERROR"
	CodeAPIRateLimit    Code = "API_RATE_LIMIT"
	CodeAPINetworkError Code = "API_NETWORK_ERROR"
	CodeAPINotFound     Code = "API_NOT_FOUND"

	// Malformed input record (RenderError)
	CodeRenderError Code = "RENDER_ERROR"

	// Catalog ingestion failure (SubmissionError)
	CodeSubmissionError Code = "SUBMISSION_ERROR"

	CodeAccountSourceError Code = "ACCOUNT_SOURCE_ERROR"
	CodeStoreError         Code = "STORE_ERROR"
)

func (c Code) String() string {
	return string(c)
}

// IsAPI reports whether the code belongs to the external API family.
func (c Code) IsAPI() bool {
	switch c {
	case CodeAPIError, CodeAPIAuthError, CodeAPIRateLimit, CodeAPINetworkError, CodeAPINotFound:
		return true
	}
	return false
}
