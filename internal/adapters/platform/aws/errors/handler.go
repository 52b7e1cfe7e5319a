package errors

import (
	"context"
	stderrs "errors"
	"fmt"
	"net"
	"strings"

	"github.com/aws/smithy-go"

	"github.com/olusolaa/catalog-entity-provider/internal/errors"
)

// HandleAWSError classifies an AWS SDK error into one of the API error codes.
// service and operation name the failing call, e.g. "eks" and "ListClusters".
func HandleAWSError(ctx context.Context, service, operation string, err error) error {
	if err == nil {
		return errors.New(errors.CodeInternal, fmt.Sprintf("unexpected nil error in AWS error handler for %s:%s", service, operation))
	}

	call := fmt.Sprintf("%s:%s", service, operation)

	if ctx.Err() != nil || stderrs.Is(err, context.Canceled) || stderrs.Is(err, context.DeadlineExceeded) {
		return errors.Rewrap(err, errors.CodeTimeout, fmt.Sprintf("AWS %s call cancelled or timed out", call))
	}

	code := errorCode(err)
	errMsg := err.Error()

	switch {
	case isAuthError(code, errMsg):
		return errors.Rewrap(err, errors.CodeAPIAuthError, fmt.Sprintf("AWS %s denied", call))
	case isThrottleError(code):
		return errors.Rewrap(err, errors.CodeAPIRateLimit, fmt.Sprintf("AWS %s throttled", call))
	case isNotFoundError(code, errMsg):
		return errors.Rewrap(err, errors.CodeAPINotFound, fmt.Sprintf("AWS %s target not found", call))
	case isNetworkError(err):
		return errors.Rewrap(err, errors.CodeAPINetworkError, fmt.Sprintf("AWS %s network failure", call))
	}

	return errors.Rewrap(err, errors.CodeAPIError, fmt.Sprintf("AWS %s failed", call))
}

func errorCode(err error) string {
	var apiErr smithy.APIError
	if stderrs.As(err, &apiErr) && apiErr != nil {
		return apiErr.ErrorCode()
	}
	if coded, ok := err.(interface{ ErrorCode() string }); ok {
		return coded.ErrorCode()
	}
	return ""
}

func isAuthError(code, errMsg string) bool {
	switch code {
	case "AccessDenied", "AccessDeniedException", "UnauthorizedOperation", "AuthFailure",
		"ExpiredToken", "ExpiredTokenException", "InvalidClientTokenId", "UnrecognizedClientException":
		return true
	}
	return strings.Contains(errMsg, "AccessDenied") ||
		strings.Contains(errMsg, "AuthFailure") ||
		strings.Contains(errMsg, "UnauthorizedOperation")
}

func isThrottleError(code string) bool {
	switch code {
	case "Throttling", "ThrottlingException", "ThrottledException", "RequestThrottled",
		"RequestThrottledException", "TooManyRequestsException", "RequestLimitExceeded",
		"ProvisionedThroughputExceededException", "SlowDown":
		return true
	}
	return false
}

func isNotFoundError(code, errMsg string) bool {
	switch code {
	case "ResourceNotFoundException", "NotFoundException", "EntityNotFoundException", "NoSuchEntity":
		return true
	}
	return strings.Contains(errMsg, "NotFound") || strings.Contains(errMsg, "not found")
}

func isNetworkError(err error) bool {
	var netErr net.Error
	if stderrs.As(err, &netErr) {
		return true
	}
	var opErr *net.OpError
	if stderrs.As(err, &opErr) {
		return true
	}
	var dnsErr *net.DNSError
	return stderrs.As(err, &dnsErr)
}

// DefaultErrorHandler adapts HandleAWSError to the shared.ErrorHandler interface.
type DefaultErrorHandler struct{}

func (d *DefaultErrorHandler) Handle(ctx context.Context, service, operation string, err error) error {
	return HandleAWSError(ctx, service, operation, err)
}
