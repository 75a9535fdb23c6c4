package anthropic

import (
	"errors"
	"time"

	"github.com/anthropics/anthropic-sdk-go"

	ai "github.com/spetersoncode/relay"
)

// wrapError categorizes an SDK error by its HTTP status. Errors without a
// status, such as network failures, are returned unchanged.
func wrapError(err error) error {
	var apiErr *anthropic.Error
	if !errors.As(err, &apiErr) {
		return err
	}
	var retryAfter time.Duration
	if apiErr.Response != nil {
		retryAfter = ai.ParseRetryAfter(apiErr.Response.Header)
	}
	return ai.StatusError(ai.ProviderAnthropic, apiErr.StatusCode, retryAfter, err)
}
