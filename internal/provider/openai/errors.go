package openai

import (
	"errors"
	"net/http"
	"time"

	"github.com/openai/openai-go"

	ai "github.com/spetersoncode/relay"
)

// wrapError categorizes an SDK error by its HTTP status. Errors without a
// status, such as network failures, are returned unchanged.
func wrapError(provider ai.Provider, err error) error {
	var apiErr *openai.Error
	if !errors.As(err, &apiErr) {
		return err
	}
	return ai.StatusError(provider, apiErr.StatusCode, retryAfter(apiErr.Response), err)
}

func retryAfter(resp *http.Response) time.Duration {
	if resp == nil {
		return 0
	}
	return ai.ParseRetryAfter(resp.Header)
}
