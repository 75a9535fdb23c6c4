package google

import (
	"errors"
	"fmt"

	"google.golang.org/genai"

	ai "github.com/spetersoncode/relay"
)

// BlockedError indicates the prompt was blocked by content filtering.
type BlockedError struct {
	Reason string
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("request blocked: %s", e.Reason)
}

func blocked(resp *genai.GenerateContentResponse) error {
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return &BlockedError{Reason: string(resp.PromptFeedback.BlockReason)}
	}
	return nil
}

// wrapError categorizes a genai API error by its status code. The SDK does
// not expose response headers, so no retry delay is carried.
func wrapError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return ai.StatusError(ai.ProviderGoogle, apiErr.Code, 0, err)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return ai.StatusError(ai.ProviderGoogle, apiErrPtr.Code, 0, err)
	}
	return err
}
