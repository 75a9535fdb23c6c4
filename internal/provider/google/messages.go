package google

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"google.golang.org/genai"

	ai "github.com/spetersoncode/relay"
)

// convertMessages maps a conversation onto Gemini contents. System messages
// are joined into the system instruction.
func convertMessages(messages []ai.Message) ([]*genai.Content, *genai.Content, error) {
	var contents []*genai.Content
	var system []string

	for _, msg := range messages {
		var role genai.Role
		var parts []*genai.Part

		switch msg.Role {
		case ai.RoleSystem:
			if msg.Content != "" {
				system = append(system, msg.Content)
			}
			continue
		case ai.RoleAssistant:
			role = genai.RoleModel
			if msg.Content != "" {
				parts = append(parts, &genai.Part{Text: msg.Content})
			}
			for _, tc := range msg.ToolCalls {
				var args map[string]any
				_ = json.Unmarshal(tc.RawArguments(), &args)
				parts = append(parts, &genai.Part{
					FunctionCall: &genai.FunctionCall{ID: tc.ID, Name: tc.Name, Args: args},
				})
			}
		case ai.RoleTool:
			role = genai.RoleUser
			for _, tr := range msg.ToolResults {
				parts = append(parts, &genai.Part{
					FunctionResponse: &genai.FunctionResponse{
						ID:       tr.ToolCallID,
						Name:     tr.Name,
						Response: functionResponse(tr),
					},
				})
			}
		default:
			role = genai.RoleUser
			if msg.HasParts() {
				converted, err := convertParts(msg.Parts)
				if err != nil {
					return nil, nil, err
				}
				parts = converted
			} else if msg.Content != "" {
				parts = append(parts, &genai.Part{Text: msg.Content})
			}
		}

		if len(parts) > 0 {
			contents = append(contents, &genai.Content{Role: string(role), Parts: parts})
		}
	}

	var instruction *genai.Content
	if len(system) > 0 {
		instruction = genai.NewContentFromText(strings.Join(system, "\n\n"), genai.RoleUser)
	}
	return contents, instruction, nil
}

// functionResponse keeps JSON object results structured and wraps anything
// else. Failures are reported under "error".
func functionResponse(tr ai.ToolResult) map[string]any {
	key := "output"
	if tr.IsError {
		key = "error"
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(tr.Content), &obj); err == nil && obj != nil {
		if tr.IsError {
			return map[string]any{key: obj}
		}
		return obj
	}
	return map[string]any{key: tr.Content}
}

func convertParts(parts []ai.ContentPart) ([]*genai.Part, error) {
	var result []*genai.Part
	for _, part := range parts {
		switch part.Type {
		case ai.ContentPartTypeText:
			if part.Text != "" {
				result = append(result, &genai.Part{Text: part.Text})
			}
		case ai.ContentPartTypeImage:
			mimeType := part.MimeType
			switch {
			case part.Base64 != "":
				data, err := base64.StdEncoding.DecodeString(part.Base64)
				if err != nil {
					return nil, fmt.Errorf("decode image: %w", err)
				}
				if mimeType == "" {
					mimeType = "image/jpeg"
				}
				result = append(result, &genai.Part{InlineData: &genai.Blob{Data: data, MIMEType: mimeType}})
			case strings.HasPrefix(part.ImageURL, "gs://"):
				if mimeType == "" {
					mimeType = mimeTypeFromURL(part.ImageURL)
				}
				result = append(result, &genai.Part{FileData: &genai.FileData{FileURI: part.ImageURL, MIMEType: mimeType}})
			case part.ImageURL != "":
				// The Gemini API only reads inline data and Cloud Storage URIs.
				data, fetched, err := fetchImage(part.ImageURL)
				if err != nil {
					return nil, fmt.Errorf("fetch image %s: %w", part.ImageURL, err)
				}
				if mimeType == "" {
					mimeType = fetched
				}
				result = append(result, &genai.Part{InlineData: &genai.Blob{Data: data, MIMEType: mimeType}})
			}
		}
	}
	return result, nil
}

func fetchImage(url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, url, nil)
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("User-Agent", "relay/1.0")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", err
	}

	mimeType := resp.Header.Get("Content-Type")
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = mimeTypeFromURL(url)
	}
	return data, mimeType, nil
}

func mimeTypeFromURL(url string) string {
	lower := strings.ToLower(url)
	switch {
	case strings.HasSuffix(lower, ".png"):
		return "image/png"
	case strings.HasSuffix(lower, ".gif"):
		return "image/gif"
	case strings.HasSuffix(lower, ".webp"):
		return "image/webp"
	default:
		return "image/jpeg"
	}
}
