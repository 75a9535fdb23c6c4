// Package google implements chat.Client on the Gemini API through the genai
// SDK. The same client reaches Vertex AI when configured with WithVertex,
// authenticating with Application Default Credentials.
package google
