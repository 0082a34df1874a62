package llm

import (
	"encoding/base64"
)

// DataURL inlines bytes as a data: URL for multimodal requests.
func DataURL(data []byte, mimeType string) string {
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}
