package ai

import "fmt"

// NormalizeFragment converts a streamed fragment payload into plain text.
//
// Providers are not consistent about fragment shape. Three forms show up in
// practice and all must be handled:
//   - plain text: "..."
//   - a structured document: {"type": "text", "text": "...", ...}
//   - a list of such documents
//
// A payload that carries no text normalizes to "" and must be dropped by the
// caller rather than forwarded as an empty chunk.
func NormalizeFragment(payload any) string {
	switch v := payload.(type) {
	case nil:
		return ""
	case string:
		return v
	case map[string]any:
		return documentText(v)
	case []any:
		var out string
		for _, item := range v {
			if doc, ok := item.(map[string]any); ok {
				out += documentText(doc)
			} else {
				out += fmt.Sprintf("%v", item)
			}
		}
		return out
	default:
		return fmt.Sprintf("%v", v)
	}
}

func documentText(doc map[string]any) string {
	if text, ok := doc["text"].(string); ok && text != "" {
		return text
	}
	if content, ok := doc["content"].(string); ok && content != "" {
		return content
	}
	return ""
}
