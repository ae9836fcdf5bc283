package utils

import (
	"strings"
	"time"

	"puja-booking/types"

	"github.com/gofiber/fiber/v2"
)

const redacted = "[REDACTED]"

// sanitizeRequestBody hides large encoded payloads from the request log
func sanitizeRequestBody(c *fiber.Ctx) string {
	body := string(c.Body())
	if len(body) > 1000 && (strings.Contains(body, "data:image/") ||
		strings.Contains(body, "base64") ||
		isLikelyBase64(body)) {
		return "[LARGE_REQUEST_BODY_WITH_POSSIBLE_FILE_CONTENT]"
	}

	return body
}

// isLikelyBase64 detects if content looks like base64
func isLikelyBase64(content string) bool {
	// Simple heuristic: if more than 80% of content is base64 characters and it's long
	if len(content) < 100 {
		return false
	}

	base64Chars := 0
	for _, char := range content {
		if (char >= 'A' && char <= 'Z') ||
			(char >= 'a' && char <= 'z') ||
			(char >= '0' && char <= '9') ||
			char == '+' || char == '/' || char == '=' {
			base64Chars++
		}
	}

	return float64(base64Chars)/float64(len(content)) > 0.8
}

// sanitizedRequestHeaders copies the request headers with credentials masked.
func sanitizedRequestHeaders(c *fiber.Ctx) string {
	var b strings.Builder
	c.Request().Header.VisitAll(func(key, value []byte) {
		k := string(key)
		v := string(value)
		switch strings.ToLower(k) {
		case "authorization", "cookie", "x-webhook-secret":
			v = redacted
		}
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(v)
		b.WriteString("\r\n")
	})
	return b.String()
}

// CreateSanitizedLogEntry creates a deep copied and sanitized log entry for logging.
// Bodies and headers are copied because fiber reuses its buffers after the handler returns.
func CreateSanitizedLogEntry(c *fiber.Ctx) types.LogEntry {
	responseHeaders := make([]byte, len(c.Response().Header.Header()))
	copy(responseHeaders, c.Response().Header.Header())

	return types.LogEntry{
		Method:          string([]byte(c.Method())),
		URL:             string([]byte(c.OriginalURL())),
		RequestBody:     sanitizeRequestBody(c),
		ResponseBody:    string(append([]byte(nil), c.Response().Body()...)),
		RequestHeaders:  sanitizedRequestHeaders(c),
		ResponseHeaders: string(responseHeaders),
		StatusCode:      c.Response().StatusCode(),
		CreatedAt:       time.Now(),
	}
}
