package respond

import (
	"regexp"
	"strings"
	"sync"
)

var (
	// apikey= / apiKey= クエリパラメータ
	queryKeyPattern = regexp.MustCompile(`(?i)(api_?key=)[^&\s"]+`)

	// X-Api-Key などのヘッダー値
	headerKeyPattern = regexp.MustCompile(`(?i)(x-api-key:\s*)\S+`)

	secretsMu sync.RWMutex
	secrets   []string
)

// RegisterSecrets adds literal values (configured API keys) that must never
// appear in logs or responses. Empty values are ignored.
func RegisterSecrets(values ...string) {
	secretsMu.Lock()
	defer secretsMu.Unlock()
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			secrets = append(secrets, v)
		}
	}
}

// SanitizeError は機密情報をマスクしたエラーメッセージを返す
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	return SanitizeString(err.Error())
}

// SanitizeString masks API keys in msg.
func SanitizeString(msg string) string {
	msg = queryKeyPattern.ReplaceAllString(msg, "${1}****")
	msg = headerKeyPattern.ReplaceAllString(msg, "${1}****")

	secretsMu.RLock()
	defer secretsMu.RUnlock()
	for _, s := range secrets {
		msg = strings.ReplaceAll(msg, s, "****")
	}
	return msg
}
