package logger

import (
	"regexp"
	"strings"
)

var sensitiveKeys = []string{"key", "secret", "password", "token", "dsn"}

// 连接串中的 user:password@ 部分
var credentialRegex = regexp.MustCompile(`://([^:/@\s]+):([^@\s]+)@`)

func redactValue(key, val string) string {
	k := strings.ToLower(key)
	for _, s := range sensitiveKeys {
		if strings.Contains(k, s) {
			return RedactSecret(val)
		}
	}
	return credentialRegex.ReplaceAllString(val, "://$1:***@")
}

// RedactSecret 只保留前 4 个字符
// "sk-abcdef123" → "sk-a***"
func RedactSecret(s string) string {
	if len(s) <= 4 {
		return "***"
	}
	return s[:4] + "***"
}
