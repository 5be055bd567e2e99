// ABOUTME: Credential redaction for endpoints written to logs
// ABOUTME: Masks URL passwords and secret query parameters such as NATS tokens

package observability

import (
	"net/url"
	"regexp"
	"strings"
)

// RedactionPlaceholder is the replacement text for redacted values.
const RedactionPlaceholder = "[REDACTED]"

// sensitivePatterns match key=value secrets in free text.
var sensitivePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(password|passwd|pwd)=[^\s&]+`),
	regexp.MustCompile(`(?i)(token|auth_token|access_token)=[^\s&]+`),
	regexp.MustCompile(`(?i)(api[_-]?key|apikey)=[^\s&]+`),
	regexp.MustCompile(`(?i)(secret|client_secret|nkey)=[^\s&]+`),
}

// sensitiveKeyPatterns are substrings of query keys holding secrets.
var sensitiveKeyPatterns = []string{
	"password",
	"passwd",
	"pwd",
	"token",
	"secret",
	"key",
	"auth",
	"credential",
}

// RedactSensitive replaces key=value secrets in a string with [REDACTED].
func RedactSensitive(value string) string {
	result := value
	for _, pattern := range sensitivePatterns {
		result = pattern.ReplaceAllString(result, "${1}="+RedactionPlaceholder)
	}
	return result
}

// RedactURL masks the password of a URL's user info and any sensitive query
// values. A user info without a password is treated as a bare token.
// Values that do not parse as URLs go through RedactSensitive.
func RedactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return RedactSensitive(raw)
	}

	if u.User != nil {
		if _, hasPassword := u.User.Password(); hasPassword {
			u.User = url.UserPassword(u.User.Username(), RedactionPlaceholder)
		} else {
			u.User = url.User(RedactionPlaceholder)
		}
	}

	if u.RawQuery != "" {
		q := u.Query()
		for k := range q {
			if IsSensitiveKey(k) {
				q.Set(k, RedactionPlaceholder)
			}
		}
		u.RawQuery = q.Encode()
	}

	// url.URL escapes the placeholder brackets.
	out := u.String()
	out = strings.ReplaceAll(out, url.QueryEscape(RedactionPlaceholder), RedactionPlaceholder)
	out = strings.ReplaceAll(out, url.PathEscape(RedactionPlaceholder), RedactionPlaceholder)
	return out
}

// IsSensitiveKey returns true if the key name suggests sensitive data.
func IsSensitiveKey(key string) bool {
	lowerKey := strings.ToLower(key)
	for _, pattern := range sensitiveKeyPatterns {
		if strings.Contains(lowerKey, pattern) {
			return true
		}
	}
	return false
}
