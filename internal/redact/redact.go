// Package redact strips credentials, tokens, e-mail addresses, connection
// strings and similar sensitive fragments from text before it is logged.
package redact

import "regexp"

// Placeholders substituted for redacted fragments.
const (
	CredentialPlaceholder = "[REDACTED_CREDENTIAL]"
	KeyPlaceholder        = "[REDACTED_KEY]"
	JWTPlaceholder        = "[REDACTED_JWT]"
	TokenPlaceholder      = "[REDACTED_TOKEN]"
	EmailPlaceholder      = "[REDACTED_EMAIL]"
	PathPlaceholder       = "[REDACTED_PATH]"
	SQLPlaceholder        = "[REDACTED_SQL]"
	StackPlaceholder      = "[STACK_TRACE_REDACTED]"
)

type rule struct {
	pattern     *regexp.Regexp
	replacement string
}

// Rules run in order. Connection strings and JWTs go first so the broader
// key and e-mail patterns never see half of them.
var rules = []rule{
	{regexp.MustCompile(`(?i)\b(?:postgres(?:ql)?|mongodb(?:\+srv)?|mysql)://[^@\s/]+@`), CredentialPlaceholder},
	{regexp.MustCompile(`eyJ[A-Za-z0-9_-]+\.eyJ[A-Za-z0-9_-]+\.[A-Za-z0-9_-]+`), JWTPlaceholder},
	{regexp.MustCompile(`(?i)\bbearer\s+[A-Za-z0-9._~+/=-]{8,}`), "Bearer " + TokenPlaceholder},
	{regexp.MustCompile(`(?i)\b(?:password|passwd|pwd)\s*[=:]\s*['"]?[^'"&\s,]{3,}`), CredentialPlaceholder},
	{regexp.MustCompile(`(?i)\b(?:api[_-]?key|token|secret)\s*[=:]\s*['"]?[A-Za-z0-9_.~+/-]{8,}`), KeyPlaceholder},
	{regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`), EmailPlaceholder},
	{regexp.MustCompile(`(?:goroutine \d+|panic:)[\s\S]*?(?:\n\t.*)+`), StackPlaceholder},
	{regexp.MustCompile(`(?i)\b(?:SELECT|INSERT|UPDATE|DELETE)\b[\s\w,*()."$=]+?\b(?:FROM|INTO|SET)\b[^;\n]*`), SQLPlaceholder},
	{regexp.MustCompile(`(?:/[\w.-]+){3,}`), PathPlaceholder},
}

// String returns input with every sensitive fragment replaced.
func String(input string) string {
	if input == "" {
		return input
	}
	for _, r := range rules {
		input = r.pattern.ReplaceAllString(input, r.replacement)
	}
	return input
}

// Error redacts err's message. A nil error yields the empty string.
func Error(err error) string {
	if err == nil {
		return ""
	}
	return String(err.Error())
}
