package util

import (
	"fmt"
	"regexp"
	"sort"
)

var (
	keyValuePattern = regexp.MustCompile(`(?i)(api_key|apikey|secret|token|password|passwd|access_key|private_key)\s*[:=]\s*([^\s"']+)`)
	privateKeyBlock = regexp.MustCompile(`(?is)-----BEGIN [A-Z ]*PRIVATE KEY-----.*?-----END [A-Z ]*PRIVATE KEY-----`)
	jwtPattern      = regexp.MustCompile(`eyJ[a-zA-Z0-9_-]+\.[a-zA-Z0-9_-]+\.?[a-zA-Z0-9_-]*`)
	skPattern       = regexp.MustCompile(`(?i)sk-[a-z0-9]{20,}`)
	secretKeyName   = regexp.MustCompile(`(?i)(key|secret|token|password|passwd)`)
)

// RedactSecrets removes likely secrets from text.
func RedactSecrets(input string) string {
	out := keyValuePattern.ReplaceAllString(input, `$1=[REDACTED]`)
	out = privateKeyBlock.ReplaceAllString(out, "[REDACTED PRIVATE KEY]")
	out = jwtPattern.ReplaceAllString(out, "[REDACTED JWT]")
	out = skPattern.ReplaceAllString(out, "[REDACTED KEY]")
	return out
}

// RedactParams renders invocation parameters as sorted key=value strings
// suitable for logs. Values of secret-looking keys are replaced entirely.
func RedactParams(params map[string]any) []string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if secretKeyName.MatchString(k) {
			out = append(out, k+"=[REDACTED]")
			continue
		}
		out = append(out, RedactSecrets(fmt.Sprintf("%s=%v", k, params[k])))
	}
	return out
}
