package config

import (
	"fmt"
	"regexp"
	"strings"
)

// SensitivePattern is a pattern that suggests a secret was hardcoded into a
// manifest, usually inside a release URL.
type SensitivePattern struct {
	Name        string
	Pattern     *regexp.Regexp
	Description string
}

var sensitivePatterns = []SensitivePattern{
	{
		Name:        "URL Credentials",
		Pattern:     regexp.MustCompile(`https?://[^/\s:@'"]+:[^/\s@'"]+@`),
		Description: "Username and password embedded in a URL",
	},
	{
		Name:        "Signed URL",
		Pattern:     regexp.MustCompile(`(?i)[?&](x-amz-signature|x-goog-signature|sig|signature|token|access_token)=[^&\s'"]{8,}`),
		Description: "Pre-signed or token-bearing URL query",
	},
	{
		Name:        "GitHub Token",
		Pattern:     regexp.MustCompile(`gh[pousr]_[a-zA-Z0-9]{36,}`),
		Description: "Potential GitHub token detected",
	},
	{
		Name:        "Token",
		Pattern:     regexp.MustCompile(`(?i)(token|auth[_-]?token|access[_-]?token|api[_-]?key|password|secret)\s*=\s*['"][^'"]{8,}['"]`),
		Description: "Potential credential assignment detected",
	},
}

// SensitiveDataFinding is one match of a sensitive pattern.
type SensitiveDataFinding struct {
	PatternName string
	Description string
	Line        int
	Preview     string // Redacted preview of the match
}

// DetectSensitiveData scans manifest source for hardcoded credentials.
func DetectSensitiveData(content string) []SensitiveDataFinding {
	var findings []SensitiveDataFinding

	for lineNum, line := range strings.Split(content, "\n") {
		for _, pattern := range sensitivePatterns {
			if pattern.Pattern.MatchString(line) {
				findings = append(findings, SensitiveDataFinding{
					PatternName: pattern.Name,
					Description: pattern.Description,
					Line:        lineNum + 1,
					Preview:     redactSensitiveValue(line),
				})
			}
		}
	}

	return findings
}

var (
	userinfoPattern = regexp.MustCompile(`(https?://)[^/\s@'"]+@`)
	queryPattern    = regexp.MustCompile(`\?[^\s'"]*`)
)

// redactSensitiveValue keeps the key of an assignment and blanks anything
// that could carry a secret.
func redactSensitiveValue(line string) string {
	line = strings.TrimSpace(line)
	redacted := userinfoPattern.ReplaceAllString(line, "${1}[REDACTED]@")
	redacted = queryPattern.ReplaceAllString(redacted, "?[REDACTED]")
	if redacted != line {
		return redacted
	}

	eqIdx := strings.Index(line, "=")
	if eqIdx == -1 {
		if len(line) > 30 {
			return line[:30] + "... [REDACTED]"
		}
		return line + " [REDACTED]"
	}
	return strings.TrimSpace(line[:eqIdx]) + " = [REDACTED]"
}

// FormatSensitiveDataWarning formats findings into a user-facing warning.
func FormatSensitiveDataWarning(findings []SensitiveDataFinding) string {
	if len(findings) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("\nWARNING: Potential sensitive data detected in manifest\n\n")

	for i, finding := range findings {
		sb.WriteString(fmt.Sprintf("%d. %s (line %d)\n", i+1, finding.Description, finding.Line))
		sb.WriteString(fmt.Sprintf("   Preview: %s\n\n", finding.Preview))
	}

	sb.WriteString("Release URLs end up in logs and error messages.\n")
	sb.WriteString("Prefer public download locations or inject credentials through a proxy.\n")

	return sb.String()
}
