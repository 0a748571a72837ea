// Package classify maps certificate fetch failures to a stable issue
// category and a human-readable status label.
package classify

import "strings"

const (
	maxHostnameLength = 253
	maxLabelLength    = 63
)

// ValidHostname reports whether hostname is a syntactically valid DNS name:
// 1-253 characters of dot-separated labels, each label 1-63 characters of
// [A-Za-z0-9-] that neither starts nor ends with a hyphen.
// No DNS lookups are performed.
func ValidHostname(hostname string) bool {
	if hostname == "" || len(hostname) > maxHostnameLength {
		return false
	}

	for _, label := range strings.Split(hostname, ".") {
		if !validLabel(label) {
			return false
		}
	}
	return true
}

func validLabel(label string) bool {
	if label == "" || len(label) > maxLabelLength {
		return false
	}
	if label[0] == '-' || label[len(label)-1] == '-' {
		return false
	}

	for i := 0; i < len(label); i++ {
		c := label[i]
		switch {
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
		case c == '-':
		default:
			return false
		}
	}
	return true
}
