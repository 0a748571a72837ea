package classify

import "strings"

// Category is the machine-stable issue category of a check.
type Category string

// Issue categories. Only CategoryOK denotes a successful check.
const (
	CategoryOK        Category = "SSL_CERT_OK"
	CategoryDataInput Category = "DATA_INPUT_ERROR"
	CategoryNetwork   Category = "NETWORK_ERROR"
	CategorySSLCert   Category = "SSL_CERT_ERROR"
	CategoryUnknown   Category = "UNKNOWN_ERROR"
)

// Label is the human-readable status of a failed check.
type Label string

// Failure labels
const (
	LabelInvalidHostname   Label = "Invalid Hostname"
	LabelNonexistentDomain Label = "Nonexistent Domain"
	LabelUnreachable       Label = "Unreachable"
	LabelExpired           Label = "Expired"
	LabelSelfSigned        Label = "Self-signed"
	LabelWrongHostname     Label = "Wrong Hostname"
	LabelUntrustedRoot     Label = "Untrusted Root"
	LabelFetchFailed       Label = "Fetch Failed"
)

// DefaultMessage stands in for the error text when a check failed without
// ever capturing one.
const DefaultMessage = "Unknown failure"

// Rule is one entry of the classification table.
type Rule struct {
	// Match receives the hostname and the lower-cased error message.
	Match    func(hostname, message string) bool
	Category Category
	Label    Label
}

// rules is evaluated top-down, first match wins. The hostname rule must stay
// first so that a malformed hostname is always reported as input error.
var rules = []Rule{
	{
		Match:    func(hostname, _ string) bool { return !ValidHostname(hostname) },
		Category: CategoryDataInput,
		Label:    LabelInvalidHostname,
	},
	{
		Match:    containsAny("name or service not known"),
		Category: CategoryDataInput,
		Label:    LabelNonexistentDomain,
	},
	{
		Match:    containsAny("timed out", "refused"),
		Category: CategoryNetwork,
		Label:    LabelUnreachable,
	},
	{
		Match:    containsAny("certificate has expired"),
		Category: CategorySSLCert,
		Label:    LabelExpired,
	},
	{
		Match:    containsAny("self signed"),
		Category: CategorySSLCert,
		Label:    LabelSelfSigned,
	},
	{
		Match:    containsAny("hostname mismatch", "doesn't match"),
		Category: CategorySSLCert,
		Label:    LabelWrongHostname,
	},
	{
		Match:    containsAny("certificate verify failed"),
		Category: CategorySSLCert,
		Label:    LabelUntrustedRoot,
	},
}

func containsAny(patterns ...string) func(string, string) bool {
	return func(_, message string) bool {
		for _, p := range patterns {
			if strings.Contains(message, p) {
				return true
			}
		}
		return false
	}
}

// Classify returns the issue category and status label for a failed check
// against hostname that ended with errorMessage.
func Classify(hostname, errorMessage string) (Category, Label) {
	lower := strings.ToLower(errorMessage)
	for _, r := range rules {
		if r.Match(hostname, lower) {
			return r.Category, r.Label
		}
	}
	return CategoryUnknown, LabelFetchFailed
}

// Rules returns a copy of the ordered classification table.
func Rules() []Rule {
	out := make([]Rule, len(rules))
	copy(out, rules)
	return out
}
