package classify

import (
	"strings"
	"testing"
)

func TestValidHostname(t *testing.T) {
	tests := []struct {
		name     string
		hostname string
		want     bool
	}{
		{"simple", "example.com", true},
		{"hyphenated label", "a.b-c.example.co", true},
		{"single label", "localhost", true},
		{"digits", "123.example.com", true},
		{"upper case", "API.Example.COM", true},
		{"max label", strings.Repeat("a", 63) + ".com", true},
		{"empty", "", false},
		{"leading hyphen", "-example.com", false},
		{"trailing hyphen", "example-.com", false},
		{"label too long", strings.Repeat("a", 64) + ".com", false},
		{"too long overall", strings.Repeat("abcdefghi.", 26) + "com", false},
		{"underscore", "my_host.example.com", false},
		{"space", "my host.com", false},
		{"double dot", "bad..hostname", false},
		{"leading dot", ".example.com", false},
		{"trailing dot", "example.com.", false},
		{"scheme", "https://example.com", false},
		{"port", "example.com:443", false},
		{"wildcard", "*.example.com", false},
		{"unicode", "exämple.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidHostname(tt.hostname); got != tt.want {
				t.Errorf("ValidHostname(%q) = %v, want %v", tt.hostname, got, tt.want)
			}
		})
	}
}

func TestValidHostname_LengthBoundary(t *testing.T) {
	// 4 labels of 63 chars joined by dots = 255 chars
	long := strings.Join([]string{
		strings.Repeat("a", 63), strings.Repeat("b", 63), strings.Repeat("c", 63), strings.Repeat("d", 61),
	}, ".")
	if len(long) != 253 {
		t.Fatalf("fixture length = %d, want 253", len(long))
	}
	if !ValidHostname(long) {
		t.Errorf("ValidHostname(253 chars) = false, want true")
	}
	if ValidHostname(long + "d") {
		t.Errorf("ValidHostname(254 chars) = true, want false")
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name         string
		hostname     string
		message      string
		wantCategory Category
		wantLabel    Label
	}{
		{"invalid hostname wins over expired", "bad..hostname", "certificate has expired", CategoryDataInput, LabelInvalidHostname},
		{"invalid hostname wins over timeout", "-bad.com", "Connection timed out", CategoryDataInput, LabelInvalidHostname},
		{"nonexistent domain", "nope.example.com", "[Errno -2] Name or service not known", CategoryDataInput, LabelNonexistentDomain},
		{"timeout", "example.com", "Connection timed out", CategoryNetwork, LabelUnreachable},
		{"refused", "example.com", "dial tcp 127.0.0.1:443: connect: connection refused", CategoryNetwork, LabelUnreachable},
		{"expired", "example.com", "certificate verify failed: certificate has expired", CategorySSLCert, LabelExpired},
		{"self signed beats verify failed", "example.com", "certificate verify failed: self signed certificate", CategorySSLCert, LabelSelfSigned},
		{"hostname mismatch", "example.com", "certificate verify failed: Hostname mismatch, certificate is not valid for 'example.com'", CategorySSLCert, LabelWrongHostname},
		{"doesn't match", "example.com", "hostname 'example.com' doesn't match 'other.com'", CategorySSLCert, LabelWrongHostname},
		{"untrusted root", "example.com", "certificate verify failed: unable to get local issuer certificate", CategorySSLCert, LabelUntrustedRoot},
		{"unknown", "example.com", "EOF occurred in violation of protocol", CategoryUnknown, LabelFetchFailed},
		{"default message", "example.com", DefaultMessage, CategoryUnknown, LabelFetchFailed},
		{"empty message", "example.com", "", CategoryUnknown, LabelFetchFailed},
		{"case insensitive", "example.com", "CERTIFICATE HAS EXPIRED", CategorySSLCert, LabelExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			category, label := Classify(tt.hostname, tt.message)
			if category != tt.wantCategory {
				t.Errorf("Classify(%q, %q) category = %v, want %v", tt.hostname, tt.message, category, tt.wantCategory)
			}
			if label != tt.wantLabel {
				t.Errorf("Classify(%q, %q) label = %v, want %v", tt.hostname, tt.message, label, tt.wantLabel)
			}
		})
	}
}

func TestClassify_Deterministic(t *testing.T) {
	for i := 0; i < 10; i++ {
		c, l := Classify("example.com", "certificate verify failed: self signed certificate")
		if c != CategorySSLCert || l != LabelSelfSigned {
			t.Fatalf("run %d: Classify() = (%v, %v), want (%v, %v)", i, c, l, CategorySSLCert, LabelSelfSigned)
		}
	}
}

func TestRules_Order(t *testing.T) {
	want := []Label{
		LabelInvalidHostname,
		LabelNonexistentDomain,
		LabelUnreachable,
		LabelExpired,
		LabelSelfSigned,
		LabelWrongHostname,
		LabelUntrustedRoot,
	}

	got := Rules()
	if len(got) != len(want) {
		t.Fatalf("len(Rules()) = %d, want %d", len(got), len(want))
	}
	for i, r := range got {
		if r.Label != want[i] {
			t.Errorf("Rules()[%d].Label = %v, want %v", i, r.Label, want[i])
		}
		if r.Category == CategoryOK {
			t.Errorf("Rules()[%d].Category = %v, must never be a success category", i, r.Category)
		}
	}
}

func TestRules_EachRuleMatchesItsTrigger(t *testing.T) {
	triggers := map[Label]struct{ hostname, message string }{
		LabelInvalidHostname:   {"bad host", ""},
		LabelNonexistentDomain: {"example.com", "name or service not known"},
		LabelUnreachable:       {"example.com", "refused"},
		LabelExpired:           {"example.com", "certificate has expired"},
		LabelSelfSigned:        {"example.com", "self signed"},
		LabelWrongHostname:     {"example.com", "hostname mismatch"},
		LabelUntrustedRoot:     {"example.com", "certificate verify failed"},
	}

	for _, r := range Rules() {
		trig := triggers[r.Label]
		if !r.Match(trig.hostname, trig.message) {
			t.Errorf("rule %v did not match its trigger %q", r.Label, trig.message)
		}
	}
}

func TestRules_ReturnsCopy(t *testing.T) {
	got := Rules()
	got[0].Label = "mutated"

	if Rules()[0].Label != LabelInvalidHostname {
		t.Error("Rules() exposed the internal table")
	}
}
