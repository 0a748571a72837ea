package scanner

import (
	"bytes"
	"context"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"time"
)

// Canonical failure phrases. Go's dial and handshake errors are rewritten to
// start with one of these so the classifier sees the same wording regardless
// of platform. Connection refused needs no rewrite: every platform's text
// already contains "refused".
const (
	phraseNameNotKnown     = "name or service not known"
	phraseTimedOut         = "timed out"
	phraseVerifyFailed     = "certificate verify failed"
	phraseExpired          = "certificate has expired"
	phraseNotYetValid      = "certificate is not yet valid"
	phraseSelfSigned       = "self signed certificate"
	phraseUnknownIssuer    = "unable to get local issuer certificate"
	phraseHostnameMismatch = "hostname mismatch"
)

// describeError renders err as the failure message recorded for an attempt.
// Known error types get a canonical prefix followed by the raw Go error text.
func describeError(err error, now time.Time) string {
	if err == nil {
		return ""
	}
	raw := err.Error()

	var hostErr x509.HostnameError
	if errors.As(err, &hostErr) {
		return verifyFailed(phraseHostnameMismatch, raw)
	}

	var invalidErr x509.CertificateInvalidError
	if errors.As(err, &invalidErr) && invalidErr.Reason == x509.Expired {
		// x509 reports both ends of the validity window as "expired or is not
		// yet valid"; only the NotAfter side may read as expired.
		if c := invalidErr.Cert; c != nil && now.Before(c.NotBefore) {
			return fmt.Sprintf("%s: %s (valid from %s)", phraseVerifyFailed, phraseNotYetValid,
				c.NotBefore.UTC().Format(time.RFC3339))
		}
		return verifyFailed(phraseExpired, raw)
	}

	var authErr x509.UnknownAuthorityError
	if errors.As(err, &authErr) {
		if isSelfSigned(authErr.Cert) {
			return verifyFailed(phraseSelfSigned, raw)
		}
		return verifyFailed(phraseUnknownIssuer, raw)
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		switch {
		case dnsErr.IsTimeout:
			return phraseTimedOut + ": " + raw
		case dnsErr.IsNotFound:
			return phraseNameNotKnown + ": " + raw
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return phraseTimedOut + ": " + raw
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return phraseTimedOut + ": " + raw
	}

	return raw
}

func verifyFailed(reason, raw string) string {
	return fmt.Sprintf("%s: %s: %s", phraseVerifyFailed, reason, raw)
}

// isSelfSigned reports whether cert is issued by itself and carries a valid
// signature under its own key.
func isSelfSigned(cert *x509.Certificate) bool {
	if cert == nil {
		return false
	}
	if !bytes.Equal(cert.RawIssuer, cert.RawSubject) {
		return false
	}
	return cert.CheckSignatureFrom(cert) == nil
}
