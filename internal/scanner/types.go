// Package scanner fetches TLS certificates and turns each check into a
// classified Result.
package scanner

import (
	"fmt"
	"time"

	"github.com/certwatch-app/cw-certcheck/internal/classify"
)

// CertStatus is the expiry state of a successfully fetched certificate.
type CertStatus string

// Certificate statuses
const (
	StatusValid        CertStatus = "valid"
	StatusExpiringSoon CertStatus = "expiring soon"
	StatusExpired      CertStatus = "expired"
)

// AlertType is the notification routing hint for a Result.
type AlertType string

// Alert types
const (
	AlertNone    AlertType = "NO_ALERT"
	AlertExpiry  AlertType = "EXPIRY_ALERT"
	AlertInvalid AlertType = "INVALID_ALERT"
)

// NotAvailable is written to the serialized record for absent fields.
const NotAvailable = "N/A"

// recordDateLayout is the date format of valid_from / valid_to.
const recordDateLayout = "2006-01-02"

// Target is a host:port pair to check
type Target struct {
	Hostname string
	Port     int
}

// String returns the hostname:port string
func (t Target) String() string {
	return fmt.Sprintf("%s:%d", t.Hostname, t.Port)
}

// Certificate holds the fields derived from a successfully fetched leaf.
// Empty Issuer / Subject mean the attribute was absent.
type Certificate struct {
	NotBefore    time.Time
	NotAfter     time.Time
	Issuer       string
	Subject      string
	Status       CertStatus
	Alert        AlertType
	DaysToExpiry int
}

// Failure holds the classification of a check that never succeeded.
type Failure struct {
	Category classify.Category
	Label    classify.Label
	Message  string
}

// Result is the outcome of one host:port evaluation. Exactly one of the
// certificate or the failure is set; a Result is never modified after
// construction.
type Result struct {
	cert      *Certificate
	failure   *Failure
	Target    Target
	CheckedAt time.Time
	Attempts  int
}

func newSuccess(target Target, checkedAt time.Time, attempts int, cert Certificate) Result {
	return Result{
		Target:    target,
		CheckedAt: checkedAt,
		Attempts:  attempts,
		cert:      &cert,
	}
}

func newFailure(target Target, checkedAt time.Time, attempts int, lastError string) Result {
	if lastError == "" {
		lastError = classify.DefaultMessage
	}
	category, label := classify.Classify(target.Hostname, lastError)

	return Result{
		Target:    target,
		CheckedAt: checkedAt,
		Attempts:  attempts,
		failure: &Failure{
			Category: category,
			Label:    label,
			Message:  lastError,
		},
	}
}

// OK reports whether a certificate was retrieved and parsed.
func (r Result) OK() bool {
	return r.cert != nil
}

// Certificate returns a copy of the certificate details, or false on failure.
func (r Result) Certificate() (Certificate, bool) {
	if r.cert == nil {
		return Certificate{}, false
	}
	return *r.cert, true
}

// Failure returns a copy of the failure details, or false on success.
func (r Result) Failure() (Failure, bool) {
	if r.failure == nil {
		return Failure{}, false
	}
	return *r.failure, true
}

// Status returns the cert status on success and the failure label otherwise.
func (r Result) Status() string {
	if r.cert != nil {
		return string(r.cert.Status)
	}
	if r.failure != nil {
		return string(r.failure.Label)
	}
	return string(classify.LabelFetchFailed)
}

// Category returns SSL_CERT_OK on success and the failure category otherwise.
func (r Result) Category() classify.Category {
	if r.cert != nil {
		return classify.CategoryOK
	}
	if r.failure != nil {
		return r.failure.Category
	}
	return classify.CategoryUnknown
}

// Alert returns the alert type of the Result.
func (r Result) Alert() AlertType {
	if r.cert != nil {
		return r.cert.Alert
	}
	return AlertInvalid
}

// ErrorMessage returns the last-attempt error text, empty on success.
func (r Result) ErrorMessage() string {
	if r.failure != nil {
		return r.failure.Message
	}
	if r.cert == nil {
		return classify.DefaultMessage
	}
	return ""
}

// DaysToExpiry returns the signed day count to expiry, or false on failure.
func (r Result) DaysToExpiry() (int, bool) {
	if r.cert == nil {
		return 0, false
	}
	return r.cert.DaysToExpiry, true
}

// Record is the flat, serialized shape of a Result consumed by reporting
// and notification collaborators.
type Record struct {
	DaysToExpiry  *int      `json:"days_to_expiry"`
	CheckedAt     time.Time `json:"checked_at"`
	Hostname      string    `json:"hostname"`
	CertIssuer    string    `json:"cert_issuer"`
	CertSubject   string    `json:"cert_subject"`
	ValidFrom     string    `json:"valid_from"`
	ValidTo       string    `json:"valid_to"`
	CertStatus    string    `json:"cert_status"`
	IssueCategory string    `json:"issue_category"`
	ErrorMessage  string    `json:"error_message"`
	AlertType     string    `json:"alert_type"`
	Port          int       `json:"port"`
	Attempts      int       `json:"attempts"`
	IsValid       bool      `json:"is_valid"`
}

// Record flattens the Result, using "N/A" and null for absent values.
func (r Result) Record() Record {
	rec := Record{
		Hostname:      r.Target.Hostname,
		Port:          r.Target.Port,
		CheckedAt:     r.CheckedAt,
		Attempts:      r.Attempts,
		IsValid:       r.OK(),
		CertIssuer:    NotAvailable,
		CertSubject:   NotAvailable,
		ValidFrom:     NotAvailable,
		ValidTo:       NotAvailable,
		CertStatus:    r.Status(),
		IssueCategory: string(r.Category()),
		ErrorMessage:  r.ErrorMessage(),
		AlertType:     string(r.Alert()),
	}

	if c := r.cert; c != nil {
		rec.CertIssuer = orNotAvailable(c.Issuer)
		rec.CertSubject = orNotAvailable(c.Subject)
		rec.ValidFrom = c.NotBefore.UTC().Format(recordDateLayout)
		rec.ValidTo = c.NotAfter.UTC().Format(recordDateLayout)
		days := c.DaysToExpiry
		rec.DaysToExpiry = &days
	}

	return rec
}

func orNotAvailable(s string) string {
	if s == "" {
		return NotAvailable
	}
	return s
}
