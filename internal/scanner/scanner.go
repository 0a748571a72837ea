package scanner

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"math"
	"net"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Defaults for a certificate check
const (
	DefaultMaxAttempts         = 2
	DefaultTimeout             = 5 * time.Second
	DefaultExpiryThresholdDays = 30
	DefaultConcurrency         = 10
)

// Dialer opens a verified TLS connection to hostname:port and returns the
// peer's leaf certificate.
type Dialer interface {
	DialTLS(ctx context.Context, hostname string, port int, timeout time.Duration) (*x509.Certificate, error)
}

// Options configures a Scanner. Zero values fall back to the defaults.
type Options struct {
	Dialer     Dialer
	Now        func() time.Time
	Timeout    time.Duration
	RetryDelay time.Duration
	// ExpiryThresholdDays nil or negative means DefaultExpiryThresholdDays;
	// zero alerts only on certificates expiring today.
	ExpiryThresholdDays *int
	MaxAttempts         int
	Concurrency         int
}

// Scanner handles TLS certificate checks
// Fields are ordered for optimal memory alignment
type Scanner struct {
	dialer        Dialer
	now           func() time.Time
	logger        *zap.Logger
	timeout       time.Duration
	retryDelay    time.Duration
	maxAttempts   int
	thresholdDays int
	concurrency   int
}

// New creates a new Scanner
func New(opts Options, logger *zap.Logger) *Scanner {
	s := &Scanner{
		dialer:        opts.Dialer,
		now:           opts.Now,
		logger:        logger,
		timeout:       opts.Timeout,
		retryDelay:    opts.RetryDelay,
		maxAttempts:   opts.MaxAttempts,
		thresholdDays: DefaultExpiryThresholdDays,
		concurrency:   opts.Concurrency,
	}

	if s.dialer == nil {
		s.dialer = &tlsDialer{}
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.timeout <= 0 {
		s.timeout = DefaultTimeout
	}
	if s.maxAttempts < 1 {
		s.maxAttempts = DefaultMaxAttempts
	}
	if opts.ExpiryThresholdDays != nil && *opts.ExpiryThresholdDays >= 0 {
		s.thresholdDays = *opts.ExpiryThresholdDays
	}
	if s.concurrency < 1 {
		s.concurrency = DefaultConcurrency
	}

	return s
}

// ScanAll checks all targets with at most the configured number of checks in
// flight. When ctx is canceled, checks that have not completed are dropped;
// the returned slice holds only finished Results, in no guaranteed order.
func (s *Scanner) ScanAll(ctx context.Context, targets []Target) []Result {
	slots := make([]*Result, len(targets))

	var g errgroup.Group
	g.SetLimit(s.concurrency)

	for i, t := range targets {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			r := s.Scan(ctx, t.Hostname, t.Port)
			if ctx.Err() != nil {
				return nil
			}
			slots[i] = &r
			return nil
		})
	}

	//nolint:errcheck // workers never return an error
	g.Wait()

	results := make([]Result, 0, len(targets))
	for _, r := range slots {
		if r != nil {
			results = append(results, *r)
		}
	}
	return results
}

// Scan checks a single host. It never returns an error: every failure is
// classified into the Result.
func (s *Scanner) Scan(ctx context.Context, hostname string, port int) Result {
	target := Target{Hostname: hostname, Port: port}
	log := s.logger.With(zap.String("hostname", hostname), zap.Int("port", port))

	wait := s.newBackOff()
	st := start(s.maxAttempts)

	var leaf *x509.Certificate
	for st.phase == phaseAttempting {
		if st.attempt > 1 {
			if err := sleep(ctx, wait.NextBackOff()); err != nil {
				st = st.abort(describeError(err, s.now()))
				break
			}
		}

		cert, err := s.dialer.DialTLS(ctx, hostname, port, s.timeout)
		if err != nil {
			msg := describeError(err, s.now())
			log.Debug("attempt failed", zap.Int("attempt", st.attempt), zap.String("error", msg))
			st = st.next(outcome{message: msg})
			continue
		}

		leaf = cert
		st = st.next(outcome{ok: true})
	}

	checkedAt := s.now().UTC()

	if st.phase == phaseSuccess {
		info := s.inspect(leaf, checkedAt)
		log.Debug("check successful",
			zap.Int("attempts", st.attempt),
			zap.String("subject", info.Subject),
			zap.Int("days_to_expiry", info.DaysToExpiry),
			zap.String("status", string(info.Status)),
		)
		return newSuccess(target, checkedAt, st.attempt, info)
	}

	r := newFailure(target, checkedAt, st.attempt, st.lastError)
	log.Debug("check failed",
		zap.Int("attempts", st.attempt),
		zap.String("category", string(r.Category())),
		zap.String("status", r.Status()),
	)
	return r
}

func (s *Scanner) inspect(leaf *x509.Certificate, now time.Time) Certificate {
	issuer := ""
	if len(leaf.Issuer.Organization) > 0 {
		issuer = leaf.Issuer.Organization[0]
	}

	days := daysUntil(leaf.NotAfter, now)
	status, alert := expiryStatus(days, s.thresholdDays)

	return Certificate{
		Issuer:       issuer,
		Subject:      leaf.Subject.CommonName,
		NotBefore:    leaf.NotBefore.UTC(),
		NotAfter:     leaf.NotAfter.UTC(),
		DaysToExpiry: days,
		Status:       status,
		Alert:        alert,
	}
}

func (s *Scanner) newBackOff() backoff.BackOff {
	if s.retryDelay <= 0 {
		return &backoff.ZeroBackOff{}
	}
	return backoff.NewConstantBackOff(s.retryDelay)
}

// daysUntil returns the whole days from now to t, rounded toward negative
// infinity: anything past NotAfter, even by a second, is at most -1.
func daysUntil(t, now time.Time) int {
	return int(math.Floor(t.Sub(now).Hours() / 24))
}

// expiryStatus derives the status and alert for a certificate with days left.
func expiryStatus(days, thresholdDays int) (CertStatus, AlertType) {
	switch {
	case days < 0:
		return StatusExpired, AlertExpiry
	case days <= thresholdDays:
		return StatusExpiringSoon, AlertExpiry
	default:
		return StatusValid, AlertNone
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d == backoff.Stop {
		return errors.New("retry budget exhausted")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if d <= 0 {
		return nil
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// tlsDialer dials with the system trust store, SNI and hostname verification.
type tlsDialer struct {
	// roots overrides the system pool; nil means system roots
	roots *x509.CertPool
}

func (d *tlsDialer) DialTLS(ctx context.Context, hostname string, port int, timeout time.Duration) (*x509.Certificate, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	dialer := &tls.Dialer{
		NetDialer: &net.Dialer{Timeout: timeout},
		Config: &tls.Config{
			ServerName: hostname,
			RootCAs:    d.roots,
		},
	}

	conn, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(hostname, strconv.Itoa(port)))
	if err != nil {
		return nil, d.chainFirst(err)
	}
	defer conn.Close()

	tlsConn, ok := conn.(*tls.Conn)
	if !ok {
		return nil, errors.New("not a TLS connection")
	}

	state := tlsConn.ConnectionState()
	if len(state.PeerCertificates) == 0 {
		return nil, errors.New("no certificates received")
	}

	return state.PeerCertificates[0], nil
}

// chainFirst reports verification failures in chain, date, name order.
// x509 checks dates and the name before the chain, so an untrusted
// self-signed leaf that is also expired or misnamed would otherwise be
// reported by its secondary problem.
func (d *tlsDialer) chainFirst(err error) error {
	leaf := rejectedLeaf(err)
	if leaf == nil || !isSelfSigned(leaf) || d.trusts(leaf) {
		return err
	}
	return x509.UnknownAuthorityError{Cert: leaf}
}

// trusts reports whether leaf chains to the dialer's roots, ignoring its
// validity window.
func (d *tlsDialer) trusts(leaf *x509.Certificate) bool {
	_, err := leaf.Verify(x509.VerifyOptions{
		Roots:       d.roots,
		CurrentTime: leaf.NotBefore,
	})
	return err == nil
}

// rejectedLeaf returns the certificate carried by a date or name
// verification error.
func rejectedLeaf(err error) *x509.Certificate {
	var hostErr x509.HostnameError
	if errors.As(err, &hostErr) {
		return hostErr.Certificate
	}
	var invalidErr x509.CertificateInvalidError
	if errors.As(err, &invalidErr) {
		return invalidErr.Cert
	}
	return nil
}
