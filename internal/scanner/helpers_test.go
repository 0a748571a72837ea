package scanner

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"errors"
	"math/big"
	"net"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// certTemplate describes a self-signed test certificate.
type certTemplate struct {
	commonName string
	org        string
	dnsNames   []string
	ips        []net.IP
	notBefore  time.Time
	notAfter   time.Time
}

func newTestCert(t *testing.T, tmpl certTemplate) (tls.Certificate, *x509.Certificate) {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("Failed to generate key: %v", err)
	}

	name := pkix.Name{CommonName: tmpl.commonName}
	if tmpl.org != "" {
		name.Organization = []string{tmpl.org}
	}

	template := &x509.Certificate{
		SerialNumber:          big.NewInt(time.Now().UnixNano()),
		Subject:               name,
		NotBefore:             tmpl.notBefore,
		NotAfter:              tmpl.notAfter,
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		DNSNames:              tmpl.dnsNames,
		IPAddresses:           tmpl.ips,
		IsCA:                  true,
		BasicConstraintsValid: true,
	}

	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	if err != nil {
		t.Fatalf("Failed to create certificate: %v", err)
	}

	leaf, err := x509.ParseCertificate(der)
	if err != nil {
		t.Fatalf("Failed to parse certificate: %v", err)
	}

	return tls.Certificate{Certificate: [][]byte{der}, PrivateKey: key, Leaf: leaf}, leaf
}

// startTLSServer serves cert on a loopback port until the test ends.
func startTLSServer(t *testing.T, cert tls.Certificate) int {
	t.Helper()

	ln, err := tls.Listen("tcp", "127.0.0.1:0", &tls.Config{Certificates: []tls.Certificate{cert}})
	if err != nil {
		t.Fatalf("Failed to listen: %v", err)
	}
	t.Cleanup(func() { ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func(c net.Conn) {
				defer c.Close()
				//nolint:errcheck // client may reject the certificate
				c.(*tls.Conn).Handshake()
			}(conn)
		}
	}()

	return ln.Addr().(*net.TCPAddr).Port
}

// closedPort returns a loopback port with nothing listening on it.
func closedPort(t *testing.T) int {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to listen: %v", err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()
	return port
}

// fakeDialer replays a scripted sequence of attempt outcomes.
type fakeDialer struct {
	mu       sync.Mutex
	steps    []fakeStep
	calls    int
	inFlight atomic.Int32
	maxSeen  atomic.Int32
	delay    time.Duration
}

type fakeStep struct {
	cert *x509.Certificate
	err  error
}

func (f *fakeDialer) DialTLS(ctx context.Context, _ string, _ int, _ time.Duration) (*x509.Certificate, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		seen := f.maxSeen.Load()
		if n <= seen || f.maxSeen.CompareAndSwap(seen, n) {
			break
		}
	}

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	idx := f.calls
	f.calls++
	if len(f.steps) == 0 {
		return nil, errors.New("no scripted step")
	}
	if idx >= len(f.steps) {
		idx = len(f.steps) - 1
	}
	return f.steps[idx].cert, f.steps[idx].err
}

func (f *fakeDialer) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func fixedClock(now time.Time) func() time.Time {
	return func() time.Time { return now }
}
