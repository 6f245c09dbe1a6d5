package server

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"log/slog"
	"math/big"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"giftpoints/custodian/pkg/config"
)

// writeCert writes a self-signed certificate for 127.0.0.1 and its key into
// dir, overwriting earlier files.
func writeCert(t *testing.T, dir, cn string, notAfter time.Time) (certFile, keyFile string) {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(time.Now().UnixNano()),
		Subject:      pkix.Name{CommonName: cn},
		NotBefore:    time.Now().Add(-2 * time.Hour),
		NotAfter:     notAfter,
		IPAddresses:  []net.IP{net.ParseIP("127.0.0.1")},
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		t.Fatal(err)
	}
	keyDER, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		t.Fatal(err)
	}

	certFile = filepath.Join(dir, "tls.crt")
	keyFile = filepath.Join(dir, "tls.key")
	if err := os.WriteFile(certFile, pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(keyFile, pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER}), 0o600); err != nil {
		t.Fatal(err)
	}
	return certFile, keyFile
}

func subject(t *testing.T, r *certReloader) string {
	t.Helper()
	cert, err := r.getCertificate(nil)
	if err != nil || cert == nil || cert.Leaf == nil {
		t.Fatalf("getCertificate() = %v, %v", cert, err)
	}
	return cert.Leaf.Subject.CommonName
}

func TestCertReloader_Renewal(t *testing.T) {
	dir := t.TempDir()
	certFile, keyFile := writeCert(t, dir, "first", time.Now().Add(90*24*time.Hour))

	r := newCertReloader(config.TLSConfig{CertFile: certFile, KeyFile: keyFile}, slog.Default())
	if err := r.reload(); err != nil {
		t.Fatalf("reload() error = %v", err)
	}
	if got := subject(t, r); got != "first" {
		t.Fatalf("subject = %q, want first", got)
	}

	r.reloadIfChanged()
	if got := subject(t, r); got != "first" {
		t.Errorf("unchanged files reloaded: subject = %q", got)
	}

	writeCert(t, dir, "second", time.Now().Add(90*24*time.Hour))
	later := time.Now().Add(time.Minute)
	for _, f := range []string{certFile, keyFile} {
		if err := os.Chtimes(f, later, later); err != nil {
			t.Fatal(err)
		}
	}

	r.reloadIfChanged()
	if got := subject(t, r); got != "second" {
		t.Errorf("subject after renewal = %q, want second", got)
	}
}

func TestCertReloader_ExpiredRejected(t *testing.T) {
	certFile, keyFile := writeCert(t, t.TempDir(), "stale", time.Now().Add(-time.Hour))

	r := newCertReloader(config.TLSConfig{CertFile: certFile, KeyFile: keyFile}, slog.Default())
	err := r.reload()
	if err == nil || !strings.Contains(err.Error(), "expired") {
		t.Errorf("reload() error = %v, want expired", err)
	}
}

func TestNewTLSConfig_MinVersion(t *testing.T) {
	r := &certReloader{}
	tests := []struct {
		version string
		want    uint16
	}{
		{version: "1.2", want: tls.VersionTLS12},
		{version: "1.3", want: tls.VersionTLS13},
		{version: "", want: tls.VersionTLS13},
	}
	for _, tt := range tests {
		if got := newTLSConfig(config.TLSConfig{MinVersion: tt.version}, r).MinVersion; got != tt.want {
			t.Errorf("MinVersion(%q) = %x, want %x", tt.version, got, tt.want)
		}
	}
}

func TestServer_StartTLS(t *testing.T) {
	certFile, keyFile := writeCert(t, t.TempDir(), "custodian", time.Now().Add(90*24*time.Hour))
	cfg := &config.ServerConfig{
		Enabled:         true,
		ListenAddress:   "127.0.0.1:0",
		ShutdownTimeout: time.Second,
		TLS:             config.TLSConfig{CertFile: certFile, KeyFile: keyFile, MinVersion: "1.2"},
	}
	srv := NewServer(cfg, Deps{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Start(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for srv.Addr() == nil {
		if time.Now().After(deadline) {
			t.Fatal("server did not start")
		}
		time.Sleep(5 * time.Millisecond)
	}

	client := &http.Client{Transport: &http.Transport{
		TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, // self-signed test certificate
	}}
	resp, err := client.Get("https://" + srv.Addr().String() + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
	if resp.TLS == nil || resp.TLS.PeerCertificates[0].Subject.CommonName != "custodian" {
		t.Error("response not served with the configured certificate")
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Start() error = %v", err)
	}
}

func TestServer_StartTLSMissingCert(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.ServerConfig{
		Enabled:       true,
		ListenAddress: "127.0.0.1:0",
		TLS: config.TLSConfig{
			CertFile: filepath.Join(dir, "missing.crt"),
			KeyFile:  filepath.Join(dir, "missing.key"),
		},
	}
	srv := NewServer(cfg, Deps{})
	if err := srv.Start(context.Background()); err == nil {
		t.Fatal("Start() succeeded without a certificate")
	}
	if srv.IsRunning() {
		t.Error("IsRunning() = true after failed start")
	}
}
