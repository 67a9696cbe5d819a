package transport

import (
	"testing"

	tls "github.com/refraction-networking/utls"
	"golang.org/x/net/proxy"
)

func TestNewFingerprintedTransportDefaults(t *testing.T) {
	tr := NewFingerprintedTransport()
	if tr.fingerprint != tls.HelloFirefox_Auto {
		t.Fatalf("default fingerprint = %v, want HelloFirefox_Auto", tr.fingerprint)
	}
	if tr.dialer == nil {
		t.Fatal("default dialer should not be nil")
	}
}

func TestWithFingerprintOverrides(t *testing.T) {
	tr := NewFingerprintedTransport(WithFingerprint(tls.HelloChrome_Auto))
	if tr.fingerprint != tls.HelloChrome_Auto {
		t.Fatalf("fingerprint = %v, want HelloChrome_Auto", tr.fingerprint)
	}
}

func TestWithProxyURLInvalidLeavesDefaultDialer(t *testing.T) {
	tr := NewFingerprintedTransport(WithProxyURL("://not-a-url"))
	if tr.dialer != proxy.Direct {
		t.Fatal("an unparseable proxy URL should not replace the direct dialer")
	}
}

func TestWithProxyURLEmptyLeavesDefaultDialer(t *testing.T) {
	tr := NewFingerprintedTransport(WithProxyURL(""))
	if tr.dialer == nil {
		t.Fatal("empty proxy URL should leave the default dialer in place")
	}
}
