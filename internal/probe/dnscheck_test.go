package probe

import (
	"context"
	"testing"
)

func TestHostOf(t *testing.T) {
	cases := map[string]string{
		"https://example.com/health": "example.com",
		"http://10.0.0.5:8080/":      "10.0.0.5",
		"1.1.1.1":                    "1.1.1.1",
		" router.lan ":               "router.lan",
	}
	for in, want := range cases {
		if got := HostOf(in); got != want {
			t.Errorf("HostOf(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCheckDNS_OfflineClasses(t *testing.T) {
	if s := CheckDNS(context.Background(), nil, "https://example.com"); s.Class != DNSInvalidName {
		t.Fatalf("want INVALID_NAME for a URL, got %s", s.Class)
	}
	if s := CheckDNS(context.Background(), nil, ""); s.Class != DNSInvalidName {
		t.Fatalf("want INVALID_NAME for empty, got %s", s.Class)
	}
	s := CheckDNS(context.Background(), nil, "192.0.2.1")
	if s.Class != DNSIPLiteral || !s.Resolvable() {
		t.Fatalf("want resolvable IP literal, got %+v", s)
	}
}
