package probe

import (
	"context"
	"errors"
	"net"
	"net/url"
	"strings"
	"time"
)

// DNS classes reported by CheckDNS.
const (
	DNSResolves    = "RESOLVES"
	DNSNoARecord   = "NO_A_RECORD"
	DNSNXDomain    = "NXDOMAIN"
	DNSServfail    = "SERVFAIL_or_TIMEOUT"
	DNSInvalidName = "INVALID_NAME"
	DNSIPLiteral   = "IP_LITERAL"
)

type DNSStatus struct {
	Host          string
	IPs           []net.IP
	CNAME         string
	Nameservers   []string
	Class         string
	ResolverError string
}

// Resolvable reports whether a probe against this host can get past name resolution.
func (s DNSStatus) Resolvable() bool {
	return s.Class == DNSResolves || s.Class == DNSIPLiteral
}

var dnsTimeout = 3 * time.Second

// HostOf returns the host part of a probe address: the hostname of a URL,
// or the address itself for ICMP hosts.
func HostOf(address string) string {
	u, err := url.Parse(address)
	if err != nil || u.Hostname() == "" {
		return strings.TrimSpace(address)
	}
	return u.Hostname()
}

// CheckDNS classifies how the OS resolver sees host. Used by preflight to flag
// targets that would only ever produce connect errors.
func CheckDNS(ctx context.Context, r *net.Resolver, host string) DNSStatus {
	s := DNSStatus{Host: strings.TrimSpace(host)}
	if s.Host == "" || strings.Contains(s.Host, "://") {
		s.Class = DNSInvalidName
		return s
	}
	if ip := net.ParseIP(s.Host); ip != nil {
		s.IPs = []net.IP{ip}
		s.Class = DNSIPLiteral
		return s
	}
	if r == nil {
		r = net.DefaultResolver
	}

	ctx, cancel := context.WithTimeout(ctx, dnsTimeout)
	defer cancel()

	ips, err := r.LookupIP(ctx, "ip", s.Host)
	switch {
	case err == nil && len(ips) > 0:
		s.IPs = ips
		s.Class = DNSResolves
	case err != nil:
		s.ResolverError = err.Error()
		var de *net.DNSError
		if errors.As(err, &de) {
			if de.IsNotFound {
				s.Class = DNSNXDomain
			} else if de.IsTemporary || de.Timeout() {
				s.Class = DNSServfail
			}
		}
	}

	if cname, err := r.LookupCNAME(ctx, s.Host); err == nil && !strings.EqualFold(cname, s.Host+".") {
		s.CNAME = strings.TrimSuffix(cname, ".")
	}

	if ns, err := r.LookupNS(ctx, s.Host); err == nil && len(ns) > 0 {
		for _, n := range ns {
			s.Nameservers = append(s.Nameservers, strings.TrimSuffix(n.Host, "."))
		}
		if s.Class == DNSNXDomain {
			s.Class = DNSNoARecord
		}
	}

	if s.Class == "" {
		switch {
		case len(s.IPs) > 0:
			s.Class = DNSResolves
		case len(s.Nameservers) > 0:
			s.Class = DNSNoARecord
		case s.ResolverError != "":
			s.Class = DNSServfail
		default:
			s.Class = DNSNXDomain
		}
	}
	return s
}
