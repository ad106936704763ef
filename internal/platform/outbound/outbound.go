// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package outbound decides which URLs the service may fetch on a client's
// behalf.
package outbound

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/net/idna"
)

var (
	// ErrOutboundDisabled indicates outbound HTTP(S) access is disabled by policy.
	ErrOutboundDisabled = errors.New("outbound http(s) disabled")
	// ErrOutboundNotAllowed indicates the URL matched neither the allowlist
	// nor the public-address rule.
	ErrOutboundNotAllowed = errors.New("outbound url not allowed")
	// ErrBlockedIP indicates the host resolved to an address that is never
	// reachable from the service.
	ErrBlockedIP = errors.New("outbound url resolves to blocked ip")
)

// Allowlist defines the allowed outbound URL components.
type Allowlist struct {
	Hosts   []string
	CIDRs   []string
	Ports   []int
	Schemes []string
}

// Policy defines the outbound access policy. With AllowPublic set, hosts
// outside the allowlist are accepted when every resolved address is a public
// unicast address.
type Policy struct {
	Enabled     bool
	AllowPublic bool
	Allow       Allowlist
}

// Resolver looks up host addresses. net.DefaultResolver satisfies it.
type Resolver interface {
	LookupIPAddr(ctx context.Context, host string) ([]net.IPAddr, error)
}

// NormalizeHost validates and normalizes a host for comparison.
func NormalizeHost(raw string) (string, error) {
	host := strings.TrimSpace(raw)
	if host == "" {
		return "", fmt.Errorf("host is empty")
	}
	switch {
	case strings.Contains(host, "://"):
		return "", fmt.Errorf("host must not include scheme: %s", raw)
	case strings.Contains(host, "/"):
		return "", fmt.Errorf("host must not include path: %s", raw)
	case strings.Contains(host, "@"):
		return "", fmt.Errorf("host must not include userinfo: %s", raw)
	}
	if strings.HasPrefix(host, "[") && strings.HasSuffix(host, "]") {
		host = strings.TrimSuffix(strings.TrimPrefix(host, "["), "]")
	}
	if strings.Contains(host, ":") && net.ParseIP(host) == nil {
		return "", fmt.Errorf("host must not include port: %s", raw)
	}
	if strings.Contains(host, "%") {
		return "", fmt.Errorf("host must not include zone: %s", raw)
	}
	host = strings.TrimSuffix(host, ".")
	if host == "" {
		return "", fmt.Errorf("host is empty")
	}
	if ip := net.ParseIP(host); ip != nil {
		return strings.ToLower(ip.String()), nil
	}
	ascii, err := idna.Lookup.ToASCII(host)
	if err != nil {
		return "", fmt.Errorf("invalid host %q: %w", raw, err)
	}
	return strings.ToLower(ascii), nil
}

// Validate checks raw against policy using net.DefaultResolver and returns
// the normalized URL.
func Validate(ctx context.Context, raw string, policy Policy) (string, error) {
	return ValidateWith(ctx, net.DefaultResolver, raw, policy)
}

// ValidateWith is Validate with an explicit resolver.
func ValidateWith(ctx context.Context, resolver Resolver, raw string, policy Policy) (string, error) {
	if !policy.Enabled {
		return "", ErrOutboundDisabled
	}
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", fmt.Errorf("outbound url empty")
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("invalid url: %w", err)
	}
	switch {
	case u.Scheme == "":
		return "", fmt.Errorf("missing url scheme")
	case u.Host == "":
		return "", fmt.Errorf("missing url host")
	case u.User != nil:
		return "", fmt.Errorf("userinfo not allowed")
	case u.Fragment != "":
		return "", fmt.Errorf("fragments not allowed")
	}

	scheme := strings.ToLower(u.Scheme)
	if !schemeAllowed(policy.Allow.Schemes, scheme) {
		return "", fmt.Errorf("%w: scheme %q", ErrOutboundNotAllowed, scheme)
	}
	port, err := urlPort(u, scheme)
	if err != nil {
		return "", err
	}
	if !slices.Contains(policy.Allow.Ports, port) {
		return "", fmt.Errorf("%w: port %d", ErrOutboundNotAllowed, port)
	}

	host, err := NormalizeHost(u.Hostname())
	if err != nil {
		return "", err
	}
	allowedHosts, err := normalizeHostAllowlist(policy.Allow.Hosts)
	if err != nil {
		return "", err
	}
	allowedCIDRs, err := parseCIDRAllowlist(policy.Allow.CIDRs)
	if err != nil {
		return "", err
	}

	ips, err := resolveHostIPs(ctx, resolver, host)
	if err != nil {
		return "", err
	}

	_, hostAllowed := allowedHosts[host]
	ipAllowed := false
	allPublic := true
	for _, ip := range ips {
		inCIDR := ipInCIDRs(ip, allowedCIDRs)
		if isBlockedIP(ip) && !inCIDR {
			return "", fmt.Errorf("%w: %s", ErrBlockedIP, ip)
		}
		if inCIDR {
			ipAllowed = true
		}
		if ip.IsPrivate() {
			allPublic = false
		}
	}

	if !hostAllowed && !ipAllowed && !(policy.AllowPublic && allPublic) {
		return "", ErrOutboundNotAllowed
	}

	u.Scheme = scheme
	u.Host = joinHostPort(host, u.Port())
	return u.String(), nil
}

func schemeAllowed(allowed []string, scheme string) bool {
	for _, s := range allowed {
		if strings.EqualFold(strings.TrimSpace(s), scheme) {
			return true
		}
	}
	return false
}

func urlPort(u *url.URL, scheme string) (int, error) {
	if u.Port() == "" {
		switch scheme {
		case "http":
			return 80, nil
		case "https":
			return 443, nil
		default:
			return 0, fmt.Errorf("unknown scheme %q", scheme)
		}
	}
	port, err := strconv.Atoi(u.Port())
	if err != nil {
		return 0, fmt.Errorf("invalid port %q: %w", u.Port(), err)
	}
	return port, nil
}

func normalizeHostAllowlist(hosts []string) (map[string]struct{}, error) {
	allow := make(map[string]struct{}, len(hosts))
	for _, host := range hosts {
		normalized, err := NormalizeHost(host)
		if err != nil {
			return nil, err
		}
		allow[normalized] = struct{}{}
	}
	return allow, nil
}

func parseCIDRAllowlist(entries []string) ([]*net.IPNet, error) {
	var nets []*net.IPNet
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if _, ipnet, err := net.ParseCIDR(entry); err == nil {
			nets = append(nets, ipnet)
			continue
		}
		ip := net.ParseIP(entry)
		if ip == nil {
			return nil, fmt.Errorf("invalid CIDR or IP: %s", entry)
		}
		bits := 32
		if ip.To4() == nil {
			bits = 128
		}
		nets = append(nets, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
	}
	return nets, nil
}

func resolveHostIPs(ctx context.Context, resolver Resolver, host string) ([]net.IP, error) {
	if ip := net.ParseIP(host); ip != nil {
		return []net.IP{ip}, nil
	}
	addrs, err := resolver.LookupIPAddr(ctx, host)
	if err != nil {
		return nil, fmt.Errorf("resolve host %q: %w", host, err)
	}
	ips := make([]net.IP, 0, len(addrs))
	for _, addr := range addrs {
		if addr.IP != nil {
			ips = append(ips, addr.IP)
		}
	}
	if len(ips) == 0 {
		return nil, fmt.Errorf("resolve host %q: no addresses", host)
	}
	return ips, nil
}

func isBlockedIP(ip net.IP) bool {
	return ip == nil ||
		ip.IsLoopback() ||
		ip.IsUnspecified() ||
		ip.IsLinkLocalUnicast() ||
		ip.IsLinkLocalMulticast() ||
		ip.IsMulticast()
}

func ipInCIDRs(ip net.IP, cidrs []*net.IPNet) bool {
	for _, n := range cidrs {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

func joinHostPort(host, port string) string {
	if port == "" {
		if strings.Contains(host, ":") {
			return "[" + host + "]"
		}
		return host
	}
	return net.JoinHostPort(host, port)
}
