package util

import (
	"net/http"
	"net/url"
	"strings"
)

// NewProxyFunc picks the outbound proxy per request. With no configured
// proxy URLs it defers to the standard HTTP_PROXY/HTTPS_PROXY
// environment handling. Hosts matching the comma-separated noProxy list
// (exact or subdomain match) always connect directly.
func NewProxyFunc(httpProxy, httpsProxy, noProxy string) func(*http.Request) (*url.URL, error) {
	if httpProxy == "" && httpsProxy == "" {
		return http.ProxyFromEnvironment
	}

	skip := splitHostList(noProxy)
	return func(req *http.Request) (*url.URL, error) {
		if hostMatches(req.URL.Hostname(), skip) {
			return nil, nil
		}
		if req.URL.Scheme == "https" && httpsProxy != "" {
			return url.Parse(httpsProxy)
		}
		if httpProxy != "" {
			return url.Parse(httpProxy)
		}
		return http.ProxyFromEnvironment(req)
	}
}

func splitHostList(list string) []string {
	var hosts []string
	for _, h := range strings.Split(list, ",") {
		if h = strings.TrimSpace(h); h != "" {
			hosts = append(hosts, strings.ToLower(h))
		}
	}
	return hosts
}

// hostMatches reports whether host equals an entry or is a subdomain of
// one.
func hostMatches(host string, entries []string) bool {
	host = strings.ToLower(host)
	for _, e := range entries {
		if host == e || strings.HasSuffix(host, "."+e) {
			return true
		}
	}
	return false
}
