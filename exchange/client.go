package exchange

import (
	"crypto/tls"
	"net/http"
)

// BuildHTTPClient builds the client a Manager sends through.
func BuildHTTPClient(cfg Config) *http.Client {
	checkRedirect := func(req *http.Request, via []*http.Request) error {
		// Do not follow redirects
		return http.ErrUseLastResponse
	}
	if cfg.FollowRedirects {
		checkRedirect = nil
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if transport.TLSClientConfig == nil {
		transport.TLSClientConfig = &tls.Config{}
	}
	transport.TLSClientConfig.InsecureSkipVerify = cfg.SkipVerify
	if cfg.ForceHTTP1 {
		transport.TLSClientConfig.NextProtos = []string{"http/1.1", "http/1.0"}
		transport.TLSNextProto = make(map[string]func(string, *tls.Conn) http.RoundTripper)
		transport.ForceAttemptHTTP2 = false
	}

	return &http.Client{
		CheckRedirect: checkRedirect,
		Timeout:       cfg.Timeout,
		Transport:     transport,
	}
}
