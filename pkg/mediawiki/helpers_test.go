package mediawiki

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type rewriteRoundTripper struct{ base *url.URL }

func (r rewriteRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	// clone the request to avoid mutating the original
	c := req.Clone(req.Context())
	c.URL.Scheme = r.base.Scheme
	c.URL.Host = r.base.Host
	c.Host = r.base.Host
	return http.DefaultTransport.RoundTrip(c)
}

// fakeWiki replays canned bodies in order and records every query it receives.
type fakeWiki struct {
	t      *testing.T
	mu     sync.Mutex
	bodies []string
	status []int
	calls  []url.Values
	server *httptest.Server
}

func newFakeWiki(t *testing.T, bodies ...string) *fakeWiki {
	t.Helper()
	f := &fakeWiki{t: t, bodies: bodies}
	mux := http.NewServeMux()
	mux.HandleFunc("/api.php", f.serve)
	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeWiki) serve(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := len(f.calls)
	f.calls = append(f.calls, r.URL.Query())
	if n >= len(f.bodies) {
		f.t.Errorf("unexpected request #%d: %s", n+1, r.URL.RawQuery)
		w.WriteHeader(http.StatusTeapot)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if n < len(f.status) && f.status[n] != 0 {
		w.WriteHeader(f.status[n])
	}
	_, _ = w.Write([]byte(f.bodies[n]))
}

func (f *fakeWiki) Calls() []url.Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]url.Values(nil), f.calls...)
}

// client points at the production endpoint and is rerouted to the fake server,
// so the path of the real API is exercised too.
func (f *fakeWiki) client(t *testing.T) *Client {
	t.Helper()
	u, err := url.Parse(f.server.URL)
	require.NoError(t, err)
	c, err := NewClient("http://bots.snpedia.com/api.php",
		WithHTTPClient(&http.Client{Transport: rewriteRoundTripper{base: u}}),
		WithUserAgent("test-agent"),
	)
	require.NoError(t, err)
	return c
}
