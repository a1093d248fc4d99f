// Package fetch retrieves company web pages for extraction.
// The HTTP path is always tried first; a headless browser render is an optional fallback
// for pages whose content is built by JavaScript.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"net/netip"
	"net/url"
	"syscall"
	"time"
)

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 30 * time.Second

// DefaultMaxBodyBytes bounds how much of a response body is read.
const DefaultMaxBodyBytes = 5 << 20

// DefaultUserAgent is a desktop Chrome user agent. Many small-business sites reject obvious bots.
const DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36"

// browserHeaders are sent with every request alongside the user agent.
var browserHeaders = map[string]string{
	"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
	"Accept-Language": "en-US,en;q=0.9",
}

// Page is a fetched web page.
type Page struct {
	URL         string
	HTML        string
	ContentType string
	StatusCode  int
	Rendered    bool // HTML came from the headless browser
}

// Error represents an error during URL fetching.
type Error struct {
	URL        string
	Message    string
	StatusCode int
	Cause      error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("fetch error for %s: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("fetch error for %s: %s", e.URL, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// ErrPrivateAddress is returned when DenyPrivate is set and a connection would reach a
// loopback, private, link-local or unspecified address.
var ErrPrivateAddress = errors.New("destination address is not public")

// Fetcher retrieves a page by URL.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (*Page, error)
}

// Options configures the fetch behavior.
type Options struct {
	Timeout        time.Duration
	UserAgent      string
	Headers        map[string]string
	MaxBodyBytes   int64
	UseBrowser     bool          // render thin pages in headless Chrome
	BrowserTimeout time.Duration // per render
	Verbose        bool

	// DenyPrivate refuses connections to non-public addresses. The check runs on the
	// resolved address of every dial, redirects included. The browser fallback is not
	// used while it is set, since Chrome resolves and loads subresources on its own.
	DenyPrivate bool
}

// DefaultOptions returns sensible defaults for fetching.
func DefaultOptions() *Options {
	return &Options{
		Timeout:        DefaultTimeout,
		UserAgent:      DefaultUserAgent,
		MaxBodyBytes:   DefaultMaxBodyBytes,
		BrowserTimeout: DefaultTimeout,
	}
}

// HTTPFetcher fetches pages over HTTP with an optional browser fallback.
type HTTPFetcher struct {
	opts   *Options
	client *http.Client

	// Render produces rendered HTML for a URL. Defaults to WithBrowser.
	Render func(ctx context.Context, rawURL string) (string, error)
}

// New returns an HTTPFetcher. A nil opts uses DefaultOptions.
func New(opts *Options) *HTTPFetcher {
	if opts == nil {
		opts = DefaultOptions()
	}
	client := &http.Client{Timeout: opts.Timeout}
	if opts.DenyPrivate {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		transport.Proxy = nil
		dialer := &net.Dialer{Timeout: 10 * time.Second, KeepAlive: 30 * time.Second, Control: denyPrivate}
		transport.DialContext = dialer.DialContext
		client.Transport = transport
	}
	f := &HTTPFetcher{
		opts:   opts,
		client: client,
	}
	f.Render = func(ctx context.Context, rawURL string) (string, error) {
		return WithBrowser(ctx, rawURL, f.opts.BrowserTimeout, f.opts.Verbose)
	}
	return f
}

// Fetch retrieves rawURL. Any status outside 2xx is an error.
// With UseBrowser set, a page with too little visible text is rendered once in the browser,
// and the rendered HTML replaces the HTTP body when the render succeeds.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) (*Page, error) {
	page, err := f.get(ctx, rawURL)
	if err != nil {
		return page, err
	}

	if f.opts.UseBrowser && !f.opts.DenyPrivate && f.Render != nil && ShouldUseBrowser(page.HTML) {
		if f.opts.Verbose {
			log.Printf("[fetch] %s returned thin content, trying browser render", rawURL)
		}
		html, renderErr := f.Render(ctx, rawURL)
		if renderErr != nil {
			log.Printf("[fetch] browser render failed for %s, keeping HTTP body: %v", rawURL, renderErr)
			return page, nil
		}
		page.HTML = html
		page.Rendered = true
	}
	return page, nil
}

func (f *HTTPFetcher) get(ctx context.Context, rawURL string) (*Page, error) {
	parsedURL, err := url.Parse(rawURL)
	if err != nil || (parsedURL.Scheme != "http" && parsedURL.Scheme != "https") || parsedURL.Host == "" {
		return nil, &Error{URL: rawURL, Message: "invalid URL", Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &Error{URL: rawURL, Message: "failed to create request", Cause: err}
	}

	userAgent := f.opts.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	req.Header.Set("User-Agent", userAgent)
	for key, value := range browserHeaders {
		req.Header.Set(key, value)
	}
	for key, value := range f.opts.Headers {
		req.Header.Set(key, value)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &Error{URL: rawURL, Message: "HTTP request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	limit := f.opts.MaxBodyBytes
	if limit <= 0 {
		limit = DefaultMaxBodyBytes
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit))
	if err != nil {
		return nil, &Error{URL: rawURL, Message: "failed to read response body", Cause: err}
	}

	page := &Page{
		URL:         rawURL,
		HTML:        string(body),
		ContentType: resp.Header.Get("Content-Type"),
		StatusCode:  resp.StatusCode,
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return page, &Error{
			URL:        rawURL,
			Message:    fmt.Sprintf("HTTP status %d", resp.StatusCode),
			StatusCode: resp.StatusCode,
		}
	}

	return page, nil
}

// denyPrivate is a net.Dialer Control hook; address is the resolved ip:port.
func denyPrivate(_, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return err
	}
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return err
	}
	if !isPublic(addr) {
		return fmt.Errorf("%w: %s", ErrPrivateAddress, addr)
	}
	return nil
}

func isPublic(addr netip.Addr) bool {
	addr = addr.Unmap()
	return addr.IsValid() &&
		!addr.IsLoopback() &&
		!addr.IsPrivate() &&
		!addr.IsLinkLocalUnicast() &&
		!addr.IsLinkLocalMulticast() &&
		!addr.IsInterfaceLocalMulticast() &&
		!addr.IsMulticast() &&
		!addr.IsUnspecified() &&
		!sharedAddressSpace.Contains(addr)
}

// sharedAddressSpace is carrier-grade NAT space (RFC 6598), not covered by IsPrivate.
var sharedAddressSpace = netip.MustParsePrefix("100.64.0.0/10")
