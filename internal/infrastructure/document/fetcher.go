package document

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net"
	"net/http"
	"syscall"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/betterbuy/backend/internal/domain"
)

const (
	userAgent = "Mozilla/5.0 (compatible; BetterBuy/1.0)"

	// image headers sit in the first few KB; the rest is never read
	maxImageHeaderBytes = 512 * 1024
)

// errBlockedAddress is returned when a URL resolves to an address that is
// not publicly routable (loopback, private, link-local, unspecified)
var errBlockedAddress = errors.New("destination is not a public address")

func newRetryClient(timeout time.Duration, retries int, publicOnly bool) *retryablehttp.Client {
	client := retryablehttp.NewClient()
	client.RetryMax = retries
	client.RetryWaitMin = 200 * time.Millisecond
	client.RetryWaitMax = 2 * time.Second
	client.HTTPClient.Timeout = timeout
	client.Logger = nil

	if publicOnly {
		if transport, ok := client.HTTPClient.Transport.(*http.Transport); ok {
			dialer := &net.Dialer{
				Timeout:   30 * time.Second,
				KeepAlive: 30 * time.Second,
				Control:   dialPublicOnly,
			}
			transport.DialContext = dialer.DialContext
		}
		client.CheckRetry = func(ctx context.Context, resp *http.Response, err error) (bool, error) {
			if errors.Is(err, errBlockedAddress) {
				return false, err
			}
			return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
		}
	}
	return client
}

// dialPublicOnly runs after name resolution, so it sees the address that is
// actually dialled, including for redirects.
func dialPublicOnly(network, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return err
	}
	if ip := net.ParseIP(host); ip == nil || !isPublicIP(ip) {
		return fmt.Errorf("%w: %s", errBlockedAddress, host)
	}
	return nil
}

func isPublicIP(ip net.IP) bool {
	return !ip.IsLoopback() &&
		!ip.IsPrivate() &&
		!ip.IsLinkLocalUnicast() &&
		!ip.IsLinkLocalMulticast() &&
		!ip.IsInterfaceLocalMulticast() &&
		!ip.IsMulticast() &&
		!ip.IsUnspecified()
}

// Fetcher downloads page markup
type Fetcher struct {
	client *retryablehttp.Client
}

// NewFetcher creates a page fetcher with the given per-request timeout.
// Only public addresses are fetched.
func NewFetcher(timeout time.Duration) *Fetcher {
	return newFetcher(timeout, true)
}

func newFetcher(timeout time.Duration, publicOnly bool) *Fetcher {
	return &Fetcher{client: newRetryClient(timeout, 2, publicOnly)}
}

// Fetch returns the page at url decoded to UTF-8
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrDocumentUnavailable, err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrDocumentUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d", domain.ErrDocumentUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxHTMLSize+1))
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrDocumentUnavailable, err)
	}
	if len(body) > MaxHTMLSize {
		return "", fmt.Errorf("%w: page exceeds %d bytes", domain.ErrDocumentUnavailable, MaxHTMLSize)
	}

	return string(ToUTF8(body, resp.Header.Get("Content-Type"))), nil
}

// Prober resolves image dimensions by decoding the image header
type Prober struct {
	client *retryablehttp.Client
}

// NewProber creates an image prober. Callers bound each probe through ctx.
// Only public addresses are probed.
func NewProber() *Prober {
	return newProber(true)
}

func newProber(publicOnly bool) *Prober {
	return &Prober{client: newRetryClient(0, 0, publicOnly)}
}

// Probe returns the natural size of the image at url
func (p *Prober) Probe(ctx context.Context, url string) (domain.ImageSize, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return domain.ImageSize{}, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return domain.ImageSize{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.ImageSize{}, fmt.Errorf("image request returned status %d", resp.StatusCode)
	}

	cfg, _, err := image.DecodeConfig(io.LimitReader(resp.Body, maxImageHeaderBytes))
	if err != nil {
		return domain.ImageSize{}, fmt.Errorf("failed to decode image header: %w", err)
	}

	return domain.ImageSize{Width: cfg.Width, Height: cfg.Height}, nil
}
