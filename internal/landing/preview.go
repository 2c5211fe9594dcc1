// Package landing fetches an advertiser's landing page and extracts the
// OpenGraph metadata used as a campaign's creative reference.
package landing

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

const userAgent = "Mozilla/5.0 (compatible; VidoraAdPreview/1.0)"

type Preview struct {
	URL         string    `json:"url"`
	Title       string    `json:"title,omitempty"`
	Description string    `json:"description,omitempty"`
	ImageURL    string    `json:"imageUrl,omitempty"`
	SiteName    string    `json:"siteName,omitempty"`
	Lang        string    `json:"lang,omitempty"`
	FetchedAt   time.Time `json:"fetchedAt"`
}

type Fetcher struct {
	httpClient *http.Client
	log        *zap.Logger
	maxRetries int
	backoff    time.Duration
}

func NewFetcher(timeoutMS, maxRetries int, log *zap.Logger) *Fetcher {
	return &Fetcher{
		httpClient: &http.Client{
			Timeout: time.Duration(timeoutMS) * time.Millisecond,
		},
		log:        log,
		maxRetries: maxRetries,
		backoff:    500 * time.Millisecond,
	}
}

// Fetch downloads pageURL and parses its preview metadata. Network errors and
// non-200 responses are retried with linear backoff; 4xx responses are not.
func (f *Fetcher) Fetch(ctx context.Context, pageURL string) (*Preview, error) {
	base, err := url.Parse(pageURL)
	if err != nil || (base.Scheme != "http" && base.Scheme != "https") || base.Host == "" {
		return nil, fmt.Errorf("invalid landing url %q", pageURL)
	}

	var doc *goquery.Document
	var lastErr error

	for attempt := 0; attempt <= f.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * f.backoff):
			}
		}

		doc, lastErr = f.get(ctx, pageURL)
		if lastErr == nil {
			break
		}
		if _, permanent := lastErr.(permanentError); permanent {
			break
		}
		f.log.Debug("landing fetch failed", zap.String("url", pageURL), zap.Int("attempt", attempt), zap.Error(lastErr))
	}

	if lastErr != nil {
		return nil, lastErr
	}

	return parse(doc, base), nil
}

type permanentError struct{ status int }

func (e permanentError) Error() string { return fmt.Sprintf("HTTP %d", e.status) }

func (f *Fetcher) get(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		return nil, permanentError{status: resp.StatusCode}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d for %s", resp.StatusCode, pageURL)
	}

	return goquery.NewDocumentFromReader(resp.Body)
}

func parse(doc *goquery.Document, base *url.URL) *Preview {
	p := &Preview{
		URL:       base.String(),
		FetchedAt: time.Now(),
	}

	p.Title = firstNonEmpty(meta(doc, "og:title"), strings.TrimSpace(doc.Find("head title").First().Text()))
	p.Description = firstNonEmpty(meta(doc, "og:description"), meta(doc, "description"))
	p.SiteName = meta(doc, "og:site_name")
	p.Lang, _ = doc.Find("html").Attr("lang")

	image := firstNonEmpty(meta(doc, "og:image:secure_url"), meta(doc, "og:image"), meta(doc, "twitter:image"))
	if image != "" {
		p.ImageURL = resolve(base, image)
	}

	return p
}

// meta reads a <meta> tag by property or name.
func meta(doc *goquery.Document, key string) string {
	var value string
	doc.Find("meta").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		prop, _ := s.Attr("property")
		name, _ := s.Attr("name")
		if !strings.EqualFold(prop, key) && !strings.EqualFold(name, key) {
			return true
		}
		content, _ := s.Attr("content")
		value = strings.TrimSpace(content)
		return value == ""
	})
	return value
}

func resolve(base *url.URL, ref string) string {
	u, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	return base.ResolveReference(u).String()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
