package scraper

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http/cookiejar"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"

	"github.com/djbiega/MFP-Dash-App/internal/domain"
	"github.com/djbiega/MFP-Dash-App/internal/ports"
)

const (
	defaultBaseURL = "https://www.myfitnesspal.com"
	defaultTimeout = 20 * time.Second

	userAgent = "mfpdash/1.0"
)

// Fetcher retrieves per-user, per-date diary pages over one reused resty
// session. The underlying http.Client is safe for concurrent use, so one
// Fetcher may serve all aggregate workers.
type Fetcher struct {
	http   *resty.Client
	logger *slog.Logger
	now    func() time.Time
}

var _ ports.DiaryFetcher = (*Fetcher)(nil)

// NewFetcher wires a session-reusing client against the diary host. An empty
// baseURL or zero timeout falls back to the production defaults.
func NewFetcher(baseURL string, timeout time.Duration, logger *slog.Logger) *Fetcher {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}

	client := resty.New()
	client.SetBaseURL(strings.TrimSuffix(baseURL, "/"))
	client.SetTimeout(timeout)
	client.SetHeader("User-Agent", userAgent)
	if jar, err := cookiejar.New(nil); err == nil {
		client.SetCookieJar(jar)
	}

	return &Fetcher{http: client, logger: logger, now: time.Now}
}

// Fetch retrieves the diary page for (username, date). A non-success status
// is reported as an absent document (nil, nil) so that one bad date never
// aborts a multi-year scrape; errors are reserved for transport failures.
func (f *Fetcher) Fetch(ctx context.Context, username string, date time.Time) (*goquery.Document, error) {
	res, err := f.http.R().
		SetContext(ctx).
		SetQueryParam("date", date.Format(domain.DateLayout)).
		Get("/food/diary/" + username)
	if err != nil {
		return nil, fmt.Errorf("fetch diary %s@%s: %w", username, date.Format(domain.DateLayout), err)
	}

	if !res.IsSuccess() {
		f.logger.Debug("diary page unavailable",
			"username", username,
			"date", date.Format(domain.DateLayout),
			"status", res.StatusCode())
		return nil, nil
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(res.Body()))
	if err != nil {
		return nil, fmt.Errorf("parse diary %s@%s: %w", username, date.Format(domain.DateLayout), err)
	}
	return doc, nil
}

// IsPublic reports whether the user's diary renders content: an existing
// account with Diary Settings set to public. The site serves a placeholder
// block for private diaries and unknown usernames instead of a hard error.
func (f *Fetcher) IsPublic(ctx context.Context, username string) (bool, error) {
	if username == "" {
		return false, nil
	}

	doc, err := f.Fetch(ctx, username, f.now())
	if err != nil {
		return false, err
	}
	if doc == nil {
		return false, nil
	}

	text := strings.TrimSpace(doc.Find("#main").Text())
	if strings.Contains(text, "This user maintains a private diary.") {
		return false, nil
	}
	if strings.Contains(text, "Username "+username+" can not be found.") {
		return false, nil
	}
	return true, nil
}
