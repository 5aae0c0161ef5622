// Package gorod automates the УК Город utility-billing portal. The
// portal has no API: everything goes through its HTML login form and the
// whole-page meter form, so this client drives a cookie-backed session
// through the login handshake, scrapes the meter table and reconstructs
// the portal's own form payload to submit new readings.
package gorod

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"meterassist-backend/lib/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("scrapers/gorod")

const (
	entryPath    = "/gorod"
	countersPath = "/gorod/Abonent/Counters"
)

// markers that only appear on the rendered login form; a 200 response
// still containing either one means the credentials were rejected
const (
	emailInputMarker = "inputEmail3"
	loginBoxMarker   = "login-box"
)

type Client struct {
	BaseUrl *url.URL
	Http    *resty.Client

	classifier    ResponseClassifier
	columns       ColumnMapping
	authenticated bool
	closed        bool
}

type ClientOptions struct {
	BaseUrl   string
	UserAgent string
	// defaults to DefaultClassifier()
	Classifier ResponseClassifier
	// defaults to DefaultColumns()
	Columns *ColumnMapping
}

func NewClient(ctx context.Context, opts ClientOptions) (*Client, error) {
	baseUrl, err := url.Parse(opts.BaseUrl)
	if err != nil {
		return nil, err
	}

	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"
	}

	client := resty.New()
	client.SetBaseURL(strings.TrimSuffix(opts.BaseUrl, "/"))
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	client.SetCookieJar(jar)
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)

	client.SetHeader("user-agent", userAgent)
	client.SetHeader("accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	client.SetHeader("accept-language", "ru-RU,ru;q=0.9,en-US;q=0.8,en;q=0.7")
	client.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(baseUrl.Hostname()))
	client.SetTimeout(time.Second * 30)

	telemetry.InstrumentResty(client, "scrapers/gorod/http")

	classifier := opts.Classifier
	if classifier == nil {
		classifier = DefaultClassifier()
	}
	columns := DefaultColumns()
	if opts.Columns != nil {
		columns = *opts.Columns
	}

	return &Client{
		BaseUrl:    baseUrl,
		Http:       client,
		classifier: classifier,
		columns:    columns,
	}, nil
}

func (c *Client) defaultRedirectPolicy() resty.RedirectPolicy {
	return resty.DomainCheckRedirectPolicy(c.BaseUrl.Hostname())
}

func (c *Client) IsAuthenticated() bool {
	return c.authenticated
}

// Login drives the handshake: fetch the entry page (the portal either
// redirects to the login form or renders it directly, both happen in the
// wild), pull the anti-forgery token out of whatever page was finally
// rendered, then post the credentials back to that page. Success is a
// redirect response, or a 200 page that no longer carries the login-form
// markers.
func (c *Client) Login(ctx context.Context, email, password string) error {
	ctx, span := tracer.Start(ctx, "client:Login")
	defer span.End()

	if c.closed {
		return ErrClosed
	}

	res, err := c.Http.R().
		SetContext(ctx).
		Get(entryPath)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch login page")
		return fmt.Errorf("%w: fetching login page: %w", ErrAuthentication, err)
	}
	if res.StatusCode() != http.StatusOK {
		span.SetStatus(codes.Error, "unexpected login page status")
		return fmt.Errorf("%w: login page returned status %d", ErrAuthentication, res.StatusCode())
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse login page html")
		return fmt.Errorf("%w: %w", ErrAuthentication, err)
	}

	token := ExtractToken(doc)
	if token == "" {
		span.SetStatus(codes.Error, "no csrf token on login page")
		return fmt.Errorf("%w: no csrf token on login page", ErrAuthentication)
	}

	// the login form posts back to wherever the redirects landed us
	formTarget := entryPath
	if raw := res.RawResponse; raw != nil && raw.Request != nil && raw.Request.URL != nil {
		formTarget = raw.Request.URL.String()
	}

	redirected := false
	c.Http.SetRedirectPolicy(resty.RedirectPolicyFunc(
		func(req *http.Request, via []*http.Request) error {
			redirected = true
			return nil
		},
	))
	defer c.Http.SetRedirectPolicy(c.defaultRedirectPolicy())

	res, err = c.Http.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			tokenField: token,
			"Email":    email,
			"Password": password,
		}).
		Post(formTarget)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to post credentials")
		return fmt.Errorf("%w: posting credentials: %w", ErrAuthentication, err)
	}

	status := res.StatusCode()
	switch {
	case redirected || (status >= 300 && status < 400):
		// the portal bounces successful logins to the account page
	case status == http.StatusOK:
		body := string(res.Body())
		if strings.Contains(body, emailInputMarker) || strings.Contains(body, loginBoxMarker) {
			span.SetStatus(codes.Error, "still on login page after posting credentials")
			return fmt.Errorf("%w: portal rejected credentials", ErrAuthentication)
		}
	default:
		span.SetStatus(codes.Error, "unexpected login response")
		return fmt.Errorf(
			"%w: unexpected response status %d: %s",
			ErrAuthentication, status, snippet(res.Body()),
		)
	}

	slog.InfoContext(ctx, "logged into portal", "base_url", c.BaseUrl.String())
	c.authenticated = true
	return nil
}

// FetchMeters scrapes the meter-listing page into an immutable snapshot.
// The token travels with the records it was rendered alongside; a new
// fetch produces a whole new snapshot rather than mutating this one.
func (c *Client) FetchMeters(ctx context.Context) (Snapshot, error) {
	ctx, span := tracer.Start(ctx, "client:FetchMeters")
	defer span.End()

	if c.closed {
		return Snapshot{}, ErrClosed
	}

	res, err := c.Http.R().
		SetContext(ctx).
		Get(countersPath)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch meters page")
		return Snapshot{}, fmt.Errorf("%w: fetching meters page: %w", ErrParse, err)
	}
	if res.StatusCode() != http.StatusOK {
		span.SetStatus(codes.Error, "unexpected meters page status")
		return Snapshot{}, fmt.Errorf("%w: meters page returned status %d", ErrParse, res.StatusCode())
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse meters page html")
		return Snapshot{}, fmt.Errorf("%w: %w", ErrParse, err)
	}

	records := ParseMetersPage(doc, c.columns)
	slog.DebugContext(ctx, "fetched meters page", "records", len(records))

	return Snapshot{
		Records:   records,
		Token:     ExtractToken(doc),
		FetchedAt: time.Now(),
	}, nil
}

// Submit posts new readings for the meters named in values (meter id →
// value). The page is re-fetched first so the payload is built from a
// fresh token and the record set it was rendered with; meters the caller
// doesn't mention are resubmitted with their displayed values, because
// the portal's form is whole-page, not per-meter.
//
// When verify is set, the page is fetched once more after a successful
// post and every submitted id that reappears is marked in
// SubmissionResult.Validated. That is a presence check only.
func (c *Client) Submit(ctx context.Context, values map[string]string, verify bool) (SubmissionResult, error) {
	ctx, span := tracer.Start(ctx, "client:Submit")
	defer span.End()

	if c.closed {
		return SubmissionResult{}, ErrClosed
	}

	snapshot, err := c.FetchMeters(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch fresh snapshot")
		return SubmissionResult{}, err
	}
	if snapshot.Token == "" {
		span.SetStatus(codes.Error, "no csrf token on meters page")
		return SubmissionResult{}, fmt.Errorf("%w: no csrf token on meters page", ErrSubmission)
	}

	payload := buildPayload(snapshot, values)

	res, err := c.Http.R().
		SetContext(ctx).
		SetHeader("content-type", "application/x-www-form-urlencoded").
		SetBody(encodeForm(payload)).
		Post(countersPath)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to post readings")
		return SubmissionResult{}, fmt.Errorf("%w: posting readings: %w", ErrSubmission, err)
	}
	if res.StatusCode() != http.StatusOK {
		span.SetStatus(codes.Error, "unexpected submit status")
		return SubmissionResult{}, fmt.Errorf("%w: submit returned status %d", ErrSubmission, res.StatusCode())
	}

	// the portal answers 200 either way; the body is the authority
	ok, reason := c.classifier.Classify(string(res.Body()))
	if !ok {
		span.SetStatus(codes.Error, reason)
		return SubmissionResult{Success: false, Message: reason}, nil
	}

	result := SubmissionResult{
		Success: true,
		Message: fmt.Sprintf("submitted %d reading(s)", len(values)),
	}

	if verify {
		after, err := c.FetchMeters(ctx)
		if err != nil {
			// the submission itself went through; surface the
			// verification failure in the message instead of failing
			slog.WarnContext(ctx, "post-submission verification fetch failed", "err", err)
			result.Message += "; verification fetch failed"
			return result, nil
		}
		validated := make(map[string]bool, len(values))
		for id := range values {
			_, present := after.Record(id)
			validated[id] = present
		}
		result.Validated = validated
	}

	return result, nil
}

// ValidateSubmitted strictly re-checks submitted values against what the
// portal now displays, comparing with CompareValues. Unlike the presence
// check in Submit, a value mismatch here counts as a validation failure.
func (c *Client) ValidateSubmitted(ctx context.Context, expected map[string]string) (map[string]bool, error) {
	ctx, span := tracer.Start(ctx, "client:ValidateSubmitted")
	defer span.End()

	if c.closed {
		return nil, ErrClosed
	}

	snapshot, err := c.FetchMeters(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch snapshot for validation")
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	results := make(map[string]bool, len(expected))
	for id, expectedValue := range expected {
		record, present := snapshot.Record(id)
		if !present {
			results[id] = false
			continue
		}
		results[id] = CompareValues(expectedValue, record.CurrentReading.Value)
	}
	return results, nil
}

// Logout releases the session. Every operation after this fails fast
// with ErrClosed; parallel portal accounts need their own clients.
func (c *Client) Logout() {
	if c.closed {
		return
	}
	c.Http.GetClient().CloseIdleConnections()
	c.authenticated = false
	c.closed = true
}

// buildPayload reconstructs the portal's whole-page form: the fresh
// token first, then one (MeterReadingId, InputValCnt) pair per record in
// page order. Pair order matters to the portal, which is why this is not
// a url.Values.
func buildPayload(snapshot Snapshot, values map[string]string) [][2]string {
	payload := [][2]string{{tokenField, snapshot.Token}}
	for _, record := range snapshot.Records {
		value, requested := values[record.Id]
		if !requested {
			value = record.CurrentReading.Value
		}
		payload = append(payload,
			[2]string{meterIdField, record.Id},
			[2]string{inputValueField, value},
		)
	}
	return payload
}

func encodeForm(pairs [][2]string) string {
	var b strings.Builder
	for i, pair := range pairs {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(pair[0]))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(pair[1]))
	}
	return b.String()
}

func snippet(body []byte) string {
	const max = 256
	if len(body) > max {
		body = body[:max]
	}
	return string(body)
}
