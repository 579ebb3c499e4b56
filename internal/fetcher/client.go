package fetcher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http/cookiejar"
	"scrapesync-backend/internal/components/telemetry"
	"scrapesync-backend/lib/restyutil"
	"strconv"
	"sync"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"golang.org/x/time/rate"
)

const (
	report_client_get_json_rows   = "client.get-json-rows"
	report_client_ensure_signedin = "client.ensure-signed-in"
	report_client_wait_for_table  = "client.wait-for-table"
)

type client struct {
	http *resty.Client
	tel  telemetry.API

	// serializes sign in attempts so concurrent tasks share one session
	loginMutex sync.Mutex
}

func newClient(opts Options, hosts []string, tel telemetry.API) (*client, error) {
	httpClient := resty.New()
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	httpClient.SetCookieJar(jar)
	if !opts.DisableCloudflareBypass {
		httpClient.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(httpClient.GetClient().Transport)
	}

	httpClient.SetHeader("user-agent", "Mozilla/5.0 (X11; Linux x86_64; rv:128.0) Gecko/20100101 Firefox/128.0")
	if len(hosts) > 0 {
		httpClient.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(hosts...))
	}
	httpClient.SetTimeout(opts.Timeout)

	// max burst >= requests per second just means that no requests will be dropped
	burst := int(opts.RequestsPerSecond)
	if burst < 1 {
		burst = 1
	}
	rateLimiter := rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst)
	httpClient.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		return rateLimiter.Wait(req.Context())
	})

	telemetry.InstrumentResty(httpClient, tel)
	restyutil.InstrumentClient(httpClient, otel.Tracer("scrapesync.fetcher"), opts.DumpOutput)

	return &client{
		http: httpClient,
		tel:  tel,
	}, nil
}

func (c *client) getDocument(ctx context.Context, link string) (*goquery.Document, *resty.Response, error) {
	res, err := c.http.R().
		SetContext(ctx).
		Get(link)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch %s: %w", link, err)
	}
	if res.IsError() {
		return nil, nil, fmt.Errorf("fetch %s: unexpected status %s", link, res.Status())
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		return nil, nil, fmt.Errorf("parse %s: %w", link, err)
	}
	return doc, res, nil
}

func (c *client) getJSONRows(ctx context.Context, link string) ([]Row, error) {
	res, err := c.http.R().
		SetContext(ctx).
		SetHeader("accept", "application/json").
		Get(link)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	if res.IsError() {
		return nil, fmt.Errorf("fetch: unexpected status %s", res.Status())
	}

	decoder := json.NewDecoder(bytes.NewReader(res.Body()))
	decoder.UseNumber()
	var items []map[string]any
	err = decoder.Decode(&items)
	if err != nil {
		c.tel.ReportBroken(report_client_get_json_rows, fmt.Errorf("decode: %w", err), link)
		return nil, fmt.Errorf("decode: %w", err)
	}

	rows := make([]Row, 0, len(items))
	for _, item := range items {
		row := Row{}
		for key, value := range item {
			row[key] = renderValue(value)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// renderValue turns a decoded JSON value into the string form used by Row,
// nested values are kept as compact JSON.
func renderValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(encoded)
	}
}

// waitForTable polls link until it contains a `.table` element or until
// timeout elapses.
func (c *client) waitForTable(ctx context.Context, link string, timeout, interval time.Duration) (*goquery.Selection, error) {
	deadline := time.Now().Add(timeout)
	attempts := 0

	for {
		attempts++
		doc, _, err := c.getDocument(ctx, link)
		if err != nil {
			return nil, err
		}
		table := doc.Find(".table").First()
		if table.Length() > 0 {
			return table, nil
		}

		if time.Now().Add(interval).After(deadline) {
			c.tel.ReportWarning(report_client_wait_for_table, link, attempts)
			return nil, fmt.Errorf(
				"%w: no .table on %s after %d attempts, ensure that the page layout matches what the scraper expects",
				ErrElementNotFound, link, attempts,
			)
		}
		c.tel.ReportDebug(report_client_wait_for_table, link, attempts)

		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}
