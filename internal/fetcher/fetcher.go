package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"scrapesync-backend/internal/assert"
	"scrapesync-backend/internal/components/telemetry"
	"scrapesync-backend/lib/restyutil"
	"time"
)

const (
	report_fetcher_users        = "fetcher.users"
	report_fetcher_addresses    = "fetcher.addresses"
	report_fetcher_credit_cards = "fetcher.credit-cards"
)

var (
	ErrNotConfigured   = errors.New("source is not configured")
	ErrElementNotFound = errors.New("element with data not found")
	ErrLoginFailed     = errors.New("login failed")
)

const (
	DEFAULT_SIGN_IN_URL = "https://random-data-api.com/developers/sign_in"
	DEFAULT_USERS_URL   = "https://jsonplaceholder.typicode.com/users"
)

// Row is a single record from a remote source, keyed by column name.
type Row map[string]string

type Options struct {
	UserURL       string
	AddressURL    string
	CreditCardURL string

	SignInURL string
	Email     string
	Password  string

	// WaitTimeout bounds how long a page is polled for its data table.
	WaitTimeout time.Duration
	// PollInterval is the delay between two polls of a page.
	PollInterval time.Duration
	// RequestsPerSecond limits the rate of outgoing requests, 0 means 2.
	RequestsPerSecond float64
	// Timeout is applied to every single request, 0 means 30 seconds.
	Timeout time.Duration
	// DisableCloudflareBypass keeps the default transport, used against
	// local servers.
	DisableCloudflareBypass bool

	// DumpOutput receives a copy of every HTTP exchange when set.
	DumpOutput restyutil.InstrumentOutput
}

func (o Options) withDefaults() Options {
	if o.SignInURL == "" {
		o.SignInURL = DEFAULT_SIGN_IN_URL
	}
	if o.WaitTimeout <= 0 {
		o.WaitTimeout = 10 * time.Second
	}
	if o.PollInterval <= 0 {
		o.PollInterval = 500 * time.Millisecond
	}
	if o.RequestsPerSecond <= 0 {
		o.RequestsPerSecond = 2
	}
	if o.Timeout <= 0 {
		o.Timeout = 30 * time.Second
	}
	return o
}

// Fetcher retrieves raw records of the three kinds from their remote
// sources. The two HTML sources share one authenticated session.
type Fetcher struct {
	opts   Options
	client *client
	tel    telemetry.API
}

func New(opts Options, tel telemetry.API) (*Fetcher, error) {
	assert.NotNil(tel)
	tel = telemetry.NewScopedAPI("fetcher", tel)
	opts = opts.withDefaults()

	var hosts []string
	for _, raw := range []string{opts.UserURL, opts.AddressURL, opts.CreditCardURL, opts.SignInURL} {
		if raw == "" {
			continue
		}
		parsed, err := url.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("fetcher: invalid source url %q: %w", raw, err)
		}
		hosts = append(hosts, parsed.Hostname())
	}

	c, err := newClient(opts, hosts, tel)
	if err != nil {
		return nil, fmt.Errorf("fetcher: %w", err)
	}
	return &Fetcher{
		opts:   opts,
		client: c,
		tel:    tel,
	}, nil
}

// Users retrieves the users through a plain JSON GET.
func (f *Fetcher) Users(ctx context.Context) ([]Row, error) {
	if f.opts.UserURL == "" {
		return nil, fmt.Errorf("fetcher: users: %w: link for user data is not configured", ErrNotConfigured)
	}
	rows, err := f.client.getJSONRows(ctx, f.opts.UserURL)
	if err != nil {
		f.tel.ReportBroken(report_fetcher_users, err, f.opts.UserURL)
		return nil, fmt.Errorf("fetcher: users: %w", err)
	}
	f.tel.ReportCount(report_fetcher_users, int64(len(rows)))
	return rows, nil
}

// Addresses signs in when needed and extracts the address table.
func (f *Fetcher) Addresses(ctx context.Context) ([]Row, error) {
	if f.opts.AddressURL == "" {
		return nil, fmt.Errorf("fetcher: addresses: %w: link for addresses data is not configured", ErrNotConfigured)
	}
	rows, err := f.tableData(ctx, f.opts.AddressURL)
	if err != nil {
		f.tel.ReportBroken(report_fetcher_addresses, err, f.opts.AddressURL)
		return nil, fmt.Errorf("fetcher: addresses: %w", err)
	}
	f.tel.ReportCount(report_fetcher_addresses, int64(len(rows)))
	return rows, nil
}

// CreditCards signs in when needed and extracts the credit card table.
func (f *Fetcher) CreditCards(ctx context.Context) ([]Row, error) {
	if f.opts.CreditCardURL == "" {
		return nil, fmt.Errorf("fetcher: credit cards: %w: link for credit card data is not configured", ErrNotConfigured)
	}
	rows, err := f.tableData(ctx, f.opts.CreditCardURL)
	if err != nil {
		f.tel.ReportBroken(report_fetcher_credit_cards, err, f.opts.CreditCardURL)
		return nil, fmt.Errorf("fetcher: credit cards: %w", err)
	}
	f.tel.ReportCount(report_fetcher_credit_cards, int64(len(rows)))
	return rows, nil
}

// sameHost reports whether both urls point to the same host, ports are
// ignored.
func sameHost(a, b string) bool {
	pa, err := url.Parse(a)
	if err != nil {
		return false
	}
	pb, err := url.Parse(b)
	if err != nil {
		return false
	}
	return pa.Hostname() == pb.Hostname()
}

func (f *Fetcher) tableData(ctx context.Context, link string) ([]Row, error) {
	// only pages served by the sign-in host sit behind the login
	if sameHost(link, f.opts.SignInURL) {
		err := f.client.ensureSignedIn(ctx, f.opts.SignInURL, f.opts.Email, f.opts.Password)
		if err != nil {
			return nil, err
		}
	}
	sel, err := f.client.waitForTable(ctx, link, f.opts.WaitTimeout, f.opts.PollInterval)
	if err != nil {
		return nil, err
	}
	return parseTable(sel), nil
}
