package wordpress

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"pfetracker/lib/htmlutil"
	"pfetracker/lib/restyutil"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	DefaultEndpoint  = "https://pfebooks.com/wp-json/wp/v2/posts"
	DefaultPerPage   = 100
	DefaultUserAgent = "Mozilla/5.0"
	DefaultTimeout   = 30 * time.Second

	// substituted for items that carry no title.rendered field
	PlaceholderTitle = "No Title"
)

// ErrFetchFailed is wrapped by every error FetchAll returns because a page
// could not be retrieved, as opposed to the collection having ended.
var ErrFetchFailed = errors.New("page fetch failed")

type PageError struct {
	Page int
	Err  error
}

func (e *PageError) Error() string {
	return fmt.Sprintf("%s: page %d: %s", ErrFetchFailed, e.Page, e.Err)
}

func (e *PageError) Unwrap() []error {
	return []error{ErrFetchFailed, e.Err}
}

type rendered struct {
	Rendered *string `json:"rendered"`
}

type post struct {
	Title *rendered `json:"title"`
}

// the body WordPress answers with on a 4xx/5xx
type restError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// returned with a 400 once the page index passes the last page
const invalidPageNumber = "rest_post_invalid_page_number"

type ClientOptions struct {
	Endpoint   string
	PerPage    int
	UserAgent  string
	Timeout    time.Duration
	RetryCount int
	// wraps the transport so requests pass cloudflare's browser checks
	CloudflareBypass bool
	// reduce rendered titles to their text content
	PlainTitles bool
	// receives every HTTP exchange while debug logging is on, can be nil
	DumpOutput restyutil.InstrumentOutput
}

type Client struct {
	endpoint    string
	perPage     int
	plainTitles bool
	http        *resty.Client
}

func NewClient(opts ClientOptions) *Client {
	if opts.Endpoint == "" {
		opts.Endpoint = DefaultEndpoint
	}
	if opts.PerPage <= 0 {
		opts.PerPage = DefaultPerPage
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}

	client := resty.New()
	client.SetTimeout(opts.Timeout)
	client.SetHeader("User-Agent", opts.UserAgent)
	client.SetHeader("Accept", "application/json")
	if opts.CloudflareBypass {
		client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	}
	if opts.RetryCount > 0 {
		client.SetRetryCount(opts.RetryCount)
		client.SetRetryWaitTime(500 * time.Millisecond)
		client.SetRetryMaxWaitTime(10 * time.Second)
		client.AddRetryCondition(func(res *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			return res.StatusCode() == http.StatusTooManyRequests ||
				res.StatusCode() >= http.StatusInternalServerError
		})
	}

	c := &Client{
		endpoint:    opts.Endpoint,
		perPage:     opts.PerPage,
		plainTitles: opts.PlainTitles,
		http:        client,
	}
	restyutil.InstrumentClient(client, tracer, opts.DumpOutput)
	return c
}

// Page is one batch of names; an empty page marks the end of the collection.
type Page struct {
	Number int
	Names  []string
}

func (p Page) EndOfData() bool {
	return len(p.Names) == 0
}

func (c *Client) title(p post) string {
	if p.Title == nil || p.Title.Rendered == nil {
		return PlaceholderTitle
	}
	if c.plainTitles {
		return htmlutil.PlainText(*p.Title.Rendered)
	}
	return *p.Title.Rendered
}

// FetchPage retrieves the page with the given 1-based index. A nil error
// with an empty page means there is nothing left to fetch.
func (c *Client) FetchPage(ctx context.Context, number int) (Page, error) {
	ctx, span := tracer.Start(ctx, "FetchPage")
	defer span.End()
	span.SetAttributes(attribute.Int("page", number))

	page := Page{Number: number}

	res, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"per_page": strconv.Itoa(c.perPage),
			"page":     strconv.Itoa(number),
		}).
		Get(c.endpoint)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch")
		return page, err
	}

	if !res.IsSuccess() {
		var body restError
		if json.Unmarshal(res.Body(), &body) == nil && body.Code == invalidPageNumber {
			span.AddEvent("past last page")
			return page, nil
		}
		err := fmt.Errorf("unexpected status %s", res.Status())
		span.SetStatus(codes.Error, err.Error())
		return page, err
	}

	var posts []post
	err = json.Unmarshal(res.Body(), &posts)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to decode posts")
		return page, fmt.Errorf("decode posts: %w", err)
	}

	page.Names = make([]string, 0, len(posts))
	for _, p := range posts {
		page.Names = append(page.Names, c.title(p))
	}
	span.SetAttributes(attribute.Int("items", len(page.Names)))

	return page, nil
}

type Harvest struct {
	Names []string
	// pages that returned items
	Pages int
}

// FetchAll requests pages sequentially from page 1 until one comes back
// empty. If a page fails the names gathered so far are returned along with
// a *PageError, later pages are not requested.
func (c *Client) FetchAll(ctx context.Context) (Harvest, error) {
	ctx, span := tracer.Start(ctx, "FetchAll")
	defer span.End()

	var harvest Harvest
	slog.InfoContext(ctx, "starting harvest", "endpoint", c.endpoint, "per_page", c.perPage)

	for number := 1; ; number++ {
		page, err := c.FetchPage(ctx, number)
		if err != nil {
			failuresCounter.Add(ctx, 1)
			span.SetStatus(codes.Error, "page fetch failed")
			slog.ErrorContext(ctx, "failed to fetch page", "page", number, "err", err)
			return harvest, &PageError{Page: number, Err: err}
		}
		if page.EndOfData() {
			break
		}

		harvest.Names = append(harvest.Names, page.Names...)
		harvest.Pages++
		pagesCounter.Add(ctx, 1)
		itemsCounter.Add(ctx, int64(len(page.Names)))

		slog.InfoContext(ctx, "page scraped", "page", number, "items", len(page.Names), "total", len(harvest.Names))
	}

	span.SetAttributes(attribute.Int("pages", harvest.Pages), attribute.Int("items", len(harvest.Names)))
	slog.InfoContext(ctx, "harvest finished", "pages", harvest.Pages, "items", len(harvest.Names))
	return harvest, nil
}
