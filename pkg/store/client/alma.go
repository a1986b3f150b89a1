package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"iter"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"time"

	"github.com/mitlibraries/ccslips/pkg/models/api"
	"github.com/mitlibraries/ccslips/pkg/models/domain"
	"github.com/mitlibraries/ccslips/pkg/store/client/middleware"
	"github.com/rs/zerolog"
)

const (
	DefaultPageSize          = 100
	DefaultTimeout           = 30 * time.Second
	DefaultRateLimitInterval = 100 * time.Millisecond

	POLinesEndpoint = "acq/po-lines"
	FundsEndpoint   = "acq/funds"

	POLineRecordField = "po_line"
	FundRecordField   = "fund"
)

type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
	// RateLimitInterval is the pause taken after every successful response.
	RateLimitInterval time.Duration
	// Transport defaults to http.DefaultTransport.
	Transport http.RoundTripper
}

// Client talks to the Alma acquisitions API. Calls are strictly sequential:
// every successful response is followed by a fixed pause so the API rate
// limit is never exceeded.
type Client struct {
	baseURL  *url.URL
	headers  http.Header
	http     *http.Client
	interval time.Duration
}

func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("alma base url is required")
	}
	baseURL, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid alma base url %q: %w", cfg.BaseURL, err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	interval := cfg.RateLimitInterval
	if interval <= 0 {
		interval = DefaultRateLimitInterval
	}

	headers := http.Header{}
	headers.Set("Authorization", "apikey "+cfg.APIKey)
	headers.Set("Accept", "application/json")
	headers.Set("Content-Type", "application/json")

	return &Client{
		baseURL: baseURL,
		headers: headers,
		http: &http.Client{
			Timeout:   timeout,
			Transport: middleware.Logger(cfg.Transport),
		},
		interval: interval,
	}, nil
}

// GetPaged walks a paged endpoint with limit/offset parameters and yields
// every record in order. The sequence ends once total_record_count records
// have been yielded, when a page comes back empty, or on the first error.
// Records yielded before an error remain valid.
func (c *Client) GetPaged(
	ctx context.Context,
	endpoint string,
	recordField string,
	params url.Values,
	limit int,
) iter.Seq2[domain.Record, error] {
	return func(yield func(domain.Record, error) bool) {
		if limit <= 0 {
			limit = DefaultPageSize
		}
		query := cloneValues(params)
		logger := zerolog.Ctx(ctx).With().Str("endpoint", endpoint).Logger()

		retrieved := 0
		for offset := 0; ; offset += limit {
			query.Set("limit", strconv.Itoa(limit))
			query.Set("offset", strconv.Itoa(offset))

			page, err := c.getPage(ctx, endpoint, recordField, query)
			if err != nil {
				yield(nil, err)
				return
			}

			for _, record := range page.Records {
				if !yield(record, nil) {
					return
				}
			}

			retrieved += len(page.Records)
			logger.Debug().
				Int("offset", offset).
				Int("retrieved", retrieved).
				Int("total", page.TotalRecordCount).
				Msg("page retrieved")

			if retrieved >= page.TotalRecordCount {
				return
			}
			if len(page.Records) == 0 {
				logger.Warn().
					Int("retrieved", retrieved).
					Int("total", page.TotalRecordCount).
					Msg("empty page before reaching total record count")
				return
			}
		}
	}
}

// Search issues a single query against a search style endpoint. The result
// may hold zero, one or several matches.
func (c *Client) Search(
	ctx context.Context,
	endpoint string,
	recordField string,
	params url.Values,
) (*api.Page, error) {
	return c.getPage(ctx, endpoint, recordField, params)
}

// GetBriefPOLines lists active PO lines, optionally filtered by acquisition
// method. Brief records lack most of the PO line data.
func (c *Client) GetBriefPOLines(ctx context.Context, acquisitionMethod string) iter.Seq2[domain.Record, error] {
	params := url.Values{}
	params.Set("status", "ACTIVE")
	if acquisitionMethod != "" {
		params.Set("acquisition_method", acquisitionMethod)
	}
	return c.GetPaged(ctx, POLinesEndpoint, POLineRecordField, params, DefaultPageSize)
}

func (c *Client) GetFullPOLine(ctx context.Context, id string) (domain.Record, error) {
	body, err := c.get(ctx, POLinesEndpoint+"/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}
	record, err := domain.DecodeRecord(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to decode PO line %s: %w", id, err)
	}
	return record, nil
}

// GetFullPOLines yields full PO line records in brief listing order. When
// date is set only lines whose created_date is exactly date+"Z" are fetched.
func (c *Client) GetFullPOLines(
	ctx context.Context,
	acquisitionMethod string,
	date string,
) iter.Seq2[domain.Record, error] {
	return func(yield func(domain.Record, error) bool) {
		for line, err := range c.GetBriefPOLines(ctx, acquisitionMethod) {
			if err != nil {
				yield(nil, err)
				return
			}
			if date != "" {
				if created, _ := line.String("created_date"); created != date+"Z" {
					continue
				}
			}

			number, ok := line.String("number")
			if !ok {
				yield(nil, fmt.Errorf("brief PO line has no number"))
				return
			}
			full, err := c.GetFullPOLine(ctx, number)
			if !yield(full, err) || err != nil {
				return
			}
		}
	}
}

// GetFundByCode searches funds by code. Alma only supports a search query
// here, so the result is a page that in practice holds a single fund.
func (c *Client) GetFundByCode(ctx context.Context, code string) (*api.Page, error) {
	params := url.Values{}
	params.Set("q", "fund_code~"+code)
	params.Set("view", "full")
	return c.Search(ctx, FundsEndpoint, FundRecordField, params)
}

func (c *Client) getPage(
	ctx context.Context,
	endpoint string,
	recordField string,
	params url.Values,
) (*api.Page, error) {
	body, err := c.get(ctx, endpoint, params)
	if err != nil {
		return nil, err
	}
	page, err := api.DecodePage(bytes.NewReader(body), recordField)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s response: %w", endpoint, err)
	}
	return page, nil
}

func (c *Client) get(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	logger := zerolog.Ctx(ctx)

	u := c.baseURL.JoinPath(endpoint)
	if len(params) > 0 {
		u.RawQuery = params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request for %s: %w", endpoint, err)
	}
	req.Header = c.headers.Clone()

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call %s: %w", endpoint, err)
	}
	defer func(body io.ReadCloser) {
		if err := body.Close(); err != nil {
			logger.Warn().Err(err).Msg("failed to close response body")
		}
	}(resp.Body)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s response: %w", endpoint, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newStatusError(req, resp.StatusCode, body)
	}

	if err := c.pause(ctx); err != nil {
		return nil, err
	}
	return body, nil
}

func (c *Client) pause(ctx context.Context) error {
	timer := time.NewTimer(c.interval)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func cloneValues(values url.Values) url.Values {
	out := make(url.Values, len(values))
	for k, v := range values {
		out[k] = slices.Clone(v)
	}
	return out
}
