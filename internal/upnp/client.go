package upnp

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/html/charset"
	"golang.org/x/time/rate"

	"nas-media-catalog/internal/metrics"
)

const (
	defaultRequestTimeout = 10 * time.Second
	defaultRateLimit      = 20
	defaultPageSize       = 200
	maxBrowsePages        = 1000
	maxSOAPResponse       = 16 << 20

	browseAction = `"urn:schemas-upnp-org:service:ContentDirectory:1#Browse"`
)

// ClientOptions configures a Client. Zero values select defaults.
type ClientOptions struct {
	HTTPClient *http.Client
	// Timeout applies per request when HTTPClient is nil. Defaults to 10s.
	Timeout time.Duration
	// RateLimit caps Browse requests per second. Defaults to 20.
	RateLimit rate.Limit
	Burst     int
	// PageSize is the RequestedCount of each Browse page. Defaults to 200.
	PageSize int
	Retry    RetryConfig
}

// Client talks to the ContentDirectory service of media servers.
type Client struct {
	httpClient   *http.Client
	streamClient *http.Client
	limiter      *rate.Limiter
	pageSize     int
	retry        RetryConfig
}

// NewClient returns a Client configured by opts.
func NewClient(opts ClientOptions) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultRequestTimeout
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = defaultRateLimit
	}
	if opts.Burst <= 0 {
		opts.Burst = int(opts.RateLimit)
		if opts.Burst < 1 {
			opts.Burst = 1
		}
	}
	if opts.PageSize <= 0 {
		opts.PageSize = defaultPageSize
	}
	if opts.Retry == (RetryConfig{}) {
		opts.Retry = DefaultRetryConfig()
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}

	// Streams outlive any request timeout; only the transport is shared.
	return &Client{
		httpClient:   httpClient,
		streamClient: &http.Client{Transport: httpClient.Transport},
		limiter:      rate.NewLimiter(opts.RateLimit, opts.Burst),
		pageSize:     opts.PageSize,
		retry:        opts.Retry,
	}
}

// SOAPError is a UPnP fault returned by the server.
type SOAPError struct {
	StatusCode  int
	FaultString string
	Code        int
	Description string
}

func (e *SOAPError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("SOAP fault %d: %s (HTTP %d)", e.Code, e.Description, e.StatusCode)
	}
	return fmt.Sprintf("SOAP fault: %s (HTTP %d)", e.FaultString, e.StatusCode)
}

type soapEnvelope struct {
	Body struct {
		Browse *browseResponse `xml:"BrowseResponse"`
		Fault  *soapFault      `xml:"Fault"`
	} `xml:"Body"`
}

type browseResponse struct {
	Result         string `xml:"Result"`
	NumberReturned int    `xml:"NumberReturned"`
	TotalMatches   int    `xml:"TotalMatches"`
	UpdateID       int    `xml:"UpdateID"`
}

type soapFault struct {
	FaultCode   string `xml:"faultcode"`
	FaultString string `xml:"faultstring"`
	Detail      struct {
		UPnPError struct {
			ErrorCode        int    `xml:"errorCode"`
			ErrorDescription string `xml:"errorDescription"`
		} `xml:"UPnPError"`
	} `xml:"detail"`
}

// Browse returns every direct child of objectID, following pagination until
// TotalMatches children have been read.
func (c *Client) Browse(ctx context.Context, server Server, objectID string) (*BrowseResult, error) {
	if server.ContentDirectoryURL == "" {
		return nil, fmt.Errorf("server %q has no ContentDirectory control URL", server.Name)
	}

	result := &BrowseResult{}
	start := 0
	for page := 0; page < maxBrowsePages; page++ {
		resp, err := c.browsePage(ctx, server.ContentDirectoryURL, objectID, start)
		if err != nil {
			return nil, fmt.Errorf("browse %q: %w", objectID, err)
		}

		returned := resp.NumberReturned
		if strings.TrimSpace(resp.Result) != "" {
			containers, items, err := parseDIDL(resp.Result)
			if err != nil {
				return nil, fmt.Errorf("browse %q: %w", objectID, err)
			}
			result.Containers = append(result.Containers, containers...)
			result.Items = append(result.Items, items...)
			if returned == 0 {
				returned = len(containers) + len(items)
			}
		}
		result.TotalMatches = resp.TotalMatches

		start += returned
		if returned == 0 || resp.TotalMatches == 0 || start >= resp.TotalMatches {
			break
		}
	}

	if result.TotalMatches == 0 {
		result.TotalMatches = len(result.Containers) + len(result.Items)
	}
	return result, nil
}

func (c *Client) browsePage(ctx context.Context, controlURL, objectID string, start int) (*browseResponse, error) {
	body := browseRequestBody(objectID, start, c.pageSize)

	var out *browseResponse
	err := withRetry(ctx, "browse", c.retry, func(ctx context.Context) error {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		env, err := c.postSOAP(ctx, controlURL, body)
		if err != nil {
			return err
		}
		if env.Body.Browse == nil {
			return fmt.Errorf("response has no BrowseResponse")
		}
		out = env.Body.Browse
		return nil
	})
	return out, err
}

func (c *Client) postSOAP(ctx context.Context, controlURL string, body []byte) (env soapEnvelope, err error) {
	start := time.Now()
	status := "error"
	defer func() {
		metrics.UPnPRequestsTotal.WithLabelValues("browse", status).Inc()
		metrics.UPnPRequestDuration.WithLabelValues("browse").Observe(time.Since(start).Seconds())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, controlURL, bytes.NewReader(body))
	if err != nil {
		return env, fmt.Errorf("build SOAP request: %w", err)
	}
	req.Header.Set("Content-Type", `text/xml; charset="utf-8"`)
	req.Header.Set("SOAPAction", browseAction)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return env, ctx.Err()
		}
		return env, retryable(fmt.Errorf("SOAP request: %w", err))
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxSOAPResponse))
	if err != nil {
		return env, retryable(fmt.Errorf("read SOAP response: %w", err))
	}

	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.CharsetReader = charset.NewReaderLabel
	decodeErr := dec.Decode(&env)

	if decodeErr == nil && env.Body.Fault != nil {
		f := env.Body.Fault
		return env, &SOAPError{
			StatusCode:  resp.StatusCode,
			FaultString: strings.TrimSpace(f.FaultString),
			Code:        f.Detail.UPnPError.ErrorCode,
			Description: strings.TrimSpace(f.Detail.UPnPError.ErrorDescription),
		}
	}
	if resp.StatusCode >= http.StatusInternalServerError {
		return env, retryable(fmt.Errorf("SOAP request failed with status %d", resp.StatusCode))
	}
	if resp.StatusCode != http.StatusOK {
		return env, fmt.Errorf("SOAP request failed with status %d", resp.StatusCode)
	}
	if decodeErr != nil {
		return env, fmt.Errorf("parse SOAP response: %w", decodeErr)
	}

	status = "success"
	return env, nil
}

func browseRequestBody(objectID string, start, count int) []byte {
	var b bytes.Buffer
	b.WriteString(`<?xml version="1.0" encoding="utf-8"?>`)
	b.WriteString(`<s:Envelope xmlns:s="http://schemas.xmlsoap.org/soap/envelope/" s:encodingStyle="http://schemas.xmlsoap.org/soap/encoding/">`)
	b.WriteString(`<s:Body><u:Browse xmlns:u="` + ContentDirectoryURN + `">`)
	b.WriteString("<ObjectID>")
	_ = xml.EscapeText(&b, []byte(objectID))
	b.WriteString("</ObjectID>")
	b.WriteString("<BrowseFlag>BrowseDirectChildren</BrowseFlag>")
	b.WriteString("<Filter>*</Filter>")
	b.WriteString("<StartingIndex>" + strconv.Itoa(start) + "</StartingIndex>")
	b.WriteString("<RequestedCount>" + strconv.Itoa(count) + "</RequestedCount>")
	b.WriteString("<SortCriteria></SortCriteria>")
	b.WriteString("</u:Browse></s:Body></s:Envelope>")
	return b.Bytes()
}
