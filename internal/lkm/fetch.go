// Copyright 2025 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package lkm

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-logr/logr"
	"github.com/hashicorp/go-retryablehttp"
)

// ContentType selects the Accept header of a Fetch request
// and the validation applied to the response body.
type ContentType string

const (
	// ContentTypeKeySet is a JWKS document holding signing or encryption keys.
	ContentTypeKeySet ContentType = "application/jwks"

	// ContentTypeRevocationSet is a RevocationSet JSON document.
	ContentTypeRevocationSet ContentType = "application/json"

	// ContentTypeEncryptedToken is a JWE compact token.
	ContentTypeEncryptedToken ContentType = "application/jwe"

	// ContentTypeLicense is a license in any of its IO formats.
	// It is also the content type header of JWE tokens carrying a license.
	ContentTypeLicense ContentType = "application/vnd.license-kit.license"
)

// MaxFetchSize bounds the size of a fetched document.
const MaxFetchSize = 4 << 20

type contentTypeSpec struct {
	accept   string
	validate func(body []byte) error
}

var contentTypes = map[ContentType]contentTypeSpec{
	ContentTypeKeySet: {
		accept:   "application/json, " + string(ContentTypeKeySet),
		validate: validJSON("invalid JWKS response"),
	},
	ContentTypeRevocationSet: {
		accept:   string(ContentTypeRevocationSet),
		validate: validJSON("invalid revocation set response"),
	},
	ContentTypeEncryptedToken: {
		accept: "application/jose, " + string(ContentTypeEncryptedToken),
		validate: func(body []byte) error {
			// header.key.iv.ciphertext.tag
			if strings.Count(strings.TrimSpace(string(body)), ".") != 4 {
				return errors.New("invalid JWE response")
			}
			return nil
		},
	},
	ContentTypeLicense: {
		accept: "text/plain, " + string(ContentTypeLicense),
	},
}

func validJSON(msg string) func([]byte) error {
	return func(body []byte) error {
		if !json.Valid(body) {
			return errors.New(msg)
		}
		return nil
	}
}

type fetchOptions struct {
	retries            int
	allowLocalhost     bool
	userAgent          string
	insecureSkipVerify bool
	contentType        ContentType
}

// FetchOption configures a Fetch operation.
type FetchOption func(*fetchOptions)

// FetchOpt builds the options accepted by Fetch.
var FetchOpt fetchOptionBuilder

type fetchOptionBuilder struct{}

// WithContentType sets the expected document type.
func (fetchOptionBuilder) WithContentType(contentType ContentType) FetchOption {
	return func(opts *fetchOptions) {
		opts.contentType = contentType
	}
}

// WithRetries sets how many times a failed request is retried.
func (fetchOptionBuilder) WithRetries(retries int) FetchOption {
	return func(opts *fetchOptions) {
		opts.retries = retries
	}
}

// WithLocalhost allows plain HTTP to loopback addresses.
func (fetchOptionBuilder) WithLocalhost(allow bool) FetchOption {
	return func(opts *fetchOptions) {
		opts.allowLocalhost = allow
	}
}

// WithUserAgent sets the User-Agent header.
func (fetchOptionBuilder) WithUserAgent(userAgent string) FetchOption {
	return func(opts *fetchOptions) {
		opts.userAgent = userAgent
	}
}

// WithInsecureSkipVerify disables TLS certificate verification.
func (fetchOptionBuilder) WithInsecureSkipVerify(skip bool) FetchOption {
	return func(opts *fetchOptions) {
		opts.insecureSkipVerify = skip
	}
}

// Fetch downloads a key set, revocation set, encrypted token or license.
// HTTPS is required except for loopback hosts, and failed requests
// are retried with backoff.
func Fetch(ctx context.Context, rawURL string, opts ...FetchOption) ([]byte, error) {
	options := &fetchOptions{
		retries:        2,
		userAgent:      "license-kit-lkm/1.0",
		allowLocalhost: true,
	}
	for _, opt := range opts {
		opt(options)
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if !strings.EqualFold(u.Scheme, "https") && !(options.allowLocalhost && isLoopback(u.Hostname())) {
		return nil, errors.New("HTTPS scheme is required")
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", options.userAgent)
	spec := contentTypes[options.contentType]
	if spec.accept != "" {
		req.Header.Set("Accept", spec.accept)
	}

	log := logr.FromContextOrDiscard(ctx).WithValues("url", u.Redacted())
	client := newFetchClient(options, log)
	log.V(1).Info("fetching", "contentType", options.contentType)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch failed with status: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxFetchSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	switch {
	case len(body) == 0:
		return nil, errors.New("response body is empty")
	case len(body) > MaxFetchSize:
		return nil, fmt.Errorf("response body exceeds %d bytes", MaxFetchSize)
	}
	if spec.validate != nil {
		if err := spec.validate(body); err != nil {
			return nil, err
		}
	}

	log.V(1).Info("fetched", "bytes", len(body))
	return body, nil
}

func newFetchClient(options *fetchOptions, log logr.Logger) *retryablehttp.Client {
	client := retryablehttp.NewClient()
	client.RetryMax = options.retries
	client.RetryWaitMin = 2 * time.Second
	client.RetryWaitMax = 5 * time.Second
	client.Logger = nil
	client.RequestLogHook = func(_ retryablehttp.Logger, _ *http.Request, attempt int) {
		if attempt > 0 {
			log.V(1).Info("retrying request", "attempt", attempt)
		}
	}
	if options.insecureSkipVerify {
		client.HTTPClient.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}
	return client
}

func isLoopback(host string) bool {
	if strings.EqualFold(host, "localhost") {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
