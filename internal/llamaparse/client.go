// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package llamaparse is a client for the LlamaParse document parsing service.
//
// A parse is a three step job: upload the file, poll the job until it leaves
// PENDING, then fetch the result in the requested representation. Parser
// wraps the client as an eino document parser so it can sit in a reader's
// extension dispatch table.
package llamaparse

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pdiddy/docparse/internal/credential"
	"github.com/pdiddy/docparse/internal/httputil"
	"github.com/pdiddy/docparse/pkg/types"
)

const (
	// DefaultBaseURL is the hosted service root.
	DefaultBaseURL = "https://api.cloud.llamaindex.ai"

	defaultTimeout       = 60 * time.Second
	defaultCheckInterval = 1 * time.Second
	defaultMaxTimeout    = 2000 * time.Second
	defaultUserAgent     = "docparse/0.1"

	uploadPath = "/api/parsing/upload"
	jobPath    = "/api/parsing/job/"

	// maxErrorBody caps how much of a failed response body ends up in an error.
	maxErrorBody = 512
)

// JobStatus is the state of a parsing job as reported by the service.
type JobStatus string

const (
	StatusPending  JobStatus = "PENDING"
	StatusSuccess  JobStatus = "SUCCESS"
	StatusError    JobStatus = "ERROR"
	StatusCanceled JobStatus = "CANCELED"
)

// supportedExtensions lists the file types the service accepts.
var supportedExtensions = map[types.Extension]bool{
	".pdf": true, ".doc": true, ".docx": true, ".docm": true, ".dot": true,
	".dotx": true, ".dotm": true, ".rtf": true, ".wps": true, ".wpd": true,
	".sxw": true, ".stw": true, ".sxg": true, ".pages": true, ".mw": true,
	".mcw": true, ".uot": true, ".uof": true, ".uos": true, ".uop": true,
	".ppt": true, ".pptx": true, ".pot": true, ".pptm": true, ".potx": true,
	".potm": true, ".key": true, ".odp": true, ".odg": true, ".otp": true,
	".fopd": true, ".sxi": true, ".sti": true, ".epub": true, ".html": true,
	".htm": true,
}

// Supported reports whether the service accepts files with extension ext.
func Supported(ext types.Extension) bool {
	return supportedExtensions[ext]
}

// JobMetadata is the accounting block attached to every result.
type JobMetadata struct {
	CreditsUsed     float64 `json:"credits_used" yaml:"credits_used"`
	JobCreditsUsage float64 `json:"job_credits_usage" yaml:"job_credits_usage"`
	JobPages        int     `json:"job_pages" yaml:"job_pages"`
	JobIsCacheHit   bool    `json:"job_is_cache_hit" yaml:"job_is_cache_hit"`
}

// Result is the parsed content of one job.
type Result struct {
	Content  string
	Metadata JobMetadata
}

type jobResponse struct {
	ID     string    `json:"id"`
	Status JobStatus `json:"status"`
}

type resultResponse struct {
	Markdown    string      `json:"markdown"`
	Text        string      `json:"text"`
	JobMetadata JobMetadata `json:"job_metadata"`
}

// Client talks to the parsing service.
type Client struct {
	http          *http.Client
	baseURL       string
	apiKey        credential.Credential
	checkInterval time.Duration
	maxTimeout    time.Duration
	maxRetries    int
	log           io.Writer
}

// NewClient returns a client authorized by key. Zero values in cfg select the
// defaults. Progress and retry notices are written to log, which may be nil.
func NewClient(key credential.Credential, cfg types.ServiceConfig, log io.Writer) (*Client, error) {
	if key == "" {
		return nil, fmt.Errorf("%w: the API key is required", types.ErrConfiguration)
	}
	if log == nil {
		log = io.Discard
	}

	c := &Client{
		http:          &http.Client{Timeout: cfg.Timeout},
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:        key,
		checkInterval: cfg.CheckInterval,
		maxTimeout:    cfg.MaxTimeout,
		maxRetries:    cfg.MaxRetries,
		log:           log,
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.http.Timeout <= 0 {
		c.http.Timeout = defaultTimeout
	}
	if c.checkInterval <= 0 {
		c.checkInterval = defaultCheckInterval
	}
	if c.maxTimeout <= 0 {
		c.maxTimeout = defaultMaxTimeout
	}
	return c, nil
}

// Upload creates a parsing job for the file content read from r. name is
// used for the multipart filename and to pick a content type.
func (c *Client) Upload(ctx context.Context, name string, r io.Reader, opts types.ParseOptions) (string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	contentType := mime.TypeByExtension(filepath.Ext(name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filepath.Base(name)))
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	if err != nil {
		return "", fmt.Errorf("creating multipart file part: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return "", fmt.Errorf("%w: reading %s: %v", types.ErrInput, name, err)
	}

	language := opts.Language
	if language == "" {
		language = "en"
	}
	fields := [][2]string{
		{"language", language},
		{"parsing_instruction", opts.ParsingInstruction},
		{"skip_diagonal_text", strconv.FormatBool(opts.SkipDiagonalText)},
		{"invalidate_cache", strconv.FormatBool(opts.InvalidateCache)},
		{"do_not_cache", strconv.FormatBool(opts.DoNotCache)},
		{"fast_mode", strconv.FormatBool(opts.FastMode)},
	}
	if opts.PageSeparator != "" {
		fields = append(fields, [2]string{"page_separator", opts.PageSeparator})
	}
	for _, f := range fields {
		if err := mw.WriteField(f[0], f[1]); err != nil {
			return "", fmt.Errorf("writing field %s: %w", f[0], err)
		}
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("closing multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+uploadPath, bytes.NewReader(body.Bytes()))
	if err != nil {
		return "", fmt.Errorf("building upload request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var job jobResponse
	if err := c.doJSON(ctx, req, &job); err != nil {
		return "", fmt.Errorf("uploading %s: %w", name, err)
	}
	if job.ID == "" {
		return "", fmt.Errorf("%w: upload of %s returned no job id", types.ErrExternalService, name)
	}
	return job.ID, nil
}

// Status returns the current state of a job.
func (c *Client) Status(ctx context.Context, jobID string) (JobStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+jobPath+jobID, nil)
	if err != nil {
		return "", fmt.Errorf("building status request: %w", err)
	}

	var job jobResponse
	if err := c.doJSON(ctx, req, &job); err != nil {
		return "", fmt.Errorf("checking job %s: %w", jobID, err)
	}
	return job.Status, nil
}

// Wait polls the job every check interval until it succeeds. It fails when
// the job ends in ERROR or CANCELED, reports a status it does not recognize,
// or when the max timeout elapses.
func (c *Client) Wait(ctx context.Context, jobID string) error {
	deadline := time.Now().Add(c.maxTimeout)
	for {
		status, err := c.Status(ctx, jobID)
		if err != nil {
			return err
		}

		switch status {
		case StatusSuccess:
			return nil
		case StatusError, StatusCanceled:
			return fmt.Errorf("%w: job %s finished with status %s", types.ErrExternalService, jobID, status)
		case StatusPending:
		default:
			return fmt.Errorf("%w: job %s reported unknown status %q", types.ErrExternalService, jobID, status)
		}

		if time.Now().After(deadline) {
			return fmt.Errorf("%w: job %s did not finish within %v", types.ErrExternalService, jobID, c.maxTimeout)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.checkInterval):
		}
	}
}

// Result fetches the output of a finished job in representation rt.
func (c *Client) Result(ctx context.Context, jobID string, rt types.ResultType) (*Result, error) {
	url := c.baseURL + jobPath + jobID + "/result/" + string(rt)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building result request: %w", err)
	}

	var resp resultResponse
	if err := c.doJSON(ctx, req, &resp); err != nil {
		return nil, fmt.Errorf("fetching %s result for job %s: %w", rt, jobID, err)
	}

	res := &Result{Metadata: resp.JobMetadata}
	switch rt {
	case types.ResultText:
		res.Content = resp.Text
	default:
		res.Content = resp.Markdown
	}
	return res, nil
}

// doJSON sends req with credentials, retrying on 429, and decodes a 2xx
// JSON body into v. Other statuses become ErrExternalService.
func (c *Client) doJSON(ctx context.Context, req *http.Request, v any) error {
	req.Header.Set("Authorization", "Bearer "+string(c.apiKey))
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", defaultUserAgent)

	resp, err := httputil.DoWithRetry(ctx, c.http, req, c.maxRetries, c.log)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %v", types.ErrExternalService, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("%w: HTTP %d: %s", types.ErrExternalService, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: decoding response: %v", types.ErrExternalService, err)
	}
	return nil
}
