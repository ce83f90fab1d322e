package types

import (
	"fmt"
	"strings"
	"time"
)

// ResultType selects the representation the parsing service returns.
type ResultType string

const (
	ResultMarkdown ResultType = "markdown"
	ResultText     ResultType = "text"
)

// ParseResultType normalizes s and checks it against the recognized result
// types. An empty string selects Markdown.
func ParseResultType(s string) (ResultType, error) {
	switch rt := ResultType(strings.ToLower(strings.TrimSpace(s))); rt {
	case "":
		return ResultMarkdown, nil
	case ResultMarkdown, ResultText:
		return rt, nil
	default:
		return "", fmt.Errorf("%w: unsupported result type %q: use markdown or text", ErrConfiguration, s)
	}
}

// Backend identifies the PDF parsing implementation.
type Backend string

const (
	BackendLlamaParse Backend = "llamaparse"
	BackendLocal      Backend = "local"
	BackendMarkitdown Backend = "markitdown"
)

// backendResults lists the result types each backend can produce.
var backendResults = map[Backend][]ResultType{
	BackendLlamaParse: {ResultMarkdown, ResultText},
	BackendLocal:      {ResultText},
	BackendMarkitdown: {ResultMarkdown},
}

// Supports reports whether the backend can produce rt.
func (b Backend) Supports(rt ResultType) bool {
	for _, r := range backendResults[b] {
		if r == rt {
			return true
		}
	}
	return false
}

// NeedsCredential reports whether the backend calls the hosted service.
func (b Backend) NeedsCredential() bool {
	return b == BackendLlamaParse
}

// ParseBackend validates s as a backend name. An empty string selects
// LlamaParse.
func ParseBackend(s string) (Backend, error) {
	switch b := Backend(strings.ToLower(strings.TrimSpace(s))); b {
	case "":
		return BackendLlamaParse, nil
	case BackendLlamaParse, BackendLocal, BackendMarkitdown:
		return b, nil
	default:
		return "", fmt.Errorf("%w: unsupported backend %q: use llamaparse, local, or markitdown", ErrConfiguration, s)
	}
}

// ServiceConfig holds settings for the hosted parsing service.
type ServiceConfig struct {
	// BaseURL is the service root (default https://api.cloud.llamaindex.ai).
	BaseURL string `json:"base_url" yaml:"base_url"`

	// Timeout bounds each individual HTTP request.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// CheckInterval is the delay between job status polls (default 1s).
	CheckInterval time.Duration `json:"check_interval" yaml:"check_interval"`

	// MaxTimeout bounds the total time spent waiting for one job (default 2000s).
	MaxTimeout time.Duration `json:"max_timeout" yaml:"max_timeout"`

	// MaxRetries is the number of retries on HTTP 429 (default 5).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// ParseOptions are the parsing knobs forwarded to the service with each upload.
type ParseOptions struct {
	ResultType ResultType `json:"result_type" yaml:"result_type"`

	// Language is the primary language of the document (default "en").
	Language string `json:"language" yaml:"language"`

	// ParsingInstruction is free-form guidance for the parser.
	ParsingInstruction string `json:"parsing_instruction,omitempty" yaml:"parsing_instruction,omitempty"`

	SkipDiagonalText bool `json:"skip_diagonal_text" yaml:"skip_diagonal_text"`
	InvalidateCache  bool `json:"invalidate_cache" yaml:"invalidate_cache"`
	DoNotCache       bool `json:"do_not_cache" yaml:"do_not_cache"`
	FastMode         bool `json:"fast_mode" yaml:"fast_mode"`

	// SplitByPage returns one document per page instead of one per file.
	SplitByPage bool `json:"split_by_page" yaml:"split_by_page"`

	// PageSeparator is the marker between pages in the service output.
	PageSeparator string `json:"page_separator,omitempty" yaml:"page_separator,omitempty"`
}

// ExtractionRequest describes one extraction run.
type ExtractionRequest struct {
	// Paths are explicitly named input files. Each must exist and have a
	// handled extension.
	Paths []string `json:"paths" yaml:"paths"`

	// Dir, when set, adds every handled file in the directory.
	Dir string `json:"dir,omitempty" yaml:"dir,omitempty"`

	// Recursive descends into subdirectories of Dir.
	Recursive bool `json:"recursive" yaml:"recursive"`

	// Backend selects the PDF parser.
	Backend Backend `json:"backend" yaml:"backend"`

	// APIKey is an explicit credential; empty means resolve from the environment.
	APIKey string `json:"-" yaml:"-"`

	Service ServiceConfig `json:"service" yaml:"service"`
	Parse   ParseOptions  `json:"parse" yaml:"parse"`
}

// OutputFormat selects how documents are rendered on stdout.
type OutputFormat string

const (
	OutputText OutputFormat = "text"
	OutputJSON OutputFormat = "json"
	OutputYAML OutputFormat = "yaml"
)
