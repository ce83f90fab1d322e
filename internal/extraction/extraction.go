// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extraction runs one document extraction: resolve the credential,
// build the PDF parser for the selected backend, assemble the extension
// dispatch table, and load the requested files through it.
package extraction

import (
	"context"
	"fmt"
	"io"

	"github.com/cloudwego/eino/components/document/parser"
	"github.com/cloudwego/eino/schema"

	"github.com/pdiddy/docparse/internal/container"
	"github.com/pdiddy/docparse/internal/convert"
	"github.com/pdiddy/docparse/internal/credential"
	"github.com/pdiddy/docparse/internal/llamaparse"
	"github.com/pdiddy/docparse/internal/reader"
	"github.com/pdiddy/docparse/pkg/types"
)

// Runner carries the environment an extraction depends on. The zero value is
// not usable; call New.
type Runner struct {
	// Sources locates the API key. Explicit is overridden by the request's APIKey.
	Sources credential.Sources

	// Log receives progress lines.
	Log io.Writer

	// DetectRuntime finds a container runtime for the markitdown backend.
	DetectRuntime func(ctx context.Context) (container.Runtime, error)
}

// New returns a runner reading credentials from the default sources.
func New(log io.Writer) *Runner {
	if log == nil {
		log = io.Discard
	}
	return &Runner{
		Sources:       credential.DefaultSources(""),
		Log:           log,
		DetectRuntime: container.DetectRuntime,
	}
}

// Run parses every file named by req and returns the documents in input
// order. Errors wrap types.ErrConfiguration, types.ErrInput or
// types.ErrExternalService. A missing credential or input file is reported
// before any network call.
func (r *Runner) Run(ctx context.Context, req types.ExtractionRequest) ([]*schema.Document, error) {
	rt, err := types.ParseResultType(string(req.Parse.ResultType))
	if err != nil {
		return nil, err
	}
	req.Parse.ResultType = rt

	backend, err := types.ParseBackend(string(req.Backend))
	if err != nil {
		return nil, err
	}
	if !backend.Supports(rt) {
		return nil, fmt.Errorf("%w: the %s backend cannot produce %s output", types.ErrConfiguration, backend, rt)
	}

	primary, err := r.pdfParser(ctx, backend, req)
	if err != nil {
		return nil, err
	}

	rd, err := reader.New(ctx, Handlers(primary, backend))
	if err != nil {
		return nil, err
	}

	files, err := rd.Files(req.Paths, req.Dir, req.Recursive)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(r.Log, "parsing %d file(s) with %s backend (%s)\n", len(files), backend, rt)

	return rd.Load(ctx, files)
}

// pdfParser constructs the parser that handles .pdf for backend.
func (r *Runner) pdfParser(ctx context.Context, backend types.Backend, req types.ExtractionRequest) (parser.Parser, error) {
	switch backend {
	case types.BackendLocal:
		return convert.NewLocalPDFParser(ctx, req.Parse.SplitByPage)

	case types.BackendMarkitdown:
		rt, err := r.DetectRuntime(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", types.ErrConfiguration, err)
		}
		return convert.NewMarkitdownParser(ctx, rt)

	default:
		src := r.Sources
		if req.APIKey != "" {
			src.Explicit = req.APIKey
		}
		key, err := credential.Resolve(src)
		if err != nil {
			return nil, err
		}
		client, err := llamaparse.NewClient(key, req.Service, r.Log)
		if err != nil {
			return nil, err
		}
		return llamaparse.NewParser(client, req.Parse)
	}
}

// Handlers returns the dispatch table: .pdf goes to primary, plain text and
// Markdown are read verbatim, and office/HTML files go through docconv.
func Handlers(primary parser.Parser, backend types.Backend) reader.Table {
	table := reader.Table{
		types.ExtPDF:      tagged{primary, string(backend)},
		types.ExtText:     tagged{parser.TextParser{}, "text"},
		types.ExtMarkdown: tagged{parser.TextParser{}, "text"},
	}
	for _, ext := range convert.DocconvExtensions() {
		table[ext] = tagged{convert.DocconvParser{}, "docconv"}
	}
	return table
}

// tagged records which handler produced each document.
type tagged struct {
	parser.Parser
	name string
}

func (t tagged) Parse(ctx context.Context, r io.Reader, opts ...parser.Option) ([]*schema.Document, error) {
	docs, err := t.Parser.Parse(ctx, r, opts...)
	if err != nil {
		return nil, err
	}
	for _, doc := range docs {
		meta := make(map[string]any, len(doc.MetaData)+1)
		for k, v := range doc.MetaData {
			meta[k] = v
		}
		meta[types.MetaBackend] = t.name
		doc.MetaData = meta
	}
	return docs, nil
}

// Run executes req with a default runner.
func Run(ctx context.Context, req types.ExtractionRequest, log io.Writer) ([]*schema.Document, error) {
	return New(log).Run(ctx, req)
}
