// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llamaparse

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/cloudwego/eino/components/document/parser"
	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"

	"github.com/pdiddy/docparse/pkg/types"
)

// DefaultPageSeparator is the marker the service places between pages.
const DefaultPageSeparator = "\n---\n"

var _ parser.Parser = (*Parser)(nil)

// Parser turns one file into documents by running a parsing job. The
// result type is fixed at construction.
type Parser struct {
	client *Client
	opts   types.ParseOptions
	log    io.Writer
}

// NewParser binds client to a result type and upload options.
func NewParser(client *Client, opts types.ParseOptions) (*Parser, error) {
	rt, err := types.ParseResultType(string(opts.ResultType))
	if err != nil {
		return nil, err
	}
	opts.ResultType = rt
	if opts.PageSeparator == "" {
		opts.PageSeparator = DefaultPageSeparator
	}
	return &Parser{client: client, opts: opts, log: client.log}, nil
}

// ResultType reports the representation this parser produces.
func (p *Parser) ResultType() types.ResultType {
	return p.opts.ResultType
}

// Parse uploads the content of reader, waits for the job and returns its
// result. The parser.WithURI option names the file; parser.WithExtraMeta
// values are copied onto every returned document.
func (p *Parser) Parse(ctx context.Context, reader io.Reader, opts ...parser.Option) ([]*schema.Document, error) {
	o := parser.GetCommonOptions(&parser.Options{}, opts...)

	name := filepath.Base(o.URI)
	if o.URI == "" {
		name = "document.pdf"
	}
	if ext := types.ExtensionOf(name); !Supported(ext) {
		return nil, fmt.Errorf("%w: %s: file type %q is not supported by the parsing service", types.ErrInput, name, ext)
	}

	jobID, err := p.client.Upload(ctx, name, reader, p.opts)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(p.log, "Started parsing the file under job_id %s\n", jobID)

	if err := p.client.Wait(ctx, jobID); err != nil {
		return nil, err
	}

	res, err := p.client.Result(ctx, jobID, p.opts.ResultType)
	if err != nil {
		return nil, err
	}

	pages := []string{res.Content}
	if p.opts.SplitByPage {
		pages = strings.Split(res.Content, p.opts.PageSeparator)
	}

	docs := make([]*schema.Document, 0, len(pages))
	for i, page := range pages {
		meta := make(map[string]any, len(o.ExtraMeta)+4)
		for k, v := range o.ExtraMeta {
			meta[k] = v
		}
		meta[types.MetaJobID] = jobID
		meta[types.MetaResultType] = string(p.opts.ResultType)
		meta["job_pages"] = res.Metadata.JobPages
		meta["job_is_cache_hit"] = res.Metadata.JobIsCacheHit
		if p.opts.SplitByPage {
			meta[types.MetaPage] = i + 1
		}
		docs = append(docs, &schema.Document{
			ID:       uuid.NewString(),
			Content:  page,
			MetaData: meta,
		})
	}
	return docs, nil
}
