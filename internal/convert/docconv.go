// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"code.sajari.com/docconv"
	"github.com/cloudwego/eino/components/document/parser"
	"github.com/cloudwego/eino/schema"

	"github.com/pdiddy/docparse/pkg/types"
)

// docconvMIME maps the extensions DocconvParser handles to the MIME types
// docconv dispatches on.
var docconvMIME = map[types.Extension]string{
	types.ExtDOCX: "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	types.ExtHTML: "text/html",
	types.ExtHTM:  "text/html",
}

// DocconvExtensions lists the extensions DocconvParser accepts.
func DocconvExtensions() []types.Extension {
	return []types.Extension{types.ExtDOCX, types.ExtHTML, types.ExtHTM}
}

var _ parser.Parser = DocconvParser{}

// DocconvParser extracts plain text from office and HTML documents locally.
type DocconvParser struct{}

// Parse converts the content of reader, choosing the format from the URI's
// extension.
func (DocconvParser) Parse(ctx context.Context, reader io.Reader, opts ...parser.Option) ([]*schema.Document, error) {
	o := parser.GetCommonOptions(&parser.Options{}, opts...)

	mimeType, ok := docconvMIME[types.ExtensionOf(o.URI)]
	if !ok {
		return nil, fmt.Errorf("%w: %s: no local converter for this file type", types.ErrInput, o.URI)
	}

	body, extra, err := convertDocconv(reader, mimeType)
	if err != nil {
		return nil, fmt.Errorf("%w: converting %s: %v", types.ErrInput, o.URI, err)
	}
	if strings.TrimSpace(body) == "" {
		return nil, fmt.Errorf("%w: %s: no text could be extracted", types.ErrInput, o.URI)
	}

	meta := withMeta(o.ExtraMeta, types.MetaResultType, string(types.ResultText))
	for k, v := range extra {
		if _, taken := meta[k]; !taken {
			meta[k] = v
		}
	}
	return []*schema.Document{{Content: body, MetaData: meta}}, nil
}

// convertDocconv extracts text from r. HTML goes straight to the tokenizer,
// since docconv.Convert routes HTML through the external tidy binary first.
func convertDocconv(r io.Reader, mimeType string) (string, map[string]string, error) {
	if mimeType == "text/html" {
		data, err := io.ReadAll(r)
		if err != nil {
			return "", nil, err
		}
		return docconv.HTMLToText(bytes.NewReader(data)), nil, nil
	}

	res, err := docconv.Convert(r, mimeType, false)
	if err != nil {
		return "", nil, err
	}
	return res.Body, res.Meta, nil
}
