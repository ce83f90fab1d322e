// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"context"
	"fmt"
	"io"

	"github.com/cloudwego/eino-ext/components/document/parser/pdf"
	"github.com/cloudwego/eino/components/document/parser"
	"github.com/cloudwego/eino/schema"

	"github.com/pdiddy/docparse/pkg/types"
)

var _ parser.Parser = (*LocalPDFParser)(nil)

// LocalPDFParser extracts the embedded text layer of a PDF without any
// network call. It only produces plain text.
type LocalPDFParser struct {
	pdf         *pdf.PDFParser
	splitByPage bool
}

// NewLocalPDFParser returns a text extractor. With splitByPage each page
// becomes its own document.
func NewLocalPDFParser(ctx context.Context, splitByPage bool) (*LocalPDFParser, error) {
	p, err := pdf.NewPDFParser(ctx, &pdf.Config{ToPages: splitByPage})
	if err != nil {
		return nil, fmt.Errorf("creating local pdf parser: %w", err)
	}
	return &LocalPDFParser{pdf: p, splitByPage: splitByPage}, nil
}

// Parse extracts text from the PDF read from reader.
func (l *LocalPDFParser) Parse(ctx context.Context, reader io.Reader, opts ...parser.Option) ([]*schema.Document, error) {
	o := parser.GetCommonOptions(&parser.Options{}, opts...)

	docs, err := l.pdf.Parse(ctx, reader, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: extracting text from %s: %v", types.ErrInput, o.URI, err)
	}

	for i, doc := range docs {
		doc.MetaData = withMeta(doc.MetaData, types.MetaResultType, string(types.ResultText))
		if l.splitByPage {
			doc.MetaData[types.MetaPage] = i + 1
		}
	}
	return docs, nil
}
