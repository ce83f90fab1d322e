// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/cloudwego/eino/components/document/parser"
	"github.com/cloudwego/eino/schema"

	"github.com/pdiddy/docparse/internal/container"
	"github.com/pdiddy/docparse/pkg/types"
)

const imageMarkitdown = "markitdown:latest"

var _ parser.Parser = (*MarkitdownParser)(nil)

// MarkitdownParser converts documents to Markdown by piping them through the
// markitdown container image. It needs no credential.
type MarkitdownParser struct {
	runtime container.Runtime
}

// NewMarkitdownParser verifies that the markitdown image exists in rt before
// returning a parser that uses it.
func NewMarkitdownParser(ctx context.Context, rt container.Runtime) (*MarkitdownParser, error) {
	if err := rt.ImageExists(ctx, imageMarkitdown); err != nil {
		return nil, fmt.Errorf("%w: markitdown image not available in %s: %v", types.ErrConfiguration, rt.Name(), err)
	}
	return &MarkitdownParser{runtime: rt}, nil
}

// Parse returns a single Markdown document for the content of reader.
func (m *MarkitdownParser) Parse(ctx context.Context, reader io.Reader, opts ...parser.Option) ([]*schema.Document, error) {
	o := parser.GetCommonOptions(&parser.Options{}, opts...)

	var out bytes.Buffer
	if err := m.runtime.Run(ctx, imageMarkitdown, reader, &out); err != nil {
		return nil, fmt.Errorf("%w: converting %s with markitdown: %v", types.ErrExternalService, o.URI, err)
	}
	if out.Len() == 0 {
		return nil, fmt.Errorf("%w: markitdown produced empty output for %s", types.ErrExternalService, o.URI)
	}

	return []*schema.Document{{
		Content:  out.String(),
		MetaData: withMeta(o.ExtraMeta, types.MetaResultType, string(types.ResultMarkdown)),
	}}, nil
}

// withMeta copies base and sets key to value.
func withMeta(base map[string]any, key string, value any) map[string]any {
	meta := make(map[string]any, len(base)+1)
	for k, v := range base {
		meta[k] = v
	}
	meta[key] = value
	return meta
}
