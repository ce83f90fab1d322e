// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package output renders parsed documents for the terminal or for other
// programs.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/cloudwego/eino/schema"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/docparse/pkg/types"
)

// Record is the serialized form of one document.
type Record struct {
	ID       string         `json:"id" yaml:"id"`
	Metadata map[string]any `json:"metadata" yaml:"metadata"`
	Content  string         `json:"content" yaml:"content"`
}

// Records converts documents to their serialized form, preserving order.
func Records(docs []*schema.Document) []Record {
	out := make([]Record, len(docs))
	for i, d := range docs {
		meta := d.MetaData
		if meta == nil {
			meta = map[string]any{}
		}
		out[i] = Record{ID: d.ID, Metadata: meta, Content: d.Content}
	}
	return out
}

// ParseFormat validates s as an output format. An empty string selects text.
func ParseFormat(s string) (types.OutputFormat, error) {
	switch f := types.OutputFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return types.OutputText, nil
	case types.OutputText, types.OutputJSON, types.OutputYAML:
		return f, nil
	default:
		return "", fmt.Errorf("%w: unsupported format %q: use text, json, or yaml", types.ErrConfiguration, s)
	}
}

// Write renders docs to w in format.
func Write(w io.Writer, docs []*schema.Document, format types.OutputFormat) error {
	switch format {
	case types.OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(Records(docs))
	case types.OutputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(Records(docs)); err != nil {
			return err
		}
		return enc.Close()
	case types.OutputText, "":
		return writeText(w, docs)
	default:
		return fmt.Errorf("%w: unsupported format %q", types.ErrConfiguration, format)
	}
}

// writeText prints a header per document, its metadata in key order, then
// the content.
func writeText(w io.Writer, docs []*schema.Document) error {
	if len(docs) == 0 {
		_, err := fmt.Fprintln(w, "No documents.")
		return err
	}

	for i, d := range docs {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "Document %d/%d id=%s\n", i+1, len(docs), d.ID)

		keys := make([]string, 0, len(d.MetaData))
		for k := range d.MetaData {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(w, "  %s: %v\n", k, d.MetaData[k])
		}

		fmt.Fprintln(w, strings.Repeat("-", 72))
		if _, err := fmt.Fprintln(w, d.Content); err != nil {
			return err
		}
	}
	return nil
}
