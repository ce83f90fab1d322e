// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert provides the offline parsing backends (markitdown,
// local PDF text, docconv) and saves parsed documents to disk as Markdown
// files with YAML frontmatter.
package convert

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/docparse/pkg/types"
)

// SaveResult holds the outcome of saving a batch of documents.
type SaveResult struct {
	Written int
	Skipped int
	Failed  int
}

// Total returns the number of documents processed.
func (r SaveResult) Total() int {
	return r.Written + r.Skipped + r.Failed
}

// HasFailures reports whether any document failed to save.
func (r SaveResult) HasFailures() bool {
	return r.Failed > 0
}

// frontmatter is the YAML header written above each saved document.
type frontmatter struct {
	DocumentID string `yaml:"document_id"`
	SourcePath string `yaml:"source_path,omitempty"`
	ResultType string `yaml:"result_type,omitempty"`
	Page       int    `yaml:"page,omitempty"`
	SavedAt    string `yaml:"saved_at"`
}

// SaveDocument writes doc to outDir/name.md. If the file exists and force is
// false, it skips the write and returns WriteSkipped.
func SaveDocument(doc *schema.Document, outDir, name string, force bool, w io.Writer) types.WriteStatus {
	mdPath := filepath.Join(outDir, name+".md")

	if !force {
		if _, err := os.Stat(mdPath); err == nil {
			fmt.Fprintf(w, "skipped: %s (already exists)\n", name)
			return types.WriteSkipped
		}
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		fmt.Fprintf(w, "failed:  %s (%v)\n", name, err)
		return types.WriteFailed
	}

	content, err := addFrontmatter(doc)
	if err != nil {
		fmt.Fprintf(w, "failed:  %s (%v)\n", name, err)
		return types.WriteFailed
	}

	if err := os.WriteFile(mdPath, []byte(content), 0o644); err != nil {
		fmt.Fprintf(w, "failed:  %s (%v)\n", name, err)
		return types.WriteFailed
	}

	fmt.Fprintf(w, "written: %s\n", mdPath)
	return types.WriteDone
}

// SaveBatch saves every document under outDir, printing per-file status to w
// and returning a summary. Names come from the source file name and page
// number; collisions within the batch get a numeric suffix.
func SaveBatch(docs []*schema.Document, outDir string, force bool, w io.Writer) SaveResult {
	var result SaveResult
	used := make(map[string]int)

	for _, doc := range docs {
		name := documentName(doc)
		used[name]++
		if n := used[name]; n > 1 {
			name = fmt.Sprintf("%s-%d", name, n)
		}

		switch SaveDocument(doc, outDir, name, force, w) {
		case types.WriteDone:
			result.Written++
		case types.WriteSkipped:
			result.Skipped++
		case types.WriteFailed:
			result.Failed++
		}
	}

	fmt.Fprintf(w, "\nSave summary: %d written, %d skipped, %d failed (total: %d)\n",
		result.Written, result.Skipped, result.Failed, result.Total())
	return result
}

// documentName derives the output file stem for doc.
func documentName(doc *schema.Document) string {
	name := doc.ID
	if fn, ok := doc.MetaData[types.MetaFileName].(string); ok && fn != "" {
		name = strings.TrimSuffix(fn, filepath.Ext(fn))
	}
	if page, ok := doc.MetaData[types.MetaPage].(int); ok {
		name = fmt.Sprintf("%s-p%d", name, page)
	}
	return name
}

func addFrontmatter(doc *schema.Document) (string, error) {
	fm := frontmatter{
		DocumentID: doc.ID,
		SavedAt:    time.Now().UTC().Format(time.RFC3339),
	}
	fm.SourcePath, _ = doc.MetaData[types.MetaFilePath].(string)
	fm.ResultType, _ = doc.MetaData[types.MetaResultType].(string)
	fm.Page, _ = doc.MetaData[types.MetaPage].(int)

	header, err := yaml.Marshal(fm)
	if err != nil {
		return "", fmt.Errorf("encoding frontmatter: %w", err)
	}

	var b strings.Builder
	b.WriteString("---\n")
	b.Write(header)
	b.WriteString("---\n\n")
	b.WriteString(doc.Content)
	return b.String(), nil
}
