// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package reader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/cloudwego/eino/components/document/parser"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/docparse/pkg/types"
)

// fakeParser records the URIs it sees and echoes file content with a tag.
type fakeParser struct {
	tag  string
	err  error
	uris []string
}

func (f *fakeParser) Parse(_ context.Context, r io.Reader, opts ...parser.Option) ([]*schema.Document, error) {
	o := parser.GetCommonOptions(&parser.Options{}, opts...)
	f.uris = append(f.uris, o.URI)
	if f.err != nil {
		return nil, f.err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return []*schema.Document{{Content: f.tag + ":" + string(data)}}, nil
}

const pdfBody = "%PDF-1.4\nfake body"

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newTestReader(t *testing.T) (*Reader, *fakeParser, *fakeParser) {
	t.Helper()
	pdf := &fakeParser{tag: "pdf"}
	txt := &fakeParser{tag: "txt"}
	r, err := New(context.Background(), Table{types.ExtPDF: pdf, types.ExtText: txt})
	require.NoError(t, err)
	return r, pdf, txt
}

func TestTable_Lookup(t *testing.T) {
	pdf := &fakeParser{tag: "pdf"}
	table := Table{types.ExtPDF: pdf}

	got, err := table.Lookup("papers/Layout.PDF")
	require.NoError(t, err)
	assert.Same(t, pdf, got)

	_, err = table.Lookup("notes.csv")
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrInput)
	assert.Contains(t, err.Error(), ".csv")

	_, err = table.Lookup("Makefile")
	assert.ErrorIs(t, err, types.ErrInput)
}

func TestNew_EmptyTable(t *testing.T) {
	_, err := New(context.Background(), Table{})
	assert.ErrorIs(t, err, types.ErrConfiguration)
}

func TestReader_Files(t *testing.T) {
	dir := t.TempDir()
	paper := writeFile(t, dir, "paper.pdf", pdfBody)
	notes := writeFile(t, dir, "notes.txt", "hello")
	writeFile(t, dir, "table.csv", "a,b")
	writeFile(t, dir, "fake.pdf", "not really a pdf")
	writeFile(t, dir, "sub/deep.txt", "deep")

	tests := []struct {
		name      string
		paths     []string
		dir       string
		recursive bool
		want      []string
		wantErr   string
	}{
		{
			name:  "explicit files",
			paths: []string{paper, notes},
			want:  []string{paper, notes},
		},
		{
			name:    "missing file",
			paths:   []string{filepath.Join(dir, "missing.pdf")},
			wantErr: "does not exist",
		},
		{
			name:    "unhandled extension",
			paths:   []string{filepath.Join(dir, "table.csv")},
			wantErr: "unsupported file type",
		},
		{
			name:    "pdf without header",
			paths:   []string{filepath.Join(dir, "fake.pdf")},
			wantErr: "not a PDF",
		},
		{
			name:    "directory passed as file",
			paths:   []string{dir},
			wantErr: "is a directory",
		},
		{
			name:    "nothing to read",
			wantErr: "no input files",
		},
		{
			name: "directory skips unhandled files",
			dir:  dir,
			want: []string{filepath.Join(dir, "fake.pdf"), notes, paper},
		},
		{
			name:      "recursive directory",
			dir:       dir,
			recursive: true,
			want:      []string{filepath.Join(dir, "fake.pdf"), notes, paper, filepath.Join(dir, "sub", "deep.txt")},
		},
		{
			name:  "explicit and directory entries are deduplicated",
			paths: []string{paper},
			dir:   dir,
			want:  []string{paper, filepath.Join(dir, "fake.pdf"), notes},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _, _ := newTestReader(t)
			got, err := r.Files(tt.paths, tt.dir, tt.recursive)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.ErrorIs(t, err, types.ErrInput)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReader_LoadDispatchesByExtension(t *testing.T) {
	dir := t.TempDir()
	paper := writeFile(t, dir, "paper.pdf", pdfBody)
	notes := writeFile(t, dir, "notes.txt", "hello")

	r, pdf, txt := newTestReader(t)
	docs, err := r.Load(context.Background(), []string{paper, notes})
	require.NoError(t, err)
	require.Len(t, docs, 2)

	assert.Equal(t, "pdf:"+pdfBody, docs[0].Content)
	assert.Equal(t, "txt:hello", docs[1].Content)
	assert.Equal(t, []string{paper}, pdf.uris)
	assert.Equal(t, []string{notes}, txt.uris)

	for i, want := range []string{"paper.pdf", "notes.txt"} {
		doc := docs[i]
		assert.NotEmpty(t, doc.ID)
		assert.Equal(t, want, doc.MetaData[types.MetaFileName])
		assert.True(t, filepath.IsAbs(doc.MetaData[types.MetaFilePath].(string)))
		assert.Contains(t, doc.MetaData, types.MetaFileSize)
	}
	assert.NotEqual(t, docs[0].ID, docs[1].ID)
}

func TestReader_LoadKeepsParserErrorClass(t *testing.T) {
	dir := t.TempDir()
	paper := writeFile(t, dir, "paper.pdf", pdfBody)

	serviceErr := fmt.Errorf("%w: job failed", types.ErrExternalService)
	r, err := New(context.Background(), Table{types.ExtPDF: &fakeParser{err: serviceErr}})
	require.NoError(t, err)

	_, err = r.Load(context.Background(), []string{paper})
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrExternalService)
	assert.Contains(t, err.Error(), "paper.pdf")
}

func TestReader_LoadStopsAtFirstFailure(t *testing.T) {
	dir := t.TempDir()
	first := writeFile(t, dir, "a.pdf", pdfBody)
	second := writeFile(t, dir, "b.txt", "never read")

	txt := &fakeParser{tag: "txt"}
	r, err := New(context.Background(), Table{
		types.ExtPDF:  &fakeParser{err: errors.New("boom")},
		types.ExtText: txt,
	})
	require.NoError(t, err)

	_, err = r.Load(context.Background(), []string{first, second})
	require.Error(t, err)
	assert.Empty(t, txt.uris)
}
