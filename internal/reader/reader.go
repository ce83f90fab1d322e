// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package reader loads local files into documents. Each file is routed by
// extension through an explicit dispatch table to the parser that handles it.
package reader

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cloudwego/eino-ext/components/document/loader/file"
	"github.com/cloudwego/eino/components/document"
	"github.com/cloudwego/eino/components/document/parser"
	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"

	"github.com/pdiddy/docparse/pkg/types"
)

// pdfMagic must appear within the first pdfHeaderWindow bytes of a PDF.
const (
	pdfMagic        = "%PDF-"
	pdfHeaderWindow = 1024
)

// Table maps each handled extension to the parser responsible for it.
type Table map[types.Extension]parser.Parser

// Lookup returns the parser for path's extension, or types.ErrInput when the
// extension is not in the table.
func (t Table) Lookup(path string) (parser.Parser, error) {
	ext := types.ExtensionOf(path)
	if p, ok := t[ext]; ok && p != nil {
		return p, nil
	}
	if ext == "" {
		return nil, fmt.Errorf("%w: %s has no file extension", types.ErrInput, path)
	}
	return nil, fmt.Errorf("%w: unsupported file type %q for %s (handled: %s)",
		types.ErrInput, ext, path, t.String())
}

// Extensions returns the handled extensions in sorted order.
func (t Table) Extensions() []types.Extension {
	exts := make([]types.Extension, 0, len(t))
	for ext := range t {
		exts = append(exts, ext)
	}
	sort.Slice(exts, func(i, j int) bool { return exts[i] < exts[j] })
	return exts
}

func (t Table) String() string {
	exts := t.Extensions()
	s := make([]string, len(exts))
	for i, e := range exts {
		s[i] = string(e)
	}
	return strings.Join(s, ", ")
}

// dispatcher is the parser handed to the file loader. It forwards to the
// table entry for the URI's extension.
type dispatcher struct {
	table Table
	// err keeps the parser's own error so sentinel classes survive however
	// the loader chooses to wrap it.
	err error
}

func (d *dispatcher) Parse(ctx context.Context, r io.Reader, opts ...parser.Option) ([]*schema.Document, error) {
	o := parser.GetCommonOptions(&parser.Options{}, opts...)
	p, err := d.table.Lookup(o.URI)
	if err != nil {
		d.err = err
		return nil, err
	}
	docs, err := p.Parse(ctx, r, opts...)
	if err != nil {
		d.err = err
		return nil, err
	}
	return docs, nil
}

// Reader resolves input paths and loads them through a dispatch table.
type Reader struct {
	table  Table
	disp   *dispatcher
	loader document.Loader
}

// New builds a reader over table.
func New(ctx context.Context, table Table) (*Reader, error) {
	if len(table) == 0 {
		return nil, fmt.Errorf("%w: dispatch table is empty", types.ErrConfiguration)
	}
	disp := &dispatcher{table: table}
	loader, err := file.NewFileLoader(ctx, &file.FileLoaderConfig{Parser: disp})
	if err != nil {
		return nil, fmt.Errorf("creating file loader: %w", err)
	}
	return &Reader{table: table, disp: disp, loader: loader}, nil
}

// Files validates the explicitly named paths and expands dir into the
// files it contains. Explicit paths must exist, be regular files, and have a
// handled extension; PDFs must carry a PDF header. Files in dir with an
// unhandled extension or a leading dot are skipped. The result keeps explicit
// paths first, then directory entries in lexical order, without duplicates.
func (r *Reader) Files(paths []string, dir string, recursive bool) ([]string, error) {
	var files []string
	seen := make(map[string]bool)
	add := func(p string) {
		key := filepath.Clean(p)
		if !seen[key] {
			seen[key] = true
			files = append(files, p)
		}
	}

	for _, p := range paths {
		if err := r.checkFile(p); err != nil {
			return nil, err
		}
		add(p)
	}

	if dir != "" {
		found, err := r.walk(dir, recursive)
		if err != nil {
			return nil, err
		}
		for _, p := range found {
			add(p)
		}
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no input files (handled: %s)", types.ErrInput, r.table.String())
	}
	return files, nil
}

func (r *Reader) checkFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: file %s does not exist", types.ErrInput, path)
		}
		return fmt.Errorf("%w: %v", types.ErrInput, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s is a directory; use --dir to read a directory", types.ErrInput, path)
	}
	if _, err := r.table.Lookup(path); err != nil {
		return err
	}
	if types.ExtensionOf(path) == types.ExtPDF {
		return checkPDF(path)
	}
	return nil
}

func (r *Reader) walk(dir string, recursive bool) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrInput, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", types.ErrInput, dir)
	}

	var files []string
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && (!recursive || strings.HasPrefix(d.Name(), ".")) {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		if _, ok := r.table[types.ExtensionOf(path)]; ok {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: reading directory %s: %v", types.ErrInput, dir, err)
	}
	sort.Strings(files)
	return files, nil
}

// checkPDF reports types.ErrInput unless path starts with a PDF header.
func checkPDF(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %v", types.ErrInput, err)
	}
	defer f.Close()

	head := make([]byte, pdfHeaderWindow)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return fmt.Errorf("%w: reading %s: %v", types.ErrInput, path, err)
	}
	if !bytes.Contains(head[:n], []byte(pdfMagic)) {
		return fmt.Errorf("%w: %s is not a PDF file", types.ErrInput, path)
	}
	return nil
}

// Load parses files in order and returns all documents. Every document gets
// file metadata and, if the parser left it empty, a random ID. The first
// failing file aborts the run.
func (r *Reader) Load(ctx context.Context, files []string) ([]*schema.Document, error) {
	var docs []*schema.Document
	for _, path := range files {
		loaded, err := r.loadOne(ctx, path)
		if err != nil {
			return nil, err
		}
		docs = append(docs, loaded...)
	}
	return docs, nil
}

func (r *Reader) loadOne(ctx context.Context, path string) ([]*schema.Document, error) {
	r.disp.err = nil
	loaded, err := r.loader.Load(ctx, document.Source{URI: path})
	if err != nil {
		if r.disp.err != nil {
			return nil, fmt.Errorf("loading %s: %w", path, r.disp.err)
		}
		return nil, fmt.Errorf("%w: loading %s: %v", types.ErrInput, path, err)
	}

	meta := fileMeta(path)
	for _, doc := range loaded {
		if doc.ID == "" {
			doc.ID = uuid.NewString()
		}
		if doc.MetaData == nil {
			doc.MetaData = make(map[string]any, len(meta))
		}
		for k, v := range meta {
			doc.MetaData[k] = v
		}
	}
	return loaded, nil
}

func fileMeta(path string) map[string]any {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	meta := map[string]any{
		types.MetaFilePath: abs,
		types.MetaFileName: filepath.Base(path),
	}
	if t := mime.TypeByExtension(filepath.Ext(path)); t != "" {
		meta[types.MetaFileType] = t
	}
	if info, err := os.Stat(path); err == nil {
		meta[types.MetaFileSize] = info.Size()
	}
	return meta
}
