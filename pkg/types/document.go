// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for docparse: configuration,
// the extension dispatch keys, document metadata keys, and error classes.
package types

import (
	"path/filepath"
	"strings"
)

// Extension is a lower-case file extension including the leading dot.
type Extension string

const (
	ExtPDF      Extension = ".pdf"
	ExtText     Extension = ".txt"
	ExtMarkdown Extension = ".md"
	ExtDOCX     Extension = ".docx"
	ExtHTML     Extension = ".html"
	ExtHTM      Extension = ".htm"
)

// ExtensionOf returns the normalized extension of path.
func ExtensionOf(path string) Extension {
	return Extension(strings.ToLower(filepath.Ext(path)))
}

// Metadata keys set on every document returned by an extraction run.
const (
	MetaFilePath   = "file_path"
	MetaFileName   = "file_name"
	MetaFileType   = "file_type"
	MetaFileSize   = "file_size"
	MetaResultType = "result_type"
	MetaBackend    = "backend"
	MetaPage       = "page"
	MetaJobID      = "job_id"
)

// WriteStatus indicates what happened when a document was saved to disk.
type WriteStatus string

const (
	WriteSkipped WriteStatus = "skipped"
	WriteDone    WriteStatus = "written"
	WriteFailed  WriteStatus = "failed"
)
