// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/docparse/internal/credential"
	"github.com/pdiddy/docparse/internal/output"
	"github.com/pdiddy/docparse/pkg/types"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "docparse dev\n", out)
}

// newService starts a stub parsing service that finishes every job at once.
func newService(t *testing.T) string {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodPost:
			_, _ = w.Write([]byte(`{"id":"job-1"}`))
		case r.URL.Path == "/api/parsing/job/job-1":
			_, _ = w.Write([]byte(`{"id":"job-1","status":"SUCCESS"}`))
		default:
			_, _ = w.Write([]byte(`{"markdown":"# Heading\n\nBody","job_metadata":{"job_pages":1}}`))
		}
	}))
	t.Cleanup(ts.Close)
	return ts.URL
}

func writePDF(t *testing.T) string {
	t.Helper()
	pdf := filepath.Join(t.TempDir(), "paper.pdf")
	require.NoError(t, os.WriteFile(pdf, []byte("%PDF-1.4"), 0o644))
	return pdf
}

func TestParseCommand_JSON(t *testing.T) {
	url := newService(t)
	t.Setenv(credential.EnvVar, "llx-cli-test")

	out, errOut, err := execute(t, "parse", "--base-url", url, "--check-interval", "1ms", "--format", "json", "--quiet", writePDF(t))
	require.NoError(t, err)
	assert.Empty(t, errOut)

	var records []output.Record
	require.NoError(t, json.Unmarshal([]byte(out), &records))
	require.Len(t, records, 1)
	assert.Equal(t, "# Heading\n\nBody", records[0].Content)
	assert.Equal(t, "paper.pdf", records[0].Metadata[types.MetaFileName])
}

func TestParseCommand_ProgressOnStderr(t *testing.T) {
	url := newService(t)
	t.Setenv(credential.EnvVar, "llx-cli-test")

	out, errOut, err := execute(t, "parse", "--base-url", url, "--check-interval", "1ms", "--format", "text", "--quiet=false", writePDF(t))
	require.NoError(t, err)
	assert.Contains(t, errOut, "Started parsing the file under job_id job-1")
	assert.NotContains(t, out, "Started parsing")
	assert.Contains(t, out, "# Heading")
}

func TestParseCommand_NoInput(t *testing.T) {
	_, _, err := execute(t, "parse")
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrInput)
}
