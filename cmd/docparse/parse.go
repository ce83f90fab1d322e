// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/docparse/internal/convert"
	"github.com/pdiddy/docparse/internal/extraction"
	"github.com/pdiddy/docparse/internal/output"
	"github.com/pdiddy/docparse/pkg/types"
)

const (
	defaultTimeout       = 60 * time.Second
	defaultCheckInterval = 1 * time.Second
	defaultMaxTimeout    = 2000 * time.Second
)

var parseCmd = &cobra.Command{
	Use:   "parse [files...]",
	Short: "Parse documents and print the resulting documents",
	Long: `Parse loads each named file (and, with --dir, every handled file in a
directory), routes it by extension to its parser, and prints the documents.

PDFs are parsed by the selected backend:
  llamaparse  the hosted service; markdown or text; needs an API key
  local       embedded text layer only; text
  markitdown  markitdown container image via docker or podman; markdown

A named file that does not exist or has an unhandled extension is an error.`,
	Example: `  docparse parse data/layout-parser-paper.pdf
  docparse parse --result-type text --format json report.pdf
  docparse parse --dir data --recursive --out-dir parsed`,
	RunE: runParse,
}

// flagKeys maps flag names to viper keys so the config file and
// DOCPARSE_* environment variables can set them too.
var flagKeys = map[string]string{
	"result-type":         "result_type",
	"backend":             "backend",
	"format":              "format",
	"language":            "language",
	"parsing-instruction": "parsing_instruction",
	"split-by-page":       "split_by_page",
	"page-separator":      "page_separator",
	"fast-mode":           "fast_mode",
	"skip-diagonal-text":  "skip_diagonal_text",
	"invalidate-cache":    "invalidate_cache",
	"do-not-cache":        "do_not_cache",
	"timeout":             "timeout",
	"check-interval":      "check_interval",
	"max-timeout":         "max_timeout",
	"max-retries":         "max_retries",
	"base-url":            "base_url",
	"out-dir":             "out_dir",
	"force":               "force",
	"quiet":               "quiet",
}

func init() {
	f := parseCmd.Flags()
	f.String("result-type", string(types.ResultMarkdown), "output representation: markdown or text")
	f.String("backend", string(types.BackendLlamaParse), "PDF backend: llamaparse, local, or markitdown")
	f.String("format", string(types.OutputText), "stdout format: text, json, or yaml")
	f.String("dir", "", "also read every handled file in this directory")
	f.Bool("recursive", false, "descend into subdirectories of --dir")
	f.String("language", "en", "primary document language")
	f.String("parsing-instruction", "", "free-form guidance for the parser")
	f.Bool("split-by-page", false, "return one document per page")
	f.String("page-separator", "", "page separator in service output (default \"\\n---\\n\")")
	f.Bool("fast-mode", false, "skip OCR and layout reconstruction on the service")
	f.Bool("skip-diagonal-text", false, "ignore diagonal text")
	f.Bool("invalidate-cache", false, "ignore the service cache for this upload")
	f.Bool("do-not-cache", false, "do not cache this upload on the service")
	f.Duration("timeout", defaultTimeout, "timeout for each HTTP request")
	f.Duration("check-interval", defaultCheckInterval, "delay between job status checks")
	f.Duration("max-timeout", defaultMaxTimeout, "maximum time to wait for one job")
	f.Int("max-retries", 0, "retries on HTTP 429 (0 = default 5)")
	f.String("base-url", "", "service base URL (default https://api.cloud.llamaindex.ai)")
	f.String("out-dir", "", "also save each document as Markdown under this directory")
	f.Bool("force", false, "overwrite existing files in --out-dir")
	f.Bool("quiet", false, "suppress progress output on stderr")

	for flag, key := range flagKeys {
		_ = viper.BindPFlag(key, f.Lookup(flag))
	}

	rootCmd.AddCommand(parseCmd)
}

func runParse(cmd *cobra.Command, args []string) error {
	req, err := parseRequest(cmd, args)
	if err != nil {
		return err
	}
	format, err := output.ParseFormat(viper.GetString("format"))
	if err != nil {
		return err
	}

	log := cmd.ErrOrStderr()
	if viper.GetBool("quiet") {
		log = io.Discard
	}

	docs, err := extraction.Run(cmd.Context(), req, log)
	if err != nil {
		return err
	}

	if err := output.Write(cmd.OutOrStdout(), docs, format); err != nil {
		return fmt.Errorf("writing documents: %w", err)
	}

	if outDir := viper.GetString("out_dir"); outDir != "" {
		result := convert.SaveBatch(docs, outDir, viper.GetBool("force"), log)
		if result.HasFailures() {
			return fmt.Errorf("%d document(s) could not be saved", result.Failed)
		}
	}
	return nil
}

// parseRequest assembles the extraction request from positional args, the
// --dir and --recursive flags, and the viper-bound settings.
func parseRequest(cmd *cobra.Command, args []string) (types.ExtractionRequest, error) {
	dir, _ := cmd.Flags().GetString("dir")
	recursive, _ := cmd.Flags().GetBool("recursive")
	if len(args) == 0 && dir == "" {
		return types.ExtractionRequest{}, fmt.Errorf("%w: provide one or more files, or --dir", types.ErrInput)
	}

	rt, err := types.ParseResultType(viper.GetString("result_type"))
	if err != nil {
		return types.ExtractionRequest{}, err
	}
	backend, err := types.ParseBackend(viper.GetString("backend"))
	if err != nil {
		return types.ExtractionRequest{}, err
	}

	return types.ExtractionRequest{
		Paths:     args,
		Dir:       dir,
		Recursive: recursive,
		Backend:   backend,
		APIKey:    viper.GetString("api_key"),
		Service: types.ServiceConfig{
			BaseURL:       viper.GetString("base_url"),
			Timeout:       viper.GetDuration("timeout"),
			CheckInterval: viper.GetDuration("check_interval"),
			MaxTimeout:    viper.GetDuration("max_timeout"),
			MaxRetries:    viper.GetInt("max_retries"),
		},
		Parse: types.ParseOptions{
			ResultType:         rt,
			Language:           viper.GetString("language"),
			ParsingInstruction: viper.GetString("parsing_instruction"),
			SkipDiagonalText:   viper.GetBool("skip_diagonal_text"),
			InvalidateCache:    viper.GetBool("invalidate_cache"),
			DoNotCache:         viper.GetBool("do_not_cache"),
			FastMode:           viper.GetBool("fast_mode"),
			SplitByPage:        viper.GetBool("split_by_page"),
			PageSeparator:      viper.GetString("page_separator"),
		},
	}, nil
}
