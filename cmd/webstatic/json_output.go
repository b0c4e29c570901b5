package main

import (
	"encoding/json"

	"github.com/spf13/cobra"
)

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

type buildResultJSON struct {
	Bundle     string `json:"bundle"`
	Output     string `json:"output"`
	Written    string `json:"written"`
	Hash       string `json:"hash,omitempty"`
	Bytes      int    `json:"bytes"`
	Gzipped    bool   `json:"gzipped"`
	DurationMS int64  `json:"duration_ms"`
}

type buildSummaryJSON struct {
	RunID     string            `json:"run_id"`
	Manifest  string            `json:"manifest"`
	ElapsedMS int64             `json:"elapsed_ms"`
	Results   []buildResultJSON `json:"results"`
	Error     string            `json:"error,omitempty"`
}

type resourceJSON struct {
	Name    string `json:"name"`
	Kind    string `json:"kind"`
	FSPath  string `json:"fs_path"`
	URLPath string `json:"url_path"`
	URL     string `json:"url,omitempty"`
	HTML    string `json:"html,omitempty"`
}

type manifestEntryJSON struct {
	Path     string `json:"path"`
	Key      string `json:"key"`
	Hash     string `json:"hash"`
	FullHash string `json:"full_hash"`
}

type checkJSON struct {
	Name    string `json:"name"`
	Passed  bool   `json:"passed"`
	Warning bool   `json:"warning,omitempty"`
	Detail  string `json:"detail"`
}
