package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/odvcencio/tree-sitter-gritql/gotreesitter"
	"github.com/odvcencio/tree-sitter-gritql/grammars"
	"github.com/odvcencio/tree-sitter-gritql/internal/config"
)

// CLIToken is a token as printed by the tokens and resume commands.
type CLIToken struct {
	Type      string `json:"type" yaml:"type"`
	Text      string `json:"text" yaml:"text"`
	StartByte uint32 `json:"start_byte" yaml:"start_byte"`
	EndByte   uint32 `json:"end_byte" yaml:"end_byte"`
	Line      uint32 `json:"line" yaml:"line"`
	Col       uint32 `json:"col" yaml:"col"`
	External  bool   `json:"external,omitempty" yaml:"external,omitempty"`
}

// CLIIndexResult summarizes an index run.
type CLIIndexResult struct {
	Path        string `json:"path" yaml:"path"`
	Language    string `json:"language" yaml:"language"`
	Hash        string `json:"hash" yaml:"hash"`
	Tokens      int    `json:"tokens" yaml:"tokens"`
	Checkpoints int    `json:"checkpoints" yaml:"checkpoints"`
	UpToDate    bool   `json:"up_to_date" yaml:"up_to_date"`
}

// CLIResumeResult is the output of the resume command.
type CLIResumeResult struct {
	Path        string     `json:"path" yaml:"path"`
	ResumedFrom uint32     `json:"resumed_from" yaml:"resumed_from"`
	Tokens      []CLIToken `json:"tokens" yaml:"tokens"`
}

func cliTokens(lang *gotreesitter.Language, toks []gotreesitter.Token) []CLIToken {
	external := make(map[gotreesitter.Symbol]bool, len(lang.ExternalSymbols))
	for _, sym := range lang.ExternalSymbols {
		external[sym] = true
	}
	out := make([]CLIToken, len(toks))
	for i, tok := range toks {
		out[i] = CLIToken{
			Type:      lang.SymbolName(tok.Symbol),
			Text:      tok.Text,
			StartByte: tok.StartByte,
			EndByte:   tok.EndByte,
			Line:      tok.StartPoint.Row + 1,
			Col:       tok.StartPoint.Column + 1,
			External:  external[tok.Symbol],
		}
	}
	return out
}

// output writes v in the configured format; text renders through textFn.
func output(w io.Writer, format string, v any, textFn func(io.Writer)) error {
	switch format {
	case config.FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case config.FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	case config.FormatText:
		textFn(w)
		return nil
	}
	return config.CheckFormat(format)
}

// formatTokensText formats tokens as aligned columns.
func formatTokensText(w io.Writer, toks []CLIToken) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "POS\tTYPE\tTEXT")
	for _, t := range toks {
		typ := t.Type
		if t.External {
			typ += "*"
		}
		fmt.Fprintf(tw, "%d:%d\t%s\t%s\n", t.Line, t.Col, typ, strconv.Quote(t.Text))
	}
	tw.Flush()
}

func formatIndexText(w io.Writer, r CLIIndexResult) {
	if r.UpToDate {
		fmt.Fprintf(w, "%s: up to date (%s)\n", r.Path, r.Hash[:12])
		return
	}
	fmt.Fprintf(w, "%s: indexed %d tokens, %d checkpoints (%s, %s)\n",
		r.Path, r.Tokens, r.Checkpoints, r.Language, r.Hash[:12])
}

func formatAuditText(w io.Writer, reports []grammars.ScanSupport) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "LANGUAGE\tBACKEND\tEXTERNAL\tREASON")
	for _, r := range reports {
		external := "-"
		if r.HasExternalScanner {
			external = strconv.Itoa(len(r.ExternalTokens))
			if r.NopExternalScanner {
				external += " (nop)"
			}
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.Name, r.Backend, external, r.Reason)
	}
	tw.Flush()
}
