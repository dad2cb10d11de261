package main

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/odvcencio/tree-sitter-gritql/gotreesitter"
	"github.com/odvcencio/tree-sitter-gritql/grammars"
	"github.com/odvcencio/tree-sitter-gritql/internal/store"
	"github.com/odvcencio/tree-sitter-gritql/lsp"
	"github.com/odvcencio/tree-sitter-gritql/web"
)

func (c *cli) newTokensCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tokens <file>",
		Short: "Print the token stream of a file",
		Long:  "Scans a file with the external scanner and static lexer and prints every token. External tokens are marked with * in text output.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entry, src, err := c.readSource(args[0])
			if err != nil {
				return err
			}
			d := entry.NewScanDriver(src)
			defer d.Close()
			toks := cliTokens(entry.Language(), d.All())
			return output(c.out, c.cfg.Format, toks, func(w io.Writer) { formatTokensText(w, toks) })
		},
	}
}

func (c *cli) openStore() (*store.Store, error) {
	s, err := store.NewStore(c.cfg.Database)
	if err != nil {
		return nil, err
	}
	if err := s.Migrate(); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func (c *cli) newIndexCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "index <file|dir>",
		Short: "Store resumable scanner checkpoints for a file or directory",
		Long:  "Scans a file, or every file of a registered language under a directory, and stores one checkpoint per token. Unchanged files are skipped unless --force is given.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := filepath.Clean(args[0])
			s, err := c.openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			isDir, err := afero.IsDir(c.fs, path)
			if err != nil {
				return fmt.Errorf("stat %s: %w", path, err)
			}
			if !isDir {
				result, err := c.indexFile(s, path, force)
				if err != nil {
					return err
				}
				return output(c.out, c.cfg.Format, result, func(w io.Writer) { formatIndexText(w, result) })
			}

			files, err := collectSourceFiles(c.fs, path, func(p string) bool {
				_, err := c.detect(p)
				return err == nil
			})
			if err != nil {
				return fmt.Errorf("walk %s: %w", path, err)
			}
			results := make([]CLIIndexResult, 0, len(files))
			for _, f := range files {
				result, err := c.indexFile(s, f.Path, force)
				if err != nil {
					return err
				}
				results = append(results, result)
			}
			return output(c.out, c.cfg.Format, results, func(w io.Writer) {
				for _, r := range results {
					formatIndexText(w, r)
				}
			})
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "reindex even if the file is unchanged")
	return cmd
}

func (c *cli) indexFile(s *store.Store, path string, force bool) (CLIIndexResult, error) {
	entry, src, err := c.readSource(path)
	if err != nil {
		return CLIIndexResult{}, err
	}
	result := CLIIndexResult{Path: path, Language: entry.Name, Hash: store.HashSource(src)}
	stored, err := s.FileHash(path)
	if err != nil {
		return CLIIndexResult{}, err
	}
	if stored == result.Hash && !force {
		log.Infof("%s unchanged, skipping", path)
		result.UpToDate = true
		return result, nil
	}

	d := entry.NewScanDriver(src)
	defer d.Close()
	result.Tokens = len(d.All())
	cps := storeCheckpoints(d.Checkpoints())
	result.Checkpoints = len(cps)
	if err := s.ReplaceCheckpoints(path, entry.Name, result.Hash, cps); err != nil {
		return CLIIndexResult{}, err
	}
	return result, nil
}

func (c *cli) newResumeCmd() *cobra.Command {
	var offset uint32
	cmd := &cobra.Command{
		Use:   "resume <file>",
		Short: "Resume scanning from the nearest stored checkpoint",
		Long:  "Looks up the last checkpoint at or before --offset in the index and prints the tokens scanned from there to the end of the file.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := filepath.Clean(args[0])
			entry, src, err := c.readSource(path)
			if err != nil {
				return err
			}
			s, err := c.openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			stored, err := s.FileHash(path)
			if err != nil {
				return err
			}
			if stored == "" {
				return fmt.Errorf("%s is not indexed; run gritscan index first", path)
			}
			if stored != store.HashSource(src) {
				return fmt.Errorf("%s changed since it was indexed; run gritscan index again", path)
			}
			cp, err := s.NearestCheckpoint(path, offset)
			if err != nil {
				return err
			}

			d := entry.NewScanDriver(src)
			defer d.Close()
			d.Resume(driverCheckpoint(cp))
			result := CLIResumeResult{
				Path:        path,
				ResumedFrom: cp.EndByte,
				Tokens:      cliTokens(entry.Language(), d.All()),
			}
			return output(c.out, c.cfg.Format, result, func(w io.Writer) {
				fmt.Fprintf(w, "resumed at byte %d\n", result.ResumedFrom)
				formatTokensText(w, result.Tokens)
			})
		},
	}
	cmd.Flags().Uint32Var(&offset, "offset", 0, "byte offset to resume at")
	return cmd
}

func (c *cli) newAuditCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "audit",
		Short: "Report tokenizer and external scanner support per language",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reports := grammars.AuditScanSupport()
			return output(c.out, c.cfg.Format, reports, func(w io.Writer) { formatAuditText(w, reports) })
		},
	}
}

func (c *cli) newServeCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the scanner over a WebSocket JSON-RPC endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("addr") {
				addr = c.cfg.Addr
			}
			return web.NewServer(nil).ListenAndServe(cmd.Context(), addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	return cmd
}

func (c *cli) newLSPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lsp",
		Short: "Start the Language Server Protocol server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			detect := func(path string) *grammars.LangEntry {
				entry, err := c.detect(path)
				if err != nil {
					return nil
				}
				return entry
			}
			return lsp.NewServer(version, detect).RunStdio()
		},
	}
}

func storeCheckpoints(cps []gotreesitter.Checkpoint) []store.Checkpoint {
	out := make([]store.Checkpoint, len(cps))
	for i, cp := range cps {
		out[i] = store.Checkpoint{
			Ordinal:      i,
			EndByte:      cp.EndByte,
			EndRow:       cp.EndPoint.Row,
			EndCol:       cp.EndPoint.Column,
			State:        uint16(cp.State),
			ScannerState: cp.Scanner.Data,
		}
	}
	return out
}

func driverCheckpoint(cp store.Checkpoint) gotreesitter.Checkpoint {
	return gotreesitter.Checkpoint{
		EndByte:  cp.EndByte,
		EndPoint: gotreesitter.Point{Row: cp.EndRow, Column: cp.EndCol},
		State:    gotreesitter.StateID(cp.State),
		Scanner:  gotreesitter.ExternalScannerState{Data: cp.ScannerState},
	}
}
