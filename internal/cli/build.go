package cli

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/giellatekno/fstq-go/adapters/sqlite"
)

// BuildOptions holds flags for the build command.
type BuildOptions struct {
	*RootOptions
}

// NewBuildCommand creates the build command.
func NewBuildCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BuildOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "build <out.db> <name> [file.tsv...]",
		Short: "Build a lexicon database from TSV word lists",
		Long: `Create (or extend) a lexicon database from tab-separated files with
surface, analysis and an optional weight per line. With no files, stdin
is read.

Example:
  fstq build sme.db sme analyses.tsv
  hfst-expand sme.hfst | fstq build sme.db sme`,
		Args:          cobra.MinimumNArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(opts, args[0], args[1], args[2:], cmd)
		},
	}

	return cmd
}

func runBuild(_ *BuildOptions, outPath, name string, files []string, cmd *cobra.Command) error {
	store, err := sqlite.CreateStore(outPath)
	if err != nil {
		return err
	}
	defer store.Close()

	lexID, err := store.AddLexicon(name)
	if err != nil {
		return err
	}

	var total int
	if len(files) == 0 {
		n, err := loadEntries(store, lexID, cmd.InOrStdin(), "stdin")
		if err != nil {
			return err
		}
		total += n
	}
	for _, f := range files {
		fh, err := os.Open(f)
		if err != nil {
			return fmt.Errorf("open %s: %w", f, err)
		}
		n, err := loadEntries(store, lexID, fh, f)
		_ = fh.Close()
		if err != nil {
			return err
		}
		total += n
	}

	slog.Info("lexicon built", "path", outPath, "name", name, "entries", total)
	return nil
}

func loadEntries(store *sqlite.Store, lexID int64, r io.Reader, source string) (int, error) {
	var entries []sqlite.Entry
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimRight(scanner.Text(), "\r")
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		fields := strings.Split(text, "\t")
		if len(fields) < 2 {
			return 0, fmt.Errorf("%s:%d: expected at least surface and analysis", source, line)
		}
		e := sqlite.Entry{Surface: fields[0], Analysis: fields[1]}
		if len(fields) >= 3 && fields[2] != "" {
			w, err := strconv.ParseFloat(fields[2], 32)
			if err != nil {
				return 0, fmt.Errorf("%s:%d: bad weight %q: %w", source, line, fields[2], err)
			}
			e.Weight = float32(w)
		}
		entries = append(entries, e)
	}
	if err := scanner.Err(); err != nil {
		return 0, fmt.Errorf("read %s: %w", source, err)
	}

	if err := store.AddEntries(lexID, entries); err != nil {
		return 0, err
	}
	return len(entries), nil
}
