package cli

import (
	"bufio"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/giellatekno/fstq-go/adapters/sqlite"
	"github.com/giellatekno/fstq-go/core/engine"
	"github.com/giellatekno/fstq-go/core/lookup"
	"github.com/giellatekno/fstq-go/core/transform"
)

// LookupOptions holds flags for the lookup command.
type LookupOptions struct {
	*RootOptions
	QueueSize int
	Timings   bool
	KeepFlags bool
}

// NewLookupCommand creates the lookup command.
func NewLookupCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LookupOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "lookup <lexicon.db>",
		Short: "Look up words from stdin against a lexicon",
		Long: `Read words from stdin, one per line, and print their analyses.

Example:
  echo viessu | fstq lookup sme.db
  fstq lookup --timings sme.db < wordlist.txt`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLookup(opts, args[0], cmd)
		},
	}

	cmd.Flags().IntVar(&opts.QueueSize, "queue-size", 64, "capacity of the lookup queue")
	cmd.Flags().BoolVar(&opts.Timings, "timings", false, "print a timing breakdown per lookup")
	cmd.Flags().BoolVar(&opts.KeepFlags, "keep-flags", false, "keep @...@ flag diacritics in analyses")

	return cmd
}

func runLookup(opts *LookupOptions, path string, cmd *cobra.Command) error {
	loadStart := time.Now()
	stream, err := sqlite.Open(path)
	if err != nil {
		return err
	}
	eng, err := engine.One(stream)
	if err != nil {
		_ = stream.Close()
		return err
	}
	_ = stream.Close()
	slog.Info("lexicon loaded", "path", path, "took", time.Since(loadStart))

	c, err := lookup.Start(eng, lookup.Options{QueueSize: opts.QueueSize})
	if err != nil {
		_ = eng.Close()
		return err
	}

	out := cmd.OutOrStdout()
	scanner := bufio.NewScanner(cmd.InOrStdin())
	for scanner.Scan() {
		word := scanner.Text()
		if word == "" {
			continue
		}

		res, err := c.Lookup(cmd.Context(), word)
		if err != nil {
			return err
		}

		if len(res.Results) == 0 {
			fmt.Fprintf(out, "%s\t<not found>\n", word)
		}
		for _, r := range res.Results {
			analysis := r.Output
			if !opts.KeepFlags {
				analysis = transform.StripFlags(analysis)
			}
			fmt.Fprintf(out, "%s\t%s\t%g\n", word, analysis, r.Weight)
		}
		if opts.Timings {
			fmt.Fprintf(out, "# entry=%s queue=%s lookup=%s total=%s\n",
				res.EntryWait, res.QueueWait, res.LookupDuration, res.TotalDuration)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read stdin: %w", err)
	}

	eng2, err := c.Stop(cmd.Context())
	if err != nil {
		return err
	}
	return eng2.Close()
}
