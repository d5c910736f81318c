// Package main provides the CLI entry point for pricematch.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ukaji3/pricematch-go/pkg/pricematch"
	"github.com/ukaji3/pricematch-go/pkg/pricematch/logging"
	"github.com/ukaji3/pricematch-go/pkg/pricematch/matcher"
	"github.com/ukaji3/pricematch-go/pkg/pricematch/models"
	"github.com/ukaji3/pricematch-go/pkg/pricematch/output"
)

// errInvalid is returned by validate after the violations have been printed.
var errInvalid = errors.New("configuration is invalid")

type cli struct {
	v          *viper.Viper
	configFile string
	format     output.Format
	rawFormat  string
	logCloser  io.Closer
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	cancel()
	if err != nil {
		if !errors.Is(err, errInvalid) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	c := &cli{v: newViper()}

	root := &cobra.Command{
		Use:   "pricematch",
		Short: "Fill spreadsheet prices from a reference price list",
		Long: `pricematch fuzzy-matches the descriptions of a working spreadsheet against
a reference spreadsheet, writes the matched prices and their source into the
working file, and saves an audit report next to it.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.setup,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&c.configFile, "config", "", "config file (default ./pricematch.{yaml,json,toml})")
	pf.StringVarP(&c.rawFormat, "output", "o", "", "output format: table, json, yaml (default: table on a terminal, json otherwise)")
	pf.String("log-level", "info", "log level: trace, debug, info, warn, error, disabled")
	pf.String("log-format", "auto", "log format: auto, console, json")
	pf.String("log-file", "stderr", "log destination: stderr, stdout, discard, or a file to append to")
	pf.Bool("log-caller", false, "include file:line in log entries")

	pf.String("working-file", "", "working spreadsheet to fill")
	pf.String("working-column", "", "description column of the working file (A-Z)")
	pf.String("working-start", "", "first description row of the working file (e.g. 2 or A2)")
	pf.String("working-end", "", "last description row of the working file")
	pf.String("price-target-column", "", "column of the working file that receives prices (A-Z)")
	pf.String("reference-file", "", "reference spreadsheet supplying prices")
	pf.String("reference-column", "", "description column of the reference file (A-Z)")
	pf.String("reference-start", "", "first description row of the reference file")
	pf.String("reference-end", "", "last description row of the reference file")
	pf.String("price-source-column", "", "price column of the reference file (A-Z)")
	pf.Int("threshold", models.DefaultThreshold, "minimum similarity score to accept a match (1-100)")
	pf.String("scorer", matcher.ScorerRatio, "similarity scorer: ratio, token-sort, jaro-winkler")
	pf.Bool("fold-case", false, "compare descriptions case-insensitively")

	cobra.CheckErr(bindFlags(c.v, pf))

	root.AddCommand(c.runCmd(), c.validateCmd())
	return root
}

func (c *cli) setup(cmd *cobra.Command, _ []string) error {
	loadEnvFiles()
	if err := readConfig(c.v, c.configFile); err != nil {
		return err
	}

	format, err := output.ParseFormat(c.rawFormat)
	if err != nil {
		return err
	}
	c.format = output.DetectFormat(string(format))

	s := loadSettings(c.v)
	logger, closer, err := logging.Configure(&s.Log)
	if err != nil {
		return err
	}
	c.logCloser = closer
	cmd.SetContext(logging.WithLogger(cmd.Context(), &logger))
	return nil
}

// closingLog wraps a RunE so the log set up in setup is released afterwards.
func (c *cli) closingLog(run func(*cobra.Command, []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		defer func() {
			if c.logCloser == nil {
				return
			}
			if cerr := c.logCloser.Close(); err == nil {
				err = cerr
			}
			c.logCloser = nil
		}()
		return run(cmd, args)
	}
}

func (c *cli) runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Match descriptions and write prices into the working file",
		Args:  cobra.NoArgs,
		RunE:  c.closingLog(c.run),
	}
}

func (c *cli) run(cmd *cobra.Command, _ []string) error {
	s := loadSettings(c.v)
	p, err := pricematch.New(s.options())
	if err != nil {
		return err
	}

	out, err := p.Process(cmd.Context(), s.Matching)
	if err != nil {
		return err
	}
	return c.printOutcome(cmd.OutOrStdout(), out)
}

func (c *cli) printOutcome(w io.Writer, out *pricematch.Outcome) error {
	if c.format != output.FormatTable {
		return output.NewFormatter(c.format).Format(w, out)
	}

	f := output.NewFormatter(output.FormatTable)
	if len(out.Results) > 0 {
		if err := f.Format(w, output.Results(out.Results)); err != nil {
			return err
		}
	}
	if err := f.Format(w, out.Statistics); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Report written to %s\n", out.ReportPath)
	return err
}

func (c *cli) validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the configuration and input files without changing anything",
		Args:  cobra.NoArgs,
		RunE:  c.closingLog(c.validate),
	}
}

func (c *cli) validate(cmd *cobra.Command, _ []string) error {
	s := loadSettings(c.v)
	p, err := pricematch.New(s.options())
	if err != nil {
		return err
	}

	res := p.Validate(s.Matching)
	w := cmd.OutOrStdout()

	switch {
	case c.format != output.FormatTable:
		err = output.NewFormatter(c.format).Format(w, res)
	case res.Valid:
		_, err = fmt.Fprintln(w, "configuration is valid")
	default:
		err = output.NewFormatter(output.FormatTable).Format(w, output.Violations(res.Violations))
	}
	if err != nil {
		return err
	}
	if !res.Valid {
		return errInvalid
	}
	return nil
}
