package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"soullab/internal/empathy"
)

func newCorpusCommand(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "corpus",
		Short: "Inspect the phrase corpus",
	}
	var strict bool
	check := &cobra.Command{
		Use:   "check",
		Short: "Validate the corpus and report coverage gaps",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var (
				corpus *empathy.Corpus
				err    error
			)
			if path := c.cfg.Engine.CorpusPath; path != "" {
				corpus, err = empathy.LoadCorpusFile(path)
			} else {
				corpus, err = empathy.DefaultCorpus()
			}
			out := cmd.OutOrStdout()
			if err != nil {
				var verr *empathy.ValidationError
				if errors.As(err, &verr) {
					printIssues(cmd, "error", verr.Report.Errors)
				}
				return err
			}

			report := corpus.Report()
			fmt.Fprintln(out, label("parts", report.Parts))
			for _, role := range empathy.Roles {
				fmt.Fprintf(out, "  %-9s %d\n", role, len(corpus.ByRole(role)))
			}
			printIssues(cmd, "warning", report.Warnings)
			if len(report.Warnings) == 0 {
				fmt.Fprintln(out, green("✓ corpus ok"))
			}
			if strict && len(report.Warnings) > 0 {
				return fmt.Errorf("%d coverage warning(s)", len(report.Warnings))
			}
			return nil
		},
	}
	check.Flags().BoolVar(&strict, "strict", false, "treat coverage warnings as errors")
	cmd.AddCommand(check)
	return cmd
}

func printIssues(cmd *cobra.Command, kind string, issues []empathy.ValidationIssue) {
	colorize := yellow
	if kind == "error" {
		colorize = red
	}
	for _, issue := range issues {
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s: %s\n", colorize(kind), issue.ID, issue.Message)
	}
}
