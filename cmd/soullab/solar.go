package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"soullab/internal/empathy"
)

func newSolarCommand() *cobra.Command {
	var (
		birth   string
		lunar   bool
		leap    bool
		jsonOut bool
	)
	cmd := &cobra.Command{
		Use:   "solar",
		Short: "Convert a lunar birth date to the solar calendar",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if birth == "" {
				return fmt.Errorf("--birth is required")
			}
			parsed, err := parseBirth(birth, "", lunar, leap)
			if err != nil {
				return err
			}
			result := empathy.ToSolarBirth(parsed)
			if jsonOut {
				return printJSON(cmd.OutOrStdout(), result)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, label("solar", fmt.Sprintf("%04d-%02d-%02d", result.Solar.Year, result.Solar.Month, result.Solar.Day)))
			fmt.Fprintln(out, label("converted", result.Converted))
			if result.Note != "" {
				fmt.Fprintln(out, gray(result.Note))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&birth, "birth", "b", "", "birth date YYYY-MM-DD")
	cmd.Flags().BoolVar(&lunar, "lunar", false, "the date is on the lunar calendar")
	cmd.Flags().BoolVar(&leap, "leap", false, "the lunar month is a leap month")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "print JSON")
	return cmd
}
