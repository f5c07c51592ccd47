package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"soullab/internal/fortune"
)

func newFortuneCommand(c *cli) *cobra.Command {
	var (
		req     fortune.Request
		birth   string
		lunar   bool
		leap    bool
		jsonOut bool
	)
	cmd := &cobra.Command{
		Use:   "fortune",
		Short: "Evaluate the daily fortune ruleset for one person",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			parsed, err := parseBirth(birth, "", lunar, leap)
			if err != nil {
				return err
			}
			req.Birth = parsed
			components, err := c.build()
			if err != nil {
				return err
			}
			result, err := components.Fortune.Evaluate(req)
			if err != nil {
				return err
			}
			if jsonOut {
				return printJSON(cmd.OutOrStdout(), result)
			}
			printFortune(cmd.OutOrStdout(), result)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVarP(&req.Name, "name", "n", "", "display name")
	f.StringVarP(&birth, "birth", "b", "", "birth date YYYY-MM-DD")
	f.BoolVar(&lunar, "lunar", false, "birth date is on the lunar calendar")
	f.BoolVar(&leap, "leap", false, "lunar birth month is a leap month")
	f.StringVar(&req.Date, "date", "", "fortune date YYYY-MM-DD (default today, KST)")
	f.StringVar(&req.DayPeriod, "day-period", "", "아침, 낮, 저녁 or 밤")
	f.StringSliceVarP(&req.Cards, "cards", "c", nil, "drawn tarot cards, comma separated")
	f.BoolVar(&jsonOut, "json", false, "print JSON")
	return cmd
}

func printFortune(w io.Writer, result fortune.Fortune) {
	fmt.Fprintf(w, "%s %s\n", bold(result.Date), cyan(result.Persona.Zodiac))
	for _, cat := range result.Categories {
		fmt.Fprintf(w, "  %-8s %3d  %s\n", cat.Category, cat.Score, scoreBar(cat.Score))
		if cat.Headline != "" {
			fmt.Fprintf(w, "           %s\n", cat.Headline)
		}
	}
	fmt.Fprintln(w, label("lucky", fmt.Sprintf("%s %d", result.Lucky.Color, result.Lucky.Number)))
}

func scoreBar(score int) string {
	filled := score / 10
	bar := strings.Repeat("█", filled) + strings.Repeat("·", 10-filled)
	switch {
	case score >= 65:
		return green(bar)
	case score >= 45:
		return yellow(bar)
	default:
		return red(bar)
	}
}
