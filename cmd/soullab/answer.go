package main

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"soullab/internal/empathy"
	jsonx "soullab/internal/shared/json"
	"soullab/internal/shared/logging"
	id "soullab/internal/utils/id"
)

type answerOptions struct {
	name        string
	gender      string
	question    string
	birth       string
	birthTime   string
	lunar       bool
	leap        bool
	cards       []string
	baseReading string
	seed        string
	style       string
	weather     string
	location    string
	dayPeriod   string
	jsonOut     bool
	batch       string
	workers     int
}

func newAnswerCommand(c *cli) *cobra.Command {
	opts := &answerOptions{}
	cmd := &cobra.Command{
		Use:   "answer",
		Short: "Build an empathic answer for one question or a JSONL batch",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			components, err := c.build()
			if err != nil {
				return err
			}
			if opts.batch != "" {
				return runBatch(cmd.Context(), components.Engine, components.Logger, opts.batch, cmd.InOrStdin(), cmd.OutOrStdout(), opts.workers)
			}
			in, err := opts.input()
			if err != nil {
				return err
			}
			answer := components.Engine.Answer(in)
			if opts.jsonOut {
				return printJSON(cmd.OutOrStdout(), answer)
			}
			printAnswer(cmd.OutOrStdout(), answer)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.name, "name", "n", "", "display name")
	f.StringVar(&opts.gender, "gender", "", "gender (informational only)")
	f.StringVarP(&opts.question, "question", "q", "", "the question to answer")
	f.StringVarP(&opts.birth, "birth", "b", "", "birth date YYYY-MM-DD")
	f.StringVar(&opts.birthTime, "birth-time", "", "birth time HH:MM")
	f.BoolVar(&opts.lunar, "lunar", false, "birth date is on the lunar calendar")
	f.BoolVar(&opts.leap, "leap", false, "lunar birth month is a leap month")
	f.StringSliceVarP(&opts.cards, "cards", "c", nil, "drawn tarot cards, comma separated")
	f.StringVar(&opts.baseReading, "base-reading", "", "existing reading text to anchor on")
	f.StringVar(&opts.seed, "seed", "", "explicit seed key")
	f.StringVar(&opts.style, "style", "", "soft or direct (default follows the zodiac)")
	f.StringVar(&opts.weather, "weather", "", "current weather")
	f.StringVar(&opts.location, "location", "", "current location")
	f.StringVar(&opts.dayPeriod, "day-period", "", "아침, 낮, 저녁 or 밤")
	f.BoolVar(&opts.jsonOut, "json", false, "print the answer with its meta as JSON")
	f.StringVar(&opts.batch, "batch", "", "JSONL file of inputs, '-' for stdin")
	f.IntVar(&opts.workers, "workers", runtime.NumCPU(), "batch concurrency")
	return cmd
}

func (o *answerOptions) input() (empathy.Input, error) {
	style, err := parseStyle(o.style)
	if err != nil {
		return empathy.Input{}, err
	}
	birth, err := parseBirth(o.birth, o.birthTime, o.lunar, o.leap)
	if err != nil {
		return empathy.Input{}, err
	}
	return empathy.Input{
		Name:        o.name,
		Gender:      o.gender,
		Birth:       birth,
		Question:    o.question,
		Cards:       o.cards,
		BaseReading: o.baseReading,
		SeedKey:     o.seed,
		Style:       style,
		Env: empathy.Env{
			Timestamp: time.Now().UnixMilli(),
			Location:  o.location,
			Weather:   o.weather,
			DayPeriod: o.dayPeriod,
		},
	}, nil
}

func parseStyle(raw string) (empathy.Style, error) {
	switch style := empathy.Style(strings.ToLower(strings.TrimSpace(raw))); style {
	case "", empathy.StyleSoft, empathy.StyleDirect:
		return style, nil
	default:
		return "", fmt.Errorf("invalid --style %q: use soft or direct", raw)
	}
}

// parseBirth reads "YYYY-MM-DD" plus an optional "HH:MM". The date is not
// checked against the calendar here; lunar dates may not exist in the
// solar one and the engine falls back on its own.
func parseBirth(date, clock string, lunar, leap bool) (empathy.Birth, error) {
	var birth empathy.Birth
	if strings.TrimSpace(date) == "" {
		if lunar || leap {
			return birth, fmt.Errorf("--lunar needs --birth")
		}
		return birth, nil
	}
	if _, err := fmt.Sscanf(strings.TrimSpace(date), "%4d-%2d-%2d", &birth.Year, &birth.Month, &birth.Day); err != nil {
		return empathy.Birth{}, fmt.Errorf("invalid --birth %q: want YYYY-MM-DD", date)
	}
	if birth.Month < 1 || birth.Month > 12 || birth.Day < 1 || birth.Day > 31 {
		return empathy.Birth{}, fmt.Errorf("invalid --birth %q: month or day out of range", date)
	}
	if strings.TrimSpace(clock) != "" {
		if _, err := fmt.Sscanf(strings.TrimSpace(clock), "%2d:%2d", &birth.Hour, &birth.Minute); err != nil ||
			birth.Hour < 0 || birth.Hour > 23 || birth.Minute < 0 || birth.Minute > 59 {
			return empathy.Birth{}, fmt.Errorf("invalid --birth-time %q: want HH:MM", clock)
		}
	}
	birth.Calendar = empathy.CalendarSolar
	if lunar {
		birth.Calendar = empathy.CalendarLunar
		birth.LeapMonth = leap
	} else if leap {
		return empathy.Birth{}, fmt.Errorf("--leap only applies with --lunar")
	}
	return birth, nil
}

func printAnswer(w io.Writer, answer empathy.Answer) {
	meta := answer.Meta
	fmt.Fprintln(w, answer.Text)
	fmt.Fprintln(w)
	fmt.Fprintln(w, label("persona", fmt.Sprintf("%s (%s, %s)", meta.Persona.Zodiac, meta.Persona.Element, meta.Persona.Tone)))
	fmt.Fprintln(w, label("reading", fmt.Sprintf("%s / %s / %s / intensity %d / tempo %s", meta.Topic, meta.Emotion, meta.Need, meta.Intensity, meta.Tempo)))
	fmt.Fprintln(w, label("seed", meta.Seed))
	if meta.BeliefOK {
		fmt.Fprintln(w, label("belief", green("ok")))
	} else {
		fmt.Fprintln(w, label("belief", yellow(strings.Join(meta.BeliefViolations, ", "))))
	}
	if len(meta.Unresolved) > 0 {
		fmt.Fprintln(w, label("unresolved", yellow(strings.Join(meta.Unresolved, ", "))))
	}
}

// batchLine is one JSONL output record. Exactly one of Answer or Error is
// set.
type batchLine struct {
	Line   int             `json:"line"`
	Answer *empathy.Answer `json:"answer,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// runBatch answers every JSONL input concurrently and writes results in
// input order. Malformed lines are reported in place and do not stop the
// batch.
func runBatch(ctx context.Context, engine *empathy.Engine, logger logging.Logger, path string, stdin io.Reader, out io.Writer, workers int) error {
	src := stdin
	if path != "-" {
		file, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open batch: %w", err)
		}
		defer file.Close()
		src = file
	}

	var lines [][]byte
	scanner := bufio.NewScanner(src)
	scanner.Buffer(make([]byte, 64*1024), 1<<20)
	for scanner.Scan() {
		lines = append(lines, bytes.Clone(scanner.Bytes()))
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read batch: %w", err)
	}

	if ctx == nil {
		ctx = context.Background()
	}
	if workers < 1 {
		workers = 1
	}
	logger = logging.OrNop(logger)
	batchID := id.NewBatchID()
	started := time.Now()
	logger.Info("%s: %d line(s) from %s, workers=%d", batchID, len(lines), path, workers)
	results := make([]*batchLine, len(lines))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, raw := range lines {
		if len(bytes.TrimSpace(raw)) == 0 {
			continue
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			result := &batchLine{Line: i + 1}
			var in empathy.Input
			if err := jsonx.Unmarshal(raw, &in); err != nil {
				result.Error = fmt.Sprintf("invalid JSON: %v", err)
			} else {
				answer := engine.Answer(in)
				result.Answer = &answer
			}
			results[i] = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	enc := jsonx.NewEncoder(out)
	failed := 0
	for _, result := range results {
		if result == nil {
			continue
		}
		if result.Error != "" {
			failed++
		}
		if err := enc.Encode(result); err != nil {
			return fmt.Errorf("write batch: %w", err)
		}
	}
	logger.Info("%s: done in %s, %d failed", batchID, time.Since(started).Round(time.Millisecond), failed)
	return nil
}
