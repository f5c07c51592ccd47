package main

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"golang.org/x/term"

	jsonx "soullab/internal/shared/json"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	gray   = color.New(color.FgHiBlack).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

// isTTY reports whether w is an interactive terminal.
func isTTY(w io.Writer) bool {
	file, ok := w.(*os.File)
	return ok && term.IsTerminal(int(file.Fd()))
}

func errorText(msg string) string { return red("✗ " + msg) }

// configureColor disables ANSI output when stdout is not a terminal.
func configureColor(w io.Writer, noColor bool) {
	color.NoColor = noColor || !isTTY(w)
}

func printJSON(w io.Writer, v any) error {
	data, err := jsonx.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// label renders "key: value" with a dimmed key.
func label(key string, value any) string {
	return fmt.Sprintf("%s %v", gray(key+":"), value)
}
