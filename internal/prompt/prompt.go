// Package prompt implements the interactive terminal surface for review
// decisions.
package prompt

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/oncallops/revu/internal/identity"
)

// Terminal asks questions over a reader/writer pair, usually stdin/stdout.
type Terminal struct {
	in  *bufio.Reader
	out io.Writer
}

// NewTerminal creates a Terminal prompter.
func NewTerminal(in io.Reader, out io.Writer) *Terminal {
	return &Terminal{
		in:  bufio.NewReader(in),
		out: out,
	}
}

// Confirm asks a yes/no question. An empty answer takes the default;
// unrecognized input asks again.
func (t *Terminal) Confirm(ctx context.Context, question string, def bool) (bool, error) {
	hint := "[y/N]"
	if def {
		hint = "[Y/n]"
	}

	for {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		fmt.Fprintf(t.out, "%s %s ", question, hint)

		line, err := t.readLine()
		if err != nil {
			return false, fmt.Errorf("read answer: %w", err)
		}

		switch strings.ToLower(strings.TrimSpace(line)) {
		case "":
			return def, nil
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		default:
			fmt.Fprintln(t.out, "Please answer y or n.")
		}
	}
}

// SelectIdentities shows a numbered list and reads a comma-separated set of
// indices. An empty answer is a valid empty selection; out-of-range or
// unparsable input asks again.
func (t *Terminal) SelectIdentities(ctx context.Context, question string, choices []identity.Identity) ([]identity.Identity, error) {
	fmt.Fprintln(t.out, question)
	for i, choice := range choices {
		fmt.Fprintf(t.out, "  %d) %s\n", i+1, choice)
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		fmt.Fprint(t.out, "Enter numbers separated by commas (empty for none): ")

		line, err := t.readLine()
		if err != nil {
			return nil, fmt.Errorf("read selection: %w", err)
		}

		selected, ok := t.parseSelection(line, len(choices))
		if !ok {
			continue
		}

		out := make([]identity.Identity, 0, len(selected))
		for _, idx := range selected {
			out = append(out, choices[idx])
		}
		return out, nil
	}
}

// parseSelection turns "1, 3" into zero-based indices, deduplicated in
// input order.
func (t *Terminal) parseSelection(line string, n int) ([]int, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil, true
	}

	seen := make(map[int]bool)
	var out []int
	for _, field := range strings.Split(line, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		idx, err := strconv.Atoi(field)
		if err != nil || idx < 1 || idx > n {
			fmt.Fprintf(t.out, "%q is not a choice between 1 and %d.\n", field, n)
			return nil, false
		}
		if seen[idx-1] {
			continue
		}
		seen[idx-1] = true
		out = append(out, idx-1)
	}
	return out, true
}

func (t *Terminal) readLine() (string, error) {
	line, err := t.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return line, nil
}
