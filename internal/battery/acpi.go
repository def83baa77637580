package battery

import (
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// CommandRunner runs a command and returns its standard output.
type CommandRunner func(name string, args ...string) ([]byte, error)

func execRunner(name string, args ...string) ([]byte, error) {
	return exec.Command(name, args...).Output()
}

// QueryReader reads a single battery summary from the acpi tool.
type QueryReader struct {
	command string
	args    []string
	run     CommandRunner
}

// NewQueryReader creates a reader that runs command with args, normally "acpi -b".
// A nil runner executes the command with os/exec.
func NewQueryReader(command string, args []string, run CommandRunner) *QueryReader {
	if run == nil {
		run = execRunner
	}
	return &QueryReader{command: command, args: args, run: run}
}

// ReadSingle runs the query command and parses its first line.
func (q *QueryReader) ReadSingle() (*SingleReading, error) {
	out, err := q.run(q.command, q.args...)
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", q.command, err)
	}
	return parseQueryOutput(string(out))
}

// parseQueryOutput parses "Battery 0: Discharging, 50%, 01:23:45 remaining".
func parseQueryOutput(out string) (*SingleReading, error) {
	line, _, _ := strings.Cut(out, "\n")
	fields := strings.Split(line, ",")
	if len(fields) < 2 {
		return nil, fmt.Errorf("%w: %q", ErrUnexpectedOutput, line)
	}

	words := strings.Split(fields[0], " ")
	if len(words) < 3 {
		return nil, fmt.Errorf("%w: no status in %q", ErrUnexpectedOutput, fields[0])
	}

	pct, err := strconv.Atoi(strings.Trim(strings.TrimSpace(fields[1]), "%"))
	if err != nil || pct < 0 || pct > 100 {
		return nil, fmt.Errorf("%w: percent %q", ErrUnexpectedOutput, fields[1])
	}

	r := &SingleReading{
		Charging: words[2] != "Discharging",
		Percent:  pct,
	}
	if len(fields) > 2 {
		if tok := strings.Fields(fields[2]); len(tok) > 0 {
			r.TimeRemaining = tok[0]
		}
	}
	return r, nil
}
