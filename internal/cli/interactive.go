package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/commitsign/commitsign/pkg/commitsign/output"
)

// ErrUserCancelled is returned when the user cancels an interactive prompt
// (Ctrl-C or Escape).
var ErrUserCancelled = errors.New("cancelled by user")

// TTYPrompter asks questions on the controlling terminal. It opens /dev/tty
// directly so prompts work even when stdin is piped.
type TTYPrompter struct {
	Stderr io.Writer
}

// NewTTYPrompter returns a prompter writing its questions to stderr.
func NewTTYPrompter() *TTYPrompter {
	return &TTYPrompter{Stderr: os.Stderr}
}

// Confirm asks a y/N question in raw mode and reports the answer. Enter
// defaults to no. Ctrl-C and Escape cancel.
func (p *TTYPrompter) Confirm(prompt string) (bool, error) {
	tty, err := os.Open("/dev/tty")
	if err != nil {
		return false, output.NewError(output.CodeNoTerminal,
			"no terminal available for confirmation").
			WithRemediation("run with --auto for unattended operation")
	}
	defer func() { _ = tty.Close() }()

	fd := int(tty.Fd())
	if !term.IsTerminal(fd) {
		return false, output.NewError(output.CodeNoTerminal,
			"no terminal available for confirmation").
			WithRemediation("run with --auto for unattended operation")
	}

	_, _ = fmt.Fprintf(p.Stderr, "%s [y/N]: ", prompt)

	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return false, fmt.Errorf("failed to set raw mode: %w", err)
	}
	defer func() { _ = term.Restore(fd, oldState) }()

	buf := make([]byte, 1)
	for {
		if _, err := tty.Read(buf); err != nil {
			_, _ = fmt.Fprintf(p.Stderr, "\r\n")
			return false, fmt.Errorf("failed to read input: %w", err)
		}

		switch buf[0] {
		case 'y', 'Y':
			_, _ = fmt.Fprintf(p.Stderr, "y\r\n")
			return true, nil
		case 'n', 'N', '\r', '\n':
			_, _ = fmt.Fprintf(p.Stderr, "n\r\n")
			return false, nil
		case 3, 27: // Ctrl-C or Escape
			_, _ = fmt.Fprintf(p.Stderr, "\r\nCancelled.\r\n")
			return false, ErrUserCancelled
		}
	}
}

// Line asks for a free-text value and returns the trimmed answer.
func (p *TTYPrompter) Line(prompt string) (string, error) {
	tty, err := os.Open("/dev/tty")
	if err != nil {
		return "", output.NewError(output.CodeNoTerminal,
			"no terminal available for input").
			WithRemediation("run with --auto for unattended operation")
	}
	defer func() { _ = tty.Close() }()

	if !term.IsTerminal(int(tty.Fd())) {
		return "", output.NewError(output.CodeNoTerminal,
			"no terminal available for input").
			WithRemediation("run with --auto for unattended operation")
	}

	_, _ = fmt.Fprintf(p.Stderr, "%s: ", prompt)

	line, err := bufio.NewReader(tty).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}
