package utils

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Prompter asks the operator questions over a line-oriented reader.
type Prompter struct {
	in  *bufio.Reader
	out io.Writer

	// secret reads a password without echo. When nil, passwords are read
	// as ordinary lines, which is what piped input and tests need.
	secret func(w io.Writer, prompt string) (string, error)
}

// NewPrompter returns a Prompter reading from in and writing prompts to out.
// Masked password input is used only when in is an interactive os.Stdin.
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	p := &Prompter{in: bufio.NewReader(in), out: out}
	if f, ok := in.(*os.File); ok && f == os.Stdin && IsTerminal() {
		p.secret = ReadMaskedPassword
	}
	return p
}

// Out returns the writer prompts are printed to.
func (p *Prompter) Out() io.Writer {
	return p.out
}

// Ask prints prompt and returns the trimmed line typed by the operator.
// A final line without a trailing newline is still returned.
func (p *Prompter) Ask(prompt string) (string, error) {
	if _, err := fmt.Fprint(p.out, prompt); err != nil {
		return "", err
	}
	line, err := p.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && len(line) > 0 {
			return strings.TrimSpace(line), nil
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// AskDefault shows the current value in brackets and keeps it when the
// operator just presses Enter.
func (p *Prompter) AskDefault(label, current string) (string, error) {
	answer, err := p.Ask(fmt.Sprintf("%s [%s]: ", label, current))
	if err != nil {
		return "", err
	}
	if answer == "" {
		return current, nil
	}
	return answer, nil
}

// AskInt reads a positive integer, returning def for empty or invalid input.
func (p *Prompter) AskInt(prompt string, def int) (int, error) {
	answer, err := p.Ask(prompt)
	if err != nil {
		return 0, err
	}
	n, convErr := strconv.Atoi(answer)
	if convErr != nil || n <= 0 {
		return def, nil
	}
	return n, nil
}

// Confirm asks a yes/no question. Empty input yields def.
func (p *Prompter) Confirm(prompt string, def bool) (bool, error) {
	hint := "[y/N]"
	if def {
		hint = "[Y/n]"
	}
	answer, err := p.Ask(fmt.Sprintf("%s %s: ", prompt, hint))
	if err != nil {
		return false, err
	}
	switch strings.ToLower(answer) {
	case "":
		return def, nil
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

// Password reads a secret, masked when reading from a terminal.
// Surrounding whitespace is preserved except for the line terminator.
func (p *Prompter) Password(prompt string) (string, error) {
	if p.secret != nil {
		return p.secret(p.out, prompt)
	}
	if _, err := fmt.Fprint(p.out, prompt); err != nil {
		return "", err
	}
	line, err := p.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && len(line) > 0) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
