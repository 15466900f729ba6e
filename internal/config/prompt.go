package config

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"
)

// Prompter asks the user for a missing setting. PromptSecret must not echo
// the entered value.
type Prompter interface {
	Prompt(label string) (string, error)
	PromptSecret(label string) (string, error)
}

type terminalPrompter struct {
	reader *bufio.Reader
}

func NewTerminalPrompter() Prompter {
	return &terminalPrompter{
		reader: bufio.NewReader(os.Stdin),
	}
}

func (p *terminalPrompter) Prompt(label string) (string, error) {
	fmt.Fprintf(os.Stderr, "%s: ", label)
	line, err := p.reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("error reading input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func (p *terminalPrompter) PromptSecret(label string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		// No terminal to disable echo on; fall back to a plain read.
		return p.Prompt(label)
	}

	fmt.Fprintf(os.Stderr, "%s: ", label)
	secret, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("error reading secret input: %w", err)
	}
	return strings.TrimSpace(string(secret)), nil
}

// nonInteractivePrompter fails every prompt. Used when the operator passed
// --non-interactive and a required setting is missing from the store.
type nonInteractivePrompter struct{}

func NewNonInteractivePrompter() Prompter {
	return &nonInteractivePrompter{}
}

func (p *nonInteractivePrompter) Prompt(label string) (string, error) {
	return "", fmt.Errorf("%s is not configured and prompting is disabled", label)
}

func (p *nonInteractivePrompter) PromptSecret(label string) (string, error) {
	return p.Prompt(label)
}
