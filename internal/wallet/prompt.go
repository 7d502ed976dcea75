package wallet

import (
	"fmt"
	"os"
	"syscall"

	"github.com/charmbracelet/x/term"
)

// PassphraseEnv overrides the interactive passphrase prompt
const PassphraseEnv = "BOOKCHAIN_PASSPHRASE"

// Static returns a PassphraseFunc that always yields pass
func Static(pass string) PassphraseFunc {
	return func() (string, error) { return pass, nil }
}

// Prompt reads the passphrase from the terminal without echo
func Prompt(label string) PassphraseFunc {
	return func() (string, error) {
		fmt.Fprint(os.Stderr, label)
		passwordBytes, err := term.ReadPassword(uintptr(syscall.Stdin))
		fmt.Fprintln(os.Stderr) // Add a newline after password input
		if err != nil {
			return "", err
		}
		return string(passwordBytes), nil
	}
}

// EnvOrPrompt uses BOOKCHAIN_PASSPHRASE when set, otherwise prompts
func EnvOrPrompt(label string) PassphraseFunc {
	if pass, ok := os.LookupEnv(PassphraseEnv); ok {
		return Static(pass)
	}
	return Prompt(label)
}

// NewPassphrase asks for a passphrase twice and checks both match
func NewPassphrase() (string, error) {
	if pass, ok := os.LookupEnv(PassphraseEnv); ok {
		return pass, nil
	}

	first, err := Prompt("New passphrase: ")()
	if err != nil {
		return "", fmt.Errorf("error reading passphrase: %w", err)
	}
	second, err := Prompt("Repeat passphrase: ")()
	if err != nil {
		return "", fmt.Errorf("error reading passphrase: %w", err)
	}
	if first != second {
		return "", fmt.Errorf("passphrases do not match")
	}
	return first, nil
}
