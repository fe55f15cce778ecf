package sftpclient

import (
	"fmt"
	"os"

	"golang.org/x/term"
)

// PasswordCallback is a function that is called when a passphrase is needed to decrypt a private key.
type PasswordCallback func() (secret string, err error)

// DefaultPasswordCallback prompts for the passphrase on the terminal.
func DefaultPasswordCallback() (string, error) {
	fmt.Fprint(os.Stderr, "Enter passphrase: ")
	pass, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read passphrase: %w", err)
	}
	return string(pass), nil
}
