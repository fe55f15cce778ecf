// Package agent connects to a running SSH agent.
package agent

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
)

// ErrSSHAgent is returned when connection to SSH agent fails.
var ErrSSHAgent = errors.New("connect ssh agent")

// NewClient returns a client for the platform's SSH agent.
func NewClient() (agent.Agent, error) {
	a, err := dial()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSSHAgent, err)
	}
	return a, nil
}

// AuthMethod returns an authentication method that uses the keys held by the
// agent. The keys are listed when the server asks for them.
func AuthMethod() (ssh.AuthMethod, error) {
	a, err := NewClient()
	if err != nil {
		return nil, err
	}
	return ssh.PublicKeysCallback(a.Signers), nil
}
