//go:build windows

package agent

import (
	"fmt"

	"github.com/Microsoft/go-winio"
	"github.com/davidmz/go-pageant"
	"golang.org/x/crypto/ssh/agent"
)

const openSSHAgentPipe = `\\.\pipe\openssh-ssh-agent`

// dial prefers pageant and falls back to the OpenSSH agent pipe.
func dial() (agent.Agent, error) {
	if pageant.Available() {
		return pageant.New(), nil
	}
	conn, err := winio.DialPipe(openSSHAgentPipe, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", openSSHAgentPipe, err)
	}
	return agent.NewClient(conn), nil
}
