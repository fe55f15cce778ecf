package sftpclient

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/k0sproject/pathguard/log"
	"github.com/k0sproject/pathguard/retry"
	"github.com/k0sproject/pathguard/ssh/agent"
	"github.com/k0sproject/pathguard/ssh/hostkey"
	"golang.org/x/crypto/ssh"
)

// ErrNoAuthMethod is returned when no usable authentication method was found.
var ErrNoAuthMethod = errors.New("no usable authentication method found")

func (c *Client) hostkeyCallback() (ssh.HostKeyCallback, error) {
	switch {
	case c.config.InsecureIgnoreHostKey:
		c.Log().Warn("host key verification disabled", log.KeyHost, c.config.Address)
		return hostkey.InsecureIgnoreHostKeyCallback, nil
	case c.config.HostKey != "":
		return hostkey.StaticKeyCallback(c.config.HostKey), nil
	default:
		cb, err := hostkey.KnownHostsFileCallback(c.config.KnownHostsPath)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", retry.ErrAbort, err)
		}
		return cb, nil
	}
}

func (c *Client) clientConfig() (*ssh.ClientConfig, error) {
	hkc, err := c.hostkeyCallback()
	if err != nil {
		return nil, err
	}

	config := &ssh.ClientConfig{
		User:            c.config.User,
		HostKeyCallback: hkc,
		Timeout:         c.config.ConnectTimeout,
	}

	if c.config.KeyPath != nil {
		am, err := c.keyAuth(*c.config.KeyPath)
		if err != nil {
			return nil, err
		}
		config.Auth = append(config.Auth, am)
	}

	if am, err := agent.AuthMethod(); err != nil {
		log.Trace(context.Background(), "ssh agent not available", log.ErrorAttr(err))
	} else {
		c.Log().Debug("using ssh agent")
		config.Auth = append(config.Auth, am)
	}

	if c.config.Password != "" {
		config.Auth = append(config.Auth, ssh.Password(c.config.Password))
	}

	if len(config.Auth) == 0 {
		return nil, fmt.Errorf("%w: %w", retry.ErrAbort, ErrNoAuthMethod)
	}

	return config, nil
}

func (c *Client) keyAuth(path string) (ssh.AuthMethod, error) {
	key, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read identity file %s: %w", retry.ErrAbort, path, err)
	}

	signer, err := ssh.ParsePrivateKey(key)
	if err == nil {
		c.Log().Debug("using an unencrypted private key", log.KeyFile, path)
		return ssh.PublicKeys(signer), nil
	}

	var ppErr *ssh.PassphraseMissingError
	if !errors.As(err, &ppErr) || c.options.PasswordCallback == nil {
		return nil, fmt.Errorf("%w: parse identity file %s: %w", retry.ErrAbort, path, err)
	}

	c.Log().Debug("key is encrypted", log.KeyFile, path)
	pass, err := c.options.PasswordCallback()
	if err != nil {
		return nil, fmt.Errorf("%w: get passphrase: %w", retry.ErrAbort, err)
	}
	signer, err = ssh.ParsePrivateKeyWithPassphrase(key, []byte(pass))
	if err != nil {
		return nil, fmt.Errorf("%w: decrypt identity file %s: %w", retry.ErrAbort, path, err)
	}
	return ssh.PublicKeys(signer), nil
}
