// Package hostkey provides ssh.HostKeyCallback implementations for verifying
// the identity of SFTP servers.
package hostkey

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/k0sproject/pathguard/log"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

var (
	// InsecureIgnoreHostKeyCallback accepts any host key.
	InsecureIgnoreHostKeyCallback = ssh.InsecureIgnoreHostKey() //nolint:gosec

	// ErrHostKeyMismatch is returned when the host key does not match the known key.
	ErrHostKeyMismatch = errors.New("host key mismatch")

	// ErrInvalidPath is returned for unusable known_hosts paths.
	ErrInvalidPath = errors.New("invalid path")

	// file level locks, keyed by the cleaned path
	fileLocks sync.Map
)

func lockFor(path string) *sync.Mutex {
	l, _ := fileLocks.LoadOrStore(filepath.Clean(path), &sync.Mutex{})
	return l.(*sync.Mutex) //nolint:forcetypeassert
}

// StaticKeyCallback returns a callback that only accepts the given key in
// "type base64" authorized_keys form.
func StaticKeyCallback(trustedKey string) ssh.HostKeyCallback {
	trustedKey = strings.TrimSpace(trustedKey)
	return func(hostname string, _ net.Addr, k ssh.PublicKey) error {
		if keyString(k) != trustedKey {
			return fmt.Errorf("%w: %s presented %s", ErrHostKeyMismatch, hostname, ssh.FingerprintSHA256(k))
		}
		return nil
	}
}

// KnownHosts verifies host keys against a known_hosts file. Keys of hosts not
// yet in the file are trusted on first use and appended to it.
type KnownHosts struct {
	path string
	mu   *sync.Mutex
}

// NewKnownHosts returns a verifier for the known_hosts file at path, creating
// the file and its directory when missing.
func NewKnownHosts(path string) (*KnownHosts, error) {
	kh := &KnownHosts{path: path, mu: lockFor(path)}

	kh.mu.Lock()
	defer kh.mu.Unlock()
	if err := ensureFile(path); err != nil {
		return nil, err
	}
	return kh, nil
}

// Check implements ssh.HostKeyCallback.
func (k *KnownHosts) Check(hostname string, remote net.Addr, key ssh.PublicKey) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	// the file is re-read for every check so that keys appended by other
	// clients in the meantime are seen
	check, err := knownhosts.New(k.path)
	if err != nil {
		return fmt.Errorf("read known_hosts %s: %w", k.path, err)
	}

	err = check(hostname, remote, key)
	var keyErr *knownhosts.KeyError
	switch {
	case err == nil:
		return nil
	case !errors.As(err, &keyErr):
		return fmt.Errorf("verify host key: %w", err)
	case len(keyErr.Want) > 0:
		return fmt.Errorf("%w: %s presented %s which differs from the key in %s:%d", ErrHostKeyMismatch, hostname, ssh.FingerprintSHA256(key), keyErr.Want[0].Filename, keyErr.Want[0].Line)
	}

	return k.add(hostname, key)
}

func (k *KnownHosts) add(hostname string, key ssh.PublicKey) error {
	log.Trace(context.Background(), "adding host to known_hosts", log.KeyHost, hostname, log.KeyFile, k.path)
	f, err := os.OpenFile(k.path, os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("open known_hosts %s for writing: %w", k.path, err)
	}

	line := knownhosts.Line([]string{knownhosts.Normalize(hostname)}, key) + "\n"
	if _, err := f.WriteString(line); err != nil {
		_ = f.Close()
		return fmt.Errorf("write known_hosts %s: %w", k.path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close known_hosts %s: %w", k.path, err)
	}
	return nil
}

// KnownHostsFileCallback returns the Check function of a KnownHosts for path.
// The null device disables verification.
func KnownHostsFileCallback(path string) (ssh.HostKeyCallback, error) {
	if path == os.DevNull {
		return InsecureIgnoreHostKeyCallback, nil
	}
	kh, err := NewKnownHosts(path)
	if err != nil {
		return nil, err
	}
	return kh.Check, nil
}

func ensureFile(path string) error {
	stat, err := os.Stat(path)
	switch {
	case err == nil && !stat.Mode().IsRegular():
		return fmt.Errorf("%w: %s is not a regular file", ErrInvalidPath, path)
	case err == nil:
		return nil
	case !errors.Is(err, os.ErrNotExist):
		return fmt.Errorf("%w: %w", ErrInvalidPath, err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create directory for known_hosts: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("create known_hosts %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close known_hosts %s: %w", path, err)
	}
	return nil
}

// keyString formats a key in authorized_keys form without a comment.
func keyString(k ssh.PublicKey) string {
	return k.Type() + " " + base64.StdEncoding.EncodeToString(k.Marshal())
}
