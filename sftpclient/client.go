// Package sftpclient provides the remote filesystem collaborator for path
// validation: an SFTP session over SSH with a connection guard and session
// lifecycle events.
package sftpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/k0sproject/pathguard/fserror"
	"github.com/k0sproject/pathguard/log"
	"github.com/k0sproject/pathguard/pathcheck"
	"github.com/k0sproject/pathguard/retry"
	"github.com/k0sproject/pathguard/ssh/hostkey"
	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
)

var (
	_ Session            = (*sftp.Client)(nil)
	_ SessionHolder      = (*Client)(nil)
	_ pathcheck.RemoteFS = (*Client)(nil)

	// ErrSessionLost is passed to end and close listeners when the session
	// ended without Disconnect being called.
	ErrSessionLost = errors.New("sftp session lost")

	errUnexpectedEnd   = fserror.New(fserror.KindConnect, "Unexpected end event raised")
	errUnexpectedClose = fserror.New(fserror.KindConnect, "Unexpected close event raised")
)

// Session is the part of *sftp.Client the client uses.
type Session interface {
	Lstat(p string) (fs.FileInfo, error)
	RealPath(p string) (string, error)
	Getwd() (string, error)
	Wait() error
	Close() error
}

type link struct {
	session Session
	closers []io.Closer
	closing atomic.Bool
}

// sessionHandle lets the guard inspect a snapshot of the session handle.
type sessionHandle struct{ s Session }

func (h sessionHandle) Session() Session { return h.s }

// Client is an SFTP client that exposes what path validation needs from the
// remote end.
type Client struct {
	log.LoggerInjectable

	config    Config
	options   *Options
	listeners *Listeners

	mu   sync.RWMutex
	link *link
	sep  string

	opSeq atomic.Uint64
}

// NewClient returns a client for the configuration. It does not connect.
func NewClient(cfg Config, opts ...Option) *Client {
	c := &Client{
		config:    cfg,
		options:   NewOptions(opts...),
		listeners: NewListeners(),
		sep:       "/",
	}
	c.options.InjectLoggerTo(c, log.KeyProtocol, "sftp")
	c.addGlobalListeners()
	return c
}

// NewClientWithSession returns a client using an already established
// session, for example one created with sftp.NewClientPipe.
func NewClientWithSession(sess Session, opts ...Option) *Client {
	c := NewClient(Config{}, opts...)
	c.attach(sess)
	return c
}

// String returns the client's printable name.
func (c *Client) String() string {
	if c.config.Address == "" {
		return "sftp"
	}
	return "sftp://" + c.config.User + "@" + net.JoinHostPort(c.config.Address, strconv.Itoa(c.config.Port))
}

// Listeners returns the session event registry.
func (c *Client) Listeners() *Listeners {
	return c.listeners
}

// Session returns the live session or nil when not connected.
func (c *Client) Session() Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.link == nil {
		return nil
	}
	return c.link.session
}

// IsConnected returns true when there is a live session.
func (c *Client) IsConnected() bool {
	return EnsureConnected(c) == nil
}

func (c *Client) addGlobalListeners() {
	c.listeners.Replace(GroupGlobal, map[Event]Listener{
		EventError: func(err error) {
			c.Log().Error("sftp session error", log.ErrorAttr(err))
		},
		EventEnd: func(err error) {
			c.Log().Debug("sftp session ended", "expected", err == nil)
		},
		EventClose: func(_ error) {
			c.Log().Debug("sftp session closed")
		},
	})
}

// AddTempListeners attaches error, end and close listeners for the duration
// of an operation. Any listeners already in the group are removed first. An
// unexpected end of the session is delivered to reject as a normalized error
// prefixed with component. The returned function detaches the listeners.
func (c *Client) AddTempListeners(group Group, component string, reject func(error)) func() {
	return c.listeners.Replace(group, map[Event]Listener{
		EventError: func(err error) {
			reject(fserror.Format(err, component, fserror.KindGeneric))
		},
		EventEnd: func(err error) {
			if err != nil {
				reject(errUnexpectedEnd.WithContext(component))
			}
		},
		EventClose: func(err error) {
			if err != nil {
				reject(errUnexpectedClose.WithContext(component))
			}
		},
	})
}

// RemoveTempListeners detaches the listeners of a group.
func (c *Client) RemoveTempListeners(group Group) {
	c.listeners.RemoveAll(group)
}

func (c *Client) tempGroup(component string) Group {
	return Group(fmt.Sprintf("%s:%s:%d", GroupTemp, component, c.opSeq.Add(1)))
}

// Connect dials the server and opens an SFTP session. Failed attempts are
// retried as configured and the number of attempts is included in the error.
func (c *Client) Connect(ctx context.Context) error {
	const component = "connect"

	if c.IsConnected() {
		return fserror.FormatMessage("An existing SFTP connection is already defined", component, fserror.KindConnect)
	}

	if err := c.config.Validate(); err != nil {
		return fserror.Format(err, component, fserror.KindGeneric)
	}

	config, err := c.clientConfig()
	if err != nil {
		return fserror.Format(err, component, fserror.KindConnect)
	}

	addr := net.JoinHostPort(c.config.Address, strconv.Itoa(c.config.Port))
	opts := []retry.Option{
		retry.MaxRetries(max(c.config.Retries, 1)),
		retry.Delay(c.config.RetryDelay),
		retry.Backoff(c.config.RetryFactor),
		retry.OnRetry(func(attempt int, err error) {
			c.Log().Debug("connection attempt failed", log.KeyHost, addr, log.KeyAttempts, attempt, log.ErrorAttr(err))
		}),
	}
	opts = append(opts, c.options.RetryOptions...)

	sshClient, err := retry.Get(ctx, func(ctx context.Context) (*ssh.Client, error) {
		return c.dial(ctx, addr, config)
	}, opts...)
	if err != nil {
		return fserror.Format(retry.Cause(err), component, fserror.KindConnect, fserror.Attempts(retry.Attempts(err)))
	}

	sess, err := sftp.NewClient(sshClient, c.options.SFTPOptions...)
	if err != nil {
		_ = sshClient.Close()
		return fserror.Format(err, component, fserror.KindConnect)
	}

	c.attach(sess, sshClient)
	c.Log().Info("connected", log.KeyHost, addr)

	return nil
}

func (c *Client) dial(ctx context.Context, addr string, config *ssh.ClientConfig) (*ssh.Client, error) {
	d := net.Dialer{Timeout: c.config.ConnectTimeout}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err //nolint:wrapcheck // classified by fserror.Format
	}
	sshConn, chans, reqs, err := ssh.NewClientConn(conn, addr, config)
	if err != nil {
		_ = conn.Close()
		if errors.Is(err, hostkey.ErrHostKeyMismatch) {
			return nil, fmt.Errorf("%w: %w", retry.ErrAbort, err)
		}
		return nil, fmt.Errorf("ssh handshake: %w", err)
	}
	return ssh.NewClient(sshConn, chans, reqs), nil
}

func (c *Client) attach(sess Session, closers ...io.Closer) {
	l := &link{session: sess, closers: closers}

	sep := "/"
	if cwd, err := sess.Getwd(); err == nil && strings.Contains(cwd, `\`) {
		sep = `\`
	}

	c.mu.Lock()
	c.link = l
	c.sep = sep
	c.mu.Unlock()

	go c.monitor(l)
}

// monitor waits for the session to end and emits the lifecycle events.
func (c *Client) monitor(l *link) {
	err := l.session.Wait()

	c.mu.Lock()
	if c.link == l {
		c.link = nil
	}
	c.mu.Unlock()

	for _, closer := range l.closers {
		_ = closer.Close()
	}

	if l.closing.Load() {
		c.listeners.Emit(EventEnd, nil)
		c.listeners.Emit(EventClose, nil)
		return
	}

	if err == nil {
		err = ErrSessionLost
	}
	c.listeners.Emit(EventError, err)
	c.listeners.Emit(EventEnd, ErrSessionLost)
	c.listeners.Emit(EventClose, ErrSessionLost)
}

// Disconnect closes the session and the underlying connection.
func (c *Client) Disconnect() error {
	const component = "end"

	c.mu.Lock()
	l := c.link
	c.link = nil
	c.mu.Unlock()

	if l == nil {
		return fserror.Format(notConnected(), component, fserror.KindConnect)
	}

	l.closing.Store(true)
	if err := l.session.Close(); err != nil {
		return fserror.Format(err, component, fserror.KindGeneric)
	}
	return nil
}

type opWatch struct {
	mu  sync.Mutex
	err error
}

func (w *opWatch) reject(err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err == nil {
		w.err = err
	}
}

func (w *opWatch) rejected() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}

// sessionError is a session failure that was already formatted for the
// operation it interrupted.
type sessionError struct {
	err error
}

func (e *sessionError) Error() string { return e.err.Error() }

func (e *sessionError) Unwrap() error { return e.err }

// run calls fn with the live session. A session failure observed while fn
// runs is returned as a *sessionError instead of fn's own error. Other errors
// are returned unformatted.
func (c *Client) run(ctx context.Context, component string, fn func(Session) error) error {
	sess := c.Session()
	if err := EnsureConnected(sessionHandle{sess}); err != nil {
		return err
	}

	watch := &opWatch{}
	cleanup := c.AddTempListeners(c.tempGroup(component), component, watch.reject)
	defer cleanup()

	done := make(chan error, 1)
	go func() { done <- fn(sess) }()

	select {
	case <-ctx.Done():
		return ctx.Err() //nolint:wrapcheck
	case err := <-done:
		if rejected := watch.rejected(); rejected != nil {
			return &sessionError{err: rejected}
		}
		return err
	}
}

// format prefixes err with the component unless run already did.
func format(err error, component string) error {
	var sessErr *sessionError
	if errors.As(err, &sessErr) {
		return sessErr.err
	}
	return fserror.Format(err, component, fserror.KindGeneric)
}

// Exists returns the type of the object at p without following symlinks, or
// pathcheck.TypeNone when there is nothing there.
func (c *Client) Exists(ctx context.Context, p string) (pathcheck.Type, error) {
	const component = "exists"
	var info fs.FileInfo
	err := c.run(ctx, component, func(s Session) error {
		var err error
		info, err = s.Lstat(p)
		return err //nolint:wrapcheck
	})
	switch {
	case err == nil:
		return pathcheck.TypeOf(info.Mode()), nil
	case !errors.As(err, new(*sessionError)) && errors.Is(err, fs.ErrNotExist):
		return pathcheck.TypeNone, nil
	default:
		return pathcheck.TypeNone, format(err, component)
	}
}

// RealPath returns the canonical absolute form of p as resolved by the server.
func (c *Client) RealPath(ctx context.Context, p string) (string, error) {
	const component = "realPath"
	var canonical string
	err := c.run(ctx, component, func(s Session) error {
		var err error
		canonical, err = s.RealPath(p)
		return err //nolint:wrapcheck
	})
	if err != nil {
		return "", format(err, component)
	}
	return canonical, nil
}

// Cwd returns the session's working directory.
func (c *Client) Cwd(ctx context.Context) (string, error) {
	const component = "cwd"
	var cwd string
	err := c.run(ctx, component, func(s Session) error {
		var err error
		cwd, err = s.Getwd()
		return err //nolint:wrapcheck
	})
	if err != nil {
		return "", format(err, component)
	}
	return cwd, nil
}

// PathSeparator returns the remote path separator.
func (c *Client) PathSeparator() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sep
}

// CheckPath validates a remote path for an operation. Relative paths starting
// with ./ or ../ are resolved against the session's working directory.
func (c *Client) CheckPath(ctx context.Context, p string, op pathcheck.Op) (*pathcheck.Result, error) {
	if err := EnsureConnected(c); err != nil {
		return nil, fserror.Format(err, "checkPath", fserror.KindConnect)
	}
	v := pathcheck.NewRemote(c)
	v.SetLogger(c.Log())
	return v.Validate(ctx, p, op) //nolint:wrapcheck
}

// RequirePath validates a remote path and returns its resolved form, or a
// normalized error prefixed with component when the operation can not
// proceed on it.
func (c *Client) RequirePath(ctx context.Context, p string, op pathcheck.Op, component string) (string, error) {
	res, err := c.CheckPath(ctx, p, op)
	if err != nil {
		return "", fserror.Format(err, component, fserror.KindGeneric)
	}
	if err := res.Err(component); err != nil {
		return "", err
	}
	return res.Path, nil
}
