// Package sftpstore implements a storage backend over SFTP.
package sftpstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net"
	"os"
	"path"
	"slices"
	"strings"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	"github.com/discochess/hdfsutil/internal/store"
)

// Compile-time checks that Store implements the store interfaces.
var (
	_ store.Store   = (*Store)(nil)
	_ store.Renamer = (*Store)(nil)
)

// DefaultTimeout bounds the SSH handshake.
const DefaultTimeout = 10 * time.Second

// Store is an SFTP storage backend. Paths are resolved under a base
// directory on the server.
type Store struct {
	client   *sftp.Client
	sshConn  *ssh.Client
	basePath string
}

type options struct {
	auth       []ssh.AuthMethod
	hostKey    ssh.HostKeyCallback
	hostKeyErr error
	basePath   string
	timeout    time.Duration
}

// Option configures a Store.
type Option func(*options)

// WithPassword authenticates with a password.
func WithPassword(password string) Option {
	return func(o *options) {
		o.auth = append(o.auth, ssh.Password(password))
	}
}

// WithPrivateKey authenticates with a PEM encoded private key.
func WithPrivateKey(pem []byte) Option {
	return func(o *options) {
		signer, err := ssh.ParsePrivateKey(pem)
		if err != nil {
			o.hostKeyErr = errors.Join(o.hostKeyErr, fmt.Errorf("parsing private key: %w", err))
			return
		}
		o.auth = append(o.auth, ssh.PublicKeys(signer))
	}
}

// WithKnownHosts verifies the server against an OpenSSH known_hosts file.
// Without it the host key is not checked.
func WithKnownHosts(file string) Option {
	return func(o *options) {
		cb, err := knownhosts.New(file)
		if err != nil {
			o.hostKeyErr = errors.Join(o.hostKeyErr, fmt.Errorf("loading known hosts: %w", err))
			return
		}
		o.hostKey = cb
	}
}

// WithBasePath resolves every path under dir on the server.
func WithBasePath(dir string) Option {
	return func(o *options) {
		o.basePath = dir
	}
}

// WithTimeout sets the SSH dial timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		o.timeout = d
	}
}

// New dials addr ("host:port") as user and starts an SFTP session.
func New(addr, user string, opts ...Option) (*Store, error) {
	o := options{
		hostKey: ssh.InsecureIgnoreHostKey(),
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.hostKeyErr != nil {
		return nil, o.hostKeyErr
	}

	config := &ssh.ClientConfig{
		User:            user,
		Auth:            o.auth,
		HostKeyCallback: o.hostKey,
		Timeout:         o.timeout,
	}

	sshConn, err := ssh.Dial("tcp", addr, config)
	if err != nil {
		return nil, fmt.Errorf("dialing %s: %w: %w", addr, store.ErrConnection, err)
	}

	client, err := sftp.NewClient(sshConn)
	if err != nil {
		_ = sshConn.Close()
		return nil, fmt.Errorf("starting sftp on %s: %w: %w", addr, store.ErrConnection, err)
	}

	return &Store{
		client:   client,
		sshConn:  sshConn,
		basePath: o.basePath,
	}, nil
}

// List returns the children of dir sorted by name.
func (s *Store) List(ctx context.Context, dir string) ([]store.Entry, error) {
	if err := store.CheckContext(ctx); err != nil {
		return nil, err
	}
	dir = store.Clean(dir)

	info, err := s.client.Stat(s.fullPath(dir))
	if err != nil {
		return nil, mapError("list", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("list %s: %w", dir, store.ErrNotDir)
	}

	infos, err := s.client.ReadDir(s.fullPath(dir))
	if err != nil {
		return nil, mapError("list", dir, err)
	}

	entries := make([]store.Entry, 0, len(infos))
	for _, info := range infos {
		entries = append(entries, store.FromFileInfo(path.Join(dir, info.Name()), info))
	}
	slices.SortFunc(entries, func(a, b store.Entry) int {
		return strings.Compare(a.Name, b.Name)
	})
	return entries, nil
}

// Open opens a file for reading.
func (s *Store) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := store.CheckContext(ctx); err != nil {
		return nil, err
	}
	name = store.Clean(name)

	f, err := s.client.Open(s.fullPath(name))
	if err != nil {
		return nil, mapError("open", name, err)
	}
	return f, nil
}

// Create creates or truncates a file, creating its parent directories.
func (s *Store) Create(ctx context.Context, name string) (io.WriteCloser, error) {
	if err := store.CheckContext(ctx); err != nil {
		return nil, err
	}
	name = store.Clean(name)

	if err := s.client.MkdirAll(s.fullPath(path.Dir(name))); err != nil {
		return nil, mapError("create", name, err)
	}
	f, err := s.client.OpenFile(s.fullPath(name), os.O_WRONLY|os.O_CREATE|os.O_TRUNC)
	if err != nil {
		return nil, mapError("create", name, err)
	}
	return f, nil
}

// Stat returns the entry for name.
func (s *Store) Stat(ctx context.Context, name string) (store.Entry, error) {
	if err := store.CheckContext(ctx); err != nil {
		return store.Entry{}, err
	}
	name = store.Clean(name)

	info, err := s.client.Stat(s.fullPath(name))
	if err != nil {
		return store.Entry{}, mapError("stat", name, err)
	}
	return store.FromFileInfo(name, info), nil
}

// Mkdir creates dir and its parents.
func (s *Store) Mkdir(ctx context.Context, dir string) error {
	if err := store.CheckContext(ctx); err != nil {
		return err
	}
	dir = store.Clean(dir)

	if err := s.client.MkdirAll(s.fullPath(dir)); err != nil {
		return mapError("mkdir", dir, err)
	}
	return nil
}

// Remove deletes name.
func (s *Store) Remove(ctx context.Context, name string, recursive bool) error {
	if err := store.CheckContext(ctx); err != nil {
		return err
	}
	name = store.Clean(name)
	full := s.fullPath(name)

	info, err := s.client.Stat(full)
	if err != nil {
		return mapError("remove", name, err)
	}
	switch {
	case !info.IsDir():
		err = s.client.Remove(full)
	case recursive:
		err = s.client.RemoveAll(full)
	default:
		children, rerr := s.client.ReadDir(full)
		if rerr != nil {
			return mapError("remove", name, rerr)
		}
		if len(children) > 0 {
			return fmt.Errorf("remove %s: %w", name, store.ErrNotEmpty)
		}
		err = s.client.RemoveDirectory(full)
	}
	if err != nil {
		return mapError("remove", name, err)
	}
	return nil
}

// Rename moves a file, replacing any existing destination.
func (s *Store) Rename(ctx context.Context, oldName, newName string) error {
	if err := store.CheckContext(ctx); err != nil {
		return err
	}
	oldName, newName = store.Clean(oldName), store.Clean(newName)

	if err := s.client.MkdirAll(s.fullPath(path.Dir(newName))); err != nil {
		return mapError("rename", newName, err)
	}
	if err := s.client.PosixRename(s.fullPath(oldName), s.fullPath(newName)); err != nil {
		return mapError("rename", oldName, err)
	}
	return nil
}

// Close closes the SFTP session and the underlying SSH connection.
func (s *Store) Close() error {
	if err := s.client.Close(); err != nil {
		_ = s.sshConn.Close()
		return err
	}
	return s.sshConn.Close()
}

// fullPath maps a cleaned store path onto the server.
func (s *Store) fullPath(name string) string {
	if s.basePath == "" {
		return name
	}
	return path.Join(s.basePath, name)
}

// mapError translates SFTP errors into store errors.
func mapError(op, name string, err error) error {
	var netErr net.Error
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%s %s: %w", op, name, store.ErrNotFound)
	case errors.Is(err, sftp.ErrSSHFxConnectionLost), errors.Is(err, sftp.ErrSSHFxNoConnection), errors.As(err, &netErr):
		return fmt.Errorf("%s %s: %w: %w", op, name, store.ErrConnection, err)
	default:
		return fmt.Errorf("%s %s: %w", op, name, err)
	}
}
