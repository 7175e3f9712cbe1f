// Package smbstore implements a storage backend on an SMB2/3 share.
package smbstore

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

	"github.com/hirochachacha/go-smb2"

	"github.com/discochess/hdfsutil/internal/store"
)

// Compile-time checks that Store implements the store interfaces.
var (
	_ store.Store   = (*Store)(nil)
	_ store.Renamer = (*Store)(nil)
)

// Store is an SMB share backend.
type Store struct {
	session *smb2.Session
	share   *smb2.Share
}

type options struct {
	password string
	domain   string
}

// Option configures a Store.
type Option func(*options)

// WithPassword sets the NTLM password.
func WithPassword(password string) Option {
	return func(o *options) {
		o.password = password
	}
}

// WithDomain sets the NTLM domain.
func WithDomain(domain string) Option {
	return func(o *options) {
		o.domain = domain
	}
}

// New dials addr ("host:445"), authenticates as user and mounts shareName.
func New(ctx context.Context, addr, shareName, user string, opts ...Option) (*Store, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	var nd net.Dialer
	conn, err := nd.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dialing %s: %w: %w", addr, store.ErrConnection, err)
	}

	d := &smb2.Dialer{
		Initiator: &smb2.NTLMInitiator{
			User:     user,
			Password: o.password,
			Domain:   o.domain,
		},
	}
	session, err := d.DialContext(ctx, conn)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("negotiating session with %s: %w: %w", addr, store.ErrConnection, err)
	}

	share, err := session.Mount(shareName)
	if err != nil {
		_ = session.Logoff()
		return nil, fmt.Errorf("mounting %s: %w", shareName, mapError("mount", shareName, err))
	}

	return &Store{session: session, share: share}, nil
}

// List returns the children of dir sorted by name.
func (s *Store) List(ctx context.Context, dir string) ([]store.Entry, error) {
	if err := store.CheckContext(ctx); err != nil {
		return nil, err
	}
	dir = store.Clean(dir)
	share := s.share.WithContext(ctx)

	info, err := share.Stat(sharePath(dir))
	if err != nil {
		return nil, mapError("list", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("list %s: %w", dir, store.ErrNotDir)
	}

	infos, err := share.ReadDir(sharePath(dir))
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

	f, err := s.share.WithContext(ctx).Open(sharePath(name))
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
	share := s.share.WithContext(ctx)

	if parent := path.Dir(name); parent != "/" {
		if err := share.MkdirAll(sharePath(parent), 0o755); err != nil {
			return nil, mapError("create", name, err)
		}
	}
	f, err := share.OpenFile(sharePath(name), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
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

	info, err := s.share.WithContext(ctx).Stat(sharePath(name))
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
	if dir == "/" {
		return nil
	}

	if err := s.share.WithContext(ctx).MkdirAll(sharePath(dir), 0o755); err != nil {
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
	share := s.share.WithContext(ctx)

	info, err := share.Stat(sharePath(name))
	if err != nil {
		return mapError("remove", name, err)
	}
	if info.IsDir() && !recursive {
		children, err := share.ReadDir(sharePath(name))
		if err != nil {
			return mapError("remove", name, err)
		}
		if len(children) > 0 {
			return fmt.Errorf("remove %s: %w", name, store.ErrNotEmpty)
		}
	}
	if recursive {
		err = share.RemoveAll(sharePath(name))
	} else {
		err = share.Remove(sharePath(name))
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
	share := s.share.WithContext(ctx)

	if parent := path.Dir(newName); parent != "/" {
		if err := share.MkdirAll(sharePath(parent), 0o755); err != nil {
			return mapError("rename", newName, err)
		}
	}
	if err := share.Remove(sharePath(newName)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return mapError("rename", newName, err)
	}
	if err := share.Rename(sharePath(oldName), sharePath(newName)); err != nil {
		return mapError("rename", oldName, err)
	}
	return nil
}

// Close unmounts the share and logs off.
func (s *Store) Close() error {
	if err := s.share.Umount(); err != nil {
		_ = s.session.Logoff()
		return err
	}
	return s.session.Logoff()
}

// sharePath converts a cleaned store path to a share-relative path.
func sharePath(name string) string {
	return strings.TrimPrefix(name, "/")
}

// NT status codes reported for missing files and directories.
const (
	statusNoSuchFile         = 0xC000000F
	statusObjectNameNotFound = 0xC0000034
	statusObjectPathNotFound = 0xC000003A
)

// mapError translates SMB errors into store errors.
func mapError(op, name string, err error) error {
	var (
		netErr   net.Error
		transErr *smb2.TransportError
	)
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.Is(err, fs.ErrNotExist), isNotFoundStatus(err):
		return fmt.Errorf("%s %s: %w", op, name, store.ErrNotFound)
	case errors.As(err, &netErr), errors.As(err, &transErr):
		return fmt.Errorf("%s %s: %w: %w", op, name, store.ErrConnection, err)
	default:
		return fmt.Errorf("%s %s: %w", op, name, err)
	}
}

func isNotFoundStatus(err error) bool {
	var respErr *smb2.ResponseError
	if !errors.As(err, &respErr) {
		return false
	}
	switch respErr.Code {
	case statusNoSuchFile, statusObjectNameNotFound, statusObjectPathNotFound:
		return true
	}
	return false
}
