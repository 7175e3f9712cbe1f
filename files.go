package hdfsutil

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/discochess/hdfsutil/internal/pipe"
	"github.com/discochess/hdfsutil/internal/store"
)

// List returns the children of dir.
func (c *Client) List(ctx context.Context, dir string) ([]Entry, error) {
	if c.closed.Load() {
		return nil, ErrClosed
	}
	return c.store.List(ctx, dir)
}

// Exists reports whether name exists. Only ErrPathNotFound counts as absent;
// other failures are returned.
func (c *Client) Exists(ctx context.Context, name string) (bool, error) {
	if c.closed.Load() {
		return false, ErrClosed
	}
	_, err := c.store.Stat(ctx, name)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, store.ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}

// Mkdir creates dir and any missing parents.
func (c *Client) Mkdir(ctx context.Context, dir string) error {
	if c.closed.Load() {
		return ErrClosed
	}
	return c.store.Mkdir(ctx, dir)
}

// Delete removes a file or an empty directory.
func (c *Client) Delete(ctx context.Context, name string) error {
	if c.closed.Load() {
		return ErrClosed
	}
	return c.store.Remove(ctx, name, false)
}

// DeleteRecursive removes name and everything below it.
func (c *Client) DeleteRecursive(ctx context.Context, name string) error {
	if c.closed.Load() {
		return ErrClosed
	}
	return c.store.Remove(ctx, name, true)
}

// CreateFile writes data to name, replacing any existing content.
func (c *Client) CreateFile(ctx context.Context, name string, data []byte) error {
	if c.closed.Load() {
		return ErrClosed
	}
	if err := store.WriteFile(ctx, c.store, name, data); err != nil {
		return fmt.Errorf("creating %s: %w", name, err)
	}
	return nil
}

// CreateFileString writes s to name, replacing any existing content.
func (c *Client) CreateFileString(ctx context.Context, name, s string) error {
	return c.CreateFile(ctx, name, []byte(s))
}

// ReadFile returns the content of name as a string.
func (c *Client) ReadFile(ctx context.Context, name string) (string, error) {
	if c.closed.Load() {
		return "", ErrClosed
	}
	data, err := store.ReadFile(ctx, c.store, name)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", name, err)
	}
	return string(data), nil
}

// CopyFromLocal uploads the local file local to remote.
func (c *Client) CopyFromLocal(ctx context.Context, local, remote string) error {
	if c.closed.Load() {
		return ErrClosed
	}

	f, err := os.Open(local)
	if err != nil {
		return fmt.Errorf("opening local file: %w", err)
	}

	w, err := c.store.Create(ctx, remote)
	if err != nil {
		f.Close()
		return fmt.Errorf("creating %s: %w", remote, err)
	}

	n, err := pipe.CopyAndClose(w, f, c.bufSize)
	if err != nil {
		return fmt.Errorf("uploading %s to %s: %w", local, remote, err)
	}

	c.logger.Debug("uploaded",
		zap.String("local", local),
		zap.String("remote", remote),
		zap.Int64("bytes", n),
	)
	return nil
}

// CopyToLocal downloads remote to the local file local.
func (c *Client) CopyToLocal(ctx context.Context, remote, local string) error {
	if c.closed.Load() {
		return ErrClosed
	}

	r, err := c.store.Open(ctx, remote)
	if err != nil {
		return fmt.Errorf("opening %s: %w", remote, err)
	}

	f, err := os.Create(local)
	if err != nil {
		r.Close()
		return fmt.Errorf("creating local file: %w", err)
	}

	n, err := pipe.CopyAndClose(f, r, c.bufSize)
	if err != nil {
		return fmt.Errorf("downloading %s to %s: %w", remote, local, err)
	}

	c.logger.Debug("downloaded",
		zap.String("remote", remote),
		zap.String("local", local),
		zap.Int64("bytes", n),
	)
	return nil
}

// ConcatToLocal writes every file directly below the remote directory dir,
// in listing order, into the single local file local. Subdirectories are
// ignored. The first failure stops the copy.
func (c *Client) ConcatToLocal(ctx context.Context, dir, local string) error {
	if c.closed.Load() {
		return ErrClosed
	}

	entries, err := c.store.List(ctx, dir)
	if err != nil {
		return fmt.Errorf("listing %s: %w", dir, err)
	}

	f, err := os.Create(local)
	if err != nil {
		return fmt.Errorf("creating local file: %w", err)
	}

	var total int64
	var files int
	for _, e := range entries {
		if e.IsDir {
			continue
		}
		n, err := c.appendFile(ctx, e.Path, f)
		total += n
		if err != nil {
			f.Close()
			return fmt.Errorf("merging %s into %s: %w", e.Path, local, err)
		}
		files++
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("closing local file: %w", err)
	}

	c.logger.Debug("merged",
		zap.String("dir", dir),
		zap.String("local", local),
		zap.Int("files", files),
		zap.Int64("bytes", total),
	)
	return nil
}

func (c *Client) appendFile(ctx context.Context, name string, f *os.File) (int64, error) {
	r, err := c.store.Open(ctx, name)
	if err != nil {
		return 0, err
	}
	defer r.Close()
	return pipe.Copy(f, r, c.bufSize)
}
