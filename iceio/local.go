package iceio

import (
	"context"
	"fmt"
	"net/url"
	"os"
)

func init() {
	RegisterScheme("file", func(map[string]string) (FileIO, error) {
		return LocalFileIO{}, nil
	})
}

// LocalFileIO implements FileIO against the local filesystem. URIs
// may be a bare path or a "file://" URI.
type LocalFileIO struct{}

func NewLocalFileIO() LocalFileIO { return LocalFileIO{} }

func localPath(uri string) string {
	u, err := url.Parse(uri)
	if err != nil || u.Scheme == "" {
		return uri
	}
	return u.Path
}

func (LocalFileIO) NewInput(_ context.Context, uri string) (InputStream, error) {
	f, err := os.Open(localPath(uri))
	if err != nil {
		return nil, fmt.Errorf("iceio: open %q: %w", uri, err)
	}
	return &localStream{f}, nil
}

func (LocalFileIO) NewOutput(_ context.Context, uri string) (OutputStream, error) {
	path := localPath(uri)
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("iceio: create %q: %w", uri, err)
	}
	return f, nil
}

func (LocalFileIO) Delete(_ context.Context, uri string) error {
	if err := os.Remove(localPath(uri)); err != nil {
		return fmt.Errorf("iceio: delete %q: %w", uri, err)
	}
	return nil
}

func (LocalFileIO) Exists(_ context.Context, uri string) (bool, error) {
	_, err := os.Stat(localPath(uri))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("iceio: stat %q: %w", uri, err)
	}
	return true, nil
}

func (LocalFileIO) Len(_ context.Context, uri string) (int64, error) {
	fi, err := os.Stat(localPath(uri))
	if err != nil {
		return 0, fmt.Errorf("iceio: stat %q: %w", uri, err)
	}
	return fi.Size(), nil
}

type localStream struct {
	*os.File
}

func (l *localStream) Tell() (int64, error) {
	return l.File.Seek(0, 1)
}
