// Package assets reads JSON files bundled with the application. They are the
// last-resort source of cached items when nothing is cached and the platform
// API is unreachable.
package assets

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"

	"github.com/bytedance/sonic"
)

// ErrNotFound is returned when an asset does not exist.
var ErrNotFound = errors.New("asset not found")

// Reader reads bundled assets from a file system.
type Reader struct {
	fsys fs.FS
}

// New creates a Reader over fsys, e.g. an embed.FS.
func New(fsys fs.FS) *Reader {
	if fsys == nil {
		panic("assets: file system cannot be nil")
	}
	return &Reader{fsys: fsys}
}

// Dir creates a Reader rooted at dir on the local disk.
func Dir(dir string) *Reader {
	return New(os.DirFS(dir))
}

// Read returns the contents of the asset at name. Names are slash separated
// and relative to the root; a leading slash is ignored.
func (r *Reader) Read(name string) ([]byte, error) {
	name = path.Clean(strings.TrimPrefix(name, "/"))

	data, err := fs.ReadFile(r.fsys, name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("read asset %s: %w", name, err)
	}
	return data, nil
}

// ReadJSON decodes the asset at name into T.
func ReadJSON[T any](r *Reader, name string) (T, error) {
	var v T

	data, err := r.Read(name)
	if err != nil {
		return v, err
	}
	if err := sonic.ConfigStd.Unmarshal(data, &v); err != nil {
		return v, fmt.Errorf("decode asset %s: %w", name, err)
	}
	return v, nil
}
