package attachments

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// DiskStorage keeps attachment files in one directory under random names.
type DiskStorage struct {
	Dir string
}

func NewDiskStorage(dir string) (*DiskStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskStorage{Dir: dir}, nil
}

// Save writes body to a new file and returns its reference, which is the file
// name inside Dir.
func (d *DiskStorage) Save(ctx context.Context, fileName string, body io.Reader) (string, int64, error) {
	if err := ctx.Err(); err != nil {
		return "", 0, err
	}
	ref := uuid.New().String() + strings.ToLower(filepath.Ext(fileName))
	path := filepath.Join(d.Dir, ref)
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", 0, err
	}
	size, err := io.Copy(file, body)
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(path)
		return "", 0, fmt.Errorf("write attachment: %w", err)
	}
	return ref, size, nil
}

func (d *DiskStorage) Delete(_ context.Context, ref string) error {
	path, err := d.path(ref)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Open returns the stored file for ref.
func (d *DiskStorage) Open(ref string) (*os.File, error) {
	path, err := d.path(ref)
	if err != nil {
		return nil, err
	}
	return os.Open(path)
}

func (d *DiskStorage) path(ref string) (string, error) {
	if ref == "" || ref != filepath.Base(ref) {
		return "", fmt.Errorf("invalid attachment ref %q", ref)
	}
	return filepath.Join(d.Dir, ref), nil
}
