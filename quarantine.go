package imagecull

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// ConflictPolicy decides what happens when the quarantine destination exists.
type ConflictPolicy string

const (
	ConflictOverwrite ConflictPolicy = "overwrite" // replace the existing file
	ConflictUniquify  ConflictPolicy = "uniquify"  // append -1, -2, ... before the extension
	ConflictFail      ConflictPolicy = "fail"      // leave the source in place and report
)

var (
	// ErrDestinationExists is returned under ConflictFail.
	ErrDestinationExists = errors.New("imagecull: quarantine destination exists")
	// ErrNotUnderRoot is returned for paths outside the dataset root.
	ErrNotUnderRoot = errors.New("imagecull: path is not under dataset root")
)

// maxUniquify bounds the suffix search under ConflictUniquify.
const maxUniquify = 10000

// Quarantine relocates files into a subtree that mirrors the dataset layout.
type Quarantine struct {
	Root   string
	Dir    string
	Policy ConflictPolicy
}

// NewQuarantine returns a mover for root whose quarantine subtree is dir.
func NewQuarantine(root, dir string, policy ConflictPolicy) *Quarantine {
	if policy == "" {
		policy = ConflictUniquify
	}
	return &Quarantine{Root: filepath.Clean(root), Dir: filepath.Clean(dir), Policy: policy}
}

// Destination returns the mirrored quarantine path for src, ignoring conflicts.
func (q *Quarantine) Destination(src string) (string, error) {
	rel, err := filepath.Rel(q.Root, src)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrNotUnderRoot, src)
	}
	return filepath.Join(q.Dir, rel), nil
}

// Move relocates src to its mirrored path under the quarantine subtree,
// creating parent directories as needed, and returns the final destination.
// A missing source is reported as an error wrapping fs.ErrNotExist.
func (q *Quarantine) Move(src string) (string, error) {
	if _, err := os.Lstat(src); err != nil {
		return "", fmt.Errorf("quarantine %s: %w", src, err)
	}

	dst, err := q.Destination(src)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("create quarantine directory: %w", err)
	}

	dst, err = q.resolveConflict(dst)
	if err != nil {
		return "", err
	}

	if err := os.Rename(src, dst); err != nil {
		if !isCrossDevice(err) {
			return "", fmt.Errorf("quarantine %s: %w", src, err)
		}
		if err := copyVerified(src, dst); err != nil {
			return "", fmt.Errorf("quarantine %s: %w", src, err)
		}
		if err := os.Remove(src); err != nil {
			return "", fmt.Errorf("remove after copy %s: %w", src, err)
		}
	}
	return dst, nil
}

func (q *Quarantine) resolveConflict(dst string) (string, error) {
	if _, err := os.Lstat(dst); errors.Is(err, fs.ErrNotExist) {
		return dst, nil
	} else if err != nil {
		return "", fmt.Errorf("stat destination: %w", err)
	}

	switch q.Policy {
	case ConflictOverwrite:
		return dst, nil
	case ConflictFail:
		return "", fmt.Errorf("%w: %s", ErrDestinationExists, dst)
	}

	ext := filepath.Ext(dst)
	base := strings.TrimSuffix(dst, ext)
	for i := 1; i <= maxUniquify; i++ {
		candidate := base + "-" + strconv.Itoa(i) + ext
		if _, err := os.Lstat(candidate); errors.Is(err, fs.ErrNotExist) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%w: no free name for %s", ErrDestinationExists, dst)
}

// copyVerified streams src to dst and checks size and SHA-256. Removes dst on mismatch.
func copyVerified(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	defer func() {
		_ = out.Close()
	}()

	srcHash := sha256.New()
	dstHash := sha256.New()
	written, err := io.Copy(io.MultiWriter(out, dstHash), io.TeeReader(in, srcHash))
	if err != nil {
		_ = out.Close()
		_ = os.Remove(dst)
		return err
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(dst)
		return err
	}

	if written != info.Size() || !bytes.Equal(srcHash.Sum(nil), dstHash.Sum(nil)) {
		_ = os.Remove(dst)
		return fmt.Errorf("copy verification failed: source %d bytes, copied %d bytes", info.Size(), written)
	}
	return nil
}
