package imagecull

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestQuarantineMove_MirrorsRelativePath(t *testing.T) {
	root := t.TempDir()
	qdir := filepath.Join(root, "quarantine")
	src := writeFile(t, filepath.Join(root, "animals", "cats", "tom.jpg"), "tom")

	q := NewQuarantine(root, qdir, ConflictUniquify)
	dst, err := q.Move(src)
	if err != nil {
		t.Fatal(err)
	}

	want := filepath.Join(qdir, "animals", "cats", "tom.jpg")
	if dst != want {
		t.Errorf("Move() = %q, want %q", dst, want)
	}
	if exists(t, src) {
		t.Error("source still present after move")
	}
	got, err := os.ReadFile(want)
	if err != nil || string(got) != "tom" {
		t.Errorf("quarantined content = %q, %v", got, err)
	}
}

func TestQuarantineMove_MissingSource(t *testing.T) {
	root := t.TempDir()
	q := NewQuarantine(root, filepath.Join(root, "quarantine"), ConflictUniquify)

	_, err := q.Move(filepath.Join(root, "cats", "gone.jpg"))
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("Move() error = %v, want fs.ErrNotExist", err)
	}
}

func TestQuarantineMove_OutsideRoot(t *testing.T) {
	root := t.TempDir()
	outside := writeFile(t, filepath.Join(t.TempDir(), "x.jpg"), "x")
	q := NewQuarantine(root, filepath.Join(root, "quarantine"), ConflictUniquify)

	if _, err := q.Move(outside); !errors.Is(err, ErrNotUnderRoot) {
		t.Fatalf("Move() error = %v, want ErrNotUnderRoot", err)
	}
	if !exists(t, outside) {
		t.Error("file outside root must not move")
	}
}

func TestQuarantineMove_ConflictPolicies(t *testing.T) {
	tests := []struct {
		policy   ConflictPolicy
		wantName string
		wantErr  error
		wantOld  string // content left at the original destination
	}{
		{ConflictUniquify, "tom-2.jpg", nil, "old"},
		{ConflictOverwrite, "tom.jpg", nil, "new"},
		{ConflictFail, "", ErrDestinationExists, "old"},
	}

	for _, tc := range tests {
		t.Run(string(tc.policy), func(t *testing.T) {
			root := t.TempDir()
			qdir := filepath.Join(root, "quarantine")
			writeFile(t, filepath.Join(qdir, "cats", "tom.jpg"), "old")
			writeFile(t, filepath.Join(qdir, "cats", "tom-1.jpg"), "older")
			src := writeFile(t, filepath.Join(root, "cats", "tom.jpg"), "new")

			dst, err := NewQuarantine(root, qdir, tc.policy).Move(src)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("Move() error = %v, want %v", err, tc.wantErr)
			}
			if tc.wantErr != nil {
				if !exists(t, src) {
					t.Error("source must stay in place when the move is refused")
				}
			} else if filepath.Base(dst) != tc.wantName {
				t.Errorf("Move() = %q, want base %q", dst, tc.wantName)
			}

			old, _ := os.ReadFile(filepath.Join(qdir, "cats", "tom.jpg"))
			if string(old) != tc.wantOld {
				t.Errorf("existing destination content = %q, want %q", old, tc.wantOld)
			}
		})
	}
}

func TestCopyVerified(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, filepath.Join(dir, "src.bin"), "payload")
	dst := filepath.Join(dir, "dst.bin")

	if err := copyVerified(src, dst); err != nil {
		t.Fatal(err)
	}
	got, err := os.ReadFile(dst)
	if err != nil || string(got) != "payload" {
		t.Fatalf("copy = %q, %v", got, err)
	}
}

func TestCopyVerified_RemovesPartialOnReadError(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("reading a directory handle is not an error on windows")
	}
	dir := t.TempDir()
	src := filepath.Join(dir, "not-a-file")
	if err := os.Mkdir(src, 0o755); err != nil {
		t.Fatal(err)
	}
	dst := filepath.Join(dir, "dst.bin")

	if err := copyVerified(src, dst); err == nil {
		t.Fatal("copyVerified() error = nil, want read error")
	}
	if _, err := os.Lstat(dst); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("partial destination left behind: %v", err)
	}
}
