package persistence

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

const (
	dirPerm  = 0750
	filePerm = 0644

	stagedBufferSize = 256 * 1024
)

// StagedFile is an output written to a temporary file in the destination directory
// and moved into place by Commit. Until then the destination is untouched.
type StagedFile struct {
	path string
	tmp  *os.File
	w    *bufio.Writer
}

// Stage creates the destination directory and a temporary file beside path.
func Stage(path string) (*StagedFile, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temporary file for %s: %w", path, err)
	}
	return &StagedFile{
		path: path,
		tmp:  tmp,
		w:    bufio.NewWriterSize(tmp, stagedBufferSize),
	}, nil
}

// Path returns the final destination path.
func (s *StagedFile) Path() string {
	return s.path
}

// Write implements io.Writer over a buffered view of the temporary file.
func (s *StagedFile) Write(p []byte) (int, error) {
	return s.w.Write(p)
}

// prepare flushes, syncs and closes the temporary file so it can be renamed.
func (s *StagedFile) prepare() error {
	if err := s.w.Flush(); err != nil {
		return err
	}
	if err := s.tmp.Sync(); err != nil {
		return err
	}
	if err := s.tmp.Chmod(filePerm); err != nil {
		return err
	}
	return s.tmp.Close()
}

// Commit flushes, syncs and renames the temporary file over the destination.
func (s *StagedFile) Commit() error {
	if err := s.prepare(); err != nil {
		s.Abort()
		return err
	}
	if err := os.Rename(s.tmp.Name(), s.path); err != nil {
		_ = os.Remove(s.tmp.Name())
		return err
	}
	return nil
}

// CommitError names the destination a group commit failed on.
type CommitError struct {
	Path string
	Err  error
}

func (e *CommitError) Error() string {
	return fmt.Sprintf("failed to commit %s: %v", e.Path, e.Err)
}

func (e *CommitError) Unwrap() error {
	return e.Err
}

// CommitAll moves every staged file into place as one unit. Existing destinations
// are moved aside first and restored if any rename fails, so on error every
// destination holds its previous content. All temporaries are gone on return.
func CommitAll(files ...*StagedFile) error {
	abortAll := func() {
		for _, f := range files {
			f.Abort()
		}
	}

	for _, f := range files {
		if info, err := os.Lstat(f.path); err == nil && info.IsDir() {
			abortAll()
			return &CommitError{Path: f.path, Err: fmt.Errorf("destination is a directory")}
		}
		if err := f.prepare(); err != nil {
			abortAll()
			return &CommitError{Path: f.path, Err: err}
		}
	}

	type moved struct {
		file   *StagedFile
		backup string // empty when the destination did not exist
	}
	var done []moved
	rollback := func() {
		for i := len(done) - 1; i >= 0; i-- {
			m := done[i]
			if m.backup != "" {
				_ = os.Rename(m.backup, m.file.path)
			} else {
				_ = os.Remove(m.file.path)
			}
		}
		abortAll()
	}

	for _, f := range files {
		backup := ""
		if _, err := os.Lstat(f.path); err == nil {
			backup = f.tmp.Name() + ".prev"
			if err := os.Rename(f.path, backup); err != nil {
				rollback()
				return &CommitError{Path: f.path, Err: err}
			}
		}
		if err := os.Rename(f.tmp.Name(), f.path); err != nil {
			if backup != "" {
				_ = os.Rename(backup, f.path)
			}
			rollback()
			return &CommitError{Path: f.path, Err: err}
		}
		done = append(done, moved{file: f, backup: backup})
	}

	for _, m := range done {
		if m.backup != "" {
			_ = os.Remove(m.backup)
		}
	}
	return nil
}

// Abort discards the temporary file. It is safe to call after a failed Commit.
func (s *StagedFile) Abort() {
	_ = s.tmp.Close()
	_ = os.Remove(s.tmp.Name())
}

// WriteFileAtomic stages path, lets write fill it and commits it.
func WriteFileAtomic(path string, write func(w io.Writer) error) error {
	staged, err := Stage(path)
	if err != nil {
		return err
	}
	if err := write(staged); err != nil {
		staged.Abort()
		return err
	}
	return staged.Commit()
}
