package fileutil

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"golang.org/x/sys/unix"
)

// ErrDestinationExists reports a move or copy onto an existing path.
var ErrDestinationExists = errors.New("destination already exists")

// MoveFile relocates src to dst without overwriting. Moves across filesystems
// fall back to a verified copy followed by removal of src.
func MoveFile(src, dst string) error {
	if _, err := os.Lstat(dst); err == nil {
		return fmt.Errorf("move %s: %w: %s", src, ErrDestinationExists, dst)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat destination: %w", err)
	}

	err := os.Rename(src, dst)
	if err == nil {
		return nil
	}
	if !errors.Is(err, unix.EXDEV) {
		return fmt.Errorf("move %s: %w", src, err)
	}

	if err := CopyFileVerified(src, dst); err != nil {
		return fmt.Errorf("move %s across devices: %w", src, err)
	}
	if err := os.Remove(src); err != nil {
		return fmt.Errorf("remove %s after copy: %w", src, err)
	}
	return nil
}

// CopyFileVerified copies src to a new file dst, syncs it, and re-reads dst
// to confirm its size and SHA-256 match the source. dst must not exist; it is
// removed when the copy fails or does not verify.
func CopyFileVerified(src, dst string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, info.Mode().Perm())
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("%w: %s", ErrDestinationExists, dst)
		}
		return err
	}
	defer func() {
		if err != nil {
			_ = os.Remove(dst)
		}
	}()

	srcHash := sha256.New()
	written, err := io.Copy(out, io.TeeReader(in, srcHash))
	if err == nil {
		err = out.Sync()
	}
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return err
	}
	if written != info.Size() {
		return fmt.Errorf("copy size mismatch: source %d bytes, copied %d bytes", info.Size(), written)
	}

	want := hex.EncodeToString(srcHash.Sum(nil))
	got, err := SHA256File(dst)
	if err != nil {
		return fmt.Errorf("verify copy: %w", err)
	}
	if got != want {
		return fmt.Errorf("copy hash mismatch: %s has %s, source has %s", dst, got, want)
	}
	return nil
}

// SHA256File returns the lowercase hex digest of the file at path.
func SHA256File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, f); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}
