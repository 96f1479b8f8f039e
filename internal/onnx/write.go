package onnx

import (
	"fmt"
	"os"
	"path/filepath"
)

// WriteFile writes data to path atomically.
//
// The bytes go to a temporary file in the same directory which is renamed
// over path once fully written, so readers never observe a partial model and
// a failed write leaves any previous file in place.
func WriteFile(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return fmt.Errorf("failed to write model: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("failed to sync model: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close model: %w", err)
	}
	if err = os.Chmod(tmp.Name(), 0o644); err != nil { //nolint:gosec // G302: model files are meant to be shared
		return fmt.Errorf("failed to set model permissions: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move model into place: %w", err)
	}
	return nil
}
