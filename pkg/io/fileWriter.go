package io

import (
	"os"
	"path/filepath"
)

// MakeDirForFile creates all missing directories in the path leading to
// filePath, so the caller can then open filePath for writing. descr is
// used only to give context to the returned error.
func MakeDirForFile(filePath string, descr string) error {
	dir := filepath.Dir(filePath)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return &os.PathError{Op: "mkdir(" + descr + ")", Path: dir, Err: err}
	}
	return nil
}
