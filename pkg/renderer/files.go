package renderer

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// WriteFile writes data to outputPath through a temporary file in the same
// directory, so a failed write never leaves a partial document behind.
func WriteFile(data []byte, outputPath string) (err error) {
	tmpName, err := writeTemp(data, outputPath)
	if err != nil {
		return err
	}

	err = os.Rename(tmpName, outputPath)
	if err != nil {
		_ = os.Remove(tmpName)
		err = errors.Wrapf(err, "failed to move document into place: %s", outputPath)
		return err
	}

	return err
}

// WriteFileExclusive is WriteFile for targets that must not exist yet.
// The link fails with an os.ErrExist error when outputPath is already taken.
func WriteFileExclusive(data []byte, outputPath string) (err error) {
	tmpName, err := writeTemp(data, outputPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = os.Remove(tmpName)
	}()

	err = os.Link(tmpName, outputPath)
	if err != nil {
		err = errors.Wrapf(err, "failed to link document into place: %s", outputPath)
		return err
	}

	return err
}

// writeTemp leaves data in a finished temporary file next to outputPath.
func writeTemp(data []byte, outputPath string) (tmpName string, err error) {
	outputDir := filepath.Dir(outputPath)
	err = os.MkdirAll(outputDir, 0750)
	if err != nil {
		err = errors.Wrapf(err, "failed to create output directory: %s", outputDir)
		return tmpName, err
	}

	var tmp *os.File
	tmp, err = os.CreateTemp(outputDir, "."+filepath.Base(outputPath)+".*.tmp")
	if err != nil {
		err = errors.Wrapf(err, "failed to create temporary file in: %s", outputDir)
		return tmpName, err
	}
	tmpName = tmp.Name()

	defer func() {
		if err != nil {
			_ = os.Remove(tmpName)
			tmpName = ""
		}
	}()

	_, err = tmp.Write(data)
	if err != nil {
		_ = tmp.Close()
		err = errors.Wrapf(err, "failed to write document: %s", outputPath)
		return tmpName, err
	}

	err = tmp.Close()
	if err != nil {
		err = errors.Wrapf(err, "failed to close document: %s", outputPath)
		return tmpName, err
	}

	err = os.Chmod(tmpName, 0600)
	if err != nil {
		err = errors.Wrapf(err, "failed to set permissions on: %s", outputPath)
		return tmpName, err
	}

	return tmpName, err
}

// Cleanup removes generated files, ignoring ones that are already gone.
func Cleanup(paths ...string) (err error) {
	for _, path := range paths {
		err = os.Remove(path)
		if err != nil && !os.IsNotExist(err) {
			err = errors.Wrapf(err, "failed to remove file: %s", path)
			return err
		}
		err = nil
	}
	return err
}
