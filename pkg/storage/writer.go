package storage

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"time"

	roerrors "roparse/pkg/errors"
)

// TimestampLayout is the local-time stamp embedded in output filenames
const TimestampLayout = "20060102-150405"

// Filename returns the output filename for a run of groupID started at t
func Filename(groupID string, t time.Time) string {
	return fmt.Sprintf("users_%s-%s.txt", groupID, t.Format(TimestampLayout))
}

// Writer persists collected usernames as a line-oriented text file
type Writer struct {
	outputDir string
}

// NewWriter creates a writer placing files in outputDir
func NewWriter(outputDir string) *Writer {
	if outputDir == "" {
		outputDir = "."
	}
	return &Writer{outputDir: outputDir}
}

// Path returns the full path of filename inside the output directory
func (w *Writer) Path(filename string) string {
	return filepath.Join(w.outputDir, filename)
}

// Write stores usernames one per line, each followed by "\n", replacing any
// existing file at path. The content is written to a temporary file first
// and renamed into place.
func (w *Writer) Write(path string, usernames []string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return roerrors.Wrap(roerrors.ErrorTypeIO, err, "failed to create output directory")
	}

	tempFile := path + ".tmp"
	out, err := os.Create(tempFile)
	if err != nil {
		return roerrors.Wrap(roerrors.ErrorTypeIO, err, "failed to create temporary file")
	}

	buf := bufio.NewWriter(out)
	for _, username := range usernames {
		if _, err = buf.WriteString(username); err != nil {
			break
		}
		if err = buf.WriteByte('\n'); err != nil {
			break
		}
	}
	if err == nil {
		err = buf.Flush()
	}
	closeErr := out.Close()

	if err != nil {
		os.Remove(tempFile)
		return roerrors.Wrap(roerrors.ErrorTypeIO, err, "failed to write results")
	}

	if closeErr != nil {
		os.Remove(tempFile)
		return roerrors.Wrap(roerrors.ErrorTypeIO, closeErr, "failed to close file")
	}

	if err := os.Rename(tempFile, path); err != nil {
		os.Remove(tempFile)
		return roerrors.Wrap(roerrors.ErrorTypeIO, err, "failed to rename temporary file")
	}

	return nil
}
