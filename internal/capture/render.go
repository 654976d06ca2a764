package capture

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"golang.org/x/xerrors"
)

var imageFilePattern = regexp.MustCompile(`(?i).*(\.png|\.gif|\.jpg|\.jpeg|\.tiff|\.bmp)$`)

var unsafeNameCharacters = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Render returns a file holding the capture image. An existing Filename is
// reused only while the capture is unmodified and names an image file.
func (c *Context) Render(directory string) (string, bool, error) {
	if c.Filename != "" && !c.Modified() && imageFilePattern.MatchString(c.Filename) {
		if _, err := os.Stat(c.Filename); err == nil {
			return c.Filename, true, nil
		}
	}

	if len(c.Image) == 0 {
		return "", false, xerrors.New("capture has no image data")
	}

	if directory == "" {
		directory = os.TempDir()
	}
	if err := os.MkdirAll(directory, 0755); err != nil {
		return "", false, xerrors.Errorf("failed to create temp directory: %w", err)
	}

	path := filepath.Join(directory, c.BaseName())
	if err := os.WriteFile(path, c.Image, 0644); err != nil {
		return "", false, xerrors.Errorf("failed to write temp file: %w", err)
	}
	return path, false, nil
}

// BaseName is the file name used for rendered copies and storage keys.
func (c *Context) BaseName() string {
	stem := strings.Trim(unsafeNameCharacters.ReplaceAllString(c.Title, "_"), "_")
	if stem == "" {
		stem = "capture"
	}
	id := c.ID
	if len(id) > 8 {
		id = id[:8]
	}
	if id != "" {
		stem = fmt.Sprintf("%s-%s", stem, id)
	}
	return fmt.Sprintf("%s.%s", stem, c.extension())
}

func (c *Context) extension() string {
	switch strings.ToLower(c.Format) {
	case "jpeg", "jpg":
		return "jpg"
	case "":
		return "png"
	default:
		return strings.ToLower(c.Format)
	}
}
