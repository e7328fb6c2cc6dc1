package fetch

import (
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/mab-007/elrond-stock-analyzer-be/internal/screen"
)

var scripFromName = regexp.MustCompile(`^\(([^)]+)\)_`)

// Filename builds the deterministic local name for a downloaded disclosure:
// "(<scrip>)_<url basename>". Downstream relies on this convention to
// recover the scrip code from the filename alone.
func Filename(scripCode, rawURL string) string {
	base := path.Base(rawURL)
	if u, err := url.Parse(rawURL); err == nil && u.Path != "" {
		base = path.Base(u.Path)
	}
	return fmt.Sprintf("(%s)_%s", scripCode, base)
}

// ScripFromFilename recovers the scrip code embedded in a downloaded
// filename, or "" when the name does not follow the convention.
func ScripFromFilename(name string) string {
	m := scripFromName.FindStringSubmatch(filepath.Base(name))
	if len(m) != 2 {
		return ""
	}
	return m[1]
}

// ListDownloaded scans a run directory and rebuilds the scrip→file pairing
// from the filename convention. A missing directory is an error the caller
// reports immediately; files that don't follow the convention are ignored.
func ListDownloaded(dir string) ([]screen.PDF, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("scan download dir: %w", err)
	}
	var pdfs []screen.PDF
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".pdf") {
			continue
		}
		scrip := ScripFromFilename(e.Name())
		if scrip == "" {
			continue
		}
		pdfs = append(pdfs, screen.PDF{ScripCode: scrip, Path: filepath.Join(dir, e.Name())})
	}
	return pdfs, nil
}
