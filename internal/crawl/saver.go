package crawl

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/skitterhq/skitter/internal/model"
)

// indexFilename is the leaf used for directory URLs.
const indexFilename = "index.html"

// savePath maps a URL onto a file path under dir, mirroring the host
// and path of the URL. Directory URLs get an index.html leaf; a query
// string stays part of the name so distinct resources get distinct
// files. Dot segments in the URL must not climb out of the save root.
func savePath(dir string, info *model.URLInfo) (string, error) {
	host := info.Host
	if !info.IsDefaultPort() {
		// Two servers on one host must not mix.
		host = fmt.Sprintf("%s:%d", info.Host, info.Port)
	}

	name := info.Path
	if strings.HasSuffix(name, "/") {
		name += indexFilename
	}
	if info.Query != "" {
		name += "?" + info.Query
	}

	root := filepath.Clean(dir)
	full := filepath.Join(root, host, filepath.FromSlash(strings.TrimPrefix(name, "/")))
	if !strings.HasPrefix(full, root+string(filepath.Separator)) {
		return "", fmt.Errorf("unsafe document path %q", info.Path)
	}
	return full, nil
}

// save writes a fetched body under the save directory and returns the
// file path.
func (p *Processor) save(info *model.URLInfo, body []byte) (string, error) {
	path, err := savePath(p.saveDir, info)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return "", fmt.Errorf("create document directory: %w", err)
	}
	if err := os.WriteFile(path, body, 0600); err != nil {
		return "", fmt.Errorf("write document: %w", err)
	}
	return path, nil
}
