// Package media downloads inbound attachments to local files so downstream
// consumers can read them without re-fetching provider URLs, which expire.
package media

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// maxDownloadSize caps attachment downloads at 50 MB.
const maxDownloadSize = 50 << 20

// Store downloads attachments into a local directory.
type Store struct {
	dir    string
	client *http.Client
}

// NewStore creates a media store writing into dir.
func NewStore(dir string) *Store {
	return &Store{
		dir:    dir,
		client: &http.Client{Timeout: 60 * time.Second},
	}
}

// WithHTTPClient overrides the HTTP client (useful for testing).
func (s *Store) WithHTTPClient(client *http.Client) *Store {
	s.client = client
	return s
}

// Download fetches the attachment at url and writes it to a uniquely named
// file, returning the local path. filename and mimeType are hints for the
// file extension and may be empty.
func (s *Store) Download(ctx context.Context, url, filename, mimeType string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("create download request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("download attachment: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download attachment: unexpected status %d", resp.StatusCode)
	}

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return "", fmt.Errorf("create media directory: %w", err)
	}

	path := filepath.Join(s.dir, uuid.NewString()+extensionFor(filename, mimeType))
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return "", fmt.Errorf("create media file: %w", err)
	}

	_, err = io.Copy(f, io.LimitReader(resp.Body, maxDownloadSize))
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(path)
		return "", fmt.Errorf("write media file: %w", err)
	}

	return path, nil
}

// extensionFor picks a file extension from the filename hint, falling back
// to the MIME type. Returns empty when neither yields one.
func extensionFor(filename, mimeType string) string {
	if ext := filepath.Ext(filename); ext != "" && len(ext) <= 8 {
		return strings.ToLower(ext)
	}
	if mimeType != "" {
		if exts, err := mime.ExtensionsByType(mimeType); err == nil && len(exts) > 0 {
			return exts[0]
		}
	}
	return ""
}
