// Package sandbox forwards project file trees to the code-execution runtime.
// Mounting is fire-and-forget from the caller's perspective: failures are
// logged and never affect the chat session.
package sandbox

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/codecollab-io/codecollab/filetree"
)

// Mounter pushes a file tree into an execution environment
type Mounter interface {
	Mount(ctx context.Context, projectID string, tree *filetree.Tree) error
}

// HTTPMounter posts the tree to a remote runner endpoint
type HTTPMounter struct {
	baseURL string
	client  *http.Client
}

// NewHTTPMounter creates a mounter targeting the given runner base URL
func NewHTTPMounter(baseURL string) *HTTPMounter {
	return &HTTPMounter{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (m *HTTPMounter) Mount(ctx context.Context, projectID string, tree *filetree.Tree) error {
	body, err := json.Marshal(map[string]interface{}{
		"projectId": projectID,
		"fileTree":  tree,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/mount", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("sandbox mount: unexpected status %d", resp.StatusCode)
	}
	return nil
}

// DirMounter materializes the tree under a per-project directory, the local
// stand-in for a container runtime. Each mount wipes the previous contents
// so the directory mirrors the tree wholesale.
type DirMounter struct {
	root string
}

// NewDirMounter creates a mounter writing under the given root directory
func NewDirMounter(root string) *DirMounter {
	return &DirMounter{root: root}
}

func (m *DirMounter) Mount(ctx context.Context, projectID string, tree *filetree.Tree) error {
	dir := filepath.Join(m.root, projectID)

	if err := os.RemoveAll(dir); err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	return tree.Walk(func(path string, f *filetree.File) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		target := filepath.Join(dir, filepath.FromSlash(path))
		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return err
		}
		return os.WriteFile(target, []byte(f.Contents), 0644)
	})
}

// NopMounter is used when no sandbox is configured
type NopMounter struct{}

func (NopMounter) Mount(ctx context.Context, projectID string, tree *filetree.Tree) error {
	return nil
}
