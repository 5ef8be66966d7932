package recordsync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/spec-kit/complaint-service/internal/config"
)

// FolderRef identifies a folder in the document store.
type FolderRef struct {
	ID  string
	URL string
}

// FileRef identifies an uploaded file.
type FileRef struct {
	ID  string
	URL string
}

// DocumentStore is the folder/file collaborator contract.
type DocumentStore interface {
	// EnsureFolder creates the folder if absent and returns its reference
	// either way.
	EnsureFolder(ctx context.Context, path string) (*FolderRef, error)
	UploadFile(ctx context.Context, folderID, fileName, mimeType string, content []byte) (*FileRef, error)
}

// Spreadsheet is the row-keeping collaborator contract.
type Spreadsheet interface {
	AppendRow(ctx context.Context, row Row) (int64, error)
	UpdateRow(ctx context.Context, rowIndex int64, row Row) error
}

const sharedSecretHeader = "X-Sync-Secret"

// collaboratorClient carries the plumbing both HTTP clients share. Every
// request sends the shared secret; an unauthorized response is surfaced as an
// ordinary error so callers retry it like any other collaborator failure.
type collaboratorClient struct {
	baseURL string
	secret  string
	client  *http.Client
}

func (c *collaboratorClient) postJSON(ctx context.Context, path string, body any, out any) error {
	return c.doJSON(ctx, http.MethodPost, path, body, out)
}

func (c *collaboratorClient) putJSON(ctx context.Context, path string, body any, out any) error {
	return c.doJSON(ctx, http.MethodPut, path, body, out)
}

func (c *collaboratorClient) doJSON(ctx context.Context, method, path string, body any, out any) error {
	encoded, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(encoded))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(sharedSecretHeader, c.secret)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("sync collaborator: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("sync collaborator rejected shared secret (status %d)", resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("sync collaborator: status %d", resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

type docStoreClient struct {
	collaboratorClient
}

// NewDocStoreClient builds the HTTP document store client.
func NewDocStoreClient(cfg config.SyncConfig) DocumentStore {
	return &docStoreClient{collaboratorClient{
		baseURL: cfg.DocStoreBaseURL,
		secret:  cfg.SharedSecret,
		client:  &http.Client{Timeout: syncTimeout(cfg)},
	}}
}

func (c *docStoreClient) EnsureFolder(ctx context.Context, path string) (*FolderRef, error) {
	var decoded struct {
		ID  string `json:"id"`
		URL string `json:"url"`
	}
	if err := c.postJSON(ctx, "/folders", map[string]string{"path": path}, &decoded); err != nil {
		return nil, err
	}
	return &FolderRef{ID: decoded.ID, URL: decoded.URL}, nil
}

func (c *docStoreClient) UploadFile(ctx context.Context, folderID, fileName, mimeType string, content []byte) (*FileRef, error) {
	var decoded struct {
		ID  string `json:"id"`
		URL string `json:"url"`
	}
	body := map[string]any{
		"folder_id": folderID,
		"file_name": fileName,
		"mime_type": mimeType,
		"content":   content,
	}
	if err := c.postJSON(ctx, "/files", body, &decoded); err != nil {
		return nil, err
	}
	return &FileRef{ID: decoded.ID, URL: decoded.URL}, nil
}

type sheetClient struct {
	collaboratorClient
}

// NewSheetClient builds the HTTP spreadsheet client.
func NewSheetClient(cfg config.SyncConfig) Spreadsheet {
	return &sheetClient{collaboratorClient{
		baseURL: cfg.SheetBaseURL,
		secret:  cfg.SharedSecret,
		client:  &http.Client{Timeout: syncTimeout(cfg)},
	}}
}

func (c *sheetClient) AppendRow(ctx context.Context, row Row) (int64, error) {
	var decoded struct {
		RowIndex int64 `json:"row_index"`
	}
	if err := c.postJSON(ctx, "/rows", row, &decoded); err != nil {
		return 0, err
	}
	return decoded.RowIndex, nil
}

func (c *sheetClient) UpdateRow(ctx context.Context, rowIndex int64, row Row) error {
	return c.putJSON(ctx, fmt.Sprintf("/rows/%d", rowIndex), row, nil)
}

func syncTimeout(cfg config.SyncConfig) time.Duration {
	if cfg.TimeoutSeconds <= 0 {
		return 15 * time.Second
	}
	return time.Duration(cfg.TimeoutSeconds) * time.Second
}
