package upload

import (
	"context"
	"io"
	"time"
)

// FileMeta describes the file being pushed to the storage provider.
type FileMeta struct {
	Name     string `json:"fileName" binding:"required"`
	Size     int64  `json:"fileSize" binding:"required"`
	MimeType string `json:"mimeType"`
	Origin   string `json:"origin,omitempty"`
}

// Result carries the identity and locators the provider returns on the
// completing chunk.
type Result struct {
	FileID         string `json:"id"`
	FileName       string `json:"name"`
	MimeType       string `json:"mimeType,omitempty"`
	Size           int64  `json:"size,omitempty"`
	WebViewLink    string `json:"webViewLink,omitempty"`
	WebContentLink string `json:"webContentLink,omitempty"`
}

// Session is the server-side bookkeeping of an open resumable transfer.
// The transfer endpoint is bearer-capability: once a caller holds the URL,
// no session lookup is required to keep uploading.
type Session struct {
	UploadID         string    `json:"uploadId"`
	TransferEndpoint string    `json:"resumableUri"`
	FileName         string    `json:"fileName"`
	FileSize         int64     `json:"fileSize"`
	MimeType         string    `json:"mimeType"`
	CreatedAt        time.Time `json:"createdAt"`
}

// ChunkOutcome classifies the provider's response to one chunk send.
type ChunkOutcome struct {
	Complete bool
	Result   *Result // set only when Complete
}

// ChunkParams carries one byte range to the transfer endpoint. End is
// inclusive, matching the provider's Content-Range convention.
type ChunkParams struct {
	Endpoint string
	Data     []byte
	Start    int64
	End      int64
	Total    int64
	// OnSent receives cumulative bytes written for this chunk only.
	OnSent func(sent int64)
}

// ProgressFunc receives whole-file progress as a percentage in [0,100].
type ProgressFunc func(percent int)

// Transport is the provider-facing protocol client. OpenSession returns
// the transfer endpoint URL; SendChunk relays one byte range and
// classifies the response. Neither call retries.
type Transport interface {
	OpenSession(ctx context.Context, meta FileMeta) (string, error)
	SendChunk(ctx context.Context, p ChunkParams) (ChunkOutcome, error)
}

// SessionRegistry records open resumable sessions for later lookup.
type SessionRegistry interface {
	Put(s Session) error
	Get(id string) (Session, bool)
}

// ObjectStore is the small-file storage backend behind the relay.
type ObjectStore interface {
	Put(ctx context.Context, key, name, contentType string, body io.Reader, size int64) (*Result, error)
	Get(ctx context.Context, key string) (io.ReadCloser, string, error)
}

// VideoFile is the catalog record of a completed upload.
type VideoFile struct {
	ID             string    `json:"id"`
	FileID         string    `json:"file_id"`
	FileName       string    `json:"file_name"`
	MimeType       string    `json:"mime"`
	Bytes          int64     `json:"bytes"`
	WebViewLink    string    `json:"web_view_link,omitempty"`
	WebContentLink string    `json:"web_content_link,omitempty"`
	CreatedBy      string    `json:"created_by,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Repository defines catalog persistence for completed uploads.
type Repository interface {
	Create(ctx context.Context, f *VideoFile) error
	GetByID(ctx context.Context, id string) (*VideoFile, error)
	List(ctx context.Context, limit int) ([]*VideoFile, error)
}
