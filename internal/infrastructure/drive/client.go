// Package drive implements the storage provider's resumable upload
// protocol: open a session, PUT contiguous byte ranges, read 308 as
// partial acceptance and 200/201 as completion.
package drive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"cinevault/services/upload-api/internal/config"
	"cinevault/services/upload-api/internal/domain/upload"
	"cinevault/services/upload-api/internal/infrastructure/metrics"
)

// TokenSource supplies a bearer credential for provider calls.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Client talks to the provider's upload and file APIs. It never retries:
// retry belongs to the orchestrator, which alone knows how many attempts
// remain and that a failed range must be resent whole.
type Client struct {
	uploadBase string
	apiBase    string
	folderID   string
	origin     string
	tokens     TokenSource
	httpClient *http.Client
	log        zerolog.Logger
}

func NewClient(cfg *config.Config, tokens TokenSource, log zerolog.Logger) *Client {
	return &Client{
		uploadBase: cfg.DriveUploadBaseURL,
		apiBase:    cfg.DriveAPIBaseURL,
		folderID:   cfg.DriveFolderID,
		origin:     cfg.DriveCORSOrigin,
		tokens:     tokens,
		httpClient: &http.Client{Timeout: cfg.DriveTimeout},
		log:        log.With().Str("component", "drive-client").Logger(),
	}
}

type sessionMetadata struct {
	Name    string   `json:"name"`
	Parents []string `json:"parents,omitempty"`
}

// OpenSession performs the resumable handshake and returns the transfer
// endpoint from the Location header. A 2xx response without that header
// is a provider protocol violation, not something to ignore.
func (c *Client) OpenSession(ctx context.Context, meta upload.FileMeta) (string, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return "", upload.NewUnauthorized("obtain provider credential", err)
	}

	payload := sessionMetadata{Name: meta.Name}
	if c.folderID != "" {
		payload.Parents = []string{c.folderID}
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal session metadata: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.uploadBase+"?uploadType=resumable", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build session request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json; charset=UTF-8")
	req.Header.Set("X-Upload-Content-Type", meta.MimeType)
	req.Header.Set("X-Upload-Content-Length", strconv.FormatInt(meta.Size, 10))
	origin := meta.Origin
	if origin == "" {
		origin = c.origin
	}
	if origin != "" {
		req.Header.Set("Origin", origin)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.ProviderRequestDuration.WithLabelValues("open_session").Observe(time.Since(start).Seconds())
	if err != nil {
		return "", upload.NewNetwork(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		return "", upload.NewUpstream(resp.StatusCode, providerErrorMessage(raw))
	}

	endpoint := resp.Header.Get("Location")
	if endpoint == "" {
		return "", upload.NewUpstream(resp.StatusCode, "resumable session response is missing the Location header")
	}
	return endpoint, nil
}

// SendChunk relays one byte range to the transfer endpoint. The exact
// header shape `Content-Range: bytes {start}-{end}/{total}` is the
// provider contract. 308 means partial acceptance; 200/201 completion.
func (c *Client) SendChunk(ctx context.Context, p upload.ChunkParams) (upload.ChunkOutcome, error) {
	var body io.Reader = bytes.NewReader(p.Data)
	if p.OnSent != nil {
		body = &sendReader{r: body, fn: p.OnSent}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, p.Endpoint, body)
	if err != nil {
		return upload.ChunkOutcome{}, fmt.Errorf("build chunk request: %w", err)
	}
	req.ContentLength = int64(len(p.Data))
	req.Header.Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", p.Start, p.End, p.Total))

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.ProviderRequestDuration.WithLabelValues("send_chunk").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ChunkSendsTotal.WithLabelValues("network_error").Inc()
		return upload.ChunkOutcome{}, upload.NewNetwork(err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusPermanentRedirect: // 308: resume incomplete
		io.Copy(io.Discard, resp.Body)
		metrics.ChunkSendsTotal.WithLabelValues("incomplete").Inc()
		return upload.ChunkOutcome{}, nil
	case http.StatusOK, http.StatusCreated:
		result, err := decodeResult(resp.Body)
		if err != nil {
			metrics.ChunkSendsTotal.WithLabelValues("bad_body").Inc()
			return upload.ChunkOutcome{}, upload.NewUpstream(resp.StatusCode, "invalid response format")
		}
		metrics.ChunkSendsTotal.WithLabelValues("complete").Inc()
		return upload.ChunkOutcome{Complete: true, Result: result}, nil
	default:
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		metrics.ChunkSendsTotal.WithLabelValues("error").Inc()
		return upload.ChunkOutcome{}, upload.NewUpstream(resp.StatusCode, providerErrorMessage(raw))
	}
}

// SimpleUpload pushes a small file in one multipart/related request.
func (c *Client) SimpleUpload(ctx context.Context, name, contentType string, body io.Reader, size int64) (*upload.Result, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, upload.NewUnauthorized("obtain provider credential", err)
	}

	payload := sessionMetadata{Name: name}
	if c.folderID != "" {
		payload.Parents = []string{c.folderID}
	}
	meta, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal file metadata: %w", err)
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	metaPart, err := writer.CreatePart(textproto.MIMEHeader{
		"Content-Type": {"application/json; charset=UTF-8"},
	})
	if err != nil {
		return nil, fmt.Errorf("create metadata part: %w", err)
	}
	if _, err := metaPart.Write(meta); err != nil {
		return nil, fmt.Errorf("write metadata part: %w", err)
	}

	filePart, err := writer.CreatePart(textproto.MIMEHeader{
		"Content-Type": {contentType},
	})
	if err != nil {
		return nil, fmt.Errorf("create file part: %w", err)
	}
	if _, err := io.Copy(filePart, body); err != nil {
		return nil, fmt.Errorf("write file part: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("finish multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.uploadBase+"?uploadType=multipart", &buf)
	if err != nil {
		return nil, fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "multipart/related; boundary="+writer.Boundary())

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.ProviderRequestDuration.WithLabelValues("simple_upload").Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, upload.NewNetwork(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		return nil, upload.NewUpstream(resp.StatusCode, providerErrorMessage(raw))
	}

	result, err := decodeResult(resp.Body)
	if err != nil {
		return nil, upload.NewUpstream(resp.StatusCode, "invalid response format")
	}
	return result, nil
}

// Download streams a stored file's content.
func (c *Client) Download(ctx context.Context, fileID string) (io.ReadCloser, string, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, "", upload.NewUnauthorized("obtain provider credential", err)
	}

	url := fmt.Sprintf("%s/files/%s?alt=media", c.apiBase, fileID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("build download request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", upload.NewNetwork(err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		resp.Body.Close()
		return nil, "", upload.NewUpstream(resp.StatusCode, providerErrorMessage(raw))
	}
	return resp.Body, resp.Header.Get("Content-Type"), nil
}

// resultWire tolerates the provider serializing size as either a JSON
// number or a quoted int64 string.
type resultWire struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	MimeType       string          `json:"mimeType"`
	Size           json.RawMessage `json:"size"`
	WebViewLink    string          `json:"webViewLink"`
	WebContentLink string          `json:"webContentLink"`
}

func decodeResult(r io.Reader) (*upload.Result, error) {
	var wire resultWire
	if err := json.NewDecoder(r).Decode(&wire); err != nil {
		return nil, err
	}
	if wire.ID == "" {
		return nil, fmt.Errorf("completion body has no file id")
	}
	return &upload.Result{
		FileID:         wire.ID,
		FileName:       wire.Name,
		MimeType:       wire.MimeType,
		Size:           parseSize(wire.Size),
		WebViewLink:    wire.WebViewLink,
		WebContentLink: wire.WebContentLink,
	}, nil
}

func parseSize(raw json.RawMessage) int64 {
	if len(raw) == 0 {
		return 0
	}
	trimmed := bytes.Trim(bytes.TrimSpace(raw), `"`)
	size, err := strconv.ParseInt(string(trimmed), 10, 64)
	if err != nil {
		return 0
	}
	return size
}

// providerErrorMessage best-effort extracts a human-readable message
// from a provider error body.
func providerErrorMessage(raw []byte) string {
	var wrapped struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil && wrapped.Error.Message != "" {
		return wrapped.Error.Message
	}

	var flat struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &flat); err == nil {
		if flat.Message != "" {
			return flat.Message
		}
		if flat.Error != "" {
			return flat.Error
		}
	}
	return "provider returned an error"
}

// sendReader reports cumulative bytes read for the in-flight chunk only;
// the orchestrator converts that into whole-file progress.
type sendReader struct {
	r    io.Reader
	sent int64
	fn   func(sent int64)
}

func (s *sendReader) Read(p []byte) (int, error) {
	n, err := s.r.Read(p)
	if n > 0 {
		s.sent += int64(n)
		s.fn(s.sent)
	}
	return n, err
}
