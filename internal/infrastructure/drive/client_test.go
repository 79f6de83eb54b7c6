package drive_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cinevault/services/upload-api/internal/config"
	"cinevault/services/upload-api/internal/domain/upload"
	"cinevault/services/upload-api/internal/infrastructure/drive"
)

type staticTokens struct{ token string }

func (s staticTokens) Token(ctx context.Context) (string, error) { return s.token, nil }

func newTestClient(serverURL string) *drive.Client {
	cfg := &config.Config{
		DriveUploadBaseURL: serverURL + "/upload/files",
		DriveAPIBaseURL:    serverURL + "/api",
		DriveFolderID:      "folder-1",
		DriveCORSOrigin:    "https://app.example.com",
		DriveTimeout:       5 * time.Second,
	}
	return drive.NewClient(cfg, staticTokens{token: "tok-123"}, zerolog.Nop())
}

func TestOpenSessionSendsHandshakeHeaders(t *testing.T) {
	var got *http.Request
	var body map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Clone(context.Background())
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Location", "https://provider.test/upload/xyz")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	endpoint, err := client.OpenSession(context.Background(), upload.FileMeta{
		Name:     "movie.mp4",
		Size:     1024,
		MimeType: "video/mp4",
	})

	require.NoError(t, err)
	assert.Equal(t, "https://provider.test/upload/xyz", endpoint)

	assert.Equal(t, http.MethodPost, got.Method)
	assert.Equal(t, "resumable", got.URL.Query().Get("uploadType"))
	assert.Equal(t, "Bearer tok-123", got.Header.Get("Authorization"))
	assert.Equal(t, "application/json; charset=UTF-8", got.Header.Get("Content-Type"))
	assert.Equal(t, "video/mp4", got.Header.Get("X-Upload-Content-Type"))
	assert.Equal(t, "1024", got.Header.Get("X-Upload-Content-Length"))
	assert.Equal(t, "https://app.example.com", got.Header.Get("Origin"))

	assert.Equal(t, "movie.mp4", body["name"])
	assert.Equal(t, []any{"folder-1"}, body["parents"])
}

func TestOpenSessionMissingLocationIsUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.OpenSession(context.Background(), upload.FileMeta{Name: "a", Size: 1, MimeType: "video/mp4"})

	require.Error(t, err)
	assert.Equal(t, upload.KindUpstream, upload.KindOf(err))
}

func TestOpenSessionParsesProviderErrorBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		io.WriteString(w, `{"error":{"message":"quota exceeded"}}`)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.OpenSession(context.Background(), upload.FileMeta{Name: "a", Size: 1, MimeType: "video/mp4"})

	require.Error(t, err)
	assert.Equal(t, upload.KindUpstream, upload.KindOf(err))
	assert.Contains(t, err.Error(), "quota exceeded")

	var uploadErr *upload.Error
	require.ErrorAs(t, err, &uploadErr)
	assert.Equal(t, http.StatusForbidden, uploadErr.StatusCode)
}

func TestSendChunkContentRangeAndIncomplete(t *testing.T) {
	var contentRange string
	var received []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentRange = r.Header.Get("Content-Range")
		received, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusPermanentRedirect)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	outcome, err := client.SendChunk(context.Background(), upload.ChunkParams{
		Endpoint: server.URL + "/session/1",
		Data:     []byte("hello"),
		Start:    10,
		End:      14,
		Total:    100,
	})

	require.NoError(t, err)
	assert.False(t, outcome.Complete)
	assert.Equal(t, "bytes 10-14/100", contentRange)
	assert.Equal(t, []byte("hello"), received)
}

func TestSendChunkCompletionParsesResult(t *testing.T) {
	for _, status := range []int{http.StatusOK, http.StatusCreated} {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
			// size comes back as a quoted string from the provider
			io.WriteString(w, `{"id":"f-1","name":"movie.mp4","mimeType":"video/mp4","size":"2048","webViewLink":"https://view","webContentLink":"https://content"}`)
		}))

		client := newTestClient(server.URL)
		outcome, err := client.SendChunk(context.Background(), upload.ChunkParams{
			Endpoint: server.URL, Data: []byte("x"), Start: 0, End: 0, Total: 1,
		})
		server.Close()

		require.NoError(t, err)
		require.True(t, outcome.Complete)
		require.NotNil(t, outcome.Result)
		assert.Equal(t, "f-1", outcome.Result.FileID)
		assert.Equal(t, int64(2048), outcome.Result.Size)
		assert.Equal(t, "https://view", outcome.Result.WebViewLink)
	}
}

func TestSendChunkNumericSize(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"id":"f-2","size":512}`)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	outcome, err := client.SendChunk(context.Background(), upload.ChunkParams{
		Endpoint: server.URL, Data: []byte("x"), Start: 0, End: 0, Total: 1,
	})

	require.NoError(t, err)
	assert.Equal(t, int64(512), outcome.Result.Size)
}

func TestSendChunkMalformedCompletionBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `not json at all`)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.SendChunk(context.Background(), upload.ChunkParams{
		Endpoint: server.URL, Data: []byte("x"), Start: 0, End: 0, Total: 1,
	})

	require.Error(t, err)
	assert.Equal(t, upload.KindUpstream, upload.KindOf(err))
	assert.Contains(t, err.Error(), "invalid response format")
}

func TestSendChunkUnexpectedStatusIsUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		io.WriteString(w, `{"error":"overloaded"}`)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.SendChunk(context.Background(), upload.ChunkParams{
		Endpoint: server.URL, Data: []byte("x"), Start: 0, End: 0, Total: 1,
	})

	require.Error(t, err)
	assert.Equal(t, upload.KindUpstream, upload.KindOf(err))
	assert.True(t, upload.IsRetryable(err))
	assert.Contains(t, err.Error(), "overloaded")
}

func TestSendChunkNetworkFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // refuse connections

	client := newTestClient(server.URL)
	_, err := client.SendChunk(context.Background(), upload.ChunkParams{
		Endpoint: server.URL, Data: []byte("x"), Start: 0, End: 0, Total: 1,
	})

	require.Error(t, err)
	assert.Equal(t, upload.KindNetwork, upload.KindOf(err))
	assert.True(t, upload.IsRetryable(err))
}

func TestSendChunkReportsSentBytes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.Copy(io.Discard, r.Body)
		w.WriteHeader(http.StatusPermanentRedirect)
	}))
	defer server.Close()

	var last int64
	client := newTestClient(server.URL)
	_, err := client.SendChunk(context.Background(), upload.ChunkParams{
		Endpoint: server.URL,
		Data:     make([]byte, 1<<16),
		Start:    0,
		End:      (1 << 16) - 1,
		Total:    1 << 20,
		OnSent:   func(sent int64) { last = sent },
	})

	require.NoError(t, err)
	assert.Equal(t, int64(1<<16), last)
}

func TestSimpleUploadMultipartRelated(t *testing.T) {
	var contentType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
		assert.Equal(t, "multipart", r.URL.Query().Get("uploadType"))
		io.WriteString(w, `{"id":"f-3","name":"poster.png","mimeType":"image/png","size":"64"}`)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	result, err := client.SimpleUpload(context.Background(), "poster.png", "image/png", bytesReader(64), 64)

	require.NoError(t, err)
	assert.Equal(t, "f-3", result.FileID)
	assert.Equal(t, int64(64), result.Size)
	assert.Contains(t, contentType, "multipart/related; boundary=")
}

func TestDownloadStreamsContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/files/f-1", r.URL.Path)
		assert.Equal(t, "media", r.URL.Query().Get("alt"))
		w.Header().Set("Content-Type", "video/mp4")
		io.WriteString(w, "content-bytes")
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	body, mime, err := client.Download(context.Background(), "f-1")

	require.NoError(t, err)
	defer body.Close()
	data, _ := io.ReadAll(body)
	assert.Equal(t, "content-bytes", string(data))
	assert.Equal(t, "video/mp4", mime)
}

func bytesReader(n int) io.Reader {
	return io.LimitReader(neverEnding('a'), int64(n))
}

type neverEnding byte

func (b neverEnding) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = byte(b)
	}
	return len(p), nil
}
