package handlers_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cinevault/services/upload-api/internal/domain/upload"
	filerepo "cinevault/services/upload-api/internal/infrastructure/repository/file"
	"cinevault/services/upload-api/internal/interfaces/httpserver/handlers"
)

type MockCatalogService struct {
	GetFileFunc   func(ctx context.Context, id string) (*upload.VideoFile, error)
	ListFilesFunc func(ctx context.Context, limit int) ([]*upload.VideoFile, error)
}

func (m *MockCatalogService) GetFile(ctx context.Context, id string) (*upload.VideoFile, error) {
	return m.GetFileFunc(ctx, id)
}

func (m *MockCatalogService) ListFiles(ctx context.Context, limit int) ([]*upload.VideoFile, error) {
	return m.ListFilesFunc(ctx, limit)
}

type stubObjectStore struct {
	content     string
	contentType string
	err         error
}

func (s *stubObjectStore) Put(ctx context.Context, key, name, contentType string, body io.Reader, size int64) (*upload.Result, error) {
	return nil, nil
}

func (s *stubObjectStore) Get(ctx context.Context, key string) (io.ReadCloser, string, error) {
	if s.err != nil {
		return nil, "", s.err
	}
	return io.NopCloser(strings.NewReader(s.content)), s.contentType, nil
}

func newFileRouter(service *MockCatalogService, store upload.ObjectStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := handlers.NewFileHandler(service, store, zerolog.Nop())
	router := gin.New()
	router.GET("/v1/files", handler.List)
	router.GET("/v1/files/:id", handler.Get)
	router.GET("/v1/files/:id/download", handler.Download)
	return router
}

func TestGetFileReturnsRecord(t *testing.T) {
	service := &MockCatalogService{
		GetFileFunc: func(ctx context.Context, id string) (*upload.VideoFile, error) {
			assert.Equal(t, "up_01H", id)
			return &upload.VideoFile{ID: id, FileID: "f-1", FileName: "trailer.mp4", Bytes: 2048}, nil
		},
	}
	router := newFileRouter(service, &stubObjectStore{})

	recorder := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/files/up_01H", nil)
	router.ServeHTTP(recorder, req)

	require.Equal(t, http.StatusOK, recorder.Code)
	var body upload.VideoFile
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	assert.Equal(t, "f-1", body.FileID)
	assert.Equal(t, "trailer.mp4", body.FileName)
}

func TestGetFileNotFound(t *testing.T) {
	service := &MockCatalogService{
		GetFileFunc: func(ctx context.Context, id string) (*upload.VideoFile, error) {
			return nil, filerepo.ErrNotFound
		},
	}
	router := newFileRouter(service, &stubObjectStore{})

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/v1/files/nope", nil))
	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestListFilesPassesLimit(t *testing.T) {
	var gotLimit int
	service := &MockCatalogService{
		ListFilesFunc: func(ctx context.Context, limit int) ([]*upload.VideoFile, error) {
			gotLimit = limit
			return []*upload.VideoFile{{ID: "a"}, {ID: "b"}}, nil
		},
	}
	router := newFileRouter(service, &stubObjectStore{})

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/v1/files?limit=7", nil))

	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, 7, gotLimit)
	var body []upload.VideoFile
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	assert.Len(t, body, 2)
}

func TestDownloadStreamsContent(t *testing.T) {
	service := &MockCatalogService{
		GetFileFunc: func(ctx context.Context, id string) (*upload.VideoFile, error) {
			return &upload.VideoFile{ID: id, FileID: "f-1", FileName: "trailer.mp4", Bytes: 11}, nil
		},
	}
	store := &stubObjectStore{content: "movie bytes", contentType: "video/mp4"}
	router := newFileRouter(service, store)

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/v1/files/up_01H/download", nil))

	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "movie bytes", recorder.Body.String())
	assert.Equal(t, "video/mp4", recorder.Header().Get("Content-Type"))
	assert.Contains(t, recorder.Header().Get("Content-Disposition"), "trailer.mp4")
}

func TestDownloadStoreFailure(t *testing.T) {
	service := &MockCatalogService{
		GetFileFunc: func(ctx context.Context, id string) (*upload.VideoFile, error) {
			return &upload.VideoFile{ID: id, FileID: "f-1"}, nil
		},
	}
	store := &stubObjectStore{err: upload.NewUpstream(http.StatusBadGateway, "provider unavailable")}
	router := newFileRouter(service, store)

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/v1/files/up_01H/download", nil))
	assert.Equal(t, http.StatusBadGateway, recorder.Code)
}
