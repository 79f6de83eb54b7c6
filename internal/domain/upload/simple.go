package upload

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math"
	"path"
	"strings"

	"github.com/rs/zerolog"

	"cinevault/services/upload-api/utils/uploadid"
)

// SimpleUploader handles files small enough to skip the resumable
// protocol: one request through the relay's storage backend.
type SimpleUploader struct {
	store ObjectStore
	log   zerolog.Logger
}

func NewSimpleUploader(store ObjectStore, log zerolog.Logger) *SimpleUploader {
	return &SimpleUploader{
		store: store,
		log:   log.With().Str("component", "simple-uploader").Logger(),
	}
}

// Upload sends the whole file in a single shot. Progress comes from the
// backend write, capped below 100 until the backend confirms.
func (u *SimpleUploader) Upload(ctx context.Context, file ByteRangeReadable, meta FileMeta, onProgress ProgressFunc) (*Result, error) {
	if file == nil || file.Len() <= 0 {
		return nil, NewInvalidArgument("upload source is empty or not range-readable")
	}
	if strings.TrimSpace(meta.Name) == "" {
		return nil, NewInvalidArgument("file name must not be empty")
	}

	size := file.Len()
	data, err := file.Range(0, size)
	if err != nil {
		return nil, NewInvalidArgument(err.Error())
	}

	var reader io.Reader = bytes.NewReader(data)
	if onProgress != nil {
		reader = &countingReader{
			r: reader,
			fn: func(sent int64) {
				pct := int(math.Round(float64(sent) / float64(size) * 100.0))
				if pct > 99 {
					pct = 99
				}
				onProgress(pct)
			},
		}
	}

	key := objectKey(meta.Name)
	result, err := u.store.Put(ctx, key, meta.Name, meta.MimeType, reader, size)
	if err != nil {
		return nil, err
	}
	if onProgress != nil {
		onProgress(100)
	}

	u.log.Debug().
		Str("key", key).
		Str("file", meta.Name).
		Int64("bytes", size).
		Msg("simple upload stored")
	return result, nil
}

func objectKey(name string) string {
	ext := path.Ext(name)
	return fmt.Sprintf("videos/%s%s", uploadid.New(), ext)
}

// countingReader reports cumulative bytes read through it.
type countingReader struct {
	r    io.Reader
	sent int64
	fn   func(sent int64)
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	if n > 0 {
		c.sent += int64(n)
		c.fn(c.sent)
	}
	return n, err
}
