package upload

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"cinevault/services/upload-api/internal/domain/retry"
	"cinevault/services/upload-api/utils/uploadid"
)

// OrchestratorOptions tune the chunked transfer loop.
type OrchestratorOptions struct {
	ChunkSize int64
	Retry     retry.Policy
	Sleeper   retry.Sleeper
	Logger    zerolog.Logger
}

// Orchestrator drives one file through the provider's resumable protocol:
// a single session handshake, then fixed-size chunks in strictly ascending
// order. The protocol requires contiguous ordered byte ranges, so there is
// no parallel variant of this loop.
type Orchestrator struct {
	transport Transport
	sessions  SessionRegistry
	chunkSize int64
	policy    retry.Policy
	sleeper   retry.Sleeper
	log       zerolog.Logger
}

func NewOrchestrator(transport Transport, sessions SessionRegistry, opts OrchestratorOptions) *Orchestrator {
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = 8 * 1024 * 1024
	}
	if opts.Retry.MaxAttempts < 1 {
		opts.Retry = retry.DefaultPolicy()
	}
	if opts.Sleeper == nil {
		opts.Sleeper = retry.TimerSleeper{}
	}
	return &Orchestrator{
		transport: transport,
		sessions:  sessions,
		chunkSize: opts.ChunkSize,
		policy:    opts.Retry,
		sleeper:   opts.Sleeper,
		log:       opts.Logger.With().Str("component", "upload-orchestrator").Logger(),
	}
}

// Initiate opens a resumable session with the provider and registers it.
// Initiation failures are never retried here; the caller decides whether
// to re-invoke the whole handshake.
func (o *Orchestrator) Initiate(ctx context.Context, meta FileMeta) (*Session, error) {
	if strings.TrimSpace(meta.Name) == "" {
		return nil, NewInvalidArgument("file name must not be empty")
	}
	if meta.Size <= 0 {
		return nil, NewInvalidArgument("file size must be positive")
	}

	endpoint, err := o.transport.OpenSession(ctx, meta)
	if err != nil {
		return nil, err
	}

	session := Session{
		UploadID:         uploadid.New(),
		TransferEndpoint: endpoint,
		FileName:         meta.Name,
		FileSize:         meta.Size,
		MimeType:         meta.MimeType,
		CreatedAt:        time.Now().UTC(),
	}
	if o.sessions != nil {
		if err := o.sessions.Put(session); err != nil {
			o.log.Warn().Err(err).Str("upload_id", session.UploadID).Msg("record upload session")
		}
	}

	o.log.Info().
		Str("upload_id", session.UploadID).
		Str("file", meta.Name).
		Int64("size", meta.Size).
		Msg("resumable session opened")
	return &session, nil
}

// Upload pushes the whole file through a fresh resumable session.
// Progress never reports 100 until the provider signals completion, and
// the provider's Complete is authoritative even with bytes nominally
// unsent. There is no resume across invocations: any terminal failure
// means the caller restarts from Initiate.
func (o *Orchestrator) Upload(ctx context.Context, file ByteRangeReadable, meta FileMeta, onProgress ProgressFunc) (*Result, error) {
	if file == nil || file.Len() <= 0 {
		return nil, NewInvalidArgument("upload source is empty or not range-readable")
	}
	if meta.Size == 0 {
		meta.Size = file.Len()
	}
	if meta.Size != file.Len() {
		return nil, NewInvalidArgument("declared size does not match the upload source")
	}

	session, err := o.Initiate(ctx, meta)
	if err != nil {
		return nil, err
	}

	report := newProgressReporter(onProgress)
	total := meta.Size

	for start := int64(0); start < total; start += o.chunkSize {
		end := start + o.chunkSize
		if end > total {
			end = total
		}

		data, err := file.Range(start, end)
		if err != nil {
			return nil, NewInvalidArgument(err.Error())
		}

		outcome, err := o.sendWithRetry(ctx, ChunkParams{
			Endpoint: session.TransferEndpoint,
			Data:     data,
			Start:    start,
			End:      end - 1,
			Total:    total,
			OnSent: func(sent int64) {
				report.cumulative(start+sent, total)
			},
		})
		if err != nil {
			return nil, err
		}

		if outcome.Complete {
			if outcome.Result == nil {
				return nil, NewProtocol("provider signalled completion without a result body")
			}
			report.done()
			o.log.Info().
				Str("upload_id", session.UploadID).
				Str("file_id", outcome.Result.FileID).
				Msg("upload completed")
			return outcome.Result, nil
		}

		report.cumulative(end, total)
	}

	// Every chunk was accepted as partial; the provider never confirmed.
	return nil, NewProtocol("upload completed but no completion response received")
}

// sendWithRetry resends the exact same byte range until it succeeds or
// attempts run out. The cursor never advances on failure.
func (o *Orchestrator) sendWithRetry(ctx context.Context, params ChunkParams) (ChunkOutcome, error) {
	var lastErr error

	for attempt := 1; attempt <= o.policy.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return ChunkOutcome{}, err
		}

		outcome, err := o.transport.SendChunk(ctx, params)
		if err == nil {
			return outcome, nil
		}
		lastErr = err

		if !IsRetryable(err) || attempt == o.policy.MaxAttempts {
			break
		}

		delay := o.policy.CalculateDelay(attempt)
		o.log.Warn().
			Err(err).
			Int64("range_start", params.Start).
			Int64("range_end", params.End).
			Int("attempt", attempt).
			Int("max_attempts", o.policy.MaxAttempts).
			Dur("retry_delay", delay).
			Msg("chunk send failed, retrying same range")

		if err := o.sleeper.Sleep(ctx, delay); err != nil {
			return ChunkOutcome{}, err
		}
	}

	return ChunkOutcome{}, lastErr
}

// progressReporter converts cumulative bytes into whole-file percentages,
// keeps them monotonically non-decreasing, and caps below 100 until the
// provider durably accepts the data.
type progressReporter struct {
	fn   ProgressFunc
	last int
}

func newProgressReporter(fn ProgressFunc) *progressReporter {
	return &progressReporter{fn: fn, last: -1}
}

func (r *progressReporter) cumulative(sent, total int64) {
	if r.fn == nil || total <= 0 {
		return
	}
	pct := int(math.Round(float64(sent) / float64(total) * 100.0))
	if pct > 99 {
		pct = 99
	}
	r.emit(pct)
}

func (r *progressReporter) done() {
	if r.fn == nil {
		return
	}
	r.emit(100)
}

func (r *progressReporter) emit(pct int) {
	if pct <= r.last {
		return
	}
	r.last = pct
	r.fn(pct)
}
