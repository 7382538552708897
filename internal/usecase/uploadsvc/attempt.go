package uploadsvc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/yourname/upload_lite/internal/models"
)

const (
	statusInitializing = "Initializing multipart upload..."
	statusSplitting    = "Splitting file and uploading parts..."
	statusPartFmt      = "Uploading part %d of %d..."
	statusFinalizing   = "Finalizing upload..."
	statusComplete     = "Upload complete!"
)

// ErrAttemptStarted возвращается при повторном запуске той же попытки.
var ErrAttemptStarted = errors.New("upload attempt already started")

// Attempt хранит контекст одной попытки загрузки (состояние, статус, прогресс).
// Каждая попытка независима, новую загрузку начинают через Service.Start.
type Attempt struct {
	ID string

	svc *Service
	log zerolog.Logger
	obs Observer

	// obsMu упорядочивает вызовы наблюдателя из тикера и основного потока.
	obsMu sync.Mutex

	mu      sync.Mutex
	state   models.State
	status  string
	err     error
	session string
	started bool

	prog   *progress
	finish sync.Once
}

// Start создаёт новую попытку в состоянии Idle.
func (s *Service) Start(obs Observer) *Attempt {
	if obs == nil {
		obs = nopObserver{}
	}
	a := &Attempt{
		ID:    uuid.NewString(),
		svc:   s,
		obs:   obs,
		state: models.StateIdle,
	}
	a.log = s.log.With().Str("attempt", a.ID).Logger()
	a.prog = newProgress(s.opts.TickInterval, a.emitProgress)
	return a
}

// State возвращает текущее состояние попытки.
func (a *Attempt) State() models.State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Status возвращает последний статус для пользователя.
func (a *Attempt) Status() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.status
}

// Err возвращает терминальную ошибку попытки или nil.
func (a *Attempt) Err() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.err
}

// SessionID: идентификатор multipart-сессии, известный после init.
func (a *Attempt) SessionID() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.session
}

// Progress возвращает текущий процент.
func (a *Attempt) Progress() int {
	return a.prog.current()
}

// Close не ждёт отложенного сброса и обнуляет прогресс сразу.
func (a *Attempt) Close() {
	a.prog.cancelReset()
}

// Run выполняет попытку целиком: init, разбиение, загрузка частей, complete.
func (a *Attempt) Run(ctx context.Context, apiKey string, req models.UploadRequest, src io.ReaderAt) (models.CompleteResult, error) {
	if !a.begin() {
		return models.CompleteResult{}, ErrAttemptStarted
	}
	defer a.end()

	a.prog.start()

	switch {
	case strings.TrimSpace(apiKey) == "":
		return a.fail(models.NewUploadError(models.ErrInvalidInput, models.ErrMissingAPIKey))
	case src == nil:
		return a.fail(models.NewUploadError(models.ErrInvalidInput, models.ErrMissingFile))
	case req.FileSize < 0:
		return a.fail(models.NewUploadError(models.ErrInvalidInput,
			fmt.Errorf("%w: negative file size %d", models.ErrInvalidInput, req.FileSize)))
	}

	a.setState(models.StateInitializing, statusInitializing)
	started := time.Now()

	init, err := a.svc.Gateway.Init(ctx, apiKey, req)
	if err != nil {
		return a.fail(models.NewUploadError(models.ErrInitFailed, err))
	}
	a.mu.Lock()
	a.session = init.SessionID
	a.mu.Unlock()
	log := a.log.With().Str("session", init.SessionID).Logger()

	a.setState(models.StateSplitting, statusSplitting)

	requested := init.NumberOfParts
	if requested < 1 {
		requested = len(init.Parts)
	}
	plan := Plan(req.FileSize, requested)
	if plan.Fallback {
		log.Warn().
			Int("requested", requested).
			Int("chunks", len(plan.Chunks)).
			Int64("size", req.FileSize).
			Msg("file too small for requested parts, using fewer")
	}
	if len(init.Parts) < len(plan.Chunks) {
		return a.fail(models.NewUploadError(models.ErrInitFailed,
			fmt.Errorf("%w: gateway returned %d part urls, need %d", models.ErrInitFailed, len(init.Parts), len(plan.Chunks))))
	}
	descriptors := init.Parts[:len(plan.Chunks)]

	a.setState(models.StateUploadingParts, statusSplitting)

	results, err := a.uploadParts(ctx, src, plan.Chunks, descriptors)
	if err != nil {
		a.abortSession(ctx, log, init.SessionID)
		return a.fail(err)
	}

	a.setState(models.StateFinalizing, statusFinalizing)

	res, err := a.svc.Gateway.Complete(ctx, apiKey, init.SessionID, results)
	if err != nil {
		a.abortSession(ctx, log, init.SessionID)
		return a.fail(models.NewUploadError(models.ErrCompleteFailed, err))
	}

	a.prog.advance(100)
	a.setState(models.StateCompleted, statusComplete)

	log.Info().
		Str("url", res.URL).
		Int("parts", len(results)).
		Int64("size", req.FileSize).
		Dur("took", time.Since(started)).
		Msg("upload completed")

	a.record(ctx, req, res, len(results))

	return res, nil
}

// RunFile открывает файл и загружает его. Пустой contentType определяется по содержимому.
func (a *Attempt) RunFile(ctx context.Context, apiKey, filePath, contentType string) (models.CompleteResult, error) {
	if strings.TrimSpace(apiKey) == "" || strings.TrimSpace(filePath) == "" {
		return a.Run(ctx, apiKey, models.UploadRequest{}, nil)
	}

	f, err := os.Open(filePath)
	if err != nil {
		return a.reject(err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return a.reject(err)
	}
	if info.IsDir() {
		return a.reject(fmt.Errorf("%s is a directory", filePath))
	}

	if contentType == "" {
		contentType = "application/octet-stream"
		if mt, errDetect := mimetype.DetectReader(io.NewSectionReader(f, 0, info.Size())); errDetect == nil {
			contentType = mt.String()
		}
	}

	req := models.UploadRequest{
		FileName:    filepath.Base(filePath),
		ContentType: contentType,
		FileSize:    info.Size(),
	}

	return a.Run(ctx, apiKey, req, f)
}

// reject завершает попытку с InvalidInput, не обращаясь к сети.
func (a *Attempt) reject(cause error) (models.CompleteResult, error) {
	if !a.begin() {
		return models.CompleteResult{}, ErrAttemptStarted
	}
	defer a.end()

	a.prog.start()
	return a.fail(models.NewUploadError(models.ErrInvalidInput, fmt.Errorf("%w: %v", models.ErrInvalidInput, cause)))
}

func (a *Attempt) begin() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.started {
		return false
	}
	a.started = true
	return true
}

// end гасит тикер и планирует сброс прогресса. Выполняется на любом пути выхода.
func (a *Attempt) end() {
	a.finish.Do(func() {
		a.prog.stop()
		a.prog.scheduleReset(a.svc.opts.ResetDelay)
	})
}

func (a *Attempt) fail(err error) (models.CompleteResult, error) {
	status := StatusText(err)

	a.mu.Lock()
	a.err = err
	a.state = models.StateErrored
	a.status = status
	a.mu.Unlock()

	// Статус раньше состояния: наблюдатель закрывает вывод на терминальном состоянии.
	a.notify(func(o Observer) {
		o.OnStatus(status)
		o.OnState(models.StateErrored)
	})

	ev := a.log.Error().Err(err)
	if a.SessionID() != "" {
		ev = ev.Str("session", a.SessionID())
	}
	ev.Msg("upload failed")

	return models.CompleteResult{}, err
}

func (a *Attempt) setState(state models.State, status string) {
	a.mu.Lock()
	changed := a.state != state
	statusChanged := a.status != status
	a.state = state
	a.status = status
	a.mu.Unlock()

	a.notify(func(o Observer) {
		if statusChanged {
			o.OnStatus(status)
		}
		if changed {
			o.OnState(state)
		}
	})
}

func (a *Attempt) setStatus(status string) {
	a.mu.Lock()
	a.status = status
	a.mu.Unlock()

	a.notify(func(o Observer) { o.OnStatus(status) })
}

func (a *Attempt) emitProgress(v int) {
	a.notify(func(o Observer) { o.OnProgress(v) })
}

func (a *Attempt) notify(fn func(Observer)) {
	a.obsMu.Lock()
	defer a.obsMu.Unlock()
	fn(a.obs)
}

// abortSession освобождает части на шлюзе, если это включено в Options.
// Ошибка отмены только логируется: исход попытки уже определён.
func (a *Attempt) abortSession(ctx context.Context, log zerolog.Logger, sessionID string) {
	if !a.svc.opts.AbortOnFailure {
		return
	}
	aborter, ok := a.svc.Gateway.(SessionAborter)
	if !ok {
		return
	}
	if err := aborter.Abort(context.WithoutCancel(ctx), sessionID); err != nil {
		log.Warn().Err(err).Msg("abort session")
		return
	}
	log.Info().Msg("session aborted")
}

// record пишет запись в журнал. Ошибка журнала не влияет на результат загрузки.
func (a *Attempt) record(ctx context.Context, req models.UploadRequest, res models.CompleteResult, parts int) {
	if a.svc.History == nil {
		return
	}
	rec := models.UploadRecord{
		ID:          a.ID,
		SessionID:   res.SessionID,
		FileName:    req.FileName,
		ContentType: req.ContentType,
		Size:        req.FileSize,
		Parts:       parts,
		URL:         res.URL,
		CreatedAt:   time.Now().UTC(),
	}
	if rec.SessionID == "" {
		rec.SessionID = a.SessionID()
	}
	if err := a.svc.History.Save(context.WithoutCancel(ctx), rec); err != nil {
		a.log.Warn().Err(err).Msg("save upload history")
	}
}
