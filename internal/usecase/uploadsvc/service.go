package uploadsvc

import (
	"context"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/yourname/upload_lite/internal/models"
)

type (
	// Gateway описывает удалённый сервис сессий, который выделяет адреса частей и собирает итоговый объект.
	Gateway interface {
		Init(ctx context.Context, apiKey string, req models.UploadRequest) (models.InitResult, error)
		Complete(ctx context.Context, apiKey, sessionID string, parts []models.PartResult) (models.CompleteResult, error)
	}

	// PartUploader отправляет байты одной части и возвращает её ETag.
	PartUploader interface {
		UploadPart(ctx context.Context, url string, body io.Reader, size int64) (string, error)
	}

	// HistoryRecorder сохраняет запись о завершённой загрузке.
	HistoryRecorder interface {
		Save(ctx context.Context, rec models.UploadRecord) error
	}

	// SessionAborter умеет отменить незавершённую сессию. Реализуется шлюзом по желанию.
	SessionAborter interface {
		Abort(ctx context.Context, sessionID string) error
	}

	// Observer получает прогресс, статус и смену состояний одной попытки.
	// Методы вызываются последовательно и не должны обращаться обратно к попытке.
	Observer interface {
		OnProgress(percent int)
		OnStatus(status string)
		OnState(state models.State)
	}
)

// Deps: внешние зависимости оркестратора.
type Deps struct {
	Gateway Gateway
	Parts   PartUploader
	History HistoryRecorder
	Logger  *zerolog.Logger
}

// Options настраивает поведение попыток.
type Options struct {
	// Concurrency: сколько частей грузится одновременно. 0 и 1 означают строго по порядку.
	Concurrency int
	// TickInterval: период «оптимистичного» прогресса во время загрузки части. <= 0 отключает его.
	TickInterval time.Duration
	// ResetDelay задаёт паузу перед сбросом прогресса в 0 после окончания попытки. <= 0 сбрасывает сразу.
	ResetDelay time.Duration
	// PartTimeout ограничивает время загрузки одной части, 0 снимает ограничение.
	PartTimeout time.Duration
	// AbortOnFailure отменяет сессию на шлюзе, если попытка упала после init.
	// Работает только со шлюзом, реализующим SessionAborter.
	AbortOnFailure bool
}

// DefaultOptions возвращает значения, совпадающие с поведением веб-клиента.
func DefaultOptions() Options {
	return Options{
		Concurrency:  1,
		TickInterval: 120 * time.Millisecond,
		ResetDelay:   1500 * time.Millisecond,
	}
}

// Service запускает попытки загрузки. Общего изменяемого состояния между попытками нет.
type Service struct {
	Deps
	opts Options
	log  zerolog.Logger
}

// New конструирует сервис загрузки с заданными зависимостями.
func New(deps Deps, opts Options) *Service {
	log := zerolog.Nop()
	if deps.Logger != nil {
		log = *deps.Logger
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	return &Service{Deps: deps, opts: opts, log: log}
}

// Options возвращает действующие настройки.
func (s *Service) Options() Options {
	return s.opts
}

// Upload запускает новую попытку и ждёт её окончания.
func (s *Service) Upload(ctx context.Context, apiKey string, req models.UploadRequest, src io.ReaderAt, obs Observer) (models.CompleteResult, error) {
	return s.Start(obs).Run(ctx, apiKey, req, src)
}

// UploadFile загружает файл с диска; пустой contentType определяется по содержимому.
func (s *Service) UploadFile(ctx context.Context, apiKey, filePath, contentType string, obs Observer) (models.CompleteResult, error) {
	return s.Start(obs).RunFile(ctx, apiKey, filePath, contentType)
}

// nopObserver используется, когда наблюдатель не передан.
type nopObserver struct{}

func (nopObserver) OnProgress(int)       {}
func (nopObserver) OnStatus(string)      {}
func (nopObserver) OnState(models.State) {}
