package uploadsvc

import (
	"context"
	"fmt"
	"io"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/yourname/upload_lite/internal/models"
)

// uploadParts загружает чанки по выделенным адресам и возвращает токены в порядке partNumber.
func (a *Attempt) uploadParts(ctx context.Context, src io.ReaderAt, chunks []models.Chunk, parts []models.PartDescriptor) ([]models.PartResult, error) {
	if a.svc.opts.Concurrency > 1 && len(chunks) > 1 {
		return a.uploadParallel(ctx, src, chunks, parts)
	}
	return a.uploadSequential(ctx, src, chunks, parts)
}

// uploadSequential: строго по порядку: следующая часть стартует после ответа на предыдущую.
func (a *Attempt) uploadSequential(ctx context.Context, src io.ReaderAt, chunks []models.Chunk, parts []models.PartDescriptor) ([]models.PartResult, error) {
	total := len(chunks)
	results := make([]models.PartResult, 0, total)

	for idx, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return nil, models.NewPartError(idx, err)
		}

		a.setStatus(fmt.Sprintf(statusPartFmt, idx+1, total))

		etag, err := a.sendPart(ctx, src, chunk, parts[idx], total)
		if err != nil {
			return nil, models.NewPartError(idx, err)
		}

		results = append(results, models.PartResult{PartNumber: parts[idx].PartNumber, ETag: etag})
	}

	return results, nil
}

// sendPart грузит одну часть, пока тикер анимирует прогресс, затем доводит его до цели части.
func (a *Attempt) sendPart(ctx context.Context, src io.ReaderAt, chunk models.Chunk, part models.PartDescriptor, total int) (string, error) {
	from, target := partBounds(chunk.Index, total)
	stop := a.prog.interpolate(from, target)
	defer stop()

	etag, err := a.put(ctx, src, chunk, part)
	stop()
	if err != nil {
		return "", err
	}

	a.prog.advance(target)
	a.log.Debug().
		Int("part", part.PartNumber).
		Int64("size", chunk.Size).
		Str("etag", etag).
		Msg("part uploaded")

	return etag, nil
}

// uploadParallel держит в полёте не больше Concurrency частей. Токены кладутся по индексу,
// поэтому порядок в complete не зависит от порядка ответов.
func (a *Attempt) uploadParallel(ctx context.Context, src io.ReaderAt, chunks []models.Chunk, parts []models.PartDescriptor) ([]models.PartResult, error) {
	total := len(chunks)
	results := make([]models.PartResult, total)

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(a.svc.opts.Concurrency)

	var (
		mu   sync.Mutex
		done int
	)

	for idx, chunk := range chunks {
		if egCtx.Err() != nil {
			break
		}
		eg.Go(func() error {
			etag, err := a.put(egCtx, src, chunk, parts[idx])
			if err != nil {
				return models.NewPartError(idx, err)
			}
			results[idx] = models.PartResult{PartNumber: parts[idx].PartNumber, ETag: etag}

			mu.Lock()
			defer mu.Unlock()
			done++
			_, target := partBounds(done-1, total)
			a.prog.advance(target)
			a.setStatus(fmt.Sprintf(statusPartFmt, done, total))
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		for idx := range results {
			if results[idx].PartNumber == 0 {
				return nil, models.NewPartError(idx, err)
			}
		}
	}

	return results, nil
}

// put читает байты чанка из src и отправляет их одним PUT.
func (a *Attempt) put(ctx context.Context, src io.ReaderAt, chunk models.Chunk, part models.PartDescriptor) (string, error) {
	if a.svc.opts.PartTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.svc.opts.PartTimeout)
		defer cancel()
	}

	body := io.NewSectionReader(src, chunk.Offset, chunk.Size)
	return a.svc.Parts.UploadPart(ctx, part.URL, body, chunk.Size)
}
