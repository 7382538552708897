package uploadsvc

import "github.com/yourname/upload_lite/internal/models"

// MinPartSize: минимальный размер части, который принимает хранилище (кроме последней).
const MinPartSize int64 = 5 << 20

// SplitPlan: результат разбиения файла.
type SplitPlan struct {
	Chunks []models.Chunk
	// Fallback выставлен, когда сервер запросил больше частей, чем позволяет размер файла.
	Fallback bool
}

// Split делит файл размера fileSize на части с учётом числа частей, выделенного сервером.
func Split(fileSize int64, requestedParts int) []models.Chunk {
	return Plan(fileSize, requestedParts).Chunks
}

// Plan вычисляет разбиение и сообщает, пришлось ли уменьшить число частей.
//
// Файл не больше MinPartSize всегда уходит одной частью. Иначе первые requestedParts-1
// частей имеют размер MinPartSize, а последняя забирает остаток. Если файла не хватает
// на requestedParts частей, берётся максимум полных частей плюс непустой хвост.
// Пустой файл даёт одну пустую часть.
func Plan(fileSize int64, requestedParts int) SplitPlan {
	if requestedParts < 1 {
		requestedParts = 1
	}
	if fileSize <= MinPartSize {
		return SplitPlan{Chunks: []models.Chunk{{Index: 0, Offset: 0, Size: fileSize}}}
	}

	// Условие fileSize <= (requestedParts-1)*MinPartSize без умножения: произведение
	// переполняется на огромном requestedParts от сервера. Равенство тоже fallback,
	// иначе последняя часть вышла бы пустой.
	full := fileSize / MinPartSize
	if extra := int64(requestedParts - 1); extra > full || (extra == full && fileSize%MinPartSize == 0) {
		chunks := fixedChunks(int(full))
		if tail := fileSize - full*MinPartSize; tail > 0 {
			chunks = append(chunks, models.Chunk{Index: int(full), Offset: full * MinPartSize, Size: tail})
		}
		return SplitPlan{Chunks: chunks, Fallback: true}
	}

	chunks := fixedChunks(requestedParts - 1)
	offset := int64(requestedParts-1) * MinPartSize
	chunks = append(chunks, models.Chunk{Index: requestedParts - 1, Offset: offset, Size: fileSize - offset})

	return SplitPlan{Chunks: chunks}
}

// fixedChunks возвращает count частей по MinPartSize подряд с начала файла.
func fixedChunks(count int) []models.Chunk {
	chunks := make([]models.Chunk, 0, count+1)
	for i := 0; i < count; i++ {
		chunks = append(chunks, models.Chunk{Index: i, Offset: int64(i) * MinPartSize, Size: MinPartSize})
	}
	return chunks
}
