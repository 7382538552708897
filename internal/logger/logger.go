// Package logger настраивает zerolog для всех бинарей.
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Options: параметры логгера из секции log конфига.
type Options struct {
	Level string
	// File задаёт путь к файлу логов. Если пусто, пишем в Out.
	File string
	// JSON отключает человекочитаемый ConsoleWriter.
	JSON bool
	Out  io.Writer
}

// New собирает логгер. Возвращённая функция закрывает файл логов, если он был открыт.
func New(opts Options) (zerolog.Logger, func() error, error) {
	var (
		w       io.Writer = os.Stderr
		closeFn           = func() error { return nil }
	)
	if opts.Out != nil {
		w = opts.Out
	}
	if opts.File != "" {
		file, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return zerolog.Nop(), closeFn, err
		}
		w = file
		closeFn = file.Close
	}
	if !opts.JSON {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339, NoColor: opts.File != ""}
	}

	level, err := ParseLevel(opts.Level)
	if err != nil {
		_ = closeFn()
		return zerolog.Nop(), func() error { return nil }, err
	}

	return zerolog.New(w).Level(level).With().Timestamp().Logger(), closeFn, nil
}

// ParseLevel разбирает уровень; пустая строка означает info.
func ParseLevel(s string) (zerolog.Level, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return zerolog.InfoLevel, nil
	}
	return zerolog.ParseLevel(s)
}
