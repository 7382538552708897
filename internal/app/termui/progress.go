// Package termui рисует прогресс попытки загрузки в терминале.
package termui

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/yourname/upload_lite/internal/models"
)

const (
	progressBarWidth     = 32
	progressRenderPeriod = 120 * time.Millisecond
)

// ProgressBar рисует ASCII-индикатор попытки с процентом и последним статусом.
// Реализует uploadsvc.Observer.
type ProgressBar struct {
	out    io.Writer
	prefix string

	mu            sync.Mutex
	percent       int
	status        string
	lastRender    time.Time
	lastLineWidth int
	finished      bool
	now           func() time.Time
}

// NewProgressBar создаёт индикатор, который пишет в out.
func NewProgressBar(out io.Writer, prefix string) *ProgressBar {
	return &ProgressBar{out: out, prefix: prefix, now: time.Now}
}

// OnProgress перерисовывает строку не чаще progressRenderPeriod.
func (p *ProgressBar) OnProgress(percent int) {
	p.mu.Lock()
	if p.finished {
		p.mu.Unlock()
		return
	}
	p.percent = percent
	p.mu.Unlock()
	p.render(false)
}

// OnStatus перерисовывает строку сразу: статусы редкие.
func (p *ProgressBar) OnStatus(status string) {
	p.mu.Lock()
	if p.finished {
		p.mu.Unlock()
		return
	}
	p.status = status
	p.mu.Unlock()
	p.render(true)
}

// OnState закрывает строку на терминальном состоянии.
func (p *ProgressBar) OnState(state models.State) {
	if state.Terminal() {
		p.finish(state == models.StateCompleted)
	}
}

func (p *ProgressBar) render(force bool) {
	p.mu.Lock()
	if p.finished {
		p.mu.Unlock()
		return
	}
	now := p.now()
	if !force && now.Sub(p.lastRender) < progressRenderPeriod {
		p.mu.Unlock()
		return
	}

	line := p.lineLocked()
	padding := p.paddingLocked(len(line))
	p.lastRender = now
	p.mu.Unlock()

	fmt.Fprintf(p.out, "\r%s%s", line, padding)
}

func (p *ProgressBar) lineLocked() string {
	var builder strings.Builder
	builder.Grow(len(p.prefix) + len(p.status) + 64)
	if p.prefix != "" {
		builder.WriteString(p.prefix)
		builder.WriteByte(' ')
	}

	filled := p.percent * progressBarWidth / 100
	if filled > progressBarWidth {
		filled = progressBarWidth
	}
	if filled < 0 {
		filled = 0
	}
	builder.WriteByte('[')
	builder.WriteString(strings.Repeat("=", filled))
	builder.WriteString(strings.Repeat(" ", progressBarWidth-filled))
	builder.WriteString("] ")
	builder.WriteString(fmt.Sprintf("%3d%%", p.percent))
	if p.status != "" {
		builder.WriteByte(' ')
		builder.WriteString(p.status)
	}

	return builder.String()
}

// paddingLocked затирает хвост предыдущей, более длинной строки.
func (p *ProgressBar) paddingLocked(width int) string {
	prev := p.lastLineWidth
	p.lastLineWidth = width
	if prev > width {
		return strings.Repeat(" ", prev-width)
	}
	return ""
}

func (p *ProgressBar) finish(success bool) {
	p.mu.Lock()
	if p.finished {
		p.mu.Unlock()
		return
	}
	p.finished = true
	line := p.lineLocked()
	suffix := " ✓"
	if !success {
		suffix = " ✗"
	}
	padding := p.paddingLocked(len(line) + len(suffix))
	p.mu.Unlock()

	fmt.Fprintf(p.out, "\r%s%s%s\n", line, suffix, padding)
}

// HumanBytes форматирует размер в двоичных единицах.
func HumanBytes(v int64) string {
	units := []string{"B", "KB", "MB", "GB", "TB", "PB"}
	value := float64(v)
	unit := 0
	for value >= 1024 && unit < len(units)-1 {
		value /= 1024
		unit++
	}
	if unit == 0 {
		return fmt.Sprintf("%d %s", v, units[unit])
	}
	return fmt.Sprintf("%.1f %s", value, units[unit])
}
