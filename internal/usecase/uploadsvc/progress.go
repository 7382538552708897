package uploadsvc

import (
	"math"
	"sync"
	"time"
)

// progress: счётчик процентов одной попытки. Значение не убывает до сброса.
type progress struct {
	mu     sync.Mutex
	value  int
	closed bool
	notify func(int)
	tick   time.Duration

	stopTick func()
	reset    *time.Timer
}

func newProgress(tick time.Duration, notify func(int)) *progress {
	return &progress{tick: tick, notify: notify}
}

// current возвращает последнее опубликованное значение.
func (p *progress) current() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.value
}

// start публикует стартовый 0.
func (p *progress) start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.value = 0
	p.notify(0)
}

// advance поднимает прогресс до v, если v больше текущего.
func (p *progress) advance(v int) {
	if v > 100 {
		v = 100
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed || v <= p.value {
		return
	}
	p.value = v
	p.notify(v)
}

// interpolate запускает тикер, который каждые tick прибавляет 1% от from, не доходя до target.
// Возвращённая функция останавливает тикер синхронно: после её возврата обновлений не будет.
func (p *progress) interpolate(from, target int) func() {
	if p.tick <= 0 || target-from < 2 {
		return func() {}
	}

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(p.tick)
		defer ticker.Stop()

		fake := from
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				fake++
				if fake < target {
					p.advance(fake)
				}
			}
		}
	}()

	var once sync.Once
	stopFn := func() {
		once.Do(func() {
			close(stop)
			wg.Wait()
		})
	}

	p.mu.Lock()
	p.stopTick = stopFn
	p.mu.Unlock()

	return stopFn
}

// stop гасит текущий тикер (если есть) и запрещает дальнейший рост.
func (p *progress) stop() {
	p.mu.Lock()
	stopTick := p.stopTick
	p.stopTick = nil
	p.mu.Unlock()

	if stopTick != nil {
		stopTick()
	}

	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
}

// scheduleReset сбрасывает прогресс в 0 через delay (или сразу при delay <= 0).
func (p *progress) scheduleReset(delay time.Duration) {
	if delay <= 0 {
		p.resetNow()
		return
	}
	p.mu.Lock()
	p.reset = time.AfterFunc(delay, p.resetNow)
	p.mu.Unlock()
}

// cancelReset выполняет отложенный сброс немедленно и отменяет таймер.
func (p *progress) cancelReset() {
	p.mu.Lock()
	t := p.reset
	p.reset = nil
	p.mu.Unlock()

	if t != nil && t.Stop() {
		p.resetNow()
	}
}

func (p *progress) resetNow() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reset = nil
	if p.value == 0 {
		return
	}
	p.value = 0
	p.notify(0)
}

// partBounds возвращает стартовый и целевой процент части idx из total.
// До завершения complete цель не поднимается выше 99.
func partBounds(idx, total int) (from, target int) {
	from = percentOf(idx, total)
	target = percentOf(idx+1, total)
	if target > 99 {
		target = 99
	}
	if from > target {
		from = target
	}
	return from, target
}

func percentOf(done, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(done) / float64(total) * 100))
}
