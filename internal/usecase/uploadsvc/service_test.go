package uploadsvc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourname/upload_lite/internal/models"
)

type fakeGateway struct {
	mu sync.Mutex

	parts       int
	initErr     error
	completeErr error

	initCalls     int
	completeCalls int
	completed     []models.PartResult
	gotKey        string
}

func (g *fakeGateway) Init(_ context.Context, apiKey string, req models.UploadRequest) (models.InitResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.initCalls++
	g.gotKey = apiKey
	if g.initErr != nil {
		return models.InitResult{}, g.initErr
	}
	res := models.InitResult{SessionID: "sess-1", NumberOfParts: g.parts}
	for i := 1; i <= g.parts; i++ {
		res.Parts = append(res.Parts, models.PartDescriptor{PartNumber: i, URL: fmt.Sprintf("mem://%s/%d", req.FileName, i)})
	}
	return res, nil
}

func (g *fakeGateway) Complete(_ context.Context, _ string, sessionID string, parts []models.PartResult) (models.CompleteResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.completeCalls++
	g.completed = append([]models.PartResult(nil), parts...)
	if g.completeErr != nil {
		return models.CompleteResult{}, g.completeErr
	}
	return models.CompleteResult{SessionID: sessionID, URL: "https://cdn.example.com/files/" + sessionID + "/cat.png"}, nil
}

type fakeParts struct {
	mu sync.Mutex

	failOn map[string]error
	delay  time.Duration
	urls   []string
	bodies map[string][]byte
}

func (p *fakeParts) UploadPart(ctx context.Context, url string, body io.Reader, size int64) (string, error) {
	if p.delay > 0 {
		select {
		case <-time.After(p.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	if int64(len(data)) != size {
		return "", fmt.Errorf("short body: %d != %d", len(data), size)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.urls = append(p.urls, url)
	if p.bodies == nil {
		p.bodies = make(map[string][]byte)
	}
	p.bodies[url] = data
	if err = p.failOn[url]; err != nil {
		return "", err
	}
	return fmt.Sprintf("\"etag-%s\"", url[len(url)-1:]), nil
}

type recorder struct {
	mu       sync.Mutex
	progress []int
	statuses []string
	states   []models.State
}

func (r *recorder) OnProgress(v int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.progress = append(r.progress, v)
}

func (r *recorder) OnStatus(s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses = append(r.statuses, s)
}

func (r *recorder) OnState(s models.State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, s)
}

func (r *recorder) snapshot() ([]int, []string, []models.State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int(nil), r.progress...), append([]string(nil), r.statuses...), append([]models.State(nil), r.states...)
}

type memHistory struct {
	mu   sync.Mutex
	recs []models.UploadRecord
	err  error
}

func (h *memHistory) Save(_ context.Context, rec models.UploadRecord) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.recs = append(h.recs, rec)
	return h.err
}

func testOptions() Options {
	return Options{Concurrency: 1, TickInterval: 0, ResetDelay: -1}
}

func payload(size int64) []byte {
	b := make([]byte, size)
	for i := range b {
		b[i] = byte(i % 251)
	}
	return b
}

func requireMonotonicUntilReset(t *testing.T, seq []int) {
	t.Helper()
	for i := 1; i < len(seq); i++ {
		if seq[i] == 0 && i == len(seq)-1 {
			return
		}
		require.GreaterOrEqual(t, seq[i], seq[i-1], "progress went back: %v", seq)
	}
}

func Test_Upload_Success(t *testing.T) {
	gw := &fakeGateway{parts: 3}
	parts := &fakeParts{}
	hist := &memHistory{}
	svc := New(Deps{Gateway: gw, Parts: parts, History: hist}, testOptions())

	data := payload(12 * mib)
	rec := &recorder{}
	req := models.UploadRequest{FileName: "cat.png", ContentType: "image/png", FileSize: int64(len(data))}

	res, err := svc.Upload(context.Background(), "key-1", req, bytes.NewReader(data), rec)
	require.NoError(t, err)
	assert.Equal(t, "sess-1", res.SessionID)
	assert.Equal(t, "key-1", gw.gotKey)

	require.Equal(t, []string{"mem://cat.png/1", "mem://cat.png/2", "mem://cat.png/3"}, parts.urls)
	assert.Equal(t, data[:5*mib], parts.bodies["mem://cat.png/1"])
	assert.Equal(t, data[10*mib:], parts.bodies["mem://cat.png/3"])

	require.Equal(t, []models.PartResult{
		{PartNumber: 1, ETag: `"etag-1"`},
		{PartNumber: 2, ETag: `"etag-2"`},
		{PartNumber: 3, ETag: `"etag-3"`},
	}, gw.completed)

	progress, statuses, states := rec.snapshot()
	assert.Equal(t, []int{0, 33, 67, 99, 100, 0}, progress)
	assert.Equal(t, []models.State{
		models.StateInitializing,
		models.StateSplitting,
		models.StateUploadingParts,
		models.StateFinalizing,
		models.StateCompleted,
	}, states)
	assert.Contains(t, statuses, "Uploading part 2 of 3...")
	assert.Equal(t, "Upload complete!", statuses[len(statuses)-1])

	require.Len(t, hist.recs, 1)
	assert.Equal(t, "cat.png", hist.recs[0].FileName)
	assert.Equal(t, 3, hist.recs[0].Parts)
	assert.Equal(t, res.URL, hist.recs[0].URL)
}

func Test_Upload_DescriptorTruncation(t *testing.T) {
	gw := &fakeGateway{parts: 4}
	parts := &fakeParts{}
	svc := New(Deps{Gateway: gw, Parts: parts}, testOptions())

	size := 11 * mib
	_, err := svc.Upload(context.Background(), "k", models.UploadRequest{FileName: "a.bin", FileSize: size}, bytes.NewReader(payload(size)), nil)
	require.NoError(t, err)

	assert.Len(t, parts.urls, 3)
	require.Len(t, gw.completed, 3)
	assert.Equal(t, 3, gw.completed[2].PartNumber)
}

func Test_Upload_SmallFileUsesSinglePart(t *testing.T) {
	gw := &fakeGateway{parts: 2}
	parts := &fakeParts{}
	svc := New(Deps{Gateway: gw, Parts: parts}, testOptions())

	size := 4 * mib
	_, err := svc.Upload(context.Background(), "k", models.UploadRequest{FileName: "a.bin", FileSize: size}, bytes.NewReader(payload(size)), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"mem://a.bin/1"}, parts.urls)
	assert.Len(t, gw.completed, 1)
}

func Test_Upload_PartFailureAborts(t *testing.T) {
	gw := &fakeGateway{parts: 3}
	boom := errors.New("403 Forbidden")
	parts := &fakeParts{failOn: map[string]error{"mem://f.bin/2": boom}}
	svc := New(Deps{Gateway: gw, Parts: parts}, testOptions())

	rec := &recorder{}
	size := 12 * mib
	res, err := svc.Upload(context.Background(), "k", models.UploadRequest{FileName: "f.bin", FileSize: size}, bytes.NewReader(payload(size)), rec)
	require.Error(t, err)
	assert.Zero(t, res)

	assert.ErrorIs(t, err, models.ErrPartUploadFailed)
	assert.ErrorIs(t, err, boom)
	var uerr *models.UploadError
	require.ErrorAs(t, err, &uerr)
	assert.Equal(t, 1, uerr.PartIndex)

	assert.Equal(t, []string{"mem://f.bin/1", "mem://f.bin/2"}, parts.urls)
	assert.Zero(t, gw.completeCalls)

	progress, statuses, states := rec.snapshot()
	assert.NotContains(t, progress, 100)
	assert.Equal(t, models.StateErrored, states[len(states)-1])
	assert.Equal(t, "Error: part 2: failed to upload part: 403 Forbidden", statuses[len(statuses)-1])
}

// eventLog пишет статусы и состояния в одну ленту, чтобы был виден их порядок.
type eventLog struct {
	mu     sync.Mutex
	events []string
}

func (l *eventLog) OnProgress(int) {}

func (l *eventLog) OnStatus(s string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, "status:"+s)
}

func (l *eventLog) OnState(s models.State) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, "state:"+s.String())
}

func (l *eventLog) tail(n int) []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.events[len(l.events)-n:]...)
}

func Test_Upload_StatusPrecedesTerminalState(t *testing.T) {
	t.Run("errored", func(t *testing.T) {
		gw := &fakeGateway{parts: 1, initErr: errors.New("401 Unauthorized")}
		log := &eventLog{}
		_, err := New(Deps{Gateway: gw, Parts: &fakeParts{}}, testOptions()).
			Upload(context.Background(), "k", models.UploadRequest{FileName: "f", FileSize: 1}, bytes.NewReader([]byte{1}), log)
		require.Error(t, err)
		assert.Equal(t, []string{
			"status:Error: failed to init multipart upload: 401 Unauthorized",
			"state:errored",
		}, log.tail(2))
	})

	t.Run("completed", func(t *testing.T) {
		log := &eventLog{}
		_, err := New(Deps{Gateway: &fakeGateway{parts: 1}, Parts: &fakeParts{}}, testOptions()).
			Upload(context.Background(), "k", models.UploadRequest{FileName: "f", FileSize: 1}, bytes.NewReader([]byte{1}), log)
		require.NoError(t, err)
		assert.Equal(t, []string{"status:Upload complete!", "state:completed"}, log.tail(2))
	})
}

// abortingGateway запоминает отменённые сессии.
type abortingGateway struct {
	*fakeGateway
	aborted []string
}

func (g *abortingGateway) Abort(_ context.Context, sessionID string) error {
	g.aborted = append(g.aborted, sessionID)
	return nil
}

func Test_Upload_AbortOnFailure(t *testing.T) {
	failing := func() *fakeParts {
		return &fakeParts{failOn: map[string]error{"mem://f/2": errors.New("500 Internal Server Error")}}
	}
	size := 12 * mib

	t.Run("enabled", func(t *testing.T) {
		gw := &abortingGateway{fakeGateway: &fakeGateway{parts: 3}}
		opts := testOptions()
		opts.AbortOnFailure = true

		_, err := New(Deps{Gateway: gw, Parts: failing()}, opts).
			Upload(context.Background(), "k", models.UploadRequest{FileName: "f", FileSize: size}, bytes.NewReader(payload(size)), nil)
		require.ErrorIs(t, err, models.ErrPartUploadFailed)
		assert.Equal(t, []string{"sess-1"}, gw.aborted)
	})

	t.Run("complete failure", func(t *testing.T) {
		gw := &abortingGateway{fakeGateway: &fakeGateway{parts: 1, completeErr: errors.New("409 Conflict")}}
		opts := testOptions()
		opts.AbortOnFailure = true

		_, err := New(Deps{Gateway: gw, Parts: &fakeParts{}}, opts).
			Upload(context.Background(), "k", models.UploadRequest{FileName: "f", FileSize: 1}, bytes.NewReader([]byte{1}), nil)
		require.ErrorIs(t, err, models.ErrCompleteFailed)
		assert.Equal(t, []string{"sess-1"}, gw.aborted)
	})

	t.Run("disabled by default", func(t *testing.T) {
		gw := &abortingGateway{fakeGateway: &fakeGateway{parts: 3}}

		_, err := New(Deps{Gateway: gw, Parts: failing()}, testOptions()).
			Upload(context.Background(), "k", models.UploadRequest{FileName: "f", FileSize: size}, bytes.NewReader(payload(size)), nil)
		require.Error(t, err)
		assert.Empty(t, gw.aborted)
	})

	t.Run("init failure has nothing to abort", func(t *testing.T) {
		gw := &abortingGateway{fakeGateway: &fakeGateway{initErr: errors.New("401 Unauthorized")}}
		opts := testOptions()
		opts.AbortOnFailure = true

		_, err := New(Deps{Gateway: gw, Parts: &fakeParts{}}, opts).
			Upload(context.Background(), "k", models.UploadRequest{FileName: "f", FileSize: 1}, bytes.NewReader([]byte{1}), nil)
		require.ErrorIs(t, err, models.ErrInitFailed)
		assert.Empty(t, gw.aborted)
	})
}

func Test_Upload_CompleteFailureNeverReaches100(t *testing.T) {
	gw := &fakeGateway{parts: 2, completeErr: errors.New("upstream down")}
	hist := &memHistory{}
	svc := New(Deps{Gateway: gw, Parts: &fakeParts{}, History: hist}, testOptions())

	rec := &recorder{}
	size := 6 * mib
	_, err := svc.Upload(context.Background(), "k", models.UploadRequest{FileName: "f.bin", FileSize: size}, bytes.NewReader(payload(size)), rec)
	require.ErrorIs(t, err, models.ErrCompleteFailed)

	progress, _, _ := rec.snapshot()
	assert.NotContains(t, progress, 100)
	assert.Contains(t, progress, 99)
	assert.Empty(t, hist.recs)
}

func Test_Upload_InitFailure(t *testing.T) {
	gw := &fakeGateway{initErr: fmt.Errorf("%w: 401 Unauthorized", models.ErrInitFailed)}
	parts := &fakeParts{}
	svc := New(Deps{Gateway: gw, Parts: parts}, testOptions())

	a := svc.Start(nil)
	_, err := a.Run(context.Background(), "k", models.UploadRequest{FileName: "f", FileSize: 1}, bytes.NewReader([]byte{1}))
	require.ErrorIs(t, err, models.ErrInitFailed)
	assert.Empty(t, parts.urls)
	assert.Equal(t, models.StateErrored, a.State())
	assert.Equal(t, "Error: failed to init multipart upload: 401 Unauthorized", a.Status())
}

func Test_Upload_TooFewDescriptors(t *testing.T) {
	gw := &fakeGateway{parts: 1}
	svc := New(Deps{Gateway: &shortGateway{fakeGateway: gw}, Parts: &fakeParts{}}, testOptions())

	size := 12 * mib
	_, err := svc.Upload(context.Background(), "k", models.UploadRequest{FileName: "f", FileSize: size}, bytes.NewReader(payload(size)), nil)
	require.ErrorIs(t, err, models.ErrInitFailed)
}

// shortGateway объявляет 3 части, но отдаёт один адрес.
type shortGateway struct {
	*fakeGateway
}

func (g *shortGateway) Init(ctx context.Context, apiKey string, req models.UploadRequest) (models.InitResult, error) {
	res, err := g.fakeGateway.Init(ctx, apiKey, req)
	res.NumberOfParts = 3
	return res, err
}

func Test_Upload_HugeNumberOfPartsFromGateway(t *testing.T) {
	gw := &fakeGateway{parts: 2}
	parts := &fakeParts{}
	svc := New(Deps{Gateway: &hugeGateway{fakeGateway: gw}, Parts: parts}, testOptions())

	size := 6 * mib
	res, err := svc.Upload(context.Background(), "k", models.UploadRequest{FileName: "f", FileSize: size}, bytes.NewReader(payload(size)), nil)
	require.NoError(t, err)
	assert.Equal(t, "sess-1", res.SessionID)
	assert.Len(t, parts.urls, 2)
	assert.Equal(t, []models.PartResult{{PartNumber: 1, ETag: `"etag-1"`}, {PartNumber: 2, ETag: `"etag-2"`}}, gw.completed)
}

// hugeGateway объявляет заведомо нереальное число частей.
type hugeGateway struct {
	*fakeGateway
}

func (g *hugeGateway) Init(ctx context.Context, apiKey string, req models.UploadRequest) (models.InitResult, error) {
	res, err := g.fakeGateway.Init(ctx, apiKey, req)
	res.NumberOfParts = 1759218604443
	return res, err
}

func Test_Upload_InvalidInputNeverTouchesNetwork(t *testing.T) {
	cases := []struct {
		name   string
		key    string
		src    io.ReaderAt
		size   int64
		status string
	}{
		{name: "no key", key: "  ", src: bytes.NewReader(nil), status: "Please enter your API key."},
		{name: "no file", key: "k", src: nil, status: "Please select a file."},
		{name: "negative size", key: "k", src: bytes.NewReader(nil), size: -1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gw := &fakeGateway{parts: 1}
			parts := &fakeParts{}
			svc := New(Deps{Gateway: gw, Parts: parts}, testOptions())

			rec := &recorder{}
			a := svc.Start(rec)
			_, err := a.Run(context.Background(), tc.key, models.UploadRequest{FileName: "f", FileSize: tc.size}, tc.src)
			require.ErrorIs(t, err, models.ErrInvalidInput)
			assert.Zero(t, gw.initCalls)
			assert.Empty(t, parts.urls)

			_, _, states := rec.snapshot()
			assert.Equal(t, []models.State{models.StateErrored}, states)
			if tc.status != "" {
				assert.Equal(t, tc.status, a.Status())
			}
		})
	}
}

func Test_Upload_MissingKeyCheckedBeforeFile(t *testing.T) {
	svc := New(Deps{Gateway: &fakeGateway{}, Parts: &fakeParts{}}, testOptions())
	_, err := svc.UploadFile(context.Background(), "", "", "", nil)
	require.ErrorIs(t, err, models.ErrMissingAPIKey)
}

func Test_Upload_AttemptRunsOnce(t *testing.T) {
	svc := New(Deps{Gateway: &fakeGateway{parts: 1}, Parts: &fakeParts{}}, testOptions())
	a := svc.Start(nil)
	_, err := a.Run(context.Background(), "k", models.UploadRequest{FileName: "f", FileSize: 1}, bytes.NewReader([]byte{1}))
	require.NoError(t, err)

	_, err = a.Run(context.Background(), "k", models.UploadRequest{FileName: "f", FileSize: 1}, bytes.NewReader([]byte{1}))
	require.ErrorIs(t, err, ErrAttemptStarted)
}

func Test_Upload_AttemptsAreIsolated(t *testing.T) {
	gw := &fakeGateway{parts: 1}
	parts := &fakeParts{failOn: map[string]error{"mem://bad/1": errors.New("nope")}}
	svc := New(Deps{Gateway: gw, Parts: parts}, testOptions())

	bad := svc.Start(nil)
	good := svc.Start(nil)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, _ = bad.Run(context.Background(), "k", models.UploadRequest{FileName: "bad", FileSize: 3}, bytes.NewReader([]byte("abc")))
	}()
	go func() {
		defer wg.Done()
		_, _ = good.Run(context.Background(), "k", models.UploadRequest{FileName: "good", FileSize: 3}, bytes.NewReader([]byte("abc")))
	}()
	wg.Wait()

	assert.Equal(t, models.StateErrored, bad.State())
	assert.Error(t, bad.Err())
	assert.Equal(t, models.StateCompleted, good.State())
	assert.NoError(t, good.Err())
	assert.NotEqual(t, bad.ID, good.ID)
}

func Test_Upload_InterpolationStaysBelowTarget(t *testing.T) {
	gw := &fakeGateway{parts: 2}
	parts := &fakeParts{delay: 120 * time.Millisecond}
	opts := Options{Concurrency: 1, TickInterval: 5 * time.Millisecond, ResetDelay: -1}
	svc := New(Deps{Gateway: gw, Parts: parts}, opts)

	rec := &recorder{}
	size := 6 * mib
	_, err := svc.Upload(context.Background(), "k", models.UploadRequest{FileName: "f", FileSize: size}, bytes.NewReader(payload(size)), rec)
	require.NoError(t, err)

	progress, _, _ := rec.snapshot()
	requireMonotonicUntilReset(t, progress)

	idx50 := -1
	for i, v := range progress {
		if v == 50 {
			idx50 = i
			break
		}
	}
	require.NotEqual(t, -1, idx50, "no snap to 50 in %v", progress)
	// Между 0 и снимком 50 были промежуточные значения строго ниже 50.
	assert.Greater(t, idx50, 1)
	for _, v := range progress[1:idx50] {
		assert.Less(t, v, 50)
	}
	assert.Equal(t, 100, progress[len(progress)-2])
}

func Test_Upload_ProgressResetAfterDelay(t *testing.T) {
	opts := Options{Concurrency: 1, ResetDelay: 200 * time.Millisecond}
	svc := New(Deps{Gateway: &fakeGateway{parts: 1}, Parts: &fakeParts{}}, opts)

	a := svc.Start(nil)
	_, err := a.Run(context.Background(), "k", models.UploadRequest{FileName: "f", FileSize: 3}, bytes.NewReader([]byte("abc")))
	require.NoError(t, err)
	assert.Equal(t, 100, a.Progress())

	require.Eventually(t, func() bool { return a.Progress() == 0 }, time.Second, 5*time.Millisecond)
}

func Test_Upload_CloseResetsImmediately(t *testing.T) {
	opts := Options{Concurrency: 1, ResetDelay: time.Hour}
	svc := New(Deps{Gateway: &fakeGateway{parts: 1}, Parts: &fakeParts{}}, opts)

	a := svc.Start(nil)
	_, err := a.Run(context.Background(), "k", models.UploadRequest{FileName: "f", FileSize: 3}, bytes.NewReader([]byte("abc")))
	require.NoError(t, err)
	require.Equal(t, 100, a.Progress())

	a.Close()
	assert.Zero(t, a.Progress())
}

func Test_Upload_Parallel(t *testing.T) {
	gw := &fakeGateway{parts: 4}
	parts := &fakeParts{delay: 10 * time.Millisecond}
	opts := Options{Concurrency: 3, ResetDelay: -1}
	svc := New(Deps{Gateway: gw, Parts: parts}, opts)

	rec := &recorder{}
	size := 18 * mib
	data := payload(size)
	_, err := svc.Upload(context.Background(), "k", models.UploadRequest{FileName: "p.bin", FileSize: size}, bytes.NewReader(data), rec)
	require.NoError(t, err)

	require.Len(t, gw.completed, 4)
	for i, p := range gw.completed {
		assert.Equal(t, i+1, p.PartNumber)
		assert.Equal(t, fmt.Sprintf("\"etag-%d\"", i+1), p.ETag)
	}
	assert.Equal(t, data[15*mib:], parts.bodies["mem://p.bin/4"])

	progress, _, _ := rec.snapshot()
	requireMonotonicUntilReset(t, progress)
	assert.Equal(t, 100, progress[len(progress)-2])
}

func Test_Upload_ParallelFailure(t *testing.T) {
	gw := &fakeGateway{parts: 3}
	parts := &fakeParts{failOn: map[string]error{"mem://p.bin/3": errors.New("boom")}}
	svc := New(Deps{Gateway: gw, Parts: parts}, Options{Concurrency: 2, ResetDelay: -1})

	size := 12 * mib
	_, err := svc.Upload(context.Background(), "k", models.UploadRequest{FileName: "p.bin", FileSize: size}, bytes.NewReader(payload(size)), nil)
	require.ErrorIs(t, err, models.ErrPartUploadFailed)

	var uerr *models.UploadError
	require.ErrorAs(t, err, &uerr)
	assert.Equal(t, 2, uerr.PartIndex)
	assert.Zero(t, gw.completeCalls)
}

func Test_Upload_CanceledContext(t *testing.T) {
	gw := &fakeGateway{parts: 2}
	svc := New(Deps{Gateway: gw, Parts: &fakeParts{}}, testOptions())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	size := 6 * mib
	_, err := svc.Upload(ctx, "k", models.UploadRequest{FileName: "f", FileSize: size}, bytes.NewReader(payload(size)), nil)
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, gw.completeCalls)
}

func Test_Upload_HistoryErrorIgnored(t *testing.T) {
	hist := &memHistory{err: errors.New("db down")}
	svc := New(Deps{Gateway: &fakeGateway{parts: 1}, Parts: &fakeParts{}, History: hist}, testOptions())

	_, err := svc.Upload(context.Background(), "k", models.UploadRequest{FileName: "f", FileSize: 3}, bytes.NewReader([]byte("abc")), nil)
	require.NoError(t, err)
	assert.Len(t, hist.recs, 1)
}

func Test_UploadFile_DetectsContentType(t *testing.T) {
	dir := t.TempDir()
	filePath := filepath.Join(dir, "pic.png")
	png := append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 64)...)
	require.NoError(t, os.WriteFile(filePath, png, 0o644))

	gw := &recordingGateway{fakeGateway: &fakeGateway{parts: 1}}
	svc := New(Deps{Gateway: gw, Parts: &fakeParts{}}, testOptions())

	_, err := svc.UploadFile(context.Background(), "k", filePath, "", nil)
	require.NoError(t, err)
	assert.Equal(t, "pic.png", gw.req.FileName)
	assert.Equal(t, "image/png", gw.req.ContentType)
	assert.Equal(t, int64(len(png)), gw.req.FileSize)
}

func Test_UploadFile_MissingFile(t *testing.T) {
	gw := &fakeGateway{parts: 1}
	svc := New(Deps{Gateway: gw, Parts: &fakeParts{}}, testOptions())

	_, err := svc.UploadFile(context.Background(), "k", filepath.Join(t.TempDir(), "nope.bin"), "", nil)
	require.ErrorIs(t, err, models.ErrInvalidInput)
	assert.Zero(t, gw.initCalls)
}

type recordingGateway struct {
	*fakeGateway
	req models.UploadRequest
}

func (g *recordingGateway) Init(ctx context.Context, apiKey string, req models.UploadRequest) (models.InitResult, error) {
	g.req = req
	return g.fakeGateway.Init(ctx, apiKey, req)
}
