package integration

import (
	"crypto/sha256"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/yourname/upload_lite/internal/app/gatewayhttp"
	"github.com/yourname/upload_lite/internal/models"
	"github.com/yourname/upload_lite/internal/repo/history"
	"github.com/yourname/upload_lite/internal/usecase/uploadsvc"
	"github.com/yourname/upload_lite/pkg/gatewayclient"
	"github.com/yourname/upload_lite/pkg/partclient"
)

const testKey = "secret-key"

func startGateway(t *testing.T, opts gatewayhttp.Options) (*gatewayhttp.Server, *httptest.Server) {
	t.Helper()
	if opts.DataDir == "" {
		opts.DataDir = t.TempDir()
	}
	if opts.APIKey == "" {
		opts.APIKey = testKey
	}
	gw := gatewayhttp.NewServer(opts)
	srv := httptest.NewServer(gw.Handler())
	t.Cleanup(srv.Close)
	return gw, srv
}

func newService(client *gatewayclient.Client, store history.Store, opts uploadsvc.Options) *uploadsvc.Service {
	log := zerolog.Nop()
	deps := uploadsvc.Deps{
		Gateway: client,
		Parts:   partclient.New(),
		Logger:  &log,
	}
	if store != nil {
		deps.History = store
	}
	return uploadsvc.New(deps, opts)
}

func quietOptions() uploadsvc.Options {
	opts := uploadsvc.DefaultOptions()
	opts.TickInterval = 0
	opts.ResetDelay = -1
	return opts
}

// payload детерминирован, чтобы границы частей было видно при расхождении.
func payload(size int) []byte {
	b := make([]byte, size)
	for i := range b {
		b[i] = byte(i*7 + i/1024)
	}
	return b
}

func writeTemp(t *testing.T, name string, data []byte) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, data, 0o644))
	return p
}

func download(t *testing.T, url string) []byte {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode, url)
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return b
}

func requireSameContent(t *testing.T, want, got []byte) {
	t.Helper()
	require.Equal(t, len(want), len(got))
	require.Equal(t, sha256.Sum256(want), sha256.Sum256(got))
}

// observer копит всё, что прислала попытка.
type observer struct {
	mu       sync.Mutex
	progress []int
	statuses []string
	states   []models.State
}

func (o *observer) OnProgress(v int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.progress = append(o.progress, v)
}

func (o *observer) OnStatus(s string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.statuses = append(o.statuses, s)
}

func (o *observer) OnState(s models.State) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.states = append(o.states, s)
}

func (o *observer) snapshot() ([]int, []string, []models.State) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]int(nil), o.progress...), append([]string(nil), o.statuses...), append([]models.State(nil), o.states...)
}

func requireNonDecreasingUntilReset(t *testing.T, progress []int) {
	t.Helper()
	for i := 1; i < len(progress); i++ {
		if progress[i-1] == 100 {
			require.Equal(t, 0, progress[i], "only reset may follow 100")
			continue
		}
		require.GreaterOrEqual(t, progress[i], progress[i-1], "progress went back: %v", progress)
	}
}

// shiftClock: часы шлюза, которые тест может сдвинуть вперёд.
type shiftClock struct {
	mu    sync.Mutex
	shift time.Duration
}

func (c *shiftClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return time.Now().Add(c.shift)
}

func (c *shiftClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.shift += d
}

