package profiler_test

import (
	"io"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/vulpemventures/coinpay/pkg/profiler"
)

func TestProfiler(t *testing.T) {
	datadir := t.TempDir()
	svc, err := profiler.NewService(profiler.ServiceOpts{
		Port:          18091,
		StatsInterval: 100 * time.Millisecond,
		Datadir:       datadir,
	})
	require.NoError(t, err)

	require.NoError(t, svc.Start())

	var resp *http.Response
	require.Eventually(t, func() bool {
		resp, err = http.Get("http://localhost:18091/metrics")
		return err == nil
	}, 2*time.Second, 50*time.Millisecond)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), "go_goroutines")

	svc.Stop()

	require.Eventually(t, func() bool {
		files, _ := os.ReadDir(datadir)
		return len(files) == 1
	}, 2*time.Second, 50*time.Millisecond)
}

func TestFailingNewService(t *testing.T) {
	tests := []struct {
		name string
		opts profiler.ServiceOpts
	}{
		{"missing datadir", profiler.ServiceOpts{Port: 18091}},
		{"port out of range", profiler.ServiceOpts{Port: 80, Datadir: "stats"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := profiler.NewService(tt.opts)
			require.Error(t, err)
			require.Nil(t, svc)
		})
	}
}
