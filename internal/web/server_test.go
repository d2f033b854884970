package web

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vadiminshakov/momentum/internal/domain"
	"github.com/vadiminshakov/momentum/internal/metrics"
)

type memoryStore struct {
	mu      sync.Mutex
	records []domain.DecisionEventRecord
	err     error
}

func (m *memoryStore) EventsAfter(index uint64) ([]domain.DecisionEventRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	var out []domain.DecisionEventRecord
	for _, r := range m.records {
		if r.Index > index {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memoryStore) add(side domain.Side) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, domain.DecisionEventRecord{
		Index: uint64(len(m.records) + 1),
		Event: domain.DecisionEvent{Pair: "ETH_USDC", Side: side},
	})
}

func TestHealthz(t *testing.T) {
	srv := httptest.NewServer(NewServer("", zap.NewNop(), nil, nil).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", string(body))
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := metrics.New(reg)
	require.NoError(t, err)
	m.ObserveDecision("ETH_USDC", domain.SideBuy)

	srv := httptest.NewServer(NewServer("", zap.NewNop(), nil, reg).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `momentum_decisions_total{pair="ETH_USDC",side="BUY"} 1`)
}

func TestMetricsEndpointDisabledWithoutGatherer(t *testing.T) {
	srv := httptest.NewServer(NewServer("", zap.NewNop(), nil, nil).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDecisionStreamUnavailable(t *testing.T) {
	srv := httptest.NewServer(NewServer("", zap.NewNop(), nil, nil).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/decisions/stream")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestDecisionStreamInitialLoadFailure(t *testing.T) {
	store := &memoryStore{err: errors.New("corrupt segment")}
	srv := httptest.NewServer(NewServer("", zap.NewNop(), store, nil).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/decisions/stream")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestDecisionStream(t *testing.T) {
	store := &memoryStore{}
	store.add(domain.SideBuy)

	s := NewServer("", zap.NewNop(), store, nil)
	s.PollInterval = 10 * time.Millisecond
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/decisions/stream", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	scanner := bufio.NewScanner(resp.Body)
	nextEvent := func() domain.DecisionEvent {
		for scanner.Scan() {
			line := scanner.Text()
			if payload, ok := strings.CutPrefix(line, "data: "); ok {
				var event domain.DecisionEvent
				require.NoError(t, json.Unmarshal([]byte(payload), &event))
				return event
			}
		}
		require.FailNow(t, "stream ended", "err: %v", scanner.Err())
		return domain.DecisionEvent{}
	}

	assert.Equal(t, domain.SideBuy, nextEvent().Side)

	store.add(domain.SideSell)
	assert.Equal(t, domain.SideSell, nextEvent().Side)
}

var errClientGone = errors.New("client gone")

// brokenStream accepts headers but fails every body write, like a closed connection.
type brokenStream struct {
	header http.Header
	writes atomic.Int32
}

func (b *brokenStream) Header() http.Header { return b.header }

func (b *brokenStream) WriteHeader(int) {}

func (b *brokenStream) Write([]byte) (int, error) {
	b.writes.Add(1)
	return 0, errClientGone
}

func (b *brokenStream) Flush() {}

// laterStore is empty on the first read and returns one decision afterwards.
type laterStore struct {
	calls atomic.Int32
}

func (l *laterStore) EventsAfter(uint64) ([]domain.DecisionEventRecord, error) {
	if l.calls.Add(1) == 1 {
		return nil, nil
	}
	return []domain.DecisionEventRecord{{Index: 1, Event: domain.DecisionEvent{Pair: "ETH_USDC", Side: domain.SideBuy}}}, nil
}

func serveUntilDone(t *testing.T, s *Server, w http.ResponseWriter) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/decisions/stream", nil))
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("stream handler kept running after the client write failed")
	}
}

func TestDecisionStreamStopsWhenWritesFail(t *testing.T) {
	t.Run("initial backlog", func(t *testing.T) {
		store := &memoryStore{}
		store.add(domain.SideBuy)
		store.add(domain.SideSell)

		w := &brokenStream{header: http.Header{}}
		serveUntilDone(t, NewServer("", zap.NewNop(), store, nil), w)
		assert.Equal(t, int32(1), w.writes.Load())
	})

	t.Run("heartbeat", func(t *testing.T) {
		s := NewServer("", zap.NewNop(), &memoryStore{}, nil)
		s.PollInterval = time.Hour
		s.HeartbeatInterval = 5 * time.Millisecond

		w := &brokenStream{header: http.Header{}}
		serveUntilDone(t, s, w)
		assert.Equal(t, int32(1), w.writes.Load())
	})

	t.Run("polled decision", func(t *testing.T) {
		store := &laterStore{}
		s := NewServer("", zap.NewNop(), store, nil)
		s.PollInterval = 5 * time.Millisecond
		s.HeartbeatInterval = time.Hour

		w := &brokenStream{header: http.Header{}}
		serveUntilDone(t, s, w)
		assert.Equal(t, int32(1), w.writes.Load())
		assert.Equal(t, int32(2), store.calls.Load())
	})
}

func TestWriteDecisions(t *testing.T) {
	records := []domain.DecisionEventRecord{
		{Index: 4, Event: domain.DecisionEvent{Pair: "ETH_USDC", Side: domain.SideBuy}},
		{Index: 5, Event: domain.DecisionEvent{Pair: "ETH_USDC", Side: domain.SideSell}},
	}

	var buf strings.Builder
	last, err := writeDecisions(&buf, records, 3)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), last)
	assert.Equal(t, 2, strings.Count(buf.String(), "event: decision\n"))
	assert.True(t, strings.HasPrefix(buf.String(), "id: 4\n"), buf.String())

	last, err = writeDecisions(&brokenStream{header: http.Header{}}, records, 3)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errClientGone))
	assert.Equal(t, uint64(3), last, "nothing was delivered")
}
