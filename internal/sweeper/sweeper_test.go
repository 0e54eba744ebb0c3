package sweeper

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"sync"
	"testing"
	"time"

	"dareduel/internal/microservices/http-api/models"
	"dareduel/internal/microservices/http-api/service"

	"github.com/stretchr/testify/assert"
)

// fakeChallengeService serves a backlog of stale challenges and records
// which ones get expired. Rows stay pending until Expire succeeds, so a
// failing expiry shows up again in the next listing, like the real
// repository.
type fakeChallengeService struct {
	service.ChallengeService // panics on anything the sweeper should not call

	mu        sync.Mutex
	backlog   []models.Challenge
	expired   []string
	fail      bool            // StalePending returns an error
	failIDs   map[string]bool // Expire fails for these challenges
	failEvery bool            // Expire fails for everything
}

func (f *fakeChallengeService) StalePending(ctx context.Context, olderThan time.Time, limit int) ([]models.Challenge, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return nil, assert.AnError
	}
	var batch []models.Challenge
	for _, c := range f.backlog {
		if c.Status != models.ChallengePending {
			continue
		}
		batch = append(batch, c)
		if len(batch) == limit {
			break
		}
	}
	return batch, nil
}

func (f *fakeChallengeService) Expire(ctx context.Context, challenge *models.Challenge) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failEvery || f.failIDs[challenge.ID] {
		return assert.AnError
	}
	for i := range f.backlog {
		if f.backlog[i].ID == challenge.ID {
			f.backlog[i].Status = models.ChallengeExpired
		}
	}
	f.expired = append(f.expired, challenge.ID)
	return nil
}

func (f *fakeChallengeService) pendingLeft() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.backlog {
		if c.Status == models.ChallengePending {
			n++
		}
	}
	return n
}

func staleBacklog(n int) []models.Challenge {
	backlog := make([]models.Challenge, n)
	for i := range backlog {
		backlog[i] = models.Challenge{
			ID:        "ch-" + strconv.Itoa(i),
			Status:    models.ChallengePending,
			CreatedAt: time.Now().Add(-100 * time.Hour),
		}
	}
	return backlog
}

func testSweeper(svc *fakeChallengeService) *Sweeper {
	return New(svc, 72*time.Hour, time.Hour, 3, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestSweep_ExpiresWholeBacklog(t *testing.T) {
	svc := &fakeChallengeService{backlog: staleBacklog(5)}

	expired := testSweeper(svc).Sweep(context.Background())

	assert.Equal(t, 5, expired)
	assert.Len(t, svc.expired, 5)
	assert.Zero(t, svc.pendingLeft())
}

func TestSweep_EmptyBacklog(t *testing.T) {
	svc := &fakeChallengeService{}
	assert.Equal(t, 0, testSweeper(svc).Sweep(context.Background()))
}

func TestSweep_ListFailureStopsQuietly(t *testing.T) {
	svc := &fakeChallengeService{fail: true}
	assert.Equal(t, 0, testSweeper(svc).Sweep(context.Background()))
}

func TestSweep_CountsOnlySuccessfulExpiries(t *testing.T) {
	svc := &fakeChallengeService{
		backlog: staleBacklog(4),
		failIDs: map[string]bool{"ch-1": true, "ch-3": true},
	}

	expired := testSweeper(svc).Sweep(context.Background())

	assert.Equal(t, 2, expired)
	assert.Len(t, svc.expired, 2)
	assert.Equal(t, 2, svc.pendingLeft())
}

func TestSweep_StuckBatchStopsAfterOnePass(t *testing.T) {
	// a full batch where every expiry fails would otherwise be refetched
	// over and over within the same sweep
	svc := &fakeChallengeService{
		backlog:   staleBacklog(batchSize),
		failEvery: true,
	}

	result := make(chan int, 1)
	go func() { result <- testSweeper(svc).Sweep(context.Background()) }()

	select {
	case expired := <-result:
		assert.Equal(t, 0, expired)
		assert.Equal(t, batchSize, svc.pendingLeft())
	case <-time.After(5 * time.Second):
		t.Fatal("sweep kept retrying a batch that makes no progress")
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	svc := &fakeChallengeService{backlog: staleBacklog(2)}
	s := New(svc, 72*time.Hour, 10*time.Millisecond, 2, slog.New(slog.NewTextHandler(io.Discard, nil)))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop on cancel")
	}
	assert.Len(t, svc.expired, 2)
}

func TestWorkerPool_WaitReleasesContext(t *testing.T) {
	pool := NewWorkerPool(context.Background(), 2, slog.New(slog.NewTextHandler(io.Discard, nil)))
	pool.Start()
	pool.Submit(func(ctx context.Context) error { return nil })
	pool.Wait()

	assert.Error(t, pool.ctx.Err())
}
