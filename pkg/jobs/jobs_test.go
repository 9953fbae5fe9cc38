package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitForStatus(t *testing.T, m Manager, id uuid.UUID, want Status) *Job {
	t.Helper()
	var job *Job
	require.Eventually(t, func() bool {
		j, err := m.Get(id)
		if err != nil {
			return false
		}
		job = j
		return j.Status == want
	}, 2*time.Second, 5*time.Millisecond)
	return job
}

func TestSubmit_CompletesWithResult(t *testing.T) {
	m := New(4)

	id, err := m.Submit(context.Background(), "test-job", func(ctx context.Context) (interface{}, error) {
		return map[string]string{"url": "https://cdn.example/a.mp3"}, nil
	})
	require.NoError(t, err)

	job := waitForStatus(t, m, id, StatusCompleted)
	assert.Equal(t, "test-job", job.Name)
	assert.Empty(t, job.Message)
	assert.Equal(t, map[string]string{"url": "https://cdn.example/a.mp3"}, job.Result)
}

func TestSubmit_FailureIsRecorded(t *testing.T) {
	m := New(4)

	id, err := m.Submit(context.Background(), "broken", func(ctx context.Context) (interface{}, error) {
		return nil, errors.New("provider exploded")
	})
	require.NoError(t, err)

	job := waitForStatus(t, m, id, StatusFailed)
	assert.Equal(t, "provider exploded", job.Message)
}

func TestSubmit_DetachedFromCallerContext(t *testing.T) {
	m := New(4)
	callerCtx, cancel := context.WithCancel(context.Background())

	started := make(chan struct{})
	release := make(chan struct{})
	id, err := m.Submit(callerCtx, "detached", func(ctx context.Context) (interface{}, error) {
		close(started)
		<-release
		return nil, ctx.Err()
	})
	require.NoError(t, err)

	<-started
	cancel() // caller's request ends; the job must keep running
	close(release)

	waitForStatus(t, m, id, StatusCompleted)
}

func TestCancel_StopsRunningJob(t *testing.T) {
	m := New(4)

	started := make(chan struct{})
	id, err := m.Submit(context.Background(), "slow", func(ctx context.Context) (interface{}, error) {
		close(started)
		<-ctx.Done()
		return nil, ctx.Err()
	})
	require.NoError(t, err)

	<-started
	require.NoError(t, m.Cancel(id))

	job := waitForStatus(t, m, id, StatusCancelled)
	assert.Equal(t, "cancelled", job.Message)

	// A terminal job cannot be cancelled again.
	require.Error(t, m.Cancel(id))
}

func TestGet_UnknownJob(t *testing.T) {
	m := New(4)
	_, err := m.Get(uuid.New())
	require.Error(t, err)
}

func TestSubmit_RejectsWhenFull(t *testing.T) {
	m := New(1)

	release := make(chan struct{})
	defer close(release)
	_, err := m.Submit(context.Background(), "occupier", func(ctx context.Context) (interface{}, error) {
		<-release
		return nil, nil
	})
	require.NoError(t, err)

	_, err = m.Submit(context.Background(), "overflow", func(ctx context.Context) (interface{}, error) {
		return nil, nil
	})
	require.Error(t, err)
}

func TestCleanup_DropsOldTerminalJobs(t *testing.T) {
	m := New(4)

	id, err := m.Submit(context.Background(), "quick", func(ctx context.Context) (interface{}, error) {
		return nil, nil
	})
	require.NoError(t, err)
	waitForStatus(t, m, id, StatusCompleted)

	time.Sleep(5 * time.Millisecond)
	m.Cleanup(time.Millisecond)
	_, err = m.Get(id)
	require.Error(t, err)
}

func TestShutdown_WaitsForRunningJobs(t *testing.T) {
	m := New(4)

	release := make(chan struct{})
	id, err := m.Submit(context.Background(), "draining", func(ctx context.Context) (interface{}, error) {
		<-release
		return nil, nil
	})
	require.NoError(t, err)

	go func() {
		time.Sleep(20 * time.Millisecond)
		close(release)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, m.Shutdown(ctx))

	job, err := m.Get(id)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, job.Status)

	// No new work after shutdown.
	_, err = m.Submit(context.Background(), "late", func(ctx context.Context) (interface{}, error) {
		return nil, nil
	})
	require.Error(t, err)
}
