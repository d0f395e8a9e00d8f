package scheduler

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingJob struct {
	runs  atomic.Int32
	err   error
	block chan struct{}
}

func (j *countingJob) Name() string { return "counting" }

func (j *countingJob) Run() error {
	j.runs.Add(1)
	if j.block != nil {
		<-j.block
	}
	return j.err
}

func TestAddJob_Schedules(t *testing.T) {
	s := New(zerolog.Nop())
	job := &countingJob{}

	for _, schedule := range []string{"@every 6h", "0 0 */6 * * *", "0 */6 * * *", "@daily"} {
		assert.NoError(t, s.AddJob(schedule, job), schedule)
	}
	assert.Error(t, s.AddJob("not a schedule", job))
}

func TestRunNow(t *testing.T) {
	s := New(zerolog.Nop())
	job := &countingJob{err: errors.New("boom")}

	assert.Error(t, s.RunNow(job))
	assert.Equal(t, int32(1), job.runs.Load())
}

func TestExecute_SkipsOverlappingRuns(t *testing.T) {
	s := New(zerolog.Nop())
	job := &countingJob{block: make(chan struct{})}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.execute(job)
	}()

	require.Eventually(t, func() bool { return job.runs.Load() == 1 }, time.Second, time.Millisecond)

	// The first run is still blocked, so this tick is skipped.
	s.execute(job)
	assert.Equal(t, int32(1), job.runs.Load())

	close(job.block)
	wg.Wait()

	s.execute(job)
	assert.Equal(t, int32(2), job.runs.Load())
}

func TestStartStop(t *testing.T) {
	s := New(zerolog.Nop())
	require.NoError(t, s.AddJob("@every 1h", &countingJob{}))
	s.Start()
	s.Stop()
}
