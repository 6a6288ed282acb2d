package jobrunner

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/courtlist-publisher/internal/domain/model"
	"github.com/target/courtlist-publisher/internal/mocks"
	"github.com/target/courtlist-publisher/internal/observability/statsd"
	"github.com/target/courtlist-publisher/internal/pipeline"
	"github.com/target/courtlist-publisher/internal/service"
	"go.uber.org/mock/gomock"
)

const courtListID = "0c7d2c44-6a0e-4f8c-8d6c-3e7f2b1a9c55"

type quietNotifier struct{ ch chan struct{} }

func (n *quietNotifier) Subscribe(model.JobType) (func(), <-chan struct{}) { return func() {}, n.ch }
func (n *quietNotifier) Poke(model.JobType)                                {}
func (n *quietNotifier) StopAll()                                          {}

type fakeExecutor struct {
	mu          sync.Mutex
	jobs        []model.PublishJobPayload
	delay       time.Duration
	after       func()
	interrupted bool
}

func (f *fakeExecutor) Execute(_ context.Context, job model.PublishJobPayload) pipeline.Execution {
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	f.mu.Lock()
	f.jobs = append(f.jobs, job)
	f.mu.Unlock()
	if f.after != nil {
		f.after()
	}
	return pipeline.Execution{CourtListID: job.CourtListID, State: pipeline.StateCompleted, Interrupted: f.interrupted}
}

func (f *fakeExecutor) Calls() []model.PublishJobPayload {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.PublishJobPayload(nil), f.jobs...)
}

type fixture struct {
	repo     *mocks.MockJobRepository
	exec     *fakeExecutor
	recorder *statsd.Recorder
	runner   *Runner
}

func newFixture(t *testing.T, lease time.Duration) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockJobRepository(ctrl)
	jobs := service.MustNewJobService(service.JobServiceOptions{
		Repo:         repo,
		DefaultLease: lease,
		Notifier:     &quietNotifier{ch: make(chan struct{})},
	})
	f := &fixture{repo: repo, exec: &fakeExecutor{}, recorder: &statsd.Recorder{}}
	runner, err := NewRunner(RunnerOptions{
		Jobs:         jobs,
		Pipeline:     f.exec,
		Metrics:      f.recorder,
		PollInterval: 10 * time.Millisecond,
	})
	require.NoError(t, err)
	f.runner = runner
	return f
}

func publishJob(t *testing.T) *model.Job {
	t.Helper()
	payload, err := json.Marshal(model.PublishJobPayload{
		CourtListID:       courtListID,
		CourtCentreID:     "f8254db1-1683-483e-afb3-b87fde5a0a26",
		CourtListType:     model.CourtListTypeStandard,
		PublishDate:       "2026-03-02",
		MakeExternalCalls: true,
	})
	require.NoError(t, err)
	return &model.Job{ID: "job-1", Type: model.JobTypePublish, Status: model.JobStatusRunning, Payload: payload}
}

func (f *fixture) transitions() []string {
	var out []string
	for _, s := range f.recorder.Find("job.transition") {
		out = append(out, s.Tags["transition"]+":"+s.Tags["result"])
	}
	return out
}

func TestNewRunner_Validation(t *testing.T) {
	_, err := NewRunner(RunnerOptions{})
	require.Error(t, err)

	ctrl := gomock.NewController(t)
	jobs := service.MustNewJobService(service.JobServiceOptions{
		Repo:         mocks.NewMockJobRepository(ctrl),
		DefaultLease: time.Minute,
		Notifier:     &quietNotifier{},
	})
	_, err = NewRunner(RunnerOptions{Jobs: jobs})
	require.Error(t, err)

	r, err := NewRunner(RunnerOptions{Jobs: jobs, Pipeline: &fakeExecutor{}})
	require.NoError(t, err)
	assert.Equal(t, time.Minute, r.lease)
	assert.Equal(t, 1, r.workers)
}

func TestRunOnce_NoJobs(t *testing.T) {
	f := newFixture(t, 30*time.Second)
	f.repo.EXPECT().ReserveNext(gomock.Any(), model.JobTypePublish, 30).Return(nil, model.ErrNoJobsAvailable)

	processed, err := f.runner.RunOnce(context.Background())
	require.NoError(t, err)
	assert.False(t, processed)
}

func TestRunOnce_ReserveError(t *testing.T) {
	f := newFixture(t, 30*time.Second)
	f.repo.EXPECT().ReserveNext(gomock.Any(), model.JobTypePublish, 30).Return(nil, errors.New("db down"))

	_, err := f.runner.RunOnce(context.Background())
	assert.ErrorContains(t, err, "db down")
}

func TestRunOnce_ExecutesAndCompletes(t *testing.T) {
	f := newFixture(t, 30*time.Second)
	f.repo.EXPECT().ReserveNext(gomock.Any(), model.JobTypePublish, 30).Return(publishJob(t), nil)
	f.repo.EXPECT().Complete(gomock.Any(), "job-1").Return(true, nil)

	processed, err := f.runner.RunOnce(context.Background())
	require.NoError(t, err)
	assert.True(t, processed)

	calls := f.exec.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, courtListID, calls[0].CourtListID)
	assert.True(t, calls[0].MakeExternalCalls)
	assert.Equal(t, []string{"reserved:success", "completed:success"}, f.transitions())

	samples := f.recorder.Find("job.transition")
	assert.Equal(t, "postgres", samples[0].Tags["backend"])
}

func TestRunOnce_UndecodablePayloadFailsJob(t *testing.T) {
	f := newFixture(t, 30*time.Second)
	job := publishJob(t)
	job.Payload = json.RawMessage(`{"courtListId": 42}`)
	f.repo.EXPECT().ReserveNext(gomock.Any(), model.JobTypePublish, 30).Return(job, nil)
	f.repo.EXPECT().Fail(gomock.Any(), "job-1", gomock.Any()).DoAndReturn(
		func(_ context.Context, _ string, msg string) (bool, error) {
			assert.Contains(t, msg, "decode publish payload")
			return true, nil
		})

	processed, err := f.runner.RunOnce(context.Background())
	require.NoError(t, err)
	assert.True(t, processed)
	assert.Empty(t, f.exec.Calls())
	assert.Equal(t, []string{"reserved:success", "failed:error"}, f.transitions())
}

func TestRunOnce_CompleteNoopAndError(t *testing.T) {
	f := newFixture(t, 30*time.Second)
	f.repo.EXPECT().ReserveNext(gomock.Any(), model.JobTypePublish, 30).Return(publishJob(t), nil).Times(2)
	gomock.InOrder(
		f.repo.EXPECT().Complete(gomock.Any(), "job-1").Return(false, nil),
		f.repo.EXPECT().Complete(gomock.Any(), "job-1").Return(false, errors.New("db down")),
	)

	for range 2 {
		_, err := f.runner.RunOnce(context.Background())
		require.NoError(t, err)
	}
	assert.Equal(t, []string{
		"reserved:success", "completed:noop",
		"reserved:success", "completed:error",
	}, f.transitions())
}

func TestRunOnce_HeartbeatsDuringLongJobs(t *testing.T) {
	f := newFixture(t, time.Second)
	f.exec.delay = 1200 * time.Millisecond
	f.repo.EXPECT().ReserveNext(gomock.Any(), model.JobTypePublish, 1).Return(publishJob(t), nil)
	f.repo.EXPECT().Heartbeat(gomock.Any(), "job-1", 1).Return(true, nil).MinTimes(1)
	f.repo.EXPECT().Complete(gomock.Any(), "job-1").Return(true, nil)

	_, err := f.runner.RunOnce(context.Background())
	require.NoError(t, err)
}

func TestRun_CompletesInFlightJobOnShutdown(t *testing.T) {
	f := newFixture(t, 30*time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f.exec.after = cancel

	f.repo.EXPECT().ReserveNext(gomock.Any(), model.JobTypePublish, 30).Return(publishJob(t), nil)
	f.repo.EXPECT().ReserveNext(gomock.Any(), model.JobTypePublish, 30).Return(nil, model.ErrNoJobsAvailable).AnyTimes()
	f.repo.EXPECT().Complete(gomock.Any(), "job-1").DoAndReturn(
		func(ctx context.Context, _ string) (bool, error) {
			return true, ctx.Err()
		})

	err := f.runner.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Len(t, f.exec.Calls(), 1)
	assert.Equal(t, []string{"reserved:success", "completed:success"}, f.transitions())
}

func TestRun_InterruptedJobIsFailedForRetry(t *testing.T) {
	f := newFixture(t, 30*time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f.exec.after = cancel
	f.exec.interrupted = true

	f.repo.EXPECT().ReserveNext(gomock.Any(), model.JobTypePublish, 30).Return(publishJob(t), nil)
	f.repo.EXPECT().ReserveNext(gomock.Any(), model.JobTypePublish, 30).Return(nil, model.ErrNoJobsAvailable).AnyTimes()
	f.repo.EXPECT().Fail(gomock.Any(), "job-1", gomock.Any()).DoAndReturn(
		func(ctx context.Context, _ string, msg string) (bool, error) {
			assert.Contains(t, msg, "interrupted")
			return true, ctx.Err()
		})

	err := f.runner.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Len(t, f.exec.Calls(), 1)
	assert.Equal(t, []string{"reserved:success", "failed:error"}, f.transitions())
}

func TestRun_PollsWithoutNotifications(t *testing.T) {
	f := newFixture(t, 30*time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var reserves int
	var mu sync.Mutex
	f.repo.EXPECT().ReserveNext(gomock.Any(), model.JobTypePublish, 30).DoAndReturn(
		func(context.Context, model.JobType, int) (*model.Job, error) {
			mu.Lock()
			defer mu.Unlock()
			if reserves++; reserves >= 3 {
				cancel()
			}
			return nil, model.ErrNoJobsAvailable
		}).MinTimes(3)

	require.ErrorIs(t, f.runner.Run(ctx), context.Canceled)
}
