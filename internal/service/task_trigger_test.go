package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/courtlist-publisher/internal/core"
	"github.com/target/courtlist-publisher/internal/domain/model"
	"github.com/target/courtlist-publisher/internal/mocks"
	"github.com/target/courtlist-publisher/internal/testutil"
	"go.uber.org/mock/gomock"
)

func TestNewTaskTrigger(t *testing.T) {
	_, err := NewTaskTrigger(TaskTriggerOptions{})
	require.Error(t, err)
}

func TestTaskTrigger_Trigger(t *testing.T) {
	ctx := context.Background()
	rec := requestedRecord()

	tests := []struct {
		name      string
		req       model.PublishRequest
		defaultOn bool
		wantCalls bool
	}{
		{name: "omitted flag uses default off", req: testutil.NewPublishRequest().Build(), wantCalls: false},
		{name: "omitted flag uses default on", req: testutil.NewPublishRequest().Build(), defaultOn: true, wantCalls: true},
		{name: "explicit true wins", req: testutil.NewPublishRequest().WithExternalCalls(true).Build(), wantCalls: true},
		{name: "explicit false wins", req: testutil.NewPublishRequest().WithExternalCalls(false).Build(), defaultOn: true, wantCalls: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			submitter := mocks.NewMockJobSubmitter(gomock.NewController(t))
			trigger, err := NewTaskTrigger(TaskTriggerOptions{Submitter: submitter, DefaultExternalCalls: tt.defaultOn})
			require.NoError(t, err)

			submitter.EXPECT().Submit(ctx, model.PublishJobPayload{
				CourtListID:       rec.CourtListID,
				CourtCentreID:     rec.CourtCentreID,
				CourtListType:     rec.CourtListType,
				PublishDate:       rec.PublishDate,
				MakeExternalCalls: tt.wantCalls,
			}).Return(core.JobHandle{ID: "job-1", Backend: QueueBackend}, nil)

			handle, err := trigger.Trigger(ctx, rec, &tt.req)
			require.NoError(t, err)
			assert.Equal(t, "job-1", handle.ID)
		})
	}

	t.Run("submit failure is returned", func(t *testing.T) {
		submitter := mocks.NewMockJobSubmitter(gomock.NewController(t))
		trigger, err := NewTaskTrigger(TaskTriggerOptions{Submitter: submitter})
		require.NoError(t, err)
		submitter.EXPECT().Submit(ctx, gomock.Any()).Return(core.JobHandle{}, errors.New("queue down"))

		req := testutil.NewPublishRequest().Build()
		_, err = trigger.Trigger(ctx, rec, &req)
		require.ErrorContains(t, err, "queue down")
	})

	t.Run("nil record", func(t *testing.T) {
		trigger, err := NewTaskTrigger(TaskTriggerOptions{Submitter: mocks.NewMockJobSubmitter(gomock.NewController(t))})
		require.NoError(t, err)
		_, err = trigger.Trigger(ctx, nil, nil)
		require.Error(t, err)
	})
}

func TestQueueSubmitter_Submit(t *testing.T) {
	ctx := context.Background()
	repo := mocks.NewMockJobRepository(gomock.NewController(t))
	jobs, notifier := newTestJobService(t, repo)
	submitter := NewQueueSubmitter(jobs, 5)

	payload := model.PublishJobPayload{
		CourtListID:       testCourtListID,
		CourtCentreID:     testutil.CourtCentreID,
		CourtListType:     model.CourtListTypePublic,
		PublishDate:       testutil.PublishDate,
		MakeExternalCalls: true,
	}

	repo.EXPECT().Create(ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, req *model.CreateJobRequest) (*model.Job, error) {
			assert.Equal(t, model.JobTypePublish, req.Type)
			assert.Equal(t, 5, req.MaxRetries)
			require.NotNil(t, req.CourtListID)
			assert.Equal(t, testCourtListID, *req.CourtListID)

			var decoded model.PublishJobPayload
			require.NoError(t, json.Unmarshal(req.Payload, &decoded))
			assert.Equal(t, payload, decoded)

			return &model.Job{
				ID:        "job-42",
				Type:      req.Type,
				Status:    model.JobStatusPending,
				CreatedAt: testutil.TestTime(),
			}, nil
		})

	handle, err := submitter.Submit(ctx, payload)
	require.NoError(t, err)
	assert.Equal(t, core.JobHandle{ID: "job-42", Backend: QueueBackend, SubmittedAt: testutil.TestTime()}, handle)
	assert.Equal(t, []model.JobType{model.JobTypePublish}, notifier.Pokes())
}
