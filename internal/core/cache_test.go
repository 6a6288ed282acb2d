package core_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/courtlist-publisher/internal/core"
	"github.com/target/courtlist-publisher/internal/domain/model"
	"github.com/target/courtlist-publisher/internal/mocks"
	"go.uber.org/mock/gomock"
)

const cachedID = "0b9f3d0e-7b61-4a55-9c3e-6d3d2a6f1c11"

func cachedRecord() *model.PublishStatusRecord {
	return &model.PublishStatusRecord{
		CourtListID:   cachedID,
		CourtCentreID: "f8254db1-1683-483e-afb3-b87fde5a0a26",
		PublishDate:   "2026-03-02",
		CourtListType: model.CourtListTypePublic,
		PublishStatus: model.StatusRequested,
		FileStatus:    model.StatusRequested,
		LastUpdated:   time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC),
	}
}

func TestNewStatusCache(t *testing.T) {
	assert.Nil(t, core.NewStatusCache(nil, time.Second))

	var nilCache *core.StatusCache
	got, err := nilCache.Get(context.Background(), cachedID)
	require.NoError(t, err)
	assert.Nil(t, got)
	stored, err := nilCache.Put(context.Background(), cachedRecord())
	require.NoError(t, err)
	assert.False(t, stored)
	require.NoError(t, nilCache.Invalidate(context.Background(), cachedID))
}

func TestStatusCache(t *testing.T) {
	ctx := context.Background()
	key := "courtlist:status:{" + cachedID + "}"
	version := cachedRecord().LastUpdated.UnixMicro()

	tests := []struct {
		name  string
		setup func(m *mocks.MockCacheRepository)
		run   func(t *testing.T, c *core.StatusCache)
	}{
		{
			name: "put stores json versioned by last updated",
			setup: func(m *mocks.MockCacheRepository) {
				m.EXPECT().SetIfNewer(ctx, key, gomock.Any(), version, core.DefaultStatusCacheTTL).
					DoAndReturn(func(_ context.Context, _ string, value []byte, _ int64, _ time.Duration) (bool, error) {
						var rec model.PublishStatusRecord
						if err := json.Unmarshal(value, &rec); err != nil {
							return false, err
						}
						if rec.CourtListID != cachedID {
							return false, errors.New("unexpected record")
						}
						return true, nil
					})
			},
			run: func(t *testing.T, c *core.StatusCache) {
				stored, err := c.Put(ctx, cachedRecord())
				require.NoError(t, err)
				assert.True(t, stored)
			},
		},
		{
			name: "put reports a refused older version",
			setup: func(m *mocks.MockCacheRepository) {
				m.EXPECT().SetIfNewer(ctx, key, gomock.Any(), version, core.DefaultStatusCacheTTL).Return(false, nil)
			},
			run: func(t *testing.T, c *core.StatusCache) {
				stored, err := c.Put(ctx, cachedRecord())
				require.NoError(t, err)
				assert.False(t, stored)
			},
		},
		{
			name: "get decodes a hit",
			setup: func(m *mocks.MockCacheRepository) {
				raw, _ := json.Marshal(cachedRecord())
				m.EXPECT().Get(ctx, key).Return(raw, nil)
			},
			run: func(t *testing.T, c *core.StatusCache) {
				got, err := c.Get(ctx, cachedID)
				require.NoError(t, err)
				assert.Equal(t, cachedRecord(), got)
			},
		},
		{
			name: "get miss",
			setup: func(m *mocks.MockCacheRepository) {
				m.EXPECT().Get(ctx, key).Return(nil, nil)
			},
			run: func(t *testing.T, c *core.StatusCache) {
				got, err := c.Get(ctx, cachedID)
				require.NoError(t, err)
				assert.Nil(t, got)
			},
		},
		{
			name: "get with corrupt entry",
			setup: func(m *mocks.MockCacheRepository) {
				m.EXPECT().Get(ctx, key).Return([]byte("{"), nil)
			},
			run: func(t *testing.T, c *core.StatusCache) {
				_, err := c.Get(ctx, cachedID)
				require.Error(t, err)
			},
		},
		{
			name: "invalidate deletes the key",
			setup: func(m *mocks.MockCacheRepository) {
				m.EXPECT().Delete(ctx, key).Return(true, nil)
			},
			run: func(t *testing.T, c *core.StatusCache) {
				require.NoError(t, c.Invalidate(ctx, cachedID))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			m := mocks.NewMockCacheRepository(ctrl)
			tt.setup(m)
			tt.run(t, core.NewStatusCache(m, 0))
		})
	}
}
