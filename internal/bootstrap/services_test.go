package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/courtlist-publisher/config"
)

func TestErrorChannelCapacity(t *testing.T) {
	tests := []struct {
		name  string
		modes []config.ServiceMode
		want  int
	}{
		{
			name: "no services enabled",
			want: 0,
		},
		{
			name:  "http only",
			modes: []config.ServiceMode{config.ServiceModeHTTP},
			want:  1,
		},
		{
			name:  "http and publish runner",
			modes: []config.ServiceMode{config.ServiceModeHTTP, config.ServiceModePublishRunner},
			want:  2,
		},
		{
			name: "all services enabled",
			modes: []config.ServiceMode{
				config.ServiceModeHTTP,
				config.ServiceModePublishRunner,
				config.ServiceModeReaper,
			},
			want: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enabled := make(map[config.ServiceMode]bool, len(tt.modes))
			for _, mode := range tt.modes {
				enabled[mode] = true
			}

			if got := errorChannelCapacity(enabled); got != tt.want {
				t.Fatalf("errorChannelCapacity(%v) = %d, want %d", tt.modes, got, tt.want)
			}
			if got := errorChannelBufferSize(enabled); got != tt.want+1 {
				t.Fatalf("errorChannelBufferSize(%v) = %d, want %d", tt.modes, got, tt.want+1)
			}
		})
	}
}

func TestGetEnabledServices(t *testing.T) {
	cfg := &config.AppConfig{Services: "reaper, http ,publish-runner"}
	assert.Equal(t, []string{"http", "publish-runner", "reaper"}, GetEnabledServices(cfg))

	assert.Empty(t, GetEnabledServices(nil))
	assert.Empty(t, GetEnabledServices(&config.AppConfig{Services: "scheduler"}))
}

func TestValidateServiceConfig(t *testing.T) {
	require.Error(t, ValidateServiceConfig(nil))
	require.Error(t, ValidateServiceConfig(&config.AppConfig{Services: "bogus"}))
	require.NoError(t, ValidateServiceConfig(&config.AppConfig{Services: "http"}))
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLogLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, parseLogLevel(" warning "))
	assert.Equal(t, slog.LevelError, parseLogLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLogLevel(""))
	assert.Equal(t, slog.LevelInfo, parseLogLevel("verbose"))
}

func TestObservabilityContainerSink(t *testing.T) {
	assert.Nil(t, ObservabilityContainer{}.Sink())
}

func TestNewServicesRequiresDependencies(t *testing.T) {
	_, err := NewServices(context.Background(), nil)
	require.Error(t, err)

	_, err = NewServices(context.Background(), &ServiceDeps{Config: &config.AppConfig{}})
	require.ErrorContains(t, err, "database connection is required")
}

func TestRunPublishRunnerValidation(t *testing.T) {
	err := RunPublishRunner(context.Background(), PublishRunnerConfig{})
	require.ErrorContains(t, err, "publish pipeline is required")

	err = runAMQPConsumer(context.Background(), PublishRunnerConfig{Backend: config.ExecutorAMQP})
	require.ErrorContains(t, err, "amqp broker is required")
}

func TestLaunchBackground(t *testing.T) {
	t.Run("forwards start errors", func(t *testing.T) {
		deps := &serviceStartupDeps{
			logger:          slog.Default(),
			enabledServices: map[config.ServiceMode]bool{config.ServiceModeReaper: true},
			errCh:           make(chan error, 1),
		}
		done := launchBackground(context.Background(), deps, backgroundService{
			mode:  config.ServiceModeReaper,
			name:  "reaper",
			start: func(context.Context) error { return errors.New("boom") },
		})
		require.NotNil(t, done)

		select {
		case err := <-deps.errCh:
			assert.EqualError(t, err, "reaper failed: boom")
		case <-time.After(time.Second):
			t.Fatal("expected background error")
		}
		<-done
	})

	t.Run("skips disabled services", func(t *testing.T) {
		deps := &serviceStartupDeps{enabledServices: map[config.ServiceMode]bool{}}
		done := launchBackground(context.Background(), deps, backgroundService{
			mode:  config.ServiceModePublishRunner,
			name:  "publish runner",
			start: func(context.Context) error { return nil },
		})
		assert.Nil(t, done)
	})
}

func TestGracefulStopWaitsForBackgrounds(t *testing.T) {
	done := make(chan struct{})
	close(done)

	err := gracefulStop(shutdownConfig{
		logger:      slog.Default(),
		backgrounds: []backgroundServiceHandle{{mode: config.ServiceModeReaper, name: "reaper", done: done}},
	})
	require.NoError(t, err)
}
