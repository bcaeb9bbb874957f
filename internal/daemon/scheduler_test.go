package daemon

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSchedulerScheduleEvery(t *testing.T) {
	t.Run("returns job id for valid interval", func(t *testing.T) {
		s, err := NewScheduler()
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Stop(context.Background()) })

		id, err := s.ScheduleEvery("probe-sweep", 10*time.Second, func() {})
		require.NoError(t, err)
		require.NotEmpty(t, id)
	})

	t.Run("rejects non-positive interval", func(t *testing.T) {
		s, err := NewScheduler()
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Stop(context.Background()) })

		_, err = s.ScheduleEvery("probe-sweep", 0, func() {})
		require.Error(t, err)
	})
}

func TestSchedulerRunsTask(t *testing.T) {
	s, err := NewScheduler()
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Stop(context.Background()) })

	fired := make(chan struct{}, 1)
	_, err = s.ScheduleEvery("tick", 10*time.Millisecond, func() {
		select {
		case fired <- struct{}{}:
		default:
		}
	})
	require.NoError(t, err)

	require.False(t, s.Started())
	s.Start(context.Background())
	require.True(t, s.Started())

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduled task never ran")
	}

	require.NoError(t, s.Stop(context.Background()))
	require.False(t, s.Started())
}
