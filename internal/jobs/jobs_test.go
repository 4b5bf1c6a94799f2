package jobs_test

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitepulse/internal/config"
	"sitepulse/internal/events"
	"sitepulse/internal/jobs"
	"sitepulse/internal/testsupport"
)

func TestMain(m *testing.M) {
	testsupport.UseTestEnvironment()
	os.Exit(m.Run())
}

func TestRetentionJob(t *testing.T) {
	dbManager, logger := testsupport.SetupTestDBManager(t)
	db := dbManager.GetConnection()

	t.Run("deletes records older than the retention period", func(t *testing.T) {
		testsupport.CleanAllTables(db)

		now := time.Now().UTC()
		fresh := testsupport.CreateSession(t, db, "fresh", "/", "Germany", now)
		expired := testsupport.CreateSession(t, db, "expired", "/", "Germany", now.AddDate(0, 0, -100))
		require.NoError(t, db.Model(expired).Update("created_at", now.AddDate(0, 0, -91)).Error)

		freshEvent := testsupport.CreateEvent(t, db, "fresh", "project_view", nil, now)
		expiredEvent := testsupport.CreateEvent(t, db, "expired", "project_view", nil, now.AddDate(0, 0, -100))
		require.NoError(t, db.Model(expiredEvent).Update("created_at", now.AddDate(0, 0, -95)).Error)

		job := jobs.NewRetentionJob(dbManager, logger, 90*24*time.Hour)
		result, err := job.Run(context.Background())
		require.NoError(t, err)

		assert.Equal(t, int64(1), result.SessionsDeleted)
		assert.Equal(t, int64(1), result.EventsDeleted)

		var sessions []events.Session
		require.NoError(t, db.Find(&sessions).Error)
		require.Len(t, sessions, 1)
		assert.Equal(t, fresh.ID, sessions[0].ID)

		var evts []events.Event
		require.NoError(t, db.Find(&evts).Error)
		require.Len(t, evts, 1)
		assert.Equal(t, freshEvent.ID, evts[0].ID)
	})

	t.Run("retention is measured from insertion, not from the event time", func(t *testing.T) {
		testsupport.CleanAllTables(db)

		// Backdated timestamp, but inserted just now
		testsupport.CreateSession(t, db, "backfilled", "/", "", time.Now().AddDate(-1, 0, 0))

		job := jobs.NewRetentionJob(dbManager, logger, 90*24*time.Hour)
		result, err := job.Run(context.Background())
		require.NoError(t, err)

		assert.Equal(t, int64(0), result.SessionsDeleted)
	})

	t.Run("stops when the context is cancelled", func(t *testing.T) {
		testsupport.CleanAllTables(db)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		job := jobs.NewRetentionJob(dbManager, logger, 90*24*time.Hour)
		_, err := job.Run(ctx)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestScheduler(t *testing.T) {
	dbManager, logger := testsupport.SetupTestDBManager(t)
	db := dbManager.GetConnection()
	testsupport.CleanAllTables(db)

	expired := testsupport.CreateSession(t, db, "expired", "/", "", time.Now())
	require.NoError(t, db.Model(expired).Update("created_at", time.Now().UTC().AddDate(0, 0, -120)).Error)

	cfg := config.GetConfig()
	scheduler := jobs.NewScheduler(dbManager, logger, cfg)

	require.NoError(t, scheduler.Start())
	assert.True(t, scheduler.IsRunning())

	assert.Eventually(t, func() bool {
		var count int64
		db.Model(&events.Session{}).Count(&count)
		return count == 0
	}, 2*time.Second, 20*time.Millisecond, "initial sweep should remove the expired session")

	scheduler.Stop()
	assert.False(t, scheduler.IsRunning())

	// Stopping twice is a no-op
	scheduler.Stop()
}

func TestSchedulerRunRetentionNow(t *testing.T) {
	dbManager, logger := testsupport.SetupTestDBManager(t)
	db := dbManager.GetConnection()
	testsupport.CleanAllTables(db)

	expired := testsupport.CreateSession(t, db, "expired", "/", "", time.Now())
	require.NoError(t, db.Model(expired).Update("created_at", time.Now().UTC().AddDate(0, 0, -120)).Error)
	testsupport.CreateSession(t, db, "fresh", "/", "", time.Now())

	scheduler := jobs.NewScheduler(dbManager, logger, config.GetConfig())

	result, err := scheduler.RunRetentionNow(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.SessionsDeleted)
	assert.Equal(t, int64(0), result.EventsDeleted)
	assert.False(t, scheduler.IsRunning(), "a manual sweep does not start the loop")

	last := jobs.LastSweep()
	require.NotNil(t, last)
	assert.Equal(t, int64(1), last.SessionsDeleted)
	assert.Equal(t, result.Cutoff, last.Cutoff)
	assert.Empty(t, last.Error)

	t.Run("uses the caller context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := scheduler.RunRetentionNow(ctx)
		assert.ErrorIs(t, err, context.Canceled)

		last := jobs.LastSweep()
		require.NotNil(t, last)
		assert.Contains(t, last.Error, context.Canceled.Error())
	})
}

func TestSchedulerLifecycleIsSafeForConcurrentUse(t *testing.T) {
	dbManager, logger := testsupport.SetupTestDBManager(t)
	scheduler := jobs.NewScheduler(dbManager, logger, config.GetConfig())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, scheduler.Start())
			_ = scheduler.IsRunning()
		}()
	}
	wg.Wait()
	assert.True(t, scheduler.IsRunning())

	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			scheduler.Stop()
		}()
	}
	wg.Wait()
	assert.False(t, scheduler.IsRunning())
}
