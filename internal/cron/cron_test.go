package cron

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	cronv3 "github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"k8s.io/client-go/kubernetes"

	"github.com/mailtemp/tempmail/interfaces"
	cron_config "github.com/mailtemp/tempmail/internal/cron/config"
	"github.com/mailtemp/tempmail/internal/logger"
)

type mockKubernetesInterface struct {
	kubernetes.Interface
	mock.Mock
}

type mockRetentionService struct {
	mock.Mock
}

func (m *mockRetentionService) Sweep(ctx context.Context, now time.Time) (interfaces.SweepResult, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(interfaces.SweepResult), args.Error(1)
}

func getLogger() logger.Logger {
	appLogger := logger.NewAppLogger(&logger.Config{
		LogLevel: "info",
		DevMode:  true,
	})
	appLogger.InitLogger()
	return appLogger
}

func testConfig() *cron_config.Config {
	return &cron_config.Config{
		CronScheduleHeartbeat: "0 * * * * *",
		CronScheduleRetention: "0 */5 * * * *",
	}
}

func TestNewCronManager(t *testing.T) {
	cfg := testConfig()
	log := getLogger()
	k8s := &mockKubernetesInterface{}

	cm := NewCronManager(cfg, log, k8s, nil)

	assert.NotNil(t, cm)
	assert.Equal(t, cfg, cm.cfg)
	assert.Equal(t, log, cm.log)
	assert.Equal(t, k8s, cm.k8s)
	assert.NotNil(t, cm.jobIDs)
}

func TestCronManager_RegisterJobs(t *testing.T) {
	cm := NewCronManager(testConfig(), getLogger(), nil, &mockRetentionService{})

	require.NoError(t, cm.registerJobs(cronv3.New(cronv3.WithSeconds())))

	assert.Len(t, cm.jobIDs, 2)
	assert.Contains(t, cm.jobIDs, "heartbeat")
	assert.Contains(t, cm.jobIDs, "retention")
}

func TestCronManager_RegisterJobs_SkipsRetentionWithoutService(t *testing.T) {
	cm := NewCronManager(testConfig(), getLogger(), nil, nil)

	require.NoError(t, cm.registerJobs(cronv3.New(cronv3.WithSeconds())))

	assert.Len(t, cm.jobIDs, 1)
	assert.NotContains(t, cm.jobIDs, "retention")
}

func TestCronManager_RegisterJobs_InvalidSchedule(t *testing.T) {
	cfg := testConfig()
	cfg.CronScheduleRetention = "every now and then"
	cm := NewCronManager(cfg, getLogger(), nil, &mockRetentionService{})

	assert.Error(t, cm.registerJobs(cronv3.New(cronv3.WithSeconds())))
}

func TestCronManager_StartLocalAndStop(t *testing.T) {
	cm := NewCronManager(testConfig(), getLogger(), nil, &mockRetentionService{})

	require.NoError(t, cm.Start("pod-1", "default"))
	assert.NotNil(t, cm.cron)
	// a second start keeps the running scheduler
	first := cm.cron
	require.NoError(t, cm.StartCron())
	assert.Same(t, first, cm.cron)

	cm.Stop()
	cm.Stop()

	assert.Nil(t, cm.cron)
	select {
	case <-cm.stopCh:
	default:
		t.Error("Stop channel was not closed")
	}
}

func TestCronManager_SweepExpired(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	retention := &mockRetentionService{}
	retention.On("Sweep", mock.Anything, now).Return(interfaces.SweepResult{EmailsDeleted: 4, AccountsDeleted: 1}, nil).Once()
	retention.On("Sweep", mock.Anything, now).Return(interfaces.SweepResult{}, errors.New("db down")).Once()

	cm := NewCronManager(testConfig(), getLogger(), nil, retention)
	cm.now = func() time.Time { return now }

	cm.sweepExpired()
	cm.sweepExpired()

	retention.AssertNumberOfCalls(t, "Sweep", 2)
}
