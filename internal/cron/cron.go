package cron

import (
	"context"
	"os"
	"sync"
	"time"

	cronv3 "github.com/robfig/cron/v3"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/tools/leaderelection"
	"k8s.io/client-go/tools/leaderelection/resourcelock"

	"github.com/mailtemp/tempmail/interfaces"
	cron_config "github.com/mailtemp/tempmail/internal/cron/config"
	"github.com/mailtemp/tempmail/internal/logger"
	"github.com/mailtemp/tempmail/internal/tracing"
)

// CONSTANTS
const (
	// GroupRetention is the group for jobs that delete expired data
	GroupRetention = "retention"

	// LeaseDuration is how long a lease lasts before needing renewal
	LeaseDuration = 15 * time.Second
	// RenewDeadline is how long a leader has to renew its lease
	RenewDeadline = 10 * time.Second
	// RetryPeriod is how long to wait between leadership attempts
	RetryPeriod = 2 * time.Second

	leaseName = "tempmail-cron-leader"
)

// LOCK MANAGEMENT
var jobLocks = struct {
	sync.Mutex
	locks map[string]*sync.Mutex
}{
	locks: map[string]*sync.Mutex{
		GroupRetention: new(sync.Mutex),
	},
}

type CronManager struct {
	cfg       *cron_config.Config
	log       logger.Logger
	cron      *cronv3.Cron
	cronMutex sync.Mutex
	k8s       kubernetes.Interface
	stopCh    chan struct{}
	stopOnce  sync.Once
	jobIDs    map[string]cronv3.EntryID
	retention interfaces.RetentionService
	now       func() time.Time
}

func NewCronManager(cfg *cron_config.Config, log logger.Logger, k8s kubernetes.Interface, retention interfaces.RetentionService) *CronManager {
	return &CronManager{
		cfg:       cfg,
		log:       log,
		k8s:       k8s,
		stopCh:    make(chan struct{}),
		jobIDs:    make(map[string]cronv3.EntryID),
		retention: retention,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Start initializes and starts the cron manager with leader election
// If k8s is nil, it will start in local mode without leader election
func (cm *CronManager) Start(podName, namespace string) error {
	if cm.k8s == nil || os.Getenv("LOCAL_DEV") == "true" {
		cm.log.Info("Starting cron manager in local mode")
		return cm.StartCron()
	}

	lock := &resourcelock.LeaseLock{
		LeaseMeta: metav1.ObjectMeta{
			Name:      leaseName,
			Namespace: namespace,
		},
		Client: cm.k8s.CoordinationV1(),
		LockConfig: resourcelock.ResourceLockConfig{
			Identity: podName,
		},
	}

	errCh := make(chan error, 1)

	go func() {
		defer tracing.RecoverAndLogToJaeger(cm.log)

		le, err := leaderelection.NewLeaderElector(leaderelection.LeaderElectionConfig{
			Lock:            lock,
			ReleaseOnCancel: true,
			LeaseDuration:   LeaseDuration,
			RenewDeadline:   RenewDeadline,
			RetryPeriod:     RetryPeriod,
			Callbacks: leaderelection.LeaderCallbacks{
				OnStartedLeading: func(ctx context.Context) {
					if err := cm.StartCron(); err != nil {
						cm.log.Errorf("Failed to start crons as leader: %v", err)
					}
				},
				OnStoppedLeading: func() {
					cm.log.Info("Leader lost - stopping crons")
					cm.stopCron()
				},
				OnNewLeader: func(identity string) {
					cm.log.Infof("New leader elected: %s", identity)
				},
			},
		})
		if err != nil {
			errCh <- err
			return
		}

		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			<-cm.stopCh
			cancel()
		}()
		le.Run(ctx)
	}()

	// Wait briefly to see if leader election fails immediately
	select {
	case err := <-errCh:
		cm.log.Warnf("Leader election failed, falling back to local mode: %v", err)
		return cm.StartCron()
	case <-time.After(5 * time.Second):
	}

	return nil
}

// Stop gracefully stops the cron manager. It is safe to call more than once.
func (cm *CronManager) Stop() {
	cm.stopCron()
	cm.stopOnce.Do(func() {
		close(cm.stopCh)
	})
}

func (cm *CronManager) stopCron() {
	cm.cronMutex.Lock()
	defer cm.cronMutex.Unlock()

	if cm.cron != nil {
		cm.log.Info("Stopping cron manager")
		ctx := cm.cron.Stop()
		// Wait for jobs to finish
		<-ctx.Done()
		cm.cron = nil
	}
}

// registerJobs adds all cron jobs to the scheduler
func (cm *CronManager) registerJobs(c *cronv3.Cron) error {
	if cm.cfg.CronScheduleHeartbeat != "" {
		podName := os.Getenv("POD_NAME")
		if podName == "" {
			podName = "local"
		}
		id, err := c.AddFunc(cm.cfg.CronScheduleHeartbeat, func() {
			defer tracing.RecoverAndLogToJaeger(cm.log)
			cm.log.Debugf("Cron heartbeat from pod: %s", podName)
		})
		if err != nil {
			return err
		}
		cm.jobIDs["heartbeat"] = id
		cm.log.Infof("Registered heartbeat job with schedule: %s", cm.cfg.CronScheduleHeartbeat)
	}

	if cm.cfg.CronScheduleRetention != "" && cm.retention != nil {
		id, err := c.AddFunc(cm.cfg.CronScheduleRetention, func() {
			defer tracing.RecoverAndLogToJaeger(cm.log)
			jobLocks.locks[GroupRetention].Lock()
			defer jobLocks.locks[GroupRetention].Unlock()
			cm.sweepExpired()
		})
		if err != nil {
			return err
		}
		cm.jobIDs["retention"] = id
		cm.log.Infof("Registered retention job with schedule: %s", cm.cfg.CronScheduleRetention)
	}
	return nil
}

// StartCron initializes and starts the cron scheduler
func (cm *CronManager) StartCron() error {
	cm.cronMutex.Lock()
	defer cm.cronMutex.Unlock()

	if cm.cron != nil {
		return nil
	}

	cm.log.Info("Starting cron manager")
	cronOptions := []cronv3.Option{
		cronv3.WithSeconds(),
		cronv3.WithChain(
			cronv3.SkipIfStillRunning(cronv3.DefaultLogger),
			cronv3.Recover(cronv3.DefaultLogger),
		),
	}
	c := cronv3.New(cronOptions...)
	if err := cm.registerJobs(c); err != nil {
		cm.log.Errorf("Could not register cron jobs: %v", err)
		return err
	}
	c.Start()
	cm.cron = c
	return nil
}

func (cm *CronManager) sweepExpired() {
	ctx := context.Background()

	span, ctx := tracing.StartTracerSpan(ctx, "CronManager.sweepExpired")
	defer span.Finish()
	tracing.SetDefaultCronSpanTags(ctx, span)

	result, err := cm.retention.Sweep(ctx, cm.now())
	if err != nil {
		tracing.TraceErr(span, err)
		cm.log.Errorf("Failed to sweep expired data: %v", err)
		return
	}
	tracing.LogObjectAsJson(span, "result", result)

	if result.EmailsDeleted > 0 || result.AccountsDeleted > 0 {
		cm.log.Infof("Retention sweep removed %d emails, %d raw objects and %d accounts",
			result.EmailsDeleted, result.ObjectsDeleted, result.AccountsDeleted)
	}
}
