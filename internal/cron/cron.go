package cron

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/caarlos0/env/v6"
	cronv3 "github.com/robfig/cron/v3"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/tools/leaderelection"
	"k8s.io/client-go/tools/leaderelection/resourcelock"

	"github.com/NeonAnubis/afrimail-backend/interfaces"
	"github.com/NeonAnubis/afrimail-backend/internal/config"
	cron_config "github.com/NeonAnubis/afrimail-backend/internal/cron/config"
	"github.com/NeonAnubis/afrimail-backend/internal/logger"
	"github.com/NeonAnubis/afrimail-backend/internal/tracing"
)

// CONSTANTS
const (
	// GroupSync is the group for mailcow cache sync jobs
	GroupSync = "sync"

	// LeaseDuration is how long a lease lasts before needing renewal
	LeaseDuration = 15 * time.Second
	// RenewDeadline is how long a leader has to renew its lease
	RenewDeadline = 10 * time.Second
	// RetryPeriod is how long to wait between leadership attempts
	RetryPeriod = 2 * time.Second
)

// LOCK MANAGEMENT
var jobLocks = struct {
	sync.Mutex
	locks map[string]*sync.Mutex
}{
	locks: map[string]*sync.Mutex{
		GroupSync: new(sync.Mutex),
	},
}

type CronManager struct {
	cfg    *config.Config
	log    logger.Logger
	cron   *cronv3.Cron
	k8s    kubernetes.Interface
	stopCh chan struct{}
	jobIDs map[string]cronv3.EntryID
	sync   interfaces.SyncService
}

func NewCronManager(cfg *config.Config, log logger.Logger, k8s kubernetes.Interface, syncService interfaces.SyncService) *CronManager {
	return &CronManager{
		cfg:    cfg,
		log:    log,
		k8s:    k8s,
		stopCh: make(chan struct{}),
		jobIDs: make(map[string]cronv3.EntryID),
		sync:   syncService,
	}
}

// Start initializes and starts the cron manager with leader election
// If k8s is nil, it will start in local mode without leader election
func (cm *CronManager) Start(podName, namespace string) error {
	if cm.k8s == nil || os.Getenv("LOCAL_DEV") == "true" {
		cm.log.Info("Starting cron manager in local mode")
		cm.StartCron()
		return nil
	}

	lock := &resourcelock.LeaseLock{
		LeaseMeta: metav1.ObjectMeta{
			Name:      "afrimail-cron-leader",
			Namespace: namespace,
		},
		Client: cm.k8s.CoordinationV1(),
		LockConfig: resourcelock.ResourceLockConfig{
			Identity: podName,
		},
	}

	errCh := make(chan error, 1)

	go func() {
		le, err := leaderelection.NewLeaderElector(leaderelection.LeaderElectionConfig{
			Lock:            lock,
			ReleaseOnCancel: true,
			LeaseDuration:   LeaseDuration,
			RenewDeadline:   RenewDeadline,
			RetryPeriod:     RetryPeriod,
			Callbacks: leaderelection.LeaderCallbacks{
				OnStartedLeading: func(ctx context.Context) {
					cm.StartCron()
				},
				OnStoppedLeading: func() {
					cm.log.Info("Leader lost - stopping crons")
					cm.Stop()
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

		ctx := context.Background()
		le.Run(ctx)
	}()

	// Wait briefly to see if leader election fails immediately
	select {
	case err := <-errCh:
		cm.log.Warnf("Leader election failed, falling back to local mode: %v", err)
		cm.StartCron()
	case <-time.After(5 * time.Second):
	}

	return nil
}

// Stop gracefully stops the cron manager
func (cm *CronManager) Stop() {
	if cm.cron != nil {
		cm.log.Info("Stopping cron manager")
		ctx := cm.cron.Stop()
		// Wait for jobs to finish
		<-ctx.Done()
	}
	close(cm.stopCh)
}

// registerJobs adds all cron jobs to the scheduler
func (cm *CronManager) registerJobs(c *cronv3.Cron) {
	var cronConfig cron_config.Config
	if err := env.Parse(&cronConfig); err != nil {
		cm.log.Fatalf("Failed to parse cron config from environment: %v", err)
	}

	if cronConfig.CronScheduleHeartbeat != "" {
		podName := os.Getenv("POD_NAME")
		if podName == "" {
			podName = "local"
		}
		id, err := c.AddFunc(cronConfig.CronScheduleHeartbeat, func() {
			defer tracing.RecoverAndLogToJaeger(cm.log)
			cm.log.Infof("Cron heartbeat from pod: %s", podName)
		})
		if err != nil {
			cm.log.Fatalf("Could not add heartbeat cron job: %v", err)
		}
		cm.jobIDs["heartbeat"] = id
		cm.log.Infof("Registered heartbeat job with schedule: %s", cronConfig.CronScheduleHeartbeat)
	}

	if cronConfig.CronScheduleSyncMailboxes != "" {
		id, err := c.AddFunc(cronConfig.CronScheduleSyncMailboxes, func() {
			defer tracing.RecoverAndLogToJaeger(cm.log)
			jobLocks.locks[GroupSync].Lock()
			defer jobLocks.locks[GroupSync].Unlock()
			cm.syncMailboxes()
		})
		if err != nil {
			cm.log.Fatalf("Could not add mailbox sync cron job: %v", err)
		}
		cm.jobIDs["sync_mailboxes"] = id
		cm.log.Infof("Registered mailbox sync job with schedule: %s", cronConfig.CronScheduleSyncMailboxes)
	}

	if cronConfig.CronScheduleSyncAliases != "" {
		id, err := c.AddFunc(cronConfig.CronScheduleSyncAliases, func() {
			defer tracing.RecoverAndLogToJaeger(cm.log)
			jobLocks.locks[GroupSync].Lock()
			defer jobLocks.locks[GroupSync].Unlock()
			cm.syncAliases()
		})
		if err != nil {
			cm.log.Fatalf("Could not add alias sync cron job: %v", err)
		}
		cm.jobIDs["sync_aliases"] = id
		cm.log.Infof("Registered alias sync job with schedule: %s", cronConfig.CronScheduleSyncAliases)
	}

	if cronConfig.CronScheduleSyncDomains != "" {
		id, err := c.AddFunc(cronConfig.CronScheduleSyncDomains, func() {
			defer tracing.RecoverAndLogToJaeger(cm.log)
			jobLocks.locks[GroupSync].Lock()
			defer jobLocks.locks[GroupSync].Unlock()
			cm.syncDomains()
		})
		if err != nil {
			cm.log.Fatalf("Could not add domain sync cron job: %v", err)
		}
		cm.jobIDs["sync_domains"] = id
		cm.log.Infof("Registered domain sync job with schedule: %s", cronConfig.CronScheduleSyncDomains)
	}
}

// StartCron initializes and starts the cron scheduler
func (cm *CronManager) StartCron() {
	cm.log.Info("Starting cron manager")
	cronOptions := []cronv3.Option{
		cronv3.WithSeconds(),
		cronv3.WithChain(
			cronv3.SkipIfStillRunning(cronv3.DefaultLogger),
			cronv3.Recover(cronv3.DefaultLogger),
		),
	}
	c := cronv3.New(cronOptions...)
	cm.registerJobs(c)
	c.Start()
	cm.cron = c
}

func (cm *CronManager) syncMailboxes() {
	ctx := context.Background()
	span, ctx := tracing.StartTracerSpan(ctx, "CronManager.syncMailboxes")
	defer span.Finish()
	tracing.TagComponentCronJob(span)

	if _, err := cm.sync.SyncAllMailboxes(ctx); err != nil {
		tracing.TraceErr(span, err)
		cm.log.Errorf("Failed to sync mailboxes: %v", err)
	}
}

func (cm *CronManager) syncAliases() {
	ctx := context.Background()
	span, ctx := tracing.StartTracerSpan(ctx, "CronManager.syncAliases")
	defer span.Finish()
	tracing.TagComponentCronJob(span)

	if _, err := cm.sync.SyncAllAliases(ctx); err != nil {
		tracing.TraceErr(span, err)
		cm.log.Errorf("Failed to sync aliases: %v", err)
	}
}

func (cm *CronManager) syncDomains() {
	ctx := context.Background()
	span, ctx := tracing.StartTracerSpan(ctx, "CronManager.syncDomains")
	defer span.Finish()
	tracing.TagComponentCronJob(span)

	if _, err := cm.sync.SyncAllDomains(ctx); err != nil {
		tracing.TraceErr(span, err)
		cm.log.Errorf("Failed to sync domains: %v", err)
	}
}
