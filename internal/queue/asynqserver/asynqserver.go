package asynqserver

import (
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/pawsitter/backend/internal/cache"
	"github.com/pawsitter/backend/internal/config"
	"github.com/pawsitter/backend/internal/queue/processor"
	"github.com/pawsitter/backend/internal/queue/task"
	"github.com/pawsitter/backend/internal/worker"
)

func New(cfg *config.Config, workers *worker.Workers) (*asynq.Server, *asynq.ServeMux) {
	mux, queues := getQueues(workers)
	srv := asynq.NewServer(
		RedisOptions(cfg.Cache),
		asynq.Config{
			Concurrency: cfg.Queue.Concurrency,
			LogLevel:    asynq.ErrorLevel,
			Queues:      queues,
		},
	)

	return srv, mux
}

// NewScheduler enqueues the periodic stale eligibility sweep.
func NewScheduler(cfg *config.Config) (*asynq.Scheduler, error) {
	scheduler := asynq.NewScheduler(RedisOptions(cfg.Cache), &asynq.SchedulerOpts{
		LogLevel: asynq.ErrorLevel,
	})

	spec := fmt.Sprintf("@every %s", cfg.Queue.ReconcileInterval)
	if _, err := scheduler.Register(spec, task.NewReconcileStaleTask(cfg.Queue.ReconcileInterval)); err != nil {
		return nil, fmt.Errorf("register reconcile task failed: %w", err)
	}

	return scheduler, nil
}

func RedisOptions(cfg config.Cache) asynq.RedisConnOpt {
	if cfg.Type == cache.RedisTypeCluster {
		return asynq.RedisClusterClientOpt{
			Addrs:    cfg.RedisCluster.Addresses,
			Password: cfg.RedisCluster.Password,
		}
	}
	return asynq.RedisClientOpt{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
	}
}

func getQueues(workers *worker.Workers) (*asynq.ServeMux, map[string]int) {
	mux := asynq.NewServeMux()
	mux.Handle(task.NotifyDecisionTaskName, processor.NewNotifyDecisionProcessor(workers))
	mux.Handle(task.SyncEligibilityTaskName, processor.NewSyncEligibilityProcessor(workers))
	mux.Handle(task.ReconcileStaleTaskName, processor.NewReconcileStaleProcessor(workers))
	queues := map[string]int{
		task.EligibilityQueueName:   2,
		task.NotificationsQueueName: 1,
	}
	return mux, queues
}
