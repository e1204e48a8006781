package task

import (
	"fmt"

	"github.com/Rishabh-k-Paliwal/astrologix/pkg/schedule"
	"github.com/Rishabh-k-Paliwal/astrologix/pkg/utils"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// Worker runs the task server and the periodic scheduler together.
type Worker struct {
	server    *asynq.Server
	scheduler *asynq.Scheduler
	mux       *asynq.ServeMux
	log       *zap.Logger
}

func NewWorker(config *utils.Config, handlers *Handlers, log *zap.Logger) (*Worker, error) {
	opt := RedisOpt(config.Redis)
	sugar := log.Sugar()

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: 10,
		Queues: map[string]int{
			"default": 1,
		},
		Logger: sugar,
	})

	calendar := schedule.NewCalendar(config.Booking.Timezone, config.Booking.HorizonDays)
	scheduler := asynq.NewScheduler(opt, &asynq.SchedulerOpts{
		Location: calendar.Location,
		Logger:   sugar,
	})
	for _, job := range periodicJobs(config) {
		if _, err := scheduler.Register(job.spec, job.task); err != nil {
			return nil, fmt.Errorf("register %s job %q: %w", job.task.Type(), job.spec, err)
		}
	}

	mux := asynq.NewServeMux()
	handlers.Register(mux)

	return &Worker{server: server, scheduler: scheduler, mux: mux, log: log}, nil
}

type periodicJob struct {
	spec string
	task *asynq.Task
}

// periodicJobs lists the cron driven tasks. A job with an empty spec is off.
func periodicJobs(config *utils.Config) []periodicJob {
	all := []periodicJob{
		{spec: config.Booking.ExpireCronSpec, task: NewExpirePendingTask()},
		{spec: config.Session.CleanCronSpec, task: NewCleanSessionsTask()},
	}

	jobs := all[:0]
	for _, job := range all {
		if job.spec != "" {
			jobs = append(jobs, job)
		}
	}
	return jobs
}

func (w *Worker) Start() error {
	if err := w.server.Start(w.mux); err != nil {
		return fmt.Errorf("start task server: %w", err)
	}
	if err := w.scheduler.Start(); err != nil {
		w.server.Shutdown()
		return fmt.Errorf("start scheduler: %w", err)
	}
	w.log.Info("Worker started")
	return nil
}

func (w *Worker) Shutdown() {
	w.scheduler.Shutdown()
	w.server.Shutdown()
	w.log.Info("Worker stopped")
}
