package dispatcher

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	statusQueued  = "queued"
	statusDropped = "dropped"
	statusDone    = "done"
	statusFailed  = "failed"
)

var (
	once = sync.Once{}

	QueueLength = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "dispatcher_queue_length",
		Help: "Tasks submitted but not yet picked up by a worker.",
	})
	TasksActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "dispatcher_tasks_active",
	})
	Tasks = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dispatcher_tasks_total",
		Help: "Dispatched tasks by outcome.",
	}, []string{"status"})
)

// RegisterMetrics adds dispatcher metrics to the default registry. Safe to call more than once.
func RegisterMetrics() {
	once.Do(func() {
		prometheus.MustRegister(QueueLength, TasksActive, Tasks)
	})
}
