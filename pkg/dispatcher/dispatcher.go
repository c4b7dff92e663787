package dispatcher

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/panjf2000/ants/v2"
	"github.com/pkg/errors"
)

const (
	TaskFailed = iota
	TaskDone
	TaskActive
	TaskPending
	TaskDropped
)

var ErrInvalidPayload = errors.New("invalid payload")

type Task struct {
	Payload interface{}
	result  *Result
}

// SetResult attaches a value to the task result, readable by the dispatching side.
func (t Task) SetResult(v interface{}) {
	t.result.mu.Lock()
	t.result.value = v
	t.result.mu.Unlock()
}

type Result struct {
	mu     sync.RWMutex
	status int
	err    error
	value  interface{}
}

type Workload interface {
	Do(Task) error
}

func (r *Result) Status() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.status
}

func (r *Result) Error() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.err
}

func (r *Result) Value() interface{} {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.value
}

func (r *Result) Failed() bool {
	return r.Status() == TaskFailed
}

func (r *Result) Done() bool {
	return r.Status() == TaskDone
}

func (r *Result) set(status int, err error) {
	r.mu.Lock()
	r.status = status
	r.err = err
	r.mu.Unlock()
}

// Dispatcher runs every dispatched task on a bounded pool of goroutines.
// Tasks are independent: a failing or panicking workload only fails its own task.
type Dispatcher struct {
	pool   *ants.Pool
	wl     Workload
	wait   *sync.WaitGroup
	active int32
}

// Start creates a dispatcher running at most workers tasks at a time.
func Start(workers int, wl Workload) (*Dispatcher, error) {
	if workers < 1 {
		return nil, fmt.Errorf("invalid number of workers: %v", workers)
	}
	p, err := ants.NewPool(workers)
	if err != nil {
		return nil, errors.Wrap(err, "cannot start worker pool")
	}
	logger.Debugf("started pool of %v workers for %T", workers, wl)
	return &Dispatcher{pool: p, wl: wl, wait: &sync.WaitGroup{}}, nil
}

// Dispatch submits payload for processing. It blocks while all workers are busy.
func (d *Dispatcher) Dispatch(payload interface{}) *Result {
	r := &Result{status: TaskPending}
	t := Task{Payload: payload, result: r}

	d.wait.Add(1)
	QueueLength.Inc()
	Tasks.WithLabelValues(statusQueued).Inc()
	err := d.pool.Submit(func() {
		defer d.wait.Done()
		d.run(t)
	})
	if err != nil {
		d.wait.Done()
		QueueLength.Dec()
		Tasks.WithLabelValues(statusDropped).Inc()
		r.set(TaskDropped, err)
		logger.Warnw("task dropped", "err", err)
	}
	return r
}

func (d *Dispatcher) run(t Task) {
	QueueLength.Dec()
	TasksActive.Inc()
	atomic.AddInt32(&d.active, 1)
	defer func() {
		atomic.AddInt32(&d.active, -1)
		TasksActive.Dec()
	}()

	t.result.set(TaskActive, nil)
	ll := logger.With("task", fmt.Sprintf("%+v", t.Payload))
	ll.Debugw("worker got a task")

	err := d.do(t)
	if err != nil {
		Tasks.WithLabelValues(statusFailed).Inc()
		ll.Debugw("workload failed", "err", err)
		t.result.set(TaskFailed, err)
		return
	}
	Tasks.WithLabelValues(statusDone).Inc()
	t.result.set(TaskDone, nil)
}

func (d *Dispatcher) do(t Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("workload panicked: %v", r)
		}
	}()
	return d.wl.Do(t)
}

// Wait blocks until every dispatched task has finished, successfully or not.
func (d *Dispatcher) Wait() {
	d.wait.Wait()
}

// Running is the number of tasks being worked on right now.
func (d *Dispatcher) Running() int {
	return int(atomic.LoadInt32(&d.active))
}

// Stop waits for dispatched tasks to finish and releases the workers.
func (d *Dispatcher) Stop() {
	d.Wait()
	d.pool.Release()
	logger.Debugf("all %v workers are stopped", d.pool.Cap())
}
