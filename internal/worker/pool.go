package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/forumkit/forumkit/internal/queue"
)

// Handler processes one claimed job. A nil return acknowledges the job;
// an error hands it to the broker's retry machinery.
type Handler interface {
	Handle(ctx context.Context, job *queue.Job) error
}

// MetricHooks carries the metric callback functions injected by main.
// Using a struct keeps the pool constructor signature clean.
type MetricHooks struct {
	OnProcessed func(queueName string, latency time.Duration)
	OnFailed    func(queueName string)
}

// Pool runs n identical workers against one named queue. Any number of pools
// (or processes) may consume the same queue concurrently; the broker's
// conditional claim is the sole arbiter of who gets a job.
type Pool struct {
	queueName string
	broker    *queue.Broker
	handler   Handler
	size      int
	logger    *zap.Logger
	hooks     MetricHooks
	wg        sync.WaitGroup
}

// NewPool constructs a pool. Hook fields are optional (nil = no-op).
func NewPool(
	queueName string,
	broker *queue.Broker,
	handler Handler,
	size int,
	logger *zap.Logger,
	hooks MetricHooks,
) *Pool {
	if hooks.OnProcessed == nil {
		hooks.OnProcessed = func(string, time.Duration) {}
	}
	if hooks.OnFailed == nil {
		hooks.OnFailed = func(string) {}
	}
	return &Pool{
		queueName: queueName,
		broker:    broker,
		handler:   handler,
		size:      size,
		logger:    logger,
		hooks:     hooks,
	}
}

// Start launches all workers as goroutines. Cancelling ctx triggers a
// graceful shutdown of the entire pool; call Wait afterwards.
func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.size; i++ {
		p.wg.Add(1)
		go func(id int) {
			defer p.wg.Done()
			p.run(ctx, id)
		}(i)
	}
}

// Wait blocks until every worker has returned after ctx is cancelled.
func (p *Pool) Wait() {
	p.wg.Wait()
}

func (p *Pool) run(ctx context.Context, id int) {
	log := p.logger.With(zap.String("queue", p.queueName), zap.Int("worker_id", id))
	log.Info("worker started")

	for {
		job, ok := p.broker.Dequeue(ctx, p.queueName)
		if !ok {
			log.Info("worker stopping")
			return
		}

		start := time.Now()
		if err := p.handler.Handle(ctx, job); err != nil {
			// The ack path must survive shutdown cancellation, otherwise a
			// processed job would be redelivered on every restart.
			p.broker.Nack(context.WithoutCancel(ctx), job, err)
			p.hooks.OnFailed(p.queueName)
			continue
		}
		p.broker.Ack(context.WithoutCancel(ctx), job)
		p.hooks.OnProcessed(p.queueName, time.Since(start))
	}
}
