package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var ErrClosed = errors.New("worker pool is closed")

type Task func(ctx context.Context) error

type Config struct {
	Size int `envconfig:"WORKER_POOL_SIZE" default:"4"`
	// LaneBuffer is how many tasks a lane queues before Serial blocks.
	LaneBuffer int `envconfig:"WORKER_LANE_BUFFER" default:"64"`
}

// Pool runs tasks for one owner (a screen). Go runs tasks concurrently, at
// most Size at a time. Serial runs tasks that share a lane one after another
// in submission order. Close cancels the owner context and waits.
type Pool struct {
	ctx    context.Context
	cancel context.CancelFunc
	log    *zap.Logger
	cfg    Config

	g       errgroup.Group
	pending sync.WaitGroup

	mu     sync.Mutex
	closed bool
	lanes  map[string]chan job
}

type job struct {
	name string
	task Task
}

func NewPool(parent context.Context, cfg Config, log *zap.Logger) *Pool {
	if cfg.Size <= 0 {
		cfg.Size = 1
	}
	if cfg.LaneBuffer <= 0 {
		cfg.LaneBuffer = 1
	}
	ctx, cancel := context.WithCancel(parent)
	p := &Pool{
		ctx:    ctx,
		cancel: cancel,
		log:    log.Named("worker"),
		cfg:    cfg,
		lanes:  make(map[string]chan job),
	}
	p.g.SetLimit(cfg.Size)
	return p
}

// Context is cancelled when the pool is closed.
func (p *Pool) Context() context.Context {
	return p.ctx
}

// Go blocks while Size tasks are already running.
func (p *Pool) Go(name string, task Task) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrClosed
	}
	p.pending.Add(1)
	p.mu.Unlock()

	p.g.Go(func() error {
		defer p.pending.Done()
		p.run(job{name: name, task: task})
		return nil
	})
	return nil
}

func (p *Pool) Serial(lane, name string, task Task) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrClosed
	}
	ch, ok := p.lanes[lane]
	if !ok {
		ch = make(chan job, p.cfg.LaneBuffer)
		p.lanes[lane] = ch
		go p.drain(ch)
	}
	p.pending.Add(1)
	p.mu.Unlock()

	select {
	case ch <- job{name: name, task: task}:
		return nil
	case <-p.ctx.Done():
		p.pending.Done()
		return ErrClosed
	}
}

func (p *Pool) drain(ch chan job) {
	for j := range ch {
		p.run(j)
		p.pending.Done()
	}
}

// Wait blocks until every task submitted so far has finished.
func (p *Pool) Wait() {
	p.pending.Wait()
}

func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.cancel()
	p.mu.Unlock()

	p.pending.Wait()

	p.mu.Lock()
	for lane, ch := range p.lanes {
		close(ch)
		delete(p.lanes, lane)
	}
	p.mu.Unlock()
	_ = p.g.Wait()
}

func (p *Pool) run(j job) {
	if p.ctx.Err() != nil {
		p.log.Debug("task skipped", zap.String("task", j.name))
		return
	}
	defer func() {
		if r := recover(); r != nil {
			p.log.Error("task panicked",
				zap.String("task", j.name),
				zap.String("panic", fmt.Sprint(r)),
				zap.ByteString("stack", debug.Stack()),
			)
		}
	}()
	if err := j.task(p.ctx); err != nil {
		p.log.Debug("task failed", zap.String("task", j.name), zap.Error(err))
	}
}
