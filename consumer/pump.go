package consumer

import (
	"context"
	"log"
	"sync"

	"golang.org/x/time/rate"
)

// Source is anything a Pump can read frames from.
type Source interface {
	Name() string

	// Poll returns a frame when the source changed after version. The frame
	// must not alias memory the source keeps mutating.
	Poll(version uint64) (frame Frame, changed bool, err error)
}

// Never is the version passed to Poll for a source not shipped yet. No
// source version ever equals it, so the first poll always reports a change.
const Never = ^uint64(0)

type Pump struct {
	// Sources is called on every tick so sources can come and go.
	Sources func() []Source
	Sink    Sink
	Limiter *rate.Limiter
	Logger  *log.Logger

	mutex    sync.Mutex
	versions map[string]uint64
	shipped  int
	closed   bool
}

// NewPump ships at most perSecond rounds per second, one if perSecond is not
// positive.
func NewPump(sources func() []Source, sink Sink, perSecond float64) *Pump {
	if perSecond <= 0 {
		perSecond = 1
	}
	return &Pump{
		Sources:  sources,
		Sink:     sink,
		Limiter:  rate.NewLimiter(rate.Limit(perSecond), 1),
		versions: map[string]uint64{},
	}
}

// Tick polls every source once and writes the frames of those that changed.
// It returns how many frames were written and the last sink error. A closed
// pump does nothing.
func (p *Pump) Tick(ctx context.Context) (int, error) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.closed {
		return 0, nil
	}
	return p.tick(ctx)
}

// Close runs a last tick and disables the pump, so sources removed afterwards
// are never forgotten by the sink.
func (p *Pump) Close(ctx context.Context) (int, error) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.closed {
		return 0, nil
	}
	p.closed = true
	return p.tick(ctx)
}

func (p *Pump) tick(ctx context.Context) (int, error) {
	if p.versions == nil {
		p.versions = map[string]uint64{}
	}

	present := map[string]bool{}
	written := 0
	var lastErr error

	for _, source := range p.Sources() {
		name := source.Name()
		present[name] = true

		last, seen := p.versions[name]
		if !seen {
			last = Never
		}

		frame, changed, err := source.Poll(last)
		if err != nil {
			lastErr = err
			p.logf("poll '%s': %s", name, err)
			continue
		}
		if !changed {
			continue
		}
		frame.Name = name

		err = p.Sink.Write(ctx, frame)
		if err != nil {
			lastErr = err
			p.logf("write '%s': %s", name, err)
			continue
		}
		p.versions[name] = frame.Version
		written++
	}

	for name := range p.versions {
		if present[name] {
			continue
		}
		delete(p.versions, name)
		if f, ok := p.Sink.(Forgetter); ok {
			if err := f.Forget(name); err != nil {
				p.logf("forget '%s': %s", name, err)
			}
		}
	}

	p.shipped += written
	return written, lastErr
}

// Run ticks until ctx is done. No tick starts after ctx is done.
func (p *Pump) Run(ctx context.Context) error {
	for {
		err := p.Limiter.Wait(ctx)
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		p.Tick(ctx)
	}
}

// Start runs the pump in background. The returned stop cancels it and waits
// until the running tick, if any, has finished; it can be called more than
// once.
func (p *Pump) Start() (stop func()) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		p.Run(ctx)
	}()

	once := &sync.Once{}
	return func() {
		once.Do(func() {
			cancel()
			<-done
		})
	}
}

func (p *Pump) Shipped() int {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	return p.shipped
}

func (p *Pump) logf(format string, args ...any) {
	if p.Logger == nil {
		return
	}
	p.Logger.Printf(format, args...)
}
