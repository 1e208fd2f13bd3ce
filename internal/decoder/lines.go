package decoder

import (
	"bufio"
	"context"
	"io"
	"log"
	"os"
	"sync"

	"github.com/franckalain/nutriscan/internal/scanner"
)

// Lines reads one barcode per line, as keyboard-wedge scanners type them.
// An empty line is the "scan again" action.
type Lines struct {
	r  io.Reader
	lg *log.Logger

	mu      sync.Mutex
	sink    Sink
	restart func()
	active  bool
	started bool
	cfg     scanner.DecoderConfig

	done chan struct{}
}

// NewLines creates a line decoder over r
func NewLines(r io.Reader) *Lines {
	return &Lines{
		r:    r,
		lg:   log.New(os.Stderr, "[decoder.lines] ", log.LstdFlags),
		done: make(chan struct{}),
	}
}

// SetSink sets where detections go
func (d *Lines) SetSink(s Sink) {
	d.mu.Lock()
	d.sink = s
	d.mu.Unlock()
}

// OnRestart registers the action run on an empty line
func (d *Lines) OnRestart(fn func()) {
	d.mu.Lock()
	d.restart = fn
	d.mu.Unlock()
}

// Done is closed once the input is exhausted
func (d *Lines) Done() <-chan struct{} {
	return d.done
}

// Start begins forwarding codes. The reader goroutine is started once.
func (d *Lines) Start(_ context.Context, cfg scanner.DecoderConfig) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.active = true
	d.cfg = cfg
	if !d.started {
		d.started = true
		go d.read()
	}
	return nil
}

// Stop stops forwarding codes
func (d *Lines) Stop() error {
	d.mu.Lock()
	d.active = false
	d.mu.Unlock()
	return nil
}

func (d *Lines) read() {
	defer close(d.done)

	sc := bufio.NewScanner(d.r)
	for sc.Scan() {
		code := cleanCode(sc.Text())

		d.mu.Lock()
		sink, restart, active, cfg := d.sink, d.restart, d.active, d.cfg
		d.mu.Unlock()

		if code == "" {
			if restart != nil {
				restart()
			}
			continue
		}
		if !active {
			continue
		}
		if _, ok := cfg.Detect(code); !ok {
			d.lg.Printf("line rejected: %q", code)
			continue
		}
		if sink != nil {
			sink.Detected(code)
		}
	}
	if err := sc.Err(); err != nil {
		d.lg.Printf("read error: %v", err)
	}
}
