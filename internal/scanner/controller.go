package scanner

import (
	"context"
	"errors"
	"log"
	"os"
	"time"

	"github.com/franckalain/nutriscan/internal/metrics"
	"github.com/franckalain/nutriscan/internal/models"
	"github.com/franckalain/nutriscan/internal/openfoodfacts"
	"github.com/google/uuid"
)

// Decoder drives a barcode source. Detections are reported back through
// Controller.Detected; asynchronous start failures through Controller.InitFailed.
type Decoder interface {
	Start(ctx context.Context, cfg DecoderConfig) error
	// Stop must release the camera or port before returning.
	Stop() error
}

// Lookup resolves a barcode to a product record
type Lookup interface {
	Lookup(ctx context.Context, barcode string) (*models.Product, error)
}

// Display is the surface results are rendered on
type Display interface {
	// HideResult hides the whole result panel.
	HideResult()
	// ShowLoading reveals the result panel with the loading indicator
	// visible and the detail panel hidden.
	ShowLoading()
	// ShowProduct hides the loading indicator and fills the detail panel.
	ShowProduct(view ProductView)
	// Alert shows a blocking notification.
	Alert(msg string)
}

// Journal records finished cycles. Optional.
type Journal interface {
	SaveScan(ctx context.Context, scan *models.ScanRecord) error
}

// State of a controller
type State int

const (
	Idle State = iota
	Scanning
	LookingUp
	Loaded
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Scanning:
		return "scanning"
	case LookingUp:
		return "looking_up"
	case Loaded:
		return "loaded"
	}
	return "unknown"
}

type eventKind int

const (
	evStart eventKind = iota
	evDetected
	evInitFailed
	evLookupDone
	evState
)

type event struct {
	kind    eventKind
	code    string
	cycle   uint64
	product *models.Product
	err     error
	reply   chan State
}

// Controller sequences scan, lookup, render and re-arm. All state is
// owned by the Run goroutine; the exported methods only post events.
type Controller struct {
	decoder Decoder
	lookup  Lookup
	display Display
	journal Journal

	sessionID string
	decCfg    DecoderConfig
	logger    *log.Logger

	events chan event
	done   chan struct{}

	// owned by Run
	state State
	cycle uint64
}

// Option configures a Controller
type Option func(*Controller)

// WithJournal records every finished cycle in j
func WithJournal(j Journal) Option {
	return func(c *Controller) { c.journal = j }
}

// WithSessionID tags journal records and log lines
func WithSessionID(id string) Option {
	return func(c *Controller) { c.sessionID = id }
}

// WithLogger replaces the default logger
func WithLogger(l *log.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// WithDecoderConfig overrides the default decoder configuration
func WithDecoderConfig(cfg DecoderConfig) Option {
	return func(c *Controller) { c.decCfg = cfg }
}

// New creates a controller. Nothing happens until Run is called and
// Start is posted.
func New(decoder Decoder, lookup Lookup, display Display, opts ...Option) *Controller {
	c := &Controller{
		decoder:   decoder,
		lookup:    lookup,
		display:   display,
		sessionID: uuid.New().String(),
		decCfg:    DefaultDecoderConfig(),
		events:    make(chan event, 16),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = log.New(os.Stdout, "[scanner "+shortID(c.sessionID)+"] ", log.LstdFlags|log.Lmicroseconds)
	}
	return c
}

// SessionID returns the id used in journal records
func (c *Controller) SessionID() string {
	return c.sessionID
}

// Start begins a scan cycle
func (c *Controller) Start() {
	c.post(event{kind: evStart})
}

// Restart is the user's "scan again" action; same as Start from any state.
func (c *Controller) Restart() {
	c.post(event{kind: evStart})
}

// Detected delivers a decoded barcode. Ignored unless the controller is scanning.
func (c *Controller) Detected(code string) {
	c.post(event{kind: evDetected, code: code})
}

// InitFailed reports a decoder start failure that happened after Start
// returned. cycle is the DecoderConfig.Cycle of the failed start; reports
// for an earlier cycle are ignored. Zero means the current cycle.
func (c *Controller) InitFailed(cycle uint64, err error) {
	c.post(event{kind: evInitFailed, cycle: cycle, err: err})
}

// State returns the current state, or Idle once the controller has stopped.
func (c *Controller) State() State {
	reply := make(chan State, 1)
	if !c.post(event{kind: evState, reply: reply}) {
		return Idle
	}
	select {
	case s := <-reply:
		return s
	case <-c.done:
		return Idle
	}
}

func (c *Controller) post(ev event) bool {
	select {
	case c.events <- ev:
		return true
	case <-c.done:
		return false
	}
}

// Run processes events until ctx is cancelled. The decoder is stopped on exit.
func (c *Controller) Run(ctx context.Context) error {
	defer close(c.done)
	for {
		select {
		case <-ctx.Done():
			if c.state == Scanning {
				if err := c.decoder.Stop(); err != nil {
					c.logger.Printf("Error stopping decoder: %v", err)
				}
			}
			return ctx.Err()
		case ev := <-c.events:
			c.handle(ctx, ev)
		}
	}
}

func (c *Controller) handle(ctx context.Context, ev event) {
	switch ev.kind {
	case evStart:
		c.start(ctx)
	case evDetected:
		c.detected(ctx, ev.code)
	case evInitFailed:
		c.initFailed(ev.cycle, ev.err)
	case evLookupDone:
		c.lookupDone(ctx, ev)
	case evState:
		ev.reply <- c.state
	}
}

func (c *Controller) start(ctx context.Context) {
	c.display.HideResult()
	c.state = Scanning
	c.cycle++

	cfg := c.decCfg
	cfg.Cycle = c.cycle
	if err := c.decoder.Start(ctx, cfg); err != nil {
		c.initFailed(c.cycle, err)
		return
	}
	c.logger.Printf("Decoder started (cycle %d)", c.cycle)
}

func (c *Controller) initFailed(cycle uint64, err error) {
	if cycle != 0 && cycle != c.cycle {
		c.logger.Printf("Ignoring decoder failure from cycle %d (now %d): %v", cycle, c.cycle, err)
		return
	}
	if c.state != Scanning {
		// a late failure report from a decoder we already moved past
		c.logger.Printf("Ignoring decoder failure in state %s: %v", c.state, err)
		return
	}
	c.logger.Printf("Decoder initialization failed: %v", err)
	metrics.DecoderFailures.Inc()
	c.state = Idle
	c.display.Alert(MsgDecoderInitFail)
}

func (c *Controller) detected(ctx context.Context, code string) {
	if c.state != Scanning {
		metrics.Detections.WithLabelValues("dropped").Inc()
		return
	}
	metrics.Detections.WithLabelValues("accepted").Inc()
	c.state = LookingUp

	if err := c.decoder.Stop(); err != nil {
		c.logger.Printf("Error stopping decoder: %v", err)
	}
	c.display.ShowLoading()
	c.logger.Printf("Detected barcode %s, looking up", code)

	cycle := c.cycle
	go func() {
		product, err := c.lookup.Lookup(ctx, code)
		select {
		case c.events <- event{kind: evLookupDone, code: code, cycle: cycle, product: product, err: err}:
		case <-c.done:
		}
	}()
}

func (c *Controller) lookupDone(ctx context.Context, ev event) {
	if ev.cycle != c.cycle || c.state != LookingUp {
		c.logger.Printf("Discarding stale lookup result for %s", ev.code)
		return
	}

	if ev.err == nil && ev.product == nil {
		ev.err = openfoodfacts.ErrNotFound
	}
	if ev.err != nil {
		c.logger.Printf("Lookup failed for %s: %v", ev.code, ev.err)
		c.record(ctx, ev)
		c.display.Alert(MsgLookupFail)
		c.start(ctx)
		return
	}

	c.record(ctx, ev)
	c.display.ShowProduct(Project(ev.product))
	c.state = Loaded
	c.logger.Printf("Displayed product for %s", ev.code)
}

func (c *Controller) record(ctx context.Context, ev event) {
	rec := &models.ScanRecord{
		ID:        uuid.New().String(),
		SessionID: c.sessionID,
		Barcode:   ev.code,
		CreatedAt: time.Now(),
	}
	if sym, ok := c.decCfg.Detect(ev.code); ok {
		rec.Symbology = string(sym)
	}
	switch {
	case ev.err == nil:
		rec.Status = models.ScanFound
		rec.ProductName = ev.product.Name
	case errors.Is(ev.err, openfoodfacts.ErrNotFound):
		rec.Status = models.ScanNotFound
		rec.Error = ev.err.Error()
	default:
		rec.Status = models.ScanFailed
		rec.Error = ev.err.Error()
	}
	metrics.Cycles.WithLabelValues(rec.Status).Inc()

	if c.journal == nil {
		return
	}
	if err := c.journal.SaveScan(ctx, rec); err != nil {
		c.logger.Printf("Error saving scan: %v", err)
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
