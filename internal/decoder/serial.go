package decoder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/franckalain/nutriscan/internal/scanner"
	"github.com/tarm/serial"
)

// OpenFunc opens the scanner port
type OpenFunc func(device string, baud int) (io.ReadCloser, error)

// OpenSerialPort opens a tty with the settings hardware scanners use by default.
func OpenSerialPort(device string, baud int) (io.ReadCloser, error) {
	port, err := serial.OpenPort(&serial.Config{Name: device, Baud: baud, ReadTimeout: 250 * time.Millisecond})
	if err != nil {
		return nil, err
	}
	return port, nil
}

// Serial reads barcodes from a hardware scanner on a serial port.
// The port is held open only between Start and Stop.
type Serial struct {
	device string
	baud   int
	open   OpenFunc
	lg     *log.Logger

	mu   sync.Mutex
	sink Sink
	port io.ReadCloser
}

// NewSerial creates a serial decoder; open defaults to OpenSerialPort.
func NewSerial(device string, baud int, open OpenFunc) *Serial {
	if baud <= 0 {
		baud = 9600
	}
	if open == nil {
		open = OpenSerialPort
	}
	return &Serial{
		device: strings.TrimSpace(device),
		baud:   baud,
		open:   open,
		lg:     log.New(os.Stdout, "[decoder.serial] ", log.LstdFlags|log.Lmicroseconds),
	}
}

// SetSink sets where detections go
func (d *Serial) SetSink(s Sink) {
	d.mu.Lock()
	d.sink = s
	d.mu.Unlock()
}

// Start opens the port and begins streaming frames
func (d *Serial) Start(_ context.Context, cfg scanner.DecoderConfig) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.port != nil {
		return nil
	}
	if d.device == "" {
		return fmt.Errorf("serial device is not set")
	}

	port, err := d.open(d.device, d.baud)
	if err != nil {
		return fmt.Errorf("error opening %s: %w", d.device, err)
	}
	d.port = port
	d.lg.Printf("port opened: device=%s baud=%d", d.device, d.baud)

	go d.stream(port, cfg)
	return nil
}

// Stop closes the port
func (d *Serial) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.port == nil {
		return nil
	}
	err := d.port.Close()
	d.port = nil
	d.lg.Printf("port closed: device=%s", d.device)
	return err
}

func (d *Serial) current(port io.ReadCloser) (Sink, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sink, d.port == port
}

// dropPort forgets a port that failed while still current, so the next
// Start reopens it.
func (d *Serial) dropPort(port io.ReadCloser, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.port != port {
		return
	}
	d.lg.Printf("stream read error: %v", err)
	_ = port.Close()
	d.port = nil
}

func (d *Serial) stream(port io.ReadCloser, cfg scanner.DecoderConfig) {
	buf := make([]byte, 256)
	pending := ""

	for {
		n, err := port.Read(buf)
		if n == 0 && errors.Is(err, io.EOF) {
			// idle read timeout
			if _, live := d.current(port); !live {
				return
			}
			continue
		}
		if err != nil {
			d.dropPort(port, err)
			return
		}
		if n == 0 {
			continue
		}

		pending = appendRaw(pending, string(buf[:n]), 1024)
		for {
			frame, rest, ok := popFrame(pending)
			if !ok {
				break
			}
			pending = rest

			code := cleanCode(frame)
			if code == "" {
				continue
			}
			sink, live := d.current(port)
			if !live {
				return
			}
			if _, valid := cfg.Detect(code); !valid {
				d.lg.Printf("frame rejected: raw=%q", frame)
				continue
			}
			if sink != nil {
				sink.Detected(code)
			}
		}
	}
}
