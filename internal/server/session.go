package server

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/franckalain/nutriscan/internal/scanner"
	"github.com/gorilla/websocket"
)

// session is one browser tab. The page's camera decoder and DOM are the
// controller's Decoder and Display; both are driven through the socket.
type session struct {
	id   string
	conn *websocket.Conn
	ctrl *scanner.Controller

	writeMu sync.Mutex
}

type decoderInit struct {
	Target     string   `json:"target"`
	FacingMode string   `json:"facing_mode"`
	Readers    []string `json:"readers"`
	Cycle      uint64   `json:"cycle"`
}

// Start asks the page to initialize its camera decoder. Failures come
// back asynchronously as a decoder_error message.
func (s *session) Start(_ context.Context, cfg scanner.DecoderConfig) error {
	return s.send("decoder_init", decoderInit{
		Target:     cfg.Target,
		FacingMode: cfg.FacingMode,
		Readers:    cfg.Readers(),
		Cycle:      cfg.Cycle,
	})
}

// Stop asks the page to release the camera
func (s *session) Stop() error {
	return s.send("decoder_stop", nil)
}

func (s *session) HideResult() {
	s.sendLogged("hide_result", nil)
}

func (s *session) ShowLoading() {
	s.sendLogged("show_loading", nil)
}

func (s *session) ShowProduct(view scanner.ProductView) {
	s.sendLogged("show_product", view)
}

func (s *session) Alert(msg string) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.conn.WriteJSON(map[string]any{"type": "alert", "message": msg}); err != nil {
		log.Printf("[%s] Error sending alert: %v", s.id, err)
	}
}

func (s *session) sendLogged(messageType string, data any) {
	if err := s.send(messageType, data); err != nil {
		log.Printf("[%s] Error sending %s: %v", s.id, messageType, err)
	}
}

func (s *session) send(messageType string, data any) error {
	msg := map[string]any{
		"type": messageType,
		"data": data,
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteJSON(msg)
}

func (s *session) sendError(message string) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.conn.WriteJSON(map[string]any{"type": "error", "message": message}); err != nil {
		log.Println("Error sending error message:", err)
	}
}

func (s *session) handleMessage(message map[string]any) {
	messageType, ok := message["type"].(string)
	if !ok {
		s.sendError("Invalid message format")
		return
	}

	data, _ := message["data"].(map[string]any)

	switch messageType {
	case "detected":
		code, ok := data["code"].(string)
		if !ok || code == "" {
			s.sendError("Invalid barcode")
			return
		}
		s.ctrl.Detected(code)
	case "scan_again":
		s.ctrl.Restart()
	case "decoder_error":
		reason, _ := data["message"].(string)
		if reason == "" {
			reason = "unknown decoder error"
		}
		// pages that do not echo the cycle report against the current one
		var cycle uint64
		if v, ok := data["cycle"].(float64); ok && v > 0 {
			cycle = uint64(v)
		}
		s.ctrl.InitFailed(cycle, errors.New(reason))
	case "decoder_ready":
		log.Printf("[%s] Decoder ready", s.id)
	default:
		s.sendError("Unknown message type")
	}
}
