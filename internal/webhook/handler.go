package webhook

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"sync"
)

// Handler is the HTTP endpoint the provider delivers webhook events to.
// Valid requests are acknowledged with a 200 before any event processing
// starts, so downstream failures never turn into webhook retries.
type Handler struct {
	secret  string
	onEvent func(Event)

	// wg tracks in-flight async dispatches so tests and shutdown can wait
	// for processing to settle.
	wg sync.WaitGroup
}

// NewHandler creates a webhook handler. onEvent receives every recognized
// event after the request has been acknowledged; it runs on its own
// goroutine and its panics are contained.
func NewHandler(signingSecret string, onEvent func(Event)) *Handler {
	return &Handler{secret: signingSecret, onEvent: onEvent}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	acked := false
	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("[relay] webhook handler panic: %v", rec)
			if !acked {
				writeJSON(w, http.StatusInternalServerError, map[string]string{
					"error": "Internal server error",
				})
			}
		}
	}()

	// Health check
	if r.Method == http.MethodGet {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
		return
	}

	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "GET, POST")
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{
			"error": "Method Not Allowed",
		})
		return
	}

	rawBody, err := io.ReadAll(r.Body)
	if err != nil {
		log.Printf("[relay] webhook body read failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "Internal server error",
		})
		return
	}

	signature := r.Header.Get("X-Webhook-Signature")
	timestamp := r.Header.Get("X-Webhook-Timestamp")

	if err := VerifySignature(rawBody, signature, timestamp, h.secret); err != nil {
		log.Printf("[relay] webhook signature rejected: %v", err)
		writeJSON(w, http.StatusUnauthorized, map[string]string{
			"error":  "Unauthorized",
			"reason": err.Error(),
		})
		return
	}

	// Acknowledge before processing. Once this is written the provider
	// considers the delivery successful no matter what happens next.
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	acked = true
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}

	h.wg.Add(1)
	go h.process(rawBody)
}

// process parses and dispatches one acknowledged webhook body. Every
// failure path here is logged and dropped.
func (h *Handler) process(rawBody []byte) {
	defer h.wg.Done()
	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("[relay] webhook event handler panic: %v", rec)
		}
	}()

	var env Envelope
	if err := json.Unmarshal(rawBody, &env); err != nil {
		log.Printf("[relay] webhook body is not valid JSON: %v", err)
		return
	}

	event, err := ParseEvent(env)
	if err != nil {
		log.Printf("[relay] webhook event parse failed: %v", err)
		return
	}
	if event == nil {
		log.Printf("[relay] unhandled webhook event type: %s", env.EventType)
		return
	}

	if h.onEvent != nil {
		h.onEvent(event)
	}
}

// Wait blocks until all in-flight event dispatches have finished.
func (h *Handler) Wait() {
	h.wg.Wait()
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
