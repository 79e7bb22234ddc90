package webhook

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"
)

func signedRequest(t *testing.T, body string) *http.Request {
	t.Helper()
	ts := strconv.FormatInt(time.Now().Unix(), 10)
	req := httptest.NewRequest(http.MethodPost, "/relay/webhook", strings.NewReader(body))
	req.Header.Set("X-Webhook-Signature", sign(body, ts, testSecret))
	req.Header.Set("X-Webhook-Timestamp", ts)
	return req
}

const receivedBody = `{
	"event_type": "message.received",
	"event_id": "evt_1",
	"data": {
		"id": "msg_1",
		"chat": {"id": "chat_1", "owner_handle": {"handle": "+15550001111"}},
		"sender_handle": {"handle": "+15552223333"},
		"parts": [{"type": "text", "value": "hello"}]
	}
}`

func TestHandler_HealthCheck(t *testing.T) {
	h := NewHandler(testSecret, nil)
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/relay/webhook", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if got := rec.Body.String(); got != "OK" {
		t.Errorf("body = %q, want OK", got)
	}
}

func TestHandler_MethodNotAllowed(t *testing.T) {
	h := NewHandler(testSecret, nil)
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/relay/webhook", nil))

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
	if allow := rec.Header().Get("Allow"); allow != "GET, POST" {
		t.Errorf("Allow = %q, want %q", allow, "GET, POST")
	}
}

func TestHandler_InvalidSignatureRejected(t *testing.T) {
	called := false
	h := NewHandler(testSecret, func(Event) { called = true })

	ts := strconv.FormatInt(time.Now().Unix(), 10)
	req := httptest.NewRequest(http.MethodPost, "/relay/webhook", strings.NewReader(receivedBody))
	req.Header.Set("X-Webhook-Signature", strings.Repeat("ab", 32))
	req.Header.Set("X-Webhook-Timestamp", ts)
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)
	h.Wait()

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	if resp["error"] != "Unauthorized" || resp["reason"] == "" {
		t.Errorf("response = %v", resp)
	}
	if called {
		t.Error("event callback invoked for rejected request")
	}
}

func TestHandler_ValidPostAckedAndDispatched(t *testing.T) {
	events := make(chan Event, 1)
	h := NewHandler(testSecret, func(e Event) { events <- e })
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, signedRequest(t, receivedBody))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	if resp["status"] != "ok" {
		t.Errorf("response = %v, want status ok", resp)
	}

	select {
	case e := <-events:
		msg, ok := e.(*InboundMessage)
		if !ok {
			t.Fatalf("event type = %T, want *InboundMessage", e)
		}
		if msg.Text != "hello" {
			t.Errorf("Text = %q, want hello", msg.Text)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("event not dispatched")
	}
}

func TestHandler_AckPrecedesProcessingFailure(t *testing.T) {
	// The callback panics; the 200 must already be on the wire and the
	// panic must be contained.
	h := NewHandler(testSecret, func(Event) { panic("downstream failure") })
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, signedRequest(t, receivedBody))
	h.Wait()

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 despite downstream panic", rec.Code)
	}
}

func TestHandler_MalformedJSONDroppedAfterAck(t *testing.T) {
	called := false
	h := NewHandler(testSecret, func(Event) { called = true })
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, signedRequest(t, "{not json"))
	h.Wait()

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 (signature was valid)", rec.Code)
	}
	if called {
		t.Error("event callback invoked for malformed body")
	}
}

// failingBody errors on the first read, simulating a broken client
// connection mid-request.
type failingBody struct{}

func (failingBody) Read([]byte) (int, error) {
	return 0, errors.New("connection reset")
}

func TestHandler_BodyReadFailure(t *testing.T) {
	called := false
	h := NewHandler(testSecret, func(Event) { called = true })
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/relay/webhook", failingBody{}))
	h.Wait()

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	if resp["error"] != "Internal server error" {
		t.Errorf("response = %v", resp)
	}
	if called {
		t.Error("event callback invoked for unreadable body")
	}
}

func TestHandler_UnknownEventTypeDropped(t *testing.T) {
	called := false
	h := NewHandler(testSecret, func(Event) { called = true })
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, signedRequest(t, `{"event_type":"chat.renamed","data":{}}`))
	h.Wait()

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if called {
		t.Error("event callback invoked for unknown event type")
	}
}
