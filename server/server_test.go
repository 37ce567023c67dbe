package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/mrsingh-rishi/voice-notes/model"
	"github.com/mrsingh-rishi/voice-notes/workers"
)

func testLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

type fakeRecords struct {
	records []model.Record
	err     error
	tail    int
}

func (f *fakeRecords) Tail(n int) ([]model.Record, error) {
	f.tail = n
	if f.err != nil {
		return nil, f.err
	}
	if n > 0 && len(f.records) > n {
		return f.records[len(f.records)-n:], nil
	}
	return f.records, nil
}

type fakeStats struct{}

func (fakeStats) Stats() workers.Stats { return workers.Stats{Persisted: 3, Unrecognized: 1} }

type fakeDialer struct {
	to  string
	err error
}

func (d *fakeDialer) Dial(to string) (string, error) {
	d.to = to
	if d.err != nil {
		return "", d.err
	}
	return "CA42", nil
}

func (d *fakeDialer) TwiML(callSid string) string { return "<Response>" + callSid + "</Response>" }

type nopSink struct{}

func (nopSink) Push([]byte) bool { return true }

func newTestApp(t *testing.T, records *fakeRecords, dialer *fakeDialer) *fiber.App {
	t.Helper()
	opts := Options{Records: records, Stats: fakeStats{}, Logger: testLogger()}
	if dialer != nil {
		opts.Dialer, opts.Sink = dialer, nopSink{}
	}
	app, err := New(opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return app
}

func do(t *testing.T, app *fiber.App, req *http.Request) (int, map[string]interface{}) {
	t.Helper()
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()
	var body map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&body)
	return resp.StatusCode, body
}

func TestHealth(t *testing.T) {
	app := newTestApp(t, &fakeRecords{}, nil)
	code, body := do(t, app, httptest.NewRequest(http.MethodGet, "/health", nil))
	if code != http.StatusOK || body["status"] != "ok" {
		t.Errorf("GET /health = %d %v", code, body)
	}
	stats, _ := body["stats"].(map[string]interface{})
	if stats["persisted"] != float64(3) {
		t.Errorf("stats = %v", body["stats"])
	}
}

func TestRecords(t *testing.T) {
	records := &fakeRecords{records: []model.Record{
		model.TranscriptionRecord("hello"),
		model.SpeakersRecord([]string{"Speaker"}),
		model.KeywordsRecord(5, nil),
	}}
	app := newTestApp(t, records, nil)

	code, body := do(t, app, httptest.NewRequest(http.MethodGet, "/records?tail=2", nil))
	if code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if records.tail != 2 {
		t.Errorf("tail = %d, want 2", records.tail)
	}
	data, _ := body["data"].([]interface{})
	if len(data) != 2 {
		t.Fatalf("data = %v", body["data"])
	}
	first := data[0].(map[string]interface{})
	if first["kind"] != "speakers" || first["tag"] != "Speakers:" || first["payload"] != "Speaker" {
		t.Errorf("first record = %v", first)
	}
}

func TestRecordsBadTail(t *testing.T) {
	app := newTestApp(t, &fakeRecords{}, nil)
	code, _ := do(t, app, httptest.NewRequest(http.MethodGet, "/records?tail=abc", nil))
	if code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", code)
	}
}

func TestRecordsReadError(t *testing.T) {
	app := newTestApp(t, &fakeRecords{err: errors.New("permission denied")}, nil)
	code, body := do(t, app, httptest.NewRequest(http.MethodGet, "/records", nil))
	if code != http.StatusInternalServerError || body["status"] != "error" {
		t.Errorf("GET /records = %d %v", code, body)
	}
}

func TestTwilioRoutesDisabled(t *testing.T) {
	app := newTestApp(t, &fakeRecords{}, nil)
	code, _ := do(t, app, httptest.NewRequest(http.MethodPost, "/call", strings.NewReader(`{}`)))
	if code != http.StatusNotFound {
		t.Errorf("POST /call without dialer = %d, want 404", code)
	}
}

func postCall(t *testing.T, app *fiber.App, body string) (int, map[string]interface{}) {
	req := httptest.NewRequest(http.MethodPost, "/call", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return do(t, app, req)
}

func TestCall(t *testing.T) {
	dialer := &fakeDialer{}
	app := newTestApp(t, &fakeRecords{}, dialer)

	code, body := postCall(t, app, `{"to":"+15551234567"}`)
	if code != http.StatusOK || body["sid"] != "CA42" {
		t.Errorf("POST /call = %d %v", code, body)
	}
	if dialer.to != "+15551234567" {
		t.Errorf("dialed %q", dialer.to)
	}
}

func TestCallValidation(t *testing.T) {
	app := newTestApp(t, &fakeRecords{}, &fakeDialer{})
	for _, body := range []string{`{}`, `{"to":"555-1234"}`, `not json`} {
		if code, _ := postCall(t, app, body); code != http.StatusBadRequest {
			t.Errorf("POST /call %s = %d, want 400", body, code)
		}
	}
}

func TestCallDialFailure(t *testing.T) {
	app := newTestApp(t, &fakeRecords{}, &fakeDialer{err: errors.New("unauthorized")})
	if code, _ := postCall(t, app, `{"to":"+15551234567"}`); code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", code)
	}
}

func TestTwiML(t *testing.T) {
	app := newTestApp(t, &fakeRecords{}, &fakeDialer{})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/twiml?CallSid=CA42", nil))
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK || string(body) != "<Response>CA42</Response>" {
		t.Errorf("GET /twiml = %d %s", resp.StatusCode, body)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "xml") {
		t.Errorf("Content-Type = %q", ct)
	}

	if code, _ := do(t, app, httptest.NewRequest(http.MethodGet, "/twiml", nil)); code != http.StatusBadRequest {
		t.Errorf("GET /twiml without CallSid = %d, want 400", code)
	}
}

func TestStreamRequiresUpgrade(t *testing.T) {
	app := newTestApp(t, &fakeRecords{}, &fakeDialer{})
	code, _ := do(t, app, httptest.NewRequest(http.MethodGet, "/stream", nil))
	if code != http.StatusUpgradeRequired {
		t.Errorf("GET /stream = %d, want 426", code)
	}
}

func TestNewValidates(t *testing.T) {
	if _, err := New(Options{Logger: testLogger()}); err == nil {
		t.Error("expected error without record reader")
	}
	if _, err := New(Options{Records: &fakeRecords{}, Logger: testLogger(), Dialer: &fakeDialer{}}); err == nil {
		t.Error("expected error for dialer without sink")
	}
}
