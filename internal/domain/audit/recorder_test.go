package audit

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type failingRepo struct{}

func (failingRepo) Insert(context.Context, *Entry) error { return errors.New("db down") }
func (failingRepo) ListByOrganization(context.Context, uuid.UUID, int, int) ([]*Entry, int, error) {
	return nil, 0, errors.New("db down")
}

type capturingRepo struct {
	entries []*Entry
}

func (r *capturingRepo) Insert(_ context.Context, e *Entry) error {
	r.entries = append(r.entries, e)
	return nil
}
func (r *capturingRepo) ListByOrganization(context.Context, uuid.UUID, int, int) ([]*Entry, int, error) {
	return r.entries, len(r.entries), nil
}

func TestRecord_SwallowsRepoError(t *testing.T) {
	rec := NewRecorder(failingRepo{})
	// Must not panic or propagate.
	rec.Record(context.Background(), &Entry{Action: ActionLogin, EntityType: "user"})
}

func TestRecord_NilRecorder(t *testing.T) {
	var rec *Recorder
	rec.Record(context.Background(), &Entry{Action: ActionLogin, EntityType: "user"})
}

func TestRecordRequest_CapturesClientContext(t *testing.T) {
	repo := &capturingRepo{}
	rec := NewRecorder(repo)

	e := echo.New()
	req := httptest.NewRequest("POST", "/auth/login", nil)
	req.Header.Set("User-Agent", "test-agent")
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	c := e.NewContext(req, httptest.NewRecorder())

	rec.RecordRequest(c, &Entry{Action: ActionLogin, EntityType: "user"})

	if len(repo.entries) != 1 {
		t.Fatalf("expected one entry, got %d", len(repo.entries))
	}
	got := repo.entries[0]
	if got.IPAddress != "203.0.113.9" {
		t.Errorf("expected first forwarded address, got %q", got.IPAddress)
	}
	if got.UserAgent != "test-agent" {
		t.Errorf("expected user agent, got %q", got.UserAgent)
	}
}

func TestClientIP(t *testing.T) {
	e := echo.New()

	cases := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"forwarded for", map[string]string{"X-Forwarded-For": "203.0.113.9, 10.0.0.1"}, "10.0.0.2:1234", "203.0.113.9"},
		{"real ip", map[string]string{"X-Real-IP": "203.0.113.7"}, "10.0.0.2:1234", "203.0.113.7"},
		{"remote addr", nil, "192.0.2.1:5678", "192.0.2.1"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tc.remote
			for k, v := range tc.headers {
				req.Header.Set(k, v)
			}
			c := e.NewContext(req, httptest.NewRecorder())
			if got := ClientIP(c); got != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
		})
	}
}
