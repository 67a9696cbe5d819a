package sunday

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/outfoxx-sunday/sunday/mediatype"
	"github.com/outfoxx-sunday/sunday/problem"
	"github.com/outfoxx-sunday/sunday/sse"
)

// S1: POST /echo round-trips an arbitrary JSON/CBOR value across every
// contentType x acceptType combination.
func TestEchoRoundTripsAcrossContentTypes(t *testing.T) {
	type payload struct {
		A int      `json:"a"`
		B float64  `json:"b"`
		D string   `json:"d"`
		E []string `json:"e"`
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ct := r.Header.Get("Content-Type")
		mt, err := mediatype.Parse(ct)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		enc, dec := mediatype.Defaults()
		decCodec, err := dec.Find(mt)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		body, _ := io.ReadAll(r.Body)
		var v payload
		if err := decCodec.Decode(body, &v); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		accept, err := mediatype.Parse(r.Header.Get("Accept"))
		if err != nil {
			accept = mediatype.JSON
		}
		encCodec, err := enc.Find(accept)
		if err != nil {
			w.WriteHeader(http.StatusNotAcceptable)
			return
		}
		out, _ := encCodec.Encode(v)
		w.Header().Set("Content-Type", accept.String())
		_, _ = w.Write(out)
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL, nil)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	combos := []mediatype.MediaType{mediatype.JSON, mediatype.CBOR}
	for _, ct := range combos {
		for _, at := range combos {
			ctx := context.Background()
			req, err := client.BuildRequest(ctx, http.MethodPost, "/echo",
				WithBody(payload{A: 1, B: 2.0, D: "Hello", E: []string{"World"}}),
				WithContentTypes(ct),
				WithAcceptTypes(at),
			)
			if err != nil {
				t.Fatalf("BuildRequest(%s,%s): %v", ct, at, err)
			}
			got, err := Result[payload](ctx, client, req)
			if err != nil {
				t.Fatalf("Result(%s,%s): %v", ct, at, err)
			}
			if got.A != 1 || got.B != 2.0 || got.D != "Hello" || len(got.E) != 1 || got.E[0] != "World" {
				t.Fatalf("round-trip(%s,%s) mismatch: %+v", ct, at, got)
			}
		}
	}
}

// S2: GET /{type} returns a JSON array decoded as a slice of items.
func TestListDecodesArray(t *testing.T) {
	type item struct {
		Name string  `json:"name"`
		Cost float64 `json:"cost"`
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"name":"abc","cost":12.8},{"name":"def","cost":6.4}]`))
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL, nil)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	ctx := context.Background()
	req, err := client.BuildRequest(ctx, http.MethodGet, "/{type}", WithPathParams(map[string]any{"type": "something"}))
	if err != nil {
		t.Fatalf("BuildRequest: %v", err)
	}

	items, err := Result[[]item](ctx, client, req)
	if err != nil {
		t.Fatalf("Result: %v", err)
	}
	if len(items) != 2 || items[0].Name != "abc" || items[1].Cost != 6.4 {
		t.Fatalf("items = %+v", items)
	}
}

// S3: a typed SSE stream decodes a single event whose data spans an
// embedded bare CR.
func TestTypedSSEStreamDecodesSplitDataEvent(t *testing.T) {
	type testEvent struct {
		Some string `json:"some"`
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = w.Write([]byte("event: test\nid: 123\ndata: {\"some\":\rdata: \"test data\"}\n\n"))
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL, nil)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	ctx := context.Background()
	req, err := client.BuildRequest(ctx, http.MethodGet, "/events")
	if err != nil {
		t.Fatalf("BuildRequest: %v", err)
	}

	received := make(chan sse.TypedEvent[testEvent], 1)
	typed := sse.NewTypedStream(map[string]sse.Decoder[testEvent]{
		"test": sse.JSONDecoder[testEvent](func(data []byte, v any) error {
			return mustJSONDecoder(t).Decode(data, v)
		}),
	})
	typed.OnTypedEvent = func(ev sse.TypedEvent[testEvent]) { received <- ev }

	es := client.EventSource(req, typed.Listener(sse.Listener{}))
	es.Start(ctx)
	defer es.Close()

	select {
	case ev := <-received:
		if ev.Type != "test" || ev.Payload.Some != "test data" {
			t.Fatalf("event = %+v", ev)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for the typed event")
	}
}

// S4: reconnecting after a server-closed stream resumes with Last-Event-ID.
func TestEventSourceResumesWithLastEventID(t *testing.T) {
	var attempts int
	lastEventIDs := make(chan string, 2)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lastEventIDs <- r.Header.Get("Last-Event-ID")
		attempts++
		w.Header().Set("Content-Type", "text/event-stream")
		if attempts == 1 {
			_, _ = w.Write([]byte("id: 123\ndata: tester\n\n"))
			if f, ok := w.(http.Flusher); ok {
				f.Flush()
			}
			return
		}
		_, _ = w.Write([]byte("data: again\n\n"))
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL, nil)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	ctx := context.Background()
	req, err := client.BuildRequest(ctx, http.MethodGet, "/events")
	if err != nil {
		t.Fatalf("BuildRequest: %v", err)
	}

	es := client.EventSource(req, sse.Listener{}, sse.WithRetryTime(10*time.Millisecond))
	es.Start(ctx)
	defer es.Close()

	first := <-lastEventIDs
	if first != "" {
		t.Fatalf("first attempt Last-Event-ID = %q, want empty", first)
	}
	second := <-lastEventIDs
	if second != "123" {
		t.Fatalf("second attempt Last-Event-ID = %q, want 123", second)
	}
}

// S5: a Problem response dispatches to a registered subtype, or to the
// generic Problem with the extra field in Parameters when unregistered.
type testProblem struct {
	problem.Problem
	Extra string `json:"extra"`
}

func TestProblemDispatchRegisteredAndGeneric(t *testing.T) {
	body := []byte(`{"type":"http://example.com/test","title":"Test Problem","status":400,"detail":"A Test Problem","extra":"Some Extra"}`)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/problem+json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write(body)
	}))
	defer srv.Close()

	// Registered.
	cfg := DefaultConfig()
	problem.RegisterProblem[testProblem](cfg.Problems, "http://example.com/test")
	client, err := NewClient(srv.URL, cfg)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	ctx := context.Background()
	req, err := client.BuildRequest(ctx, http.MethodGet, "/problem")
	if err != nil {
		t.Fatalf("BuildRequest: %v", err)
	}
	err = Void(ctx, client, req)
	var tp *testProblem
	if !errors.As(err, &tp) {
		t.Fatalf("expected *testProblem, got %#v", err)
	}
	if tp.Extra != "Some Extra" {
		t.Fatalf("Extra = %q", tp.Extra)
	}

	// Unregistered.
	client2, err := NewClient(srv.URL, DefaultConfig())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	req2, err := client2.BuildRequest(ctx, http.MethodGet, "/problem")
	if err != nil {
		t.Fatalf("BuildRequest: %v", err)
	}
	err2 := Void(ctx, client2, req2)
	var generic *problem.Problem
	if !errors.As(err2, &generic) {
		t.Fatalf("expected *problem.Problem, got %#v", err2)
	}
	extra, ok := generic.Parameters.Get("extra")
	if !ok || extra != "Some Extra" {
		t.Fatalf("Parameters[extra] = %v, ok=%v", extra, ok)
	}
}

// S6: a raw data stream for a body written as four 1000-byte chunks
// delivers exactly one Connect record followed by Data records totalling
// 4000 bytes, then closes.
func TestDataStreamDeliversConnectThenFourChunks(t *testing.T) {
	chunk := make([]byte, 1000)
	for i := range chunk {
		chunk[i] = byte('a' + i%26)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f, _ := w.(http.Flusher)
		for i := 0; i < 4; i++ {
			_, _ = w.Write(chunk)
			if f != nil {
				f.Flush()
			}
		}
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL, nil)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	ctx := context.Background()
	req, err := client.BuildRequest(ctx, http.MethodGet, "/stream")
	if err != nil {
		t.Fatalf("BuildRequest: %v", err)
	}

	events, cancel := client.DataStream(req)
	defer cancel()

	var sawConnect bool
	var dataLens []int
	timeout := time.After(2 * time.Second)
collect:
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				break collect
			}
			if ev.Err != nil {
				t.Fatalf("stream error: %v", ev.Err)
			}
			if ev.Connect != nil {
				if sawConnect {
					t.Fatal("more than one Connect record")
				}
				sawConnect = true
				continue
			}
			dataLens = append(dataLens, len(ev.Data))
		case <-timeout:
			t.Fatal("timed out waiting for the stream to close")
		}
	}

	if !sawConnect {
		t.Fatal("no Connect record delivered")
	}
	total := 0
	for _, n := range dataLens {
		total += n
	}
	if total != 4000 {
		t.Fatalf("total bytes = %d, want 4000 (chunks = %v)", total, dataLens)
	}
}

func mustJSONDecoder(t *testing.T) mediatype.Decoder {
	t.Helper()
	_, dec := mediatype.Defaults()
	d, err := dec.Find(mediatype.JSON)
	if err != nil {
		t.Fatalf("no json decoder: %v", err)
	}
	return d
}
