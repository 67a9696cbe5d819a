package sse

import (
	"context"
	"errors"
	"io"
	"math/rand/v2"
	"net/http"
	"sync"
	"time"

	"github.com/outfoxx-sunday/sunday/faults"
)

// ReadyState mirrors the W3C EventSource readyState values.
type ReadyState int32

const (
	Connecting ReadyState = iota
	Open
	Closed
)

// DefaultRetryTime is the reconnection delay used before the server ever
// sends a "retry" field or a prior attempt fails (spec.md §4.7).
const DefaultRetryTime = 100 * time.Millisecond

// DefaultInactivityTimeout is how long an open connection may go without
// receiving any bytes before EventSource treats it as stalled and forces a
// reconnect (spec.md §4.8).
const DefaultInactivityTimeout = 45 * time.Second

// RequestFactory builds the HTTP request for a (re)connection attempt.
// lastEventID is the empty string on the very first attempt and the most
// recently observed "id" field thereafter; implementations should set it
// on the outgoing "Last-Event-ID" header themselves if the target expects
// that header. EventSource does not set the header; the factory built by
// sunday.Client.EventSource does.
type RequestFactory func(ctx context.Context, lastEventID string) (*http.Request, error)

// Listener receives dispatched events and terminal errors. OnError is
// called once per failed connection attempt (including a non-2xx status)
// before a reconnect is scheduled; it is not called when Close is the
// reason the stream ended.
type Listener struct {
	OnEvent func(Event)
	OnOpen  func()
	OnError func(error)
}

// EventSource is a reconnecting Server-Sent Events client implementing the
// W3C EventSource reconnection algorithm: exponential-ish backoff, resuming
// via Last-Event-ID, and an inactivity watchdog that forces a reconnect if
// the server goes quiet without the underlying connection failing (spec.md
// §4.7-§4.8).
type EventSource struct {
	factory RequestFactory
	client  *http.Client

	inactivityTimeout time.Duration

	mu            sync.Mutex
	state         ReadyState
	retryTime     time.Duration
	lastEventID   string
	listener      Listener
	cancel        context.CancelFunc
	done          chan struct{}
	eventHandlers []registeredHandler
	nextHandlerID int
}

// registeredHandler is one addEventListener registration: handler is
// invoked for every dispatched event whose Type equals eventType.
type registeredHandler struct {
	id        int
	eventType string
	handler   func(Event)
}

// AddEventListener registers handler to be called for every dispatched
// event whose Type equals eventType (the W3C EventSource
// addEventListener(type, handler) API, spec.md §4.7), in addition to
// Listener.OnEvent, which still fires for every event regardless of type.
// It returns a handler id that RemoveEventListener accepts.
func (es *EventSource) AddEventListener(eventType string, handler func(Event)) int {
	es.mu.Lock()
	defer es.mu.Unlock()
	es.nextHandlerID++
	id := es.nextHandlerID
	es.eventHandlers = append(es.eventHandlers, registeredHandler{id: id, eventType: eventType, handler: handler})
	return id
}

// RemoveEventListener undoes a prior AddEventListener by its returned id.
// Removing an id that is not registered (or already removed) is a no-op.
func (es *EventSource) RemoveEventListener(handlerID int) {
	es.mu.Lock()
	defer es.mu.Unlock()
	for i, h := range es.eventHandlers {
		if h.id == handlerID {
			es.eventHandlers = append(es.eventHandlers[:i], es.eventHandlers[i+1:]...)
			return
		}
	}
}

// dispatchTyped invokes every AddEventListener handler registered for
// ev.Type.
func (es *EventSource) dispatchTyped(ev Event) {
	es.mu.Lock()
	var matched []func(Event)
	for _, h := range es.eventHandlers {
		if h.eventType == ev.Type {
			matched = append(matched, h.handler)
		}
	}
	es.mu.Unlock()
	for _, handler := range matched {
		handler(ev)
	}
}

// Option configures an EventSource at construction time.
type Option func(*EventSource)

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(c *http.Client) Option {
	return func(es *EventSource) { es.client = c }
}

// WithInactivityTimeout overrides DefaultInactivityTimeout.
func WithInactivityTimeout(d time.Duration) Option {
	return func(es *EventSource) { es.inactivityTimeout = d }
}

// WithRetryTime overrides DefaultRetryTime as the initial reconnection
// delay, before any server-sent "retry" field is observed.
func WithRetryTime(d time.Duration) Option {
	return func(es *EventSource) { es.retryTime = d }
}

// NewEventSource constructs an EventSource that will call factory to build
// each (re)connection request.
func NewEventSource(factory RequestFactory, listener Listener, opts ...Option) *EventSource {
	es := &EventSource{
		factory:           factory,
		client:            http.DefaultClient,
		inactivityTimeout: DefaultInactivityTimeout,
		retryTime:         DefaultRetryTime,
		state:             Closed,
		listener:          listener,
	}
	for _, opt := range opts {
		opt(es)
	}
	return es
}

// State reports the current readyState.
func (es *EventSource) State() ReadyState {
	es.mu.Lock()
	defer es.mu.Unlock()
	return es.state
}

// Start begins connecting and reconnecting until ctx is canceled or Close
// is called. It returns immediately; the connection loop runs in a
// background goroutine.
func (es *EventSource) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	es.mu.Lock()
	es.cancel = cancel
	es.done = make(chan struct{})
	done := es.done
	es.mu.Unlock()

	go func() {
		defer close(done)
		es.loop(ctx)
	}()
}

// Close stops the EventSource, canceling any outstanding connection and
// preventing further reconnects. It blocks until the background loop has
// exited.
func (es *EventSource) Close() {
	es.mu.Lock()
	cancel := es.cancel
	done := es.done
	es.state = Closed
	es.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

func (es *EventSource) setState(s ReadyState) {
	es.mu.Lock()
	es.state = s
	es.mu.Unlock()
}

func (es *EventSource) loop(ctx context.Context) {
	attempt := 0
	for {
		if ctx.Err() != nil {
			return
		}

		es.setState(Connecting)
		err := es.connectOnce(ctx)
		if ctx.Err() != nil {
			return
		}
		if err != nil && es.listener.OnError != nil {
			es.listener.OnError(err)
		}

		var streamEmpty *faults.RequestStreamEmpty
		if errors.As(err, &streamEmpty) {
			es.setState(Closed)
			return
		}

		attempt++
		delay := es.nextDelay(attempt)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

func (es *EventSource) nextDelay(attempt int) time.Duration {
	es.mu.Lock()
	base := es.retryTime
	es.mu.Unlock()
	return withJitter(calculateRetryDelay(attempt, base))
}

// calculateRetryDelay computes the un-jittered reconnection delay for the
// given 0-based attempt count, given the current base retry time: no delay
// before the very first attempt, exactly retryTime for the first retry,
// then roughly-exponential growth that flattens into quadratic growth past
// the sixth retry so the delay stays unbounded but does not explode (spec.md
// §4.7).
func calculateRetryDelay(attempt int, retryTime time.Duration) time.Duration {
	if attempt <= 0 {
		return 0
	}
	exp := attempt - 1
	switch {
	case exp == 0:
		return retryTime
	case exp <= 5:
		return retryTime * time.Duration(int64(1)<<uint(exp))
	default:
		return retryTime * time.Duration(exp*exp)
	}
}

// withJitter spreads delay by ±15% so many clients backing off together
// don't reconnect in lockstep.
func withJitter(delay time.Duration) time.Duration {
	if delay <= 0 {
		return 0
	}
	factor := 0.85 + 0.3*rand.Float64()
	return time.Duration(float64(delay) * factor)
}

// connectOnce performs a single connection attempt: issue the request,
// validate the response, and stream its body through the parser until it
// ends or stalls. It returns nil if the stream ended because ctx was
// canceled or because the server closed the body cleanly (io.EOF).
func (es *EventSource) connectOnce(ctx context.Context) error {
	es.mu.Lock()
	lastEventID := es.lastEventID
	es.mu.Unlock()

	req, err := es.factory(ctx, lastEventID)
	if err != nil {
		return &faults.RequestStreamEmpty{Cause: err}
	}
	if req == nil {
		return &faults.RequestStreamEmpty{}
	}

	resp, err := es.client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &ConnectError{StatusCode: resp.StatusCode}
	}

	es.setState(Open)
	if es.listener.OnOpen != nil {
		es.listener.OnOpen()
	}

	parser := NewEventParser()
	parser.SetLastEventID(lastEventID)

	return es.pump(ctx, resp.Body, parser)
}

// pump reads resp.Body in chunks, feeding the parser and dispatching
// events, while an inactivity watchdog forces a reconnect if no bytes
// arrive for inactivityTimeout.
func (es *EventSource) pump(ctx context.Context, body io.Reader, parser *EventParser) error {
	type readResult struct {
		n   int
		err error
	}

	buf := make([]byte, 32*1024)
	reads := make(chan readResult, 1)

	readCtx, cancelRead := context.WithCancel(ctx)
	defer cancelRead()

	startRead := func() {
		go func() {
			n, err := body.Read(buf)
			select {
			case reads <- readResult{n: n, err: err}:
			case <-readCtx.Done():
			}
		}()
	}
	startRead()

	timer := time.NewTimer(es.inactivityTimeout)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-timer.C:
			return errStalled

		case r := <-reads:
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(es.inactivityTimeout)

			if r.n > 0 {
				result := parser.Feed(buf[:r.n])
				es.mu.Lock()
				es.lastEventID = parser.LastEventID()
				if result.Retry != nil {
					es.retryTime = time.Duration(*result.Retry) * time.Millisecond
				}
				es.mu.Unlock()
				for _, ev := range result.Events {
					if es.listener.OnEvent != nil {
						es.listener.OnEvent(ev)
					}
					es.dispatchTyped(ev)
				}
			}

			if r.err != nil {
				if errors.Is(r.err, io.EOF) {
					return nil
				}
				return r.err
			}

			startRead()
		}
	}
}

// errStalled is returned internally by pump when the inactivity watchdog
// fires; it causes connectOnce's caller to treat the attempt as failed and
// reconnect.
var errStalled = &faults.EventTimeout{}

// ConnectError reports a non-2xx HTTP response to a connection attempt.
type ConnectError struct {
	StatusCode int
}

func (e *ConnectError) Error() string {
	return "sse: unexpected status connecting to event stream"
}
