// Package events consumes the media server's notification stream and
// turns it into a coarse activity signal for the reaper.
package events

import (
	"bufio"
	"context"
	"io"
	"strings"
	"sync"
	"time"

	"frameworks/api_reaper/pkg/logging"
)

// qualifying lists the event types that represent player-facing activity.
// Transcode progress chatter does not qualify; a stalled player still
// produces transcode events, and counting those would keep dead sessions
// alive forever.
var qualifying = map[string]struct{}{
	"activity": {},
	"playing":  {},
	"timeline": {},
}

const reconnectDelay = time.Second

// Subscriber opens the server's event stream. The listener owns the
// returned reader and closes it when the stream ends.
type Subscriber func(ctx context.Context) (io.ReadCloser, error)

// Listener maintains a long-lived subscription to the notification
// stream, tracking when the last qualifying event arrived.
type Listener struct {
	subscribe Subscriber
	logger    logging.Logger

	mu             sync.Mutex
	lastQualifying time.Time
	connected      bool

	// wake holds at most one pending notification; bursts coalesce.
	wake chan struct{}

	reconnects func()
}

// NewListener creates a listener. onReconnect may be nil; when set it is
// invoked once per reconnect attempt, for metrics.
func NewListener(subscribe Subscriber, logger logging.Logger, onReconnect func()) *Listener {
	return &Listener{
		subscribe:  subscribe,
		logger:     logger,
		wake:       make(chan struct{}, 1),
		reconnects: onReconnect,
	}
}

// Run consumes the stream until the context is cancelled, reconnecting
// after a short delay whenever the stream drops. Stream failures are
// never fatal; polling carries the service while the stream is down.
func (l *Listener) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		stream, err := l.subscribe(ctx)
		if err != nil {
			l.logger.WithError(err).Debug("Event stream connect failed")
			l.setConnected(false)
			if l.reconnects != nil {
				l.reconnects()
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(reconnectDelay):
			}
			continue
		}

		l.setConnected(true)
		l.consume(stream)
		stream.Close()
		l.setConnected(false)

		if l.reconnects != nil {
			l.reconnects()
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(reconnectDelay):
		}
	}
}

// consume reads one stream until it ends. Events are delimited by blank
// lines; only the event type line matters here.
func (l *Listener) consume(stream io.Reader) {
	scanner := bufio.NewScanner(stream)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	eventType := ""
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")

		if line == "" {
			if eventType != "" && eventType != "ping" {
				l.record(eventType)
			}
			eventType = ""
			continue
		}
		if strings.HasPrefix(line, "event:") {
			eventType = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		}
	}
	if err := scanner.Err(); err != nil {
		l.logger.WithError(err).Debug("Event stream read ended")
	}
}

// record notes an event and nudges the reaper. Only qualifying types move
// the activity timestamp, but any real event is worth a wake so the next
// cycle can re-check evidence promptly.
func (l *Listener) record(eventType string) {
	if _, ok := qualifying[eventType]; ok {
		l.mu.Lock()
		l.lastQualifying = time.Now()
		l.mu.Unlock()
	}

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// LastQualifying returns when the last qualifying event arrived. The zero
// time means none has been seen yet.
func (l *Listener) LastQualifying() time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastQualifying
}

// Wake exposes the coalesced wake channel.
func (l *Listener) Wake() <-chan struct{} {
	return l.wake
}

// Connected reports whether the stream is currently open.
func (l *Listener) Connected() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.connected
}

func (l *Listener) setConnected(v bool) {
	l.mu.Lock()
	l.connected = v
	l.mu.Unlock()
}
