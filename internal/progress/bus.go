package progress

import (
	"sync"
	"time"
)

// EventKind classifies bus entries.
type EventKind string

const (
	KindDownload      EventKind = "download"
	KindTranscription EventKind = "transcription"
)

// Event is a sequenced record of one emitted snapshot.
type Event struct {
	Seq           int64
	Timestamp     time.Time
	Kind          EventKind
	Download      DownloadProgress
	Transcription TranscriptionProgress
}

// Bus is a bounded in-memory sink that keeps the most recent snapshots
// for incremental reads. It satisfies Sink and never blocks callers.
type Bus struct {
	mu        sync.RWMutex
	nextSeq   int64
	maxEvents int
	events    []Event
}

// NewBus creates a bus keeping at most maxEvents entries; non-positive
// values fall back to 512.
func NewBus(maxEvents int) *Bus {
	if maxEvents <= 0 {
		maxEvents = 512
	}
	return &Bus{
		maxEvents: maxEvents,
		events:    make([]Event, 0, maxEvents),
	}
}

func (b *Bus) Download(p DownloadProgress) {
	b.publish(Event{Kind: KindDownload, Download: p})
}

func (b *Bus) Transcription(p TranscriptionProgress) {
	b.publish(Event{Kind: KindTranscription, Transcription: p})
}

func (b *Bus) publish(event Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextSeq++
	event.Seq = b.nextSeq
	event.Timestamp = time.Now().UTC()

	b.events = append(b.events, event)
	if len(b.events) > b.maxEvents {
		trim := len(b.events) - b.maxEvents
		b.events = append([]Event(nil), b.events[trim:]...)
	}
}

// Since returns events with sequence strictly greater than seq, in
// emission order.
func (b *Bus) Since(seq int64) []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if len(b.events) == 0 {
		return nil
	}

	out := make([]Event, 0, len(b.events))
	for _, event := range b.events {
		if event.Seq > seq {
			out = append(out, event)
		}
	}
	return out
}
