package diag

import (
	"bytes"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock() time.Time {
	return time.Date(2024, 2, 14, 9, 30, 0, 0, time.UTC)
}

func TestRecorder_OrderAndCounts(t *testing.T) {
	r := NewRecorder(fixedClock)
	r.Emit(Event{Kind: KindMapped, Field: "KUNNR", Target: "location.0.id"})
	r.Emit(Event{Kind: KindUnmappedField, Segment: "E1KNA1M", Field: "ZZX"})
	r.Emit(Event{Kind: KindMapped, Field: "LAND1"})

	events := r.Events()
	require.Len(t, events, 3)
	assert.Equal(t, "KUNNR", events[0].Field)
	assert.Equal(t, "LAND1", events[2].Field)
	assert.Equal(t, LevelInfo, events[0].Level)
	assert.Equal(t, LevelWarn, events[1].Level)
	assert.Equal(t, fixedClock(), events[1].Time)
	assert.Equal(t, 2, r.Count(KindMapped))
	assert.Equal(t, 0, r.Count(KindUnmappedSegment))
}

func TestRecorder_ConcurrentEmit(t *testing.T) {
	r := NewRecorder(nil)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				r.Emit(Event{Kind: KindMapped})
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 400, r.Count(KindMapped))
}

func TestJSONL_RoundTrip(t *testing.T) {
	r := NewRecorder(fixedClock)
	r.Emit(Event{Kind: KindValidationRejected, Field: "KUNNR", Value: "12a", Message: "NUMBER: unexpected character 'a' in <KUNNR>"})
	r.Emit(Event{Kind: KindUnmappedSegment, Segment: "ZZFOO"})

	raw, err := r.JSONL()
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"kind":"validation_rejected"`)
	assert.Contains(t, lines[0], `"level":"error"`)
	assert.Contains(t, lines[0], `in <KUNNR>`)

	withNoise := append([]byte("summary: 1 rejection\n\n"), raw...)
	back, err := ReadJSONL(bytes.NewReader(withNoise))
	require.NoError(t, err)
	assert.Equal(t, r.Events(), back)
}

func TestTee(t *testing.T) {
	a, b := NewRecorder(nil), NewRecorder(nil)
	sink := Tee(a, nil, b)
	sink.Emit(Event{Kind: KindDocument})
	assert.Equal(t, 1, a.Count(KindDocument))
	assert.Equal(t, 1, b.Count(KindDocument))

	assert.Equal(t, Discard, Tee())
	assert.Same(t, a, Tee(nil, a))
	assert.Equal(t, Discard, OrDiscard(nil))
}

func TestSlogSink(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
	sink := NewSlogSink(logger).With("customer.xml")

	sink.Emit(Event{Kind: KindMapped, Field: "KUNNR"})
	sink.Emit(Event{Kind: KindUnmappedSegment, Segment: "ZZFOO"})

	out := buf.String()
	assert.NotContains(t, out, "KUNNR")
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "kind=unmapped_segment")
	assert.Contains(t, out, "source=customer.xml")
	assert.Contains(t, out, "segment=ZZFOO")
}
