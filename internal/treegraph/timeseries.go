package treegraph

import "sort"

// point is one (offset, value) entry of a TimeSeries, stored relative to
// the series' StartTimestamp (spec §3).
type point[T comparable] struct {
	offset uint16
	value  T
}

// TimeSeries encodes a step function (spec §3-§4.8): the value at query
// time t is the payload of the entry with the greatest offset <= t -
// StartTimestamp, or absent when t precedes StartTimestamp. Ported from
// the original's utils/time_series.rs; T is constrained to comparable
// rather than the original's bare Clone because Reduce needs equality
// and every instantiation used here (uint16, int16, float64) is
// comparable.
type TimeSeries[T comparable] struct {
	start  uint32
	series []point[T]
}

// NewTimeSeries creates a single-point series.
func NewTimeSeries[T comparable](timestamp uint64, value T) *TimeSeries[T] {
	return &TimeSeries[T]{start: uint32(timestamp), series: []point[T]{{offset: 0, value: value}}}
}

// NewTimeSeriesList groups input pairs by timestamp, resolving ties with
// resolve, and returns the series sorted ascending by timestamp, per the
// original's new_list.
func NewTimeSeriesList[T comparable](input []struct {
	Timestamp uint64
	Value     T
}, resolve func([]T) T) *TimeSeries[T] {
	if len(input) == 0 {
		panic("treegraph: NewTimeSeriesList requires a non-empty input")
	}
	sorted := append([]struct {
		Timestamp uint64
		Value     T
	}(nil), input...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Timestamp < sorted[j].Timestamp })

	start := sorted[0].Timestamp
	var series []point[T]
	i := 0
	for i < len(sorted) {
		j := i
		var group []T
		for j < len(sorted) && sorted[j].Timestamp == sorted[i].Timestamp {
			group = append(group, sorted[j].Value)
			j++
		}
		value := group[0]
		if len(group) > 1 {
			value = resolve(group)
		}
		series = append(series, point[T]{offset: uint16(sorted[i].Timestamp - start), value: value})
		i = j
	}
	return &TimeSeries[T]{start: uint32(start), series: series}
}

// StartTimestamp returns the series' start time.
func (ts *TimeSeries[T]) StartTimestamp() uint32 { return ts.start }

// Len returns the number of points in the series.
func (ts *TimeSeries[T]) Len() int { return len(ts.series) }

// At returns the value of the step function at t, and whether t is at or
// after StartTimestamp.
func (ts *TimeSeries[T]) At(t uint64) (T, bool) {
	var zero T
	if t < uint64(ts.start) {
		return zero, false
	}
	target := uint32(t) - ts.start
	idx := sort.Search(len(ts.series), func(i int) bool { return uint32(ts.series[i].offset) >= target })
	if idx < len(ts.series) && uint32(ts.series[idx].offset) == target {
		return ts.series[idx].value, true
	}
	if idx == 0 {
		return zero, false
	}
	return ts.series[idx-1].value, true
}

// Each calls visit with the absolute timestamp and value of every point,
// in ascending time order.
func (ts *TimeSeries[T]) Each(visit func(timestamp uint64, value T)) {
	for _, p := range ts.series {
		visit(uint64(ts.start)+uint64(p.offset), p.value)
	}
}

// Reduce drops consecutive entries sharing an equal value and shifts
// StartTimestamp forward to the first surviving offset (spec §3's
// TimeSeries invariant).
func (ts *TimeSeries[T]) Reduce() {
	if len(ts.series) == 0 {
		return
	}
	firstOffset := ts.series[0].offset
	ts.start += uint32(firstOffset)

	reduced := make([]point[T], 0, len(ts.series))
	i := 0
	for i < len(ts.series) {
		v := ts.series[i].value
		reduced = append(reduced, point[T]{offset: ts.series[i].offset - firstOffset, value: v})
		for i < len(ts.series) && ts.series[i].value == v {
			i++
		}
	}
	ts.series = reduced
}

// MapTimeSeries applies f pointwise, preserving offsets.
func MapTimeSeries[T, U comparable](ts *TimeSeries[T], f func(T) U) *TimeSeries[U] {
	out := &TimeSeries[U]{start: ts.start, series: make([]point[U], len(ts.series))}
	for i, p := range ts.series {
		out.series[i] = point[U]{offset: p.offset, value: f(p.value)}
	}
	return out
}

// UnionTimeSeries merge-sorts a and b on absolute time, invoking resolve
// on simultaneous times; the result's start is min(a.start, b.start),
// per the original's union.
func UnionTimeSeries[T comparable](a, b *TimeSeries[T], resolve func(a, b T) T) *TimeSeries[T] {
	newStart := a.start
	if b.start < newStart {
		newStart = b.start
	}
	var result []point[T]
	i, j := 0, 0
	for i < len(a.series) && j < len(b.series) {
		aAbs := uint64(a.start) + uint64(a.series[i].offset)
		bAbs := uint64(b.start) + uint64(b.series[j].offset)
		switch {
		case aAbs < bAbs:
			result = append(result, point[T]{offset: uint16(aAbs - uint64(newStart)), value: a.series[i].value})
			i++
		case aAbs > bAbs:
			result = append(result, point[T]{offset: uint16(bAbs - uint64(newStart)), value: b.series[j].value})
			j++
		default:
			result = append(result, point[T]{offset: uint16(aAbs - uint64(newStart)), value: resolve(a.series[i].value, b.series[j].value)})
			i++
			j++
		}
	}
	for ; i < len(a.series); i++ {
		aAbs := uint64(a.start) + uint64(a.series[i].offset)
		result = append(result, point[T]{offset: uint16(aAbs - uint64(newStart)), value: a.series[i].value})
	}
	for ; j < len(b.series); j++ {
		bAbs := uint64(b.start) + uint64(b.series[j].offset)
		result = append(result, point[T]{offset: uint16(bAbs - uint64(newStart)), value: b.series[j].value})
	}
	return &TimeSeries[T]{start: newStart, series: result}
}

// event is one input series' contribution at one absolute timestamp,
// used by ArrayCartesianMap's sweep.
type event[T any] struct {
	inputIdx int
	ts       uint32
	value    T
}

// ArrayCartesianMap implements the step-function cartesian product (spec
// §4.8): at every event time across every input series, it updates a
// per-input "current value" vector and calls combine; a non-nil result
// is emitted as a point. The series' start is the first timestamp at
// which combine returns non-nil. Ported from the original's
// array_cartesian_map / cartesian_map_inner.
func ArrayCartesianMap[T comparable, U comparable](inputs []*TimeSeries[T], combine func(current []*T) *U) *TimeSeries[U] {
	var events []event[T]
	for idx, ts := range inputs {
		for _, p := range ts.series {
			events = append(events, event[T]{inputIdx: idx, ts: ts.start + uint32(p.offset), value: p.value})
		}
	}
	sort.SliceStable(events, func(i, j int) bool { return events[i].ts < events[j].ts })

	current := make([]*T, len(inputs))
	var out TimeSeries[U]
	var started bool

	i := 0
	for i < len(events) {
		j := i
		t := events[i].ts
		for j < len(events) && events[j].ts == t {
			v := events[j].value
			current[events[j].inputIdx] = &v
			j++
		}
		i = j

		result := combine(current)
		if result == nil {
			continue
		}
		if !started {
			out.start = t
			started = true
		}
		out.series = append(out.series, point[U]{offset: uint16(t - out.start), value: *result})
	}
	return &out
}

// TupleCartesianMap specializes ArrayCartesianMap to two distinct input
// types, per the original's tuple_cartesian_map: a combine callback that
// sees each input's current value (or nil if that input has not yet
// produced any point).
func TupleCartesianMap[A, B comparable, U comparable](a *TimeSeries[A], b *TimeSeries[B], combine func(a *A, b *B) *U) *TimeSeries[U] {
	type tagged struct {
		ts    uint32
		isA   bool
		aVal  A
		bVal  B
	}
	var events []tagged
	for _, p := range a.series {
		events = append(events, tagged{ts: a.start + uint32(p.offset), isA: true, aVal: p.value})
	}
	for _, p := range b.series {
		events = append(events, tagged{ts: b.start + uint32(p.offset), isA: false, bVal: p.value})
	}
	sort.SliceStable(events, func(i, j int) bool { return events[i].ts < events[j].ts })

	var curA *A
	var curB *B
	var out TimeSeries[U]
	var started bool

	i := 0
	for i < len(events) {
		j := i
		t := events[i].ts
		for j < len(events) && events[j].ts == t {
			if events[j].isA {
				v := events[j].aVal
				curA = &v
			} else {
				v := events[j].bVal
				curB = &v
			}
			j++
		}
		i = j

		result := combine(curA, curB)
		if result == nil {
			continue
		}
		if !started {
			out.start = t
			started = true
		}
		out.series = append(out.series, point[U]{offset: uint16(t - out.start), value: *result})
	}
	return &out
}
