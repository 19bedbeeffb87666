// Package inputbuffer keeps the recent per-tick input history of the local
// player so unacknowledged inputs can be resent with every packet.
package inputbuffer

import "github.com/gafferongames/cubes/internal/state"

type entry struct {
	tick       uint64
	generation uint32
	input      state.Input
}

// History is a fixed size ring keyed by tick. Tick t lives in slot t mod the
// capacity and overwrites whatever was there.
type History struct {
	entries []entry
	// entries written before the current generation are stale
	generation uint32
}

func New(capacity int) *History {
	if capacity <= 0 {
		panic("inputbuffer error: capacity must be positive")
	}
	return &History{
		entries:    make([]entry, capacity),
		generation: 1,
	}
}

func (h *History) Cap() int { return len(h.entries) }

func (h *History) slot(tick uint64) *entry {
	return &h.entries[tick%uint64(len(h.entries))]
}

// Record stores input for count consecutive ticks starting at tick. Only the
// last Cap ticks of a longer run are written since they would overwrite the
// rest anyway.
func (h *History) Record(tick uint64, input state.Input, count int) {
	if count > len(h.entries) {
		tick += uint64(count - len(h.entries))
		count = len(h.entries)
	}
	for i := range count {
		e := h.slot(tick + uint64(i))
		e.tick = tick + uint64(i)
		e.generation = h.generation
		e.input = input
	}
}

// Lookup returns the input recorded for tick, if its slot still holds it.
func (h *History) Lookup(tick uint64) (state.Input, bool) {
	e := h.slot(tick)
	if e.generation != h.generation || e.tick != tick {
		return state.Input{}, false
	}
	return e.input, true
}

// Window walks back from current and collects at most max inputs. It stops
// early at the first tick that is missing from the history or equal to ack,
// which the server already has.
func (h *History) Window(current, ack uint64, max int) []state.Input {
	inputs := make([]state.Input, 0, min(max, len(h.entries)))
	for tick := current; len(inputs) < max; tick-- {
		if tick == ack {
			break
		}
		input, ok := h.Lookup(tick)
		if !ok {
			break
		}
		inputs = append(inputs, input)
		if tick == 0 {
			break
		}
	}
	return inputs
}

// Clear forgets every recorded input.
func (h *History) Clear() {
	h.generation++
	if h.generation == 0 {
		// wrapped around; old generations could alias again
		clear(h.entries)
		h.generation = 1
	}
}
