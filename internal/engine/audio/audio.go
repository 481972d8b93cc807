// Package audio resolves sound bank cues and tracks to concrete sounds and
// waves. Playback itself is left to an audio backend.
package audio

import (
	"math/rand"
	"sync"

	"github.com/hollowshade/aurora-assets/pkg/formats"
)

// Manager selects variations from decoded sound banks and tracks playback
// volume settings.
type Manager struct {
	mu sync.Mutex

	rng *rand.Rand

	// Volume settings (0.0 to 1.0)
	masterVolume float64
	sfxVolume    float64
	muted        bool

	// Per-variation-set selection state
	sequences map[any]*sequence
}

// New creates a manager using the given random source. A nil source is
// seeded from the default shared source.
func New(rng *rand.Rand) *Manager {
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}
	return &Manager{
		rng:          rng,
		masterVolume: 1.0,
		sfxVolume:    1.0,
		sequences:    make(map[any]*sequence),
	}
}

// SetMasterVolume sets the master volume (0.0 to 1.0).
func (m *Manager) SetMasterVolume(vol float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.masterVolume = clamp(vol, 0, 1)
}

// SetSFXVolume sets the effects volume (0.0 to 1.0).
func (m *Manager) SetSFXVolume(vol float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sfxVolume = clamp(vol, 0, 1)
}

// SetMuted mutes or unmutes all output.
func (m *Manager) SetMuted(muted bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.muted = muted
}

// Volume returns the effective output volume.
func (m *Manager) Volume() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.muted {
		return 0
	}
	return m.masterVolume * m.sfxVolume
}

// SelectCue picks one variation of a cue according to its select method and
// returns the chosen sound index. Returns false for a cue with no
// variations.
func (m *Manager) SelectCue(cue *formats.Cue) (uint16, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(cue.Variations) == 0 {
		return 0, false
	}

	weights := make([]int, len(cue.Variations))
	for i, v := range cue.Variations {
		weights[i] = int(v.WeightMax) - int(v.WeightMin) + 1
	}

	idx := m.sequenceFor(cue, cue.VariationSelectMethod).pick(m.rng, weights)
	return cue.Variations[idx].SoundIndex, true
}

// SelectCueByParameter picks the variation of a parameter-controlled cue
// whose weight range contains value. Returns false when no range matches.
func (m *Manager) SelectCueByParameter(cue *formats.Cue, value uint16) (uint16, bool) {
	for _, v := range cue.Variations {
		if value >= v.WeightMin && value <= v.WeightMax {
			return v.SoundIndex, true
		}
	}
	return 0, false
}

// SelectWave picks one wave variation of a track according to its select
// method. Returns nil for a track with no waves.
func (m *Manager) SelectWave(track *formats.Track) *formats.WaveVariation {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(track.Waves) == 0 {
		return nil
	}

	weights := make([]int, len(track.Waves))
	for i, w := range track.Waves {
		weights[i] = int(w.WeightMax) - int(w.WeightMin) + 1
	}

	idx := m.sequenceFor(track, track.VariationSelectMethod).pick(m.rng, weights)
	return &track.Waves[idx]
}

// Reset drops all per-cue selection state.
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sequences = make(map[any]*sequence)
}

// sequenceFor returns the selection state for one variation set, creating
// it on first use.
func (m *Manager) sequenceFor(key any, method formats.SelectMethod) *sequence {
	seq, ok := m.sequences[key]
	if !ok {
		seq = &sequence{method: method, last: -1}
		m.sequences[key] = seq
	}
	return seq
}

// sequence holds the selection state of one variation set.
type sequence struct {
	method formats.SelectMethod
	cursor int   // ordered
	last   int   // random without repeats
	order  []int // shuffle permutation
}

// pick chooses the next variation index. Weights are the width of each
// variation's weight range; wider ranges are proportionally more likely
// under the random methods.
func (s *sequence) pick(rng *rand.Rand, weights []int) int {
	n := len(weights)
	if n == 1 {
		return 0
	}

	switch s.method {
	case formats.SelectMethodOrdered:
		idx := s.cursor % n
		s.cursor++
		return idx

	case formats.SelectMethodShuffle:
		if len(s.order) == 0 {
			s.order = rng.Perm(n)
		}
		idx := s.order[0]
		s.order = s.order[1:]
		return idx

	case formats.SelectMethodRandomNoRepeats:
		for {
			idx := weightedPick(rng, weights)
			if idx != s.last {
				s.last = idx
				return idx
			}
		}

	default: // SelectMethodRandom, SelectMethodParameter without a value
		return weightedPick(rng, weights)
	}
}

// weightedPick draws an index with probability proportional to its weight.
func weightedPick(rng *rand.Rand, weights []int) int {
	total := 0
	for _, w := range weights {
		total += w
	}

	r := rng.Intn(total)
	for i, w := range weights {
		r -= w
		if r < 0 {
			return i
		}
	}
	return len(weights) - 1
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
