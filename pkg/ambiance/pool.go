package ambiance

import "math/rand/v2"

// RandomPool hands out random indices in [0, n) while keeping a value from
// coming back before a configurable number of other picks.
//
// Values live in a shuffled array. Only the first pickRange entries are
// eligible; a picked value is moved to the end of the array and walks back
// into the eligible window one position per following pick.
type RandomPool struct {
	indices   []int
	pickRange int
	noRepeat  int
	rng       *rand.Rand
}

// NewRandomPool builds a pool over [0, total) shuffled with rng.
// noRepeat is the minimum number of picks between two occurrences of the same value.
func NewRandomPool(total, noRepeat int, rng *rand.Rand) (*RandomPool, error) {
	if total <= 0 {
		return nil, ErrEmptyPool
	}
	p := &RandomPool{
		indices: make([]int, total),
		rng:     rng,
	}
	for i := range p.indices {
		p.indices[i] = i
	}
	rng.Shuffle(total, func(i, j int) {
		p.indices[i], p.indices[j] = p.indices[j], p.indices[i]
	})
	p.SetNoRepeatCount(noRepeat)
	return p, nil
}

// SetNoRepeatCount changes the no-repeat window. The current order is kept.
func (p *RandomPool) SetNoRepeatCount(n int) {
	p.noRepeat = max(n, 0)
	p.pickRange = max(len(p.indices)-p.noRepeat, 1)
}

// NoRepeatCount returns the configured no-repeat window.
func (p *RandomPool) NoRepeatCount() int {
	return p.noRepeat
}

// Len returns the number of values in the pool.
func (p *RandomPool) Len() int {
	return len(p.indices)
}

// PickRange returns how many leading values are currently eligible.
func (p *RandomPool) PickRange() int {
	return p.pickRange
}

// Eligible returns a copy of the values Next may return on its next call.
func (p *RandomPool) Eligible() []int {
	return append([]int(nil), p.indices[:p.pickRange]...)
}

// Next returns a random value. When a no-repeat window is set the value is
// rotated to the end of the pool.
func (p *RandomPool) Next() int {
	pos := p.rng.IntN(p.pickRange)
	v := p.indices[pos]
	if p.noRepeat > 0 {
		copy(p.indices[pos:], p.indices[pos+1:])
		p.indices[len(p.indices)-1] = v
	}
	return v
}
