package ticket

// DefaultCouriers is the fixed courier roster
var DefaultCouriers = []string{"Repartidor1", "Repartidor2", "Repartidor3", "Repartidor4", "Repartidor5"}

// Chooser picks an index in [0, n). *math/rand/v2.Rand satisfies it.
type Chooser interface {
	IntN(n int) int
}

// CourierPool is the set of courier labels tickets can be assigned to
type CourierPool struct {
	names []string
}

// NewCourierPool creates a pool; with no names the default roster is used
func NewCourierPool(names ...string) *CourierPool {
	if len(names) == 0 {
		names = DefaultCouriers
	}
	cp := make([]string, len(names))
	copy(cp, names)
	return &CourierPool{names: cp}
}

// Names returns the courier labels in roster order
func (p *CourierPool) Names() []string {
	out := make([]string, len(p.names))
	copy(out, p.names)
	return out
}

// Contains reports whether name is part of the pool
func (p *CourierPool) Contains(name string) bool {
	for _, n := range p.names {
		if n == name {
			return true
		}
	}
	return false
}

// Candidates returns the couriers eligible for a new ticket: those holding no
// open alta ticket. When every courier holds one, the whole pool is returned
// and fallback is true.
func (p *CourierPool) Candidates(openAlta map[string]int64) (candidates []string, fallback bool) {
	for _, n := range p.names {
		if openAlta[n] == 0 {
			candidates = append(candidates, n)
		}
	}
	if len(candidates) == 0 {
		return p.Names(), true
	}
	return candidates, false
}

// Assign picks a courier uniformly at random among the candidates.
// The count snapshot is advisory: concurrent assignments may pick the same
// courier.
func (p *CourierPool) Assign(openAlta map[string]int64, rng Chooser) string {
	candidates, _ := p.Candidates(openAlta)
	if len(candidates) == 0 {
		return ""
	}
	return candidates[rng.IntN(len(candidates))]
}
