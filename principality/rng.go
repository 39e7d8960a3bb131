package principality

// seededRand is a small deterministic PRNG so that a game seed fully
// determines shuffles across machines. String seeds hash to a 32-bit state
// driven by a linear congruential generator.
type seededRand struct {
	state uint32
}

func newSeededRand(seed string) *seededRand {
	var hash int32
	for _, ch := range []byte(seed) {
		hash = (hash << 5) - hash + int32(ch)
	}
	if hash < 0 {
		hash = -hash
	}
	return &seededRand{state: uint32(hash)}
}

func (r *seededRand) next() float64 {
	r.state = r.state*1664525 + 1013904223
	return float64(r.state) / (1 << 32)
}

func (r *seededRand) intn(n int) int {
	return int(r.next() * float64(n))
}

// shuffle permutes cards in place with Fisher-Yates.
func (r *seededRand) shuffle(cards []CardName) {
	for i := len(cards) - 1; i > 0; i-- {
		j := r.intn(i + 1)
		cards[i], cards[j] = cards[j], cards[i]
	}
}
