package extract

// Strategy is one way of finding a field. It reports false when it found
// nothing usable.
type Strategy[T any] func(p *Page) (T, bool)

// First runs strategies in order and returns the first value found.
func First[T any](p *Page, strategies ...Strategy[T]) (T, bool) {
	for _, s := range strategies {
		if v, ok := s(p); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}

// Or returns v when ok, otherwise def.
func Or[T any](v T, ok bool, def T) T {
	if ok {
		return v
	}
	return def
}

// value drops the found flag; strategies return the zero value on a miss.
func value[T any](v T, _ bool) T {
	return v
}

// Reducer picks one value out of a candidate list.
type Reducer func(candidates []int) (int, bool)

// Reduce turns a candidate generator into a Strategy.
func Reduce(candidates func(p *Page) []int, r Reducer) Strategy[int] {
	return func(p *Page) (int, bool) {
		return r(candidates(p))
	}
}

// Max picks the largest candidate.
func Max(candidates []int) (int, bool) {
	if len(candidates) == 0 {
		return 0, false
	}
	best := candidates[0]
	for _, c := range candidates[1:] {
		if c > best {
			best = c
		}
	}
	return best, true
}

// Min picks the smallest candidate.
func Min(candidates []int) (int, bool) {
	if len(candidates) == 0 {
		return 0, false
	}
	best := candidates[0]
	for _, c := range candidates[1:] {
		if c < best {
			best = c
		}
	}
	return best, true
}

// Majority picks the most frequent candidate. Ties go to the value seen first.
func Majority(candidates []int) (int, bool) {
	if len(candidates) == 0 {
		return 0, false
	}
	counts := make(map[int]int, len(candidates))
	for _, c := range candidates {
		counts[c]++
	}
	best, bestCount := candidates[0], 0
	for _, c := range candidates {
		if counts[c] > bestCount {
			best, bestCount = c, counts[c]
		}
	}
	return best, true
}

// InRange filters candidates to [lo, hi].
func InRange(candidates []int, lo, hi int) []int {
	out := candidates[:0:0]
	for _, c := range candidates {
		if c >= lo && c <= hi {
			out = append(out, c)
		}
	}
	return out
}
