package crawler

// Strategy produces a value from its input or reports that it found nothing
type Strategy[In, Out any] func(In) (Out, bool)

// FirstMatch combines strategies into one that tries each in order; the first hit wins
func FirstMatch[In, Out any](strategies ...Strategy[In, Out]) Strategy[In, Out] {
	return func(in In) (Out, bool) {
		for _, s := range strategies {
			if s == nil {
				continue
			}
			if out, ok := s(in); ok {
				return out, true
			}
		}
		var zero Out
		return zero, false
	}
}
