package calc

// sumIfComplete adds the given optional readings. Returns nil if any reading
// is absent; a sum over a partial site set would not be comparable.
func sumIfComplete(sites ...*float64) *float64 {
	total := 0.0
	for _, s := range sites {
		if s == nil {
			return nil
		}
		total += *s
	}
	return &total
}
