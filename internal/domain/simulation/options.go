package simulation

// Option applies a configuration option to the Simulator.
type Option func(*Simulator)

// WithSamples sets the default number of trials per run.
func WithSamples(n int) Option {
	return func(s *Simulator) {
		if n > 0 {
			s.samples = n
		}
	}
}

// WithPossessionSD sets the standard deviation of the possession draw.
func WithPossessionSD(sd float64) Option {
	return func(s *Simulator) {
		if sd >= 0 {
			s.possSD = sd
		}
	}
}

// WithPPPSD sets the standard deviation of each side's points-per-possession draw.
func WithPPPSD(sd float64) Option {
	return func(s *Simulator) {
		if sd >= 0 {
			s.pppSD = sd
		}
	}
}

// WithPossessionFloor sets the minimum simulated possession count.
func WithPossessionFloor(floor float64) Option {
	return func(s *Simulator) {
		if floor >= 0 {
			s.floor = floor
		}
	}
}

// WithWorkers splits trials across n goroutines.
func WithWorkers(n int) Option {
	return func(s *Simulator) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithSeed makes runs reproducible. Zero keeps random seeding.
func WithSeed(seed uint64) Option {
	return func(s *Simulator) {
		if seed != 0 {
			s.seed = seed
			s.seeded = true
		}
	}
}
