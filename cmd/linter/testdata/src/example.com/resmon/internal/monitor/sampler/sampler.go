package sampler

import "time"

type Clock interface {
	Now() time.Time
}

type Sampler struct {
	clock Clock
	last  time.Time
}

func (s *Sampler) Due() bool {
	return s.clock.Now().Sub(s.last) >= time.Second
}

func (s *Sampler) Stale() bool {
	return time.Now().Sub(s.last) >= time.Second // want "found usage of time.Now in monitor package, use the injected clock"
}
