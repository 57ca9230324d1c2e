package application

import "time"

// SetNow overrides the clock used for invoice expiry checks.
func (s *Service) SetNow(now func() time.Time) {
	s.now = now
}
