package services

import "time"

// Clock abstracts time retrieval so grant expiry and ordering are deterministic in tests.
type Clock interface {
	Now() time.Time
}

type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now().UTC() }
