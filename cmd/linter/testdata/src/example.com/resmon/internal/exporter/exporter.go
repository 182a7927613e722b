package exporter

import "time"

func Stamp() time.Time {
	return time.Now()
}
