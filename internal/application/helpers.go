package application

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

func generateCode(length int) string {
	bytes := make([]byte, length)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)[:length]
}

// DescribeDuration renders an exclusion duration for display. A nil duration
// means the exclusion never expires.
func DescribeDuration(d *time.Duration) string {
	if d == nil {
		return "permanent"
	}
	switch {
	case *d < time.Minute:
		return pluralize(int(d.Seconds()), "second")
	case *d < time.Hour:
		return pluralize(int(d.Minutes()), "minute")
	case *d < 24*time.Hour:
		return pluralize(int(d.Hours()), "hour")
	default:
		return pluralize(int(d.Hours()/24), "day")
	}
}

func pluralize(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
