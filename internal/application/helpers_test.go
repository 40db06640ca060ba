package application

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestDescribeDuration(t *testing.T) {
	duration := func(d time.Duration) *time.Duration { return &d }

	tests := []struct {
		name string
		d    *time.Duration
		want string
	}{
		{"permanent", nil, "permanent"},
		{"one second", duration(time.Second), "1 second"},
		{"seconds", duration(45 * time.Second), "45 seconds"},
		{"one minute", duration(time.Minute), "1 minute"},
		{"minutes", duration(30 * time.Minute), "30 minutes"},
		{"hours", duration(12 * time.Hour), "12 hours"},
		{"one day", duration(24 * time.Hour), "1 day"},
		{"days", duration(7 * 24 * time.Hour), "7 days"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DescribeDuration(tt.d))
		})
	}
}

func TestGenerateCode(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		code := generateCode(linkCodeLength)
		assert.Len(t, code, linkCodeLength)
		seen[code] = struct{}{}
	}
	assert.Greater(t, len(seen), 90, "codes must not collide in practice")
}

func TestKeyLockSerializesSameKey(t *testing.T) {
	var locks keyLock
	id := uuid.New()

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer locks.lock(id).Unlock()
			counter++
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, counter)
}
