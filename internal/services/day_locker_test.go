package services

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"timesheet-admin/internal/calendar"
)

func TestDayLocker_SerialisesSameDay(t *testing.T) {
	locker := NewDayLocker()
	day := calendar.NewDate(2024, 1, 9)

	var mu sync.Mutex
	active, maxActive := 0, 0
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locker.Lock(1, day, day.Add(3*time.Hour))
			mu.Lock()
			active++
			if active > maxActive {
				maxActive = active
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			active--
			mu.Unlock()
			unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxActive)
	assert.Equal(t, 0, locker.size())
}

func TestDayLocker_IndependentKeys(t *testing.T) {
	locker := NewDayLocker()
	day := calendar.NewDate(2024, 1, 9)

	unlockA := locker.Lock(1, day)
	done := make(chan struct{})
	go func() {
		unlockB := locker.Lock(2, day)
		unlockC := locker.Lock(1, calendar.AddDays(day, 1))
		unlockC()
		unlockB()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("locks for other employees or days should not block")
	}
	assert.Equal(t, 1, locker.size())
	unlockA()
	assert.Equal(t, 0, locker.size())
}
