package services

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"timesheet-admin/internal/calendar"
)

// DayLocker serialises writes per employee-day so sibling reads, validation
// and the write happen without a concurrent writer for the same day.
type DayLocker struct {
	mu    sync.Mutex
	locks map[string]*dayLock
}

type dayLock struct {
	mu   sync.Mutex
	refs int
}

// NewDayLocker creates an empty locker
func NewDayLocker() *DayLocker {
	return &DayLocker{locks: make(map[string]*dayLock)}
}

// Lock acquires the locks for an employee on each date, in a fixed order, and
// returns the function that releases them.
func (l *DayLocker) Lock(employeeID int64, dates ...time.Time) func() {
	keys := make([]string, 0, len(dates))
	seen := make(map[string]bool, len(dates))
	for _, d := range dates {
		key := fmt.Sprintf("%d:%s", employeeID, calendar.FormatDate(calendar.DateOf(d)))
		if !seen[key] {
			seen[key] = true
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	held := make([]*dayLock, 0, len(keys))
	for _, key := range keys {
		dl := l.acquire(key)
		dl.mu.Lock()
		held = append(held, dl)
	}

	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].mu.Unlock()
			l.release(keys[i])
		}
	}
}

func (l *DayLocker) acquire(key string) *dayLock {
	l.mu.Lock()
	defer l.mu.Unlock()
	dl, ok := l.locks[key]
	if !ok {
		dl = &dayLock{}
		l.locks[key] = dl
	}
	dl.refs++
	return dl
}

func (l *DayLocker) release(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	dl := l.locks[key]
	dl.refs--
	if dl.refs == 0 {
		delete(l.locks, key)
	}
}

func (l *DayLocker) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
