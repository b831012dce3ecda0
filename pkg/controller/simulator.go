package controller

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/chris/kiosk-settlement/pkg/clock"
	"github.com/chris/kiosk-settlement/pkg/models"
)

// Simulator stands in for the kiosk peripherals. After each unlock the door
// opens once OpenAfter has elapsed, the customer takes the Take items, and
// the door closes again HoldOpen later. The shelf is restocked whenever the
// lock engages.
type Simulator struct {
	Clock clock.Clock

	OpenAfter  time.Duration
	HoldOpen   time.Duration
	NeverOpens bool

	// Shelf lists the stocked item ids and Weights their unit weights.
	Shelf   []string
	Weights map[string]float64
	// Take lists the item ids the customer removes in each session.
	Take []string

	mu         sync.Mutex
	unlocked   bool
	unlockedAt time.Time
	taken      bool
	locks      int
	shown      []models.StatusMessage
}

var (
	_ Lock       = (*Simulator)(nil)
	_ DoorSensor = (*Simulator)(nil)
	_ Scale      = (*Simulator)(nil)
	_ Inventory  = (*Simulator)(nil)
	_ Feedback   = (*Simulator)(nil)
)

// Hardware returns the simulator wired into every peripheral slot.
func (s *Simulator) Hardware() Hardware {
	return Hardware{Lock: s, Door: s, Scale: s, Inventory: s, Feedback: s}
}

func (s *Simulator) now() time.Time {
	if s.Clock == nil {
		return time.Now()
	}
	return s.Clock.Now()
}

func (s *Simulator) Unlock(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unlocked = true
	s.unlockedAt = s.now()
	return nil
}

func (s *Simulator) Lock(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unlocked = false
	s.taken = false
	s.locks++
	return nil
}

func (s *Simulator) IsOpen(context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.unlocked || s.NeverOpens {
		return false, nil
	}
	elapsed := s.now().Sub(s.unlockedAt)
	if elapsed < s.OpenAfter {
		return false, nil
	}
	s.taken = true
	return elapsed < s.OpenAfter+s.HoldOpen, nil
}

func (s *Simulator) onShelf() []string {
	if !s.taken {
		return slices.Clone(s.Shelf)
	}
	var out []string
	for _, id := range s.Shelf {
		if !slices.Contains(s.Take, id) {
			out = append(out, id)
		}
	}
	return out
}

func (s *Simulator) Read(context.Context) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var total float64
	for _, id := range s.onShelf() {
		total += s.Weights[id]
	}
	return total, nil
}

func (s *Simulator) Snapshot(context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.onShelf(), nil
}

func (s *Simulator) Show(_ context.Context, status models.StatusMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shown = append(s.shown, status)
	return nil
}

// Shown returns the statuses displayed so far.
func (s *Simulator) Shown() []models.StatusMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.shown)
}

// Locks returns how many times the lock was engaged.
func (s *Simulator) Locks() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.locks
}
