package service

import (
	"context"
	"fmt"
	"sync"

	"officetime/internal/modules/attendance/domain"
	attendanceout "officetime/internal/modules/attendance/port/out"
	apperrors "officetime/internal/platform/errors"
)

type slotState int

const (
	slotUnknown slotState = iota
	slotAbsent
	slotPresent
)

type slot struct {
	state slotState
	value string
}

// Cache memoizes the fixed set of configuration and live-session keys in
// front of the store. Writes update the slot before the store call, so later
// reads see the new value even if the store write is still failing.
type Cache struct {
	store attendanceout.Store

	mu    sync.Mutex
	slots map[domain.Key]*slot
}

func NewCache(store attendanceout.Store) *Cache {
	slots := make(map[domain.Key]*slot, len(domain.CachedKeys))
	for _, key := range domain.CachedKeys {
		slots[key] = &slot{}
	}
	return &Cache{store: store, slots: slots}
}

func (c *Cache) slotFor(key domain.Key) (*slot, error) {
	s, ok := c.slots[key]
	if !ok {
		return nil, fmt.Errorf("%w: key %q is not cached", apperrors.ErrInvalidInput, key)
	}
	return s, nil
}

// Read returns the cached value, hitting the store only for Unknown slots.
func (c *Cache) Read(ctx context.Context, key domain.Key) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, err := c.slotFor(key)
	if err != nil {
		return "", false, err
	}
	switch s.state {
	case slotPresent:
		return s.value, true, nil
	case slotAbsent:
		return "", false, nil
	}

	value, ok, err := c.store.Get(ctx, string(key))
	if err != nil {
		return "", false, fmt.Errorf("read %s: %w", key, err)
	}
	if ok {
		s.state, s.value = slotPresent, value
	} else {
		s.state, s.value = slotAbsent, ""
	}
	return value, ok, nil
}

func (c *Cache) Write(ctx context.Context, key domain.Key, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, err := c.slotFor(key)
	if err != nil {
		return err
	}
	s.state, s.value = slotPresent, value
	if err := c.store.Set(ctx, string(key), value); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

// Remove deletes the key from the store. The slot turns Absent only once the
// store delete succeeded; on failure it keeps its previous value.
func (c *Cache) Remove(ctx context.Context, key domain.Key) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, err := c.slotFor(key)
	if err != nil {
		return err
	}
	if err := c.store.Remove(ctx, string(key)); err != nil {
		return fmt.Errorf("remove %s: %w", key, err)
	}
	s.state, s.value = slotAbsent, ""
	return nil
}

// Reset forgets every slot so the next reads go back to the store. Used when
// another process changed the store underneath us.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, s := range c.slots {
		s.state, s.value = slotUnknown, ""
	}
}
