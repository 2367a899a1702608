package service_test

import (
	"context"
	"errors"
	"sync"
	"time"
)

var errStoreDown = errors.New("store down")

type memStore struct {
	mu      sync.Mutex
	data    map[string]string
	gets    map[string]int
	failGet map[string]bool
	failSet map[string]bool
	failDel map[string]bool
	// blockGet, when set for a key, is closed by the test to let a Get proceed;
	// entered is signaled once the Get is waiting.
	blockGet map[string]chan struct{}
	entered  chan string
}

func newMemStore() *memStore {
	return &memStore{
		data:     map[string]string{},
		gets:     map[string]int{},
		failGet:  map[string]bool{},
		failSet:  map[string]bool{},
		failDel:  map[string]bool{},
		blockGet: map[string]chan struct{}{},
		entered:  make(chan string, 8),
	}
}

func (s *memStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	s.gets[key]++
	block := s.blockGet[key]
	fail := s.failGet[key]
	s.mu.Unlock()
	if block != nil {
		s.entered <- key
		<-block
	}
	if fail {
		return "", false, errStoreDown
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	return v, ok, nil
}

func (s *memStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSet[key] {
		return errStoreDown
	}
	s.data[key] = value
	return nil
}

func (s *memStore) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failDel[key] {
		return errStoreDown
	}
	delete(s.data, key)
	return nil
}

func (s *memStore) setFailDel(key string, fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failDel[key] = fail
}

func (s *memStore) getCount(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gets[key]
}

func (s *memStore) raw(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	return v, ok
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fakeOracle struct {
	onWifi   bool
	id       string
	resolved bool
	err      error
}

func (o *fakeOracle) IsOnWifi(context.Context) (bool, error) {
	return o.onWifi, o.err
}

func (o *fakeOracle) ResolvedIdentifier(context.Context) (string, bool, error) {
	return o.id, o.resolved, o.err
}

var local = time.FixedZone("CET", 60*60)

func at(day, hour, minute, sec int) time.Time {
	return time.Date(2026, 3, day, hour, minute, sec, 0, local)
}
