package service

import (
	"sync"

	"coinsync/internal/domain"
)

// Ticket identifies one sync attempt. Mutations carrying a ticket from before
// the last Reset are discarded.
type Ticket uint64

// PaginationStore owns the sync state. All mutation goes through the sync
// controller; everyone else reads copies via Snapshot.
type PaginationStore struct {
	mu          sync.RWMutex
	state       domain.SyncState
	generation  uint64
	selectedID  string
	subscribers []func(domain.SyncState)
}

// NewPaginationStore creates a store in the initial state.
func NewPaginationStore() *PaginationStore {
	return &PaginationStore{
		state: domain.InitialState(),
	}
}

// Snapshot returns a copy of the last published state.
func (s *PaginationStore) Snapshot() domain.SyncState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.state.Clone()
}

// Subscribe registers fn to receive every published state.
// fn is called outside the store lock and must not block for long.
func (s *PaginationStore) Subscribe(fn func(domain.SyncState)) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.subscribers = append(s.subscribers, fn)
}

// Begin marks a sync of page as in flight. It fails with
// domain.ErrSyncInProgress if another sync holds the store. The returned
// state is the snapshot before the sync started, used as the anomaly baseline.
func (s *PaginationStore) Begin(page int) (Ticket, domain.SyncState, error) {
	if page < 1 {
		return 0, domain.SyncState{}, domain.ErrInvalidPage
	}

	s.mu.Lock()
	if s.state.Phase.IsLoading() {
		s.mu.Unlock()
		return 0, domain.SyncState{}, domain.ErrSyncInProgress
	}

	previous := s.state.Clone()
	if page == 1 {
		s.state.Phase = domain.PhaseLoadingFirstPage
	} else {
		s.state.Phase = domain.PhaseLoadingMore
	}
	s.state.Error = ""
	s.state.Status = ""
	s.state.RetryCount = 0
	ticket := Ticket(s.generation)
	published := s.state.Clone()
	s.mu.Unlock()

	s.publish(published)
	return ticket, previous, nil
}

// SetRetry publishes the retry count and an interim status while a sync
// waits out a backoff.
func (s *PaginationStore) SetRetry(t Ticket, count int, status string) bool {
	return s.mutate(t, func(st *domain.SyncState) {
		st.RetryCount = count
		st.Status = status
	})
}

// Commit merges a verified page. Page 1 replaces the record set, later pages
// append. HasMore is true only for a full page.
func (s *PaginationStore) Commit(t Ticket, page int, records []domain.Record) bool {
	return s.mutate(t, func(st *domain.SyncState) {
		if page == 1 {
			st.Records = make([]domain.Record, len(records))
			copy(st.Records, records)
		} else {
			merged := make([]domain.Record, 0, len(st.Records)+len(records))
			merged = append(merged, st.Records...)
			st.Records = append(merged, records...)
		}
		st.Page = page
		st.HasMore = domain.PageResult{Records: records, Page: page}.IsFull()
		st.RetryCount = 0
		st.Phase = domain.PhaseIdle
		st.Error = ""
		st.Status = ""
	})
}

// Fail ends the sync with a user-visible message. Committed records are kept.
func (s *PaginationStore) Fail(t Ticket, message string) bool {
	return s.mutate(t, func(st *domain.SyncState) {
		st.Phase = domain.PhaseError
		st.Error = message
		st.Status = ""
	})
}

// Reset clears all records and pagination and invalidates in-flight tickets.
func (s *PaginationStore) Reset() {
	s.mu.Lock()
	s.generation++
	s.state = domain.InitialState()
	s.selectedID = ""
	published := s.state.Clone()
	s.mu.Unlock()

	s.publish(published)
}

// Select marks a committed record as the one shown in the detail view.
func (s *PaginationStore) Select(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := domain.IndexByID(s.state.Records)[id]; !ok {
		return domain.ErrNotFound
	}
	s.selectedID = id
	return nil
}

// Selected returns the current version of the selected record, if it is
// still part of the committed set.
func (s *PaginationStore) Selected() (domain.Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.find(s.selectedID)
}

// Record looks up a committed record by id.
func (s *PaginationStore) Record(id string) (domain.Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.find(id)
}

// find must be called with the lock held.
func (s *PaginationStore) find(id string) (domain.Record, bool) {
	if id == "" {
		return domain.Record{}, false
	}
	for _, r := range s.state.Records {
		if r.ID == id {
			return r, true
		}
	}
	return domain.Record{}, false
}

func (s *PaginationStore) mutate(t Ticket, fn func(*domain.SyncState)) bool {
	s.mu.Lock()
	if uint64(t) != s.generation {
		s.mu.Unlock()
		return false
	}
	fn(&s.state)
	published := s.state.Clone()
	s.mu.Unlock()

	s.publish(published)
	return true
}

func (s *PaginationStore) publish(state domain.SyncState) {
	s.mu.RLock()
	subs := make([]func(domain.SyncState), len(s.subscribers))
	copy(subs, s.subscribers)
	s.mu.RUnlock()

	for _, fn := range subs {
		fn(state.Clone())
	}
}
