package domain

// Phase of the sync state machine.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoadingFirstPage
	PhaseLoadingMore
	PhaseError
)

// String returns the string representation of Phase
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "IDLE"
	case PhaseLoadingFirstPage:
		return "LOADING_FIRST_PAGE"
	case PhaseLoadingMore:
		return "LOADING_MORE"
	case PhaseError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// IsLoading reports whether a sync is in flight.
func (p Phase) IsLoading() bool {
	return p == PhaseLoadingFirstPage || p == PhaseLoadingMore
}

// MaxRetries bounds automatic retries after a rate-limit response.
const MaxRetries = 3

// SyncState is an immutable snapshot of the pagination store.
// Readers receive copies; a published snapshot is never mutated afterwards.
type SyncState struct {
	Records    []Record `json:"records"`
	Page       int      `json:"page"`
	HasMore    bool     `json:"has_more"`
	RetryCount int      `json:"retry_count"`
	Phase      Phase    `json:"phase"`
	Error      string   `json:"error,omitempty"`
	Status     string   `json:"status,omitempty"` // interim "retrying" notice
}

// InitialState is the state before any fetch and after a pagination reset.
func InitialState() SyncState {
	return SyncState{
		Records: []Record{},
		Page:    1,
		HasMore: true,
		Phase:   PhaseIdle,
	}
}

// Clone returns a deep copy of the record slice so callers cannot alias
// the store's backing array.
func (s SyncState) Clone() SyncState {
	out := s
	out.Records = make([]Record, len(s.Records))
	copy(out.Records, s.Records)
	return out
}

// NextPage is the page a load-more should request.
func (s SyncState) NextPage() int {
	if len(s.Records) == 0 {
		return 1
	}
	return s.Page + 1
}
