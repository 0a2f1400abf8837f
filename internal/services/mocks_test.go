package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"health-records-service/internal/adapters"
	"health-records-service/internal/domain/dtos"
	"health-records-service/internal/domain/entities"
	"health-records-service/internal/domain/repositories"
)

// --- MockHealthRecordRepository ---

// Compile-time check to ensure MockHealthRecordRepository implements HealthRecordRepository.
var _ repositories.HealthRecordRepository = (*MockHealthRecordRepository)(nil)

// MockHealthRecordRepository is a func-field mock of HealthRecordRepository.
type MockHealthRecordRepository struct {
	InsertFunc                func(ctx context.Context, record *entities.HealthRecord, entry *entities.AuditEntry) error
	GetByIDFunc               func(ctx context.Context, id uuid.UUID) (*entities.HealthRecord, error)
	MutateFunc                func(ctx context.Context, id uuid.UUID, fn repositories.MutationFunc) (*entities.HealthRecord, error)
	ListByUserFunc            func(ctx context.Context, userID uuid.UUID, query dtos.ListRecordsQuery) ([]*entities.HealthRecord, error)
	CountByUserFunc           func(ctx context.Context, userID uuid.UUID, query dtos.ListRecordsQuery) (int64, error)
	ListPendingOrConflictFunc func(ctx context.Context, userID uuid.UUID) ([]*entities.HealthRecord, error)

	InsertCallCount int32
	MutateCallCount int32
}

func (m *MockHealthRecordRepository) Insert(ctx context.Context, record *entities.HealthRecord, entry *entities.AuditEntry) error {
	atomic.AddInt32(&m.InsertCallCount, 1)
	if m.InsertFunc != nil {
		return m.InsertFunc(ctx, record, entry)
	}
	return nil
}

func (m *MockHealthRecordRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.HealthRecord, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, errors.New("GetByIDFunc not implemented in mock")
}

func (m *MockHealthRecordRepository) Mutate(ctx context.Context, id uuid.UUID, fn repositories.MutationFunc) (*entities.HealthRecord, error) {
	atomic.AddInt32(&m.MutateCallCount, 1)
	if m.MutateFunc != nil {
		return m.MutateFunc(ctx, id, fn)
	}
	return nil, errors.New("MutateFunc not implemented in mock")
}

func (m *MockHealthRecordRepository) ListByUser(ctx context.Context, userID uuid.UUID, query dtos.ListRecordsQuery) ([]*entities.HealthRecord, error) {
	if m.ListByUserFunc != nil {
		return m.ListByUserFunc(ctx, userID, query)
	}
	return nil, nil
}

func (m *MockHealthRecordRepository) CountByUser(ctx context.Context, userID uuid.UUID, query dtos.ListRecordsQuery) (int64, error) {
	if m.CountByUserFunc != nil {
		return m.CountByUserFunc(ctx, userID, query)
	}
	return 0, nil
}

func (m *MockHealthRecordRepository) ListPendingOrConflict(ctx context.Context, userID uuid.UUID) ([]*entities.HealthRecord, error) {
	if m.ListPendingOrConflictFunc != nil {
		return m.ListPendingOrConflictFunc(ctx, userID)
	}
	return nil, nil
}

// --- MockSyncEventPublisher ---

var _ adapters.SyncEventPublisher = (*MockSyncEventPublisher)(nil)

// MockSyncEventPublisher records published events for assertions.
type MockSyncEventPublisher struct {
	PublishFunc func(ctx context.Context, event adapters.SyncEvent) error

	mu     sync.Mutex
	events []adapters.SyncEvent
}

func (m *MockSyncEventPublisher) Publish(ctx context.Context, event adapters.SyncEvent) error {
	m.mu.Lock()
	m.events = append(m.events, event)
	m.mu.Unlock()
	if m.PublishFunc != nil {
		return m.PublishFunc(ctx, event)
	}
	return nil
}

func (m *MockSyncEventPublisher) Close() error { return nil }

func (m *MockSyncEventPublisher) Events() []adapters.SyncEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]adapters.SyncEvent, len(m.events))
	copy(out, m.events)
	return out
}

// --- memoryRecordStore ---

var _ repositories.HealthRecordRepository = (*memoryRecordStore)(nil)
var _ repositories.AuditEntryRepository = (*memoryRecordStore)(nil)

// memoryRecordStore is a stateful fake of both repository contracts:
// records keyed by id, per-record mutexes serializing Mutate, audit rows
// appended only when the mutation commits one. It mirrors the store's
// transactional semantics closely enough to drive the scenario and race
// tests without a database.
type memoryRecordStore struct {
	mu      sync.Mutex
	records map[uuid.UUID]*entities.HealthRecord
	locks   map[uuid.UUID]*sync.Mutex
	entries []*entities.AuditEntry
}

func newMemoryRecordStore() *memoryRecordStore {
	return &memoryRecordStore{
		records: make(map[uuid.UUID]*entities.HealthRecord),
		locks:   make(map[uuid.UUID]*sync.Mutex),
	}
}

func (s *memoryRecordStore) Insert(_ context.Context, record *entities.HealthRecord, entry *entities.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.ID] = cloneRecord(record)
	s.locks[record.ID] = &sync.Mutex{}
	s.entries = append(s.entries, cloneEntry(entry))
	return nil
}

func (s *memoryRecordStore) GetByID(_ context.Context, id uuid.UUID) (*entities.HealthRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[id]
	if !ok {
		return nil, repositories.ErrRecordNotFound
	}
	return cloneRecord(record), nil
}

func (s *memoryRecordStore) Mutate(_ context.Context, id uuid.UUID, fn repositories.MutationFunc) (*entities.HealthRecord, error) {
	s.mu.Lock()
	lock, ok := s.locks[id]
	s.mu.Unlock()
	if !ok {
		return nil, repositories.ErrRecordNotFound
	}

	lock.Lock()
	defer lock.Unlock()

	s.mu.Lock()
	working := cloneRecord(s.records[id])
	s.mu.Unlock()

	entry, err := fn(working)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.records[id] = cloneRecord(working)
	if entry != nil {
		s.entries = append(s.entries, cloneEntry(entry))
	}
	s.mu.Unlock()

	return working, nil
}

func (s *memoryRecordStore) ListByUser(_ context.Context, userID uuid.UUID, query dtos.ListRecordsQuery) ([]*entities.HealthRecord, error) {
	matches := s.matchingRecords(userID, query)
	if query.PageSize > 0 {
		start := (query.Page - 1) * query.PageSize
		if start >= len(matches) {
			return nil, nil
		}
		end := start + query.PageSize
		if end > len(matches) {
			end = len(matches)
		}
		matches = matches[start:end]
	}
	return matches, nil
}

func (s *memoryRecordStore) CountByUser(_ context.Context, userID uuid.UUID, query dtos.ListRecordsQuery) (int64, error) {
	return int64(len(s.matchingRecords(userID, query))), nil
}

func (s *memoryRecordStore) ListPendingOrConflict(_ context.Context, userID uuid.UUID) ([]*entities.HealthRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var matches []*entities.HealthRecord
	for _, record := range s.records {
		if record.UserID != userID || record.IsDeleted {
			continue
		}
		if record.SyncStatus == entities.SyncStatusPending || record.SyncStatus == entities.SyncStatusConflict {
			matches = append(matches, cloneRecord(record))
		}
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].UpdatedAt.After(matches[j].UpdatedAt) })
	return matches, nil
}

func (s *memoryRecordStore) ListByRecord(_ context.Context, recordID uuid.UUID) ([]*entities.AuditEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var matches []*entities.AuditEntry
	for _, entry := range s.entries {
		if entry.RecordID == recordID {
			matches = append(matches, cloneEntry(entry))
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Timestamp.Equal(matches[j].Timestamp) {
			return matches[i].Sequence < matches[j].Sequence
		}
		return matches[i].Timestamp.Before(matches[j].Timestamp)
	})
	return matches, nil
}

func (s *memoryRecordStore) matchingRecords(userID uuid.UUID, query dtos.ListRecordsQuery) []*entities.HealthRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	var matches []*entities.HealthRecord
	for _, record := range s.records {
		if record.UserID != userID {
			continue
		}
		if query.RecordType != nil && record.RecordType != *query.RecordType {
			continue
		}
		if !query.IncludeDeleted && record.IsDeleted {
			continue
		}
		matches = append(matches, cloneRecord(record))
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].UpdatedAt.After(matches[j].UpdatedAt) })
	return matches
}

func cloneRecord(record *entities.HealthRecord) *entities.HealthRecord {
	clone := *record
	clone.Data = append([]byte(nil), record.Data...)
	if record.DeletedAt != nil {
		t := *record.DeletedAt
		clone.DeletedAt = &t
	}
	if record.ConflictResolvedAt != nil {
		t := *record.ConflictResolvedAt
		clone.ConflictResolvedAt = &t
	}
	return &clone
}

func cloneEntry(entry *entities.AuditEntry) *entities.AuditEntry {
	clone := *entry
	clone.Data = append([]byte(nil), entry.Data...)
	return &clone
}
