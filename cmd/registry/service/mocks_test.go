package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/villagereg/landregistry/cmd/registry/models"
	"github.com/villagereg/landregistry/common/config"
	"github.com/villagereg/landregistry/common/derrors"
	"github.com/villagereg/landregistry/common/logger"
)

func testLogger() *logger.Logger {
	return logger.New("error", "text")
}

func testConfig() *config.Config {
	return &config.Config{
		Cache: config.CacheConfig{
			Enabled:    true,
			Backend:    "memory",
			DefaultTTL: time.Minute,
		},
		Ledger: config.LedgerConfig{
			WriteAttempts: 3,
			WriteBackoff:  time.Millisecond,
		},
	}
}

// testPublisher returns a publisher with no sinks; Publish becomes a no-op.
func testPublisher() *EventPublisher {
	return NewEventPublisher(nil, nil, "", testLogger())
}

// MockOwnerStore for testing
type MockOwnerStore struct {
	owners map[uuid.UUID]*models.Owner
}

func NewMockOwnerStore() *MockOwnerStore {
	return &MockOwnerStore{owners: make(map[uuid.UUID]*models.Owner)}
}

func (m *MockOwnerStore) Add(name string) *models.Owner {
	owner := &models.Owner{ID: uuid.New(), FullName: name, CreatedAt: time.Now()}
	m.owners[owner.ID] = owner
	return owner
}

func (m *MockOwnerStore) Create(ctx context.Context, owner *models.Owner) error {
	owner.ID = uuid.New()
	owner.CreatedAt = time.Now()
	m.owners[owner.ID] = owner
	return nil
}

func (m *MockOwnerStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Owner, error) {
	owner, exists := m.owners[id]
	if !exists {
		return nil, derrors.Newf(derrors.KindNotFound, "owner not found: %s", id)
	}
	return owner, nil
}

func (m *MockOwnerStore) List(ctx context.Context) ([]*models.Owner, error) {
	owners := make([]*models.Owner, 0, len(m.owners))
	for _, o := range m.owners {
		owners = append(owners, o)
	}
	return owners, nil
}

func (m *MockOwnerStore) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	_, exists := m.owners[id]
	return exists, nil
}

// MockParcelStore for testing
type MockParcelStore struct {
	parcels   map[uuid.UUID]*models.Parcel
	listCalls int
}

func NewMockParcelStore() *MockParcelStore {
	return &MockParcelStore{parcels: make(map[uuid.UUID]*models.Parcel)}
}

func (m *MockParcelStore) Add(parcel *models.Parcel) {
	if parcel.ID == uuid.Nil {
		parcel.ID = uuid.New()
	}
	m.parcels[parcel.ID] = parcel
}

func (m *MockParcelStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Parcel, error) {
	parcel, exists := m.parcels[id]
	if !exists {
		return nil, derrors.Newf(derrors.KindNotFound, "parcel not found: %s", id)
	}
	return parcel, nil
}

func (m *MockParcelStore) GetWithOwners(ctx context.Context, id uuid.UUID) (*models.ParcelWithOwners, error) {
	parcel, err := m.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &models.ParcelWithOwners{Parcel: *parcel}, nil
}

func (m *MockParcelStore) List(ctx context.Context, search string) ([]*models.ParcelWithOwners, error) {
	m.listCalls++
	parcels := make([]*models.ParcelWithOwners, 0, len(m.parcels))
	for _, p := range m.parcels {
		parcels = append(parcels, &models.ParcelWithOwners{Parcel: *p})
	}
	return parcels, nil
}

// MockTransferReader for testing
type MockTransferReader struct {
	history map[uuid.UUID][]*models.TransferWithOwners
}

func NewMockTransferReader() *MockTransferReader {
	return &MockTransferReader{history: make(map[uuid.UUID][]*models.TransferWithOwners)}
}

func (m *MockTransferReader) ListByParcel(ctx context.Context, parcelID uuid.UUID) ([]*models.TransferWithOwners, error) {
	return m.history[parcelID], nil
}

// MockLedger implements both ledger interfaces. It appends records the way
// the real transactional writes do: nothing is kept on failure or conflict.
type MockLedger struct {
	parcels []*models.Parcel
	records []*models.TransferRecord

	// Remaining calls that fail with a transient store error
	failures int
	// Remaining ExecuteTransfer calls that lose the pointer race
	conflicts int
}

func NewMockLedger() *MockLedger {
	return &MockLedger{}
}

func (m *MockLedger) RegisterParcel(ctx context.Context, parcel *models.Parcel, rec *models.TransferRecord) error {
	if m.failures > 0 {
		m.failures--
		return derrors.New(derrors.KindPersistence, "store unavailable")
	}

	parcel.ID = uuid.New()
	parcel.CreatedAt = time.Now()
	m.parcels = append(m.parcels, parcel)

	if rec != nil {
		rec.ID = uuid.New()
		rec.ParcelID = parcel.ID
		rec.CreatedAt = time.Now()
		m.records = append(m.records, rec)
	}

	return nil
}

func (m *MockLedger) ExecuteTransfer(ctx context.Context, rec *models.TransferRecord, expectedOwner *uuid.UUID) (bool, error) {
	if m.failures > 0 {
		m.failures--
		return false, derrors.New(derrors.KindPersistence, "store unavailable")
	}
	if m.conflicts > 0 {
		m.conflicts--
		return false, nil
	}

	rec.ID = uuid.New()
	rec.CreatedAt = time.Now()
	m.records = append(m.records, rec)
	return true, nil
}

// MockCache is a map-backed cache without expiry
type MockCache struct {
	entries map[string][]byte
}

func NewMockCache() *MockCache {
	return &MockCache{entries: make(map[string][]byte)}
}

func (m *MockCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, exists := m.entries[key]
	return data, exists, nil
}

func (m *MockCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.entries[key] = value
	return nil
}

func (m *MockCache) Delete(ctx context.Context, key string) error {
	delete(m.entries, key)
	return nil
}

func (m *MockCache) Close() error {
	return nil
}
