package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	ds "github.com/ipfs/go-datastore"
	dsq "github.com/ipfs/go-datastore/query"

	"github.com/certforge/certmint/types"
)

var (
	recordPrefix = "r"
	metaPrefix   = "m"
)

// ErrNotFound is returned when no issuance record exists for an item.
var ErrNotFound = errors.New("issuance record not found")

// IssuanceRecord captures the outcome of one issuance attempt for an item.
// Records live only as long as the process; the backing datastore is
// in-memory because issuance history deliberately does not survive a
// session.
type IssuanceRecord struct {
	ItemID      string              `json:"itemId"`
	BatchID     string              `json:"batchId"`
	TxHash      string              `json:"txHash,omitempty"`
	Status      types.DisplayStatus `json:"status"`
	Error       string              `json:"error,omitempty"`
	SubmittedAt time.Time           `json:"submittedAt,omitempty"`
	ResolvedAt  time.Time           `json:"resolvedAt,omitempty"`
}

// Store persists issuance records and small metadata values.
type Store interface {
	// PutRecord stores the record for record.ItemID, replacing any previous one.
	PutRecord(ctx context.Context, record IssuanceRecord) error

	// GetRecord returns the record for an item, or ErrNotFound.
	GetRecord(ctx context.Context, itemID string) (IssuanceRecord, error)

	// Records returns all stored records.
	Records(ctx context.Context) ([]IssuanceRecord, error)

	// SetMetadata stores an arbitrary metadata value under key.
	SetMetadata(ctx context.Context, key string, value []byte) error

	// GetMetadata returns the metadata value stored under key, or ErrNotFound.
	GetMetadata(ctx context.Context, key string) ([]byte, error)

	// Close safely closes the underlying datastore.
	Close() error
}

// DefaultStore is a default store implementation over a go-datastore.
type DefaultStore struct {
	db ds.Batching
}

var _ Store = (*DefaultStore)(nil)

// New returns a new default store backed by the given datastore.
func New(db ds.Batching) *DefaultStore {
	return &DefaultStore{db: db}
}

// NewInMemory returns a store backed by an in-memory map datastore.
func NewInMemory() *DefaultStore {
	return New(ds.NewMapDatastore())
}

// Close safely closes the underlying datastore.
func (s *DefaultStore) Close() error {
	return s.db.Close()
}

// PutRecord stores the record for record.ItemID, replacing any previous one.
func (s *DefaultStore) PutRecord(ctx context.Context, record IssuanceRecord) error {
	blob, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal issuance record: %w", err)
	}
	return s.db.Put(ctx, ds.NewKey(getRecordKey(record.ItemID)), blob)
}

// GetRecord returns the record for an item, or ErrNotFound.
func (s *DefaultStore) GetRecord(ctx context.Context, itemID string) (IssuanceRecord, error) {
	blob, err := s.db.Get(ctx, ds.NewKey(getRecordKey(itemID)))
	if errors.Is(err, ds.ErrNotFound) {
		return IssuanceRecord{}, ErrNotFound
	}
	if err != nil {
		return IssuanceRecord{}, fmt.Errorf("failed to load issuance record: %w", err)
	}
	var record IssuanceRecord
	if err := json.Unmarshal(blob, &record); err != nil {
		return IssuanceRecord{}, fmt.Errorf("failed to unmarshal issuance record: %w", err)
	}
	return record, nil
}

// Records returns all stored records.
func (s *DefaultStore) Records(ctx context.Context) ([]IssuanceRecord, error) {
	results, err := s.db.Query(ctx, dsq.Query{Prefix: "/" + recordPrefix})
	if err != nil {
		return nil, fmt.Errorf("failed to query issuance records: %w", err)
	}
	defer results.Close()

	var records []IssuanceRecord
	for result := range results.Next() {
		if result.Error != nil {
			return nil, result.Error
		}
		var record IssuanceRecord
		if err := json.Unmarshal(result.Value, &record); err != nil {
			return nil, fmt.Errorf("failed to unmarshal issuance record: %w", err)
		}
		records = append(records, record)
	}
	return records, nil
}

// SetMetadata stores an arbitrary metadata value under key.
func (s *DefaultStore) SetMetadata(ctx context.Context, key string, value []byte) error {
	return s.db.Put(ctx, ds.NewKey(getMetaKey(key)), value)
}

// GetMetadata returns the metadata value stored under key, or ErrNotFound.
func (s *DefaultStore) GetMetadata(ctx context.Context, key string) ([]byte, error) {
	value, err := s.db.Get(ctx, ds.NewKey(getMetaKey(key)))
	if errors.Is(err, ds.ErrNotFound) {
		return nil, ErrNotFound
	}
	return value, err
}

func getRecordKey(itemID string) string {
	return recordPrefix + "/" + itemID
}

func getMetaKey(key string) string {
	return metaPrefix + "/" + key
}
