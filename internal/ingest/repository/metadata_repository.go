package repository

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sync"

	emaildomain "mail-ingest-backend/internal/ingest/domain"

	"github.com/gofrs/flock"
)

// MetadataRepository persists one record per ingested email, keyed on
// email_id.
type MetadataRepository interface {
	// Exists reports whether a record for emailID has already been stored.
	Exists(emailID string) (bool, error)
	// Append stores the record unless one with the same email_id exists.
	// Returns false when the record was skipped as a duplicate.
	Append(record emaildomain.MetadataRecord) (bool, error)
	// List returns all stored records.
	List() ([]emaildomain.MetadataRecord, error)
}

// fileMetadataRepository keeps records as a JSON array in a single shared
// file. Mutations run under a companion flock so concurrent ingestions, and
// other processes, serialize on the read-check-append-rewrite cycle.
type fileMetadataRepository struct {
	path     string
	lockPath string
	mu       sync.Mutex
}

func NewMetadataRepository(path string) MetadataRepository {
	return &fileMetadataRepository{
		path:     path,
		lockPath: path + ".lock",
	}
}

func (r *fileMetadataRepository) Exists(emailID string) (bool, error) {
	records, err := r.List()
	if err != nil {
		return false, err
	}
	for _, rec := range records {
		if rec.EmailID == emailID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fileMetadataRepository) Append(record emaildomain.MetadataRecord) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	fileLock := flock.New(r.lockPath)
	if err := fileLock.Lock(); err != nil {
		return false, fmt.Errorf("lock %s: %w", r.lockPath, err)
	}
	defer fileLock.Unlock()

	records := r.readRecords()
	for _, rec := range records {
		if rec.EmailID == record.EmailID {
			log.Printf("[Metadata] Duplicate email ID %s found. Skipping metadata append.", record.EmailID)
			return false, nil
		}
	}

	records = append(records, record)
	data, err := json.MarshalIndent(records, "", "    ")
	if err != nil {
		return false, fmt.Errorf("marshal metadata: %w", err)
	}
	if err := os.WriteFile(r.path, data, 0o644); err != nil {
		return false, fmt.Errorf("write %s: %w", r.path, err)
	}
	return true, nil
}

func (r *fileMetadataRepository) List() ([]emaildomain.MetadataRecord, error) {
	fileLock := flock.New(r.lockPath)
	if err := fileLock.Lock(); err != nil {
		return nil, fmt.Errorf("lock %s: %w", r.lockPath, err)
	}
	defer fileLock.Unlock()

	return r.readRecords(), nil
}

// readRecords loads the current records. A missing or unparseable file is
// treated as empty rather than an error.
func (r *fileMetadataRepository) readRecords() []emaildomain.MetadataRecord {
	data, err := os.ReadFile(r.path)
	if err != nil {
		return nil
	}

	var records []emaildomain.MetadataRecord
	if err := json.Unmarshal(data, &records); err != nil {
		log.Printf("[Metadata] Could not parse %s, treating as empty: %v", r.path, err)
		return nil
	}
	return records
}
