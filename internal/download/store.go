package download

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/vmunix/stash/internal/storage"
)

const (
	PendingFile   = "pending_downloads.plist"
	CompletedFile = "completed_downloads.plist"
)

// PendingDownloadInfo is the persisted checkpoint of a started but unfinished download.
type PendingDownloadInfo struct {
	URL        string       `plist:"url" json:"url"`
	Meta       Meta         `plist:"meta" json:"meta"`
	ResumeData []byte       `plist:"resumeData,omitempty" json:"-"`
	Progress   float64      `plist:"progress" json:"progress"`
	CreatedAt  time.Time    `plist:"createdAt" json:"created_at"`
	UpdatedAt  time.Time    `plist:"updatedAt" json:"updated_at"`
	State      PendingState `plist:"state" json:"state"`
}

// DownloadedFileInfo records a finished download moved into the documents directory.
type DownloadedFileInfo struct {
	URL           string    `plist:"url" json:"url"`
	LocalFileName string    `plist:"localFileName" json:"local_file_name"`
	CompletedAt   time.Time `plist:"completedAt" json:"completed_at"`
	Meta          Meta      `plist:"meta" json:"meta"`
}

// PendingStore persists PendingDownloadInfo records keyed by URL in a single file.
// Every mutation rewrites the whole file. It is not safe for concurrent use;
// the Manager runs all calls on its I/O queue.
type PendingStore struct {
	docs *storage.Documents
	log  *slog.Logger
}

// NewPendingStore creates a store backed by PendingFile in docs.
func NewPendingStore(docs *storage.Documents, log *slog.Logger) *PendingStore {
	if log == nil {
		log = slog.Default()
	}
	return &PendingStore{docs: docs, log: log.With("component", "pending_store")}
}

// All returns every record. An absent or unreadable file reads as empty.
func (s *PendingStore) All() []PendingDownloadInfo {
	var records []PendingDownloadInfo
	if _, err := s.docs.LoadPlist(PendingFile, &records); err != nil {
		s.log.Error("reading pending downloads, treating as empty", "error", err)
		return nil
	}
	return records
}

// Get returns the record for url.
func (s *PendingStore) Get(url string) (PendingDownloadInfo, bool) {
	for _, r := range s.All() {
		if r.URL == url {
			return r, true
		}
	}
	return PendingDownloadInfo{}, false
}

// Upsert replaces the record with the same URL or appends a new one.
// An existing record keeps its CreatedAt.
func (s *PendingStore) Upsert(info PendingDownloadInfo) error {
	records := s.All()
	if info.UpdatedAt.IsZero() {
		info.UpdatedAt = time.Now()
	}
	if info.CreatedAt.IsZero() {
		info.CreatedAt = info.UpdatedAt
	}

	replaced := false
	for i, r := range records {
		if r.URL == info.URL {
			info.CreatedAt = r.CreatedAt
			records[i] = info
			replaced = true
			break
		}
	}
	if !replaced {
		records = append(records, info)
	}
	return s.save(records)
}

// Delete removes the record for url. Deleting an unknown url is not an error.
func (s *PendingStore) Delete(url string) error {
	records := s.All()
	kept := records[:0]
	for _, r := range records {
		if r.URL != url {
			kept = append(kept, r)
		}
	}
	if len(kept) == len(records) {
		return nil
	}
	return s.save(kept)
}

// Clear removes every record.
func (s *PendingStore) Clear() error {
	return s.save(nil)
}

// PurgeOlderThan removes records created before now-age and returns how many were removed.
func (s *PendingStore) PurgeOlderThan(age time.Duration, now time.Time) (int, error) {
	cutoff := now.Add(-age)
	records := s.All()
	kept := records[:0]
	for _, r := range records {
		if !r.CreatedAt.Before(cutoff) {
			kept = append(kept, r)
		}
	}
	removed := len(records) - len(kept)
	if removed == 0 {
		return 0, nil
	}
	if err := s.save(kept); err != nil {
		return 0, err
	}
	return removed, nil
}

func (s *PendingStore) save(records []PendingDownloadInfo) error {
	if records == nil {
		records = []PendingDownloadInfo{}
	}
	if err := s.docs.SavePlist(PendingFile, records); err != nil {
		return fmt.Errorf("save pending downloads: %w", err)
	}
	return nil
}

// CompletedStore persists DownloadedFileInfo records in a single file.
// Like PendingStore it is not safe for concurrent use.
type CompletedStore struct {
	docs *storage.Documents
	log  *slog.Logger
}

// NewCompletedStore creates a store backed by CompletedFile in docs.
func NewCompletedStore(docs *storage.Documents, log *slog.Logger) *CompletedStore {
	if log == nil {
		log = slog.Default()
	}
	return &CompletedStore{docs: docs, log: log.With("component", "completed_store")}
}

// All returns every record. An absent or unreadable file reads as empty.
func (s *CompletedStore) All() []DownloadedFileInfo {
	var records []DownloadedFileInfo
	if _, err := s.docs.LoadPlist(CompletedFile, &records); err != nil {
		s.log.Error("reading completed downloads, treating as empty", "error", err)
		return nil
	}
	return records
}

// Append adds info. A record with the same URL is replaced rather than duplicated.
func (s *CompletedStore) Append(info DownloadedFileInfo) error {
	records := s.All()
	kept := records[:0]
	for _, r := range records {
		if r.URL != info.URL {
			kept = append(kept, r)
		}
	}
	return s.save(append(kept, info))
}

// Remove deletes the record for url and returns it.
func (s *CompletedStore) Remove(url string) (DownloadedFileInfo, bool, error) {
	records := s.All()
	var removed DownloadedFileInfo
	found := false
	kept := records[:0]
	for _, r := range records {
		if r.URL == url {
			removed, found = r, true
			continue
		}
		kept = append(kept, r)
	}
	if !found {
		return removed, false, nil
	}
	if err := s.save(kept); err != nil {
		return removed, false, err
	}
	return removed, true, nil
}

func (s *CompletedStore) save(records []DownloadedFileInfo) error {
	if records == nil {
		records = []DownloadedFileInfo{}
	}
	if err := s.docs.SavePlist(CompletedFile, records); err != nil {
		return fmt.Errorf("save completed downloads: %w", err)
	}
	return nil
}
