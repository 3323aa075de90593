// Package jobs tracks asynchronous banner generation jobs in memory.
package jobs

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a job id is unknown.
var ErrNotFound = errors.New("jobs: not found")

// Status is a job lifecycle state. Transitions are monotonic:
// pending -> processing -> completed or failed.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

func (s Status) terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Progress describes the step a processing job is currently on.
type Progress struct {
	Step    string `json:"step"`
	Percent int    `json:"progress"`
}

// Image is one generated banner inside a job result.
type Image struct {
	AspectRatio string `json:"aspect_ratio"`
	Path        string `json:"path"`
	URL         string `json:"url"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
}

// Result is the payload of a completed job.
type Result struct {
	BrandName                 string  `json:"brand_name"`
	CampaignMessage           string  `json:"campaign_message"`
	TranslatedCampaignMessage string  `json:"translated_campaign_message"`
	Images                    []Image `json:"images"`
	OutputDir                 string  `json:"output_dir"`
}

// Snapshot is a point-in-time copy of a job safe to hand to callers.
type Snapshot struct {
	ID        string
	Status    Status
	Progress  *Progress
	Result    *Result
	Error     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type entry struct {
	mu        sync.Mutex
	status    Status
	progress  *Progress
	result    *Result
	err       string
	createdAt time.Time
	updatedAt time.Time
}

// Store keeps jobs in memory. It is safe for concurrent use. Jobs are
// never evicted; a restart loses them, which matches the lifetime of the
// generated files being served from local disk.
type Store struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

// NewStore returns an empty job store.
func NewStore() *Store {
	return &Store{entries: make(map[string]*entry)}
}

// Create registers a new pending job and returns its id.
func (s *Store) Create() string {
	id := uuid.NewString()
	now := time.Now().UTC()
	s.mu.Lock()
	s.entries[id] = &entry{status: StatusPending, createdAt: now, updatedAt: now}
	s.mu.Unlock()
	return id
}

func (s *Store) lookup(id string) (*entry, error) {
	s.mu.RLock()
	e, ok := s.entries[id]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return e, nil
}

// Get returns a snapshot of the job, or ErrNotFound.
func (s *Store) Get(id string) (Snapshot, error) {
	e, err := s.lookup(id)
	if err != nil {
		return Snapshot{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked(id), nil
}

// Start moves a pending job to processing.
func (s *Store) Start(id string) error {
	e, err := s.lookup(id)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.status != StatusPending {
		return fmt.Errorf("jobs: cannot start job %s in status %s", id, e.status)
	}
	e.status = StatusProcessing
	e.progress = &Progress{Step: "Initializing", Percent: 0}
	e.updatedAt = time.Now().UTC()
	return nil
}

// SetProgress overwrites the progress of a processing job. Progress on a
// terminal job is silently dropped so a finishing pipeline step cannot
// resurrect a job another goroutine already failed.
func (s *Store) SetProgress(id, step string, percent int) error {
	e, err := s.lookup(id)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.status.terminal() {
		return nil
	}
	e.progress = &Progress{Step: step, Percent: percent}
	e.updatedAt = time.Now().UTC()
	return nil
}

// Complete moves a job to completed and attaches its result.
func (s *Store) Complete(id string, result Result) error {
	e, err := s.lookup(id)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.status != StatusProcessing {
		return fmt.Errorf("jobs: cannot complete job %s in status %s", id, e.status)
	}
	e.status = StatusCompleted
	e.progress = &Progress{Step: "Complete", Percent: 100}
	e.result = &result
	e.updatedAt = time.Now().UTC()
	return nil
}

// Fail moves a job to failed with an error message.
func (s *Store) Fail(id, message string) error {
	e, err := s.lookup(id)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.status != StatusProcessing {
		return fmt.Errorf("jobs: cannot fail job %s in status %s", id, e.status)
	}
	e.status = StatusFailed
	e.err = message
	e.updatedAt = time.Now().UTC()
	return nil
}

func (e *entry) snapshotLocked(id string) Snapshot {
	snap := Snapshot{
		ID:        id,
		Status:    e.status,
		Error:     e.err,
		CreatedAt: e.createdAt,
		UpdatedAt: e.updatedAt,
	}
	if e.progress != nil {
		p := *e.progress
		snap.Progress = &p
	}
	if e.result != nil {
		r := *e.result
		r.Images = append([]Image(nil), e.result.Images...)
		snap.Result = &r
	}
	return snap
}
