// Package mirror keeps a client-local durable copy of the server's patient
// list so front ends keep working while disconnected.
package mirror

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/alsayerclinic/clinic-api/model"
)

// File names under the store directory, one blob each: the mirrored patient
// list and the pending-action queue.
const (
	patientsFile = "patients_cache.json"
	pendingFile  = "pending_sync.json"
)

// PendingAction records a write attempted while disconnected.
type PendingAction struct {
	Type      string          `json:"type"` // create, update or delete
	PatientID string          `json:"patient_id,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// Store persists the mirror across process restarts. Missing or corrupt
// content reads as an empty list, never an error.
type Store struct {
	dir string
	mu  sync.Mutex
}

// NewStore opens (creating if needed) a mirror directory.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Store{dir: dir}, nil
}

// Patients returns the mirrored list in stored order.
func (s *Store) Patients() []model.Patient {
	s.mu.Lock()
	defer s.mu.Unlock()

	var patients []model.Patient
	s.readBlob(patientsFile, &patients)
	return patients
}

// SetPatients overwrites the mirrored list.
func (s *Store) SetPatients(patients []model.Patient) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeBlob(patientsFile, patients)
}

// UpsertPatient replaces the entry with a matching id, or appends.
func (s *Store) UpsertPatient(patient model.Patient) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var patients []model.Patient
	s.readBlob(patientsFile, &patients)

	replaced := false
	for i := range patients {
		if patients[i].ID == patient.ID {
			patients[i] = patient
			replaced = true
			break
		}
	}
	if !replaced {
		patients = append(patients, patient)
	}
	return s.writeBlob(patientsFile, patients)
}

// RemovePatient drops the entry with a matching id, if present.
func (s *Store) RemovePatient(patientID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var patients []model.Patient
	s.readBlob(patientsFile, &patients)

	filtered := patients[:0]
	for _, p := range patients {
		if p.ID != patientID {
			filtered = append(filtered, p)
		}
	}
	return s.writeBlob(patientsFile, filtered)
}

// PendingActions returns the queued offline writes in append order.
func (s *Store) PendingActions() []PendingAction {
	s.mu.Lock()
	defer s.mu.Unlock()

	var pending []PendingAction
	s.readBlob(pendingFile, &pending)
	return pending
}

// AppendPendingAction records one offline write, stamping it now.
func (s *Store) AppendPendingAction(action PendingAction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var pending []PendingAction
	s.readBlob(pendingFile, &pending)

	if action.Timestamp.IsZero() {
		action.Timestamp = time.Now()
	}
	pending = append(pending, action)
	return s.writeBlob(pendingFile, pending)
}

// ClearPendingActions empties the queue.
func (s *Store) ClearPendingActions() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := os.Remove(filepath.Join(s.dir, pendingFile))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// readBlob decodes a stored blob into out. Missing files and undecodable
// content both leave out at its zero value.
func (s *Store) readBlob(name string, out interface{}) {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		return
	}
	// Corrupt mirror content degrades to empty rather than failing hard.
	if !json.Valid(data) {
		return
	}
	_ = json.Unmarshal(data, out)
}

func (s *Store) writeBlob(name string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(s.dir, name), data, 0o644)
}
