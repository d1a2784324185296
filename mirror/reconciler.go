package mirror

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/alsayerclinic/clinic-api/model"
)

// ErrOffline is returned for writes attempted while disconnected. The write
// is recorded in the pending queue first, so the caller can tell the user
// the data was kept locally but not saved.
var ErrOffline = errors.New("mirror: offline, write not sent to server")

// PatientService is the server API surface the reconciler needs.
type PatientService interface {
	ListPatients(ctx context.Context) ([]model.Patient, error)
	CreatePatient(ctx context.Context, draft model.Patient) (model.Patient, error)
	UpdatePatient(ctx context.Context, id string, update model.UpdatePatientRequest) (model.Patient, error)
	DeletePatient(ctx context.Context, id string) error
}

// Reconciler routes reads and writes between the server and the local
// mirror. While online, successful server responses overwrite the mirror;
// while offline, reads serve the mirror and writes are refused after being
// queued. The online flag follows an external connectivity signal, there is
// no heartbeat.
type Reconciler struct {
	svc   PatientService
	store *Store

	mu     sync.Mutex
	online bool
}

// NewReconciler starts online; connectivity changes arrive via SetOnline.
func NewReconciler(svc PatientService, store *Store) *Reconciler {
	return &Reconciler{svc: svc, store: store, online: true}
}

// SetOnline records the connectivity state reported by the host environment.
func (r *Reconciler) SetOnline(online bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.online = online
}

// Online reports the last connectivity signal received.
func (r *Reconciler) Online() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.online
}

// Patients returns the patient list. Online, a successful fetch refreshes
// the mirror; a failed fetch (or offline state) serves the mirrored copy.
func (r *Reconciler) Patients(ctx context.Context) []model.Patient {
	if r.Online() {
		patients, err := r.svc.ListPatients(ctx)
		if err == nil {
			_ = r.store.SetPatients(patients)
			return patients
		}
	}
	return r.store.Patients()
}

// CreatePatient forwards the draft to the server and mirrors the stored
// record. Offline, the draft is queued and ErrOffline returned.
func (r *Reconciler) CreatePatient(ctx context.Context, draft model.Patient) (model.Patient, error) {
	if !r.Online() {
		data, _ := json.Marshal(draft)
		_ = r.store.AppendPendingAction(PendingAction{Type: "create", Data: data})
		return model.Patient{}, ErrOffline
	}

	created, err := r.svc.CreatePatient(ctx, draft)
	if err != nil {
		return model.Patient{}, err
	}
	_ = r.store.UpsertPatient(created)
	return created, nil
}

// UpdatePatient forwards a partial update and mirrors the result. Offline,
// the update is queued and ErrOffline returned.
func (r *Reconciler) UpdatePatient(ctx context.Context, id string, update model.UpdatePatientRequest) (model.Patient, error) {
	if !r.Online() {
		data, _ := json.Marshal(update)
		_ = r.store.AppendPendingAction(PendingAction{Type: "update", PatientID: id, Data: data})
		return model.Patient{}, ErrOffline
	}

	updated, err := r.svc.UpdatePatient(ctx, id, update)
	if err != nil {
		return model.Patient{}, err
	}
	_ = r.store.UpsertPatient(updated)
	return updated, nil
}

// DeletePatient forwards the delete and drops the mirror entry. Offline,
// the delete is queued and ErrOffline returned.
func (r *Reconciler) DeletePatient(ctx context.Context, id string) error {
	if !r.Online() {
		_ = r.store.AppendPendingAction(PendingAction{Type: "delete", PatientID: id})
		return ErrOffline
	}

	if err := r.svc.DeletePatient(ctx, id); err != nil {
		return err
	}
	return r.store.RemovePatient(id)
}

// PendingActions exposes the queued offline writes. The queue is recorded
// for the host application to inspect; nothing in this package replays it.
func (r *Reconciler) PendingActions() []PendingAction {
	return r.store.PendingActions()
}

// HasPending reports whether any offline writes are queued.
func (r *Reconciler) HasPending() bool {
	return len(r.store.PendingActions()) > 0
}
