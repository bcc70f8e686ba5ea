package repository

import (
	"encoding/json"
	"sync"
	"time"

	"congsync-server/internal/domain"
)

type ContactRepository interface {
	SetEmergency(userID string, emergency json.RawMessage) error
	Find(userID string) (*domain.EmergencyContact, error)
}

// contactRepository stores per-person emergency-contact blocks, keyed by
// user id. The block contents are opaque here.
type contactRepository struct {
	path string
	mu   sync.Mutex
}

func NewContactRepository(path string) ContactRepository {
	return &contactRepository{path: path}
}

func (r *contactRepository) load() (map[string]*domain.EmergencyContact, error) {
	contacts := make(map[string]*domain.EmergencyContact)
	if err := ReadFileJSON(r.path, &contacts); err != nil {
		return nil, err
	}
	return contacts, nil
}

func (r *contactRepository) SetEmergency(userID string, emergency json.RawMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	contacts, err := r.load()
	if err != nil {
		return err
	}
	contacts[userID] = &domain.EmergencyContact{
		UserID:    userID,
		Emergency: emergency,
		UpdatedAt: time.Now(),
	}
	return WriteFileJSON(r.path, contacts)
}

func (r *contactRepository) Find(userID string) (*domain.EmergencyContact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	contacts, err := r.load()
	if err != nil {
		return nil, err
	}
	contact, ok := contacts[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return contact, nil
}
