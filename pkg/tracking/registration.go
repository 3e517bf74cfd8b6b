package tracking

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/travigo/treni/pkg/ctdf"
)

var ErrRegistrationNotFound = errors.New("tracking registration not found")

// Registration is one user's request to follow a run.
type Registration struct {
	ID     string `groups:"basic" yaml:"ID"`
	UserID string `groups:"internal" yaml:"UserID"`

	TrainNumber string                `groups:"basic" yaml:"TrainNumber"`
	Selection   ctdf.SelectionContext `groups:"basic" yaml:"Selection"`
	TrackingKey string                `groups:"basic" yaml:"TrackingKey"`

	Target *ctdf.TrackedTarget `groups:"basic" yaml:"Target"`

	// Optional expression filtering which events are delivered
	Condition string `groups:"basic" yaml:"Condition"`
	Locale    string `groups:"basic" yaml:"Locale"`

	CreationDateTime time.Time `groups:"basic" yaml:"-"`
	ExpiresAt        time.Time `groups:"basic" yaml:"-"`
}

// Normalise fills the derived fields of a registration.
func (r *Registration) Normalise(now time.Time) error {
	r.TrainNumber = strings.TrimSpace(r.TrainNumber)
	if r.TrainNumber == "" && r.Selection.TechnicalID != "" {
		r.TrainNumber, _, _ = ctdf.ParseTechnicalID(r.Selection.TechnicalID)
	}
	if r.TrainNumber == "" {
		return errors.New("registration has no train number")
	}

	if r.Condition != "" {
		if _, err := CompileCondition(r.Condition); err != nil {
			return err
		}
	}

	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	r.TrackingKey = ctdf.TrackingKey(r.TrainNumber, r.Selection)

	if r.CreationDateTime.IsZero() {
		r.CreationDateTime = now
	}
	if r.ExpiresAt.IsZero() {
		r.ExpiresAt = now.Add(36 * time.Hour)
	}

	return nil
}

// StateKey is where the registration's TrackedTrainState is stored. Users
// following the same run keep separate states so their targets and
// reminders never mix.
func (r *Registration) StateKey() string {
	return r.TrackingKey + "#" + r.ID
}

func (r *Registration) IsExpired(now time.Time) bool {
	return !r.ExpiresAt.IsZero() && now.After(r.ExpiresAt)
}

// Registry stores tracking registrations.
type Registry interface {
	All(ctx context.Context) ([]*Registration, error)
	ForUser(ctx context.Context, userID string) ([]*Registration, error)
	Get(ctx context.Context, id string) (*Registration, error)
	Put(ctx context.Context, registration *Registration) error
	Delete(ctx context.Context, id string) error
}

// Subjects groups registrations by tracking key, so each run is polled
// once whatever the number of users following it.
func Subjects(registrations []*Registration) map[string][]*Registration {
	subjects := map[string][]*Registration{}
	for _, registration := range registrations {
		subjects[registration.TrackingKey] = append(subjects[registration.TrackingKey], registration)
	}

	return subjects
}

type MemoryRegistry struct {
	mutex         sync.RWMutex
	registrations map[string]*Registration
}

func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{
		registrations: map[string]*Registration{},
	}
}

func (m *MemoryRegistry) All(_ context.Context) ([]*Registration, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	var registrations []*Registration
	for _, registration := range m.registrations {
		copied := *registration
		registrations = append(registrations, &copied)
	}

	sort.Slice(registrations, func(i, j int) bool {
		return registrations[i].ID < registrations[j].ID
	})

	return registrations, nil
}

func (m *MemoryRegistry) ForUser(ctx context.Context, userID string) ([]*Registration, error) {
	all, _ := m.All(ctx)

	var registrations []*Registration
	for _, registration := range all {
		if registration.UserID == userID {
			registrations = append(registrations, registration)
		}
	}

	return registrations, nil
}

func (m *MemoryRegistry) Get(_ context.Context, id string) (*Registration, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	registration, exists := m.registrations[id]
	if !exists {
		return nil, ErrRegistrationNotFound
	}

	copied := *registration
	return &copied, nil
}

func (m *MemoryRegistry) Put(_ context.Context, registration *Registration) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	copied := *registration
	m.registrations[registration.ID] = &copied

	return nil
}

func (m *MemoryRegistry) Delete(_ context.Context, id string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if _, exists := m.registrations[id]; !exists {
		return ErrRegistrationNotFound
	}

	delete(m.registrations, id)

	return nil
}
