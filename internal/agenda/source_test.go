package agenda

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/wolfman30/clinic-agenda/internal/settings"
)

// memSource is an in-memory settings.Source with failure and blocking hooks.
type memSource struct {
	mu      sync.Mutex
	records map[string]settings.Setting // id -> record
	nextID  int

	listErr   error
	writeErr  map[string]error // key -> error
	listCalls atomic.Int32
	creates   atomic.Int32
	updates   atomic.Int32

	// writeStarted receives once per write; writeRelease gates completion.
	writeStarted chan struct{}
	writeRelease chan struct{}
}

func newMemSource() *memSource {
	return &memSource{
		records:  map[string]settings.Setting{},
		writeErr: map[string]error{},
	}
}

func (m *memSource) seed(clinicID, key, value string, typ settings.ValueType) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	id := fmt.Sprintf("s%d", m.nextID)
	m.records[id] = settings.Setting{ID: id, ClinicID: clinicID, Key: key, Value: value, Type: typ}
	return id
}

func (m *memSource) ListByClinic(ctx context.Context, clinicID string) ([]settings.Setting, error) {
	m.listCalls.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.listErr != nil {
		return nil, m.listErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []settings.Setting
	for _, rec := range m.records {
		if rec.ClinicID == clinicID {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (m *memSource) gate(key string) error {
	if m.writeStarted != nil {
		m.writeStarted <- struct{}{}
	}
	if m.writeRelease != nil {
		<-m.writeRelease
	}
	return m.writeErr[key]
}

func (m *memSource) Update(ctx context.Context, id string, s settings.Setting) (settings.Setting, error) {
	m.updates.Add(1)
	if err := m.gate(s.Key); err != nil {
		return settings.Setting{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[id]; !ok {
		return settings.Setting{}, settings.ErrNotFound
	}
	s.ID = id
	m.records[id] = s
	return s, nil
}

func (m *memSource) Create(ctx context.Context, s settings.Setting) (settings.Setting, error) {
	m.creates.Add(1)
	if err := m.gate(s.Key); err != nil {
		return settings.Setting{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	s.ID = fmt.Sprintf("s%d", m.nextID)
	m.records[s.ID] = s
	return s, nil
}

func (m *memSource) value(clinicID, key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rec := range m.records {
		if rec.ClinicID == clinicID && rec.Key == key {
			return rec.Value, true
		}
	}
	return "", false
}

var errBackendDown = errors.New("backend down")
