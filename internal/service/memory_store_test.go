package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/noah-isme/wset-admin-api/internal/models"
	"github.com/noah-isme/wset-admin-api/internal/repository"
	appErrors "github.com/noah-isme/wset-admin-api/pkg/errors"
)

// memoryStore backs the workflow, person, intake and log interfaces with maps.
type memoryStore struct {
	mu         sync.Mutex
	seq        int
	people     map[string]*models.Person
	candidates map[string]*models.WSETCandidate
	workflows  map[string]*models.WorkflowState
	logs       []models.WorkflowLogEntry

	intakeErr error
	listErr   error
	logErr    error

	// racePerson is stored by a simulated concurrent intake just before the next new-person insert.
	racePerson *models.Person
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		people:     map[string]*models.Person{},
		candidates: map[string]*models.WSETCandidate{},
		workflows:  map[string]*models.WorkflowState{},
	}
}

func (m *memoryStore) nextID(prefix string) string {
	m.seq++
	return fmt.Sprintf("%s-%d", prefix, m.seq)
}

func (m *memoryStore) FindByOrderID(_ context.Context, orderID string) (*models.WorkflowState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, wf := range m.workflows {
		if wf.OrderID == orderID {
			clone := *wf
			return &clone, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memoryStore) GetByID(_ context.Context, id string) (*models.WorkflowState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	wf, ok := m.workflows[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *wf
	return &clone, nil
}

func (m *memoryStore) Update(_ context.Context, state *models.WorkflowState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.workflows[state.ID]; !ok {
		return sql.ErrNoRows
	}
	clone := *state
	m.workflows[state.ID] = &clone
	return nil
}

func (m *memoryStore) matching(filter models.WorkflowFilter) []models.WorkflowState {
	out := make([]models.WorkflowState, 0, len(m.workflows))
	for _, wf := range m.workflows {
		if len(filter.Status) > 0 {
			found := false
			for _, s := range filter.Status {
				found = found || wf.Status == s
			}
			if !found {
				continue
			}
		}
		if filter.RequiresReview != nil && wf.RequiresReview != *filter.RequiresReview {
			continue
		}
		if filter.CreatedFrom != nil && wf.CreatedAt.Before(*filter.CreatedFrom) {
			continue
		}
		if filter.CreatedTo != nil && !wf.CreatedAt.Before(*filter.CreatedTo) {
			continue
		}
		out = append(out, *wf)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (m *memoryStore) List(_ context.Context, filter models.WorkflowFilter) ([]models.WorkflowState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := m.matching(filter)
	if filter.Limit > 0 {
		start := filter.Offset
		if start > len(out) {
			start = len(out)
		}
		end := start + filter.Limit
		if end > len(out) {
			end = len(out)
		}
		out = out[start:end]
	}
	return out, nil
}

func (m *memoryStore) Count(_ context.Context, filter models.WorkflowFilter) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return 0, m.listErr
	}
	return len(m.matching(filter)), nil
}

func (m *memoryStore) ListDetailed(ctx context.Context, filter models.WorkflowFilter) ([]models.WorkflowDetail, error) {
	states, err := m.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	details := make([]models.WorkflowDetail, 0, len(states))
	for _, st := range states {
		detail := models.WorkflowDetail{WorkflowState: st}
		if cand, ok := m.candidates[st.CandidateID]; ok {
			c := *cand
			detail.Candidate = &c
			if person, ok := m.people[c.PersonID]; ok {
				p := *person
				detail.Person = &p
			}
		}
		details = append(details, detail)
	}
	return details, nil
}

func (m *memoryStore) FindByEmail(_ context.Context, email string) (*models.Person, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.people {
		if strings.EqualFold(p.Email, email) {
			clone := *p
			return &clone, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memoryStore) FindByID(_ context.Context, id string) (*models.WSETCandidate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	candidate, ok := m.candidates[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *candidate
	return &clone, nil
}

func (m *memoryStore) CreateIntake(_ context.Context, intake *repository.OrderIntake) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.intakeErr != nil {
		return m.intakeErr
	}
	for _, wf := range m.workflows {
		if wf.OrderID == intake.Workflow.OrderID {
			return appErrors.Clone(appErrors.ErrConflict, "workflow exists")
		}
	}
	if intake.NewPerson && m.racePerson != nil {
		m.people[m.racePerson.ID] = m.racePerson
		m.racePerson = nil
		return appErrors.Clone(appErrors.ErrConflict, "person exists")
	}
	if intake.NewPerson {
		intake.Person.ID = m.nextID("person")
		p := *intake.Person
		m.people[p.ID] = &p
	}
	intake.Candidate.ID = m.nextID("cand")
	intake.Candidate.PersonID = intake.Person.ID
	c := *intake.Candidate
	m.candidates[c.ID] = &c
	intake.Workflow.ID = m.nextID("wf")
	intake.Workflow.CandidateID = c.ID
	w := *intake.Workflow
	m.workflows[w.ID] = &w
	return nil
}

// addWorkflow seeds a workflow with its candidate and person.
func (m *memoryStore) addWorkflow(state models.WorkflowState, candidate models.WSETCandidate, person models.Person) *models.WorkflowState {
	m.mu.Lock()
	defer m.mu.Unlock()
	if person.ID == "" {
		person.ID = m.nextID("person")
	}
	m.people[person.ID] = &person
	if candidate.ID == "" {
		candidate.ID = m.nextID("cand")
	}
	candidate.PersonID = person.ID
	m.candidates[candidate.ID] = &candidate
	if state.ID == "" {
		state.ID = m.nextID("wf")
	}
	state.CandidateID = candidate.ID
	m.workflows[state.ID] = &state
	clone := state
	return &clone
}

func (m *memoryStore) Create(_ context.Context, entry *models.WorkflowLogEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.logErr != nil {
		return m.logErr
	}
	if entry.ID == "" {
		entry.ID = m.nextID("log")
	}
	m.logs = append(m.logs, *entry)
	return nil
}

func (m *memoryStore) ListByWorkflow(_ context.Context, workflowStateID string, limit, offset int) ([]models.WorkflowLogEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.WorkflowLogEntry
	for i := len(m.logs) - 1; i >= 0; i-- {
		if m.logs[i].WorkflowStateID == workflowStateID {
			out = append(out, m.logs[i])
		}
	}
	return page(out, limit, offset), nil
}

func (m *memoryStore) CountByWorkflow(_ context.Context, workflowStateID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	for _, entry := range m.logs {
		if entry.WorkflowStateID == workflowStateID {
			total++
		}
	}
	return total, nil
}

func (m *memoryStore) ListRecent(_ context.Context, limit, offset int) ([]models.WorkflowActivity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := make([]models.WorkflowActivity, 0, len(m.logs))
	for i := len(m.logs) - 1; i >= 0; i-- {
		activity := models.WorkflowActivity{WorkflowLogEntry: m.logs[i]}
		if wf, ok := m.workflows[m.logs[i].WorkflowStateID]; ok {
			activity.OrderNumber = wf.OrderNumber
			activity.WorkflowStatus = wf.Status
		}
		out = append(out, activity)
	}
	return page(out, limit, offset), nil
}

func (m *memoryStore) CountAll(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.logs), nil
}

func (m *memoryStore) logsFor(workflowStateID string) []models.WorkflowLogEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.WorkflowLogEntry
	for _, entry := range m.logs {
		if entry.WorkflowStateID == workflowStateID {
			out = append(out, entry)
		}
	}
	return out
}

func (m *memoryStore) counts() (people, candidates, workflows int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.people), len(m.candidates), len(m.workflows)
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

var errStoreDown = errors.New("connection refused")
