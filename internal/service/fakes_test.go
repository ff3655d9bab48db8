package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/templui/goalsetter/internal/model"
	"github.com/templui/goalsetter/internal/repository"
)

var testNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

// fakeGoalRepository keeps copies so callers can never mutate stored goals
// without going through Update.
type fakeGoalRepository struct {
	mu      sync.Mutex
	goals   map[string]*model.Goal
	failing error
}

func newFakeGoalRepository(goals ...*model.Goal) *fakeGoalRepository {
	r := &fakeGoalRepository{goals: map[string]*model.Goal{}}
	for _, g := range goals {
		r.goals[g.ID] = cloneGoal(g)
	}
	return r
}

func (r *fakeGoalRepository) Create(_ context.Context, goal *model.Goal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failing != nil {
		return r.failing
	}
	r.goals[goal.ID] = cloneGoal(goal)
	return nil
}

func (r *fakeGoalRepository) ByID(_ context.Context, goalID string) (*model.Goal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failing != nil {
		return nil, r.failing
	}
	g, ok := r.goals[goalID]
	if !ok {
		return nil, repository.ErrGoalNotFound
	}
	return cloneGoal(g), nil
}

func (r *fakeGoalRepository) Goals(_ context.Context, userID string, filter model.GoalFilter) ([]*model.Goal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failing != nil {
		return nil, r.failing
	}
	var goals []*model.Goal
	for _, g := range r.goals {
		if g.UserID != userID {
			continue
		}
		if filter.Category != "" && g.Category != filter.Category {
			continue
		}
		if filter.Priority != "" && g.Priority != filter.Priority {
			continue
		}
		if filter.Status != "" && g.Status != filter.Status {
			continue
		}
		goals = append(goals, cloneGoal(g))
	}
	sort.Slice(goals, func(i, j int) bool {
		if goals[i].Priority.Rank() != goals[j].Priority.Rank() {
			return goals[i].Priority.Rank() > goals[j].Priority.Rank()
		}
		return goals[i].EndDate.Before(goals[j].EndDate)
	})
	return goals, nil
}

func (r *fakeGoalRepository) Update(_ context.Context, goal *model.Goal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failing != nil {
		return r.failing
	}
	stored, ok := r.goals[goal.ID]
	if !ok || stored.UserID != goal.UserID {
		return repository.ErrGoalNotFound
	}
	if stored.Version != goal.Version {
		return repository.ErrVersionConflict
	}
	goal.Version++
	r.goals[goal.ID] = cloneGoal(goal)
	return nil
}

func (r *fakeGoalRepository) Delete(_ context.Context, userID, goalID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failing != nil {
		return r.failing
	}
	g, ok := r.goals[goalID]
	if !ok || g.UserID != userID {
		return repository.ErrGoalNotFound
	}
	delete(r.goals, goalID)
	return nil
}

func (r *fakeGoalRepository) LegacyGoals(_ context.Context) ([]*model.Goal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var goals []*model.Goal
	for _, g := range r.goals {
		if g.IsLegacy() {
			goals = append(goals, cloneGoal(g))
		}
	}
	sort.Slice(goals, func(i, j int) bool { return goals[i].ID < goals[j].ID })
	return goals, nil
}

// bumpVersion simulates another writer saving the goal in between.
func (r *fakeGoalRepository) bumpVersion(goalID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.goals[goalID].Version++
}

func (r *fakeGoalRepository) stored(goalID string) *model.Goal {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.goals[goalID]
	if !ok {
		return nil
	}
	return cloneGoal(g)
}

func cloneGoal(g *model.Goal) *model.Goal {
	c := *g
	c.Milestones = append([]model.Milestone{}, g.Milestones...)
	return &c
}

type fakeStorage struct {
	objects    map[string][]byte
	types      map[string]string
	presignErr error
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: map[string][]byte{}, types: map[string]string{}}
}

func (s *fakeStorage) Save(_ context.Context, key string, body io.Reader, contentType string) error {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, body); err != nil {
		return err
	}
	s.objects[key] = buf.Bytes()
	s.types[key] = contentType
	return nil
}

func (s *fakeStorage) Delete(_ context.Context, key string) error {
	if _, ok := s.objects[key]; !ok {
		return errors.New("no such key")
	}
	delete(s.objects, key)
	return nil
}

func (s *fakeStorage) PresignedURL(_ context.Context, key string) (string, error) {
	if s.presignErr != nil {
		return "", s.presignErr
	}
	return fmt.Sprintf("https://storage.test/%s?signature=abc", key), nil
}

func sequentialIDs(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

func newTestGoalService(repo repository.GoalRepository) *GoalService {
	s := NewGoalService(repo, nil)
	s.now = func() time.Time { return testNow }
	s.newID = sequentialIDs("id")
	return s
}

func storedGoal(id, owner string, milestones int) *model.Goal {
	g := &model.Goal{
		ID:                  id,
		UserID:              owner,
		Title:               "Run a marathon",
		ShortDescription:    "Finish a full marathon",
		Category:            model.CategoryHealth,
		Priority:            model.PriorityHigh,
		StartDate:           testNow,
		EndDate:             testNow.AddDate(0, 6, 0),
		DeadlineFlexibility: model.FlexibilitySoft,
		Status:              model.GoalStatusNotStarted,
		Milestones:          []model.Milestone{},
		Version:             1,
		CreatedAt:           testNow.Add(-time.Hour),
		UpdatedAt:           testNow.Add(-time.Hour),
	}
	for i := 0; i < milestones; i++ {
		g.Milestones = append(g.Milestones, model.Milestone{
			ID:        fmt.Sprintf("m%d", i+1),
			Title:     fmt.Sprintf("step %d", i+1),
			CreatedAt: g.CreatedAt,
			UpdatedAt: g.CreatedAt,
		})
	}
	return g
}
