package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/templui/goalsetter/internal/model"
)

var (
	ErrGoalNotFound    = errors.New("goal not found")
	ErrVersionConflict = errors.New("goal was modified concurrently")
)

type GoalRepository interface {
	Create(ctx context.Context, goal *model.Goal) error
	// ByID is not owner-scoped; ownership is checked by the caller so that
	// "absent" and "not yours" stay distinguishable.
	ByID(ctx context.Context, goalID string) (*model.Goal, error)
	Goals(ctx context.Context, userID string, filter model.GoalFilter) ([]*model.Goal, error)
	// Update writes goal back if its version is unchanged since it was read
	// and bumps goal.Version on success.
	Update(ctx context.Context, goal *model.Goal) error
	Delete(ctx context.Context, userID, goalID string) error
	LegacyGoals(ctx context.Context) ([]*model.Goal, error)
}

type goalRepository struct {
	db *sqlx.DB
}

func NewGoalRepository(db *sqlx.DB) GoalRepository {
	return &goalRepository{db: db}
}

type goalRow struct {
	ID                  string     `db:"id"`
	UserID              string     `db:"user_id"`
	Text                string     `db:"text"`
	Title               string     `db:"title"`
	ShortDescription    string     `db:"short_description"`
	LongDescription     string     `db:"long_description"`
	Category            string     `db:"category"`
	Priority            string     `db:"priority"`
	StartDate           *time.Time `db:"start_date"`
	EndDate             *time.Time `db:"end_date"`
	DeadlineFlexibility string     `db:"deadline_flexibility"`
	Status              string     `db:"status"`
	Progress            int        `db:"progress"`
	SmartSpecific       string     `db:"smart_specific"`
	SmartMeasurable     string     `db:"smart_measurable"`
	SmartAchievable     string     `db:"smart_achievable"`
	SmartRelevant       string     `db:"smart_relevant"`
	SmartTimeBound      string     `db:"smart_time_bound"`
	CompletedAt         *time.Time `db:"completed_at"`
	Version             int        `db:"version"`
	CreatedAt           time.Time  `db:"created_at"`
	UpdatedAt           time.Time  `db:"updated_at"`
}

type milestoneRow struct {
	GoalID      string     `db:"goal_id"`
	ID          string     `db:"id"`
	Position    int        `db:"position"`
	Title       string     `db:"title"`
	Description string     `db:"description"`
	Completed   bool       `db:"completed"`
	DueDate     *time.Time `db:"due_date"`
	CompletedAt *time.Time `db:"completed_at"`
	CreatedAt   time.Time  `db:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at"`
}

const goalColumns = `id, user_id, text, title, short_description, long_description, category, priority,
	start_date, end_date, deadline_flexibility, status, progress,
	smart_specific, smart_measurable, smart_achievable, smart_relevant, smart_time_bound,
	completed_at, version, created_at, updated_at`

func (r *goalRepository) Create(ctx context.Context, goal *model.Goal) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	row := toGoalRow(goal)
	query := `INSERT INTO goals (` + goalColumns + `)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)`

	_, err = tx.ExecContext(ctx, query,
		row.ID,
		row.UserID,
		row.Text,
		row.Title,
		row.ShortDescription,
		row.LongDescription,
		row.Category,
		row.Priority,
		row.StartDate,
		row.EndDate,
		row.DeadlineFlexibility,
		row.Status,
		row.Progress,
		row.SmartSpecific,
		row.SmartMeasurable,
		row.SmartAchievable,
		row.SmartRelevant,
		row.SmartTimeBound,
		row.CompletedAt,
		row.Version,
		row.CreatedAt,
		row.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert goal: %w", err)
	}

	err = insertMilestones(ctx, tx, goal)
	if err != nil {
		return err
	}

	return tx.Commit()
}

func (r *goalRepository) ByID(ctx context.Context, goalID string) (*model.Goal, error) {
	var row goalRow
	query := `SELECT ` + goalColumns + ` FROM goals WHERE id = $1`

	err := r.db.GetContext(ctx, &row, query, goalID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrGoalNotFound
	}
	if err != nil {
		return nil, err
	}

	goals, err := r.withMilestones(ctx, []goalRow{row})
	if err != nil {
		return nil, err
	}
	return goals[0], nil
}

// Goals lists userID's goals matching filter, highest priority first and
// then by the nearest end date.
func (r *goalRepository) Goals(ctx context.Context, userID string, filter model.GoalFilter) ([]*model.Goal, error) {
	conditions := []string{"user_id = $1"}
	args := []any{userID}

	addCondition := func(column, value string) {
		if value == "" {
			return
		}
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	addCondition("category", string(filter.Category))
	addCondition("priority", string(filter.Priority))
	addCondition("status", string(filter.Status))

	query := `SELECT ` + goalColumns + ` FROM goals
	          WHERE ` + strings.Join(conditions, " AND ") + `
	          ORDER BY CASE priority WHEN 'High' THEN 3 WHEN 'Medium' THEN 2 WHEN 'Low' THEN 1 ELSE 0 END DESC,
	                   CASE WHEN end_date IS NULL THEN 1 ELSE 0 END,
	                   end_date ASC,
	                   created_at ASC`

	var rows []goalRow
	err := r.db.SelectContext(ctx, &rows, query, args...)
	if err != nil {
		return nil, err
	}

	return r.withMilestones(ctx, rows)
}

func (r *goalRepository) Update(ctx context.Context, goal *model.Goal) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	row := toGoalRow(goal)
	query := `UPDATE goals
	          SET text = $1, title = $2, short_description = $3, long_description = $4,
	              category = $5, priority = $6, start_date = $7, end_date = $8,
	              deadline_flexibility = $9, status = $10, progress = $11,
	              smart_specific = $12, smart_measurable = $13, smart_achievable = $14,
	              smart_relevant = $15, smart_time_bound = $16,
	              completed_at = $17, updated_at = $18, version = version + 1
	          WHERE id = $19 AND user_id = $20 AND version = $21`

	result, err := tx.ExecContext(ctx, query,
		row.Text,
		row.Title,
		row.ShortDescription,
		row.LongDescription,
		row.Category,
		row.Priority,
		row.StartDate,
		row.EndDate,
		row.DeadlineFlexibility,
		row.Status,
		row.Progress,
		row.SmartSpecific,
		row.SmartMeasurable,
		row.SmartAchievable,
		row.SmartRelevant,
		row.SmartTimeBound,
		row.CompletedAt,
		row.UpdatedAt,
		row.ID,
		row.UserID,
		row.Version,
	)
	if err != nil {
		return fmt.Errorf("update goal: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		var exists int
		err = tx.GetContext(ctx, &exists, `SELECT COUNT(*) FROM goals WHERE id = $1 AND user_id = $2`, goal.ID, goal.UserID)
		if err != nil {
			return err
		}
		if exists == 0 {
			return ErrGoalNotFound
		}
		return ErrVersionConflict
	}

	_, err = tx.ExecContext(ctx, `DELETE FROM goal_milestones WHERE goal_id = $1`, goal.ID)
	if err != nil {
		return fmt.Errorf("clear milestones: %w", err)
	}

	err = insertMilestones(ctx, tx, goal)
	if err != nil {
		return err
	}

	err = tx.Commit()
	if err != nil {
		return err
	}

	goal.Version++
	return nil
}

// Delete removes the goal and every milestone it owns.
func (r *goalRepository) Delete(ctx context.Context, userID, goalID string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`DELETE FROM goal_milestones WHERE goal_id IN (SELECT id FROM goals WHERE id = $1 AND user_id = $2)`,
		goalID, userID)
	if err != nil {
		return fmt.Errorf("delete milestones: %w", err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM goals WHERE id = $1 AND user_id = $2`, goalID, userID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return ErrGoalNotFound
	}

	return tx.Commit()
}

// LegacyGoals returns goals of every owner that still have no title but
// carry the old free-text field.
func (r *goalRepository) LegacyGoals(ctx context.Context) ([]*model.Goal, error) {
	query := `SELECT ` + goalColumns + ` FROM goals
	          WHERE title = '' AND text <> ''
	          ORDER BY created_at ASC`

	var rows []goalRow
	err := r.db.SelectContext(ctx, &rows, query)
	if err != nil {
		return nil, err
	}

	return r.withMilestones(ctx, rows)
}

func insertMilestones(ctx context.Context, tx *sqlx.Tx, goal *model.Goal) error {
	query := `INSERT INTO goal_milestones (goal_id, id, position, title, description, completed, due_date, completed_at, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	for i, m := range goal.Milestones {
		_, err := tx.ExecContext(ctx, query,
			goal.ID,
			m.ID,
			i,
			m.Title,
			m.Description,
			m.Completed,
			utcPtr(m.DueDate),
			utcPtr(m.CompletedAt),
			m.CreatedAt.UTC(),
			m.UpdatedAt.UTC(),
		)
		if err != nil {
			return fmt.Errorf("insert milestone %s: %w", m.ID, err)
		}
	}
	return nil
}

// withMilestones loads the milestones of all rows in one query and
// assembles goals in row order.
func (r *goalRepository) withMilestones(ctx context.Context, rows []goalRow) ([]*model.Goal, error) {
	goals := make([]*model.Goal, len(rows))
	if len(rows) == 0 {
		return goals, nil
	}

	ids := make([]string, len(rows))
	byID := make(map[string]*model.Goal, len(rows))
	for i, row := range rows {
		goals[i] = row.toModel()
		ids[i] = row.ID
		byID[row.ID] = goals[i]
	}

	query, args, err := sqlx.In(`SELECT goal_id, id, position, title, description, completed, due_date, completed_at, created_at, updated_at
	                             FROM goal_milestones WHERE goal_id IN (?) ORDER BY goal_id, position`, ids)
	if err != nil {
		return nil, err
	}

	var milestones []milestoneRow
	err = r.db.SelectContext(ctx, &milestones, r.db.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("load milestones: %w", err)
	}

	for _, m := range milestones {
		goal, ok := byID[m.GoalID]
		if !ok {
			continue
		}
		goal.Milestones = append(goal.Milestones, m.toModel())
	}

	return goals, nil
}

func toGoalRow(g *model.Goal) goalRow {
	return goalRow{
		ID:                  g.ID,
		UserID:              g.UserID,
		Text:                g.Text,
		Title:               g.Title,
		ShortDescription:    g.ShortDescription,
		LongDescription:     g.LongDescription,
		Category:            string(g.Category),
		Priority:            string(g.Priority),
		StartDate:           zeroAsNull(g.StartDate),
		EndDate:             zeroAsNull(g.EndDate),
		DeadlineFlexibility: string(g.DeadlineFlexibility),
		Status:              string(g.Status),
		Progress:            g.Progress,
		SmartSpecific:       g.SmartAttributes.Specific,
		SmartMeasurable:     g.SmartAttributes.Measurable,
		SmartAchievable:     g.SmartAttributes.Achievable,
		SmartRelevant:       g.SmartAttributes.Relevant,
		SmartTimeBound:      g.SmartAttributes.TimeBound,
		CompletedAt:         utcPtr(g.CompletedAt),
		Version:             g.Version,
		CreatedAt:           g.CreatedAt.UTC(),
		UpdatedAt:           g.UpdatedAt.UTC(),
	}
}

func (row goalRow) toModel() *model.Goal {
	g := &model.Goal{
		ID:                  row.ID,
		UserID:              row.UserID,
		Text:                row.Text,
		Title:               row.Title,
		ShortDescription:    row.ShortDescription,
		LongDescription:     row.LongDescription,
		Category:            model.Category(row.Category),
		Priority:            model.Priority(row.Priority),
		DeadlineFlexibility: model.DeadlineFlexibility(row.DeadlineFlexibility),
		Status:              model.GoalStatus(row.Status),
		Progress:            row.Progress,
		Milestones:          []model.Milestone{},
		SmartAttributes: model.SmartAttributes{
			Specific:   row.SmartSpecific,
			Measurable: row.SmartMeasurable,
			Achievable: row.SmartAchievable,
			Relevant:   row.SmartRelevant,
			TimeBound:  row.SmartTimeBound,
		},
		CompletedAt: utcPtr(row.CompletedAt),
		Version:     row.Version,
		CreatedAt:   row.CreatedAt.UTC(),
		UpdatedAt:   row.UpdatedAt.UTC(),
	}
	if row.StartDate != nil {
		g.StartDate = row.StartDate.UTC()
	}
	if row.EndDate != nil {
		g.EndDate = row.EndDate.UTC()
	}
	return g
}

func (row milestoneRow) toModel() model.Milestone {
	return model.Milestone{
		ID:          row.ID,
		Title:       row.Title,
		Description: row.Description,
		Completed:   row.Completed,
		DueDate:     utcPtr(row.DueDate),
		CompletedAt: utcPtr(row.CompletedAt),
		CreatedAt:   row.CreatedAt.UTC(),
		UpdatedAt:   row.UpdatedAt.UTC(),
	}
}

func zeroAsNull(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	t = t.UTC()
	return &t
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
