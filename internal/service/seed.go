package service

import (
	"context"
	"errors"
	"fmt"

	"workplan/internal/domain"
)

type seedActivity struct {
	title  string
	weight float64
	done   bool
}

type seedTask struct {
	title      string
	weight     float64
	activities []seedActivity
}

type seedGoal struct {
	title  string
	weight float64
	tasks  []seedTask
}

var demoPlan = []seedGoal{
	{
		title:  "Improve service reliability",
		weight: 40,
		tasks: []seedTask{
			{title: "Incident review", weight: 15, activities: []seedActivity{
				{title: "Collect postmortems", weight: 5, done: true},
				{title: "Publish findings", weight: 10},
			}},
			{title: "On-call tooling", weight: 25, activities: []seedActivity{
				{title: "Alert routing", weight: 10, done: true},
				{title: "Runbook refresh", weight: 15},
			}},
		},
	},
	{
		title:  "Grow field reporting",
		weight: 30,
		tasks: []seedTask{
			{title: "Regional rollout", weight: 20, activities: []seedActivity{
				{title: "Pilot region", weight: 12, done: true},
				{title: "Second region", weight: 8},
			}},
			{title: "Training", weight: 10},
		},
	},
}

// SeedDemo creates a small demo plan through the regular create paths so that
// budgets and progress roll-ups apply. An already seeded database is left
// untouched.
func (s *Service) SeedDemo(ctx context.Context) error {
	for i, g := range demoPlan {
		goal, err := s.CreateGoal(ctx, GoalInput{Title: g.title, Weight: g.weight})
		if err != nil {
			if i == 0 && errors.Is(err, domain.ErrWeightBudgetExceeded) {
				s.logger.Info("system budget already allocated, skipping seed")
				return nil
			}
			return fmt.Errorf("seed goal %q: %w", g.title, err)
		}
		for _, t := range g.tasks {
			task, err := s.CreateTask(ctx, TaskInput{GoalID: goal.ID, Title: t.title, Weight: t.weight})
			if err != nil {
				return fmt.Errorf("seed task %q: %w", t.title, err)
			}
			for _, a := range t.activities {
				if _, err := s.CreateActivity(ctx, ActivityInput{
					TaskID: task.ID,
					Title:  a.title,
					Weight: a.weight,
					IsDone: a.done,
				}); err != nil {
					return fmt.Errorf("seed activity %q: %w", a.title, err)
				}
			}
		}
	}
	return nil
}
