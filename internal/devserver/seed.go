package devserver

import (
	"context"
	"database/sql"
)

type seedTask struct {
	title, description string
	subtasks           []string
	done               []bool
}

type seedColumn struct {
	name  string
	tasks []seedTask
}

type seedBoard struct {
	name    string
	columns []seedColumn
}

var seedData = []seedBoard{
	{name: "Platform Launch", columns: []seedColumn{
		{name: "Todo", tasks: []seedTask{
			{title: "Build UI for onboarding flow", subtasks: []string{"Sign up page", "Sign in page", "Welcome page"}},
			{title: "Build UI for search", subtasks: []string{"Search page"}},
			{title: "QA and test all major user journeys", description: "Once we feel version one is ready, we need to rigorously test it both internally and externally to identify any major gaps.",
				subtasks: []string{"Internal testing", "External testing"}},
		}},
		{name: "Doing", tasks: []seedTask{
			{title: "Design settings and search pages", subtasks: []string{"Settings - Account page", "Settings - Billing page", "Search page"}, done: []bool{true, true}},
			{title: "Add account management endpoints", subtasks: []string{"Upgrade plan", "Cancel plan", "Update payment method"}, done: []bool{true}},
		}},
		{name: "Done", tasks: []seedTask{
			{title: "Conduct 5 wireframe tests", description: "Ensure the layout continues to make sense and we have strong buy-in from potential users.",
				subtasks: []string{"Complete 5 wireframe prototype tests"}, done: []bool{true}},
		}},
	}},
	{name: "Marketing Plan", columns: []seedColumn{
		{name: "Todo", tasks: []seedTask{
			{title: "Plan Product Hunt launch", subtasks: []string{"Find hunter", "Gather assets", "Draft product page"}},
			{title: "Share on Show HN"},
		}},
		{name: "Doing"},
		{name: "Done"},
	}},
	{name: "Roadmap", columns: []seedColumn{
		{name: "Now", tasks: []seedTask{{title: "Launch version one", subtasks: []string{"Launch privately to our waitlist", "Launch publicly on PH, HN, etc."}}}},
		{name: "Next"},
		{name: "Later"},
	}},
}

// Reset deletes every board and restores the seed data.
func (d *DB) Reset(ctx context.Context) error {
	return d.tx(ctx, func(tx *sql.Tx) error {
		for _, st := range []string{
			`DELETE FROM subtasks`,
			`DELETE FROM tasks`,
			`DELETE FROM columns`,
			`DELETE FROM boards`,
			`DELETE FROM sqlite_sequence`,
		} {
			if _, err := tx.ExecContext(ctx, st); err != nil {
				return err
			}
		}
		return seed(ctx, tx)
	})
}

// SeedIfEmpty seeds a fresh database.
func (d *DB) SeedIfEmpty(ctx context.Context) error {
	var n int
	if err := d.sql.QueryRowContext(ctx, `SELECT COUNT(*) FROM boards`).Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	return d.tx(ctx, func(tx *sql.Tx) error { return seed(ctx, tx) })
}

func seed(ctx context.Context, tx *sql.Tx) error {
	for _, b := range seedData {
		res, err := tx.ExecContext(ctx, `INSERT INTO boards(name) VALUES (?)`, b.name)
		if err != nil {
			return err
		}
		bid, _ := res.LastInsertId()
		for _, c := range b.columns {
			res, err := tx.ExecContext(ctx, `INSERT INTO columns(board_id, name) VALUES (?, ?)`, bid, c.name)
			if err != nil {
				return err
			}
			cid, _ := res.LastInsertId()
			for i, t := range c.tasks {
				pos := float64(i+1) * 10000
				res, err := tx.ExecContext(ctx, `INSERT INTO tasks(column_id, title, description, position) VALUES (?, ?, ?, ?)`,
					cid, t.title, t.description, pos)
				if err != nil {
					return err
				}
				tid, _ := res.LastInsertId()
				for j, s := range t.subtasks {
					done := j < len(t.done) && t.done[j]
					if _, err := tx.ExecContext(ctx, `INSERT INTO subtasks(task_id, title, is_completed) VALUES (?, ?, ?)`, tid, s, done); err != nil {
						return err
					}
				}
			}
		}
	}
	return nil
}
