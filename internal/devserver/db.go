package devserver

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"kanban-cli/internal/model"

	_ "modernc.org/sqlite"
)

var ErrNotFound = errors.New("not found")

// DB stores boards in SQLite.
type DB struct {
	sql *sql.DB
}

// Open opens (and migrates) the database at path. ":memory:" keeps everything in one
// in-process connection.
func Open(ctx context.Context, path string) (*DB, error) {
	// modernc.org/sqlite driver name is "sqlite".
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if path == ":memory:" || strings.Contains(path, "mode=memory") {
		db.SetMaxOpenConns(1)
	}
	pragmas := []string{
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
	}
	if path != ":memory:" {
		pragmas = append(pragmas, "PRAGMA journal_mode=WAL;")
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	d := &DB{sql: db}
	if err := d.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return d, nil
}

func (d *DB) Close() error { return d.sql.Close() }

func (d *DB) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS boards (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS columns (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			board_id INTEGER NOT NULL REFERENCES boards(id) ON DELETE CASCADE,
			name TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS tasks (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			column_id INTEGER NOT NULL REFERENCES columns(id) ON DELETE CASCADE,
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			position REAL NOT NULL DEFAULT 0
		);`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_column ON tasks(column_id, position);`,
		`CREATE TABLE IF NOT EXISTS subtasks (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			task_id INTEGER NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
			title TEXT NOT NULL,
			is_completed INTEGER NOT NULL DEFAULT 0
		);`,
	}
	for _, st := range stmts {
		if _, err := d.sql.ExecContext(ctx, st); err != nil {
			return err
		}
	}
	return nil
}

func rowID(id model.ID) (int64, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(id.String()), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: id %q", ErrNotFound, id)
	}
	return n, nil
}

func idOf(n int64) model.ID { return model.ID(strconv.FormatInt(n, 10)) }

func affected(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (d *DB) tx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := d.sql.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// Boards.

func (d *DB) ListBoards(ctx context.Context) ([]model.Board, error) {
	rows, err := d.sql.QueryContext(ctx, `SELECT id, name FROM boards ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Board{}
	for rows.Next() {
		var id int64
		var b model.Board
		if err := rows.Scan(&id, &b.Name); err != nil {
			return nil, err
		}
		b.ID = idOf(id)
		out = append(out, b)
	}
	return out, rows.Err()
}

// GetBoard returns the full tree: columns in creation order, tasks by position.
func (d *DB) GetBoard(ctx context.Context, id model.ID) (model.Board, error) {
	bid, err := rowID(id)
	if err != nil {
		return model.Board{}, err
	}
	var b model.Board
	err = d.sql.QueryRowContext(ctx, `SELECT name FROM boards WHERE id = ?`, bid).Scan(&b.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Board{}, ErrNotFound
	}
	if err != nil {
		return model.Board{}, err
	}
	b.ID = idOf(bid)
	b.Columns = []model.Column{}

	cols, err := d.sql.QueryContext(ctx, `SELECT id, name FROM columns WHERE board_id = ? ORDER BY id`, bid)
	if err != nil {
		return model.Board{}, err
	}
	colIndex := map[int64]int{}
	for cols.Next() {
		var cid int64
		var name string
		if err := cols.Scan(&cid, &name); err != nil {
			cols.Close()
			return model.Board{}, err
		}
		colIndex[cid] = len(b.Columns)
		b.Columns = append(b.Columns, model.Column{ID: idOf(cid), Name: name, BoardID: b.ID, Tasks: []model.Task{}})
	}
	cols.Close()
	if err := cols.Err(); err != nil {
		return model.Board{}, err
	}

	tasks, err := d.sql.QueryContext(ctx, `
		SELECT t.id, t.column_id, t.title, t.description, t.position
		FROM tasks t JOIN columns c ON c.id = t.column_id
		WHERE c.board_id = ? ORDER BY t.position, t.id`, bid)
	if err != nil {
		return model.Board{}, err
	}
	type loc struct{ col, task int }
	taskLoc := map[int64]loc{}
	for tasks.Next() {
		var tid, cid int64
		var t model.Task
		if err := tasks.Scan(&tid, &cid, &t.Title, &t.Description, &t.Position); err != nil {
			tasks.Close()
			return model.Board{}, err
		}
		t.ID, t.ColumnID = idOf(tid), idOf(cid)
		t.Subtasks = []model.Subtask{}
		ci := colIndex[cid]
		taskLoc[tid] = loc{col: ci, task: len(b.Columns[ci].Tasks)}
		b.Columns[ci].Tasks = append(b.Columns[ci].Tasks, t)
	}
	tasks.Close()
	if err := tasks.Err(); err != nil {
		return model.Board{}, err
	}

	subs, err := d.sql.QueryContext(ctx, `
		SELECT s.id, s.task_id, s.title, s.is_completed
		FROM subtasks s JOIN tasks t ON t.id = s.task_id JOIN columns c ON c.id = t.column_id
		WHERE c.board_id = ? ORDER BY s.id`, bid)
	if err != nil {
		return model.Board{}, err
	}
	defer subs.Close()
	for subs.Next() {
		var sid, tid int64
		var s model.Subtask
		if err := subs.Scan(&sid, &tid, &s.Title, &s.IsCompleted); err != nil {
			return model.Board{}, err
		}
		s.ID, s.TaskID = idOf(sid), idOf(tid)
		l := taskLoc[tid]
		t := &b.Columns[l.col].Tasks[l.task]
		t.Subtasks = append(t.Subtasks, s)
	}
	return b, subs.Err()
}

func (d *DB) CreateBoard(ctx context.Context, in model.CreateBoardInput) (model.Board, error) {
	var bid int64
	err := d.tx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `INSERT INTO boards(name) VALUES (?)`, in.Name)
		if err != nil {
			return err
		}
		if bid, err = res.LastInsertId(); err != nil {
			return err
		}
		for _, c := range in.Columns {
			if _, err := tx.ExecContext(ctx, `INSERT INTO columns(board_id, name) VALUES (?, ?)`, bid, c.Name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return model.Board{}, err
	}
	return d.GetBoard(ctx, idOf(bid))
}

func (d *DB) UpdateBoard(ctx context.Context, id model.ID, in model.UpdateBoardInput) (model.Board, error) {
	bid, err := rowID(id)
	if err != nil {
		return model.Board{}, err
	}
	if in.Name != nil {
		if err := affected(d.sql.ExecContext(ctx, `UPDATE boards SET name = ? WHERE id = ?`, *in.Name, bid)); err != nil {
			return model.Board{}, err
		}
	}
	return d.GetBoard(ctx, id)
}

func (d *DB) DeleteBoard(ctx context.Context, id model.ID) error {
	bid, err := rowID(id)
	if err != nil {
		return err
	}
	return affected(d.sql.ExecContext(ctx, `DELETE FROM boards WHERE id = ?`, bid))
}

// Columns.

func (d *DB) column(ctx context.Context, cid int64) (model.Column, error) {
	var c model.Column
	var bid int64
	err := d.sql.QueryRowContext(ctx, `SELECT board_id, name FROM columns WHERE id = ?`, cid).Scan(&bid, &c.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Column{}, ErrNotFound
	}
	c.ID, c.BoardID = idOf(cid), idOf(bid)
	return c, err
}

func (d *DB) CreateColumn(ctx context.Context, in model.CreateColumnInput) (model.Column, error) {
	bid, err := rowID(in.BoardID)
	if err != nil {
		return model.Column{}, err
	}
	res, err := d.sql.ExecContext(ctx, `INSERT INTO columns(board_id, name) SELECT id, ? FROM boards WHERE id = ?`, in.Name, bid)
	if err := affected(res, err); err != nil {
		return model.Column{}, err
	}
	cid, err := res.LastInsertId()
	if err != nil {
		return model.Column{}, err
	}
	return d.column(ctx, cid)
}

func (d *DB) UpdateColumn(ctx context.Context, id model.ID, in model.UpdateColumnInput) (model.Column, error) {
	cid, err := rowID(id)
	if err != nil {
		return model.Column{}, err
	}
	if in.Name != nil {
		if err := affected(d.sql.ExecContext(ctx, `UPDATE columns SET name = ? WHERE id = ?`, *in.Name, cid)); err != nil {
			return model.Column{}, err
		}
	}
	return d.column(ctx, cid)
}

func (d *DB) DeleteColumn(ctx context.Context, id model.ID) error {
	cid, err := rowID(id)
	if err != nil {
		return err
	}
	return affected(d.sql.ExecContext(ctx, `DELETE FROM columns WHERE id = ?`, cid))
}

// Tasks.

func (d *DB) task(ctx context.Context, tid int64) (model.Task, error) {
	var t model.Task
	var cid int64
	err := d.sql.QueryRowContext(ctx, `SELECT column_id, title, description, position FROM tasks WHERE id = ?`, tid).
		Scan(&cid, &t.Title, &t.Description, &t.Position)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Task{}, ErrNotFound
	}
	if err != nil {
		return model.Task{}, err
	}
	t.ID, t.ColumnID = idOf(tid), idOf(cid)
	rows, err := d.sql.QueryContext(ctx, `SELECT id, title, is_completed FROM subtasks WHERE task_id = ? ORDER BY id`, tid)
	if err != nil {
		return model.Task{}, err
	}
	defer rows.Close()
	t.Subtasks = []model.Subtask{}
	for rows.Next() {
		var sid int64
		s := model.Subtask{TaskID: t.ID}
		if err := rows.Scan(&sid, &s.Title, &s.IsCompleted); err != nil {
			return model.Task{}, err
		}
		s.ID = idOf(sid)
		t.Subtasks = append(t.Subtasks, s)
	}
	return t, rows.Err()
}

func (d *DB) CreateTask(ctx context.Context, in model.CreateTaskInput) (model.Task, error) {
	cid, err := rowID(in.ColumnID)
	if err != nil {
		return model.Task{}, err
	}
	var tid int64
	err = d.tx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO tasks(column_id, title, description, position) SELECT id, ?, ?, ? FROM columns WHERE id = ?`,
			in.Title, in.Description, in.Position, cid)
		if err := affected(res, err); err != nil {
			return err
		}
		if tid, err = res.LastInsertId(); err != nil {
			return err
		}
		for _, s := range in.Subtasks {
			if _, err := tx.ExecContext(ctx, `INSERT INTO subtasks(task_id, title, is_completed) VALUES (?, ?, ?)`, tid, s.Title, s.IsCompleted); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return model.Task{}, err
	}
	return d.task(ctx, tid)
}

func (d *DB) UpdateTask(ctx context.Context, id model.ID, in model.UpdateTaskInput) (model.Task, error) {
	tid, err := rowID(id)
	if err != nil {
		return model.Task{}, err
	}
	sets := []string{}
	args := []any{}
	if in.Title != nil {
		sets, args = append(sets, "title = ?"), append(args, *in.Title)
	}
	if in.Description != nil {
		sets, args = append(sets, "description = ?"), append(args, *in.Description)
	}
	if in.ColumnID != nil {
		cid, err := rowID(*in.ColumnID)
		if err != nil {
			return model.Task{}, err
		}
		if _, err := d.column(ctx, cid); err != nil {
			return model.Task{}, err
		}
		sets, args = append(sets, "column_id = ?"), append(args, cid)
	}
	if in.Position != nil {
		sets, args = append(sets, "position = ?"), append(args, *in.Position)
	}
	if len(sets) > 0 {
		args = append(args, tid)
		q := `UPDATE tasks SET ` + strings.Join(sets, ", ") + ` WHERE id = ?`
		if err := affected(d.sql.ExecContext(ctx, q, args...)); err != nil {
			return model.Task{}, err
		}
	}
	return d.task(ctx, tid)
}

func (d *DB) DeleteTask(ctx context.Context, id model.ID) error {
	tid, err := rowID(id)
	if err != nil {
		return err
	}
	return affected(d.sql.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, tid))
}

// Subtasks.

func (d *DB) subtask(ctx context.Context, sid int64) (model.Subtask, error) {
	var s model.Subtask
	var tid int64
	err := d.sql.QueryRowContext(ctx, `SELECT task_id, title, is_completed FROM subtasks WHERE id = ?`, sid).Scan(&tid, &s.Title, &s.IsCompleted)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Subtask{}, ErrNotFound
	}
	s.ID, s.TaskID = idOf(sid), idOf(tid)
	return s, err
}

func (d *DB) CreateSubtask(ctx context.Context, in model.CreateSubtaskInput) (model.Subtask, error) {
	tid, err := rowID(in.TaskID)
	if err != nil {
		return model.Subtask{}, err
	}
	res, err := d.sql.ExecContext(ctx,
		`INSERT INTO subtasks(task_id, title, is_completed) SELECT id, ?, ? FROM tasks WHERE id = ?`,
		in.Title, in.IsCompleted, tid)
	if err := affected(res, err); err != nil {
		return model.Subtask{}, err
	}
	sid, err := res.LastInsertId()
	if err != nil {
		return model.Subtask{}, err
	}
	return d.subtask(ctx, sid)
}

func (d *DB) UpdateSubtask(ctx context.Context, id model.ID, in model.UpdateSubtaskInput) (model.Subtask, error) {
	sid, err := rowID(id)
	if err != nil {
		return model.Subtask{}, err
	}
	if in.Title != nil {
		if err := affected(d.sql.ExecContext(ctx, `UPDATE subtasks SET title = ? WHERE id = ?`, *in.Title, sid)); err != nil {
			return model.Subtask{}, err
		}
	}
	if in.IsCompleted != nil {
		if err := affected(d.sql.ExecContext(ctx, `UPDATE subtasks SET is_completed = ? WHERE id = ?`, *in.IsCompleted, sid)); err != nil {
			return model.Subtask{}, err
		}
	}
	return d.subtask(ctx, sid)
}

func (d *DB) DeleteSubtask(ctx context.Context, id model.ID) error {
	sid, err := rowID(id)
	if err != nil {
		return err
	}
	return affected(d.sql.ExecContext(ctx, `DELETE FROM subtasks WHERE id = ?`, sid))
}
