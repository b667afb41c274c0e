package bridge

import (
	"context"
	"fmt"
	"strings"

	"kanban-cli/internal/model"
	"kanban-cli/internal/mutate"
)

// Boards.

func (b *Bridge) getBoards(ctx context.Context, _ Args, _ Context) (Result, error) {
	bs, err := b.ops.LoadBoards(ctx)
	if err != nil {
		return Result{}, err
	}
	return ok("Available boards: " + strings.Join(boardNames(bs), ", ")), nil
}

func (b *Bridge) getBoardDetails(ctx context.Context, args Args, _ Context) (Result, error) {
	name := args.String("board_name")
	if name == "" {
		return Result{}, errRequired("board_name")
	}
	bs, err := b.ops.LoadBoards(ctx)
	if err != nil {
		return Result{}, err
	}
	target, found := findBoard(bs, name)
	if !found {
		return fail(fmt.Sprintf("Board '%s' not found.", name) + didYouMean(name, boardNames(bs))), nil
	}
	b.nav.OpenBoard(target.ID, target.Name)
	return ok("Switched to board: " + target.Name), nil
}

func (b *Bridge) createBoard(ctx context.Context, args Args, _ Context) (Result, error) {
	name := args.String("name")
	if name == "" {
		return Result{}, errRequired("name")
	}
	cols, err := args.StringList("columns")
	if err != nil {
		return Result{}, err
	}
	if _, err := b.ops.LoadBoards(ctx); err != nil {
		return Result{}, err
	}
	op, err := b.ops.CreateBoard(name, cols)
	if err != nil {
		return Result{}, err
	}
	if err := op.Wait(ctx); err != nil {
		return Result{}, err
	}
	b.refreshBoards(ctx)
	return ok(fmt.Sprintf("Board '%s' created.", name)), nil
}

func (b *Bridge) updateBoard(ctx context.Context, args Args, bc Context) (Result, error) {
	current := args.String("current_name")
	if current == "" {
		return Result{}, errRequired("current_name")
	}
	bs, err := b.ops.LoadBoards(ctx)
	if err != nil {
		return Result{}, err
	}
	target, found := findBoard(bs, current)
	if !found {
		return fail(fmt.Sprintf("Board '%s' not found.", current) + didYouMean(current, boardNames(bs))), nil
	}
	if newName := args.String("new_name"); newName != "" {
		op, err := b.ops.RenameBoard(target.ID, newName)
		if err != nil {
			return Result{}, err
		}
		if err := op.Wait(ctx); err != nil {
			return Result{}, err
		}
		b.refreshBoards(ctx)
		if bc.BoardID == target.ID {
			b.refresh(ctx, target.ID)
		}
	}
	return ok(fmt.Sprintf("Board '%s' updated.", current)), nil
}

func (b *Bridge) deleteBoard(ctx context.Context, args Args, bc Context) (Result, error) {
	name := args.String("board_name")
	if name == "" {
		return Result{}, errRequired("board_name")
	}
	bs, err := b.ops.LoadBoards(ctx)
	if err != nil {
		return Result{}, err
	}
	target, found := findBoard(bs, name)
	if !found {
		return fail(fmt.Sprintf("Board '%s' not found.", name) + didYouMean(name, boardNames(bs))), nil
	}
	op, err := b.ops.DeleteBoard(target.ID)
	if err != nil {
		return Result{}, err
	}
	if err := op.Wait(ctx); err != nil {
		return Result{}, err
	}
	b.refreshBoards(ctx)
	if bc.BoardID == target.ID {
		b.nav.Home()
	}
	return ok(fmt.Sprintf("Board '%s' deleted.", name)), nil
}

// Tasks.

func (b *Bridge) createTask(ctx context.Context, args Args, bc Context) (Result, error) {
	title, colName := args.String("title"), args.String("column_name")
	if title == "" || colName == "" {
		return Result{}, errRequired("title", "column_name")
	}
	board, found, err := b.activeBoard(ctx, bc)
	if err != nil {
		return Result{}, err
	}
	if !found {
		return fail("No active board to create task in."), nil
	}
	col, found := findColumn(board, colName)
	if !found {
		return fail(fmt.Sprintf("Column '%s' not found in this board.", colName) + didYouMean(colName, columnNames(board))), nil
	}
	subs, err := args.StringList("subtasks")
	if err != nil {
		return Result{}, err
	}
	in := model.CreateTaskInput{Title: title, Description: args.String("description"), ColumnID: col.ID}
	for _, s := range subs {
		in.Subtasks = append(in.Subtasks, model.NewSubtask{Title: s})
	}
	op, err := b.ops.CreateTask(bc.BoardID, in, mutate.PlaceTop)
	if err != nil {
		return Result{}, err
	}
	if err := op.Wait(ctx); err != nil {
		return Result{}, err
	}
	b.refresh(ctx, bc.BoardID)
	b.highlight(op.CreatedID())
	return ok(fmt.Sprintf("Task '%s' created in '%s'.", title, colName)), nil
}

func (b *Bridge) updateTask(ctx context.Context, args Args, bc Context) (Result, error) {
	current := args.String("current_task_title")
	if current == "" {
		return Result{}, errRequired("current_task_title")
	}
	board, _, err := b.activeBoard(ctx, bc)
	if err != nil {
		return Result{}, err
	}
	task, found := findTask(board, current)
	if !found {
		return fail(fmt.Sprintf("Task '%s' not found on this board.", current) + didYouMean(current, taskTitles(board))), nil
	}
	var ch mutate.TaskChanges
	if s := args.String("new_title"); s != "" {
		ch.Title = &s
	}
	if s := args.String("new_description"); s != "" {
		ch.Description = &s
	}
	if target := args.String("target_column_name"); target != "" {
		col, found := findColumn(board, target)
		if !found {
			return fail(fmt.Sprintf("Target column '%s' not found.", target) + didYouMean(target, columnNames(board))), nil
		}
		id := col.ID
		ch.ColumnID = &id
	}
	op, err := b.ops.UpdateTask(bc.BoardID, task.ID, ch)
	if err != nil {
		return Result{}, err
	}
	if err := op.Wait(ctx); err != nil {
		return Result{}, err
	}
	if !op.Noop {
		b.refresh(ctx, bc.BoardID)
	}
	b.highlight(task.ID)
	return ok(fmt.Sprintf("Task '%s' updated.", current)), nil
}

func (b *Bridge) deleteTask(ctx context.Context, args Args, bc Context) (Result, error) {
	title := args.String("task_title")
	if title == "" {
		return Result{}, errRequired("task_title")
	}
	board, _, err := b.activeBoard(ctx, bc)
	if err != nil {
		return Result{}, err
	}
	task, found := findTask(board, title)
	if !found {
		return fail(fmt.Sprintf("Task '%s' not found on this board.", title) + didYouMean(title, taskTitles(board))), nil
	}
	op, err := b.ops.DeleteTask(bc.BoardID, task.ID)
	if err != nil {
		return Result{}, err
	}
	if err := op.Wait(ctx); err != nil {
		return Result{}, err
	}
	b.refresh(ctx, bc.BoardID)
	return ok(fmt.Sprintf("Task '%s' deleted.", title)), nil
}

// Subtasks.

func (b *Bridge) toggleSubtask(ctx context.Context, args Args, bc Context) (Result, error) {
	parentTitle, subTitle := args.String("parent_task_title"), args.String("subtask_title")
	if parentTitle == "" || subTitle == "" {
		return Result{}, errRequired("parent_task_title", "subtask_title")
	}
	board, _, err := b.activeBoard(ctx, bc)
	if err != nil {
		return Result{}, err
	}
	parent, found := findTask(board, parentTitle)
	if !found {
		return fail(fmt.Sprintf("Task '%s' not found.", parentTitle) + didYouMean(parentTitle, taskTitles(board))), nil
	}
	sub, found := findSubtask(parent, subTitle)
	if !found {
		return fail(fmt.Sprintf("Subtask '%s' not found.", subTitle) + didYouMean(subTitle, subtaskTitles(parent))), nil
	}
	done := args.Bool("is_completed")
	op, err := b.ops.SetSubtask(bc.BoardID, sub.ID, done)
	if err != nil {
		return Result{}, err
	}
	if err := op.Wait(ctx); err != nil {
		return Result{}, err
	}
	b.refresh(ctx, bc.BoardID)
	b.highlight(parent.ID)

	state := "incomplete"
	if done {
		state = "completed"
	}
	return ok(fmt.Sprintf("Subtask '%s' marked as %s.", subTitle, state)), nil
}
