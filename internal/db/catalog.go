package db

import (
	"context"

	"github.com/pkg/errors"
)

func (q *Queries) ListClasses(ctx context.Context) ([]Class, error) {
	rows, err := q.db.Query(ctx, `SELECT id, name, grade, created_at FROM classes ORDER BY name, id`)
	if err != nil {
		return nil, errors.Wrap(err, "list classes")
	}
	defer rows.Close()
	var items []Class
	for rows.Next() {
		var c Class
		if err := rows.Scan(&c.ID, &c.Name, &c.Grade, &c.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "scan class")
		}
		items = append(items, c)
	}
	return items, errors.Wrap(rows.Err(), "list classes")
}

func (q *Queries) GetClass(ctx context.Context, id int64) (Class, error) {
	var c Class
	err := q.db.QueryRow(ctx, `SELECT id, name, grade, created_at FROM classes WHERE id = $1`, id).
		Scan(&c.ID, &c.Name, &c.Grade, &c.CreatedAt)
	return c, errors.Wrap(err, "get class")
}

func (q *Queries) CreateClass(ctx context.Context, name, grade string) (Class, error) {
	var c Class
	err := q.db.QueryRow(ctx, `
		INSERT INTO classes (name, grade) VALUES ($1, $2)
		RETURNING id, name, grade, created_at
	`, name, grade).Scan(&c.ID, &c.Name, &c.Grade, &c.CreatedAt)
	return c, errors.Wrap(err, "create class")
}

func (q *Queries) UpdateClass(ctx context.Context, id int64, name, grade string) (Class, error) {
	var c Class
	err := q.db.QueryRow(ctx, `
		UPDATE classes SET name = $2, grade = $3 WHERE id = $1
		RETURNING id, name, grade, created_at
	`, id, name, grade).Scan(&c.ID, &c.Name, &c.Grade, &c.CreatedAt)
	return c, errors.Wrap(err, "update class")
}

func (q *Queries) DeleteClass(ctx context.Context, id int64) (bool, error) {
	tag, err := q.db.Exec(ctx, `DELETE FROM classes WHERE id = $1`, id)
	if err != nil {
		return false, errors.Wrap(err, "delete class")
	}
	return tag.RowsAffected() > 0, nil
}

func (q *Queries) ListSubjects(ctx context.Context) ([]Subject, error) {
	rows, err := q.db.Query(ctx, `SELECT id, name, code, created_at FROM subjects ORDER BY name, id`)
	if err != nil {
		return nil, errors.Wrap(err, "list subjects")
	}
	defer rows.Close()
	var items []Subject
	for rows.Next() {
		var s Subject
		if err := rows.Scan(&s.ID, &s.Name, &s.Code, &s.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "scan subject")
		}
		items = append(items, s)
	}
	return items, errors.Wrap(rows.Err(), "list subjects")
}

func (q *Queries) GetSubject(ctx context.Context, id int64) (Subject, error) {
	var s Subject
	err := q.db.QueryRow(ctx, `SELECT id, name, code, created_at FROM subjects WHERE id = $1`, id).
		Scan(&s.ID, &s.Name, &s.Code, &s.CreatedAt)
	return s, errors.Wrap(err, "get subject")
}

func (q *Queries) CreateSubject(ctx context.Context, name, code string) (Subject, error) {
	var s Subject
	err := q.db.QueryRow(ctx, `
		INSERT INTO subjects (name, code) VALUES ($1, $2)
		RETURNING id, name, code, created_at
	`, name, code).Scan(&s.ID, &s.Name, &s.Code, &s.CreatedAt)
	return s, errors.Wrap(err, "create subject")
}

func (q *Queries) UpdateSubject(ctx context.Context, id int64, name, code string) (Subject, error) {
	var s Subject
	err := q.db.QueryRow(ctx, `
		UPDATE subjects SET name = $2, code = $3 WHERE id = $1
		RETURNING id, name, code, created_at
	`, id, name, code).Scan(&s.ID, &s.Name, &s.Code, &s.CreatedAt)
	return s, errors.Wrap(err, "update subject")
}

func (q *Queries) DeleteSubject(ctx context.Context, id int64) (bool, error) {
	tag, err := q.db.Exec(ctx, `DELETE FROM subjects WHERE id = $1`, id)
	if err != nil {
		return false, errors.Wrap(err, "delete subject")
	}
	return tag.RowsAffected() > 0, nil
}
