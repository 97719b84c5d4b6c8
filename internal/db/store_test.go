package db

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := NewPool(ctx, url)
	if err != nil {
		t.Fatalf("db connection failed: %v", err)
	}
	t.Cleanup(pool.Close)
	if err := EnsureSchema(ctx, pool); err != nil {
		t.Fatalf("schema: %v", err)
	}
	return NewStore(pool)
}

func TestSubmissionRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	teacher, err := store.Queries.CreateTeacher(ctx, CreateTeacherParams{
		Name:        "Guru " + uuid.NewString()[:8],
		UploadToken: uuid.NewString(),
		Active:      true,
	})
	if err != nil {
		t.Fatalf("create teacher: %v", err)
	}
	t.Cleanup(func() { _, _ = store.Queries.DeleteTeacher(context.Background(), teacher.ID) })

	if _, err := store.Queries.CreateTeacher(ctx, CreateTeacherParams{Name: "dup", UploadToken: teacher.UploadToken}); !IsUniqueViolation(err) {
		t.Fatalf("expected unique violation, got %v", err)
	}

	got, err := store.Queries.GetTeacherByToken(ctx, teacher.UploadToken)
	if err != nil || got.ID != teacher.ID {
		t.Fatalf("lookup by token failed: %v", err)
	}

	now := time.Now().UTC().Truncate(time.Millisecond)
	photo := "uploads/test.jpg"
	id := uuid.New()
	err = store.WithTx(ctx, func(q *Queries) error {
		return q.CreateSubmission(ctx, CreateSubmissionParams{
			ID:        id,
			TeacherID: teacher.ID,
			ClassID:   7,
			SubjectID: 8,
			PhotoPath: &photo,
			CreatedAt: now,
			Periods:   []int{4, 3},
		})
	})
	if err != nil {
		t.Fatalf("create submission: %v", err)
	}

	batches, err := store.Queries.ListSubmissions(ctx, SubmissionFilter{
		From:      now.Add(-time.Minute),
		To:        now.Add(time.Minute),
		TeacherID: teacher.ID,
	})
	if err != nil {
		t.Fatalf("list submissions: %v", err)
	}
	if len(batches) != 1 || batches[0].IDString() != id.String() {
		t.Fatalf("expected the new batch, got %+v", batches)
	}
	if len(batches[0].Periods) != 2 || batches[0].Periods[0] != 3 {
		t.Fatalf("expected periods [3 4], got %v", batches[0].Periods)
	}

	paths, err := store.Queries.ClearPhotos(ctx, []uuid.UUID{id})
	if err != nil {
		t.Fatalf("clear photos: %v", err)
	}
	if len(paths) != 1 || paths[0] != photo {
		t.Fatalf("expected cleared path, got %v", paths)
	}
	paths, err = store.Queries.ClearPhotos(ctx, []uuid.UUID{id})
	if err != nil || len(paths) != 0 {
		t.Fatalf("expected nothing left to clear, got %v %v", paths, err)
	}
}

func TestTimetableDuplicatesAreSkipped(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	teacher, err := store.Queries.CreateTeacher(ctx, CreateTeacherParams{Name: "Guru", UploadToken: uuid.NewString(), Active: true})
	if err != nil {
		t.Fatalf("create teacher: %v", err)
	}
	t.Cleanup(func() { _, _ = store.Queries.DeleteTeacher(context.Background(), teacher.ID) })

	params := TimetableEntryParams{TeacherID: teacher.ID, SubjectID: 1, ClassID: 1, Day: 1, StartMinute: 420, EndMinute: 460}
	if _, created, err := store.Queries.CreateTimetableEntry(ctx, params); err != nil || !created {
		t.Fatalf("expected first insert to create, err=%v", err)
	}
	if _, created, err := store.Queries.CreateTimetableEntry(ctx, params); err != nil || created {
		t.Fatalf("expected duplicate to be skipped, err=%v", err)
	}
}
