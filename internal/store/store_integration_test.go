package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/firebase/genkit/go/genkit"
	"github.com/google/uuid"

	"github.com/attuneapp/attune/internal/log"
	"github.com/attuneapp/attune/internal/testutil"
)

func TestTaskStore_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	st, err := NewTaskStore(db.Pool, log.NewNop())
	if err != nil {
		t.Fatalf("NewTaskStore() error = %v", err)
	}

	due := time.Now().Add(48 * time.Hour).UTC().Truncate(time.Second)
	task, err := st.Create(ctx, "user-1", "buy milk", "oat", &due)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if task.ID == uuid.Nil {
		t.Error("task ID not assigned")
	}
	if task.Complete {
		t.Error("new task should be incomplete")
	}
	if task.DueAt == nil || !task.DueAt.Equal(due) {
		t.Errorf("DueAt = %v, want %v", task.DueAt, due)
	}

	t.Run("list is owner scoped", func(t *testing.T) {
		mine, err := st.List(ctx, "user-1")
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(mine) != 1 {
			t.Errorf("List(user-1) = %d tasks, want 1", len(mine))
		}
		theirs, err := st.List(ctx, "user-2")
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(theirs) != 0 {
			t.Errorf("List(user-2) = %d tasks, want 0", len(theirs))
		}
	})

	t.Run("incomplete sorts before complete", func(t *testing.T) {
		if _, err := st.Create(ctx, "user-1", "second task", "", nil); err != nil {
			t.Fatal(err)
		}
		done := true
		if _, err := st.SetStatus(ctx, "user-1", task.ID, &done); err != nil {
			t.Fatalf("SetStatus() error = %v", err)
		}

		listed, err := st.List(ctx, "user-1")
		if err != nil {
			t.Fatal(err)
		}
		if len(listed) != 2 {
			t.Fatalf("len = %d, want 2", len(listed))
		}
		if listed[0].Complete || !listed[1].Complete {
			t.Errorf("order wrong: complete flags %v, %v", listed[0].Complete, listed[1].Complete)
		}
	})

	t.Run("nil complete flips", func(t *testing.T) {
		flipped, err := st.SetStatus(ctx, "user-1", task.ID, nil)
		if err != nil {
			t.Fatalf("SetStatus() error = %v", err)
		}
		if flipped.Complete {
			t.Error("flip from complete should yield incomplete")
		}
	})

	t.Run("explicit complete is idempotent", func(t *testing.T) {
		done := true
		for i := 0; i < 2; i++ {
			updated, err := st.SetStatus(ctx, "user-1", task.ID, &done)
			if err != nil {
				t.Fatalf("SetStatus() error = %v", err)
			}
			if !updated.Complete {
				t.Errorf("call %d: Complete = false, want true", i+1)
			}
		}
	})

	t.Run("cross-owner update is not found", func(t *testing.T) {
		if _, err := st.SetStatus(ctx, "user-2", task.ID, nil); !errors.Is(err, ErrNotFound) {
			t.Errorf("SetStatus() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("delete", func(t *testing.T) {
		if err := st.Delete(ctx, "user-2", task.ID); !errors.Is(err, ErrNotFound) {
			t.Errorf("cross-owner Delete() error = %v, want ErrNotFound", err)
		}
		if err := st.Delete(ctx, "user-1", task.ID); err != nil {
			t.Fatalf("Delete() error = %v", err)
		}
		if err := st.Delete(ctx, "user-1", task.ID); !errors.Is(err, ErrNotFound) {
			t.Errorf("second Delete() error = %v, want ErrNotFound", err)
		}
	})
}

func TestMemoryStore_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	g := genkit.Init(ctx)
	embedder := testutil.NewMockEmbedder(VectorDimension).RegisterEmbedder(g)

	st, err := NewMemoryStore(db.Pool, embedder, log.NewNop())
	if err != nil {
		t.Fatalf("NewMemoryStore() error = %v", err)
	}

	saved, err := st.Save(ctx, "user-1", "prefers oat milk in coffee", "preference")
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if saved.ID == uuid.Nil {
		t.Error("memory ID not assigned")
	}

	if _, err := st.Save(ctx, "user-1", "works on a sailing project", "project"); err != nil {
		t.Fatal(err)
	}

	t.Run("search finds identical content first", func(t *testing.T) {
		// The mock embedder is deterministic, so the exact content has
		// cosine distance zero to itself.
		found, err := st.Search(ctx, "user-1", "prefers oat milk in coffee", 5)
		if err != nil {
			t.Fatalf("Search() error = %v", err)
		}
		if len(found) != 2 {
			t.Fatalf("Search() = %d memories, want 2", len(found))
		}
		if found[0].Content != "prefers oat milk in coffee" {
			t.Errorf("closest match = %q", found[0].Content)
		}
	})

	t.Run("search is owner scoped", func(t *testing.T) {
		found, err := st.Search(ctx, "user-2", "prefers oat milk in coffee", 5)
		if err != nil {
			t.Fatalf("Search() error = %v", err)
		}
		if len(found) != 0 {
			t.Errorf("Search(user-2) = %d memories, want 0", len(found))
		}
	})

	t.Run("forget", func(t *testing.T) {
		if err := st.Forget(ctx, "user-2", saved.ID); !errors.Is(err, ErrNotFound) {
			t.Errorf("cross-owner Forget() error = %v, want ErrNotFound", err)
		}
		if err := st.Forget(ctx, "user-1", saved.ID); err != nil {
			t.Fatalf("Forget() error = %v", err)
		}
		if err := st.Forget(ctx, "user-1", saved.ID); !errors.Is(err, ErrNotFound) {
			t.Errorf("second Forget() error = %v, want ErrNotFound", err)
		}
	})
}

func TestMeditationStore_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	st, err := NewMeditationStore(db.Pool, log.NewNop())
	if err != nil {
		t.Fatalf("NewMeditationStore() error = %v", err)
	}

	saved, err := st.Save(ctx, &Meditation{
		OwnerID:  "user-1",
		Title:    "Evening wind-down",
		Content:  "Close your eyes.",
		Type:     "sleep",
		Language: "en-US",
		AudioURL: "https://audio.example.com/a.mp3",
	})
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if saved.ID == uuid.Nil {
		t.Error("meditation ID not assigned")
	}

	listed, err := st.List(ctx, "user-1")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(listed) != 1 || listed[0].Title != "Evening wind-down" {
		t.Errorf("List() = %+v", listed)
	}

	if err := st.Delete(ctx, "user-2", saved.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("cross-owner Delete() error = %v, want ErrNotFound", err)
	}
	if err := st.Delete(ctx, "user-1", saved.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
}

func TestReservationStore_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	st, err := NewReservationStore(db.Pool, log.NewNop())
	if err != nil {
		t.Fatalf("NewReservationStore() error = %v", err)
	}

	saved, err := st.Create(ctx, &Reservation{
		OwnerID:       "user-1",
		FlightNumber:  "TN412",
		DepartureDate: "2026-10-01",
		Passenger:     "Kim Lee",
		Seat:          "12A",
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if saved.ID == uuid.Nil {
		t.Error("reservation ID not assigned")
	}

	mine, err := st.List(ctx, "user-1")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(mine) != 1 || mine[0].Seat != "12A" {
		t.Errorf("List() = %+v", mine)
	}

	theirs, err := st.List(ctx, "user-2")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(theirs) != 0 {
		t.Errorf("List(user-2) = %d, want 0", len(theirs))
	}
}
