package store

import (
	"context"
	"errors"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"Colabi/internal/models"
)

func newTestStore(t *testing.T) (*Store, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	if err := db.AutoMigrate(&models.Agent{}, &models.Task{}, &models.CompletedTask{}, &models.CompletedTaskFile{}); err != nil {
		t.Fatalf("migrating test schema: %v", err)
	}
	return New(db), db
}

func TestAcquireSession(t *testing.T) {
	st, _ := newTestStore(t)
	db, err := st.AcquireSession(context.Background())
	if err != nil {
		t.Fatalf("AcquireSession() error = %v", err)
	}
	if db == nil {
		t.Fatal("AcquireSession() returned nil handle")
	}
}

func TestGetAgentByID_NotFound(t *testing.T) {
	st, db := newTestStore(t)
	if _, err := st.GetAgentByID(db, 42); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSetAgentVector(t *testing.T) {
	st, db := newTestStore(t)
	agent := models.Agent{Role: "r"}
	if err := db.Create(&agent).Error; err != nil {
		t.Fatalf("creating agent: %v", err)
	}

	if err := st.SetAgentVector(db, agent.ID, "ns-123"); err != nil {
		t.Fatalf("SetAgentVector() error = %v", err)
	}

	got, err := st.GetAgentByID(db, agent.ID)
	if err != nil {
		t.Fatalf("GetAgentByID() error = %v", err)
	}
	if !got.OwnData || got.VectorID != "ns-123" {
		t.Errorf("agent = ownData %v, vectorID %q", got.OwnData, got.VectorID)
	}

	if err := st.SetAgentVector(db, 9999, "ns"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing agent, got %v", err)
	}
}

func TestPreviousOutputs(t *testing.T) {
	st, db := newTestStore(t)

	var ids []uint
	for _, output := range []string{"first", "second", "third"} {
		ct := models.CompletedTask{TaskID: 1, Output: output}
		if err := db.Create(&ct).Error; err != nil {
			t.Fatalf("creating completed task: %v", err)
		}
		ids = append(ids, ct.ID)
	}

	t.Run("caller order preserved", func(t *testing.T) {
		outputs, err := st.PreviousOutputs(db, []uint{ids[2], ids[0]})
		if err != nil {
			t.Fatalf("PreviousOutputs() error = %v", err)
		}
		if len(outputs) != 2 || outputs[0] != "third" || outputs[1] != "first" {
			t.Errorf("outputs = %v", outputs)
		}
	})

	t.Run("missing ids skipped", func(t *testing.T) {
		outputs, err := st.PreviousOutputs(db, []uint{ids[1], 9999})
		if err != nil {
			t.Fatalf("PreviousOutputs() error = %v", err)
		}
		if len(outputs) != 1 || outputs[0] != "second" {
			t.Errorf("outputs = %v", outputs)
		}
	})

	t.Run("empty input", func(t *testing.T) {
		outputs, err := st.PreviousOutputs(db, nil)
		if err != nil || outputs != nil {
			t.Errorf("outputs = %v, err = %v", outputs, err)
		}
	})
}

func TestUpdateCompletedTask(t *testing.T) {
	st, db := newTestStore(t)
	ct, err := st.CreateCompletedTask(db, 7)
	if err != nil {
		t.Fatalf("CreateCompletedTask() error = %v", err)
	}

	t.Run("partial update touches only set fields", func(t *testing.T) {
		output := "result"
		if err := st.UpdateCompletedTask(db, ct.ID, CompletedTaskUpdate{Output: &output}); err != nil {
			t.Fatalf("UpdateCompletedTask() error = %v", err)
		}

		got, err := st.GetCompletedTaskByID(db, ct.ID)
		if err != nil {
			t.Fatalf("GetCompletedTaskByID() error = %v", err)
		}
		if got.Output != "result" {
			t.Errorf("Output = %q", got.Output)
		}
		if got.Status != models.TaskStatusPending || got.MarkAs != models.MarkAsNone {
			t.Errorf("unset fields changed: status %d, markAs %d", got.Status, got.MarkAs)
		}
	})

	t.Run("empty update is a no-op", func(t *testing.T) {
		if err := st.UpdateCompletedTask(db, ct.ID, CompletedTaskUpdate{}); err != nil {
			t.Errorf("empty update must succeed, got %v", err)
		}
	})

	t.Run("missing row", func(t *testing.T) {
		status := models.TaskStatusFailed
		err := st.UpdateCompletedTask(db, 9999, CompletedTaskUpdate{Status: &status})
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}
