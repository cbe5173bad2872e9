package store

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/cwbudde/mlvis/internal/descent"
)

func TestTraceWriter_WriteAndRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs", "trace.jsonl")

	writer, err := NewTraceWriter(path, false)
	if err != nil {
		t.Fatalf("Failed to create trace writer: %v", err)
	}

	now := time.Now().UTC()
	entries := []TraceEntry{
		{Iteration: 0, X: 3.5, Y: -4.1, Loss: 30.2, Timestamp: now, Objective: descent.Rugged},
		{Iteration: 1, X: 3.4, Y: -4.0, Loss: 29.1, Timestamp: now},
		{Iteration: 2, X: 3.3, Y: -3.9, Loss: 28.0, Timestamp: now},
	}
	for _, entry := range entries {
		if err := writer.Write(entry); err != nil {
			t.Fatalf("Failed to write entry: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Failed to close writer: %v", err)
	}

	reader, err := NewTraceReader(path)
	if err != nil {
		t.Fatalf("Failed to create trace reader: %v", err)
	}
	defer reader.Close()

	got, err := reader.ReadAll()
	if err != nil {
		t.Fatalf("Failed to read entries: %v", err)
	}
	if len(got) != len(entries) {
		t.Fatalf("Expected %d entries, got %d", len(entries), len(got))
	}
	for i, entry := range got {
		if entry.Point() != entries[i].Point() {
			t.Errorf("Entry %d: expected %+v, got %+v", i, entries[i].Point(), entry.Point())
		}
		if entry.Iteration != entries[i].Iteration {
			t.Errorf("Entry %d: expected iteration %d, got %d", i, entries[i].Iteration, entry.Iteration)
		}
	}
	if got[0].Objective != descent.Rugged || got[1].Objective != "" {
		t.Errorf("Objective should only tag the first entry, got %q and %q", got[0].Objective, got[1].Objective)
	}
}

func TestTraceWriter_WriteTrajectory(t *testing.T) {
	e, err := descent.New(descent.Config{Objective: descent.Ackley, Seed: 9})
	if err != nil {
		t.Fatalf("Failed to create engine: %v", err)
	}
	e.Start()
	for i := 0; i < 10; i++ {
		if _, err := e.Step(); err != nil {
			t.Fatalf("Step %d failed: %v", i, err)
		}
	}

	path := filepath.Join(t.TempDir(), "trace.jsonl")
	writer, err := NewTraceWriter(path, false)
	if err != nil {
		t.Fatalf("Failed to create trace writer: %v", err)
	}
	traj := e.Trajectory()
	if err := writer.WriteTrajectory(descent.Ackley, traj, time.Now()); err != nil {
		t.Fatalf("Failed to write trajectory: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Failed to close writer: %v", err)
	}

	reader, err := NewTraceReader(path)
	if err != nil {
		t.Fatalf("Failed to create trace reader: %v", err)
	}
	defer reader.Close()

	got, err := reader.ReadAll()
	if err != nil {
		t.Fatalf("Failed to read entries: %v", err)
	}
	if len(got) != len(traj) {
		t.Fatalf("Expected %d entries, got %d", len(traj), len(got))
	}
	for i := range traj {
		if got[i].Iteration != i {
			t.Errorf("Entry %d: iteration %d", i, got[i].Iteration)
		}
		if got[i].Point() != traj[i] {
			t.Errorf("Entry %d: expected %+v, got %+v", i, traj[i], got[i].Point())
		}
	}
}

func TestTraceWriter_Append(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.jsonl")

	for i, appendMode := range []bool{false, true} {
		writer, err := NewTraceWriter(path, appendMode)
		if err != nil {
			t.Fatalf("Failed to create trace writer: %v", err)
		}
		if err := writer.Write(TraceEntry{Iteration: i, Timestamp: time.Now()}); err != nil {
			t.Fatalf("Failed to write entry: %v", err)
		}
		if err := writer.Close(); err != nil {
			t.Fatalf("Failed to close writer: %v", err)
		}
	}

	reader, err := NewTraceReader(path)
	if err != nil {
		t.Fatalf("Failed to create trace reader: %v", err)
	}
	defer reader.Close()

	entries, err := reader.ReadAll()
	if err != nil {
		t.Fatalf("Failed to read entries: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(entries))
	}

	// Reopening without append truncates.
	writer, err := NewTraceWriter(path, false)
	if err != nil {
		t.Fatalf("Failed to reopen trace writer: %v", err)
	}
	writer.Close()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read trace file: %v", err)
	}
	if len(data) != 0 {
		t.Errorf("Expected truncated file, got %d bytes", len(data))
	}
}

func TestTraceWriter_Flush(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.jsonl")

	writer, err := NewTraceWriter(path, false)
	if err != nil {
		t.Fatalf("Failed to create trace writer: %v", err)
	}
	defer writer.Close()

	if err := writer.Write(TraceEntry{Iteration: 0, Loss: 1.0, Timestamp: time.Now()}); err != nil {
		t.Fatalf("Failed to write entry: %v", err)
	}
	if err := writer.Flush(); err != nil {
		t.Fatalf("Failed to flush: %v", err)
	}

	data, err := os.ReadFile(writer.Path())
	if err != nil {
		t.Fatalf("Failed to read trace file: %v", err)
	}
	if len(data) == 0 {
		t.Error("Trace file is empty after flush")
	}
}

func TestTraceReader_ReadIteratively(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.jsonl")

	writer, err := NewTraceWriter(path, false)
	if err != nil {
		t.Fatalf("Failed to create trace writer: %v", err)
	}
	for i := 0; i < 5; i++ {
		if err := writer.Write(TraceEntry{Iteration: i, Loss: 1.0 - float64(i)*0.1, Timestamp: time.Now()}); err != nil {
			t.Fatalf("Failed to write entry: %v", err)
		}
	}
	writer.Close()

	reader, err := NewTraceReader(path)
	if err != nil {
		t.Fatalf("Failed to create trace reader: %v", err)
	}
	defer reader.Close()

	count := 0
	for {
		entry, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Failed to read entry: %v", err)
		}
		if entry.Iteration != count {
			t.Errorf("Entry %d: expected iteration %d, got %d", count, count, entry.Iteration)
		}
		count++
	}
	if count != 5 {
		t.Errorf("Expected to read 5 entries, got %d", count)
	}
}

func TestTraceReader_NotFound(t *testing.T) {
	_, err := NewTraceReader(filepath.Join(t.TempDir(), "missing.jsonl"))
	if err == nil {
		t.Fatal("Expected error for nonexistent trace file")
	}
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected NotFoundError, got: %v", err)
	}
}

func TestTraceReader_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.jsonl")
	if err := os.WriteFile(path, []byte("{\"iteration\":0}\nnot json\n"), 0644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	reader, err := NewTraceReader(path)
	if err != nil {
		t.Fatalf("Failed to create trace reader: %v", err)
	}
	defer reader.Close()

	if _, err := reader.ReadAll(); err == nil {
		t.Error("Expected error for malformed line")
	}
}

func TestTraceWriter_ConcurrentWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.jsonl")

	writer, err := NewTraceWriter(path, false)
	if err != nil {
		t.Fatalf("Failed to create trace writer: %v", err)
	}
	defer writer.Close()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(iter int) {
			defer wg.Done()
			if err := writer.Write(TraceEntry{Iteration: iter, Loss: float64(iter), Timestamp: time.Now()}); err != nil {
				t.Errorf("Concurrent write failed: %v", err)
			}
		}(i)
	}
	wg.Wait()

	if err := writer.Flush(); err != nil {
		t.Fatalf("Failed to flush: %v", err)
	}

	reader, err := NewTraceReader(path)
	if err != nil {
		t.Fatalf("Failed to create trace reader: %v", err)
	}
	defer reader.Close()

	entries, err := reader.ReadAll()
	if err != nil {
		t.Fatalf("Failed to read entries: %v", err)
	}
	if len(entries) != 10 {
		t.Errorf("Expected 10 entries, got %d", len(entries))
	}
}
