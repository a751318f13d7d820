package audit

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/ziadkadry99/knowstore/internal/db"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return NewStore(database)
}

func TestLogAndGetByID(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	rec := Record{
		ID:            "test-1",
		Action:        ActionEntryUpdated,
		EntryID:       "entry-42",
		Tool:          "update_entry",
		Detail:        "status active -> canonical",
		ChangedFields: []string{"status", "quality_score"},
	}

	if err := store.Log(ctx, rec); err != nil {
		t.Fatalf("Log: %v", err)
	}

	got, err := store.GetByID(ctx, "test-1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}

	if got.Action != ActionEntryUpdated {
		t.Errorf("Action = %q, want %q", got.Action, ActionEntryUpdated)
	}
	if got.EntryID != "entry-42" {
		t.Errorf("EntryID = %q, want %q", got.EntryID, "entry-42")
	}
	if got.Tool != "update_entry" {
		t.Errorf("Tool = %q, want %q", got.Tool, "update_entry")
	}
	if len(got.ChangedFields) != 2 || got.ChangedFields[0] != "status" {
		t.Errorf("ChangedFields = %v, want [status quality_score]", got.ChangedFields)
	}
	if got.Timestamp.IsZero() {
		t.Error("Timestamp not populated")
	}
}

func TestLogGeneratesUUID(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	if err := store.Log(ctx, Record{
		Action:  ActionEntryAdded,
		EntryID: "entry-1",
		Tool:    "add_entry",
	}); err != nil {
		t.Fatalf("Log: %v", err)
	}

	records, err := store.Query(ctx, QueryFilter{EntryID: "entry-1"})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].ID == "" {
		t.Error("expected generated ID, got empty string")
	}
}

func TestQueryFilters(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	seed := []Record{
		{Action: ActionEntryAdded, EntryID: "a", Tool: "add_entry"},
		{Action: ActionEntryUpdated, EntryID: "a", Tool: "update_entry"},
		{Action: ActionEntryAdded, EntryID: "b", Tool: "add_entry"},
		{Action: ActionEntrySeeded, EntryID: "c", Tool: "seed"},
	}
	for _, rec := range seed {
		if err := store.Log(ctx, rec); err != nil {
			t.Fatalf("Log: %v", err)
		}
	}

	byEntry, err := store.Query(ctx, QueryFilter{EntryID: "a"})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(byEntry) != 2 {
		t.Errorf("expected 2 records for entry a, got %d", len(byEntry))
	}

	byAction, err := store.Query(ctx, QueryFilter{Action: ActionEntryAdded})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(byAction) != 2 {
		t.Errorf("expected 2 entry_added records, got %d", len(byAction))
	}

	byBoth, err := store.Query(ctx, QueryFilter{Action: ActionEntryAdded, EntryID: "b"})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(byBoth) != 1 {
		t.Errorf("expected 1 record, got %d", len(byBoth))
	}
}

func TestQueryLimitOffset(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if err := store.Log(ctx, Record{
			Action:  ActionEntryUpdated,
			EntryID: "entry-1",
			Tool:    "update_entry",
		}); err != nil {
			t.Fatalf("Log: %v", err)
		}
	}

	records, err := store.Query(ctx, QueryFilter{Limit: 2})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(records) != 2 {
		t.Errorf("expected 2 records with limit, got %d", len(records))
	}

	records, err = store.Query(ctx, QueryFilter{Limit: 2, Offset: 3})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(records) != 2 {
		t.Errorf("expected 2 records with offset, got %d", len(records))
	}
}

func TestDeleteBefore(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := store.Log(ctx, Record{
			Action:  ActionEntryDeleted,
			EntryID: "entry-1",
		}); err != nil {
			t.Fatalf("Log: %v", err)
		}
	}

	deleted, err := store.DeleteBefore(ctx, time.Now().Add(24*time.Hour))
	if err != nil {
		t.Fatalf("DeleteBefore: %v", err)
	}
	if deleted != 3 {
		t.Errorf("expected 3 deleted, got %d", deleted)
	}

	records, err := store.Query(ctx, QueryFilter{})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("expected 0 remaining records, got %d", len(records))
	}
}

func TestGetByIDNotFound(t *testing.T) {
	store := setupStore(t)

	_, err := store.GetByID(context.Background(), "nonexistent")
	if err == nil {
		t.Error("expected error for nonexistent ID, got nil")
	}
}

// --- HTTP handler tests ---

func setupRouter(t *testing.T) (chi.Router, *Store) {
	t.Helper()
	store := setupStore(t)
	r := chi.NewRouter()
	RegisterRoutes(r, store)
	return r, store
}

func TestHTTPGetByID(t *testing.T) {
	r, store := setupRouter(t)

	rec := Record{
		ID:      "http-1",
		Action:  ActionEntryAdded,
		EntryID: "entry-9",
		Tool:    "add_entry",
	}
	if err := store.Log(context.Background(), rec); err != nil {
		t.Fatalf("Log: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/audit/http-1", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var got Record
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ID != "http-1" || got.EntryID != "entry-9" {
		t.Errorf("got %+v", got)
	}
}

func TestHTTPGetByIDNotFound(t *testing.T) {
	r, _ := setupRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/audit/missing", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestHTTPQueryWithFilter(t *testing.T) {
	r, store := setupRouter(t)
	ctx := context.Background()

	for _, entryID := range []string{"a", "b", "a"} {
		if err := store.Log(ctx, Record{
			Action:  ActionEntryUpdated,
			EntryID: entryID,
			Tool:    "update_entry",
		}); err != nil {
			t.Fatalf("Log: %v", err)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/api/audit?entry_id=a&limit=10", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var records []Record
	if err := json.NewDecoder(w.Body).Decode(&records); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(records) != 2 {
		t.Errorf("expected 2 records, got %d", len(records))
	}
}
