package session

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestClassifyRole(t *testing.T) {
	tests := []struct {
		name string
		sess Session
		want Tier
	}{
		{"guest sentinel", Guest(), TierGuest},
		{"user", Session{UserID: "u1", Role: RoleUser}, TierUser},
		{"staff", Session{UserID: "u2", Role: RoleStaff}, TierStaff},
		{"manager", Session{UserID: "u3", Role: RoleManager}, TierStaff},
		{"admin", Session{UserID: "u4", Role: RoleAdmin}, TierStaff},
		{"role without identity stays guest", Session{Role: RoleAdmin}, TierGuest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyRole(tt.sess); got != tt.want {
				t.Errorf("ClassifyRole() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStoreRoundTrip(t *testing.T) {
	store := NewStoreAt(filepath.Join(t.TempDir(), "session.json"))

	sess := Session{UserID: "01ARZ3NDEKTSV4RRFFQ69G5FAV", Email: "a@b.co", Role: RoleUser}
	if err := store.Save(sess); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := store.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got != sess {
		t.Errorf("Load() = %+v, want %+v", got, sess)
	}
	if !got.IsAuthenticated() {
		t.Error("loaded session should be authenticated")
	}
}

func TestStoreAbsentIsGuest(t *testing.T) {
	store := NewStoreAt(filepath.Join(t.TempDir(), "session.json"))

	got, err := store.Load()
	if err != nil {
		t.Fatalf("Load of absent file should not fail: %v", err)
	}
	if got != Guest() {
		t.Errorf("Load() = %+v, want guest sentinel", got)
	}
}

func TestStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	if err := os.WriteFile(path, []byte("{not json"), 0600); err != nil {
		t.Fatal(err)
	}

	store := NewStoreAt(path)
	_, err := store.Load()
	if !errors.Is(err, ErrCorrupt) {
		t.Errorf("Load() error = %v, want ErrCorrupt", err)
	}

	// Current degrades to guest instead of failing
	if got := store.Current(); got != Guest() {
		t.Errorf("Current() = %+v, want guest sentinel", got)
	}
}

func TestStorePartialRecordIsCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	if err := os.WriteFile(path, []byte(`{"user_id":"u1"}`), 0600); err != nil {
		t.Fatal(err)
	}

	store := NewStoreAt(path)
	_, err := store.Load()
	if !errors.Is(err, ErrCorrupt) {
		t.Errorf("Load() error = %v, want ErrCorrupt for partial record", err)
	}
}

func TestClearIdempotent(t *testing.T) {
	store := NewStoreAt(filepath.Join(t.TempDir(), "session.json"))

	if err := store.Save(Session{UserID: "u1", Role: RoleUser}); err != nil {
		t.Fatal(err)
	}

	if err := store.Clear(); err != nil {
		t.Fatalf("first Clear failed: %v", err)
	}
	after1 := store.Current()

	if err := store.Clear(); err != nil {
		t.Fatalf("second Clear failed: %v", err)
	}
	after2 := store.Current()

	if after1 != Guest() || after2 != after1 {
		t.Errorf("Clear twice = %+v then %+v, want guest sentinel both times", after1, after2)
	}
}

func TestReloadDropsCache(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	store := NewStoreAt(path)

	if err := store.Save(Session{UserID: "u1", Role: RoleUser}); err != nil {
		t.Fatal(err)
	}

	// Another process swaps the file underneath us
	if err := os.WriteFile(path, []byte(`{"user_id":"u2","email":"x@y.z","role":"STAFF"}`), 0600); err != nil {
		t.Fatal(err)
	}

	if got := store.Current(); got.UserID != "u1" {
		t.Errorf("cached read = %+v, want stale u1", got)
	}

	store.Reload()
	if got := store.Current(); got.UserID != "u2" || got.Role != RoleStaff {
		t.Errorf("after Reload, Current() = %+v, want fresh u2/STAFF", got)
	}
}
