package jsonstore

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

type record struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func newTestCollection(t *testing.T) *Collection[record] {
	t.Helper()
	return NewCollection[record](filepath.Join(t.TempDir(), "records.json"))
}

func TestCollection_LoadMissingFile(t *testing.T) {
	c := newTestCollection(t)
	items, err := c.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("expected empty collection, got %d items", len(items))
	}
}

func TestCollection_LoadBlankFile(t *testing.T) {
	c := newTestCollection(t)
	if err := os.WriteFile(c.Path(), []byte("  \n"), 0o644); err != nil {
		t.Fatal(err)
	}
	items, err := c.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("expected empty collection, got %d items", len(items))
	}
}

func TestCollection_SaveLoadRoundTrip(t *testing.T) {
	c := newTestCollection(t)
	in := []record{{ID: "1", Name: "one"}, {ID: "2", Name: "two"}}
	if err := c.SaveAll(in); err != nil {
		t.Fatalf("save: %v", err)
	}
	out, err := c.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 items, got %d", len(out))
	}
	if out[0].ID != "1" || out[1].Name != "two" {
		t.Errorf("unexpected contents: %+v", out)
	}
}

func TestCollection_SaveOverwrites(t *testing.T) {
	c := newTestCollection(t)
	if err := c.SaveAll([]record{{ID: "1"}, {ID: "2"}, {ID: "3"}}); err != nil {
		t.Fatal(err)
	}
	if err := c.SaveAll([]record{{ID: "9"}}); err != nil {
		t.Fatal(err)
	}
	out, err := c.Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 || out[0].ID != "9" {
		t.Errorf("expected single record 9, got %+v", out)
	}
}

func TestCollection_UpdateSkipsWriteWhenUnchanged(t *testing.T) {
	c := newTestCollection(t)
	err := c.Update(func(items []record) ([]record, bool, error) {
		return items, false, nil
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if _, err := os.Stat(c.Path()); !os.IsNotExist(err) {
		t.Error("expected no file to be written when fn reports no change")
	}
}

func TestCollection_UpdateAppends(t *testing.T) {
	c := newTestCollection(t)
	err := c.Update(func(items []record) ([]record, bool, error) {
		return append(items, record{ID: "a"}), true, nil
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	out, err := c.Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 || out[0].ID != "a" {
		t.Errorf("unexpected contents: %+v", out)
	}
}

func TestCollection_UpdatePropagatesError(t *testing.T) {
	c := newTestCollection(t)
	wantErr := fmt.Errorf("boom")
	err := c.Update(func(items []record) ([]record, bool, error) {
		return nil, false, wantErr
	})
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestCollection_ConcurrentUpdatesAreSerialized(t *testing.T) {
	c := newTestCollection(t)
	const n = 20

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = c.Update(func(items []record) ([]record, bool, error) {
				return append(items, record{ID: fmt.Sprintf("r%d", i)}), true, nil
			})
		}(i)
	}
	wg.Wait()

	out, err := c.Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != n {
		t.Errorf("expected %d records after concurrent appends, got %d (lost update)", n, len(out))
	}
}
