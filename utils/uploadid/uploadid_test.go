package uploadid_test

import (
	"strings"
	"sync"
	"testing"

	"cinevault/services/upload-api/utils/uploadid"
)

func TestNewProducesValidIDs(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		id := uploadid.New()
		if !strings.HasPrefix(id, "up_") {
			t.Fatalf("id %q missing up_ prefix", id)
		}
		if !uploadid.IsValid(id) {
			t.Fatalf("id %q should be valid", id)
		}
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = struct{}{}
	}
}

func TestNewIsSafeForConcurrentUse(t *testing.T) {
	const (
		goroutines = 20
		perWorker  = 50
	)

	ids := make(chan string, goroutines*perWorker)
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				ids <- uploadid.New()
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[string]struct{}, goroutines*perWorker)
	for id := range ids {
		if !uploadid.IsValid(id) {
			t.Fatalf("id %q should be valid", id)
		}
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate id %q minted concurrently", id)
		}
		seen[id] = struct{}{}
	}
	if len(seen) != goroutines*perWorker {
		t.Fatalf("expected %d distinct ids, got %d", goroutines*perWorker, len(seen))
	}
}

func TestIsValid(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  bool
	}{
		{"generated id", uploadid.New(), true},
		{"missing prefix", "01hqv3x8e4z9k2m5n7p9r1t3v5", false},
		{"wrong prefix", "med_01hqv3x8e4z9k2m5n7p9r1t3v5", false},
		{"empty", "", false},
		{"prefix only", "up_", false},
		{"garbage suffix", "up_not-a-ulid", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := uploadid.IsValid(tt.value); got != tt.want {
				t.Errorf("IsValid(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestParseRoundTrip(t *testing.T) {
	id := uploadid.New()
	parsed, err := uploadid.Parse(id)
	if err != nil {
		t.Fatalf("Parse(%q) failed: %v", id, err)
	}
	if got := "up_" + strings.ToLower(parsed.String()); got != id {
		t.Errorf("round trip mismatch: got %q, want %q", got, id)
	}
}
