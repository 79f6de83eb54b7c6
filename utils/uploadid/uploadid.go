package uploadid

import (
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	entropyOnce sync.Once
	entropy     *ulid.LockedMonotonicReader
)

// Every in-flight upload mints ids from its own goroutine, so the shared
// monotonic entropy sits behind a lock.
func newEntropy() *ulid.LockedMonotonicReader {
	entropyOnce.Do(func() {
		source := rand.NewSource(time.Now().UnixNano())
		entropy = &ulid.LockedMonotonicReader{
			MonotonicReader: ulid.Monotonic(rand.New(source), 0),
		}
	})
	return entropy
}

// New returns an up_* ULID string. The timestamp prefix keeps ids sortable
// by creation time; the entropy suffix makes collisions negligible.
func New() string {
	id := ulid.MustNew(ulid.Timestamp(time.Now()), newEntropy())
	return "up_" + strings.ToLower(id.String())
}

// IsValid reports whether the string is an up_* ULID.
func IsValid(value string) bool {
	if !strings.HasPrefix(value, "up_") {
		return false
	}
	_, err := Parse(value)
	return err == nil
}

// Parse strips the up_ prefix and returns the ULID.
func Parse(value string) (ulid.ULID, error) {
	value = strings.TrimSpace(value)
	value = strings.TrimPrefix(value, "up_")
	value = strings.TrimPrefix(value, "UP_")
	return ulid.Parse(value)
}
