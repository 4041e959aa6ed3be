package engine

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Clock abstracts wall-clock reads so the duplicate, trend and cluster
// windows are deterministic under test.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// SystemClock returns the real UTC clock.
func SystemClock() Clock { return systemClock{} }

// IDGenerator mints entity ids. The prefix identifies the entity kind so
// ids remain self-describing in logs and exports.
type IDGenerator interface {
	NewID(prefix string) string
}

type uuidGenerator struct{}

func (uuidGenerator) NewID(prefix string) string {
	return fmt.Sprintf("%s-%s", prefix, uuid.NewString())
}

// UUIDGenerator returns the production id generator.
func UUIDGenerator() IDGenerator { return uuidGenerator{} }
