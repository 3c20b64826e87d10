// Package receiptcode produces human-readable codes for financial documents,
// shaped PREFIX-YYYYMMDD-XXXXX.
//
// Codes are best-effort unique, not unique by construction: the suffix is five
// pseudo-random characters from a 36-symbol alphabet. Callers must probe the
// store for collisions (up to MaxAttempts generations) and back the final
// insert with a uniqueness constraint; a violation surviving the probes is a
// conflict, never a silent duplicate.
package receiptcode

import (
	"math/rand"
	"strings"
	"time"
)

const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

const suffixLength = 5

// MaxAttempts is the generation budget callers spend probing for a free code
// before relying on the store's uniqueness constraint.
const MaxAttempts = 3

func Generate(prefix string, issuedAt time.Time) string {
	var sb strings.Builder
	sb.Grow(len(prefix) + 1 + 8 + 1 + suffixLength)
	sb.WriteString(strings.ToUpper(strings.TrimSpace(prefix)))
	sb.WriteByte('-')
	sb.WriteString(issuedAt.UTC().Format("20060102"))
	sb.WriteByte('-')
	for i := 0; i < suffixLength; i++ {
		sb.WriteByte(alphabet[rand.Intn(len(alphabet))])
	}
	return sb.String()
}
