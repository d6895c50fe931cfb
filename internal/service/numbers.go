package service

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// generateDocumentNumber builds identifiers like GCX-CTR-2026-4FA2B31C for
// contracts, deliveries, invoices and vouchers. The random suffix avoids a
// sequence table; uniqueness is still enforced by the database index.
func generateDocumentNumber(prefix string) string {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failing means the process is in serious trouble;
		// fall back to a timestamp so the caller still gets a value and the
		// unique index catches collisions.
		return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
	}
	return fmt.Sprintf("%s-%d-%s", prefix, time.Now().Year(), strings.ToUpper(hex.EncodeToString(buf)))
}
