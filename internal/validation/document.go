package validation

import (
	"fmt"
	"path/filepath"
	"strings"

	"gcxportal/internal/models"
)

// DefaultAllowedExtensions applies when a requirement does not pin its own
// extension list.
var DefaultAllowedExtensions = []string{".pdf", ".jpg", ".jpeg", ".png"}

// DefaultMaxFileSizeMB applies when a requirement does not pin its own limit.
const DefaultMaxFileSizeMB = 10

// ValidateUpload checks a candidate file against the constraints the
// requirement declares. Constraints live on the DocumentRequirement row, so
// tightening a limit is a data change rather than a deploy.
func ValidateUpload(req *models.DocumentRequirement, filename string, sizeBytes int64) error {
	allowed := DefaultAllowedExtensions
	if req.AllowedExtensions != "" {
		allowed = splitExtensions(req.AllowedExtensions)
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		return fmt.Errorf("file %q has no extension; allowed: %s", filename, strings.Join(allowed, ", "))
	}

	ok := false
	for _, a := range allowed {
		if ext == a {
			ok = true
			break
		}
	}
	if !ok {
		return fmt.Errorf("file type %s is not accepted for %s; allowed: %s", ext, req.Name, strings.Join(allowed, ", "))
	}

	maxMB := req.MaxFileSizeMB
	if maxMB <= 0 {
		maxMB = DefaultMaxFileSizeMB
	}
	if sizeBytes <= 0 {
		return fmt.Errorf("file %q is empty", filename)
	}
	if sizeBytes > int64(maxMB)*1024*1024 {
		return fmt.Errorf("file %q exceeds the %dMB limit for %s", filename, maxMB, req.Name)
	}

	return nil
}

func splitExtensions(csv string) []string {
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		if !strings.HasPrefix(p, ".") {
			p = "." + p
		}
		out = append(out, p)
	}
	if len(out) == 0 {
		return DefaultAllowedExtensions
	}
	return out
}
