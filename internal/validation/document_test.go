package validation

import (
	"testing"

	"gcxportal/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateUpload_Defaults(t *testing.T) {
	t.Parallel()

	req := &models.DocumentRequirement{Name: "Tax Clearance Certificate"}

	assert.NoError(t, ValidateUpload(req, "certificate.pdf", 1024))
	assert.NoError(t, ValidateUpload(req, "SCAN.JPG", 1024))

	err := ValidateUpload(req, "certificate.exe", 1024)
	require.Error(t, err)
	assert.Contains(t, err.Error(), ".exe")

	err = ValidateUpload(req, "certificate", 1024)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no extension")
}

func TestValidateUpload_Size(t *testing.T) {
	t.Parallel()

	req := &models.DocumentRequirement{Name: "Business Registration"}

	assert.NoError(t, ValidateUpload(req, "reg.pdf", DefaultMaxFileSizeMB*1024*1024))
	assert.Error(t, ValidateUpload(req, "reg.pdf", DefaultMaxFileSizeMB*1024*1024+1))
	assert.Error(t, ValidateUpload(req, "reg.pdf", 0))

	// Requirement-level limit overrides the default.
	req.MaxFileSizeMB = 1
	err := ValidateUpload(req, "reg.pdf", 2*1024*1024)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1MB")
}

func TestValidateUpload_RequirementExtensions(t *testing.T) {
	t.Parallel()

	req := &models.DocumentRequirement{Name: "FDA Certificate", AllowedExtensions: "pdf, .PNG"}

	assert.NoError(t, ValidateUpload(req, "fda.pdf", 1024))
	assert.NoError(t, ValidateUpload(req, "fda.png", 1024))
	assert.Error(t, ValidateUpload(req, "fda.jpg", 1024))
}

func TestSplitExtensions(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{".pdf", ".png"}, splitExtensions("pdf, .PNG"))
	assert.Equal(t, DefaultAllowedExtensions, splitExtensions(" , "))
}
