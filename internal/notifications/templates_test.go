package notifications

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupTemplate(t *testing.T) {
	t.Parallel()

	tmpl, err := LookupTemplate(TypeApplicationApproved)
	require.NoError(t, err)
	assert.Contains(t, tmpl.Body, "{{tempPassword}}")

	_, err = LookupTemplate("no_such_event")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no_such_event")
}

func TestRenderTemplate(t *testing.T) {
	t.Parallel()

	t.Run("substitutes values", func(t *testing.T) {
		t.Parallel()
		out := RenderTemplate("Dear {{supplierName}}, code {{trackingCode}}, attempt {{count}}", map[string]interface{}{
			"supplierName": "Akosua Mensah",
			"trackingCode": "GCX-SUP-AB12CD34",
			"count":        2,
		})
		assert.Equal(t, "Dear Akosua Mensah, code GCX-SUP-AB12CD34, attempt 2", out)
	})

	t.Run("missing values never leak raw tokens", func(t *testing.T) {
		t.Parallel()
		out := RenderTemplate("Reason: {{reason}} end", map[string]interface{}{})
		assert.Equal(t, "Reason:  end", out)
		assert.NotContains(t, out, "{{")
	})

	t.Run("nil values render empty", func(t *testing.T) {
		t.Parallel()
		out := RenderTemplate("x{{a}}y", map[string]interface{}{"a": nil})
		assert.Equal(t, "xy", out)
	})

	t.Run("all registered templates render clean", func(t *testing.T) {
		t.Parallel()
		for eventType, tmpl := range templateRegistry {
			subject := RenderTemplate(tmpl.Subject, nil)
			body := RenderTemplate(tmpl.Body, nil)
			assert.NotContains(t, subject, "{{", "subject of %s leaks a placeholder", eventType)
			assert.NotContains(t, body, "{{", "body of %s leaks a placeholder", eventType)
		}
	})
}
