// Package notifications delivers supplier-facing email/SMS messages and the
// staff real-time event feed. Delivery is best-effort: failures are logged
// and counted, never surfaced to the workflow that triggered them.
package notifications

import (
	"fmt"
	"strings"
)

// Event types recognized by the template registry.
const (
	TypeApplicationSubmitted = "application_submitted"
	TypeApplicationApproved  = "application_approved"
	TypeApplicationRejected  = "application_rejected"
	TypeDocumentsRequested   = "documents_requested"
	TypeDocumentVerified     = "document_verified"
	TypeContractCreated      = "contract_created"
	TypeDeliveryConfirmed    = "delivery_confirmed"
	TypeInvoiceIssued        = "invoice_issued"
)

// Template holds the subject and body skeletons for one event type.
type Template struct {
	Subject string
	Body    string
}

var templateRegistry = map[string]Template{
	TypeApplicationSubmitted: {
		Subject: "Supplier Application Received - {{trackingCode}}",
		Body: "Dear {{supplierName}},\n\nYour supplier application has been received. " +
			"Your tracking code is {{trackingCode}}. Use it to follow the status of your application.\n\nGCX Supplier Portal",
	},
	TypeApplicationApproved: {
		Subject: "Supplier Application Approved - {{trackingCode}}",
		Body: "Dear {{supplierName}},\n\nCongratulations, your application {{trackingCode}} has been approved. " +
			"An account has been created for you with username {{username}} and temporary password {{tempPassword}}. " +
			"You will be required to change this password at first login.\n\nGCX Supplier Portal",
	},
	TypeApplicationRejected: {
		Subject: "Supplier Application Update - {{trackingCode}}",
		Body: "Dear {{supplierName}},\n\nWe regret to inform you that your application {{trackingCode}} was not successful. " +
			"Reason: {{reason}}\n\nGCX Supplier Portal",
	},
	TypeDocumentsRequested: {
		Subject: "Outstanding Documents Required - {{trackingCode}}",
		Body: "Dear {{supplierName}},\n\nYour application {{trackingCode}} is missing the following documents: {{documents}}. " +
			"Please upload them before {{deadline}} using this link: {{uploadLink}}\n\nGCX Supplier Portal",
	},
	TypeDocumentVerified: {
		Subject: "Document Verified - {{trackingCode}}",
		Body: "Dear {{supplierName}},\n\nYour document {{documentName}} for application {{trackingCode}} has been verified.\n\nGCX Supplier Portal",
	},
	TypeContractCreated: {
		Subject: "New Supply Contract {{contractNumber}}",
		Body: "Dear {{supplierName}},\n\nA new contract {{contractNumber}} for {{commodity}} has been created for you. " +
			"Please log in to the portal to review and sign it.\n\nGCX Supplier Portal",
	},
	TypeDeliveryConfirmed: {
		Subject: "Delivery Confirmed - {{deliveryCode}}",
		Body: "Dear {{supplierName}},\n\nYour delivery {{deliveryCode}} has been confirmed and a store receipt voucher " +
			"{{voucherNumber}} has been issued.\n\nGCX Supplier Portal",
	},
	TypeInvoiceIssued: {
		Subject: "Invoice {{invoiceNumber}} Issued",
		Body: "Dear {{supplierName}},\n\nInvoice {{invoiceNumber}} for amount {{amount}} has been issued against contract " +
			"{{contractNumber}}.\n\nGCX Supplier Portal",
	},
}

// smsEligible lists the event types important enough to page a supplier's
// phone. Everything else goes out by email only.
var smsEligible = map[string]bool{
	TypeApplicationApproved: true,
	TypeApplicationRejected: true,
	TypeDocumentsRequested:  true,
	TypeDeliveryConfirmed:   true,
}

// SMSEligible reports whether an event type warrants an SMS.
func SMSEligible(eventType string) bool {
	return smsEligible[eventType]
}

// LookupTemplate returns the registered template for an event type.
func LookupTemplate(eventType string) (Template, error) {
	t, ok := templateRegistry[eventType]
	if !ok {
		return Template{}, fmt.Errorf("template not found for type: %s", eventType)
	}
	return t, nil
}

// RenderTemplate substitutes {{placeholder}} tokens from data. Unknown
// placeholders render as empty strings so a missing value never leaks a raw
// token into a supplier-facing message.
func RenderTemplate(tmpl string, data map[string]interface{}) string {
	result := tmpl

	for k, v := range data {
		placeholder := "{{" + k + "}}"
		value := ""
		if s, ok := v.(string); ok {
			value = s
		} else if i, ok := v.(int); ok {
			value = fmt.Sprintf("%d", i)
		} else if v != nil {
			value = fmt.Sprintf("%v", v)
		}
		result = strings.ReplaceAll(result, placeholder, value)
	}

	// Remove any remaining placeholders (missing values)
	for {
		start := strings.Index(result, "{{")
		if start == -1 {
			break
		}
		end := strings.Index(result[start:], "}}")
		if end == -1 {
			break
		}
		end += start + 2
		result = result[:start] + result[end:]
	}

	return result
}
