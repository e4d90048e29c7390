package service

import (
	"time"

	"clearaway_backend/internal/booking/domain"
)

// notificationTokens translates the wizard's lowercase notification method
// ids into the display-case tokens the backend schema expects.
var notificationTokens = map[string]string{
	"email":    "Email",
	"sms":      "SMS",
	"whatsapp": "WhatsApp",
}

// collectionDateString normalizes the collection date to the fixed
// YYYY-MM-DD calendar form. Timestamps are reduced to their local date
// components so the backend never shifts the date across timezones.
func collectionDateString(raw string) (string, bool) {
	if t, err := time.ParseInLocation("2006-01-02", raw, time.Local); err == nil {
		return t.Format("2006-01-02"), true
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.Local().Format("2006-01-02"), true
	}
	return "", false
}

// assemble builds the backend submission payload from a completed draft.
// Array-valued fields are always present (possibly empty, never null);
// blank optional scalars are omitted entirely so backend defaults survive.
func assemble(d domain.Draft) map[string]interface{} {
	notifications := make([]string, 0, len(d.NotificationMethods))
	for _, id := range d.NotificationMethods {
		if token, ok := notificationTokens[id]; ok {
			notifications = append(notifications, token)
		}
	}
	wasteTypes := d.WasteTypes
	if wasteTypes == nil {
		wasteTypes = []string{}
	}

	payload := map[string]interface{}{
		"contactName":         d.ContactName,
		"phone":               d.Phone,
		"email":               d.Email,
		"collectionDate":      d.CollectionDate,
		"collectionTime":      d.SlotLabel,
		"collectionTimeKey":   d.SlotKey,
		"postcode":            d.Postcode,
		"addressLine1":        d.AddressLine1,
		"town":                d.Town,
		"sameContact":         d.SameContact,
		"notificationMethods": notifications,
		"wasteTypesSelected":  wasteTypes,
		"jobDescription":      d.Description,
		"urgent":              d.Urgent,
		"paymentMethod":       d.PaymentMethod,
		"paymentStatus":       d.PaymentStatus,
	}

	setIfPresent(payload, "companyName", d.CompanyName)
	setIfPresent(payload, "addressLine2", d.AddressLine2)
	setIfPresent(payload, "county", d.County)
	setIfPresent(payload, "specialInstructions", d.SpecialInstructions)
	setIfPresent(payload, "paymentReference", d.PaymentReference)
	if !d.SameContact {
		setIfPresent(payload, "altContactName", d.AltContactName)
		setIfPresent(payload, "altContactPhone", d.AltContactPhone)
	}

	return payload
}

func setIfPresent(payload map[string]interface{}, key, value string) {
	if value != "" {
		payload[key] = value
	}
}
