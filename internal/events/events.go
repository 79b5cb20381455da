// Package events stores domain events in a transactional outbox table.
package events

// Event types emitted by the core services.
const (
	EventCustomerCreated      = "customer.created"
	EventCustomerTransitioned = "customer.transitioned"
	EventAccountLinked        = "account.linked"
	EventAccountUnlinked      = "account.unlinked"
	EventUsageRecorded        = "usage.recorded"
)

// CustomerPayload captures the minimal data downstream consumers need for
// customer lifecycle events.
type CustomerPayload struct {
	CustomerID string `json:"customer_id"`
	Status     string `json:"status"`
	PlanCode   string `json:"plan_code,omitempty"`
}

// ToMap converts the payload into an outbox-friendly map.
func (p CustomerPayload) ToMap() map[string]any {
	payload := map[string]any{
		"customer_id": p.CustomerID,
		"status":      p.Status,
	}
	if p.PlanCode != "" {
		payload["plan_code"] = p.PlanCode
	}
	return payload
}

// AccountLinkPayload captures link/unlink provenance for consumers.
type AccountLinkPayload struct {
	LinkID          string `json:"link_id"`
	CustomerID      string `json:"customer_id"`
	ThirdPartyEmail string `json:"third_party_email"`
	Actor           string `json:"actor,omitempty"`
}

// ToMap converts the payload into an outbox-friendly map.
func (p AccountLinkPayload) ToMap() map[string]any {
	payload := map[string]any{
		"link_id":           p.LinkID,
		"customer_id":       p.CustomerID,
		"third_party_email": p.ThirdPartyEmail,
	}
	if p.Actor != "" {
		payload["actor"] = p.Actor
	}
	return payload
}

// UsagePayload identifies an ingested usage record.
type UsagePayload struct {
	UsageRecordID string `json:"usage_record_id"`
	CustomerID    string `json:"customer_id"`
	AccountEmail  string `json:"account_email"`
}

// ToMap converts the payload into an outbox-friendly map.
func (p UsagePayload) ToMap() map[string]any {
	return map[string]any{
		"usage_record_id": p.UsageRecordID,
		"customer_id":     p.CustomerID,
		"account_email":   p.AccountEmail,
	}
}
