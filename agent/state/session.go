package state

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// FieldOrder is the canonical reporting order for opportunity fields.
// Missing-field messages always enumerate outstanding fields in this order.
var FieldOrder = []string{
	FieldContactName,
	FieldCompanyName,
	FieldDealStage,
	FieldAmount,
	FieldCloseDate,
}

const (
	FieldContactName = "contact_name"
	FieldCompanyName = "company_name"
	FieldDealStage   = "deal_stage"
	FieldAmount      = "amount"
	FieldCloseDate   = "close_date"
)

const closeDateLayout = "2006-01-02"

// OpportunityDraft is the partially-filled opportunity record assembled
// across turns. Empty string means the field has not been provided yet.
type OpportunityDraft struct {
	ContactName string `json:"contact_name,omitempty"`
	CompanyName string `json:"company_name,omitempty"`
	DealStage   string `json:"deal_stage,omitempty"`
	Amount      string `json:"amount,omitempty"`
	CloseDate   string `json:"close_date,omitempty"`
}

// SessionState is the persistent per-conversation source of truth: the
// opportunity draft being accumulated and the company currently under
// discussion. One SessionState exists per session id; concurrent sessions
// never share one.
type SessionState struct {
	SessionID string           `json:"session_id"`
	Draft     OpportunityDraft `json:"draft,omitempty"`
	Company   string           `json:"company,omitempty"`
	UpdatedAt time.Time        `json:"updated_at"`
}

func NewSessionState(sessionID string, now time.Time) *SessionState {
	return &SessionState{
		SessionID: sessionID,
		UpdatedAt: now.UTC(),
	}
}

func (s *SessionState) Touch(now time.Time) {
	s.UpdatedAt = now.UTC()
}

// ResetDraft drops every accumulated field. Used on explicit reset commands
// and after a successful submission consumes the draft.
func (s *SessionState) ResetDraft() {
	s.Draft = OpportunityDraft{}
}

// SetCompany records the company currently under discussion (lowercased).
func (s *SessionState) SetCompany(name string) {
	s.Company = strings.ToLower(strings.TrimSpace(name))
}

/* --------------------------- Draft helpers --------------------------- */

// Merge applies newly extracted values with most-recent-wins semantics:
// a non-empty extracted value overwrites the stored one, empty values leave
// the stored value untouched. Nothing is ever deleted here.
func (d *OpportunityDraft) Merge(contactName, companyName, dealStage, amount, closeDate string) {
	if v := strings.TrimSpace(contactName); v != "" {
		d.ContactName = v
	}
	if v := strings.TrimSpace(companyName); v != "" {
		d.CompanyName = v
	}
	if v := strings.TrimSpace(dealStage); v != "" {
		d.DealStage = v
	}
	if v := strings.TrimSpace(amount); v != "" {
		d.Amount = v
	}
	if v := strings.TrimSpace(closeDate); v != "" {
		d.CloseDate = v
	}
}

// Missing returns outstanding field names in FieldOrder. A field that is
// present but malformed counts as missing: completion requires amount to be
// numeric and close_date to be an ISO calendar date.
func (d OpportunityDraft) Missing() []string {
	var missing []string
	if d.ContactName == "" {
		missing = append(missing, FieldContactName)
	}
	if d.CompanyName == "" {
		missing = append(missing, FieldCompanyName)
	}
	if d.DealStage == "" {
		missing = append(missing, FieldDealStage)
	}
	if !validAmount(d.Amount) {
		missing = append(missing, FieldAmount)
	}
	if !validCloseDate(d.CloseDate) {
		missing = append(missing, FieldCloseDate)
	}
	return missing
}

// Complete reports whether all five fields are present and valid.
func (d OpportunityDraft) Complete() bool {
	return len(d.Missing()) == 0
}

func (d OpportunityDraft) IsEmpty() bool {
	return d == OpportunityDraft{}
}

// Render produces the textual form of the draft handed to the extraction
// prompt as prior context. Returns "None" for an empty draft.
func (d OpportunityDraft) Render() string {
	if d.IsEmpty() {
		return "None"
	}
	var b strings.Builder
	writeLine := func(label, v string) {
		if v == "" {
			return
		}
		fmt.Fprintf(&b, "%s: %s\n", label, v)
	}
	writeLine("Contact Name", d.ContactName)
	writeLine("Company Name", d.CompanyName)
	writeLine("Deal Stage", d.DealStage)
	writeLine("Amount", d.Amount)
	writeLine("Close Date", d.CloseDate)
	return strings.TrimRight(b.String(), "\n")
}

func validAmount(s string) bool {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "$"))
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return false
	}
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

func validCloseDate(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	_, err := time.Parse(closeDateLayout, s)
	return err == nil
}
