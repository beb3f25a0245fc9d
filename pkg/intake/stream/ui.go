package stream

import (
	"encoding/json"
	"net/url"
	"sort"
	"strings"

	"legal-intake-be/internal/entity"

	"github.com/google/go-cmp/cmp"
)

// Structured keys a tool result may carry.
const (
	ResultMatter            = "matter"
	ResultCaseSummaryPDF    = "case_summary_pdf"
	ResultPaymentEmbed      = "payment_embed"
	ResultDocumentChecklist = "document_checklist"
	ResultLawyers           = "lawyers"
)

type MatterCanvas struct {
	MatterType  string   `json:"matterType"`
	Description string   `json:"description,omitempty"`
	Summary     string   `json:"summary,omitempty"`
	KeyFacts    []string `json:"keyFacts,omitempty"`
	Revision    int      `json:"revision"`
	MatterID    string   `json:"matterId,omitempty"`
}

type PaymentEmbed struct {
	CheckoutURL string  `json:"checkoutUrl"`
	Amount      float64 `json:"amount"`
	Currency    string  `json:"currency"`
	Description string  `json:"description,omitempty"`
}

// ToolResultEvents validates the structured payloads in a tool result. It
// returns the result with malformed payloads removed and the UI events
// derived from the valid ones. It never fails.
func ToolResultEvents(result interface{}) (map[string]interface{}, []Event) {
	fields := map[string]json.RawMessage{}
	raw, err := json.Marshal(result)
	if err != nil || json.Unmarshal(raw, &fields) != nil {
		return map[string]interface{}{}, nil
	}

	clean := make(map[string]interface{}, len(fields))
	var events []Event

	for key, value := range fields {
		switch key {
		case ResultMatter:
			var m MatterCanvas
			if json.Unmarshal(value, &m) != nil || strings.TrimSpace(m.MatterType) == "" {
				continue
			}
			clean[key] = m
			events = append(events, Event{Type: TypeMatterCanvas, Data: m})
		case ResultCaseSummaryPDF:
			var p entity.GeneratedPDF
			if json.Unmarshal(value, &p) != nil || p.Filename == "" || p.Size < 0 {
				continue
			}
			clean[key] = p
			events = append(events, Event{Type: TypePDFGeneration, Data: p})
		case ResultPaymentEmbed:
			var p PaymentEmbed
			if json.Unmarshal(value, &p) != nil || !isHTTPURL(p.CheckoutURL) || p.Amount < 0 {
				continue
			}
			clean[key] = p
		case ResultDocumentChecklist:
			var c entity.DocumentChecklist
			if json.Unmarshal(value, &c) != nil || c.MatterType == "" || len(c.Required) == 0 {
				continue
			}
			if c.Provided == nil {
				c.Provided = []string{}
			}
			clean[key] = c
			events = append(events, Event{Type: TypeDocumentChecklist, Data: c})
		case ResultLawyers:
			var l entity.LawyerSearchResults
			if json.Unmarshal(value, &l) != nil || !validLawyers(l) {
				continue
			}
			l.Total = len(l.Lawyers)
			clean[key] = l
			events = append(events, Event{Type: TypeLawyerSearch, Data: l})
		default:
			var v interface{}
			if json.Unmarshal(value, &v) == nil {
				clean[key] = v
			}
		}
	}

	sortEvents(events)
	return clean, events
}

// ContextEvents derives UI events from the context fields a turn changed.
func ContextEvents(before, after entity.ConversationContext) []Event {
	var events []Event

	switch {
	case after.CaseDraft != nil && !cmp.Equal(before.CaseDraft, after.CaseDraft):
		events = append(events, Event{Type: TypeMatterCanvas, Data: MatterCanvas{
			MatterType: after.CaseDraft.MatterType,
			Summary:    after.CaseDraft.Summary,
			KeyFacts:   after.CaseDraft.KeyFacts,
			Revision:   after.CaseDraft.Revision,
		}})
	case len(after.EstablishedMatters) > len(before.EstablishedMatters):
		latest := after.EstablishedMatters[len(after.EstablishedMatters)-1]
		events = append(events, Event{Type: TypeMatterCanvas, Data: MatterCanvas{
			MatterType:  latest.MatterType,
			Description: latest.Description,
		}})
	}

	if after.DocumentChecklist != nil && !cmp.Equal(before.DocumentChecklist, after.DocumentChecklist) {
		events = append(events, Event{Type: TypeDocumentChecklist, Data: *after.DocumentChecklist})
	}
	if after.GeneratedPDF != nil && !cmp.Equal(before.GeneratedPDF, after.GeneratedPDF) {
		events = append(events, Event{Type: TypePDFGeneration, Data: *after.GeneratedPDF})
	}
	if after.LawyerSearchResults != nil && !cmp.Equal(before.LawyerSearchResults, after.LawyerSearchResults) {
		events = append(events, Event{Type: TypeLawyerSearch, Data: *after.LawyerSearchResults})
	}
	return events
}

var uiOrder = map[EventType]int{
	TypeMatterCanvas:      0,
	TypeDocumentChecklist: 1,
	TypePDFGeneration:     2,
	TypeLawyerSearch:      3,
}

// sortEvents gives derived events a stable order regardless of map iteration.
func sortEvents(events []Event) {
	sort.SliceStable(events, func(i, j int) bool {
		return uiOrder[events[i].Type] < uiOrder[events[j].Type]
	})
}

func validLawyers(l entity.LawyerSearchResults) bool {
	if l.Lawyers == nil {
		return false
	}
	for _, lawyer := range l.Lawyers {
		if strings.TrimSpace(lawyer.Name) == "" {
			return false
		}
	}
	return true
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}
