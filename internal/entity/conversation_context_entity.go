package entity

import "time"

type ConversationPhase string

const (
	PhaseGreeting      ConversationPhase = "greeting"
	PhaseGathering     ConversationPhase = "gathering"
	PhaseDrafted       ConversationPhase = "drafted"
	PhaseDocumentCheck ConversationPhase = "document_check"
	PhaseHandoff       ConversationPhase = "handoff"
	PhaseClosed        ConversationPhase = "closed"
)

var phaseOrder = map[ConversationPhase]int{
	PhaseGreeting:      0,
	PhaseGathering:     1,
	PhaseDrafted:       2,
	PhaseDocumentCheck: 3,
	PhaseHandoff:       4,
	PhaseClosed:        5,
}

// Rank orders phases; unknown phases rank as greeting.
func (p ConversationPhase) Rank() int {
	return phaseOrder[p]
}

func (p ConversationPhase) Valid() bool {
	_, ok := phaseOrder[p]
	return ok
}

type Matter struct {
	MatterType    string    `json:"matterType"`
	Description   string    `json:"description"`
	EstablishedAt time.Time `json:"establishedAt"`
}

type CaseDraft struct {
	MatterType string    `json:"matter_type"`
	KeyFacts   []string  `json:"key_facts"`
	Summary    string    `json:"summary"`
	Revision   int       `json:"revision"`
	CreatedAt  time.Time `json:"created_at"`
}

type DocumentChecklist struct {
	MatterType string   `json:"matter_type"`
	Required   []string `json:"required"`
	Provided   []string `json:"provided"`
}

type GeneratedPDF struct {
	Filename    string    `json:"filename"`
	Size        int64     `json:"size"`
	GeneratedAt time.Time `json:"generatedAt"`
	MatterType  string    `json:"matterType"`
	StorageKey  string    `json:"storageKey"`
}

type Lawyer struct {
	Name       string   `json:"name" yaml:"name"`
	Email      string   `json:"email,omitempty" yaml:"email"`
	Phone      string   `json:"phone,omitempty" yaml:"phone"`
	Practices  []string `json:"practices" yaml:"practices"`
	ProfileURL string   `json:"profileUrl,omitempty" yaml:"profileUrl"`
}

type LawyerSearchResults struct {
	MatterType string   `json:"matterType"`
	Lawyers    []Lawyer `json:"lawyers"`
	Total      int      `json:"total"`
}

// DocumentAnalysisRef is what the analysis worker leaves behind in the conversation.
// Legacy jobs only carry a Preview.
type DocumentAnalysisRef struct {
	StatusID   string    `json:"statusId,omitempty"`
	FileName   string    `json:"fileName"`
	Summary    string    `json:"summary,omitempty"`
	Preview    string    `json:"preview,omitempty"`
	Confidence float64   `json:"confidence"`
	AnalyzedAt time.Time `json:"analyzedAt"`
}

// ConversationContext is the per-session state carried between turns.
// Values are copied with Clone before being handed to a middleware; nothing
// that holds a ConversationContext may mutate the slices or pointers of a
// value it did not clone itself.
type ConversationContext struct {
	SessionID           string                `json:"sessionId"`
	OrganizationID      string                `json:"organizationId"`
	EstablishedMatters  []Matter              `json:"establishedMatters"`
	UserIntent          *string               `json:"userIntent"`
	ConversationPhase   ConversationPhase     `json:"conversationPhase"`
	CaseDraft           *CaseDraft            `json:"caseDraft,omitempty"`
	DocumentChecklist   *DocumentChecklist    `json:"documentChecklist,omitempty"`
	GeneratedPDF        *GeneratedPDF         `json:"generatedPDF,omitempty"`
	LawyerSearchResults *LawyerSearchResults  `json:"lawyerSearchResults,omitempty"`
	AnalyzedDocuments   []DocumentAnalysisRef `json:"analyzedDocuments,omitempty"`
	MatterID            string                `json:"matterId,omitempty"`
	UpdatedAt           time.Time             `json:"updatedAt"`
}

func NewConversationContext(sessionID, organizationID string) ConversationContext {
	return ConversationContext{
		SessionID:          sessionID,
		OrganizationID:     organizationID,
		EstablishedMatters: []Matter{},
		ConversationPhase:  PhaseGreeting,
	}
}

// Clone returns a deep copy.
func (c ConversationContext) Clone() ConversationContext {
	out := c
	out.EstablishedMatters = append([]Matter(nil), c.EstablishedMatters...)
	if out.EstablishedMatters == nil {
		out.EstablishedMatters = []Matter{}
	}
	if c.UserIntent != nil {
		intent := *c.UserIntent
		out.UserIntent = &intent
	}
	if c.CaseDraft != nil {
		draft := *c.CaseDraft
		draft.KeyFacts = append([]string(nil), c.CaseDraft.KeyFacts...)
		out.CaseDraft = &draft
	}
	if c.DocumentChecklist != nil {
		list := *c.DocumentChecklist
		list.Required = append([]string(nil), c.DocumentChecklist.Required...)
		list.Provided = append([]string(nil), c.DocumentChecklist.Provided...)
		out.DocumentChecklist = &list
	}
	if c.GeneratedPDF != nil {
		pdf := *c.GeneratedPDF
		out.GeneratedPDF = &pdf
	}
	if c.LawyerSearchResults != nil {
		res := *c.LawyerSearchResults
		res.Lawyers = make([]Lawyer, len(c.LawyerSearchResults.Lawyers))
		for i, l := range c.LawyerSearchResults.Lawyers {
			l.Practices = append([]string(nil), l.Practices...)
			res.Lawyers[i] = l
		}
		out.LawyerSearchResults = &res
	}
	if c.AnalyzedDocuments != nil {
		out.AnalyzedDocuments = append([]DocumentAnalysisRef(nil), c.AnalyzedDocuments...)
	}
	return out
}

// Advance moves the phase forward. Moving backwards is a no-op; use Reset.
func (c ConversationContext) Advance(to ConversationPhase) ConversationContext {
	if !to.Valid() || to.Rank() <= c.ConversationPhase.Rank() {
		return c
	}
	c.ConversationPhase = to
	return c
}

// Reset is the only way back to greeting.
func (c ConversationContext) Reset() ConversationContext {
	fresh := NewConversationContext(c.SessionID, c.OrganizationID)
	fresh.AnalyzedDocuments = c.AnalyzedDocuments
	return fresh
}

func (c ConversationContext) WithIntent(intent string) ConversationContext {
	c.UserIntent = &intent
	return c
}

func (c ConversationContext) HasMatter(matterType string) bool {
	for _, m := range c.EstablishedMatters {
		if m.MatterType == matterType {
			return true
		}
	}
	return false
}

// PrimaryMatterType is the first matter established in the conversation.
func (c ConversationContext) PrimaryMatterType() string {
	if len(c.EstablishedMatters) == 0 {
		return ""
	}
	return c.EstablishedMatters[0].MatterType
}
