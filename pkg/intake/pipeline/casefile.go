package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"legal-intake-be/internal/entity"
	"legal-intake-be/pkg/intake/signals"
)

const (
	maxKeyFacts     = 10
	minFactWords    = 4
	generalMatter   = "general"
	draftTitleWords = 12
)

var now = time.Now

var defaultDocumentRequirements = []string{
	"Government-issued photo ID",
	"Any written agreements or contracts",
	"Relevant correspondence (emails, letters, texts)",
	"A timeline of key events with dates",
}

// PDFGenerator renders a case draft to a stored PDF.
type PDFGenerator interface {
	Generate(ctx context.Context, conv entity.ConversationContext, draft entity.CaseDraft) (*entity.GeneratedPDF, error)
}

// CaseDraft builds the structured case description on request. A draft for
// the same matter is only rebuilt when the user asks for a revision.
func CaseDraft() Middleware {
	return Middleware{
		Name: NameCaseDraft,
		Handle: func(ctx context.Context, messages []entity.Message, conv entity.ConversationContext, team *entity.TeamConfig) (Outcome, error) {
			last := entity.LastUserMessage(messages)
			revise := signals.AsksForRevision(last)
			if !revise && !signals.AsksForDraft(last) {
				return Pass(conv), nil
			}
			matterType := conv.PrimaryMatterType()
			if matterType == "" {
				return Pass(conv), nil
			}

			existing := conv.CaseDraft
			if existing != nil && existing.MatterType == matterType && !revise {
				return Respond(renderDraft(*existing), conv), nil
			}

			draft := buildDraft(matterType, messages)
			if existing != nil && existing.MatterType == matterType {
				draft.Revision = existing.Revision + 1
			}
			conv.CaseDraft = &draft
			conv = conv.Advance(entity.PhaseDrafted)
			return Respond(renderDraft(draft), conv), nil
		},
	}
}

// DocumentChecklist answers document questions, and fills the checklist
// silently once a draft exists.
func DocumentChecklist() Middleware {
	return Middleware{
		Name: NameDocumentChecklist,
		Handle: func(ctx context.Context, messages []entity.Message, conv entity.ConversationContext, team *entity.TeamConfig) (Outcome, error) {
			explicit := signals.AsksForDocuments(entity.LastUserMessage(messages))
			auto := conv.ConversationPhase == entity.PhaseDrafted && conv.DocumentChecklist == nil
			if !explicit && !auto {
				return Pass(conv), nil
			}

			matterType := conv.PrimaryMatterType()
			if matterType == "" {
				matterType = generalMatter
			}
			required := team.DocumentRequirements[matterType]
			if len(required) == 0 {
				required = defaultDocumentRequirements
			}
			checklist := entity.DocumentChecklist{
				MatterType: matterType,
				Required:   append([]string(nil), required...),
				Provided:   providedDocuments(conv.AnalyzedDocuments),
			}
			conv.DocumentChecklist = &checklist
			conv = conv.Advance(entity.PhaseDocumentCheck)

			if !explicit {
				return Pass(conv), nil
			}
			return Respond(renderChecklist(checklist), conv), nil
		},
	}
}

// PDFGeneration renders the current draft when the user asks for a copy.
func PDFGeneration(generator PDFGenerator) Middleware {
	return Middleware{
		Name: NamePDFGeneration,
		Handle: func(ctx context.Context, messages []entity.Message, conv entity.ConversationContext, team *entity.TeamConfig) (Outcome, error) {
			if generator == nil || conv.CaseDraft == nil || !signals.AsksForPDF(entity.LastUserMessage(messages)) {
				return Pass(conv), nil
			}
			pdf, err := generator.Generate(ctx, conv, *conv.CaseDraft)
			if err != nil {
				return Outcome{}, fmt.Errorf("generate pdf: %w", err)
			}
			conv.GeneratedPDF = pdf
			return Respond(fmt.Sprintf("Your case summary is ready to download: %s.", pdf.Filename), conv), nil
		},
	}
}

func buildDraft(matterType string, messages []entity.Message) entity.CaseDraft {
	facts := []string{}
	seen := map[string]bool{}
	for _, m := range messages {
		if m.Role != entity.RoleUser || signals.AsksForDraft(m.Content) || signals.AsksForRevision(m.Content) {
			continue
		}
		for _, s := range signals.FactSentences(m.Content, minFactWords) {
			key := signals.Normalize(s)
			if seen[key] || signals.HasContactInfo(s) {
				continue
			}
			seen[key] = true
			facts = append(facts, s)
		}
	}
	if len(facts) > maxKeyFacts {
		facts = facts[len(facts)-maxKeyFacts:]
	}

	summary := fmt.Sprintf("%s matter", capitalize(HumanizeMatter(matterType)))
	if len(facts) > 0 {
		summary += ": " + firstWords(facts[0], draftTitleWords)
	}
	return entity.CaseDraft{
		MatterType: matterType,
		KeyFacts:   facts,
		Summary:    summary,
		CreatedAt:  now().UTC(),
	}
}

func providedDocuments(docs []entity.DocumentAnalysisRef) []string {
	out := []string{}
	for _, d := range docs {
		if d.FileName != "" {
			out = append(out, d.FileName)
		}
	}
	return out
}

func renderDraft(d entity.CaseDraft) string {
	var b strings.Builder
	b.WriteString("Here is a summary of your case so far.\n\n")
	b.WriteString(d.Summary)
	b.WriteString("\n")
	if len(d.KeyFacts) > 0 {
		b.WriteString("\nKey facts:\n")
		for _, f := range d.KeyFacts {
			b.WriteString("- ")
			b.WriteString(f)
			b.WriteString("\n")
		}
	}
	b.WriteString("\nLet me know if anything needs to be corrected.")
	return b.String()
}

func renderChecklist(c entity.DocumentChecklist) string {
	var b strings.Builder
	fmt.Fprintf(&b, "For a %s matter, please gather the following documents:\n", HumanizeMatter(c.MatterType))
	for _, r := range c.Required {
		b.WriteString("- ")
		b.WriteString(r)
		b.WriteString("\n")
	}
	if len(c.Provided) > 0 {
		b.WriteString("\nWe already have: ")
		b.WriteString(strings.Join(c.Provided, ", "))
		b.WriteString(".")
	}
	return strings.TrimRight(b.String(), "\n")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func firstWords(s string, n int) string {
	words := strings.Fields(s)
	if len(words) <= n {
		return strings.Join(words, " ")
	}
	return strings.Join(words[:n], " ") + "..."
}
