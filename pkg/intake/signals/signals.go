// Package signals holds the deterministic text detectors shared by the
// router, the context updater and the pipeline middleware.
package signals

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
)

const (
	IntentGreeting        = "greeting"
	IntentSeekingLawyer   = "seeking_lawyer"
	IntentDocumentHelp    = "document_help"
	IntentCaseDescription = "case_description"
	IntentQuestion        = "question"
	IntentGeneral         = "general"
)

var (
	emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	phonePattern = regexp.MustCompile(`(\+?\d{1,2}[\s.\-]?)?\(?\d{3}\)?[\s.\-]?\d{3}[\s.\-]?\d{4}`)
)

// IntakeMarkers are phrases the intake flow uses when collecting contact details.
var IntakeMarkers = []string{
	"can you please provide your full name",
	"could you please provide your full name",
	"what is your full name",
	"what is the best phone number",
	"what's the best phone number",
	"can you please provide your phone number",
	"what is your email address",
	"what's your email address",
	"can you please provide your email",
	"please provide your contact information",
}

var humanRequestPhrases = []string{
	"speak to a lawyer",
	"speak with a lawyer",
	"talk to a lawyer",
	"talk with a lawyer",
	"speak to an attorney",
	"speak with an attorney",
	"talk to an attorney",
	"talk to a human",
	"speak to a human",
	"real person",
	"connect me with",
	"hire a lawyer",
	"hire an attorney",
	"need a lawyer",
	"need an attorney",
	"want a lawyer",
	"want an attorney",
	"skip to lawyer",
}

var attorneyOfferPhrases = []string{
	"would you like me to connect you with",
	"would you like to speak with an attorney",
	"would you like to speak with a lawyer",
	"would you like to talk to a lawyer",
	"connect you with a lawyer",
	"connect you with an attorney",
}

var shortAffirmatives = map[string]bool{
	"yes": true, "yeah": true, "yep": true, "sure": true, "ok": true, "okay": true,
}

var documentKeywords = []string{
	"analyze this document",
	"analyze my document",
	"review this document",
	"review my document",
	"review my contract",
	"look at this file",
	"look at this document",
	"i uploaded",
	"i've uploaded",
	"i attached",
	"attached file",
	"attached document",
	"document analysis",
}

var paralegalKeywords = []string{
	"paralegal",
	"legal research",
	"draft a letter",
	"draft a demand letter",
	"fill out the form",
	"prepare the paperwork",
}

var paymentAckPhrases = []string{
	"i paid",
	"i've paid",
	"i have paid",
	"just paid",
	"payment complete",
	"payment completed",
	"payment went through",
	"payment is done",
}

var legalContextKeywords = []string{
	"lawyer", "attorney", "legal", "court", "case", "lawsuit", "sue",
	"divorce", "custody", "eviction", "landlord", "contract", "my will",
	"estate", "arrest", "charged", "visa", "immigration", "injury",
}

var documentRequestPhrases = []string{
	"what documents",
	"which documents",
	"what do i need to bring",
	"what paperwork",
	"documents do i need",
	"document checklist",
}

var draftRequestPhrases = []string{
	"summarize my case",
	"case summary",
	"draft my case",
	"draft a summary",
	"put together my case",
	"what do you have so far",
}

var draftRevisionPhrases = []string{
	"revise my case",
	"update my case",
	"revise the summary",
	"update the summary",
	"that's not right",
}

var pdfRequestPhrases = []string{
	"pdf",
	"download my case",
	"download the summary",
	"send me a copy",
	"printable",
}

var lawyerSearchPhrases = []string{
	"find a lawyer",
	"find an attorney",
	"find me a lawyer",
	"find me an attorney",
	"recommend a lawyer",
	"which lawyers",
	"lawyers near me",
}

var greetingWords = map[string]bool{
	"hi": true, "hello": true, "hey": true, "good morning": true, "good afternoon": true, "good evening": true,
}

// matterKeywords maps a matter type to the phrases that establish it.
var matterKeywords = map[string][]string{
	"family_law":            {"divorce", "custody", "child support", "alimony", "separation", "adoption"},
	"landlord_tenant":       {"eviction", "evicted", "landlord", "tenant", "lease", "security deposit"},
	"employment":            {"fired", "terminated", "wrongful termination", "my employer", "overtime", "harassment at work", "wages"},
	"personal_injury":       {"injury", "injured", "accident", "slip and fall", "medical malpractice"},
	"criminal":              {"arrested", "charged with", "dui", "criminal", "probation", "warrant"},
	"immigration":           {"visa", "green card", "immigration", "deportation", "asylum", "citizenship"},
	"estate_planning":       {"my will", "a will", "last will", "trust", "estate", "probate", "power of attorney", "inheritance"},
	"business":              {"my business", "llc", "partnership", "breach of contract", "contract dispute"},
	"consumer":              {"debt collector", "credit report", "scam", "refund"},
	"bankruptcy":            {"bankruptcy", "chapter 7", "chapter 13", "foreclosure"},
	"intellectual_property": {"trademark", "copyright", "patent"},
}

// Normalize lowercases and collapses whitespace.
func Normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

func ContainsAny(text string, phrases []string) bool {
	norm := Normalize(text)
	for _, p := range phrases {
		if p != "" && strings.Contains(norm, Normalize(p)) {
			return true
		}
	}
	return false
}

// containsWord matches a phrase on word boundaries ("will" must not match "willing").
func containsWord(norm, phrase string) bool {
	idx := 0
	for {
		i := strings.Index(norm[idx:], phrase)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(phrase)
		before := start == 0 || !isWordRune(rune(norm[start-1]))
		after := end == len(norm) || !isWordRune(rune(norm[end]))
		if before && after {
			return true
		}
		idx = start + 1
	}
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

func HasIntakeMarker(text string) bool {
	return ContainsAny(text, IntakeMarkers)
}

func HasContactInfo(text string) bool {
	return emailPattern.MatchString(text) || phonePattern.MatchString(text)
}

// ExtractContact returns the first email and phone number found in text.
func ExtractContact(text string) (email, phone string) {
	return emailPattern.FindString(text), strings.TrimSpace(phonePattern.FindString(text))
}

func RequestsHuman(text string) bool {
	return ContainsAny(text, humanRequestPhrases)
}

func OffersAttorney(text string) bool {
	return ContainsAny(text, attorneyOfferPhrases)
}

// IsShortAffirmative accepts a single affirmative token, ignoring case and punctuation.
func IsShortAffirmative(text string) bool {
	trimmed := strings.TrimFunc(Normalize(text), func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSpace(r)
	})
	return shortAffirmatives[trimmed]
}

func MentionsDocuments(text string) bool {
	return ContainsAny(text, documentKeywords)
}

func MentionsParalegal(text string) bool {
	return ContainsAny(text, paralegalKeywords)
}

func AcknowledgesPayment(text string) bool {
	return ContainsAny(text, paymentAckPhrases)
}

func HasLegalContext(text string) bool {
	norm := Normalize(text)
	for _, k := range legalContextKeywords {
		if containsWord(norm, k) {
			return true
		}
	}
	return false
}

func AsksForDocuments(text string) bool {
	return ContainsAny(text, documentRequestPhrases)
}

func AsksForDraft(text string) bool {
	return ContainsAny(text, draftRequestPhrases)
}

func AsksForRevision(text string) bool {
	return ContainsAny(text, draftRevisionPhrases)
}

func AsksForPDF(text string) bool {
	return ContainsAny(text, pdfRequestPhrases)
}

func AsksForLawyerSearch(text string) bool {
	return ContainsAny(text, lawyerSearchPhrases)
}

// DetectMatterTypes returns matter types mentioned in text, sorted for determinism.
func DetectMatterTypes(text string) []string {
	norm := Normalize(text)
	var found []string
	for matterType, keywords := range matterKeywords {
		for _, k := range keywords {
			if containsWord(norm, k) {
				found = append(found, matterType)
				break
			}
		}
	}
	sort.Strings(found)
	return found
}

// MentionedTerms returns the configured terms that appear in text on word boundaries.
func MentionedTerms(text string, terms []string) []string {
	norm := Normalize(text)
	var out []string
	for _, t := range terms {
		nt := Normalize(t)
		if nt != "" && containsWord(norm, nt) {
			out = append(out, t)
		}
	}
	return out
}

// ClassifyIntent labels a single user message. Order matters: explicit
// requests outrank descriptive content.
func ClassifyIntent(text string) string {
	norm := Normalize(text)
	switch {
	case norm == "":
		return IntentGeneral
	case RequestsHuman(norm) || AsksForLawyerSearch(norm):
		return IntentSeekingLawyer
	case MentionsDocuments(norm) || AsksForDocuments(norm):
		return IntentDocumentHelp
	case len(DetectMatterTypes(norm)) > 0:
		return IntentCaseDescription
	case isGreeting(norm):
		return IntentGreeting
	case strings.HasSuffix(norm, "?"):
		return IntentQuestion
	default:
		return IntentGeneral
	}
}

func isGreeting(norm string) bool {
	trimmed := strings.TrimFunc(norm, func(r rune) bool { return unicode.IsPunct(r) || unicode.IsSpace(r) })
	if greetingWords[trimmed] {
		return true
	}
	first := strings.Fields(trimmed)
	return len(first) > 0 && len(first) <= 3 && greetingWords[strings.Trim(first[0], ",.!")]
}

// FactSentences splits text into sentences worth keeping as case facts.
func FactSentences(text string, minWords int) []string {
	var out []string
	for _, s := range splitSentences(text) {
		s = strings.TrimSpace(s)
		if len(strings.Fields(s)) < minWords || strings.HasSuffix(s, "?") {
			continue
		}
		out = append(out, s)
	}
	return out
}

func splitSentences(text string) []string {
	var (
		out     []string
		current strings.Builder
	)
	for _, r := range text {
		current.WriteRune(r)
		if r == '.' || r == '!' || r == '?' || r == '\n' {
			out = append(out, current.String())
			current.Reset()
		}
	}
	if strings.TrimSpace(current.String()) != "" {
		out = append(out, current.String())
	}
	return out
}
