package pipeline

import "legal-intake-be/internal/pkg/logger"

type Deps struct {
	Logger    logger.ILogger
	Moderator Moderator
	PDF       PDFGenerator
	Lawyers   LawyerDirectory
}

// DefaultChain orders safety checks ahead of anything that writes case
// state, and skip_to_lawyer ahead of jurisdiction.
func DefaultChain(deps Deps) []Middleware {
	lawyers := deps.Lawyers
	if lawyers == nil {
		lawyers = RosterDirectory{}
	}
	return []Middleware{
		Logging(deps.Logger),
		ContentPolicy(deps.Moderator),
		BusinessScope(),
		SkipToLawyer(),
		Jurisdiction(),
		CaseDraft(),
		DocumentChecklist(),
		PDFGeneration(deps.PDF),
		LawyerSearch(lawyers),
	}
}
