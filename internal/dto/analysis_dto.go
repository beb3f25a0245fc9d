package dto

const JobTypeAnalyzeUploadedDocument = "analyze_uploaded_document"

type AnalysisJobFile struct {
	Key  string `json:"key"`
	Name string `json:"name"`
	Mime string `json:"mime"`
	Size int64  `json:"size"`
}

// AnalysisJob is the queue message. Auto jobs carry Type, File and StatusID;
// legacy jobs only carry Key and Mime at the top level.
type AnalysisJob struct {
	Type           string           `json:"type,omitempty"`
	SessionID      string           `json:"sessionId"`
	OrganizationID string           `json:"organizationId"`
	File           *AnalysisJobFile `json:"file,omitempty"`
	StatusID       string           `json:"statusId,omitempty"`

	Key  string `json:"key,omitempty"`
	Mime string `json:"mime,omitempty"`
}

func (j AnalysisJob) IsAuto() bool {
	return j.Type == JobTypeAnalyzeUploadedDocument
}

type AnalyzeDocumentRequest struct {
	SessionID string `json:"sessionId" validate:"required,max=128"`
	TeamID    string `json:"teamId" validate:"required,max=128"`
	Key       string `json:"key" validate:"required"`
	Name      string `json:"name" validate:"required,max=255"`
	Mime      string `json:"mime" validate:"omitempty,max=128"`
	Size      int64  `json:"size" validate:"gte=0,lte=10485760"`
}

type AnalyzeDocumentResponse struct {
	StatusID string `json:"statusId"`
}
