package entity

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type Attachment struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
	Size int64  `json:"size"`
	Type string `json:"type"`
	URL  string `json:"url"`
}

// LastUserMessage returns the content of the most recent user turn.
func LastUserMessage(messages []Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == RoleUser {
			return messages[i].Content
		}
	}
	return ""
}

// PreviousAssistantMessage returns the assistant turn right before the latest user turn.
func PreviousAssistantMessage(messages []Message) string {
	seenUser := false
	for i := len(messages) - 1; i >= 0; i-- {
		switch messages[i].Role {
		case RoleUser:
			if seenUser {
				return ""
			}
			seenUser = true
		case RoleAssistant:
			if seenUser {
				return messages[i].Content
			}
		}
	}
	return ""
}
