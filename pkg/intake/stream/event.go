// Package stream turns a turn's output into an ordered sequence of typed wire events.
package stream

type EventType string

const (
	TypeConnected         EventType = "connected"
	TypeText              EventType = "text"
	TypeTyping            EventType = "typing"
	TypeToolCall          EventType = "tool_call"
	TypeToolResult        EventType = "tool_result"
	TypeSecurityBlock     EventType = "security_block"
	TypePipelineResponse  EventType = "pipeline_response"
	TypeFinal             EventType = "final"
	TypeComplete          EventType = "complete"
	TypeError             EventType = "error"
	TypeMatterCanvas      EventType = "matter_canvas"
	TypeDocumentChecklist EventType = "document_checklist"
	TypePDFGeneration     EventType = "pdf_generation"
	TypeLawyerSearch      EventType = "lawyer_search"
)

var knownTypes = map[EventType]bool{
	TypeConnected:         true,
	TypeText:              true,
	TypeTyping:            true,
	TypeToolCall:          true,
	TypeToolResult:        true,
	TypeSecurityBlock:     true,
	TypePipelineResponse:  true,
	TypeFinal:             true,
	TypeComplete:          true,
	TypeError:             true,
	TypeMatterCanvas:      true,
	TypeDocumentChecklist: true,
	TypePDFGeneration:     true,
	TypeLawyerSearch:      true,
}

func (t EventType) Known() bool {
	return knownTypes[t]
}

// Event is a tagged union; Type decides which of the other fields are meaningful.
type Event struct {
	Type          EventType   `json:"type"`
	Text          string      `json:"text,omitempty"`
	ToolName      string      `json:"toolName,omitempty"`
	Result        interface{} `json:"result,omitempty"`
	Content       string      `json:"content,omitempty"`
	Message       string      `json:"message,omitempty"`
	CorrelationID string      `json:"correlationId,omitempty"`
	BlockedBy     string      `json:"blockedBy,omitempty"`
	Middleware    []string    `json:"middlewareUsed,omitempty"`
	State         interface{} `json:"state,omitempty"`
	Data          interface{} `json:"data,omitempty"`
}

func Connected() Event { return Event{Type: TypeConnected} }

func Text(delta string) Event { return Event{Type: TypeText, Text: delta} }

func Typing() Event { return Event{Type: TypeTyping} }

func Complete() Event { return Event{Type: TypeComplete} }

func ToolCall(name string) Event {
	return Event{Type: TypeToolCall, ToolName: name}
}

func ToolResult(name string, result interface{}) Event {
	return Event{Type: TypeToolResult, ToolName: name, Result: result}
}

func SecurityBlock(content, blockedBy string) Event {
	return Event{Type: TypeSecurityBlock, Content: content, BlockedBy: blockedBy}
}

func PipelineResponse(content string, middleware []string) Event {
	return Event{Type: TypePipelineResponse, Content: content, Middleware: middleware}
}

// Final carries the turn's full reply and an optional state snapshot.
func Final(content string, state interface{}) Event {
	return Event{Type: TypeFinal, Content: content, State: state}
}

func Error(message, correlationID string) Event {
	return Event{Type: TypeError, Message: message, CorrelationID: correlationID}
}
