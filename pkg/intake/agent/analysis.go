package agent

import (
	"context"
	"fmt"
	"net/url"
	"path"

	"legal-intake-be/internal/pkg/logger"
	"legal-intake-be/pkg/intake/router"
	"legal-intake-be/pkg/intake/stream"
	"legal-intake-be/pkg/llm"
)

const ToolAnalyzeDocument = "analyze_document"

const analysisPrompt = `You are a legal intake assistant reviewing documents the user shared.
If documents were just queued, tell the user analysis is underway and results will appear shortly.
If analysis results are listed in the conversation state, explain them briefly and ask what they would like to do next.`

type AnalysisAgent struct {
	provider llm.LLMProvider
	queue    DocumentQueue
	logger   logger.ILogger
}

func NewAnalysisAgent(provider llm.LLMProvider, queue DocumentQueue, log logger.ILogger) *AnalysisAgent {
	return &AnalysisAgent{provider: provider, queue: queue, logger: log}
}

func (a *AnalysisAgent) Name() router.Agent { return router.AgentAnalysis }

func (a *AnalysisAgent) Run(ctx context.Context, req Request, sink *stream.Sink) (Result, error) {
	var notes []string

	for _, att := range req.Attachments {
		if err := sink.Emit(stream.ToolCall(ToolAnalyzeDocument)); err != nil {
			return Result{}, err
		}
		if err := sink.Emit(stream.Typing()); err != nil {
			return Result{}, err
		}

		name := att.Name
		if name == "" {
			name = fileNameFromURL(att.URL)
		}
		result := map[string]interface{}{"fileName": name}
		statusID, err := a.enqueue(ctx, req, att.URL, name, att.Type, att.Size)
		if err != nil {
			a.logger.Warn("AGENT", "Failed to enqueue document analysis", map[string]interface{}{
				"session_id": req.Context.SessionID,
				"file":       name,
				"error":      err.Error(),
			})
			result["error"] = "The document could not be queued for analysis."
			notes = append(notes, fmt.Sprintf("document %q could not be queued for analysis", name))
		} else {
			result["statusId"] = statusID
			notes = append(notes, fmt.Sprintf("document %q queued for analysis", name))
		}

		clean, derived := stream.ToolResultEvents(result)
		if err := sink.Emit(stream.ToolResult(ToolAnalyzeDocument, clean)); err != nil {
			return Result{}, err
		}
		for _, ev := range derived {
			if err := sink.Emit(ev); err != nil {
				return Result{}, err
			}
		}
	}

	reply, err := streamReply(ctx, a.provider, sink, analysisPrompt, req, notes...)
	if err != nil {
		return Result{}, err
	}
	return Result{Reply: reply, Context: req.Context}, nil
}

func (a *AnalysisAgent) enqueue(ctx context.Context, req Request, rawURL, name, mime string, size int64) (string, error) {
	if a.queue == nil {
		return "", fmt.Errorf("no document queue configured")
	}
	return a.queue.EnqueueAnalysis(ctx, req.Context.SessionID, req.Context.OrganizationID, DocumentFile{
		Key:  rawURL,
		Name: name,
		Mime: mime,
		Size: size,
	})
}

func fileNameFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "document"
	}
	if base := path.Base(u.Path); base != "." && base != "/" {
		return base
	}
	return "document"
}
