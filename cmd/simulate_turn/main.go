package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"legal-intake-be/internal/config"
	"legal-intake-be/internal/entity"
	"legal-intake-be/internal/pkg/logger"
	"legal-intake-be/internal/repository/memory"
	"legal-intake-be/internal/service"
	"legal-intake-be/pkg/intake/pipeline"
	"legal-intake-be/pkg/intake/router"
	"legal-intake-be/pkg/intake/stream"

	"github.com/fatih/color"
)

// transcript is the replay input. Each user message is evaluated as one turn
// against everything said before it.
type transcript struct {
	SessionID   string              `json:"sessionId"`
	TeamID      string              `json:"teamId"`
	Messages    []entity.Message    `json:"messages"`
	Attachments []entity.Attachment `json:"attachments"`
}

func main() {
	transcriptPath := flag.String("transcript", "", "path to a transcript JSON file")
	teamsPath := flag.String("teams", "configs/teams.yaml", "path to the team config file")
	teamID := flag.String("team", "", "team id (overrides the transcript)")
	verbose := flag.Bool("v", false, "print the context after every turn")
	flag.Parse()

	if *transcriptPath == "" {
		color.Red("Usage: simulate_turn -transcript <file> [-teams configs/teams.yaml] [-team id]")
		os.Exit(2)
	}

	t, err := readTranscript(*transcriptPath)
	if err != nil {
		color.Red("Failed to read transcript: %v", err)
		os.Exit(1)
	}
	if *teamID != "" {
		t.TeamID = *teamID
	}

	teams, err := config.LoadTeamConfigs(*teamsPath)
	if err != nil {
		color.Red("Failed to load team configs: %v", err)
		os.Exit(1)
	}
	team := *teams.Get(t.TeamID)

	nop := logger.NewNopLogger()
	contexts := service.NewContextService(memory.NewConversationContextRepository(), nop)
	chain := pipeline.New(nop, pipeline.DefaultChain(pipeline.Deps{Logger: nop})...)

	// Moderation needs a model; the replay only exercises the local rules.
	team.Policy.ModerationEnabled = false
	teamCfg := &team

	color.Cyan("Replaying %d messages for team %q (%s)\n", len(t.Messages), team.ID, team.Name)

	ctx := context.Background()
	conv := entity.NewConversationContext(t.SessionID, team.ID)
	turn := 0
	for i, msg := range t.Messages {
		if msg.Role != "user" {
			continue
		}
		turn++
		history := t.Messages[:i+1]

		color.Yellow("\n[TURN %d] %s", turn, firstLine(msg.Content))

		decision := router.Route(router.Turn{Messages: history, Attachments: t.Attachments}, teamCfg)
		fmt.Printf("  route:    %s (%s)\n", color.BlueString(string(decision.Agent)), decision.Reason)

		before := conv.Clone()
		updated := contexts.UpdateContext(conv, history)
		result := chain.Run(ctx, history, updated, teamCfg)
		fmt.Printf("  pipeline: %s\n", strings.Join(result.MiddlewareUsed, " > "))

		switch {
		case result.Blocked:
			color.Red("  blocked by %s: %s", result.BlockedBy, *result.Response)
			continue
		case result.Answered():
			color.Green("  answered: %s", firstLine(*result.Response))
		default:
			fmt.Printf("  answered: %s\n", color.HiBlackString("no, handed to %s agent", decision.Agent))
		}

		conv = result.Context
		fmt.Printf("  phase:    %s\n", conv.ConversationPhase)
		for _, ev := range stream.ContextEvents(before, conv) {
			fmt.Printf("  ui:       %s\n", color.MagentaString(string(ev.Type)))
		}
		if *verbose {
			prettyPrint(conv)
		}
	}
}

func readTranscript(path string) (*transcript, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var t transcript
	if err := json.Unmarshal(raw, &t); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if t.SessionID == "" {
		t.SessionID = "simulated"
	}
	return &t, nil
}

func prettyPrint(v interface{}) {
	b, err := json.MarshalIndent(v, "  ", "  ")
	if err != nil {
		fmt.Printf("  %v\n", v)
		return
	}
	fmt.Println("  " + string(b))
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if len(s) > 100 {
		return s[:100] + "..."
	}
	return s
}
