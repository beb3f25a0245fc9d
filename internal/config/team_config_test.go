package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const teamsYAML = `
defaults:
  name: "Default"
  documentRequirements:
    general: ["Photo ID"]
teams:
  - id: "nc-legal"
    name: "NC Legal"
    intakeEmail: "intake@nc.example.com"
    features:
      enableParalegalAgent: true
    policy:
      serviceAreas: ["family_law"]
      supportedJurisdictions: ["North Carolina"]
      knownJurisdictions:
        "North Carolina": ["NC", "Raleigh"]
    documentRequirements:
      family_law: ["Marriage certificate"]
    payment:
      enabled: true
      amount: 75
      currency: "USD"
  - id: "plain"
    name: "Plain"
`

func writeTeams(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "teams.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadTeamConfigs(t *testing.T) {
	teams, err := LoadTeamConfigs(writeTeams(t, teamsYAML))
	require.NoError(t, err)

	nc := teams.Get("nc-legal")
	assert.Equal(t, "NC Legal", nc.Name)
	assert.Equal(t, "intake@nc.example.com", nc.IntakeEmail)
	assert.True(t, nc.Features.EnableParalegalAgent)
	assert.False(t, nc.Features.ParalegalFirst)
	assert.Equal(t, []string{"NC", "Raleigh"}, nc.Policy.KnownJurisdictions["North Carolina"])
	assert.Equal(t, []string{"Marriage certificate"}, nc.DocumentRequirements["family_law"])
	assert.True(t, nc.Payment.Enabled)
	assert.Equal(t, 75.0, nc.Payment.Amount)

	// Teams without their own requirements inherit the defaults.
	assert.Equal(t, []string{"Photo ID"}, teams.Get("plain").DocumentRequirements["general"])
}

func TestGetUnknownTeamUsesDefaults(t *testing.T) {
	teams, err := LoadTeamConfigs(writeTeams(t, teamsYAML))
	require.NoError(t, err)

	team := teams.Get("someone-else")
	assert.Equal(t, "someone-else", team.ID)
	assert.Equal(t, "Default", team.Name)

	// Callers get a copy of the defaults.
	team.Name = "changed"
	assert.Equal(t, "Default", teams.Get("another").Name)
}

func TestLoadTeamConfigsMissingFile(t *testing.T) {
	teams, err := LoadTeamConfigs(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	team := teams.Get("any")
	assert.Equal(t, "any", team.ID)
	assert.NotNil(t, team.DocumentRequirements)
}

func TestLoadTeamConfigsInvalidYAML(t *testing.T) {
	_, err := LoadTeamConfigs(writeTeams(t, "teams: [unclosed"))
	assert.Error(t, err)
}
