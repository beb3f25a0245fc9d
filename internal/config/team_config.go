package config

import (
	"fmt"
	"log"
	"os"
	"sync"

	"legal-intake-be/internal/entity"

	"gopkg.in/yaml.v3"
)

// TeamConfigProvider hands out read-only team configuration.
type TeamConfigProvider interface {
	Get(teamID string) *entity.TeamConfig
}

type teamConfigFile struct {
	Defaults entity.TeamConfig   `yaml:"defaults"`
	Teams    []entity.TeamConfig `yaml:"teams"`
}

type StaticTeamConfigs struct {
	mu       sync.RWMutex
	defaults entity.TeamConfig
	teams    map[string]*entity.TeamConfig
}

func NewStaticTeamConfigs(defaults entity.TeamConfig, teams ...entity.TeamConfig) *StaticTeamConfigs {
	s := &StaticTeamConfigs{
		defaults: defaults,
		teams:    make(map[string]*entity.TeamConfig, len(teams)),
	}
	for i := range teams {
		t := teams[i]
		if t.DocumentRequirements == nil {
			t.DocumentRequirements = defaults.DocumentRequirements
		}
		s.teams[t.ID] = &t
	}
	return s
}

// LoadTeamConfigs reads the YAML team file. A missing file yields defaults only.
func LoadTeamConfigs(path string) (*StaticTeamConfigs, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Printf("[WARN] Team config %s not found, using defaults", path)
			return NewStaticTeamConfigs(*entity.DefaultTeamConfig("")), nil
		}
		return nil, fmt.Errorf("read team config: %w", err)
	}

	var file teamConfigFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse team config: %w", err)
	}
	return NewStaticTeamConfigs(file.Defaults, file.Teams...), nil
}

func (s *StaticTeamConfigs) Get(teamID string) *entity.TeamConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if t, ok := s.teams[teamID]; ok {
		return t
	}
	d := s.defaults
	d.ID = teamID
	if d.DocumentRequirements == nil {
		d.DocumentRequirements = map[string][]string{}
	}
	return &d
}
