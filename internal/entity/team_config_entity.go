package entity

// TeamConfig is owned by the settings service; this backend only reads it.
type TeamConfig struct {
	ID                   string              `yaml:"id"`
	Name                 string              `yaml:"name"`
	IntakeEmail          string              `yaml:"intakeEmail"`
	Features             TeamFeatures        `yaml:"features"`
	Policy               TeamPolicy          `yaml:"policy"`
	DocumentRequirements map[string][]string `yaml:"documentRequirements"`
	Lawyers              []Lawyer            `yaml:"lawyers"`
	Payment              TeamPayment         `yaml:"payment"`
}

type TeamFeatures struct {
	EnableParalegalAgent bool `yaml:"enableParalegalAgent"`
	ParalegalFirst       bool `yaml:"paralegalFirst"`
}

type TeamPolicy struct {
	BlockedTerms           []string            `yaml:"blockedTerms"`
	OutOfScopeTopics       []string            `yaml:"outOfScopeTopics"`
	ServiceAreas           []string            `yaml:"serviceAreas"`
	SupportedJurisdictions []string            `yaml:"supportedJurisdictions"`
	KnownJurisdictions     map[string][]string `yaml:"knownJurisdictions"`
	ModerationEnabled      bool                `yaml:"moderationEnabled"`
}

type TeamPayment struct {
	Enabled     bool    `yaml:"enabled"`
	CheckoutURL string  `yaml:"checkoutUrl"`
	Amount      float64 `yaml:"amount"`
	Currency    string  `yaml:"currency"`
}

func DefaultTeamConfig(id string) *TeamConfig {
	return &TeamConfig{
		ID:                   id,
		DocumentRequirements: map[string][]string{},
	}
}
