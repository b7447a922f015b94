package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OpportunityStage is a step in the sales pipeline.
type OpportunityStage string

const (
	StageNew       OpportunityStage = "NEW"
	StageQualified OpportunityStage = "QUALIFIED"
	StageProposal  OpportunityStage = "PROPOSAL"
	StageWon       OpportunityStage = "WON"
	StageLost      OpportunityStage = "LOST"
)

// opportunityTransitions is the allowed stage progression. WON and LOST are
// terminal.
var opportunityTransitions = map[string][]string{
	string(StageNew):       {string(StageQualified), string(StageLost)},
	string(StageQualified): {string(StageProposal), string(StageLost)},
	string(StageProposal):  {string(StageWon), string(StageLost)},
}

// Opportunity is a potential deal attached to a contact. Quotations may
// reference the opportunity they were raised for.
type Opportunity struct {
	OpportunityID string           `json:"opportunityID" db:"opportunity_id"`
	WorkspaceID   string           `json:"workspaceID" db:"workspace_id"`
	ContactID     string           `json:"contactID" db:"contact_id"`
	Title         string           `json:"title" db:"title"`
	Stage         OpportunityStage `json:"stage" db:"stage"`
	Value         decimal.Decimal  `json:"value" db:"value"`
	CurrencyCode  string           `json:"currencyCode" db:"currency_code"`
	ExpectedClose *time.Time       `json:"expectedClose" db:"expected_close"`
	ClosedAt      *time.Time       `json:"closedAt" db:"closed_at"`
	AuditFields
}

// CanMoveTo validates a stage change against the pipeline.
func (o Opportunity) CanMoveTo(next OpportunityStage) error {
	return checkTransition("opportunity", opportunityTransitions, string(o.Stage), string(next))
}
