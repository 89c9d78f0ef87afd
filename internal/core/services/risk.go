package services

import (
	"time"

	"github.com/SscSPs/escrow_ledger_app/internal/core/domain"
)

// HighRiskThreshold is the score above which an audit record raises a security event.
const HighRiskThreshold = 70

const (
	riskHighRiskAction    = 30
	riskFinancialResource = 20
	riskGeography         = 25
	riskOffHours          = 15
	maxRiskScore          = 100

	businessDayStartHour = 6
	businessDayEndHour   = 22
)

var highRiskActions = map[domain.AuditAction]bool{
	domain.ActionOwnerStatusChanged:   true,
	domain.ActionAccountStatusChanged: true,
	domain.ActionAccountFundsBlocked:  true,
	domain.ActionEntryReversed:        true,
	domain.ActionEscrowReleased:       true,
	domain.ActionEscrowRefunded:       true,
	domain.ActionDisputeRaised:        true,
	domain.ActionDisputeResolved:      true,
}

var financialResources = map[domain.ResourceType]bool{
	domain.ResourceAccount:     true,
	domain.ResourceLedgerEntry: true,
	domain.ResourceEscrow:      true,
	domain.ResourceDispute:     true,
}

// ScoreRisk returns a heuristic score between 0 and 100. Off-hours are judged in loc.
func ScoreRisk(action domain.AuditAction, resourceType domain.ResourceType, in domain.RiskInputs, loc *time.Location) int {
	score := 0
	if highRiskActions[action] {
		score += riskHighRiskAction
	}
	if financialResources[resourceType] {
		score += riskFinancialResource
	}
	if in.HighRiskGeography {
		score += riskGeography
	}
	if !in.OccurredAt.IsZero() {
		if loc == nil {
			loc = time.UTC
		}
		hour := in.OccurredAt.In(loc).Hour()
		if hour < businessDayStartHour || hour >= businessDayEndHour {
			score += riskOffHours
		}
	}
	if score > maxRiskScore {
		score = maxRiskScore
	}
	return score
}

// severityFor maps a risk score to the severity of the security event it raises.
func severityFor(score int) domain.Severity {
	switch {
	case score > HighRiskThreshold:
		return domain.SeverityHigh
	case score > 40:
		return domain.SeverityMedium
	default:
		return domain.SeverityLow
	}
}
