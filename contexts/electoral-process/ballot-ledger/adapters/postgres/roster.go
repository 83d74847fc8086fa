package postgresadapter

import (
	"context"
	"log/slog"
	"strings"

	"pleito/contexts/electoral-process/ballot-ledger/ports"

	"gorm.io/gorm"
)

// RosterClient answers eligibility from the election roster table, which is
// loaded from the council's member registry ahead of the voting window.
type RosterClient struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRosterClient(db *gorm.DB, logger *slog.Logger) *RosterClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &RosterClient{db: db, logger: logger}
}

func (c *RosterClient) IsEligibleElector(ctx context.Context, electionID string, electorID string) (bool, error) {
	var count int64
	err := c.db.WithContext(ctx).
		Model(&rosterModel{}).
		Where("election_id = ?", strings.TrimSpace(electionID)).
		Where("elector_id = ?", strings.TrimSpace(electorID)).
		Where("eligible = ?", true).
		Count(&count).
		Error
	if err != nil {
		c.logger.Error("roster lookup failed",
			"event", "ledger_roster_lookup_failed",
			"module", "electoral-process/ballot-ledger",
			"layer", "adapter",
			"election_id", strings.TrimSpace(electionID),
			"error", err.Error(),
		)
		return false, err
	}
	return count > 0, nil
}

type rosterModel struct {
	ElectionID string `gorm:"column:election_id;primaryKey"`
	ElectorID  string `gorm:"column:elector_id;primaryKey"`
	Eligible   bool   `gorm:"column:eligible"`
}

func (rosterModel) TableName() string {
	return "election_electors"
}

var _ ports.EligibilityClient = (*RosterClient)(nil)
