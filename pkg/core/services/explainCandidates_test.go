package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jakechorley/shift-planner/internal/config"
	"github.com/jakechorley/shift-planner/pkg/core/eligibility"
	"github.com/jakechorley/shift-planner/pkg/core/model"
)

func TestExplainCandidates_RanksEligibleAndListsReasons(t *testing.T) {
	inputs := shopInputs()
	inputs.Absences = []model.Absence{{
		EmployeeID: "emp-bob",
		StartDate:  model.MustDate("2025-03-03"),
		EndDate:    model.MustDate("2025-03-03"),
	}}
	store := newMockStore(inputs)

	result, err := ExplainCandidates(context.Background(), store, config.Default(), zap.NewNop(), ExplainRequest{
		Date:         model.MustDate("2025-03-03"),
		Start:        tod("12:00"),
		End:          tod("20:00"),
		MinEmployees: 1,
	})

	require.NoError(t, err)
	assert.Equal(t, explainRequirementID, result.Slot.SourceID)
	assert.Equal(t, 1, result.Slot.MaxEmployees)
	require.Len(t, result.Candidates, 2)

	amy := result.Candidates[0]
	assert.Equal(t, "emp-amy", amy.Employee.ID)
	assert.Equal(t, 1, amy.Rank)
	require.NotNil(t, amy.Breakdown)
	assert.True(t, amy.Verdict.Eligible)

	bob := result.Candidates[1]
	assert.Equal(t, "emp-bob", bob.Employee.ID)
	assert.Equal(t, 0, bob.Rank)
	assert.Nil(t, bob.Breakdown)
	assert.Contains(t, bob.Verdict.Reasons, eligibility.ReasonAbsent)
}

func TestExplainCandidates_KeyholderSlot(t *testing.T) {
	store := newMockStore(shopInputs())

	result, err := ExplainCandidates(context.Background(), store, config.Default(), zap.NewNop(), ExplainRequest{
		Date:              model.MustDate("2025-03-04"),
		Start:             tod("06:00"),
		End:               tod("10:00"),
		MinEmployees:      1,
		MaxEmployees:      2,
		RequiresKeyholder: true,
	})

	require.NoError(t, err)
	require.Len(t, result.Candidates, 2)
	assert.Equal(t, "emp-amy", result.Candidates[0].Employee.ID)
	assert.Contains(t, result.Candidates[1].Verdict.Reasons, eligibility.ReasonNotKeyholder)
}

func TestExplainCandidates_ClosedDate(t *testing.T) {
	store := newMockStore(shopInputs())
	cfg := config.Default()
	cfg.Closures = []config.Closure{{RRule: "FREQ=YEARLY;BYMONTH=12;BYMONTHDAY=25", Reason: "Christmas"}}

	_, err := ExplainCandidates(context.Background(), store, cfg, zap.NewNop(), ExplainRequest{
		Date:         model.MustDate("2025-12-25"),
		Start:        tod("09:00"),
		End:          tod("17:00"),
		MinEmployees: 1,
	})

	require.ErrorIs(t, err, model.ErrInvalidInput)
	assert.Contains(t, err.Error(), "Christmas")
}

func TestExplainCandidates_RequiresDate(t *testing.T) {
	store := newMockStore(shopInputs())

	_, err := ExplainCandidates(context.Background(), store, config.Default(), zap.NewNop(), ExplainRequest{})

	assert.ErrorIs(t, err, model.ErrInvalidInput)
}
