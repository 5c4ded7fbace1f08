package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestStateChangeValidate_Valid(t *testing.T) {
	change := &StateChange{
		AvailableDelta: decimal.NewFromInt(1000),
		Kind:           KindDeposit,
		Amount:         decimal.NewFromInt(1000),
		Description:    "stable asset deposit",
	}

	err := change.Validate()

	assert.NoError(t, err)
}

func TestStateChangeValidate_MissingKind(t *testing.T) {
	change := &StateChange{
		AvailableDelta: decimal.NewFromInt(1000),
		Amount:         decimal.NewFromInt(1000),
	}

	err := change.Validate()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "transaction kind")
}

func TestStateChangeValidate_UpsertAndRemove(t *testing.T) {
	fundID := "f1"
	change := &StateChange{
		Kind:   KindFundRelease,
		Amount: decimal.NewFromInt(300),
		FundID: &fundID,
		FundUpsert: &Fund{
			ID:           fundID,
			TargetAmount: decimal.NewFromInt(500),
		},
		FundRemove: fundID,
	}

	err := change.Validate()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "cannot both upsert and remove")
}

func TestStateChangeValidate_InvalidFundUpsert(t *testing.T) {
	change := &StateChange{
		Kind:   KindFundCreate,
		Amount: decimal.NewFromInt(500),
		FundUpsert: &Fund{
			ID:           "f1",
			TargetAmount: decimal.NewFromInt(-500),
		},
	}

	err := change.Validate()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "target amount must be positive")
}
