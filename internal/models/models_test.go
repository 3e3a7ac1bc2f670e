package models

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePartner(t *testing.T) {
	p, err := ParsePartner(" GymPass ")
	require.NoError(t, err)
	assert.Equal(t, PartnerGympass, p)
	assert.True(t, p.NumericCode())
	assert.Equal(t, "gympass_token", p.TokenColumn())

	p, err = ParsePartner("totalpass")
	require.NoError(t, err)
	assert.False(t, p.NumericCode())
	assert.Equal(t, "TotalPass", p.DisplayName())

	_, err = ParsePartner("classpass")
	assert.ErrorIs(t, err, ErrUnknownPartner)
}

func TestParseInterval(t *testing.T) {
	for in, want := range map[string]Interval{"": IntervalNone, "Month": IntervalMonth, "week": IntervalWeek, "year": IntervalYear} {
		got, err := ParseInterval(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseInterval("day")
	assert.Error(t, err)
}

func TestProductItemID(t *testing.T) {
	p := Product{ID: uuid.New()}
	assert.Equal(t, p.ID, p.ItemID())
	m := uuid.New()
	p.ModalityID = &m
	assert.Equal(t, m, p.ItemID())
}

func TestPayoutsEnabled(t *testing.T) {
	acct := "acct_1"
	o := &Organization{StripeAccountID: &acct, StripeAccountStatus: AccountEnabled}
	assert.True(t, o.PayoutsEnabled())
	o.StripeAccountStatus = AccountRestricted
	assert.False(t, o.PayoutsEnabled())
	o.StripeAccountStatus = AccountEnabled
	o.StripeAccountID = nil
	assert.False(t, o.PayoutsEnabled())
	var nilOrg *Organization
	assert.False(t, nilOrg.PayoutsEnabled())
}
