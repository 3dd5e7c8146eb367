package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func matchTxn(description, amount string) *Transaction {
	return &Transaction{
		Description: description,
		Amount:      decimal.RequireFromString(amount),
	}
}

func TestRuleCompile(t *testing.T) {
	good := Rule{Pattern: `starbucks|dunkin`}
	assert.NoError(t, good.Compile())

	bad := Rule{Pattern: `([unclosed`}
	assert.Error(t, bad.Compile())

	empty := Rule{}
	assert.NoError(t, empty.Compile(), "rules without a pattern compile trivially")
}

func TestRuleMatches_Conjunction(t *testing.T) {
	max := decimal.RequireFromString("100")
	rule := Rule{
		Pattern:   `fee`,
		Contains:  []string{"service"},
		MaxAmount: &max,
		Sign:      SignDebit,
	}
	require.NoError(t, rule.Compile())

	assert.True(t, rule.Matches(matchTxn("MONTHLY SERVICE FEE", "-12.00")))
	assert.False(t, rule.Matches(matchTxn("MONTHLY FEE", "-12.00")), "missing contains term")
	assert.False(t, rule.Matches(matchTxn("MONTHLY SERVICE FEE", "12.00")), "wrong sign")
	assert.False(t, rule.Matches(matchTxn("MONTHLY SERVICE FEE", "-250.00")), "above max amount")
}

func TestRuleMatches_AbsoluteAmountBounds(t *testing.T) {
	min := decimal.RequireFromString("10")
	rule := Rule{MinAmount: &min}
	require.NoError(t, rule.Compile())

	assert.True(t, rule.Matches(matchTxn("X", "-50.00")), "bounds compare the absolute value")
	assert.False(t, rule.Matches(matchTxn("X", "-5.00")))
}

func TestMergeRules_SessionFirstWithinTier(t *testing.T) {
	session := []Rule{{ID: "s1", Priority: 10}, {ID: "s2", Priority: 30}}
	builtin := []Rule{{ID: "b1", Priority: 10}, {ID: "b2", Priority: 20}}

	merged := MergeRules(session, builtin)

	ids := make([]string, len(merged))
	for i, r := range merged {
		ids[i] = r.ID
	}
	assert.Equal(t, []string{"s1", "b1", "b2", "s2"}, ids)
}

func TestMergeRules_InputsUntouched(t *testing.T) {
	session := []Rule{{ID: "s1", Priority: 99}}
	builtin := []Rule{{ID: "b1", Priority: 1}}

	MergeRules(session, builtin)

	assert.Equal(t, "s1", session[0].ID)
	assert.Equal(t, "b1", builtin[0].ID)
}
