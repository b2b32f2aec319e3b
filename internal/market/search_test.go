package market_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gutmanan/polymarket-mcp/internal/domain"
	"github.com/gutmanan/polymarket-mcp/internal/market"
)

func questionRecord(id, question string) domain.MarketRecord {
	return domain.MarketRecord{ConditionID: id, Question: question}
}

func TestSearch_CaseInsensitiveSubstring(t *testing.T) {
	records := []domain.MarketRecord{
		questionRecord("0x1", "Will it rain tomorrow?"),
		questionRecord("0x2", "Will the Fed cut rates?"),
	}

	out := market.Search(records, "rain", 0)
	require.Len(t, out, 1)
	assert.Equal(t, "0x1", out[0].ConditionID)

	out = market.Search(records, "RAIN", 0)
	require.Len(t, out, 1)
	assert.Equal(t, "0x1", out[0].ConditionID)
}

func TestSearch_AbsentQuestionNeverMatches(t *testing.T) {
	records := []domain.MarketRecord{
		questionRecord("0x1", ""),
		questionRecord("0x2", "Will it rain tomorrow?"),
	}

	out := market.Search(records, "rain", 0)
	require.Len(t, out, 1)
	assert.Equal(t, "0x2", out[0].ConditionID)

	out = market.Search(records, "", 0)
	require.Len(t, out, 1, "empty query matches every record with a question")
	assert.Equal(t, "0x2", out[0].ConditionID)
}

func TestSearch_OrderPreservedAndLimitTruncatesFromFront(t *testing.T) {
	records := []domain.MarketRecord{
		questionRecord("0x1", "rain in Spain"),
		questionRecord("0x2", "no match here"),
		questionRecord("0x3", "rain in Rome"),
		questionRecord("0x4", "rain in Oslo"),
	}

	out := market.Search(records, "rain", 0)
	require.Len(t, out, 3)
	assert.Equal(t, []string{"0x1", "0x3", "0x4"},
		[]string{out[0].ConditionID, out[1].ConditionID, out[2].ConditionID})

	out = market.Search(records, "rain", 2)
	require.Len(t, out, 2)
	assert.Equal(t, "0x1", out[0].ConditionID)
	assert.Equal(t, "0x3", out[1].ConditionID)
}

func TestSearch_NoMatches(t *testing.T) {
	records := []domain.MarketRecord{questionRecord("0x1", "Will it rain tomorrow?")}
	out := market.Search(records, "snow", 0)
	assert.Empty(t, out)
}
