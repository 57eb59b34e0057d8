package shared

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecimalJSON(t *testing.T) {
	body, err := json.Marshal(struct {
		Total decimal.Decimal `json:"total"`
	}{decimal.RequireFromString("1800.50")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"total":1800.5}`, string(body))

	var back struct {
		Total decimal.Decimal `json:"total"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"total":"1800"}`), &back))
	assert.True(t, decimal.NewFromInt(1800).Equal(back.Total))
}
