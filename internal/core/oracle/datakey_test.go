package oracle

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDataKeyBytes(t *testing.T) {
	assert.Equal(t, []byte{byte(KindAdmin)}, AdminKey.Bytes())
	assert.Equal(t, []byte{byte(KindBaseFee)}, BaseFeeKey.Bytes())

	k := PriceKey("XLM", 300)
	assert.Equal(t, []byte{byte(KindPrice), 0, 3, 'X', 'L', 'M', 0, 0, 0, 0, 0, 0, 1, 44}, k.Bytes())

	b := BalanceKey("alice")
	assert.Equal(t, append([]byte{byte(KindBalance), 0, 5}, "alice"...), b.Bytes())
}

func TestPriceKeysSortByTime(t *testing.T) {
	earlier := PriceKey("BTC", 600).Bytes()
	later := PriceKey("BTC", 900).Bytes()
	other := PriceKey("BTCB", 0).Bytes()

	assert.Equal(t, -1, bytes.Compare(earlier, later))
	// a longer asset name never interleaves with a shorter one
	assert.Equal(t, -1, bytes.Compare(later, other))
}

func TestParseKey(t *testing.T) {
	for _, k := range []DataKey{
		AdminKey, BaseKey, TimestampKey, DecimalsKey, RdmPeriodKey,
		ResolutionKey, AssetsKey, BaseFeeKey,
		PriceKey("ETH", 1<<40), PriceKey("", 0), BalanceKey("bob"),
	} {
		got, err := ParseKey(k.Bytes())
		require.NoError(t, err, k.String())
		assert.Equal(t, k, got)
	}

	for _, bad := range [][]byte{
		nil,
		{0xff},
		{byte(KindAdmin), 1},
		{byte(KindPrice), 0, 3, 'E'},
		{byte(KindPrice), 0, 1, 'E', 0, 0},
		{byte(KindBalance), 0, 1, 'a', 'b'},
	} {
		_, err := ParseKey(bad)
		assert.ErrorIs(t, err, ErrMalformedKey, "%x", bad)
	}
}

func TestDataKeyString(t *testing.T) {
	assert.Equal(t, "Price(XLM,300)", PriceKey("XLM", 300).String())
	assert.Equal(t, "Balance(bob)", BalanceKey("bob").String())
	assert.Equal(t, "Resolution", ResolutionKey.String())
}
