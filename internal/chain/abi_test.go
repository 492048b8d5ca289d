package chain

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeReportCanonicalLayout(t *testing.T) {
	encoded, err := EncodeReport(Report{
		CampaignID: big.NewInt(7),
		Creator:    common.HexToAddress("0x1111111111111111111111111111111111111111"),
		VideoID:    "dQw4w9WgXcQ",
		Platform:   "youtube",
		ViewCount:  big.NewInt(15234),
	})
	require.NoError(t, err)

	// Five head words, then two length-prefixed padded strings.
	require.Len(t, encoded, 5*32+64+64)
	assert.Equal(t, big.NewInt(7), new(big.Int).SetBytes(encoded[:32]))
	assert.Equal(t, common.HexToAddress("0x1111111111111111111111111111111111111111"),
		common.BytesToAddress(encoded[32:64]))
	assert.Equal(t, big.NewInt(160), new(big.Int).SetBytes(encoded[64:96]), "videoId offset")
	assert.Equal(t, big.NewInt(224), new(big.Int).SetBytes(encoded[96:128]), "platform offset")
	assert.Equal(t, big.NewInt(15234), new(big.Int).SetBytes(encoded[128:160]))
}

func TestEncodeReportDeterministic(t *testing.T) {
	r := Report{
		CampaignID: big.NewInt(42),
		Creator:    common.HexToAddress("0x2222222222222222222222222222222222222222"),
		VideoID:    "7345678901234567890",
		Platform:   "tiktok",
		ViewCount:  big.NewInt(0),
	}

	a, err := EncodeReport(r)
	require.NoError(t, err)
	b, err := EncodeReport(r)
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestEncodeReportRoundTrip(t *testing.T) {
	r := Report{
		CampaignID: big.NewInt(99),
		Creator:    common.HexToAddress("0x3333333333333333333333333333333333333333"),
		VideoID:    "abc123",
		Platform:   "youtube",
		ViewCount:  big.NewInt(152340),
	}

	encoded, err := EncodeReport(r)
	require.NoError(t, err)

	vals, err := reportArgs.Unpack(encoded)
	require.NoError(t, err)
	require.Len(t, vals, 5)

	assert.Equal(t, r.CampaignID, vals[0])
	assert.Equal(t, r.Creator, vals[1])
	assert.Equal(t, r.VideoID, vals[2])
	assert.Equal(t, r.Platform, vals[3])
	assert.Equal(t, r.ViewCount, vals[4])
}
