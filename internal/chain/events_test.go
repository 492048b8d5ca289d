package chain

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func triggerLog(t *testing.T, campaignID *big.Int, creator common.Address, videoID, platform string) types.Log {
	t.Helper()

	data, err := settlementABI.Events["VerificationRequested"].Inputs.NonIndexed().Pack(videoID, platform)
	require.NoError(t, err)

	return types.Log{
		Topics: []common.Hash{
			VerificationRequestedTopic,
			common.BigToHash(campaignID),
			common.BytesToHash(creator.Bytes()),
		},
		Data:        data,
		BlockNumber: 123,
		TxHash:      common.HexToHash("0xabc"),
	}
}

func TestDecodeVerificationRequested(t *testing.T) {
	creator := common.HexToAddress("0x4444444444444444444444444444444444444444")

	ev, err := DecodeVerificationRequested(triggerLog(t, big.NewInt(7), creator, "dQw4w9WgXcQ", "youtube"))
	require.NoError(t, err)

	assert.Equal(t, big.NewInt(7), ev.CampaignID)
	assert.Equal(t, creator, ev.Creator)
	assert.Equal(t, "dQw4w9WgXcQ", ev.VideoID)
	assert.Equal(t, "youtube", ev.Platform)
	assert.Equal(t, uint64(123), ev.BlockNumber)
}

func TestDecodeVerificationRequestedWrongTopic(t *testing.T) {
	lg := triggerLog(t, big.NewInt(1), common.Address{}, "v", "youtube")
	lg.Topics[0] = common.HexToHash("0xdead")

	_, err := DecodeVerificationRequested(lg)
	assert.Error(t, err)
}

func TestDecodeVerificationRequestedMissingTopics(t *testing.T) {
	lg := triggerLog(t, big.NewInt(1), common.Address{}, "v", "youtube")
	lg.Topics = lg.Topics[:2]

	_, err := DecodeVerificationRequested(lg)
	assert.Error(t, err)
}
