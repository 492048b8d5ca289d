package chain

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// VerificationRequestedTopic is topic[0] of the trigger event.
var VerificationRequestedTopic = settlementABI.Events["VerificationRequested"].ID

// VerificationRequested is the decoded trigger event.
type VerificationRequested struct {
	CampaignID *big.Int
	Creator    common.Address
	VideoID    string
	Platform   string

	BlockNumber uint64
	TxHash      common.Hash
}

// EncodeTriggerData packs the non-indexed trigger event fields. Used to
// emit synthetic logs in tests and local tooling.
func EncodeTriggerData(videoID, platform string) ([]byte, error) {
	return settlementABI.Events["VerificationRequested"].Inputs.NonIndexed().Pack(videoID, platform)
}

// DecodeVerificationRequested decodes a raw log into the trigger event.
// campaignId and creator arrive as indexed topics; videoId and platform
// are unpacked from the data segment.
func DecodeVerificationRequested(lg types.Log) (VerificationRequested, error) {
	if len(lg.Topics) != 3 || lg.Topics[0] != VerificationRequestedTopic {
		return VerificationRequested{}, fmt.Errorf("chain: log is not a VerificationRequested event")
	}

	vals, err := settlementABI.Events["VerificationRequested"].Inputs.NonIndexed().Unpack(lg.Data)
	if err != nil {
		return VerificationRequested{}, fmt.Errorf("chain: unpack event data: %w", err)
	}

	videoID, ok := vals[0].(string)
	if !ok {
		return VerificationRequested{}, fmt.Errorf("chain: unexpected videoId type %T", vals[0])
	}
	platform, ok := vals[1].(string)
	if !ok {
		return VerificationRequested{}, fmt.Errorf("chain: unexpected platform type %T", vals[1])
	}

	return VerificationRequested{
		CampaignID:  new(big.Int).SetBytes(lg.Topics[1].Bytes()),
		Creator:     common.BytesToAddress(lg.Topics[2].Bytes()),
		VideoID:     videoID,
		Platform:    platform,
		BlockNumber: lg.BlockNumber,
		TxHash:      lg.TxHash,
	}, nil
}
