package chain

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// settlementABI covers the slice of the settlement contract this node
// touches: the campaign view, the report intake, and the trigger event.
const settlementABIJSON = `[
  {
    "type": "function",
    "name": "getCampaign",
    "stateMutability": "view",
    "inputs": [{"name": "campaignId", "type": "uint256"}],
    "outputs": [{
      "name": "",
      "type": "tuple",
      "components": [
        {"name": "brand", "type": "address"},
        {"name": "name", "type": "string"},
        {"name": "budget", "type": "uint256"},
        {"name": "spent", "type": "uint256"},
        {"name": "payoutPerThousandViews", "type": "uint256"},
        {"name": "minViews", "type": "uint256"},
        {"name": "startTime", "type": "uint64"},
        {"name": "endTime", "type": "uint64"},
        {"name": "active", "type": "bool"}
      ]
    }]
  },
  {
    "type": "function",
    "name": "submitReport",
    "stateMutability": "nonpayable",
    "inputs": [
      {"name": "report", "type": "bytes"},
      {"name": "signature", "type": "bytes"}
    ],
    "outputs": []
  },
  {
    "type": "event",
    "name": "VerificationRequested",
    "anonymous": false,
    "inputs": [
      {"name": "campaignId", "type": "uint256", "indexed": true},
      {"name": "creator", "type": "address", "indexed": true},
      {"name": "videoId", "type": "string", "indexed": false},
      {"name": "platform", "type": "string", "indexed": false}
    ]
  }
]`

var settlementABI = mustABI(settlementABIJSON)

func mustABI(src string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(src))
	if err != nil {
		panic(err)
	}
	return parsed
}

func mustType(t string) abi.Type {
	typ, err := abi.NewType(t, "", nil)
	if err != nil {
		panic(err)
	}
	return typ
}

// reportArgs fixes the canonical field order of the verification report
// tuple. Changing the order or types breaks signature recovery on-chain.
var reportArgs = abi.Arguments{
	{Name: "campaignId", Type: mustType("uint256")},
	{Name: "creator", Type: mustType("address")},
	{Name: "videoId", Type: mustType("string")},
	{Name: "platform", Type: mustType("string")},
	{Name: "viewCount", Type: mustType("uint256")},
}

// Report is a verification outcome bound for the settlement contract.
type Report struct {
	CampaignID *big.Int
	Creator    common.Address
	VideoID    string
	Platform   string
	ViewCount  *big.Int
}

// EncodeReport ABI-encodes the report tuple in canonical field order.
func EncodeReport(r Report) ([]byte, error) {
	return reportArgs.Pack(r.CampaignID, r.Creator, r.VideoID, r.Platform, r.ViewCount)
}
