package chain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rpc"
	"go.uber.org/zap"

	"github.com/brookejlacey/flowback/internal/payout"
)

// finalizedBlock pins view calls to the finalized tag so every replica
// reads the same campaign state for a given trigger.
var finalizedBlock = big.NewInt(rpc.FinalizedBlockNumber.Int64())

// Campaign mirrors the getCampaign return tuple.
type Campaign struct {
	Brand                  common.Address
	Name                   string
	Budget                 *big.Int
	Spent                  *big.Int
	PayoutPerThousandViews *big.Int
	MinViews               *big.Int
	StartTime              uint64
	EndTime                uint64
	Active                 bool
}

// Reader reads campaign state from the settlement contract.
type Reader struct {
	backend  Backend
	contract common.Address
	log      *zap.Logger
}

func NewReader(backend Backend, contract common.Address, log *zap.Logger) *Reader {
	return &Reader{backend: backend, contract: contract, log: log.Named("chain.reader")}
}

// Campaign fetches the campaign record at the finalized block.
func (r *Reader) Campaign(ctx context.Context, campaignID *big.Int) (Campaign, error) {
	data, err := settlementABI.Pack("getCampaign", campaignID)
	if err != nil {
		return Campaign{}, fmt.Errorf("chain: pack getCampaign: %w", err)
	}

	out, err := r.backend.CallContract(ctx, ethereum.CallMsg{To: &r.contract, Data: data}, finalizedBlock)
	if err != nil {
		return Campaign{}, fmt.Errorf("chain: getCampaign call: %w", err)
	}

	res, err := settlementABI.Unpack("getCampaign", out)
	if err != nil {
		return Campaign{}, fmt.Errorf("chain: unpack getCampaign: %w", err)
	}

	campaign := *abi.ConvertType(res[0], new(Campaign)).(*Campaign)
	return campaign, nil
}

// Terms reduces finalized campaign state to the payout inputs. A campaign
// already spent past its budget reads as zero remaining, never negative.
func (r *Reader) Terms(ctx context.Context, campaignID *big.Int) (payout.Terms, error) {
	campaign, err := r.Campaign(ctx, campaignID)
	if err != nil {
		return payout.Terms{}, err
	}

	remaining := new(big.Int).Sub(campaign.Budget, campaign.Spent)
	if remaining.Sign() < 0 {
		remaining = big.NewInt(0)
	}

	r.log.Debug("campaign terms read",
		zap.String("campaign_id", campaignID.String()),
		zap.String("budget_remaining", remaining.String()),
		zap.Bool("active", campaign.Active),
	)

	return payout.Terms{
		MinViews:               campaign.MinViews,
		PayoutPerThousandViews: campaign.PayoutPerThousandViews,
		BudgetRemaining:        remaining,
	}, nil
}
