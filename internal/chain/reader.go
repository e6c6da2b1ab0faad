package chain

import (
	"context"
	"math/big"
	"sort"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/jul1angr1s/AI-Bug-Bountry-App-sub003/internal/adapter"
	"github.com/jul1angr1s/AI-Bug-Bountry-App-sub003/internal/domain"
	"github.com/jul1angr1s/AI-Bug-Bountry-App-sub003/internal/logger"
	"github.com/jul1angr1s/AI-Bug-Bountry-App-sub003/internal/messaging"
)

// Event signatures
var (
	// BountyPaid(bytes32 indexed validationId, address indexed researcher, uint256 amount)
	bountyPaidEventSignature = crypto.Keccak256Hash([]byte("BountyPaid(bytes32,address,uint256)"))
)

// Config holds the configuration for a chain reader bound to one payout contract
type Config struct {
	ContractAddress string
	// TokenDecimals scales raw uint256 amounts into human units.
	TokenDecimals int32
}

// Reader reads settlement events from the payout contract. Connectivity
// failures are reported as domain.ConnectivityError, distinct from an empty
// result.
//
//go:generate mockgen -source=reader.go -destination=../mocks/chain.go -package=mocks -mock_names=Reader=MockReader
type Reader interface {
	// ContractAddress returns the payout contract address this reader watches
	ContractAddress() string

	// CurrentHeight returns the latest block number
	CurrentHeight(ctx context.Context) (uint64, error)

	// QueryEvents returns decoded settlement events for [fromBlock, toBlock]
	// in ascending block order. Undecodable logs are skipped, never fatal.
	QueryEvents(ctx context.Context, event domain.EventName, fromBlock, toBlock uint64) ([]domain.SettlementEvent, error)

	// SubscribeEvents subscribes to live settlement events starting at
	// fromBlock and delivers each to handler. Blocks until ctx is canceled
	// or the subscription drops.
	SubscribeEvents(ctx context.Context, event domain.EventName, fromBlock uint64, handler messaging.EventHandler) error

	// Close closes the underlying connection
	Close()
}

type ethReader struct {
	contract common.Address
	decimals int32
	client   adapter.EthClient
	clock    adapter.Clock
}

// NewReader creates a reader over an established Ethereum client connection
func NewReader(cfg Config, client adapter.EthClient, clock adapter.Clock) Reader {
	return &ethReader{
		contract: common.HexToAddress(cfg.ContractAddress),
		decimals: cfg.TokenDecimals,
		client:   client,
		clock:    clock,
	}
}

func (r *ethReader) ContractAddress() string {
	return r.contract.Hex()
}

// CurrentHeight returns the latest block number
func (r *ethReader) CurrentHeight(ctx context.Context) (uint64, error) {
	header, err := r.client.HeaderByNumber(ctx, nil)
	if err != nil {
		return 0, domain.NewConnectivityError("get latest header", err)
	}
	return header.Number.Uint64(), nil
}

// QueryEvents returns decoded settlement events for [fromBlock, toBlock] in
// ascending block order
func (r *ethReader) QueryEvents(ctx context.Context, event domain.EventName, fromBlock, toBlock uint64) ([]domain.SettlementEvent, error) {
	signature, err := eventSignature(event)
	if err != nil {
		return nil, err
	}

	query := ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(fromBlock),
		ToBlock:   new(big.Int).SetUint64(toBlock),
		Addresses: []common.Address{r.contract},
		Topics:    [][]common.Hash{{signature}},
	}

	logs, err := r.filterLogsChunked(ctx, query)
	if err != nil {
		return nil, domain.NewConnectivityError("filter logs", err)
	}

	// Node responses are usually ordered already; enforce it anyway since
	// the listener advances its cursor in delivery order.
	sort.Slice(logs, func(i, j int) bool {
		if logs[i].BlockNumber != logs[j].BlockNumber {
			return logs[i].BlockNumber < logs[j].BlockNumber
		}
		return logs[i].TxIndex < logs[j].TxIndex
	})

	timestamps := make(map[uint64]time.Time)
	events := make([]domain.SettlementEvent, 0, len(logs))
	for _, vLog := range logs {
		ts, err := r.blockTimestamp(ctx, vLog.BlockNumber, timestamps)
		if err != nil {
			return nil, err
		}

		decoded, err := r.decodeLog(vLog, ts)
		if err != nil {
			logger.WarnCtx(ctx, "Skipping undecodable log",
				zap.Error(err),
				zap.String("tx_hash", vLog.TxHash.Hex()),
				zap.Uint64("block", vLog.BlockNumber))
			continue
		}
		events = append(events, *decoded)
	}

	return events, nil
}

// SubscribeEvents subscribes to live settlement events and delivers each to handler
func (r *ethReader) SubscribeEvents(ctx context.Context, event domain.EventName, fromBlock uint64, handler messaging.EventHandler) error {
	signature, err := eventSignature(event)
	if err != nil {
		return err
	}

	query := ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(fromBlock),
		Addresses: []common.Address{r.contract},
		Topics:    [][]common.Hash{{signature}},
	}

	logs := make(chan types.Log)
	sub, err := r.client.SubscribeFilterLogs(ctx, query, logs)
	if err != nil {
		return domain.NewConnectivityError("subscribe filter logs", err)
	}
	defer func() {
		sub.Unsubscribe()
		logger.InfoCtx(ctx, "Unsubscribed from settlement events",
			zap.String("contract", r.contract.Hex()))
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-sub.Err():
			return domain.NewConnectivityError("subscription", err)
		case vLog := <-logs:
			ts, err := r.blockTimestamp(ctx, vLog.BlockNumber, nil)
			if err != nil {
				return err
			}

			decoded, err := r.decodeLog(vLog, ts)
			if err != nil {
				logger.WarnCtx(ctx, "Skipping undecodable log",
					zap.Error(err),
					zap.String("tx_hash", vLog.TxHash.Hex()))
				continue
			}

			if err := handler(decoded); err != nil {
				logger.ErrorCtx(ctx, err,
					zap.String("tx_hash", decoded.TxHash),
					zap.String("validation_id", decoded.ValidationID))
			}
		}
	}
}

// Close closes the connection
func (r *ethReader) Close() {
	r.client.Close()
}

// blockTimestamp fetches the timestamp of a block, consulting cache when
// given one (replay batches often share blocks).
func (r *ethReader) blockTimestamp(ctx context.Context, blockNumber uint64, cache map[uint64]time.Time) (time.Time, error) {
	if cache != nil {
		if ts, ok := cache[blockNumber]; ok {
			return ts, nil
		}
	}

	header, err := r.client.HeaderByNumber(ctx, new(big.Int).SetUint64(blockNumber))
	if err != nil {
		return time.Time{}, domain.NewConnectivityError("get block header", err)
	}

	ts := time.Unix(int64(header.Time), 0).UTC() //nolint:gosec,G115 // header.Time is a uint64 from geth which is safe to cast
	if cache != nil {
		cache[blockNumber] = ts
	}
	return ts, nil
}

// decodeLog decodes a raw log into a SettlementEvent. Unknown signatures and
// malformed shapes yield a DecodeError.
func (r *ethReader) decodeLog(vLog types.Log, ts time.Time) (*domain.SettlementEvent, error) {
	if len(vLog.Topics) == 0 {
		return nil, domain.NewDecodeError(vLog.TxHash.Hex(), "log has no topics")
	}

	switch vLog.Topics[0] {
	case bountyPaidEventSignature:
		// BountyPaid(bytes32 indexed validationId, address indexed researcher, uint256 amount)
		if len(vLog.Topics) != 3 {
			return nil, domain.NewDecodeError(vLog.TxHash.Hex(),
				"invalid BountyPaid event: expected 3 topics, got %d", len(vLog.Topics))
		}
		if len(vLog.Data) < 32 {
			return nil, domain.NewDecodeError(vLog.TxHash.Hex(),
				"invalid BountyPaid event: insufficient data")
		}

		rawAmount := new(big.Int).SetBytes(vLog.Data[0:32])
		return &domain.SettlementEvent{
			Event:           domain.EventBountyPaid,
			ContractAddress: vLog.Address.Hex(),
			ValidationID:    vLog.Topics[1].Hex(),
			Researcher:      common.BytesToAddress(vLog.Topics[2].Bytes()).Hex(),
			RawAmount:       rawAmount,
			Amount:          decimal.NewFromBigInt(rawAmount, -r.decimals),
			TxHash:          vLog.TxHash.Hex(),
			BlockNumber:     vLog.BlockNumber,
			Timestamp:       ts,
		}, nil

	default:
		return nil, domain.NewDecodeError(vLog.TxHash.Hex(),
			"unknown event signature: %s", vLog.Topics[0].Hex())
	}
}

// eventSignature maps a known event name to its topic hash
func eventSignature(event domain.EventName) (common.Hash, error) {
	switch event {
	case domain.EventBountyPaid:
		return bountyPaidEventSignature, nil
	default:
		return common.Hash{}, domain.NewDecodeError("", "unknown event name: %s", event)
	}
}

// filterLogsChunked fetches logs for the query range in chunks, halving the
// chunk size when the node rejects a range for returning too many results.
func (r *ethReader) filterLogsChunked(ctx context.Context, query ethereum.FilterQuery) ([]types.Log, error) {
	const initialStepSize = uint64(100_000)
	currentStepSize := initialStepSize

	var allLogs []types.Log
	currentFrom := new(big.Int).Set(query.FromBlock)

	for currentFrom.Cmp(query.ToBlock) <= 0 {
		currentTo := new(big.Int).Add(currentFrom, new(big.Int).SetUint64(currentStepSize-1))
		if currentTo.Cmp(query.ToBlock) > 0 {
			currentTo.Set(query.ToBlock)
		}

		chunk := query
		chunk.FromBlock = new(big.Int).Set(currentFrom)
		chunk.ToBlock = new(big.Int).Set(currentTo)

		logs, err := r.client.FilterLogs(ctx, chunk)
		if err == nil {
			allLogs = append(allLogs, logs...)
			currentFrom.SetUint64(currentTo.Uint64() + 1)
			continue
		}

		if !isTooManyResultsError(err) {
			return nil, err
		}

		currentStepSize = currentStepSize / 2
		if currentStepSize == 0 {
			return nil, err
		}

		logger.Warn("Too many results, reducing step size",
			zap.Uint64("newStepSize", currentStepSize),
			zap.Uint64("fromBlock", currentFrom.Uint64()),
			zap.Uint64("toBlock", currentTo.Uint64()))
	}

	return allLogs, nil
}

// isTooManyResultsError checks if the error is related to too many results
func isTooManyResultsError(err error) bool {
	if err == nil {
		return false
	}

	errStr := err.Error()
	return strings.Contains(errStr, "query returned more than 10000 results") ||
		strings.Contains(errStr, "query timeout exceeded") ||
		strings.Contains(errStr, "too many results") ||
		strings.Contains(errStr, "exceeded maximum")
}
