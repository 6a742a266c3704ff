package chain

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/haMahdiyar/analyzer-galxe-refdrop/internal/domain"
)

const (
	methodReferralCode    = "getReferralCode"
	methodHasSubscription = "hasSubscription"
)

var (
	//go:embed abi/referral.json
	referralABIJSON []byte
	//go:embed abi/subscription.json
	subscriptionABIJSON []byte

	referralABI     = mustParseABI(referralABIJSON)
	subscriptionABI = mustParseABI(subscriptionABIJSON)
)

// ErrNoContract indicates the network has no contract configured for a capability.
var ErrNoContract = errors.New("chain: no contract configured")

func mustParseABI(raw []byte) abi.ABI {
	parsed, err := abi.JSON(bytes.NewReader(raw))
	if err != nil {
		panic(fmt.Sprintf("parse embedded abi: %v", err))
	}
	return parsed
}

// ContractCaller is the read-only subset of ethclient.Client used by Reader.
type ContractCaller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// Reader performs read-only contract calls on a single network.
type Reader struct {
	network domain.Network
	caller  ContractCaller
	client  *ethclient.Client
}

// NewReader wraps an existing caller. The reader does not own the caller.
func NewReader(network domain.Network, caller ContractCaller) *Reader {
	return &Reader{network: network, caller: caller}
}

// DialReader connects to the network's RPC endpoint.
func DialReader(ctx context.Context, network domain.Network) (*Reader, error) {
	client, err := ethclient.DialContext(ctx, network.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("dial %s rpc: %w", network.Name, err)
	}
	return &Reader{network: network, caller: client, client: client}, nil
}

// Dial builds one reader per network. On error, readers already dialed are closed.
func Dial(ctx context.Context, networks []domain.Network) ([]*Reader, error) {
	readers := make([]*Reader, 0, len(networks))
	for _, n := range networks {
		r, err := DialReader(ctx, n)
		if err != nil {
			for _, opened := range readers {
				opened.Close()
			}
			return nil, err
		}
		readers = append(readers, r)
	}
	return readers, nil
}

func (r *Reader) Network() domain.Network {
	return r.network
}

// ReferralCode returns the referral code registered for user; empty means unregistered.
func (r *Reader) ReferralCode(ctx context.Context, user common.Address) (string, error) {
	out, err := r.call(ctx, r.network.ReferralContract, referralABI, methodReferralCode, user)
	if err != nil {
		return "", err
	}
	code, err := ExtractString(out)
	if err != nil {
		return "", fmt.Errorf("%s %s: %w", r.network.Name, methodReferralCode, err)
	}
	return code, nil
}

// HasSubscription reports whether user holds an active subscription.
func (r *Reader) HasSubscription(ctx context.Context, user common.Address) (bool, error) {
	out, err := r.call(ctx, r.network.SubscriptionContract, subscriptionABI, methodHasSubscription, user)
	if err != nil {
		return false, err
	}
	ok, err := ExtractBool(out)
	if err != nil {
		return false, fmt.Errorf("%s %s: %w", r.network.Name, methodHasSubscription, err)
	}
	return ok, nil
}

func (r *Reader) call(ctx context.Context, contract string, parsed abi.ABI, method string, args ...any) ([]any, error) {
	if contract == "" {
		return nil, fmt.Errorf("%s %s: %w", r.network.Name, method, ErrNoContract)
	}
	data, err := parsed.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	to := common.HexToAddress(contract)
	raw, err := r.caller.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("%s eth_call %s: %w", r.network.Name, method, err)
	}
	out, err := parsed.Unpack(method, raw)
	if err != nil {
		return nil, fmt.Errorf("%s unpack %s: %w", r.network.Name, method, err)
	}
	return out, nil
}

// Close releases the underlying RPC client, if the reader owns one.
func (r *Reader) Close() {
	if r.client != nil {
		r.client.Close()
	}
}
