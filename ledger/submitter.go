package ledger

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/rpc"

	"github.com/dapphub-labs/dapphub/config"
)

// MoveCall describes one prepared call to an entry function: the function
// reference plus its ordered arguments.
type MoveCall struct {
	PackageID string
	Module    string
	Function  string
	TypeArgs  []string
	Args      []interface{}
	GasBudget uint64
}

// TxResult is the terminal outcome of a submitted transaction. Success false
// means the ledger executed the transaction and rejected it; Error carries
// the ledger's own reason string verbatim.
type TxResult struct {
	Digest  string
	Success bool
	Error   string
}

// Submitter submits a prepared call and awaits its terminal result. An error
// return means the submission never reached a terminal state (transport
// failure); a TxResult with Success false means it did, and failed.
type Submitter interface {
	Submit(ctx context.Context, call MoveCall) (*TxResult, error)
}

// SignerFunc signs serialized transaction bytes. Key management is outside
// this layer; callers inject whatever signing capability they hold.
type SignerFunc func(txBytes []byte) (serializedSignature string, err error)

const DefaultGasBudget = 50_000_000

type txBytesResponse struct {
	TxBytes string `json:"txBytes"`
}

type executeResponse struct {
	Digest  string `json:"digest"`
	Effects struct {
		Status struct {
			Status string `json:"status"`
			Error  string `json:"error"`
		} `json:"status"`
	} `json:"effects"`
}

// RPCSubmitter builds call transactions on the full node and executes them
// with an injected signer.
type RPCSubmitter struct {
	rpcClient *rpc.Client
	sender    string
	sign      SignerFunc
}

func NewRPCSubmitter(cfg *config.LedgerConfig, sender string, sign SignerFunc) (*RPCSubmitter, error) {
	rpcClient, err := rpc.DialContext(context.Background(), cfg.RPCAddrs[0])
	if err != nil {
		return nil, err
	}
	return &RPCSubmitter{
		rpcClient: rpcClient,
		sender:    sender,
		sign:      sign,
	}, nil
}

func (s *RPCSubmitter) Submit(ctx context.Context, call MoveCall) (*TxResult, error) {
	gasBudget := call.GasBudget
	if gasBudget == 0 {
		gasBudget = DefaultGasBudget
	}
	typeArgs := call.TypeArgs
	if typeArgs == nil {
		typeArgs = []string{}
	}
	args := call.Args
	if args == nil {
		args = []interface{}{}
	}

	var built txBytesResponse
	err := s.rpcClient.CallContext(ctx, &built, "unsafe_moveCall",
		s.sender, call.PackageID, call.Module, call.Function, typeArgs, args, nil, fmt.Sprintf("%d", gasBudget))
	if err != nil {
		return nil, fmt.Errorf("build %s::%s call: %w", call.Module, call.Function, err)
	}
	txBytes, err := base64.StdEncoding.DecodeString(built.TxBytes)
	if err != nil {
		return nil, fmt.Errorf("decode tx bytes: %w", err)
	}
	signature, err := s.sign(txBytes)
	if err != nil {
		return nil, fmt.Errorf("sign %s::%s call: %w", call.Module, call.Function, err)
	}

	var executed executeResponse
	err = s.rpcClient.CallContext(ctx, &executed, "sui_executeTransactionBlock",
		built.TxBytes, []string{signature}, map[string]bool{"showEffects": true}, "WaitForLocalExecution")
	if err != nil {
		return nil, fmt.Errorf("execute %s::%s call: %w", call.Module, call.Function, err)
	}
	result := &TxResult{
		Digest:  executed.Digest,
		Success: executed.Effects.Status.Status == "success",
		Error:   executed.Effects.Status.Error,
	}
	return result, nil
}

// ParseEventPayload decodes an event's parsed JSON into the given shape.
func ParseEventPayload(ev Event, out interface{}) error {
	if len(ev.ParsedJSON) == 0 {
		return fmt.Errorf("event %s has no parsed payload", ev.Type)
	}
	return json.Unmarshal(ev.ParsedJSON, out)
}
