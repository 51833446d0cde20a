package simulator

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/0xPexy/sentra-wallet/internal/eip5792"
	"github.com/0xPexy/sentra-wallet/internal/quantity"
	"github.com/0xPexy/sentra-wallet/internal/store"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// PreparedCallsType is the only preparedCalls type the simulator emits.
const PreparedCallsType = "user-operation-v06"

// fixed gas figures; nothing is executed so they only need to look plausible
var (
	callGasLimit         = big.NewInt(0x30d40)
	verificationGasLimit = big.NewInt(0x7a120)
	preVerificationGas   = big.NewInt(0xc350)
	maxFeePerGas         = big.NewInt(0x3b9aca00)
	maxPriorityFeePerGas = big.NewInt(0x3b9aca00)
)

type wireCall struct {
	To      *common.Address `json:"to"`
	Data    hexutil.Bytes   `json:"data"`
	Value   json.RawMessage `json:"value"`
	ChainID json.RawMessage `json:"chainId"`
}

type prepareCallsRequest struct {
	From         common.Address  `json:"from"`
	Calls        []wireCall      `json:"calls"`
	ChainID      json.RawMessage `json:"chainId"`
	Capabilities struct {
		PaymasterService *eip5792.PaymasterService      `json:"paymasterService"`
		Permissions      *eip5792.PermissionsCapability `json:"permissions"`
	} `json:"capabilities"`
	Version string `json:"version"`
}

func (w *Wallet) checkChain(raw json.RawMessage, field string) error {
	id, err := quantity.DecodeUint64(raw)
	if err != nil {
		return invalidParams("%s: %v", field, err)
	}
	if id != w.cfg.ChainID {
		return invalidParams("%s: unsupported chain %d", field, id)
	}
	return nil
}

// prepareCalls turns the calls into a single executeBatch user operation and
// records it under its signature request hash.
func (w *Wallet) prepareCalls(ctx context.Context, req prepareCallsRequest) ([]eip5792.PreparedBundle, error) {
	if req.From == (common.Address{}) {
		return nil, invalidParams("from is required")
	}
	if len(req.Calls) == 0 {
		return nil, invalidParams("at least one call is required")
	}
	if err := w.checkChain(req.ChainID, "chainId"); err != nil {
		return nil, err
	}

	batch := make([]batchCall, 0, len(req.Calls))
	for i, c := range req.Calls {
		if c.To == nil {
			return nil, invalidParams("calls[%d]: to is required", i)
		}
		value := new(big.Int)
		if len(c.Value) > 0 {
			v, err := quantity.Decode(c.Value)
			if err != nil {
				return nil, invalidParams("calls[%d].value: %v", i, err)
			}
			if v != nil {
				value = v
			}
		}
		if len(c.ChainID) > 0 {
			if err := w.checkChain(c.ChainID, fmt.Sprintf("calls[%d].chainId", i)); err != nil {
				return nil, err
			}
		}
		batch = append(batch, batchCall{Target: *c.To, Value: value, Data: c.Data})
	}

	now := w.now()
	var permissionsContext string
	if p := req.Capabilities.Permissions; p != nil && p.Context != "" {
		ok, err := w.repo.GrantContextExists(ctx, req.From.Hex(), p.Context, now)
		if err != nil {
			return nil, errors.Wrap(err, "check permissions context")
		}
		if !ok {
			return nil, unauthorized("permissions context %s is unknown or expired", p.Context)
		}
		permissionsContext = p.Context
	}

	callData, err := encodeExecuteBatch(batch)
	if err != nil {
		return nil, invalidParams("encode calls: %v", err)
	}
	callsJSON, err := json.Marshal(req.Calls)
	if err != nil {
		return nil, err
	}

	w.prepareMu.Lock()
	defer w.prepareMu.Unlock()

	nonce, err := w.repo.NextNonce(ctx, req.From.Hex(), w.cfg.ChainID)
	if err != nil {
		return nil, errors.Wrap(err, "allocate nonce")
	}
	hash, err := bundleHash(req.From, nonce, callData, w.cfg.ChainID)
	if err != nil {
		return nil, errors.Wrap(err, "bundle hash")
	}

	op := eip5792.UserOperation{
		Sender:               req.From,
		Nonce:                (*hexutil.Big)(new(big.Int).SetUint64(nonce)),
		InitCode:             hexutil.Bytes{},
		CallData:             callData,
		CallGasLimit:         (*hexutil.Big)(callGasLimit),
		VerificationGasLimit: (*hexutil.Big)(verificationGasLimit),
		PreVerificationGas:   (*hexutil.Big)(preVerificationGas),
		MaxFeePerGas:         (*hexutil.Big)(maxFeePerGas),
		MaxPriorityFeePerGas: (*hexutil.Big)(maxPriorityFeePerGas),
		PaymasterAndData:     hexutil.Bytes{},
		Signature:            hexutil.Bytes{},
	}
	values, err := json.Marshal([]eip5792.UserOperation{op})
	if err != nil {
		return nil, err
	}
	prepared := eip5792.PreparedCalls{Type: PreparedCallsType, Values: values}
	preparedJSON, err := json.Marshal(prepared)
	if err != nil {
		return nil, err
	}

	if err := w.repo.SaveBundle(ctx, &store.CallBundle{
		Hash:               hash.Hex(),
		Sender:             req.From.Hex(),
		ChainID:            w.cfg.ChainID,
		Nonce:              nonce,
		PermissionsContext: permissionsContext,
		Calls:              string(callsJSON),
		Prepared:           string(preparedJSON),
	}); err != nil {
		return nil, errors.Wrap(err, "save bundle")
	}

	if w.metrics != nil {
		w.metrics.BundlesPrepared.Inc()
	}
	w.logger.Info("calls prepared",
		zap.String("from", req.From.Hex()),
		zap.Uint64("nonce", nonce),
		zap.String("hash", hash.Hex()),
		zap.Int("calls", len(batch)))
	w.publish(Event{
		Type:    EventCallsPrepared,
		Account: req.From.Hex(),
		ChainID: w.cfg.ChainID,
		Context: permissionsContext,
		Hash:    hash.Hex(),
		Count:   len(batch),
	})

	return []eip5792.PreparedBundle{{
		PreparedCalls:    prepared,
		SignatureRequest: eip5792.SignatureRequest{Hash: hash},
	}}, nil
}

// sendPreparedCalls accepts a previously prepared bundle. The signature is
// recovered and recorded but never checked against the sender.
func (w *Wallet) sendPreparedCalls(ctx context.Context, req eip5792.SendPreparedCallsRequest) (string, error) {
	if req.PreparedCalls.Type != PreparedCallsType {
		return "", invalidParams("unsupported preparedCalls type %q", req.PreparedCalls.Type)
	}
	ops, err := req.PreparedCalls.UserOperations()
	if err != nil {
		return "", invalidParams("%v", err)
	}
	if len(ops) != 1 {
		return "", invalidParams("expected one user operation, got %d", len(ops))
	}
	op := ops[0]
	if op.Nonce == nil || !op.Nonce.ToInt().IsUint64() {
		return "", invalidParams("invalid nonce")
	}
	if req.From != (common.Address{}) && req.From != op.Sender {
		return "", invalidParams("from %s does not match sender %s", req.From.Hex(), op.Sender.Hex())
	}
	hash, err := bundleHash(op.Sender, op.Nonce.ToInt().Uint64(), op.CallData, w.cfg.ChainID)
	if err != nil {
		return "", errors.Wrap(err, "bundle hash")
	}

	var signer string
	sig := req.SignatureData.Values.Signature
	if addr, err := recoverSigner(hash, sig); err != nil {
		w.logger.Warn("unrecoverable signature", zap.String("hash", hash.Hex()), zap.Error(err))
	} else {
		signer = addr.Hex()
	}

	bundleID := newOpaqueID()
	err = w.repo.MarkBundleSent(ctx, hash.Hex(), bundleID, signer, hexutil.Encode(sig), w.now())
	switch {
	case errors.Is(err, store.ErrNotFound):
		return "", invalidParams("unknown prepared calls %s", hash.Hex())
	case errors.Is(err, store.ErrConflict):
		return "", invalidParams("prepared calls %s already sent", hash.Hex())
	case err != nil:
		return "", errors.Wrap(err, "mark bundle sent")
	}

	if w.metrics != nil {
		w.metrics.BundlesSent.Inc()
	}
	w.logger.Info("prepared calls sent",
		zap.String("hash", hash.Hex()),
		zap.String("bundleId", bundleID),
		zap.String("signer", signer))
	w.publish(Event{
		Type:     EventCallsSent,
		Account:  op.Sender.Hex(),
		ChainID:  w.cfg.ChainID,
		Context:  req.SignatureData.Values.Context,
		Hash:     hash.Hex(),
		BundleID: bundleID,
	})
	return bundleID, nil
}

// BundleView is the REST representation of a call bundle.
type BundleView struct {
	BundleID           string          `json:"bundleId,omitempty"`
	Hash               string          `json:"hash"`
	Sender             string          `json:"sender"`
	ChainID            uint64          `json:"chainId"`
	Nonce              uint64          `json:"nonce"`
	Status             string          `json:"status"`
	PermissionsContext string          `json:"permissionsContext,omitempty"`
	Calls              json.RawMessage `json:"calls"`
	Signer             string          `json:"signer,omitempty"`
	SentAt             int64           `json:"sentAt,omitempty"`
}

// Bundle looks a bundle up by its bundle id or, failing that, its hash.
// It returns nil when neither matches.
func (w *Wallet) Bundle(ctx context.Context, id string) (*BundleView, error) {
	b, err := w.repo.BundleByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b == nil {
		if b, err = w.repo.BundleByHash(ctx, id); err != nil || b == nil {
			return nil, err
		}
	}
	v := &BundleView{
		Hash:               b.Hash,
		Sender:             b.Sender,
		ChainID:            b.ChainID,
		Nonce:              b.Nonce,
		Status:             b.Status,
		PermissionsContext: b.PermissionsContext,
		Calls:              json.RawMessage(b.Calls),
		Signer:             b.Signer,
	}
	if len(v.Calls) == 0 {
		v.Calls = json.RawMessage("[]")
	}
	if b.BundleID != nil {
		v.BundleID = *b.BundleID
	}
	if b.SentAt != nil {
		v.SentAt = b.SentAt.Unix()
	}
	return v, nil
}
