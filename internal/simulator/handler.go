package simulator

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/0xPexy/sentra-wallet/internal/eip5792"
	"github.com/0xPexy/sentra-wallet/internal/erc7715"
	"github.com/0xPexy/sentra-wallet/internal/quantity"
	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Upstream handles JSON-RPC requests for methods the wallet does not serve.
type Upstream interface {
	Forward(c *gin.Context, body []byte)
}

type Handler struct {
	wallet   *Wallet
	upstream Upstream
	logger   *zap.Logger
}

func NewHandler(w *Wallet) *Handler {
	return &Handler{wallet: w, logger: w.logger}
}

// WithUpstream forwards unknown methods to u instead of answering
// method-not-found.
func (h *Handler) WithUpstream(u Upstream) *Handler {
	h.upstream = u
	return h
}

func (h *Handler) HandleJSONRPC(c *gin.Context) {
	var req rpcRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusOK, rpcErr(nil, errInvalidRequest, "invalid json"))
		return
	}
	var (
		result any
		err    error
	)
	ctx := c.Request.Context()
	switch req.Method {
	case "eth_chainId":
		result = quantity.EncodeUint64(h.wallet.ChainID())
	case erc7715.MethodGetActivePermissions:
		var addr common.Address
		if err = singleParam(req.Params, &addr); err == nil {
			result, err = h.wallet.activePermissions(ctx, addr)
		}
	case erc7715.MethodGrantPermissions:
		var in struct {
			Permissions []erc7715.Permission `json:"permissions"`
		}
		if err = singleParam(req.Params, &in); err == nil {
			result, err = h.wallet.grantPermissions(ctx, in.Permissions)
		}
	case eip5792.MethodPrepareCalls:
		var in prepareCallsRequest
		if err = singleParam(req.Params, &in); err == nil {
			result, err = h.wallet.prepareCalls(ctx, in)
		}
	case eip5792.MethodSendPreparedCalls:
		var in eip5792.SendPreparedCallsRequest
		if err = singleParam(req.Params, &in); err == nil {
			result, err = h.wallet.sendPreparedCalls(ctx, in)
		}
	default:
		if h.upstream != nil {
			body, mErr := json.Marshal(req)
			if mErr != nil {
				c.JSON(http.StatusOK, rpcErr(req.ID, errInvalidRequest, "invalid request"))
				return
			}
			h.upstream.Forward(c, body)
			return
		}
		c.JSON(http.StatusOK, rpcErr(req.ID, errMethodNotFound, "method not found"))
		return
	}

	if err != nil {
		var re *rpcError
		if errors.As(err, &re) {
			h.logger.Debug("rejected wallet request", zap.String("method", req.Method), zap.Error(err))
			c.JSON(http.StatusOK, rpcErr(req.ID, re.code, re.msg))
			return
		}
		h.logger.Error("wallet request failed", zap.String("method", req.Method), zap.Error(err))
		c.JSON(http.StatusOK, rpcErr(req.ID, errServer, "internal error"))
		return
	}
	c.JSON(http.StatusOK, rpcOK(req.ID, result))
}

// singleParam decodes the first positional param into v.
func singleParam(params json.RawMessage, v any) error {
	var in []json.RawMessage
	if err := json.Unmarshal(params, &in); err != nil || len(in) == 0 {
		return invalidParams("invalid params")
	}
	if err := json.Unmarshal(in[0], v); err != nil {
		return invalidParams("invalid params: %v", err)
	}
	return nil
}

// namedParams decodes a by-name params object into v. A single-element array
// wrapping the object is tolerated.
func namedParams(params json.RawMessage, v any) error {
	trimmed := bytes.TrimSpace(params)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		return singleParam(params, v)
	}
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return invalidParams("invalid params")
	}
	if err := json.Unmarshal(trimmed, v); err != nil {
		return invalidParams("invalid params: %v", err)
	}
	return nil
}

// GetBundle serves GET /bundles/:id.
func (h *Handler) GetBundle(c *gin.Context) {
	b, err := h.wallet.Bundle(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.logger.Error("load bundle failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load bundle"})
		return
	}
	if b == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "bundle not found"})
		return
	}
	c.JSON(http.StatusOK, b)
}

// GetPermissions serves GET /permissions/:account.
func (h *Handler) GetPermissions(c *gin.Context) {
	raw := c.Param("account")
	if !common.IsHexAddress(raw) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid account"})
		return
	}
	out, err := h.wallet.activePermissions(c.Request.Context(), common.HexToAddress(raw))
	if err != nil {
		h.logger.Error("load permissions failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load permissions"})
		return
	}
	c.JSON(http.StatusOK, out)
}
