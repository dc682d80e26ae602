// Package gateway exposes the evidence engine over HTTP.
package gateway

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/attestprotocol/attest/internal/auth"
	"github.com/attestprotocol/attest/internal/evidence"
	"github.com/attestprotocol/attest/pkg/keys"
	"github.com/attestprotocol/attest/pkg/sigserial"
)

// EvidenceHandler wires the four evidence operations into the router.
type EvidenceHandler struct {
	engine *evidence.Engine
	tokens *auth.TokenIssuer // nil = write endpoints are unauthenticated
	logger *zap.Logger
}

// NewEvidenceHandler creates an EvidenceHandler. tokens may be nil to
// disable bearer authentication on the write endpoints.
func NewEvidenceHandler(engine *evidence.Engine, tokens *auth.TokenIssuer, logger *zap.Logger) *EvidenceHandler {
	return &EvidenceHandler{engine: engine, tokens: tokens, logger: logger}
}

// Register mounts the evidence routes on the given router group.
func (h *EvidenceHandler) Register(rg *gin.RouterGroup) {
	ev := rg.Group("/evidence")
	ev.GET("/:address", h.GetInfo)

	writes := ev.Group("")
	if h.tokens != nil {
		writes.Use(auth.RequireToken(h.tokens))
	}
	writes.POST("", h.Create)
	writes.POST("/:address/signatures", h.AddSignature)
	writes.PUT("/:address/hash", h.SetHash)
}

// CreateRequest is the payload for POST /evidence.
type CreateRequest struct {
	// Signature is the serialized base64 signature token over the
	// evidence content.
	Signature   string   `json:"signature"    binding:"required"`
	HashValues  []string `json:"hash_values"  binding:"required"`
	ExtraValues []string `json:"extra_values"`
	// PrivateKey is the submitter's key in decimal form. It signs the
	// transaction and is the default signer identity.
	PrivateKey string   `json:"private_key"  binding:"required"`
	Signers    []string `json:"signers"`
}

// SignRequest is the payload for POST /evidence/:address/signatures.
type SignRequest struct {
	Signature  string `json:"signature"   binding:"required"`
	PrivateKey string `json:"private_key" binding:"required"`
}

// SetHashRequest is the payload for PUT /evidence/:address/hash.
type SetHashRequest struct {
	HashValues []string `json:"hash_values" binding:"required"`
	PrivateKey string   `json:"private_key" binding:"required"`
}

// Create handles POST /evidence.
func (h *EvidenceHandler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sig, key, ok := h.parseSigAndKey(c, req.Signature, req.PrivateKey)
	if !ok {
		return
	}

	addr, txInfo, err := h.engine.CreateEvidence(
		c.Request.Context(), sig, req.HashValues, req.ExtraValues, key, req.Signers,
	)
	RecordOperation("create", err)
	if err != nil {
		h.writeEngineError(c, err, txInfo)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"address":     addr,
		"transaction": txInfo,
	})
}

// AddSignature handles POST /evidence/:address/signatures.
func (h *EvidenceHandler) AddSignature(c *gin.Context) {
	var req SignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sig, key, ok := h.parseSigAndKey(c, req.Signature, req.PrivateKey)
	if !ok {
		return
	}

	succeeded, txInfo, err := h.engine.AddSignature(c.Request.Context(), sig, key, c.Param("address"))
	RecordOperation("add_signature", err)
	if err != nil {
		h.writeEngineError(c, err, txInfo)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"succeeded":   succeeded,
		"transaction": txInfo,
	})
}

// SetHash handles PUT /evidence/:address/hash.
func (h *EvidenceHandler) SetHash(c *gin.Context) {
	var req SetHashRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	key, err := keys.FromDecimal(req.PrivateKey)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	succeeded, txInfo, err := h.engine.SetHashValue(c.Request.Context(), req.HashValues, key, c.Param("address"))
	RecordOperation("set_hash", err)
	if err != nil {
		h.writeEngineError(c, err, txInfo)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"succeeded":   succeeded,
		"transaction": txInfo,
	})
}

// GetInfo handles GET /evidence/:address.
func (h *EvidenceHandler) GetInfo(c *gin.Context) {
	info, err := h.engine.GetInfo(c.Request.Context(), c.Param("address"))
	RecordOperation("get_info", err)
	if err != nil {
		if errors.Is(err, evidence.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "evidence not found"})
			return
		}
		// Undecodable state on an existing record is a server-side fault,
		// not a missing record.
		h.writeEngineError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, info)
}

func (h *EvidenceHandler) parseSigAndKey(c *gin.Context, token, privateKey string) (sigserial.SignatureData, *keys.PrivateKey, bool) {
	sig, err := sigserial.Deserialize(token)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return sig, nil, false
	}
	key, err := keys.FromDecimal(privateKey)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return sig, nil, false
	}
	return sig, key, true
}

// writeEngineError maps the engine's error taxonomy onto HTTP statuses.
// Contract rejections include the confirmed transaction metadata so the
// caller can locate the recorded-but-rejected write.
func (h *EvidenceHandler) writeEngineError(c *gin.Context, err error, txInfo *evidence.TransactionInfo) {
	body := gin.H{"error": err.Error()}
	if txInfo != nil {
		body["transaction"] = txInfo
	}

	switch {
	case errors.Is(err, evidence.ErrTimeout):
		// The write may still land; the record is "unknown, check by
		// address", not rolled back.
		c.JSON(http.StatusGatewayTimeout, body)
	case errors.Is(err, evidence.ErrExecution):
		c.JSON(http.StatusBadGateway, body)
	case errors.Is(err, evidence.ErrContractRejected):
		c.JSON(http.StatusUnprocessableEntity, body)
	default:
		h.logger.Error("evidence operation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, body)
	}
}
