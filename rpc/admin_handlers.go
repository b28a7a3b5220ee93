package rpc

import (
	"net/http"
)

// Admin methods act through the node so policy mutations persist; the engines
// and ledger enforce owner gating themselves, the transport only relays the
// effective caller.

func (s *Server) handleAdminSetWhitelisted(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	if len(req.Params) < 2 {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "caller envelope and policy required", nil)
		return
	}
	caller, envelope, err := parseCaller(req.Params[0])
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.validateCallerMetadata(caller, envelope.callerMetadataParams); err != nil {
		writeError(w, http.StatusUnauthorized, req.ID, codeUnauthorized, err.Error(), nil)
		return
	}
	var params struct {
		Collection  string `json:"collection"`
		Whitelisted bool   `json:"whitelisted"`
	}
	if err := decodeParam(req.Params[1], &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	collection, err := parseAddress(params.Collection)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.node.SetWhitelisted(caller, collection, params.Whitelisted); err != nil {
		s.writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]bool{"ok": true})
}

func (s *Server) handleAdminSetFeeBps(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	if len(req.Params) < 2 {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "caller envelope and policy required", nil)
		return
	}
	caller, envelope, err := parseCaller(req.Params[0])
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.validateCallerMetadata(caller, envelope.callerMetadataParams); err != nil {
		writeError(w, http.StatusUnauthorized, req.ID, codeUnauthorized, err.Error(), nil)
		return
	}
	var params struct {
		Collection string `json:"collection"`
		FeeBps     uint32 `json:"feeBps"`
	}
	if err := decodeParam(req.Params[1], &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	collection, err := parseAddress(params.Collection)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.node.SetFeeBps(caller, collection, params.FeeBps); err != nil {
		s.writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]bool{"ok": true})
}

func (s *Server) handleAdminSetFloorPrice(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	if len(req.Params) < 2 {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "caller envelope and policy required", nil)
		return
	}
	caller, envelope, err := parseCaller(req.Params[0])
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.validateCallerMetadata(caller, envelope.callerMetadataParams); err != nil {
		writeError(w, http.StatusUnauthorized, req.ID, codeUnauthorized, err.Error(), nil)
		return
	}
	var params struct {
		Collection string `json:"collection"`
		FloorPrice string `json:"floorPrice"`
	}
	if err := decodeParam(req.Params[1], &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	collection, err := parseAddress(params.Collection)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	floor, err := parseAmount(params.FloorPrice)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.node.SetFloorPrice(caller, collection, floor); err != nil {
		s.writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]bool{"ok": true})
}

func (s *Server) handleAdminSetPaused(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	if len(req.Params) < 2 {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "caller envelope and module required", nil)
		return
	}
	caller, envelope, err := parseCaller(req.Params[0])
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.validateCallerMetadata(caller, envelope.callerMetadataParams); err != nil {
		writeError(w, http.StatusUnauthorized, req.ID, codeUnauthorized, err.Error(), nil)
		return
	}
	var params struct {
		Module string `json:"module"`
		Paused bool   `json:"paused"`
	}
	if err := decodeParam(req.Params[1], &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.node.Switchboard().SetPaused(caller, params.Module, params.Paused); err != nil {
		s.writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]bool{"ok": true})
}

func (s *Server) handleAdminAddApprovedCurrency(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	if len(req.Params) < 2 {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "caller envelope and currency required", nil)
		return
	}
	caller, envelope, err := parseCaller(req.Params[0])
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.validateCallerMetadata(caller, envelope.callerMetadataParams); err != nil {
		writeError(w, http.StatusUnauthorized, req.ID, codeUnauthorized, err.Error(), nil)
		return
	}
	var params struct {
		Currency string `json:"currency"`
	}
	if err := decodeParam(req.Params[1], &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.node.AddApprovedCurrency(caller, params.Currency); err != nil {
		s.writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]bool{"ok": true})
}

func (s *Server) handleAdminRemoveApprovedCurrency(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	if len(req.Params) < 2 {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "caller envelope and currency required", nil)
		return
	}
	caller, envelope, err := parseCaller(req.Params[0])
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.validateCallerMetadata(caller, envelope.callerMetadataParams); err != nil {
		writeError(w, http.StatusUnauthorized, req.ID, codeUnauthorized, err.Error(), nil)
		return
	}
	var params struct {
		Currency string `json:"currency"`
	}
	if err := decodeParam(req.Params[1], &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.node.RemoveApprovedCurrency(caller, params.Currency); err != nil {
		s.writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]bool{"ok": true})
}

func (s *Server) handleAdminSetTreasury(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	if len(req.Params) < 2 {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "caller envelope and treasury required", nil)
		return
	}
	caller, envelope, err := parseCaller(req.Params[0])
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.validateCallerMetadata(caller, envelope.callerMetadataParams); err != nil {
		writeError(w, http.StatusUnauthorized, req.ID, codeUnauthorized, err.Error(), nil)
		return
	}
	var params struct {
		Treasury string `json:"treasury"`
	}
	if err := decodeParam(req.Params[1], &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	treasury, err := parseAddress(params.Treasury)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.node.SetTreasury(caller, treasury); err != nil {
		s.writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]bool{"ok": true})
}

func (s *Server) handleCollectionsGetPolicy(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	if len(req.Params) < 1 {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "collection required", nil)
		return
	}
	var params struct {
		Collection string `json:"collection"`
	}
	if err := decodeParam(req.Params[0], &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	collection, err := parseAddress(params.Collection)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	policy := s.node.Policy()
	feeBps, err := policy.FeeBps(collection)
	if err != nil {
		s.writeEngineError(w, req.ID, err)
		return
	}
	floor, err := policy.FloorPrice(collection)
	if err != nil {
		s.writeEngineError(w, req.ID, err)
		return
	}
	result := struct {
		Collection  string `json:"collection"`
		Whitelisted bool   `json:"whitelisted"`
		FeeBps      uint32 `json:"feeBps"`
		FloorPrice  string `json:"floorPrice"`
	}{
		Collection:  formatAddress(collection),
		Whitelisted: policy.IsWhitelisted(collection),
		FeeBps:      feeBps,
		FloorPrice:  floor.String(),
	}
	writeResult(w, req.ID, result)
}
