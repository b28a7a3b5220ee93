package rpc

import (
	"net/http"
)

func (s *Server) handleSettlementPendingRevenue(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	if len(req.Params) < 1 {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "address required", nil)
		return
	}
	var params struct {
		Address string `json:"address"`
	}
	if err := decodeParam(req.Params[0], &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	addr, err := parseAddress(params.Address)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	pending, err := s.node.Ledger().PendingRevenue(addr)
	if err != nil {
		s.writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]string{
		"address": formatAddress(addr),
		"pending": pending.String(),
	})
}

func (s *Server) handleSettlementRetrieveRevenue(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	if len(req.Params) < 1 {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "caller envelope required", nil)
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
	paid, err := s.node.Ledger().RetrievePendingRevenue(caller)
	if err != nil {
		s.writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]string{"retrieved": paid.String()})
}

func (s *Server) handleSettlementApprovedCurrencies(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	currencies := s.node.Ledger().ApprovedCurrencies()
	result := struct {
		Accounting string   `json:"accounting"`
		Approved   []string `json:"approved"`
	}{
		Accounting: s.node.Ledger().AccountingCurrency(),
		Approved:   currencies,
	}
	writeResult(w, req.ID, result)
}
