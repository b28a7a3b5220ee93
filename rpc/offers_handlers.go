package rpc

import (
	"net/http"
)

func (s *Server) handleOffersGetOffer(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	if len(req.Params) < 1 {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "offer reference required", nil)
		return
	}
	var params struct {
		itemRef
		Offeror string `json:"offeror"`
	}
	if err := decodeParam(req.Params[0], &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	collection, err := params.collection()
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	offeror, err := parseAddress(params.Offeror)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	offer, ok := s.node.Offers().GetOffer(collection, params.AssetID, offeror)
	if !ok {
		writeError(w, http.StatusNotFound, req.ID, codeServerError, "offer not found", nil)
		return
	}
	writeResult(w, req.ID, offerResult(offer))
}

func (s *Server) handleOffersListForItem(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	if len(req.Params) < 1 {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "item reference required", nil)
		return
	}
	var ref itemRef
	if err := decodeParam(req.Params[0], &ref); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	collection, err := ref.collection()
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	engine := s.node.Offers()
	results := []OfferResult{}
	for i := 0; i < engine.CountForItem(collection, ref.AssetID); i++ {
		offer, err := engine.ForItemByIndex(collection, ref.AssetID, i)
		if err != nil {
			s.writeEngineError(w, req.ID, err)
			return
		}
		results = append(results, offerResult(offer))
	}
	writeResult(w, req.ID, results)
}

func (s *Server) handleOffersListForOfferor(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	if len(req.Params) < 1 {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "offeror required", nil)
		return
	}
	var params struct {
		Offeror string `json:"offeror"`
	}
	if err := decodeParam(req.Params[0], &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	offeror, err := parseAddress(params.Offeror)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	engine := s.node.Offers()
	results := []OfferResult{}
	for i := 0; i < engine.CountForOfferor(offeror); i++ {
		offer, err := engine.ForOfferorByIndex(offeror, i)
		if err != nil {
			s.writeEngineError(w, req.ID, err)
			return
		}
		results = append(results, offerResult(offer))
	}
	writeResult(w, req.ID, results)
}

func (s *Server) handleOffersCreate(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	if len(req.Params) < 2 {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "caller envelope and offer required", nil)
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
		itemRef
		Currency string `json:"currency"`
		Supplied string `json:"supplied"`
		Amount   string `json:"amount"`
	}
	if err := decodeParam(req.Params[1], &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	collection, err := params.collection()
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	supplied, err := parseAmount(params.Supplied)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	amount, err := parseAmount(params.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	offer, err := s.node.Offers().CreateOffer(caller, collection, params.AssetID, params.Currency, supplied, amount)
	if err != nil {
		s.writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, offerResult(offer))
}

func (s *Server) handleOffersCancel(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	if len(req.Params) < 2 {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "caller envelope and item reference required", nil)
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
	var ref itemRef
	if err := decodeParam(req.Params[1], &ref); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	collection, err := ref.collection()
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.node.Offers().CancelOffer(caller, collection, ref.AssetID); err != nil {
		s.writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]bool{"cancelled": true})
}

func (s *Server) handleOffersAccept(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	if len(req.Params) < 2 {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "caller envelope and offer reference required", nil)
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
		itemRef
		Offeror string `json:"offeror"`
	}
	if err := decodeParam(req.Params[1], &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	collection, err := params.collection()
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	offeror, err := parseAddress(params.Offeror)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.node.Offers().AcceptOffer(caller, collection, params.AssetID, offeror); err != nil {
		s.writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]bool{"accepted": true})
}
