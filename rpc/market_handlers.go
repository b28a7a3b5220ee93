package rpc

import (
	"net/http"
)

func (s *Server) handleMarketGetItem(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
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
	item, ok := s.node.Market().GetItem(collection, ref.AssetID)
	if !ok {
		writeError(w, http.StatusNotFound, req.ID, codeServerError, "item not found", nil)
		return
	}
	writeResult(w, req.ID, marketItemResult(item))
}

func (s *Server) handleMarketListItems(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	if len(req.Params) < 1 {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "collection required", nil)
		return
	}
	var params struct {
		Collection string `json:"collection"`
		Seller     string `json:"seller,omitempty"`
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

	engine := s.node.Market()
	results := []MarketItemResult{}
	if params.Seller != "" {
		seller, err := parseAddress(params.Seller)
		if err != nil {
			writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
			return
		}
		for i := 0; i < engine.CountOf(seller, collection); i++ {
			item, err := engine.OfOwnerByIndex(seller, collection, i)
			if err != nil {
				s.writeEngineError(w, req.ID, err)
				return
			}
			results = append(results, marketItemResult(item))
		}
	} else {
		for i := 0; i < engine.Count(collection); i++ {
			item, err := engine.ByIndex(collection, i)
			if err != nil {
				s.writeEngineError(w, req.ID, err)
				return
			}
			results = append(results, marketItemResult(item))
		}
	}
	writeResult(w, req.ID, results)
}

func (s *Server) handleMarketCreateItem(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	if len(req.Params) < 2 {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "caller envelope and listing required", nil)
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
		Price string `json:"price"`
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
	price, err := parseAmount(params.Price)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	item, err := s.node.Market().CreateItem(caller, collection, params.AssetID, price)
	if err != nil {
		s.writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, marketItemResult(item))
}

func (s *Server) handleMarketUpdateItem(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	if len(req.Params) < 2 {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "caller envelope and listing required", nil)
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
		Price string `json:"price"`
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
	price, err := parseAmount(params.Price)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	item, err := s.node.Market().UpdateItem(caller, collection, params.AssetID, price)
	if err != nil {
		s.writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, marketItemResult(item))
}

func (s *Server) handleMarketCancelItem(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
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
	if err := s.node.Market().CancelItem(caller, collection, ref.AssetID); err != nil {
		s.writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]bool{"cancelled": true})
}

func (s *Server) handleMarketBuy(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	if len(req.Params) < 2 {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "caller envelope and purchase required", nil)
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
	consumed, err := s.node.Market().Buy(caller, collection, params.AssetID, params.Currency, supplied)
	if err != nil {
		s.writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]string{"consumed": consumed.String()})
}
