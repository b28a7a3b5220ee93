package rpc

import (
	"net/http"
)

func (s *Server) handleAuctionGetItem(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
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
	item, ok := s.node.Auction().GetItem(collection, ref.AssetID)
	if !ok {
		writeError(w, http.StatusNotFound, req.ID, codeServerError, "auction not found", nil)
		return
	}
	writeResult(w, req.ID, auctionItemResult(item))
}

func (s *Server) handleAuctionListItems(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
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

	engine := s.node.Auction()
	results := []AuctionItemResult{}
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
			results = append(results, auctionItemResult(item))
		}
	} else {
		for i := 0; i < engine.Count(collection); i++ {
			item, err := engine.ByIndex(collection, i)
			if err != nil {
				s.writeEngineError(w, req.ID, err)
				return
			}
			results = append(results, auctionItemResult(item))
		}
	}
	writeResult(w, req.ID, results)
}

func (s *Server) handleAuctionCreateItem(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	if len(req.Params) < 2 {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "caller envelope and auction required", nil)
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
		FloorPrice   string `json:"floorPrice"`
		DurationDays uint32 `json:"durationDays"`
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
	floor, err := parseAmount(params.FloorPrice)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	item, err := s.node.Auction().CreateItem(caller, collection, params.AssetID, floor, params.DurationDays)
	if err != nil {
		s.writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, auctionItemResult(item))
}

func (s *Server) handleAuctionBid(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	if len(req.Params) < 2 {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "caller envelope and bid required", nil)
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
	item, err := s.node.Auction().Bid(caller, collection, params.AssetID, params.Currency, supplied, amount)
	if err != nil {
		s.writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, auctionItemResult(item))
}

func (s *Server) handleAuctionFinish(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
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
	if err := s.node.Auction().FinishAuction(caller, collection, ref.AssetID); err != nil {
		s.writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]bool{"finished": true})
}
