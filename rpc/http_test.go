package rpc

import (
	"bytes"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"nftmarket/config"
	"nftmarket/core"
	"nftmarket/storage"
)

const (
	testToken = "test-token"
	ownerHex  = "0x0101010101010101010101010101010101010101"
	vaultHex  = "0xeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeee"
	sellerHex = "0xa1a1a1a1a1a1a1a1a1a1a1a1a1a1a1a1a1a1a1a1"
	buyerHex  = "0xb1b1b1b1b1b1b1b1b1b1b1b1b1b1b1b1b1b1b1b1"
	collHex   = "0xc1c1c1c1c1c1c1c1c1c1c1c1c1c1c1c1c1c1c1c1"
)

type fixture struct {
	node   *core.Node
	server *Server
	ts     *httptest.Server
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := &config.Config{
		Owner:              ownerHex,
		Vault:              vaultHex,
		AccountingCurrency: "WETH",
		AuctionMaxDays:     7,
	}
	node, err := core.NewNode(storage.NewMemDB(), cfg, nil)
	if err != nil {
		t.Fatalf("new node: %v", err)
	}
	server := NewServer(node, testToken)
	ts := httptest.NewServer(server.Handler())
	t.Cleanup(ts.Close)

	f := &fixture{node: node, server: server, ts: ts}

	owner := node.Owner()
	collection := mustAddr(t, collHex)
	seller := mustAddr(t, sellerHex)
	if err := node.SetWhitelisted(owner, collection, true); err != nil {
		t.Fatalf("whitelist: %v", err)
	}
	if err := node.SetFeeBps(owner, collection, 1_000); err != nil {
		t.Fatalf("set fee: %v", err)
	}
	if err := node.Assets().Register(collection, 0, seller); err != nil {
		t.Fatalf("register asset: %v", err)
	}
	node.Assets().SetApprovalForAll(collection, seller, node.Market().Self(), true)
	return f
}

func mustAddr(t *testing.T, hex string) [20]byte {
	t.Helper()
	addr, err := parseAddress(hex)
	if err != nil {
		t.Fatalf("parse address %s: %v", hex, err)
	}
	return addr
}

func (f *fixture) call(t *testing.T, token, method string, params ...interface{}) (*RPCResponse, int) {
	t.Helper()
	rawParams := make([]json.RawMessage, 0, len(params))
	for _, p := range params {
		raw, err := json.Marshal(p)
		if err != nil {
			t.Fatalf("marshal param: %v", err)
		}
		rawParams = append(rawParams, raw)
	}
	body, err := json.Marshal(map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  method,
		"params":  rawParams,
	})
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	httpReq, err := http.NewRequest(http.MethodPost, f.ts.URL, bytes.NewReader(body))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}
	httpResp, err := f.ts.Client().Do(httpReq)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer httpResp.Body.Close()
	resp := &RPCResponse{}
	if err := json.NewDecoder(httpResp.Body).Decode(resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp, httpResp.StatusCode
}

func resultInto(t *testing.T, resp *RPCResponse, out interface{}) {
	t.Helper()
	raw, err := json.Marshal(resp.Result)
	if err != nil {
		t.Fatalf("marshal result: %v", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		t.Fatalf("unmarshal result: %v", err)
	}
}

func caller(hex string) map[string]interface{} {
	return map[string]interface{}{"caller": hex}
}

func listing(price string) map[string]interface{} {
	return map[string]interface{}{
		"collection": collHex,
		"assetId":    0,
		"price":      price,
	}
}

func TestUnknownMethod(t *testing.T) {
	f := newFixture(t)
	resp, status := f.call(t, "", "market_unknown")
	if status != http.StatusNotFound || resp.Error == nil || resp.Error.Code != codeMethodNotFound {
		t.Fatalf("status = %d error = %+v", status, resp.Error)
	}
}

func TestMutationRequiresAuth(t *testing.T) {
	f := newFixture(t)
	resp, status := f.call(t, "", "market_createItem", caller(sellerHex), listing("100"))
	if status != http.StatusUnauthorized || resp.Error == nil || resp.Error.Code != codeUnauthorized {
		t.Fatalf("status = %d error = %+v", status, resp.Error)
	}
	resp, status = f.call(t, "wrong-token", "market_createItem", caller(sellerHex), listing("100"))
	if status != http.StatusUnauthorized || resp.Error == nil {
		t.Fatalf("status = %d error = %+v", status, resp.Error)
	}
}

func TestCreateAndGetItem(t *testing.T) {
	f := newFixture(t)
	resp, status := f.call(t, testToken, "market_createItem", caller(sellerHex), listing("100"))
	if status != http.StatusOK || resp.Error != nil {
		t.Fatalf("status = %d error = %+v", status, resp.Error)
	}

	resp, status = f.call(t, "", "market_getItem", map[string]interface{}{
		"collection": collHex,
		"assetId":    0,
	})
	if status != http.StatusOK || resp.Error != nil {
		t.Fatalf("status = %d error = %+v", status, resp.Error)
	}
	var item MarketItemResult
	resultInto(t, resp, &item)
	if item.Price != "100" || item.Currency != "WETH" {
		t.Fatalf("unexpected item: %+v", item)
	}

	resp, status = f.call(t, "", "market_listItems", map[string]interface{}{"collection": collHex})
	if status != http.StatusOK || resp.Error != nil {
		t.Fatalf("status = %d error = %+v", status, resp.Error)
	}
	var items []MarketItemResult
	resultInto(t, resp, &items)
	if len(items) != 1 {
		t.Fatalf("listed %d items, want 1", len(items))
	}
}

func TestBuyThroughRPC(t *testing.T) {
	f := newFixture(t)
	buyer := mustAddr(t, buyerHex)
	account, err := f.node.State().GetAccount(buyer)
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	account.SetBalance("WETH", big.NewInt(1_000))
	if err := f.node.State().PutAccount(buyer, account); err != nil {
		t.Fatalf("fund buyer: %v", err)
	}

	if resp, status := f.call(t, testToken, "market_createItem", caller(sellerHex), listing("1000")); status != http.StatusOK {
		t.Fatalf("create: status = %d error = %+v", status, resp.Error)
	}

	resp, status := f.call(t, testToken, "market_buy", caller(buyerHex), map[string]interface{}{
		"collection": collHex,
		"assetId":    0,
		"currency":   "WETH",
		"supplied":   "1000",
	})
	if status != http.StatusOK || resp.Error != nil {
		t.Fatalf("buy: status = %d error = %+v", status, resp.Error)
	}

	resp, status = f.call(t, "", "settlement_pendingRevenue", map[string]interface{}{"address": sellerHex})
	if status != http.StatusOK || resp.Error != nil {
		t.Fatalf("pending: status = %d error = %+v", status, resp.Error)
	}
	var pending map[string]string
	resultInto(t, resp, &pending)
	if pending["pending"] != "900" {
		t.Fatalf("pending = %s, want 900", pending["pending"])
	}

	resp, status = f.call(t, testToken, "settlement_retrieveRevenue", caller(sellerHex))
	if status != http.StatusOK || resp.Error != nil {
		t.Fatalf("retrieve: status = %d error = %+v", status, resp.Error)
	}
	var retrieved map[string]string
	resultInto(t, resp, &retrieved)
	if retrieved["retrieved"] != "900" {
		t.Fatalf("retrieved = %s, want 900", retrieved["retrieved"])
	}

	// A second withdrawal reports the empty balance as a conflict.
	resp, status = f.call(t, testToken, "settlement_retrieveRevenue", caller(sellerHex))
	if status != http.StatusConflict || resp.Error == nil {
		t.Fatalf("repeat retrieve: status = %d error = %+v", status, resp.Error)
	}
}

func TestEngineErrorsMapToStatuses(t *testing.T) {
	f := newFixture(t)
	// Unknown item: not found.
	resp, status := f.call(t, testToken, "market_buy", caller(buyerHex), map[string]interface{}{
		"collection": collHex,
		"assetId":    9,
		"currency":   "WETH",
		"supplied":   "100",
	})
	if status != http.StatusNotFound || resp.Error == nil {
		t.Fatalf("status = %d error = %+v", status, resp.Error)
	}
	// Zero price: invalid input.
	resp, status = f.call(t, testToken, "market_createItem", caller(sellerHex), listing("0"))
	if status != http.StatusBadRequest || resp.Error == nil || resp.Error.Code != codeInvalidParams {
		t.Fatalf("status = %d error = %+v", status, resp.Error)
	}
	// Non-owner admin call: forbidden.
	resp, status = f.call(t, testToken, "admin_setFeeBps", caller(sellerHex), map[string]interface{}{
		"collection": collHex,
		"feeBps":     500,
	})
	if status != http.StatusForbidden || resp.Error == nil {
		t.Fatalf("status = %d error = %+v", status, resp.Error)
	}
}

func TestCallerNonceReplayRejected(t *testing.T) {
	f := newFixture(t)
	envelope := map[string]interface{}{
		"caller": sellerHex,
		"nonce":  1,
		"ttl":    60,
	}
	resp, status := f.call(t, testToken, "market_createItem", envelope, listing("100"))
	if status != http.StatusOK || resp.Error != nil {
		t.Fatalf("first call: status = %d error = %+v", status, resp.Error)
	}
	resp, status = f.call(t, testToken, "market_updateItem", envelope, listing("150"))
	if status != http.StatusUnauthorized || resp.Error == nil {
		t.Fatalf("replay: status = %d error = %+v", status, resp.Error)
	}
	envelope["nonce"] = 2
	resp, status = f.call(t, testToken, "market_updateItem", envelope, listing("150"))
	if status != http.StatusOK || resp.Error != nil {
		t.Fatalf("next nonce: status = %d error = %+v", status, resp.Error)
	}
}

func TestPausedModuleMapsToConflict(t *testing.T) {
	f := newFixture(t)
	owner := f.node.Owner()
	if err := f.node.Switchboard().SetPaused(owner, "market", true); err != nil {
		t.Fatalf("pause: %v", err)
	}
	resp, status := f.call(t, testToken, "market_createItem", caller(sellerHex), listing("100"))
	if status != http.StatusConflict || resp.Error == nil {
		t.Fatalf("status = %d error = %+v", status, resp.Error)
	}
}
