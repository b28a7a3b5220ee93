package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"nftmarket/config"
	"nftmarket/core"
	"nftmarket/observability"
	"nftmarket/observability/logging"
	"nftmarket/rpc"
	"nftmarket/storage"
)

const rpcTokenEnv = "MARKET_RPC_TOKEN"

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	memDB := flag.Bool("memdb", false, "DEV ONLY: run against an in-memory database")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	logger := logging.Setup("marketd", cfg.Environment)

	var db storage.Database
	if *memDB {
		logger.Warn("Running with an in-memory database; state is lost on exit")
		db = storage.NewMemDB()
	} else {
		db, err = storage.NewLevelDB(cfg.DataDir)
		if err != nil {
			panic(fmt.Sprintf("Failed to open database: %v", err))
		}
	}
	defer db.Close()

	node, err := core.NewNode(db, cfg, observability.NewRecorder(nil))
	if err != nil {
		logger.Error("Failed to build node", slog.Any("error", err))
		os.Exit(1)
	}

	token := strings.TrimSpace(os.Getenv(rpcTokenEnv))
	if token == "" {
		token = cfg.RPCAuthToken
	}
	if token == "" {
		logger.Warn("RPC auth token not configured; mutating methods are open")
	}

	server := rpc.NewServer(node, token)
	logger.Info("Starting JSON-RPC server",
		slog.String("addr", cfg.RPCAddress),
		slog.String("accounting", cfg.AccountingCurrency),
		slog.String("authToken", logging.MaskValue(token)),
	)
	if err := server.Start(cfg.RPCAddress); err != nil {
		logger.Error("RPC server stopped", slog.Any("error", err))
		os.Exit(1)
	}
}
