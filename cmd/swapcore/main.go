package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"swapcore/allowance"
	"swapcore/apilog"
	"swapcore/changelly"
	"swapcore/config"
	"swapcore/db"
	"swapcore/engine"
	"swapcore/nearintents"
	"swapcore/rates"
	"swapcore/swaps"
	"swapcore/thorswap"
	"swapcore/walletsvc"
)

func main() {
	configPath := flag.String("config", "config.json", "path to config file")
	from := flag.String("from", "", "source asset, CHAIN.SYMBOL[-CONTRACT]")
	to := flag.String("to", "", "destination asset, CHAIN.SYMBOL[-CONTRACT]")
	amount := flag.String("amount", "", "amount of the source asset to swap")
	country := flag.String("country", "", "ISO country code for provider availability")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	req, err := buildRequest(*from, *to, *amount, *country)
	if err != nil {
		log.Fatalf("Invalid request: %v", err)
	}

	database, err := db.Open(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer database.Close()

	wallet := walletsvc.NewHDService(cfg.Mnemonic, logger)
	rateSvc := rates.NewService(rates.NewStaticSource())
	indexer := allowance.NewIndexer(cfg.AllowanceIndexerURL, nil, logger)

	providers := buildProviders(cfg, database, wallet, rateSvc, logger)
	if len(providers) == 0 {
		log.Fatal("No providers configured")
	}

	eng := engine.New(providers, wallet, indexer, logger, engine.WithStore(database))
	defer eng.Close()

	updates := eng.Subscribe()
	eng.Submit(req)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-sig:
			fmt.Println("interrupted")
			return
		case u, ok := <-updates:
			if !ok {
				return
			}
			if !u.Settled {
				continue
			}
			printRound(u)
			return
		}
	}
}

func buildRequest(from, to, amount, country string) (swaps.QuoteRequest, error) {
	fromAsset, err := swaps.ParseAsset(from)
	if err != nil {
		return swaps.QuoteRequest{}, fmt.Errorf("parsing -from: %w", err)
	}
	toAsset, err := swaps.ParseAsset(to)
	if err != nil {
		return swaps.QuoteRequest{}, fmt.Errorf("parsing -to: %w", err)
	}
	amt, err := decimal.NewFromString(amount)
	if err != nil {
		return swaps.QuoteRequest{}, fmt.Errorf("parsing -amount: %w", err)
	}

	walletFrom := &swaps.Wallet{
		ID:           "cli-from",
		Coin:         fromAsset.Symbol,
		Chain:        fromAsset.Chain,
		TokenAddress: fromAsset.ContractAddress,
		Balance:      amt, // CLI assumes a funded wallet
	}
	walletTo := &swaps.Wallet{
		ID:           "cli-to",
		Coin:         toAsset.Symbol,
		Chain:        toAsset.Chain,
		TokenAddress: toAsset.ContractAddress,
	}

	return swaps.QuoteRequest{
		AmountFrom: amt,
		CoinFrom:   fromAsset.Symbol,
		ChainFrom:  fromAsset.Chain,
		CoinTo:     toAsset.Symbol,
		ChainTo:    toAsset.Chain,
		WalletFrom: walletFrom,
		WalletTo:   walletTo,
		Country:    country,
	}, nil
}

func buildProviders(cfg *config.Config, database *db.Store, wallet walletsvc.Service, rateSvc *rates.Service, logger *zap.Logger) []swaps.Provider {
	var providers []swaps.Provider

	if pc := cfg.Provider(changelly.ProviderKey); !pc.Removed && pc.APIKey != "" {
		client := changelly.NewClient(cfg.Endpoint(changelly.ProviderKey), pc.APIKey,
			apilog.NewHTTPClient(changelly.ProviderKey, database, logger))
		providers = append(providers, changelly.NewProvider(client, pc, wallet, rateSvc, cfg.FiatCode, logger))
		logger.Info("changelly provider enabled")
	}

	if pc := cfg.Provider(thorswap.ProviderKey); !pc.Removed {
		client := thorswap.NewClient(cfg.Endpoint(thorswap.ProviderKey), pc.APIKey,
			apilog.NewHTTPClient(thorswap.ProviderKey, database, logger))
		providers = append(providers, thorswap.NewProvider(client, pc, wallet, rateSvc, cfg.FiatCode, logger))
		logger.Info("thorswap provider enabled")
	}

	if pc := cfg.Provider(nearintents.ProviderKey); !pc.Removed && pc.APIKey != "" {
		client := nearintents.NewClient(pc.APIKey, apilog.NewHTTPClient(nearintents.ProviderKey, database, logger))
		providers = append(providers, nearintents.NewProvider(client, pc, wallet, rateSvc, cfg.FiatCode, logger))
		logger.Info("nearintents provider enabled")
	}

	return providers
}

func printRound(u engine.Update) {
	if u.Warning != "" {
		fmt.Println(u.Warning)
		return
	}

	fmt.Printf("%-14s %-10s %-20s %-12s %s\n", "PROVIDER", "STATE", "RECEIVING", "RATE", "NOTE")
	for _, offer := range u.Offers {
		note := offer.ErrorMsg
		if offer.ProvidersPath != "" {
			note = offer.ProvidersPath
		}
		fmt.Printf("%-14s %-10s %-20s %-12s %s\n",
			offer.DisplayName, offer.State, offer.AmountReceiving.String(), offer.Rate.StringFixed(6), note)
	}

	if u.Selected != nil {
		fmt.Printf("\nBest offer: %s receiving %s", u.Selected.DisplayName, u.Selected.AmountReceiving.String())
		if u.Selected.RequiresApproval {
			fmt.Printf(" (token approval: %s)", u.Selected.Approval)
		}
		fmt.Println()
	}
}
