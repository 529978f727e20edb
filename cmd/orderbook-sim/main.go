// Command orderbook-sim drives independent order books, one goroutine per
// symbol, with a random order flow and reports the resulting depth.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"reflect"
	"strings"
	"sync/atomic"
	"syscall"

	match "github.com/0x5487/matching-core"
	"github.com/0x5487/matching-core/protocol"
	"github.com/0x5487/matching-core/sequencer"
	"github.com/rs/xid"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	tomb "gopkg.in/tomb.v2"
)

type config struct {
	Symbols   []match.Symbol
	Orders    int
	Seed      int64
	PriceMid  decimal.Decimal
	LogLevel  slog.Level
	ChunkSize int32
	RingSize  int64
	Depth     uint32
}

func loadConfig(path string) (*config, error) {
	v := viper.New()
	v.SetDefault("orders", 100000)
	v.SetDefault("seed", 42)
	v.SetDefault("price_mid", "100.00")
	v.SetDefault("log_level", "info")
	v.SetDefault("chunk_size", match.DefaultLevelChunkSize)
	v.SetDefault("ring_size", 4096)
	v.SetDefault("depth", 10)
	v.SetDefault("symbols", []map[string]any{
		{"id": 1, "name": "BTC-USDT", "price_scale": 2, "quantity_scale": 4},
		{"id": 2, "name": "ETH-USDT", "price_scale": 2, "quantity_scale": 4},
	})

	v.SetEnvPrefix("ORDERBOOK_SIM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config failed: %w", err)
		}
	}

	cfg := &config{
		Orders:    v.GetInt("orders"),
		Seed:      v.GetInt64("seed"),
		ChunkSize: v.GetInt32("chunk_size"),
		RingSize:  v.GetInt64("ring_size"),
		Depth:     v.GetUint32("depth"),
	}
	if err := v.UnmarshalKey("symbols", &cfg.Symbols); err != nil {
		return nil, fmt.Errorf("decode symbols: %w", err)
	}
	if len(cfg.Symbols) == 0 {
		return nil, errors.New("no symbols configured")
	}

	mid, err := decimal.NewFromString(v.GetString("price_mid"))
	if err != nil {
		return nil, fmt.Errorf("price_mid: %w", err)
	}
	cfg.PriceMid = mid

	if err := cfg.LogLevel.UnmarshalText([]byte(v.GetString("log_level"))); err != nil {
		return nil, fmt.Errorf("log_level: %w", err)
	}
	return cfg, nil
}

// flowStats counts what a book reported while the flow ran.
type flowStats struct {
	match.NopHandler
	trades      atomic.Uint64
	volume      atomic.Uint64
	activations atomic.Uint64
}

func (s *flowStats) OnTrade(trade match.Trade) {
	s.trades.Add(1)
	s.volume.Add(trade.Quantity)
}

func (s *flowStats) OnActivateStopOrder(*match.Order) {
	s.activations.Add(1)
}

// bookConsumer applies sequenced commands to the book it owns. Only the ring
// consumer goroutine touches the book until the ring is shut down.
type bookConsumer struct {
	book     *match.OrderBook
	log      *slog.Logger
	rejected int
	err      error
}

func (c *bookConsumer) OnEvent(seq int64, cmd **protocol.Command) {
	if c.err != nil {
		return
	}
	err := c.book.Execute(*cmd)
	if err == nil {
		return
	}

	var orderErr *match.OrderError
	if !errors.As(err, &orderErr) {
		c.err = fmt.Errorf("command %d: %w", seq, err)
		return
	}
	c.rejected++
	c.log.Debug("command rejected",
		"seq_id", (*cmd).SeqID,
		"type", (*cmd).Type.String(),
		"request_id", (*cmd).Metadata["request_id"],
		"error", err,
	)
}

func runSymbol(t *tomb.Tomb, cfg *config, runID string, symbol match.Symbol, seed int64) error {
	log := slog.With("run_id", runID, "symbol", symbol.Name)

	mid, err := symbol.PriceTicks(cfg.PriceMid)
	if err != nil {
		return fmt.Errorf("%s: %w", symbol.Name, err)
	}

	depth := match.NewAggregatedBook(symbol)
	stats := &flowStats{}
	book := match.NewOrderBook(symbol, match.Handlers(depth, stats),
		match.WithLevelChunkSize(cfg.ChunkSize),
		match.WithSeed(seed),
	)
	defer book.Close()

	consumer := &bookConsumer{book: book, log: log}
	ring, err := sequencer.New[*protocol.Command](cfg.RingSize, consumer)
	if err != nil {
		return fmt.Errorf("%s: %w", symbol.Name, err)
	}
	consumed := make(chan error, 1)
	t.Go(func() error {
		err := ring.Run()
		consumed <- err
		return err
	})
	drain := func() error {
		if err := ring.Shutdown(context.Background()); err != nil {
			return err
		}
		return <-consumed
	}

	gen := newFlowGenerator(symbol, int64(mid), seed)
	produced := 0
produce:
	for ; produced < cfg.Orders; produced++ {
		select {
		case <-t.Dying():
			log.Info("flow interrupted", "produced", produced)
			break produce
		default:
		}

		cmd, err := gen.Next()
		if err != nil {
			_ = drain()
			return err
		}
		cmd.SeqID = uint64(produced + 1)
		cmd.Metadata = map[string]string{"run_id": runID, "request_id": xid.New().String()}

		if _, err := ring.Publish(cmd); err != nil {
			_ = drain()
			return fmt.Errorf("%s: %w", symbol.Name, err)
		}
	}

	// the book belongs to this goroutine again once the ring is drained
	if err := drain(); err != nil {
		return err
	}
	if consumer.err != nil {
		return fmt.Errorf("%s: %w", symbol.Name, consumer.err)
	}
	if err := book.CheckInvariants(); err != nil {
		return err
	}

	resp, err := book.Query(&protocol.GetDepthRequest{Symbol: symbol.Name, Limit: cfg.Depth})
	if err != nil {
		return fmt.Errorf("%s: %w", symbol.Name, err)
	}
	bookDepth, _ := resp.(*protocol.GetDepthResponse)
	snapshot := depth.Depth(cfg.Depth)
	if !reflect.DeepEqual(bookDepth.Bids, snapshot.Bids) || !reflect.DeepEqual(bookDepth.Asks, snapshot.Asks) {
		return fmt.Errorf("%s: aggregated depth diverged from the book", symbol.Name)
	}

	resp, err = book.Query(&protocol.GetStatsRequest{Symbol: symbol.Name})
	if err != nil {
		return fmt.Errorf("%s: %w", symbol.Name, err)
	}
	counts, _ := resp.(*protocol.GetStatsResponse)
	st := book.Stats()
	log.Info("flow finished",
		"orders", produced,
		"rejected", consumer.rejected,
		"trades", stats.trades.Load(),
		"traded_volume", symbol.QuantityDecimal(stats.volume.Load()).String(),
		"activations", stats.activations.Load(),
		"bid_levels", counts.BidDepthCount,
		"bid_orders", counts.BidOrderCount,
		"ask_levels", counts.AskDepthCount,
		"ask_orders", counts.AskOrderCount,
		"stop_orders", counts.StopOrderCount,
		"open_quantity", symbol.QuantityDecimal(st.OpenQuantity).String(),
		"trailing_updates", st.TrailingUpdates,
		"pool_cap", st.PoolCap,
		"market_bid", symbol.PriceDecimal(book.MarketPriceBid()).String(),
		"market_ask", symbol.PriceDecimal(book.MarketPriceAsk()).String(),
	)
	for i, lvl := range snapshot.Bids {
		log.Info("depth", "side", "bid", "rank", i, "price", lvl.Price, "size", lvl.Size, "count", lvl.Count)
	}
	for i, lvl := range snapshot.Asks {
		log.Info("depth", "side", "ask", "rank", i, "price", lvl.Price, "size", lvl.Size, "count", lvl.Count)
	}
	return nil
}

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "path to config file (optional)")
	flag.Parse()

	// 1. Config
	cfg, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	// 2. Logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)
	match.SetLogger(logger)

	runID := xid.New().String()
	slog.Info("starting simulation", "run_id", runID, "core_version", match.CoreVersion, "symbols", len(cfg.Symbols), "orders", cfg.Orders, "seed", cfg.Seed)

	// 3. One book per symbol, each on its own goroutine
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	t, _ := tomb.WithContext(ctx)
	t.Go(func() error {
		for i, symbol := range cfg.Symbols {
			seed := cfg.Seed + int64(i)
			t.Go(func() error {
				return runSymbol(t, cfg, runID, symbol, seed)
			})
		}
		return nil
	})

	if err := t.Wait(); err != nil {
		slog.Error("simulation failed", "run_id", runID, "error", err)
		os.Exit(1)
	}
	slog.Info("simulation finished", "run_id", runID)
}
