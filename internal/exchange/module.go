package exchange

import (
	"context"
	"time"

	"go.uber.org/fx"

	"signal_bot/internal/modules/config"
)

func NewStreamFromConfig(cfg *config.Config) *PriceStream {
	if !cfg.Exchange.StreamPrices {
		return nil
	}
	url := ""
	if cfg.Exchange.Testnet {
		url = "wss://stream.binancefuture.com/ws"
	}
	s := NewPriceStream(url)
	s.Watch(cfg.Strategy.Symbol)
	return s
}

func NewBinanceFromConfig(cfg *config.Config, stream *PriceStream) *Binance {
	return NewBinance(BinanceConfig{
		APIKey:      cfg.Exchange.APIKey,
		APISecret:   cfg.Exchange.APISecret,
		BaseURL:     baseURL(cfg.Exchange.Testnet),
		HTTPTimeout: time.Duration(cfg.Exchange.HTTPTimeoutMs) * time.Millisecond,
		StaleAfter:  time.Duration(cfg.Exchange.PriceStaleMs) * time.Millisecond,
	}, stream)
}

func baseURL(testnet bool) string {
	if testnet {
		return "https://testnet.binancefuture.com"
	}
	return ""
}

func runStream(lc fx.Lifecycle, stream *PriceStream) {
	if stream == nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				defer close(done)
				stream.Run(ctx)
			}()
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			select {
			case <-done:
			case <-stopCtx.Done():
			}
			return nil
		},
	})
}

func Module() fx.Option {
	return fx.Module("exchange",
		fx.Provide(
			NewStreamFromConfig,
			NewBinanceFromConfig,
		),
		fx.Invoke(runStream),
	)
}
