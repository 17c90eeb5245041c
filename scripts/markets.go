package main

import (
	"context"
	"encoding/csv"
	"flag"
	"os"
	"sort"
	"strconv"
	"time"

	ccxt "github.com/milkywaybrain/goccxt"
	"github.com/milkywaybrain/goccxt/exchange"
	"github.com/rs/zerolog/log"
)

// This function will query all the supported exchanges for market info and store it in a csv file.
// Users can look up to this csv file to give market ID in the app configuration.
func main() {
	out := flag.String("out", "markets.csv", "csv file to write")
	timeout := flag.Duration("timeout", time.Minute, "time limit for all exchanges")
	flag.Parse()

	f, err := os.Create(*out)
	if err != nil {
		log.Error().Err(err).Str("file", *out).Msg("csv file create")
		return
	}
	defer f.Close()
	w := csv.NewWriter(f)
	defer w.Flush()

	if err = w.Write([]string{"exchange", "symbol", "id", "base", "quote", "active"}); err != nil {
		log.Error().Err(err).Msg("writing header to csv")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	for _, id := range ccxt.Exchanges {
		ex, err := ccxt.New(id, exchange.Config{})
		if err != nil {
			log.Error().Err(err).Str("exchange", id).Msg("exchange create")
			continue
		}
		markets, err := ex.LoadMarkets(ctx, false)
		if err != nil {
			log.Error().Err(err).Str("exchange", id).Msg("exchange request for markets")
			continue
		}
		symbols := make([]string, 0, len(markets))
		for symbol := range markets {
			symbols = append(symbols, symbol)
		}
		sort.Strings(symbols)
		for _, symbol := range symbols {
			m := markets[symbol]
			if err = w.Write([]string{id, m.Symbol, m.ID, m.Base, m.Quote, strconv.FormatBool(m.Active)}); err != nil {
				log.Error().Err(err).Str("exchange", id).Msg("writing markets to csv")
				return
			}
		}
	}
}
