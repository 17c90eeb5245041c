package storage

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// Terminal is for displaying data on terminal.
type Terminal struct {
	mu  sync.Mutex
	out io.Writer
}

// TerminalTimestamp is used as a format to display only the time.
const TerminalTimestamp = "15:04:05.999"

// NewTerminal creates a terminal display.
// Output writer is always os.Stdout except in case of testing.
func NewTerminal(out io.Writer) *Terminal {
	return &Terminal{out: out}
}

// CommitTickers batch outputs input ticker data to terminal.
func (t *Terminal) CommitTickers(_ context.Context, data []Ticker) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, ticker := range data {
		_, err := fmt.Fprintf(t.out, "%-15s%-15s%-15s%20f%20s\n\n", "Ticker", ticker.Exchange, ticker.MktCommitName, ticker.Price, ticker.Timestamp.Local().Format(TerminalTimestamp))
		if err != nil {
			return err
		}
	}
	return nil
}

// CommitTrades batch outputs input trade data to terminal.
func (t *Terminal) CommitTrades(_ context.Context, data []Trade) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, trade := range data {
		_, err := fmt.Fprintf(t.out, "%-15s%-15s%-15s%-5s%20f%20f%20s\n\n", "Trade", trade.Exchange, trade.MktCommitName, trade.Side, trade.Size, trade.Price, trade.Timestamp.Local().Format(TerminalTimestamp))
		if err != nil {
			return err
		}
	}
	return nil
}
