package binance

import (
	"context"
	"net/http"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/milkywaybrain/goccxt/exchange"
	"github.com/milkywaybrain/goccxt/internal/config"
)

const (
	// RESTBaseURL is the binance exchange base REST url.
	RESTBaseURL = "https://api.binance.com/api/v3/"
	// SAPIBaseURL is the binance exchange wallet REST url.
	SAPIBaseURL = "https://api.binance.com/sapi/v1/"
	// WebsocketURL is the binance exchange websocket url.
	WebsocketURL = "wss://stream.binance.com:9443/ws"
)

// API names used in description urls.
const (
	apiPublic  = "public"
	apiPrivate = "private"
	apiSAPI    = "sapi"
	apiStream  = "stream"
)

// Binance is the Binance spot exchange.
type Binance struct {
	*exchange.Base
	wsCfg config.WS
}

// Describe returns the binance exchange description.
func Describe() *exchange.Description {
	desc := &exchange.Description{
		ID:        "binance",
		Name:      "Binance",
		Countries: []string{"JP", "MT"},
		Version:   "v3",
		RateLimit: 50,
		URLs: map[string]string{
			apiPublic:  RESTBaseURL,
			apiPrivate: RESTBaseURL,
			apiSAPI:    SAPIBaseURL,
			apiStream:  WebsocketURL,
		},
		Timeframes: map[string]string{
			"1m": "1m", "3m": "3m", "5m": "5m", "15m": "15m", "30m": "30m",
			"1h": "1h", "2h": "2h", "4h": "4h", "6h": "6h", "8h": "8h", "12h": "12h",
			"1d": "1d", "3d": "3d", "1w": "1w", "1M": "1M",
		},
		Fees: exchange.Fees{Taker: 0.001, Maker: 0.001, Percentage: true},
		Has: map[exchange.Capability]bool{
			exchange.CapFetchMarkets:         true,
			exchange.CapFetchCurrencies:      true,
			exchange.CapFetchTicker:          true,
			exchange.CapFetchTickers:         true,
			exchange.CapFetchOrderBook:       true,
			exchange.CapFetchTrades:          true,
			exchange.CapFetchOHLCV:           true,
			exchange.CapFetchBalance:         true,
			exchange.CapFetchOrder:           true,
			exchange.CapFetchOrders:          true,
			exchange.CapFetchOpenOrders:      true,
			exchange.CapFetchClosedOrders:    true,
			exchange.CapCreateOrder:          true,
			exchange.CapCancelOrder:          true,
			exchange.CapCreateDepositAddress: true,
			exchange.CapFetchDepositAddress:  true,
			exchange.CapWithdraw:             true,
			exchange.CapFetchDeposits:        true,
			exchange.CapFetchWithdrawals:     true,
			exchange.CapFetchTransactions:    true,
			exchange.CapStreamTickers:        true,
			exchange.CapStreamTrades:         true,
		},
		HandleErrors: handleErrors,
	}
	desc.RequiredCredentials.APIKey = true
	desc.RequiredCredentials.Secret = true
	return desc
}

// New creates a binance exchange client.
func New(cfg exchange.Config) (*Binance, error) {
	return NewWithDescription(Describe(), cfg)
}

// NewWithDescription creates a client for a venue that speaks the binance API
// but has its own description.
func NewWithDescription(desc *exchange.Description, cfg exchange.Config) (*Binance, error) {
	base, err := exchange.NewBase(desc, cfg)
	if err != nil {
		return nil, err
	}
	b := &Binance{
		Base: base,
		wsCfg: config.WS{
			ConnTimeoutSec: cfg.WSConnTimeoutSec,
			ReadTimeoutSec: cfg.WSReadTimeoutSec,
		},
	}
	b.Bind(b)
	return b, nil
}

// request sends a request to the named API. Signed requests carry the timestamp,
// the optional receive window, the HMAC-SHA256 signature and the api key header.
func (b *Binance) request(ctx context.Context, api, method, path string, params exchange.Params, signed bool) ([]byte, error) {
	url := b.URL(api) + path
	query := exchange.Extend(params)
	header := http.Header{}

	if signed {
		if err := b.CheckRequiredCredentials(); err != nil {
			return nil, err
		}
		cfg := b.Config()
		query["timestamp"] = b.Nonce()
		if cfg.RecvWindow > 0 {
			query["recvWindow"] = cfg.RecvWindow
		}
		qs := exchange.Urlencode(query)
		signature, err := exchange.HMAC([]byte(qs), []byte(cfg.Secret), "sha256", exchange.DigestHex)
		if err != nil {
			return nil, err
		}
		qs += "&signature=" + signature
		header.Set("X-MBX-APIKEY", cfg.APIKey)
		return b.send(ctx, method, url, header, qs)
	}
	return b.send(ctx, method, url, header, exchange.Urlencode(query))
}

func (b *Binance) send(ctx context.Context, method, url string, header http.Header, qs string) ([]byte, error) {
	if method == http.MethodPost || method == http.MethodPut {
		header.Set("Content-Type", "application/x-www-form-urlencoded")
		return b.Fetch(ctx, method, url, header, []byte(qs))
	}
	if qs != "" {
		url += "?" + qs
	}
	return b.Fetch(ctx, method, url, header, nil)
}

// errorReply is the body of a binance error response.
type errorReply struct {
	Code *int   `json:"code"`
	Msg  string `json:"msg"`
}

var exceptions = map[int]exchange.Kind{
	-1000: exchange.ExchangeNotAvailable,
	-1001: exchange.ExchangeNotAvailable,
	-1003: exchange.DDoSProtection,
	-1013: exchange.InvalidOrder,
	-1021: exchange.InvalidNonce,
	-1022: exchange.AuthenticationError,
	-1100: exchange.InvalidOrder,
	-1102: exchange.InvalidOrder,
	-1111: exchange.InvalidOrder,
	-2010: exchange.InvalidOrder,
	-2011: exchange.OrderNotFound,
	-2013: exchange.OrderNotFound,
	-2014: exchange.AuthenticationError,
	-2015: exchange.AuthenticationError,
}

// handleErrors maps binance {"code":..., "msg":...} replies to exchange errors.
func handleErrors(status int, _ http.Header, body []byte) error {
	if len(body) == 0 || body[0] != '{' {
		return nil
	}
	var reply errorReply
	if err := jsoniter.Unmarshal(body, &reply); err != nil || reply.Code == nil {
		return nil
	}
	code := *reply.Code
	if code >= 0 && status < 400 {
		return nil
	}
	message := "binance " + string(body)
	kind, ok := exceptions[code]
	if !ok {
		kind = exchange.ExchangeError
	}
	if code == -2010 && strings.Contains(strings.ToLower(reply.Msg), "insufficient balance") {
		kind = exchange.InsufficientFunds
	}
	return exchange.NewError(kind, message)
}
