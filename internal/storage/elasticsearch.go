package storage

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	elasticsearch "github.com/elastic/go-elasticsearch/v7"
	jsoniter "github.com/json-iterator/go"
	"github.com/milkywaybrain/goccxt/internal/config"
	"github.com/pkg/errors"
)

// ElasticSearch is for connecting and indexing data to elastic search.
type ElasticSearch struct {
	ES        *elasticsearch.Client
	IndexName string
	Cfg       *config.ES
}

// NewElasticSearch creates an elastic search client with configured values and pings the cluster.
func NewElasticSearch(ctx context.Context, cfg *config.ES) (*ElasticSearch, error) {
	t := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.MaxIdleConns > 0 {
		t.MaxIdleConns = cfg.MaxIdleConns
	}
	if cfg.MaxIdleConnsPerHost > 0 {
		t.MaxIdleConnsPerHost = cfg.MaxIdleConnsPerHost
	}
	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
		Transport: t,
	})
	if err != nil {
		return nil, errors.Wrap(err, "elastic search client")
	}

	pingCtx, cancel := reqCtx(ctx, cfg.ReqTimeoutSec)
	defer cancel()
	resp, err := es.Ping(es.Ping.WithContext(pingCtx))
	if err != nil {
		return nil, errors.Wrap(err, "elastic search ping")
	}
	resp.Body.Close()
	if resp.IsError() {
		return nil, errors.Errorf("elastic search ping: %s", resp.Status())
	}
	return &ElasticSearch{ES: es, IndexName: cfg.IndexName, Cfg: cfg}, nil
}

// esData holds either ticker or trade data which will be sent to elastic search
type esData struct {
	Channel   string    `json:"channel"`
	Exchange  string    `json:"exchange"`
	Market    string    `json:"market"`
	TradeID   string    `json:"trade_id,omitempty"`
	Side      string    `json:"side,omitempty"`
	Size      float64   `json:"size,omitempty"`
	Price     float64   `json:"price"`
	Timestamp time.Time `json:"timestamp"`
	CreatedAt time.Time `json:"created_at"`
}

var bulkMeta = []byte("{\"create\":{}}\n")

// CommitTickers batch inserts input ticker data to elastic search.
func (e *ElasticSearch) CommitTickers(appCtx context.Context, data []Ticker) error {
	docs := make([]esData, 0, len(data))
	now := time.Now().UTC()
	for _, ticker := range data {
		docs = append(docs, esData{
			Channel:   "ticker",
			Exchange:  ticker.Exchange,
			Market:    ticker.MktCommitName,
			Price:     ticker.Price,
			Timestamp: ticker.Timestamp,
			CreatedAt: now,
		})
	}
	return e.bulk(appCtx, docs)
}

// CommitTrades batch inserts input trade data to elastic search.
func (e *ElasticSearch) CommitTrades(appCtx context.Context, data []Trade) error {
	docs := make([]esData, 0, len(data))
	now := time.Now().UTC()
	for _, trade := range data {
		docs = append(docs, esData{
			Channel:   "trade",
			Exchange:  trade.Exchange,
			Market:    trade.MktCommitName,
			TradeID:   trade.TradeID,
			Side:      trade.Side,
			Size:      trade.Size,
			Price:     trade.Price,
			Timestamp: trade.Timestamp,
			CreatedAt: now,
		})
	}
	return e.bulk(appCtx, docs)
}

func (e *ElasticSearch) bulk(appCtx context.Context, docs []esData) error {
	if len(docs) == 0 {
		return nil
	}
	var buf bytes.Buffer
	for i := range docs {
		esBytes, err := jsoniter.Marshal(&docs[i])
		if err != nil {
			return errors.Wrap(err, "elastic search document")
		}
		buf.Grow(len(bulkMeta) + len(esBytes) + 1)
		buf.Write(bulkMeta)
		buf.Write(esBytes)
		buf.WriteByte('\n')
	}

	ctx, cancel := reqCtx(appCtx, e.Cfg.ReqTimeoutSec)
	defer cancel()
	resp, err := e.ES.Bulk(bytes.NewReader(buf.Bytes()), e.ES.Bulk.WithIndex(e.IndexName), e.ES.Bulk.WithContext(ctx))
	if err != nil {
		return errors.Wrap(err, "elastic search bulk")
	}
	defer resp.Body.Close()
	if resp.IsError() {
		return errors.Errorf("elastic search bulk: code : %v, status : %v", resp.StatusCode, resp.Status())
	}

	// Bulk replies 200 even if single documents fail.
	var br struct {
		Errors bool `json:"errors"`
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "elastic search bulk response")
	}
	if err = jsoniter.Unmarshal(body, &br); err != nil {
		return errors.Wrap(err, "elastic search bulk response")
	}
	if br.Errors {
		return errors.New("elastic search bulk: some documents were not indexed")
	}
	return nil
}
