package main

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"ens-market-context/internal/domain"
	"ens-market-context/internal/enrich"
)

// enrichRequest is the wire shape of one event to enrich.
type enrichRequest struct {
	Kind       string          `json:"kind"`
	Name       string          `json:"name"`
	Contract   string          `json:"contract"`
	TokenID    string          `json:"tokenId"`
	Buyer      string          `json:"buyer"`
	Seller     string          `json:"seller"`
	Registrant string          `json:"registrant"`
	PriceETH   decimal.Decimal `json:"priceEth"`
	PriceUSD   float64         `json:"priceUsd"`
	Timestamp  int64           `json:"timestamp"`
	TxHash     string          `json:"txHash"`
}

// toEvent maps the request onto the event union.
func (r enrichRequest) toEvent() (domain.MarketEvent, error) {
	price := domain.Price{
		CurrencyContract: domain.ZeroAddress,
		Symbol:           "ETH",
		NativeETH:        r.PriceETH,
		DecimalAmount:    r.PriceETH,
		USDAmount:        r.PriceUSD,
	}
	switch domain.EventKind(r.Kind) {
	case domain.EventSale:
		return domain.NewSaleEvent(domain.SaleEvent{
			Name:      r.Name,
			Contract:  r.Contract,
			TokenID:   r.TokenID,
			Buyer:     r.Buyer,
			Seller:    r.Seller,
			Price:     price,
			Timestamp: r.Timestamp,
			TxHash:    r.TxHash,
		}), nil
	case domain.EventRegistration:
		return domain.NewRegistrationEvent(domain.RegistrationEvent{
			Name:       r.Name,
			Contract:   r.Contract,
			TokenID:    r.TokenID,
			Registrant: r.Registrant,
			Cost:       price,
			Timestamp:  r.Timestamp,
			TxHash:     r.TxHash,
		}), nil
	}
	return domain.MarketEvent{}, errors.Errorf("unknown event kind %q", r.Kind)
}

// enrichHandler serves POST /enrich.
func enrichHandler(g *enrich.Gatherer, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req enrichRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request: "+err.Error(), http.StatusBadRequest)
			return
		}
		event, err := req.toEvent()
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		reply, err := g.Enrich(r.Context(), event)
		if err != nil {
			logger.Error("enrichment failed", zap.Error(err))
			http.Error(w, "enrichment failed", http.StatusUnprocessableEntity)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(reply); err != nil {
			logger.Error("encode reply context", zap.Error(err))
		}
	}
}

func serveEnrich(addr string, g *enrich.Gatherer, logger *zap.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/enrich", enrichHandler(g, logger))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	logger.Info("enrichment server listening", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("enrichment server stopped", zap.Error(err))
	}
}
