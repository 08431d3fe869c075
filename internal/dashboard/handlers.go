package dashboard

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/wizzomafizzo/divscan/internal/dataset"
	"github.com/wizzomafizzo/divscan/internal/logging"
	"github.com/wizzomafizzo/divscan/internal/nasdaq"
	"github.com/wizzomafizzo/divscan/internal/yahoo"
)

type stocksResponse struct {
	Sort   string `json:"sort"`
	Dir    string `json:"dir"`
	Stocks []Row  `json:"stocks"`
	Total  int    `json:"total"`
}

type stockResponse struct {
	LatestPrice *yahoo.Bar        `json:"latest_price,omitempty"`
	Dividends   []nasdaq.Dividend `json:"dividends"`
	Row
}

type errorResponse struct {
	Error string `json:"error"`
}

type healthResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
	Stocks int    `json:"stocks"`
}

// sortParams reads sort and dir from the query string; defaults are market cap descending
func sortParams(r *http.Request) (column string, desc bool, err error) {
	column = r.URL.Query().Get("sort")
	if column == "" {
		column = SortMarketCap
	}
	if !ValidSortColumn(column) {
		return "", false, fmt.Errorf("unknown sort column %q", column)
	}

	switch dir := r.URL.Query().Get("dir"); dir {
	case "", "desc":
		return column, true, nil
	case "asc":
		return column, false, nil
	default:
		return "", false, fmt.Errorf("unknown sort direction %q", dir)
	}
}

func direction(desc bool) string {
	if desc {
		return "desc"
	}
	return "asc"
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	column, desc, err := sortParams(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	rows, loadErr := s.snapshot()
	Sort(rows, column, desc)

	data := pageData{
		Headers: headers(column, desc),
		Rows:    rows,
		Total:   len(rows),
	}
	if loadErr != nil {
		data.Error = "Data could not be loaded, run the pipeline first."
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplate.Execute(w, data); err != nil {
		logging.Get(r.Context()).Error().Err(err).Msg("failed to render page")
	}
}

func (s *Server) handleStocks(w http.ResponseWriter, r *http.Request) {
	column, desc, err := sortParams(r)
	if err != nil {
		writeJSON(w, r, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	rows, _ := s.snapshot()
	Sort(rows, column, desc)
	writeJSON(w, r, http.StatusOK, stocksResponse{
		Sort:   column,
		Dir:    direction(desc),
		Stocks: rows,
		Total:  len(rows),
	})
}

// handleStock serves one row with its stored history. Share-class tickers
// may be given as BF/B, BF%2FB or the file name form BF_B.
func (s *Server) handleStock(w http.ResponseWriter, r *http.Request) {
	requested, err := url.PathUnescape(chi.URLParam(r, "*"))
	if err != nil {
		writeJSON(w, r, http.StatusBadRequest, errorResponse{Error: "invalid symbol: " + err.Error()})
		return
	}

	rows, _ := s.snapshot()
	resp := findStock(rows, requested)
	if resp == nil {
		writeJSON(w, r, http.StatusNotFound, errorResponse{Error: "unknown symbol " + requested})
		return
	}
	symbol := resp.Symbol

	log := logging.Get(r.Context())

	dividends, err := s.store.ReadDividends(symbol)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warn().Err(err).Str("symbol", symbol).Msg("failed to read dividends")
	}
	resp.Dividends = dividends
	if resp.Dividends == nil {
		resp.Dividends = []nasdaq.Dividend{}
	}

	bars, err := s.store.ReadPrices(symbol)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warn().Err(err).Str("symbol", symbol).Msg("failed to read prices")
	}
	if len(bars) > 0 {
		resp.LatestPrice = &bars[len(bars)-1]
	}

	writeJSON(w, r, http.StatusOK, resp)
}

func findStock(rows []Row, requested string) *stockResponse {
	for _, row := range rows {
		if row.Symbol == requested {
			return &stockResponse{Row: row}
		}
	}
	for _, row := range rows {
		if dataset.FileStem(row.Symbol) == requested {
			return &stockResponse{Row: row}
		}
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	rows, loadErr := s.snapshot()
	resp := healthResponse{Status: "ok", Stocks: len(rows)}
	if loadErr != nil {
		resp.Status = "degraded"
		resp.Error = loadErr.Error()
	}
	writeJSON(w, r, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Get(r.Context()).Error().Err(err).Msg("failed to write response")
	}
}
