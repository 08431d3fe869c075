package nasdaq

import (
	"context"
	"fmt"

	"github.com/wizzomafizzo/divscan/internal/constants"
)

// Dividend is one row of a symbol's dividend history
type Dividend struct {
	ExDate          string `json:"ex_date"`
	Type            string `json:"type"`
	Amount          string `json:"amount"`
	DeclarationDate string `json:"declaration_date"`
	RecordDate      string `json:"record_date"`
	PaymentDate     string `json:"payment_date"`
	Currency        string `json:"currency"`
}

// Record returns the row in dividend file column order
func (d Dividend) Record() []string {
	return []string{
		d.ExDate,
		d.Type,
		d.Amount,
		d.DeclarationDate,
		d.RecordDate,
		d.PaymentDate,
		d.Currency,
	}
}

type dividendsResponse struct {
	Data *struct {
		Dividends *struct {
			Rows []dividendRow `json:"rows"`
		} `json:"dividends"`
	} `json:"data"`
}

type dividendRow struct {
	ExOrEffDate     *string `json:"exOrEffDate"`
	Type            *string `json:"type"`
	Amount          *string `json:"amount"`
	DeclarationDate *string `json:"declarationDate"`
	RecordDate      *string `json:"recordDate"`
	PaymentDate     *string `json:"paymentDate"`
	Currency        *string `json:"currency"`
}

// FetchDividends downloads the dividend history of symbol. Unknown symbols
// and symbols without dividends both yield an empty slice.
func (c *Client) FetchDividends(ctx context.Context, symbol string) ([]Dividend, error) {
	var resp dividendsResponse
	if err := c.getter.GetJSON(ctx, c.dividendsEndpoint(symbol), &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch dividends for %s: %w", symbol, err)
	}
	return extractDividends(&resp), nil
}

func extractDividends(resp *dividendsResponse) []Dividend {
	if resp.Data == nil || resp.Data.Dividends == nil {
		return []Dividend{}
	}

	rows := resp.Data.Dividends.Rows
	dividends := make([]Dividend, 0, len(rows))
	for _, row := range rows {
		dividends = append(dividends, Dividend{
			ExDate:          orNA(row.ExOrEffDate),
			Type:            orNA(row.Type),
			Amount:          orNA(row.Amount),
			DeclarationDate: orNA(row.DeclarationDate),
			RecordDate:      orNA(row.RecordDate),
			PaymentDate:     orNA(row.PaymentDate),
			Currency:        orNA(row.Currency),
		})
	}
	return dividends
}

func orNA(s *string) string {
	if s == nil {
		return constants.NotAvailable
	}
	return *s
}
