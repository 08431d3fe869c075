package constants

// Column names of all_symbols.csv
const (
	ColumnSymbol    = "Symbol"
	ColumnMarketCap = "Market Cap"
	ColumnSector    = "Sector"
)

// Column names of the per-symbol dividend files
const (
	ColumnExDividendDate  = "Ex-Dividend Date"
	ColumnType            = "Type"
	ColumnAmount          = "Amount"
	ColumnDeclarationDate = "Declaration Date"
	ColumnRecordDate      = "Record Date"
	ColumnPaymentDate     = "Payment Date"
	ColumnCurrency        = "Currency"
)

// Column names of the per-symbol daily price files
const (
	ColumnDate   = "Date"
	ColumnLow    = "Low"
	ColumnHigh   = "High"
	ColumnClose  = "Close"
	ColumnVolume = "Volume"
)

const (
	// UnknownSector is used when a symbol has no sector.
	UnknownSector = "Unknown"

	// NotAvailable fills dividend fields missing from the API response.
	NotAvailable = "N/A"
)

// SymbolHeader is the header row of all_symbols.csv.
func SymbolHeader() []string {
	return []string{ColumnSymbol, ColumnMarketCap, ColumnSector}
}

// DividendHeader is the header row of the per-symbol dividend files.
func DividendHeader() []string {
	return []string{
		ColumnExDividendDate,
		ColumnType,
		ColumnAmount,
		ColumnDeclarationDate,
		ColumnRecordDate,
		ColumnPaymentDate,
		ColumnCurrency,
	}
}

// PriceHeader is the header row of the per-symbol daily price files.
func PriceHeader() []string {
	return []string{ColumnDate, ColumnLow, ColumnHigh, ColumnClose, ColumnVolume}
}
