// Package constants contains file names and field names shared across divscan.
package constants

const (
	// AppName is the application name used for XDG directory paths.
	AppName = "divscan"

	// ConfigFilename is the default configuration file name, also used as the workspace marker.
	ConfigFilename = "divscan.yml"

	// LogFilename is the default log file name.
	LogFilename = "divscan.log"

	// DatabaseFilename is the SQLite database holding the response cache and run history.
	DatabaseFilename = "divscan.db"
)

// Workspace data files, relative to the data directory.
const (
	// SymbolsFile lists every screened symbol with market cap and sector.
	SymbolsFile = "all_symbols.csv"

	// DividendDir holds one dividend history CSV per symbol.
	DividendDir = "dividend_stocks"

	// DividendSymbolsFile lists symbols with at least one dividend, one "SYMBOL,Sector" per line.
	DividendSymbolsFile = "all_dividend_symbols.txt"

	// PriceDir holds one daily price history CSV per dividend symbol.
	PriceDir = "daily_stocks_price"

	// CSVExt is the extension of every per-symbol data file.
	CSVExt = ".csv"
)
