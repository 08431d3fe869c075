package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wizzomafizzo/divscan/internal/constants"
	"github.com/wizzomafizzo/divscan/internal/dataset"
	"github.com/wizzomafizzo/divscan/internal/history"
	"github.com/wizzomafizzo/divscan/internal/nasdaq"
	testutil "github.com/wizzomafizzo/divscan/internal/testing"
	"github.com/wizzomafizzo/divscan/internal/yahoo"
)

type fakeScreener struct {
	resp *nasdaq.ScreenerResponse
	err  error
}

func (f *fakeScreener) FetchScreener(context.Context) (*nasdaq.ScreenerResponse, error) {
	return f.resp, f.err
}

type fakeDividends struct {
	data  map[string][]nasdaq.Dividend
	fails map[string]error
	mu    sync.Mutex
	calls []string
}

func (f *fakeDividends) FetchDividends(_ context.Context, symbol string) ([]nasdaq.Dividend, error) {
	f.mu.Lock()
	f.calls = append(f.calls, symbol)
	f.mu.Unlock()
	if err := f.fails[symbol]; err != nil {
		return nil, err
	}
	return f.data[symbol], nil
}

type fakePrices struct {
	data    map[string][]yahoo.Bar
	fails   map[string]error
	periods chan string
}

func (f *fakePrices) FetchDaily(_ context.Context, symbol, period string) ([]yahoo.Bar, error) {
	if f.periods != nil {
		f.periods <- period
	}
	if err := f.fails[symbol]; err != nil {
		return nil, err
	}
	return f.data[symbol], nil
}

type fakeRecorder struct {
	mu      sync.Mutex
	started []string
	results []history.Result
	err     error
}

func (f *fakeRecorder) Start(_ context.Context, stage string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	f.started = append(f.started, stage)
	return int64(len(f.started)), nil
}

func (f *fakeRecorder) Finish(_ context.Context, _ int64, res history.Result) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results = append(f.results, res)
	return nil
}

func newStore(t *testing.T) *dataset.Store {
	t.Helper()
	s := dataset.New(afero.NewMemMapFs(), "/work")
	require.NoError(t, s.Fs().MkdirAll("/work", 0o750))
	return s
}

func writeFile(t *testing.T, s *dataset.Store, content string, elem ...string) {
	t.Helper()
	require.NoError(t, afero.WriteFile(s.Fs(), s.Path(elem...), []byte(content), 0o644))
}

func readFile(t *testing.T, s *dataset.Store, elem ...string) string {
	t.Helper()
	data, err := afero.ReadFile(s.Fs(), s.Path(elem...))
	require.NoError(t, err)
	return string(data)
}

func screenerResponse(rows ...nasdaq.ScreenerRow) *nasdaq.ScreenerResponse {
	return &nasdaq.ScreenerResponse{Data: &nasdaq.ScreenerData{Rows: rows}}
}

func TestSymbols(t *testing.T) {
	t.Parallel()
	ctx, _ := testutil.NewTestContext(t)
	store := newStore(t)

	p := New(Options{
		Store:        store,
		MinMarketCap: 1e9,
		Screener: &fakeScreener{resp: screenerResponse(
			nasdaq.ScreenerRow{Symbol: "AAPL", MarketCap: "3,400,000,000,000.00", Sector: "Technology"},
			nasdaq.ScreenerRow{Symbol: "TINY", MarketCap: "500,000,000", Sector: "Energy"},
			nasdaq.ScreenerRow{Symbol: "MISS", MarketCap: "1000000000"},
		)},
	})

	n, err := p.Symbols(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t,
		"Symbol,Market Cap,Sector\nAAPL,3400000000000.00,Technology\nMISS,1000000000.00,Unknown\n",
		readFile(t, store, constants.SymbolsFile))
}

func TestSymbols_NoneQualify(t *testing.T) {
	t.Parallel()
	ctx, logs := testutil.NewTestContext(t)
	store := newStore(t)

	p := New(Options{
		Store:        store,
		MinMarketCap: 1e9,
		Screener: &fakeScreener{resp: screenerResponse(
			nasdaq.ScreenerRow{Symbol: "TINY", MarketCap: "5"},
		)},
	})

	n, err := p.Symbols(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Contains(t, logs(), "no stocks matched")

	exists, err := afero.Exists(store.Fs(), store.Path(constants.SymbolsFile))
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestSymbols_FetchError(t *testing.T) {
	t.Parallel()
	ctx, _ := testutil.NewTestContext(t)

	p := New(Options{Store: newStore(t), Screener: &fakeScreener{err: errors.New("boom")}})

	_, err := p.Symbols(ctx)
	assert.ErrorContains(t, err, "boom")
}

func TestDividends(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)
	ctx, logs := testutil.NewTestContext(t)
	store := newStore(t)

	writeFile(t, store, "Symbol,Market Cap,Sector\nKO,1,A\nAAPL,1,B\nDOWN,1,C\nNONE,1,D\n", constants.SymbolsFile)
	require.NoError(t, store.EnsureDir(constants.DividendDir))
	writeFile(t, store, "previous\n", constants.DividendDir, "DOWN.csv")

	source := &fakeDividends{
		data: map[string][]nasdaq.Dividend{
			"KO":   {{ExDate: "03/14/2025", Type: "Cash", Amount: "$0.51", DeclarationDate: "N/A", RecordDate: "N/A", PaymentDate: "N/A", Currency: "USD"}},
			"AAPL": {{ExDate: "02/10/2025", Type: "Cash", Amount: "$0.25", DeclarationDate: "N/A", RecordDate: "N/A", PaymentDate: "N/A", Currency: "USD"}},
		},
		fails: map[string]error{"DOWN": errors.New("503")},
	}
	p := New(Options{Store: store, Dividends: source, DividendWorkers: 2})

	res, err := p.Dividends(ctx)
	require.NoError(t, err)
	assert.Equal(t, Result{Processed: 3, Failed: 1, Empty: 1}, res)
	assert.ElementsMatch(t, []string{"KO", "AAPL", "DOWN", "NONE"}, source.calls)

	assert.Equal(t, "previous\n", readFile(t, store, constants.DividendDir, "DOWN.csv"))
	assert.Contains(t, readFile(t, store, constants.DividendDir, "KO.csv"), "03/14/2025,Cash,$0.51")
	assert.Equal(t,
		"Ex-Dividend Date,Type,Amount,Declaration Date,Record Date,Payment Date,Currency\n",
		readFile(t, store, constants.DividendDir, "NONE.csv"))
	assert.Contains(t, logs(), "failed to fetch dividends")
}

func TestDividends_NoSymbols(t *testing.T) {
	t.Parallel()
	ctx, _ := testutil.NewTestContext(t)

	p := New(Options{Store: newStore(t), Dividends: &fakeDividends{}})

	_, err := p.Dividends(ctx)
	assert.ErrorIs(t, err, ErrNoSymbols)
}

func TestDividends_Cancelled(t *testing.T) {
	t.Parallel()
	ctx, _ := testutil.NewTestContext(t)
	ctx, cancel := context.WithCancel(ctx)
	cancel()

	store := newStore(t)
	writeFile(t, store, "Symbol,Market Cap,Sector\nKO,1,A\n", constants.SymbolsFile)
	source := &fakeDividends{}
	p := New(Options{Store: store, Dividends: source})

	_, err := p.Dividends(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, source.calls)
}

func TestFilter(t *testing.T) {
	t.Parallel()
	ctx, _ := testutil.NewTestContext(t)
	store := newStore(t)

	writeFile(t, store, "Symbol,Market Cap,Sector\nKO,1,Consumer Staples\nAAPL,1,Technology\n", constants.SymbolsFile)
	require.NoError(t, store.EnsureDir(constants.DividendDir))
	header := "Ex-Dividend Date,Type,Amount,Declaration Date,Record Date,Payment Date,Currency\n"
	writeFile(t, store, header+"a,b,c,d,e,f,g\n", constants.DividendDir, "KO.csv")
	writeFile(t, store, header+"a,b,c,d,e,f,g\n", constants.DividendDir, "AAPL.csv")
	writeFile(t, store, header+"a,b,c,d,e,f,g\n", constants.DividendDir, "ORPH.csv")
	writeFile(t, store, header, constants.DividendDir, "NONE.csv")
	writeFile(t, store, "", constants.DividendDir, "ZERO.csv")
	writeFile(t, store, "ignored", constants.DividendDir, "notes.txt")

	p := New(Options{Store: store})

	res, err := p.Filter(ctx)
	require.NoError(t, err)
	assert.Equal(t, FilterResult{Kept: 3, Removed: 2}, res)
	assert.Equal(t, "AAPL,Technology\nKO,Consumer Staples\nORPH,Unknown\n",
		readFile(t, store, constants.DividendSymbolsFile))

	remaining, err := store.ListDividendFiles()
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "KO", "ORPH"}, remaining)
}

func TestFilter_WithoutSymbolFile(t *testing.T) {
	t.Parallel()
	ctx, logs := testutil.NewTestContext(t)
	store := newStore(t)

	require.NoError(t, store.EnsureDir(constants.DividendDir))
	writeFile(t, store, "h\nrow\n", constants.DividendDir, "KO.csv")

	res, err := New(Options{Store: store}).Filter(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Kept)
	assert.Equal(t, "KO,Unknown\n", readFile(t, store, constants.DividendSymbolsFile))
	assert.Contains(t, logs(), "sectors unavailable")
}

func TestFilter_NoDirectory(t *testing.T) {
	t.Parallel()
	ctx, _ := testutil.NewTestContext(t)

	_, err := New(Options{Store: newStore(t)}).Filter(ctx)
	assert.ErrorIs(t, err, ErrNoDividendDir)
}

func TestPrices(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)
	ctx, logs := testutil.NewTestContext(t)
	store := newStore(t)

	writeFile(t, store, "KO,Consumer Staples\nGONE,Energy\nFAIL,Energy\n", constants.DividendSymbolsFile)

	day := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	source := &fakePrices{
		data: map[string][]yahoo.Bar{
			"KO": {{Date: day, Low: 59.5, High: 60.25, Close: 60, Volume: 100}},
		},
		fails: map[string]error{
			"GONE": yahoo.ErrNoData,
			"FAIL": errors.New("timeout"),
		},
		periods: make(chan string, 3),
	}
	p := New(Options{Store: store, Prices: source, Period: "15y"})

	res, err := p.Prices(ctx)
	require.NoError(t, err)
	assert.Equal(t, Result{Processed: 1, Failed: 1, Empty: 1}, res)
	assert.Equal(t, "Date,Low,High,Close,Volume\n2024-01-02,59.500,60.250,60.000,100\n",
		readFile(t, store, constants.PriceDir, "KO.csv"))
	assert.Equal(t, "15y", <-source.periods)

	exists, err := afero.Exists(store.Fs(), store.Path(constants.PriceDir, "GONE.csv"))
	require.NoError(t, err)
	assert.False(t, exists)
	assert.Contains(t, logs(), "no price data")
}

func TestPrices_NoDividendSymbols(t *testing.T) {
	t.Parallel()
	ctx, _ := testutil.NewTestContext(t)

	_, err := New(Options{Store: newStore(t), Prices: &fakePrices{}}).Prices(ctx)
	assert.ErrorIs(t, err, ErrNoDividendSymbols)
}

func TestRun_RecordsEveryStage(t *testing.T) {
	t.Parallel()
	ctx, _ := testutil.NewTestContext(t)
	store := newStore(t)
	recorder := &fakeRecorder{}

	p := New(Options{
		Store:        store,
		History:      recorder,
		MinMarketCap: 1,
		Screener: &fakeScreener{resp: screenerResponse(
			nasdaq.ScreenerRow{Symbol: "KO", MarketCap: "100", Sector: "Consumer Staples"},
		)},
		Dividends: &fakeDividends{data: map[string][]nasdaq.Dividend{
			"KO": {{ExDate: "1", Type: "Cash", Amount: "$1", DeclarationDate: "N/A", RecordDate: "N/A", PaymentDate: "N/A", Currency: "USD"}},
		}},
		Prices: &fakePrices{data: map[string][]yahoo.Bar{
			"KO": {{Date: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), Close: 1, Volume: 1}},
		}},
	})

	require.NoError(t, p.Run(ctx))
	assert.Equal(t, Stages(), recorder.started)
	require.Len(t, recorder.results, 4)
	for _, res := range recorder.results {
		assert.NoError(t, res.Err)
		assert.Equal(t, 1, res.Processed)
	}
	assert.Equal(t, "KO,Consumer Staples\n", readFile(t, store, constants.DividendSymbolsFile))
}

func TestRun_StopsAtFirstError(t *testing.T) {
	t.Parallel()
	ctx, _ := testutil.NewTestContext(t)
	recorder := &fakeRecorder{}

	p := New(Options{Store: newStore(t), History: recorder, Dividends: &fakeDividends{}})

	err := p.Run(ctx, StageDividends, StageFilter)
	require.ErrorIs(t, err, ErrNoSymbols)
	assert.ErrorContains(t, err, "stage dividends")
	assert.Equal(t, []string{StageDividends}, recorder.started)
	require.Len(t, recorder.results, 1)
	assert.ErrorIs(t, recorder.results[0].Err, ErrNoSymbols)
}

func TestRun_UnknownStage(t *testing.T) {
	t.Parallel()
	ctx, _ := testutil.NewTestContext(t)
	recorder := &fakeRecorder{}

	err := New(Options{Store: newStore(t), History: recorder}).Run(ctx, StageFilter, "bogus")
	assert.ErrorIs(t, err, ErrUnknownStage)
	assert.Empty(t, recorder.started)
}

func TestRun_HistoryFailure(t *testing.T) {
	t.Parallel()
	ctx, _ := testutil.NewTestContext(t)

	p := New(Options{Store: newStore(t), History: &fakeRecorder{err: errors.New("db closed")}})

	err := p.Run(ctx, StageFilter)
	assert.ErrorContains(t, err, "db closed")
}
