package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"statsnbet/internal/config"
	"statsnbet/internal/models"
	"statsnbet/internal/repository"
)

type fakeRepo struct {
	summary  *models.SummaryDocument
	setting  *models.UserSetting
	upserted []*models.SummaryDocument
}

func (f *fakeRepo) GetLatestSummary(_ context.Context, _ string, _ *string) (*models.SummaryDocument, error) {
	return f.summary, nil
}

func (f *fakeRepo) ListSummaries(_ context.Context, _ repository.ListSummariesParams) ([]models.SummaryDocument, error) {
	return nil, nil
}

func (f *fakeRepo) CountSummaries(_ context.Context, _ repository.ListSummariesParams) (int64, error) {
	return 0, nil
}

func (f *fakeRepo) UpsertFilteredCache(_ context.Context, item *models.SummaryDocument) error {
	f.upserted = append(f.upserted, item)
	return nil
}

func (f *fakeRepo) DeleteStaleCaches(_ context.Context, _ time.Time) (int64, error) {
	return 0, nil
}

func (f *fakeRepo) GetUserSetting(_ context.Context, _, _ string) (*models.UserSetting, error) {
	return f.setting, nil
}

func (f *fakeRepo) UpsertUserSetting(_ context.Context, _ *models.UserSetting) error {
	return nil
}

func summaryFixture(t *testing.T, doc Document) *models.SummaryDocument {
	t.Helper()
	payload, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal fixture: %v", err)
	}
	user := "u1"
	return &models.SummaryDocument{
		DocKey:      "summary:bets:u1",
		Collection:  "bets",
		UserID:      &user,
		SummaryFlag: models.FlagSummary,
		Payload:     datatypes.JSON(payload),
	}
}

func scenarioDoc() Document {
	return Document{
		"__summary__": true,
		"liquidity":   []any{3000.0, 1500.0},
		"payout_rate": []any{120.0, 80.0},
		"ev":          []any{40.0, 20.0},
		"sport":       []any{"football", "tennis"},
		"match":       []any{"PSG - OM", "Nadal - Federer"},
		"stake":       []any{10.0, 5.0},
		"odds":        []any{2.0, 1.8},
		"result":      []any{"win", "lose"},
		"date":        []any{"2025-01-10", "2025-01-11"},
	}
}

func testEngine(repo repository.Repository) *Engine {
	return &Engine{
		Repo: repo,
		Config: config.PipelineConfig{
			DateField:       "date",
			PageSize:        25,
			HistoryMonths:   6,
			DefaultBankroll: 100,
			WriteBack:       true,
		},
		Now: func() time.Time {
			return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
		},
	}
}

func TestHistoryEndToEnd(t *testing.T) {
	bankroll := decimal.NewFromInt(1000)
	repo := &fakeRepo{
		summary: summaryFixture(t, scenarioDoc()),
		setting: &models.UserSetting{UserID: "u1", Collection: "bets", BankrollReference: &bankroll},
	}
	user := "u1"
	res, err := testEngine(repo).Run(context.Background(), HistoryVariant(), Request{
		Collection: "bets",
		UserID:     &user,
		Params: Params{
			LiquidityMin: f64(2000),
			PayoutMin:    f64(100),
			EVMin:        f64(30),
			Sports:       []string{"football"},
		},
		PageSize:   10,
		PageNumber: 1,
	})
	if err != nil {
		t.Fatalf("history run failed: %v", err)
	}
	if res.TotalRows != 1 {
		t.Fatalf("total_rows = %d, want 1", res.TotalRows)
	}
	if res.BankrollReference != 1000 {
		t.Fatalf("bankroll = %v, want 1000", res.BankrollReference)
	}
	m := res.Metrics
	if m.SettledCount != 1 || m.SettledStakeSum != 100 || m.TotalProfit != 100 || m.ROI != 100 {
		t.Fatalf("metrics = %+v, want settled=1 stake_sum=100 profit=100 roi=100", m)
	}
	if len(res.Rows) != 1 || res.Rows[0].Fields["sport"] != "football" {
		t.Fatalf("rows = %+v", res.Rows)
	}
	if pnl, ok := res.Rows[0].Fields["pnl"].(float64); !ok || pnl != 100 {
		t.Fatalf("row pnl = %v, want 100", res.Rows[0].Fields["pnl"])
	}
	if res.Page == nil || res.Page.Page != 1 || res.Page.PageCount != 1 {
		t.Fatalf("page = %+v", res.Page)
	}
	// History never writes back.
	if len(repo.upserted) != 0 {
		t.Fatalf("history variant wrote back %d documents", len(repo.upserted))
	}
}

func TestHistoryEnforcesDateFloor(t *testing.T) {
	doc := scenarioDoc()
	// Older than six calendar months before the fixed "now" (2025-03-01).
	doc["date"] = []any{"2024-08-10", "2025-01-11"}
	repo := &fakeRepo{summary: summaryFixture(t, doc)}
	res, err := testEngine(repo).Run(context.Background(), HistoryVariant(), Request{
		Collection: "bets",
		Params:     Params{DateMin: "2000-01-01"}, // ignored by the floor
		PageSize:   10,
		PageNumber: 1,
	})
	if err != nil {
		t.Fatalf("history run failed: %v", err)
	}
	if res.TotalRows != 1 {
		t.Fatalf("total_rows = %d, want only the in-window row", res.TotalRows)
	}
	if res.Rows[0].Fields["date"] != "2025-01-11" {
		t.Fatalf("surviving row date = %v", res.Rows[0].Fields["date"])
	}
	if res.AppliedFilters["date_min_iso"] != "2024-09-01" {
		t.Fatalf("resolved floor = %v, want 2024-09-01", res.AppliedFilters["date_min_iso"])
	}
}

func TestHistoryDefaultBankroll(t *testing.T) {
	repo := &fakeRepo{summary: summaryFixture(t, scenarioDoc())}
	res, err := testEngine(repo).Run(context.Background(), HistoryVariant(), Request{
		Collection: "bets",
		PageSize:   10,
		PageNumber: 1,
	})
	if err != nil {
		t.Fatalf("history run failed: %v", err)
	}
	if res.BankrollReference != 100 {
		t.Fatalf("bankroll = %v, want default 100", res.BankrollReference)
	}
}

func TestHistoryDeduplicates(t *testing.T) {
	doc := scenarioDoc()
	doc["liquidity"] = []any{3000.0, 3000.0}
	doc["payout_rate"] = []any{120.0, 120.0}
	doc["ev"] = []any{40.0, 40.0}
	doc["sport"] = []any{"football", "football"}
	doc["match"] = []any{"PSG - OM", "psg - om"}
	doc["stake"] = []any{10.0, 10.0}
	doc["odds"] = []any{2.0, 2.0}
	doc["result"] = []any{"win", "win"}
	doc["date"] = []any{"2025-01-10", "2025-01-10"}
	repo := &fakeRepo{summary: summaryFixture(t, doc)}
	res, err := testEngine(repo).Run(context.Background(), HistoryVariant(), Request{
		Collection: "bets",
		PageSize:   10,
		PageNumber: 1,
	})
	if err != nil {
		t.Fatalf("history run failed: %v", err)
	}
	if res.TotalRows != 1 {
		t.Fatalf("total_rows = %d, want deduplicated 1", res.TotalRows)
	}
}

func TestDashboardEndToEnd(t *testing.T) {
	repo := &fakeRepo{summary: summaryFixture(t, scenarioDoc())}
	e := testEngine(repo)
	res, err := e.Run(context.Background(), DashboardVariant(e.Config), Request{
		Collection: "bets",
		Params:     Params{LiquidityMin: f64(2000)},
	})
	if err != nil {
		t.Fatalf("dashboard run failed: %v", err)
	}
	// Absolute stakes: win with stake=10, odds=2.0.
	if res.Metrics.TotalProfit != 10 {
		t.Fatalf("total_profit = %v, want 10", res.Metrics.TotalProfit)
	}
	if res.Doc == nil {
		t.Fatalf("dashboard result missing document payload")
	}
	if res.Page != nil {
		t.Fatalf("dashboard result should not paginate")
	}
	if len(repo.upserted) != 1 {
		t.Fatalf("write-back count = %d, want 1", len(repo.upserted))
	}
	cached := repo.upserted[0]
	if cached.SummaryFlag != models.FlagFiltered {
		t.Fatalf("cache flag = %q, want %q", cached.SummaryFlag, models.FlagFiltered)
	}
	var payload map[string]any
	if err := json.Unmarshal(cached.Payload, &payload); err != nil {
		t.Fatalf("cache payload invalid: %v", err)
	}
	if payload[SummaryFlagField] != models.FlagFiltered {
		t.Fatalf("cache payload flag = %v, want marker string", payload[SummaryFlagField])
	}
}

func TestDashboardStrictDateFailureIsFatal(t *testing.T) {
	doc := scenarioDoc()
	doc["date"] = []any{"garbage", "2025-01-11"}
	repo := &fakeRepo{summary: summaryFixture(t, doc)}
	e := testEngine(repo)
	_, err := e.Run(context.Background(), DashboardVariant(e.Config), Request{
		Collection: "bets",
		Params:     Params{DateMin: "2025-01-01"},
	})
	var schema *SchemaError
	if !errors.As(err, &schema) {
		t.Fatalf("expected schema error for unparseable dashboard date, got %v", err)
	}
}

func TestRunSummaryNotFound(t *testing.T) {
	repo := &fakeRepo{}
	e := testEngine(repo)
	user := "ghost"
	_, err := e.Run(context.Background(), HistoryVariant(), Request{Collection: "bets", UserID: &user})
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	if nf.Collection != "bets" {
		t.Fatalf("not-found error lost collection: %+v", nf)
	}
}
