package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"statsnbet/internal/config"
	"statsnbet/internal/models"
	"statsnbet/internal/repository"
)

// SummaryFlagField is the reserved key marking a payload as a summary
// document. The write-back rewrites it to the cache marker string.
const SummaryFlagField = "__summary__"

// Variant names one of the two pipeline configurations. The dashboard and
// history flows differ in more than parameters (date strictness, dedup, stake
// interpretation) and are deliberately kept as distinct configurations.
type Variant struct {
	Name             string
	StrictDates      bool
	Dedupe           bool
	StakeMode        StakeMode
	Paginate         bool
	EnforceDateFloor bool
	WriteBack        bool
}

// DashboardVariant: strict date parsing, absolute stakes, full row set, no
// dedup, optional cache write-back.
func DashboardVariant(cfg config.PipelineConfig) Variant {
	return Variant{
		Name:        "dashboard",
		StrictDates: true,
		StakeMode:   StakeAbsolute,
		WriteBack:   cfg.WriteBack,
	}
}

// HistoryVariant: lenient date parsing, rolling calendar-month floor, dedup by
// (match, day), percent-of-bankroll stakes, always paginated.
func HistoryVariant() Variant {
	return Variant{
		Name:             "history",
		Dedupe:           true,
		StakeMode:        StakePercent,
		Paginate:         true,
		EnforceDateFloor: true,
	}
}

// NotFoundError reports that no live summary matched the lookup.
type NotFoundError struct {
	Collection string
	UserID     *string
}

func (e *NotFoundError) Error() string {
	if e.UserID != nil {
		return fmt.Sprintf("no summary document in collection %q for user %q", e.Collection, *e.UserID)
	}
	return fmt.Sprintf("no summary document in collection %q", e.Collection)
}

// Request is one filter invocation.
type Request struct {
	Collection string
	UserID     *string
	Params     Params
	PageSize   int
	PageNumber int
}

// Result is the computed response of one pipeline run.
type Result struct {
	SourceKey         string
	BankrollReference float64
	AppliedFilters    map[string]any
	Metrics           *PnLResult
	Doc               Document
	Rows              []Row
	Page              *PageSlice
	TotalRows         int
}

// Engine runs the filter/PnL pipeline against the document store. Each Run is
// a sequential, in-memory transform over one summary document; the engine
// itself holds no per-request state.
type Engine struct {
	Repo   repository.Repository
	Logger *zap.Logger
	Config config.PipelineConfig
	Now    func() time.Time
}

func (e *Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e *Engine) Run(ctx context.Context, v Variant, req Request) (*Result, error) {
	summary, err := e.Repo.GetLatestSummary(ctx, req.Collection, req.UserID)
	if err != nil {
		return nil, err
	}
	if summary == nil {
		return nil, &NotFoundError{Collection: req.Collection, UserID: req.UserID}
	}

	doc, err := DecodeDocument(summary.Payload)
	if err != nil {
		return nil, err
	}

	params := req.Params
	if strings.TrimSpace(params.DateField) == "" {
		params.DateField = e.Config.DateField
	}
	if v.EnforceDateFloor {
		months := e.Config.HistoryMonths
		if months <= 0 {
			months = 6
		}
		// Calendar-month arithmetic, not a fixed day offset. Caller-supplied
		// date_min is ignored in this variant.
		floor := truncateDay(e.now()).AddDate(0, -months, 0)
		params.DateMin = floor.Format("2006-01-02")
	}

	parser := DateParser{Strict: v.StrictDates}
	filtered, err := Filter(doc, params, parser)
	if err != nil {
		return nil, err
	}

	fdoc := filtered.Doc()
	if v.Dedupe {
		fdoc = Dedupe(fdoc, params.dateField(), parser)
	}

	bankroll := e.Config.DefaultBankroll
	if bankroll <= 0 {
		bankroll = 100
	}
	if v.StakeMode == StakePercent && req.UserID != nil {
		setting, err := e.Repo.GetUserSetting(ctx, *req.UserID, req.Collection)
		if err != nil {
			return nil, err
		}
		if setting != nil && setting.BankrollReference != nil {
			if ref, _ := setting.BankrollReference.Float64(); ref > 0 {
				bankroll = ref
			}
		}
	}

	metrics, err := ComputePnL(fdoc, PnLOptions{StakeMode: v.StakeMode, Bankroll: bankroll})
	if err != nil {
		return nil, err
	}

	rows := docRows(fdoc)
	for i := range rows {
		if i < len(metrics.PerRow) {
			if metrics.PerRow[i] != nil {
				rows[i].Fields["pnl"] = *metrics.PerRow[i]
			} else {
				rows[i].Fields["pnl"] = nil
			}
		}
	}

	res := &Result{
		SourceKey:         summary.DocKey,
		BankrollReference: bankroll,
		AppliedFilters:    filtered.AppliedFilters(),
		Metrics:           metrics,
		TotalRows:         len(rows),
	}

	if v.Paginate {
		SortRowsDesc(rows, params.dateField(), parser)
		ps := Paginate(len(rows), req.PageSize, req.PageNumber)
		res.Page = &ps
		res.Rows = rows[ps.Start:ps.End]
	} else {
		res.Doc = fdoc
		res.Rows = rows
	}

	if v.WriteBack {
		if err := e.writeBack(ctx, summary, fdoc); err != nil && e.Logger != nil {
			// The write-back is a pure cache; a lost write never fails the
			// request.
			e.Logger.Warn("filtered cache write-back failed", zap.Error(err))
		}
	}

	return res, nil
}

// writeBack upserts the filtered document under its synthetic cache key, with
// the summary flag rewritten to the marker string so it can never be read
// back as a live summary.
func (e *Engine) writeBack(ctx context.Context, source *models.SummaryDocument, fdoc Document) error {
	cache := make(Document, len(fdoc))
	for k, v := range fdoc {
		cache[k] = v
	}
	cache[SummaryFlagField] = models.FlagFiltered

	payload, err := json.Marshal(cache)
	if err != nil {
		return err
	}

	key := models.FilteredCacheKey + ":" + source.Collection
	if source.UserID != nil {
		key += ":" + *source.UserID
	}
	now := e.now().UTC()
	return e.Repo.UpsertFilteredCache(ctx, &models.SummaryDocument{
		DocKey:      key,
		Collection:  source.Collection,
		UserID:      source.UserID,
		SummaryFlag: models.FlagFiltered,
		Payload:     datatypes.JSON(payload),
		GeneratedAt: &now,
	})
}
