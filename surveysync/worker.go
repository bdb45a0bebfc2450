package surveysync

import (
	"context"
	"fmt"
	"time"

	"bitbucket.org/mmdatafocus/clinic_backend/config"
	"bitbucket.org/mmdatafocus/clinic_backend/models"
	"github.com/bsm/redislock"
	"github.com/sirupsen/logrus"
)

const runLockKey = "lock:survey-sync"

// Engine drives one sync run end to end: resolve forms, fetch metadata,
// page responses, extract answers, upsert identities, synthesize
// reports, write ledger rows.
type Engine struct {
	cfg      Config
	forms    FormsAPI
	sources  SourceResolver
	patients PatientStore
	reports  ReportStore
	ledger   LedgerStore
	locker   *redislock.Client
	logger   *logrus.Logger
	notifier RunNotifier
}

// NewEngine wires an engine from explicit parts; tests pass fakes.
func NewEngine(cfg Config, forms FormsAPI, sources SourceResolver, patients PatientStore, reports ReportStore, ledger LedgerStore, locker *redislock.Client, logger *logrus.Logger, notifier RunNotifier) *Engine {
	if logger == nil {
		logger = logrus.New()
	}
	return &Engine{
		cfg:      cfg,
		forms:    forms,
		sources:  sources,
		patients: patients,
		reports:  reports,
		ledger:   ledger,
		locker:   locker,
		logger:   logger,
		notifier: notifier,
	}
}

// NewDefaultEngine wires the production engine: Google Forms provider,
// gorm-backed stores, redis advisory lock, Pub/Sub run notifier.
func NewDefaultEngine(ctx context.Context, cfg Config) (*Engine, error) {
	forms, err := NewGoogleFormsClient(ctx)
	if err != nil {
		return nil, err
	}
	sources := NewSourceResolver(cfg, models.ListActiveSurveyURLs)
	return NewEngine(
		cfg,
		forms,
		sources,
		NewPatientStore(),
		NewReportStore(),
		NewLedgerStore(),
		config.GetRedisLock(),
		config.GetLogger(),
		NewPubSubNotifier(cfg),
	), nil
}

// Run executes one sync pass. Forms are processed sequentially; a
// form-level provider failure stops that form and moves to the next,
// while per-response failures only mark their own ledger row.
func (e *Engine) Run(ctx context.Context, trigger string) (*RunSummary, error) {
	release, err := e.acquireRunLock(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	formIDs, err := e.sources.ResolveFormIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve form sources: %w", err)
	}
	if len(formIDs) == 0 {
		return nil, ErrNoFormSources
	}

	summary := RunSummary{Trigger: trigger, TotalForms: len(formIDs)}
	started := time.Now()

	for _, formID := range formIDs {
		if err := e.syncForm(ctx, formID, &summary); err != nil {
			// coarser than per-response: metadata or paging failed,
			// remaining pages of this form are unreachable
			config.LogError(e.logger, "surveysync", "Run", "form sync failed", formID, err)
		}
	}

	e.logger.WithFields(logrus.Fields{
		"trigger":           summary.Trigger,
		"total_forms":       summary.TotalForms,
		"synced_count":      summary.SyncedCount,
		"skipped_duplicate": summary.SkippedDuplicate,
		"skipped_invalid":   summary.SkippedInvalid,
		"failed_count":      summary.FailedCount,
		"duration_ms":       time.Since(started).Milliseconds(),
	}).Info("survey sync run finished")

	if e.notifier != nil {
		if err := e.notifier.PublishRunSummary(ctx, summary); err != nil {
			e.logger.Warnf("survey sync: publish run summary failed: %v", err)
		}
	}

	return &summary, nil
}

// acquireRunLock takes the advisory run lock. A held lock means another
// run is in flight; an unreachable Redis degrades to running unlocked,
// with the ledger's unique index as the backstop.
func (e *Engine) acquireRunLock(ctx context.Context) (func(), error) {
	if e.locker == nil {
		return func() {}, nil
	}
	lock, err := e.locker.Obtain(ctx, runLockKey, 10*time.Minute, nil)
	if err == redislock.ErrNotObtained {
		return nil, ErrRunInProgress
	}
	if err != nil {
		e.logger.Warnf("survey sync: could not obtain run lock, proceeding unlocked: %v", err)
		return func() {}, nil
	}
	return func() { _ = lock.Release(ctx) }, nil
}

func (e *Engine) syncForm(ctx context.Context, formID string, summary *RunSummary) error {
	def, err := e.forms.GetForm(ctx, formID)
	if err != nil {
		return err
	}

	pageToken := ""
	for {
		page, err := e.forms.ListResponses(ctx, formID, e.cfg.PageSize, pageToken)
		if err != nil {
			return err
		}

		for _, response := range page.Responses {
			switch e.syncResponse(ctx, def, response) {
			case outcomeSynced:
				summary.SyncedCount++
			case outcomeFailed:
				summary.FailedCount++
			case outcomeSkippedDuplicate:
				summary.SkippedDuplicate++
			case outcomeSkippedInvalid:
				summary.SkippedInvalid++
			}
		}

		if page.NextPageToken == "" {
			return nil
		}
		pageToken = page.NextPageToken
	}
}

// syncResponse processes one response and commits its ledger row before
// returning, so earlier successes survive a later form failure.
func (e *Engine) syncResponse(ctx context.Context, def *FormDefinition, response FormResponse) responseOutcome {
	if response.ID == "" {
		// nothing to key a ledger row on
		return outcomeSkippedInvalid
	}

	existing, err := e.ledger.FindByKey(ctx, def.FormID, response.ID)
	if err != nil {
		e.recordFailure(ctx, def, response, fmt.Errorf("ledger lookup: %w", err))
		return outcomeFailed
	}
	if existing != nil && existing.SyncStatus == models.SurveySyncStatusSynced {
		return outcomeSkippedDuplicate
	}

	patient, report, err := e.processResponse(ctx, def, response)
	if err != nil {
		e.recordFailure(ctx, def, response, err)
		return outcomeFailed
	}

	record := &LedgerRecord{
		FormID:      def.FormID,
		ResponseID:  response.ID,
		FormTitle:   def.Title,
		SubmittedAt: response.SubmittedAt,
		PatientID:   &patient.ID,
		ReportID:    &report.ID,
		SyncStatus:  models.SurveySyncStatusSynced,
	}
	if err := e.ledger.Upsert(ctx, record); err != nil {
		config.LogError(e.logger, "surveysync", "syncResponse", "ledger upsert failed", response.ID, err)
		return outcomeFailed
	}
	return outcomeSynced
}

func (e *Engine) processResponse(ctx context.Context, def *FormDefinition, response FormResponse) (*Patient, *Report, error) {
	entries := ExtractAnswers(def, response)

	patient, err := e.upsertIdentity(ctx, entries)
	if err != nil {
		return nil, nil, err
	}

	report, err := e.reports.Create(ctx, e.buildReport(patient, def, response.ID, entries, response.SubmittedAt))
	if err != nil {
		return nil, nil, fmt.Errorf("create report: %w", err)
	}
	return patient, report, nil
}

func (e *Engine) recordFailure(ctx context.Context, def *FormDefinition, response FormResponse, cause error) {
	message := cause.Error()
	record := &LedgerRecord{
		FormID:       def.FormID,
		ResponseID:   response.ID,
		FormTitle:    def.Title,
		SubmittedAt:  response.SubmittedAt,
		SyncStatus:   models.SurveySyncStatusFailed,
		ErrorMessage: &message,
	}
	if err := e.ledger.Upsert(ctx, record); err != nil {
		config.LogError(e.logger, "surveysync", "recordFailure", "ledger upsert failed", response.ID, err)
	}
}
