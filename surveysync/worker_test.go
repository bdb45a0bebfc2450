package surveysync

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"bitbucket.org/mmdatafocus/clinic_backend/models"
)

// ---- fakes ----

type fakeFormsAPI struct {
	forms     map[string]*FormDefinition
	responses map[string][]FormResponse
	formErrs  map[string]error
	listErrs  map[string]error
	pageSize  int
	getCalls  int
	listCalls int
}

func (f *fakeFormsAPI) GetForm(ctx context.Context, formID string) (*FormDefinition, error) {
	f.getCalls++
	if err := f.formErrs[formID]; err != nil {
		return nil, err
	}
	def, ok := f.forms[formID]
	if !ok {
		return nil, fmt.Errorf("form %s not found", formID)
	}
	return def, nil
}

func (f *fakeFormsAPI) ListResponses(ctx context.Context, formID string, pageSize int64, pageToken string) (*ResponsePage, error) {
	f.listCalls++
	if err := f.listErrs[formID]; err != nil {
		return nil, err
	}
	all := f.responses[formID]

	per := f.pageSize
	if per <= 0 {
		per = len(all)
		if per == 0 {
			per = 1
		}
	}

	start := 0
	if pageToken != "" {
		fmt.Sscanf(pageToken, "%d", &start)
	}
	end := start + per
	if end > len(all) {
		end = len(all)
	}

	page := &ResponsePage{Responses: all[start:end]}
	if end < len(all) {
		page.NextPageToken = fmt.Sprint(end)
	}
	return page, nil
}

type staticSources struct {
	ids []string
	err error
}

func (s *staticSources) ResolveFormIDs(ctx context.Context) ([]string, error) {
	return s.ids, s.err
}

type fakePatientStore struct {
	patients []*Patient
	nextID   int
}

func (s *fakePatientStore) FindByPhone(ctx context.Context, phone string) (*Patient, error) {
	if phone == "" {
		return nil, nil
	}
	for _, p := range s.patients {
		if p.Phone == phone {
			return p, nil
		}
	}
	return nil, nil
}

func (s *fakePatientStore) FindByEmail(ctx context.Context, email string) (*Patient, error) {
	if email == "" {
		return nil, nil
	}
	for _, p := range s.patients {
		if p.Email == email {
			return p, nil
		}
	}
	return nil, nil
}

func (s *fakePatientStore) Create(ctx context.Context, name string, phone string, email string) (*Patient, error) {
	s.nextID++
	p := &Patient{ID: s.nextID, Name: name, Phone: phone, Email: email}
	s.patients = append(s.patients, p)
	return p, nil
}

func (s *fakePatientStore) Update(ctx context.Context, id int, patch PatientPatch) error {
	for _, p := range s.patients {
		if p.ID == id {
			if patch.Name != nil {
				p.Name = *patch.Name
			}
			if patch.Phone != nil {
				p.Phone = *patch.Phone
			}
			if patch.Email != nil {
				p.Email = *patch.Email
			}
			return nil
		}
	}
	return errors.New("patient not found")
}

type fakeReportStore struct {
	reports []*Report
	nextID  int
}

func (s *fakeReportStore) Create(ctx context.Context, report *Report) (*Report, error) {
	s.nextID++
	report.ID = s.nextID
	s.reports = append(s.reports, report)
	return report, nil
}

type fakeLedgerStore struct {
	records map[string]*LedgerRecord
}

func newFakeLedger() *fakeLedgerStore {
	return &fakeLedgerStore{records: map[string]*LedgerRecord{}}
}

func ledgerKey(formID, responseID string) string {
	return formID + "|" + responseID
}

func (s *fakeLedgerStore) FindByKey(ctx context.Context, formID string, responseID string) (*LedgerRecord, error) {
	record, ok := s.records[ledgerKey(formID, responseID)]
	if !ok {
		return nil, nil
	}
	copied := *record
	return &copied, nil
}

func (s *fakeLedgerStore) Upsert(ctx context.Context, record *LedgerRecord) error {
	copied := *record
	s.records[ledgerKey(record.FormID, record.ResponseID)] = &copied
	return nil
}

// ---- helpers ----

func testConfig() Config {
	return Config{
		PageSize:           200,
		CountryCallingCode: "84",
		CountryRegion:      "VN",
		Timezone:           "Asia/Ho_Chi_Minh",
		ReportTitle:        "Survey Response",
		Enabled:            true,
	}
}

func clinicForm() *FormDefinition {
	return &FormDefinition{
		FormID: "form1",
		Title:  "Khảo sát sức khỏe",
		Questions: []FormQuestion{
			{QuestionID: "q1", Label: "Họ và tên"},
			{QuestionID: "q2", Label: "Số điện thoại"},
			{QuestionID: "q3", Label: "Email"},
			{QuestionID: "q4", Label: "Triệu chứng"},
		},
	}
}

func clinicResponses() []FormResponse {
	submitted := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	return []FormResponse{
		{
			ID:          "r1",
			SubmittedAt: &submitted,
			Answers: map[string][]string{
				"q1": {"Nguyễn A"},
				"q2": {"0901234567"},
				"q4": {"đau đầu"},
			},
		},
		{
			ID: "r2",
			Answers: map[string][]string{
				"q1": {"Trần B"},
				"q3": {"b@x.com"},
				"q4": {"ho"},
			},
		},
	}
}

type engineParts struct {
	forms    *fakeFormsAPI
	patients *fakePatientStore
	reports  *fakeReportStore
	ledger   *fakeLedgerStore
	engine   *Engine
}

func newTestEngine(formIDs []string, forms *fakeFormsAPI) *engineParts {
	parts := &engineParts{
		forms:    forms,
		patients: &fakePatientStore{},
		reports:  &fakeReportStore{},
		ledger:   newFakeLedger(),
	}
	parts.engine = NewEngine(
		testConfig(),
		forms,
		&staticSources{ids: formIDs},
		parts.patients,
		parts.reports,
		parts.ledger,
		nil, // no run lock in unit tests
		nil,
		nil,
	)
	return parts
}

// ---- tests ----

func TestRunEndToEnd(t *testing.T) {
	forms := &fakeFormsAPI{
		forms:     map[string]*FormDefinition{"form1": clinicForm()},
		responses: map[string][]FormResponse{"form1": clinicResponses()},
	}
	parts := newTestEngine([]string{"form1"}, forms)

	summary, err := parts.engine.Run(context.Background(), TriggerManual)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if summary.SyncedCount != 2 || summary.SkippedDuplicate != 0 || summary.SkippedInvalid != 0 || summary.FailedCount != 0 {
		t.Errorf("summary = %+v, want 2 synced and no skips/failures", summary)
	}
	if summary.Trigger != TriggerManual || summary.TotalForms != 1 {
		t.Errorf("summary metadata = %+v", summary)
	}
	if len(parts.patients.patients) != 2 {
		t.Fatalf("patients = %d, want 2", len(parts.patients.patients))
	}
	if len(parts.reports.reports) != 2 {
		t.Fatalf("reports = %d, want 2", len(parts.reports.reports))
	}

	r1, _ := parts.ledger.FindByKey(context.Background(), "form1", "r1")
	if r1 == nil || r1.SyncStatus != models.SurveySyncStatusSynced {
		t.Fatalf("r1 ledger = %+v, want SYNCED", r1)
	}
	if r1.PatientID == nil || r1.ReportID == nil {
		t.Errorf("r1 ledger missing refs: %+v", r1)
	}

	p1 := parts.patients.patients[0]
	if p1.Name != "Nguyễn A" || p1.Phone != "0901234567" {
		t.Errorf("p1 = %+v", p1)
	}
	p2 := parts.patients.patients[1]
	if p2.Name != "Trần B" || p2.Email != "b@x.com" {
		t.Errorf("p2 = %+v", p2)
	}

	rep := parts.reports.reports[0]
	if rep.Content != "- Họ và tên: Nguyễn A\n- Số điện thoại: 0901234567\n- Triệu chứng: đau đầu\n" {
		t.Errorf("report content = %q", rep.Content)
	}
	if rep.Title != "Survey Response" {
		t.Errorf("report title = %q", rep.Title)
	}
}

func TestRunIdempotency(t *testing.T) {
	forms := &fakeFormsAPI{
		forms:     map[string]*FormDefinition{"form1": clinicForm()},
		responses: map[string][]FormResponse{"form1": clinicResponses()},
	}
	parts := newTestEngine([]string{"form1"}, forms)

	first, err := parts.engine.Run(context.Background(), TriggerManual)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}

	second, err := parts.engine.Run(context.Background(), TriggerScheduled)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}

	if second.SkippedDuplicate != first.SyncedCount {
		t.Errorf("skippedDuplicate = %d, want %d", second.SkippedDuplicate, first.SyncedCount)
	}
	if second.SyncedCount != 0 {
		t.Errorf("second run synced = %d, want 0", second.SyncedCount)
	}
	if len(parts.patients.patients) != 2 || len(parts.reports.reports) != 2 {
		t.Errorf("second run created new rows: patients=%d reports=%d",
			len(parts.patients.patients), len(parts.reports.reports))
	}
}

func TestRunRerunDoesNotReprocessChangedAnswers(t *testing.T) {
	responses := clinicResponses()
	forms := &fakeFormsAPI{
		forms:     map[string]*FormDefinition{"form1": clinicForm()},
		responses: map[string][]FormResponse{"form1": responses},
	}
	parts := newTestEngine([]string{"form1"}, forms)

	if _, err := parts.engine.Run(context.Background(), TriggerManual); err != nil {
		t.Fatalf("first run: %v", err)
	}

	// upstream answers change but the response id does not
	forms.responses["form1"][0].Answers["q4"] = []string{"sốt cao"}

	second, err := parts.engine.Run(context.Background(), TriggerManual)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if second.SkippedDuplicate != 2 {
		t.Errorf("skippedDuplicate = %d, want 2", second.SkippedDuplicate)
	}
	if len(parts.reports.reports) != 2 {
		t.Errorf("reports = %d, want unchanged 2", len(parts.reports.reports))
	}
	if parts.reports.reports[0].Content == "- Họ và tên: Nguyễn A\n- Số điện thoại: 0901234567\n- Triệu chứng: sốt cao\n" {
		t.Error("existing report was rewritten on re-run")
	}
}

func TestRunSkipsBlankResponseID(t *testing.T) {
	forms := &fakeFormsAPI{
		forms: map[string]*FormDefinition{"form1": clinicForm()},
		responses: map[string][]FormResponse{"form1": {
			{ID: "", Answers: map[string][]string{"q2": {"0901234567"}}},
		}},
	}
	parts := newTestEngine([]string{"form1"}, forms)

	summary, err := parts.engine.Run(context.Background(), TriggerManual)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.SkippedInvalid != 1 || summary.SyncedCount != 0 {
		t.Errorf("summary = %+v, want 1 skippedInvalid", summary)
	}
	if len(parts.ledger.records) != 0 {
		t.Errorf("ledger rows = %d, want none", len(parts.ledger.records))
	}
}

func TestRunIdentityMissing(t *testing.T) {
	forms := &fakeFormsAPI{
		forms: map[string]*FormDefinition{"form1": clinicForm()},
		responses: map[string][]FormResponse{"form1": {
			{ID: "r1", Answers: map[string][]string{
				"q1": {"Nguyễn A"},
				"q4": {"đau đầu"},
			}},
		}},
	}
	parts := newTestEngine([]string{"form1"}, forms)

	summary, err := parts.engine.Run(context.Background(), TriggerManual)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.FailedCount != 1 || summary.SyncedCount != 0 {
		t.Errorf("summary = %+v, want 1 failed", summary)
	}

	record, _ := parts.ledger.FindByKey(context.Background(), "form1", "r1")
	if record == nil || record.SyncStatus != models.SurveySyncStatusFailed {
		t.Fatalf("ledger = %+v, want FAILED row", record)
	}
	if record.ErrorMessage == nil || *record.ErrorMessage == "" {
		t.Error("FAILED row has no error message")
	}
	if len(parts.patients.patients) != 0 {
		t.Errorf("patients = %d, want none", len(parts.patients.patients))
	}
}

func TestRunRetriesFailedRecord(t *testing.T) {
	noContact := FormResponse{ID: "r1", Answers: map[string][]string{"q1": {"Nguyễn A"}}}
	forms := &fakeFormsAPI{
		forms:     map[string]*FormDefinition{"form1": clinicForm()},
		responses: map[string][]FormResponse{"form1": {noContact}},
	}
	parts := newTestEngine([]string{"form1"}, forms)

	if _, err := parts.engine.Run(context.Background(), TriggerManual); err != nil {
		t.Fatalf("first run: %v", err)
	}

	// respondent's phone shows up on a later fetch
	forms.responses["form1"][0].Answers["q2"] = []string{"0901234567"}

	second, err := parts.engine.Run(context.Background(), TriggerManual)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if second.SyncedCount != 1 {
		t.Errorf("second run synced = %d, want 1 (FAILED rows are retryable)", second.SyncedCount)
	}

	record, _ := parts.ledger.FindByKey(context.Background(), "form1", "r1")
	if record == nil || record.SyncStatus != models.SurveySyncStatusSynced {
		t.Errorf("ledger = %+v, want SYNCED after retry", record)
	}
}

func TestRunNonDestructiveMerge(t *testing.T) {
	forms := &fakeFormsAPI{
		forms: map[string]*FormDefinition{"form1": clinicForm()},
		responses: map[string][]FormResponse{"form1": {
			{ID: "r1", Answers: map[string][]string{
				"q1": {"Nguyễn A Updated"},
				"q2": {"0901234567"},
				"q3": {"a@new.com"},
			}},
		}},
	}
	parts := newTestEngine([]string{"form1"}, forms)
	parts.patients.patients = []*Patient{{ID: 1, Name: "Nguyễn A", Email: "a@old.com"}}
	parts.patients.nextID = 1

	summary, err := parts.engine.Run(context.Background(), TriggerManual)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.SyncedCount != 1 {
		t.Fatalf("summary = %+v", summary)
	}
	if len(parts.patients.patients) != 1 {
		t.Fatalf("patients = %d, want 1 (merge, not create)", len(parts.patients.patients))
	}

	p := parts.patients.patients[0]
	if p.Email != "a@old.com" {
		t.Errorf("email = %q, want non-blank value preserved", p.Email)
	}
	if p.Phone != "0901234567" {
		t.Errorf("phone = %q, want blank filled", p.Phone)
	}
	if p.Name != "Nguyễn A Updated" {
		t.Errorf("name = %q, want overwritten", p.Name)
	}
}

func TestRunNoSources(t *testing.T) {
	parts := newTestEngine(nil, &fakeFormsAPI{})

	if _, err := parts.engine.Run(context.Background(), TriggerManual); !errors.Is(err, ErrNoFormSources) {
		t.Errorf("err = %v, want ErrNoFormSources", err)
	}
}

func TestRunFormFailureIsolated(t *testing.T) {
	forms := &fakeFormsAPI{
		forms:     map[string]*FormDefinition{"form2": clinicForm()},
		responses: map[string][]FormResponse{"form2": clinicResponses()},
		formErrs:  map[string]error{"form1": errors.New("provider unavailable")},
	}
	forms.forms["form2"].FormID = "form2"
	parts := newTestEngine([]string{"form1", "form2"}, forms)

	summary, err := parts.engine.Run(context.Background(), TriggerManual)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.TotalForms != 2 {
		t.Errorf("totalForms = %d, want 2", summary.TotalForms)
	}
	if summary.SyncedCount != 2 {
		t.Errorf("synced = %d, want form2's responses despite form1 failing", summary.SyncedCount)
	}
}

func TestRunPagination(t *testing.T) {
	forms := &fakeFormsAPI{
		forms:     map[string]*FormDefinition{"form1": clinicForm()},
		responses: map[string][]FormResponse{"form1": clinicResponses()},
		pageSize:  1,
	}
	parts := newTestEngine([]string{"form1"}, forms)

	summary, err := parts.engine.Run(context.Background(), TriggerManual)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.SyncedCount != 2 {
		t.Errorf("synced = %d, want all pages consumed", summary.SyncedCount)
	}
	if forms.listCalls != 2 {
		t.Errorf("listCalls = %d, want 2 pages", forms.listCalls)
	}
	if forms.getCalls != 1 {
		t.Errorf("getCalls = %d, want metadata fetched once", forms.getCalls)
	}
}
