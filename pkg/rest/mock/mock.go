// Package mock provides a rest.Client recording its calls.
//
// Each method delegates to the function in Impl. Calling a method without Impl fails the test.
package mock

import (
	"context"
	"io"
	"sync"
	"testing"

	"github.com/opst/mlconsole/pkg/api/types/datasets"
	"github.com/opst/mlconsole/pkg/api/types/evaluations"
	"github.com/opst/mlconsole/pkg/api/types/experiments"
	"github.com/opst/mlconsole/pkg/api/types/models"
	"github.com/opst/mlconsole/pkg/api/types/paging"
	"github.com/opst/mlconsole/pkg/api/types/reports"
	"github.com/opst/mlconsole/pkg/api/types/settings"
	"github.com/opst/mlconsole/pkg/rest"
)

type UpdateModelStatusArgs struct {
	Id     string
	Status models.Status
}

type UploadDatasetArgs struct {
	Filename string
	Size     int64
	Meta     datasets.UploadMetadata
}

type SubmitReviewArgs struct {
	Id     string
	Review datasets.Review
}

type CloneExperimentArgs struct {
	Id            string
	Modifications map[string]any
}

type GetExperimentLogsArgs struct {
	Id     string
	Limit  int
	Offset int
}

type UpdateReportArgs struct {
	Id     string
	Change reports.Change
}

type ExportReportArgs struct {
	Id     string
	Format reports.ExportFormat
}

func New(t *testing.T) *MockClient {
	return &MockClient{t: t}
}

type MockClient struct {
	t  *testing.T
	mu sync.Mutex

	Impl struct {
		ListModels        func(ctx context.Context, q paging.Query) (paging.Page[models.Summary], error)
		GetModel          func(ctx context.Context, id string) (models.Detail, error)
		CreateModel       func(ctx context.Context, spec models.Spec) (models.Summary, error)
		RunProbe          func(ctx context.Context, id string) (models.BaselineProbe, error)
		UpdateModelStatus func(ctx context.Context, id string, status models.Status) (models.Summary, error)
		DeleteModel       func(ctx context.Context, id string) error

		ListDatasets  func(ctx context.Context, q paging.Query) (paging.Page[datasets.Summary], error)
		GetDataset    func(ctx context.Context, id string) (datasets.Detail, error)
		UploadDataset func(
			ctx context.Context, filename string, file io.Reader, size int64,
			meta datasets.UploadMetadata, onProgress func(percent int),
		) (datasets.Summary, error)
		EstimateGeneration func(ctx context.Context, config datasets.GenerateConfig) (datasets.GenerateEstimate, error)
		GenerateDataset    func(ctx context.Context, config datasets.GenerateConfig) (datasets.GenerateTask, error)
		GetQualityGate     func(ctx context.Context, id string) (datasets.QualityGateResult, error)
		SubmitReview       func(ctx context.Context, id string, review datasets.Review) error
		DeleteDataset      func(ctx context.Context, id string) error

		ListExperiments   func(ctx context.Context, q paging.Query) (paging.Page[experiments.Summary], error)
		GetExperiment     func(ctx context.Context, id string) (experiments.Detail, error)
		CreateExperiment  func(ctx context.Context, spec experiments.Spec) (experiments.Summary, error)
		StartExperiment   func(ctx context.Context, id string) (experiments.Summary, error)
		StopExperiment    func(ctx context.Context, id string) (experiments.Summary, error)
		CloneExperiment   func(ctx context.Context, id string, modifications map[string]any) (experiments.Summary, error)
		GetExperimentLogs func(ctx context.Context, id string, limit int, offset int) ([]experiments.LogEntry, error)
		DeleteExperiment  func(ctx context.Context, id string) error

		ListEvaluations func(ctx context.Context, q paging.Query) (paging.Page[evaluations.Evaluation], error)

		ListReports   func(ctx context.Context, q paging.Query) (paging.Page[reports.Summary], error)
		GetReport     func(ctx context.Context, id string) (reports.Detail, error)
		CreateReport  func(ctx context.Context, spec reports.Spec) (reports.Summary, error)
		UpdateReport  func(ctx context.Context, id string, change reports.Change) (reports.Summary, error)
		PublishReport func(ctx context.Context, id string) (reports.Summary, error)
		ExportReport  func(ctx context.Context, id string, format reports.ExportFormat, w io.Writer) (int64, error)
		DeleteReport  func(ctx context.Context, id string) error

		GetSystemSettings    func(ctx context.Context) (settings.System, error)
		UpdateSystemSettings func(ctx context.Context, change settings.SystemChange) (settings.System, error)
		ResetSystemSettings  func(ctx context.Context) (settings.System, error)
		GetPreferences       func(ctx context.Context) (settings.Preferences, error)
		UpdatePreferences    func(ctx context.Context, change settings.PreferencesChange) (settings.Preferences, error)
		TestConnection       func(ctx context.Context, url string) (settings.ConnectionTest, error)
		CleanupStorage       func(ctx context.Context) (settings.Cleanup, error)
	}

	Calls struct {
		ListModels        []paging.Query
		GetModel          []string
		CreateModel       []models.Spec
		RunProbe          []string
		UpdateModelStatus []UpdateModelStatusArgs
		DeleteModel       []string

		ListDatasets       []paging.Query
		GetDataset         []string
		UploadDataset      []UploadDatasetArgs
		EstimateGeneration []datasets.GenerateConfig
		GenerateDataset    []datasets.GenerateConfig
		GetQualityGate     []string
		SubmitReview       []SubmitReviewArgs
		DeleteDataset      []string

		ListExperiments   []paging.Query
		GetExperiment     []string
		CreateExperiment  []experiments.Spec
		StartExperiment   []string
		StopExperiment    []string
		CloneExperiment   []CloneExperimentArgs
		GetExperimentLogs []GetExperimentLogsArgs
		DeleteExperiment  []string

		ListEvaluations []paging.Query

		ListReports   []paging.Query
		GetReport     []string
		CreateReport  []reports.Spec
		UpdateReport  []UpdateReportArgs
		PublishReport []string
		ExportReport  []ExportReportArgs
		DeleteReport  []string

		GetSystemSettings    int
		UpdateSystemSettings []settings.SystemChange
		ResetSystemSettings  int
		GetPreferences       int
		UpdatePreferences    []settings.PreferencesChange
		TestConnection       []string
		CleanupStorage       int
	}
}

var _ rest.Client = &MockClient{}

// record appends a call under lock and checks the implementation is ready.
func record[T any](m *MockClient, name string, calls *[]T, arg T, ready bool) {
	m.t.Helper()
	m.mu.Lock()
	*calls = append(*calls, arg)
	m.mu.Unlock()
	if !ready {
		m.t.Fatalf("%s is not ready to be called", name)
	}
}

func count(m *MockClient, name string, calls *int, ready bool) {
	m.t.Helper()
	m.mu.Lock()
	*calls += 1
	m.mu.Unlock()
	if !ready {
		m.t.Fatalf("%s is not ready to be called", name)
	}
}

// Locked runs f with the lock of recorded calls, to read Calls from other goroutines.
func (m *MockClient) Locked(f func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f()
}

func (m *MockClient) ListModels(ctx context.Context, q paging.Query) (paging.Page[models.Summary], error) {
	m.t.Helper()
	record(m, "ListModels", &m.Calls.ListModels, q, m.Impl.ListModels != nil)
	return m.Impl.ListModels(ctx, q)
}

func (m *MockClient) GetModel(ctx context.Context, id string) (models.Detail, error) {
	m.t.Helper()
	record(m, "GetModel", &m.Calls.GetModel, id, m.Impl.GetModel != nil)
	return m.Impl.GetModel(ctx, id)
}

func (m *MockClient) CreateModel(ctx context.Context, spec models.Spec) (models.Summary, error) {
	m.t.Helper()
	record(m, "CreateModel", &m.Calls.CreateModel, spec, m.Impl.CreateModel != nil)
	return m.Impl.CreateModel(ctx, spec)
}

func (m *MockClient) RunProbe(ctx context.Context, id string) (models.BaselineProbe, error) {
	m.t.Helper()
	record(m, "RunProbe", &m.Calls.RunProbe, id, m.Impl.RunProbe != nil)
	return m.Impl.RunProbe(ctx, id)
}

func (m *MockClient) UpdateModelStatus(ctx context.Context, id string, status models.Status) (models.Summary, error) {
	m.t.Helper()
	record(
		m, "UpdateModelStatus", &m.Calls.UpdateModelStatus,
		UpdateModelStatusArgs{Id: id, Status: status}, m.Impl.UpdateModelStatus != nil,
	)
	return m.Impl.UpdateModelStatus(ctx, id, status)
}

func (m *MockClient) DeleteModel(ctx context.Context, id string) error {
	m.t.Helper()
	record(m, "DeleteModel", &m.Calls.DeleteModel, id, m.Impl.DeleteModel != nil)
	return m.Impl.DeleteModel(ctx, id)
}

func (m *MockClient) ListDatasets(ctx context.Context, q paging.Query) (paging.Page[datasets.Summary], error) {
	m.t.Helper()
	record(m, "ListDatasets", &m.Calls.ListDatasets, q, m.Impl.ListDatasets != nil)
	return m.Impl.ListDatasets(ctx, q)
}

func (m *MockClient) GetDataset(ctx context.Context, id string) (datasets.Detail, error) {
	m.t.Helper()
	record(m, "GetDataset", &m.Calls.GetDataset, id, m.Impl.GetDataset != nil)
	return m.Impl.GetDataset(ctx, id)
}

func (m *MockClient) UploadDataset(
	ctx context.Context, filename string, file io.Reader, size int64,
	meta datasets.UploadMetadata, onProgress func(percent int),
) (datasets.Summary, error) {
	m.t.Helper()
	record(
		m, "UploadDataset", &m.Calls.UploadDataset,
		UploadDatasetArgs{Filename: filename, Size: size, Meta: meta}, m.Impl.UploadDataset != nil,
	)
	return m.Impl.UploadDataset(ctx, filename, file, size, meta, onProgress)
}

func (m *MockClient) EstimateGeneration(ctx context.Context, config datasets.GenerateConfig) (datasets.GenerateEstimate, error) {
	m.t.Helper()
	record(m, "EstimateGeneration", &m.Calls.EstimateGeneration, config, m.Impl.EstimateGeneration != nil)
	return m.Impl.EstimateGeneration(ctx, config)
}

func (m *MockClient) GenerateDataset(ctx context.Context, config datasets.GenerateConfig) (datasets.GenerateTask, error) {
	m.t.Helper()
	record(m, "GenerateDataset", &m.Calls.GenerateDataset, config, m.Impl.GenerateDataset != nil)
	return m.Impl.GenerateDataset(ctx, config)
}

func (m *MockClient) GetQualityGate(ctx context.Context, id string) (datasets.QualityGateResult, error) {
	m.t.Helper()
	record(m, "GetQualityGate", &m.Calls.GetQualityGate, id, m.Impl.GetQualityGate != nil)
	return m.Impl.GetQualityGate(ctx, id)
}

func (m *MockClient) SubmitReview(ctx context.Context, id string, review datasets.Review) error {
	m.t.Helper()
	record(
		m, "SubmitReview", &m.Calls.SubmitReview,
		SubmitReviewArgs{Id: id, Review: review}, m.Impl.SubmitReview != nil,
	)
	return m.Impl.SubmitReview(ctx, id, review)
}

func (m *MockClient) DeleteDataset(ctx context.Context, id string) error {
	m.t.Helper()
	record(m, "DeleteDataset", &m.Calls.DeleteDataset, id, m.Impl.DeleteDataset != nil)
	return m.Impl.DeleteDataset(ctx, id)
}

func (m *MockClient) ListExperiments(ctx context.Context, q paging.Query) (paging.Page[experiments.Summary], error) {
	m.t.Helper()
	record(m, "ListExperiments", &m.Calls.ListExperiments, q, m.Impl.ListExperiments != nil)
	return m.Impl.ListExperiments(ctx, q)
}

func (m *MockClient) GetExperiment(ctx context.Context, id string) (experiments.Detail, error) {
	m.t.Helper()
	record(m, "GetExperiment", &m.Calls.GetExperiment, id, m.Impl.GetExperiment != nil)
	return m.Impl.GetExperiment(ctx, id)
}

func (m *MockClient) CreateExperiment(ctx context.Context, spec experiments.Spec) (experiments.Summary, error) {
	m.t.Helper()
	record(m, "CreateExperiment", &m.Calls.CreateExperiment, spec, m.Impl.CreateExperiment != nil)
	return m.Impl.CreateExperiment(ctx, spec)
}

func (m *MockClient) StartExperiment(ctx context.Context, id string) (experiments.Summary, error) {
	m.t.Helper()
	record(m, "StartExperiment", &m.Calls.StartExperiment, id, m.Impl.StartExperiment != nil)
	return m.Impl.StartExperiment(ctx, id)
}

func (m *MockClient) StopExperiment(ctx context.Context, id string) (experiments.Summary, error) {
	m.t.Helper()
	record(m, "StopExperiment", &m.Calls.StopExperiment, id, m.Impl.StopExperiment != nil)
	return m.Impl.StopExperiment(ctx, id)
}

func (m *MockClient) CloneExperiment(ctx context.Context, id string, modifications map[string]any) (experiments.Summary, error) {
	m.t.Helper()
	record(
		m, "CloneExperiment", &m.Calls.CloneExperiment,
		CloneExperimentArgs{Id: id, Modifications: modifications}, m.Impl.CloneExperiment != nil,
	)
	return m.Impl.CloneExperiment(ctx, id, modifications)
}

func (m *MockClient) GetExperimentLogs(ctx context.Context, id string, limit int, offset int) ([]experiments.LogEntry, error) {
	m.t.Helper()
	record(
		m, "GetExperimentLogs", &m.Calls.GetExperimentLogs,
		GetExperimentLogsArgs{Id: id, Limit: limit, Offset: offset}, m.Impl.GetExperimentLogs != nil,
	)
	return m.Impl.GetExperimentLogs(ctx, id, limit, offset)
}

func (m *MockClient) DeleteExperiment(ctx context.Context, id string) error {
	m.t.Helper()
	record(m, "DeleteExperiment", &m.Calls.DeleteExperiment, id, m.Impl.DeleteExperiment != nil)
	return m.Impl.DeleteExperiment(ctx, id)
}

func (m *MockClient) ListEvaluations(ctx context.Context, q paging.Query) (paging.Page[evaluations.Evaluation], error) {
	m.t.Helper()
	record(m, "ListEvaluations", &m.Calls.ListEvaluations, q, m.Impl.ListEvaluations != nil)
	return m.Impl.ListEvaluations(ctx, q)
}

func (m *MockClient) ListReports(ctx context.Context, q paging.Query) (paging.Page[reports.Summary], error) {
	m.t.Helper()
	record(m, "ListReports", &m.Calls.ListReports, q, m.Impl.ListReports != nil)
	return m.Impl.ListReports(ctx, q)
}

func (m *MockClient) GetReport(ctx context.Context, id string) (reports.Detail, error) {
	m.t.Helper()
	record(m, "GetReport", &m.Calls.GetReport, id, m.Impl.GetReport != nil)
	return m.Impl.GetReport(ctx, id)
}

func (m *MockClient) CreateReport(ctx context.Context, spec reports.Spec) (reports.Summary, error) {
	m.t.Helper()
	record(m, "CreateReport", &m.Calls.CreateReport, spec, m.Impl.CreateReport != nil)
	return m.Impl.CreateReport(ctx, spec)
}

func (m *MockClient) UpdateReport(ctx context.Context, id string, change reports.Change) (reports.Summary, error) {
	m.t.Helper()
	record(
		m, "UpdateReport", &m.Calls.UpdateReport,
		UpdateReportArgs{Id: id, Change: change}, m.Impl.UpdateReport != nil,
	)
	return m.Impl.UpdateReport(ctx, id, change)
}

func (m *MockClient) PublishReport(ctx context.Context, id string) (reports.Summary, error) {
	m.t.Helper()
	record(m, "PublishReport", &m.Calls.PublishReport, id, m.Impl.PublishReport != nil)
	return m.Impl.PublishReport(ctx, id)
}

func (m *MockClient) ExportReport(ctx context.Context, id string, format reports.ExportFormat, w io.Writer) (int64, error) {
	m.t.Helper()
	record(
		m, "ExportReport", &m.Calls.ExportReport,
		ExportReportArgs{Id: id, Format: format}, m.Impl.ExportReport != nil,
	)
	return m.Impl.ExportReport(ctx, id, format, w)
}

func (m *MockClient) DeleteReport(ctx context.Context, id string) error {
	m.t.Helper()
	record(m, "DeleteReport", &m.Calls.DeleteReport, id, m.Impl.DeleteReport != nil)
	return m.Impl.DeleteReport(ctx, id)
}

func (m *MockClient) GetSystemSettings(ctx context.Context) (settings.System, error) {
	m.t.Helper()
	count(m, "GetSystemSettings", &m.Calls.GetSystemSettings, m.Impl.GetSystemSettings != nil)
	return m.Impl.GetSystemSettings(ctx)
}

func (m *MockClient) UpdateSystemSettings(ctx context.Context, change settings.SystemChange) (settings.System, error) {
	m.t.Helper()
	record(m, "UpdateSystemSettings", &m.Calls.UpdateSystemSettings, change, m.Impl.UpdateSystemSettings != nil)
	return m.Impl.UpdateSystemSettings(ctx, change)
}

func (m *MockClient) ResetSystemSettings(ctx context.Context) (settings.System, error) {
	m.t.Helper()
	count(m, "ResetSystemSettings", &m.Calls.ResetSystemSettings, m.Impl.ResetSystemSettings != nil)
	return m.Impl.ResetSystemSettings(ctx)
}

func (m *MockClient) GetPreferences(ctx context.Context) (settings.Preferences, error) {
	m.t.Helper()
	count(m, "GetPreferences", &m.Calls.GetPreferences, m.Impl.GetPreferences != nil)
	return m.Impl.GetPreferences(ctx)
}

func (m *MockClient) UpdatePreferences(ctx context.Context, change settings.PreferencesChange) (settings.Preferences, error) {
	m.t.Helper()
	record(m, "UpdatePreferences", &m.Calls.UpdatePreferences, change, m.Impl.UpdatePreferences != nil)
	return m.Impl.UpdatePreferences(ctx, change)
}

func (m *MockClient) TestConnection(ctx context.Context, url string) (settings.ConnectionTest, error) {
	m.t.Helper()
	record(m, "TestConnection", &m.Calls.TestConnection, url, m.Impl.TestConnection != nil)
	return m.Impl.TestConnection(ctx, url)
}

func (m *MockClient) CleanupStorage(ctx context.Context) (settings.Cleanup, error) {
	m.t.Helper()
	count(m, "CleanupStorage", &m.Calls.CleanupStorage, m.Impl.CleanupStorage != nil)
	return m.Impl.CleanupStorage(ctx)
}
