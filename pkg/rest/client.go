// Package rest is a client of the console REST API.
package rest

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/opst/mlconsole/pkg/api/types/datasets"
	"github.com/opst/mlconsole/pkg/api/types/evaluations"
	"github.com/opst/mlconsole/pkg/api/types/experiments"
	"github.com/opst/mlconsole/pkg/api/types/models"
	"github.com/opst/mlconsole/pkg/api/types/paging"
	"github.com/opst/mlconsole/pkg/api/types/reports"
	"github.com/opst/mlconsole/pkg/api/types/settings"
	"github.com/opst/mlconsole/pkg/configs/console"
	"github.com/opst/mlconsole/pkg/errors/cui"
)

// ErrUnauthorized is the cause of errors for responses with 401 Unauthorized.
var ErrUnauthorized = errors.New("unauthorized")

type ModelsClient interface {
	ListModels(ctx context.Context, q paging.Query) (paging.Page[models.Summary], error)
	GetModel(ctx context.Context, id string) (models.Detail, error)
	CreateModel(ctx context.Context, spec models.Spec) (models.Summary, error)

	// RunProbe checks the baseline behaviour of a model.
	RunProbe(ctx context.Context, id string) (models.BaselineProbe, error)
	UpdateModelStatus(ctx context.Context, id string, status models.Status) (models.Summary, error)
	DeleteModel(ctx context.Context, id string) error
}

type DatasetsClient interface {
	ListDatasets(ctx context.Context, q paging.Query) (paging.Page[datasets.Summary], error)
	GetDataset(ctx context.Context, id string) (datasets.Detail, error)

	// UploadDataset sends a dataset file.
	//
	// # Args
	//
	// - ctx
	//
	// - file: content of the dataset.
	//
	// - size: length of file in bytes. When it is not positive, progress is not reported.
	//
	// - meta: attributes of the dataset.
	//
	// - onProgress: called with percentage (0..100) of file sent. It can be nil.
	UploadDataset(
		ctx context.Context, filename string, file io.Reader, size int64,
		meta datasets.UploadMetadata, onProgress func(percent int),
	) (datasets.Summary, error)

	EstimateGeneration(ctx context.Context, config datasets.GenerateConfig) (datasets.GenerateEstimate, error)
	GenerateDataset(ctx context.Context, config datasets.GenerateConfig) (datasets.GenerateTask, error)
	GetQualityGate(ctx context.Context, id string) (datasets.QualityGateResult, error)
	SubmitReview(ctx context.Context, id string, review datasets.Review) error
	DeleteDataset(ctx context.Context, id string) error
}

type ExperimentsClient interface {
	ListExperiments(ctx context.Context, q paging.Query) (paging.Page[experiments.Summary], error)
	GetExperiment(ctx context.Context, id string) (experiments.Detail, error)
	CreateExperiment(ctx context.Context, spec experiments.Spec) (experiments.Summary, error)
	StartExperiment(ctx context.Context, id string) (experiments.Summary, error)
	StopExperiment(ctx context.Context, id string) (experiments.Summary, error)

	// CloneExperiment creates a new experiment from id, with config modified.
	//
	// modifications can be nil.
	CloneExperiment(ctx context.Context, id string, modifications map[string]any) (experiments.Summary, error)

	// GetExperimentLogs returns logs of an experiment. limit <= 0 means no limit.
	GetExperimentLogs(ctx context.Context, id string, limit int, offset int) ([]experiments.LogEntry, error)
	DeleteExperiment(ctx context.Context, id string) error
}

type EvaluationsClient interface {
	ListEvaluations(ctx context.Context, q paging.Query) (paging.Page[evaluations.Evaluation], error)
}

type ReportsClient interface {
	ListReports(ctx context.Context, q paging.Query) (paging.Page[reports.Summary], error)
	GetReport(ctx context.Context, id string) (reports.Detail, error)
	CreateReport(ctx context.Context, spec reports.Spec) (reports.Summary, error)
	UpdateReport(ctx context.Context, id string, change reports.Change) (reports.Summary, error)
	PublishReport(ctx context.Context, id string) (reports.Summary, error)

	// ExportReport writes a rendered report into w.
	//
	// It returns the number of bytes written.
	ExportReport(ctx context.Context, id string, format reports.ExportFormat, w io.Writer) (int64, error)
	DeleteReport(ctx context.Context, id string) error
}

type SettingsClient interface {
	GetSystemSettings(ctx context.Context) (settings.System, error)
	UpdateSystemSettings(ctx context.Context, change settings.SystemChange) (settings.System, error)
	ResetSystemSettings(ctx context.Context) (settings.System, error)
	GetPreferences(ctx context.Context) (settings.Preferences, error)
	UpdatePreferences(ctx context.Context, change settings.PreferencesChange) (settings.Preferences, error)

	// TestConnection asks the server to check reachability of the API at url.
	TestConnection(ctx context.Context, url string) (settings.ConnectionTest, error)
	CleanupStorage(ctx context.Context) (settings.Cleanup, error)
}

// Client is a client of the whole API.
type Client interface {
	ModelsClient
	DatasetsClient
	ExperimentsClient
	EvaluationsClient
	ReportsClient
	SettingsClient
}

type client struct {
	httpclient     *http.Client
	api            string
	credential     func() string
	onUnauthorized func()
}

type Option func(*client) *client

// WithUnauthorizedHook sets a function called for each response with 401 Unauthorized.
//
// It is called before the request method returns.
func WithUnauthorizedHook(hook func()) Option {
	return func(c *client) *client {
		c.onUnauthorized = hook
		return c
	}
}

// WithCredential replaces where the bearer token comes from.
//
// By default, it is profile's Credential().
// The function is called for each request. Returning "" sends no Authorization header.
func WithCredential(credential func() string) Option {
	return func(c *client) *client {
		c.credential = credential
		return c
	}
}

// create new client for Profile
//
// # Args
//
// - *console.Profile
//
// - ...Option
//
// # Return
//
// - Client: created client
//
// - error: If given profile is invalid, ErrProfileInvalid is returned.
func NewClient(prof *console.Profile, opts ...Option) (Client, error) {
	if err := prof.Verify(); err != nil {
		return nil, err
	}
	httpclient := &http.Client{Timeout: prof.RequestTimeout()}

	if prof.Cert.CA != "" {
		hc, err := trustCa(httpclient, []string{prof.Cert.CA})
		if err != nil {
			return nil, err
		}
		httpclient = hc
	}

	c := &client{
		httpclient:     httpclient,
		api:            strings.TrimSuffix(prof.ApiRoot, "/"),
		credential:     prof.Credential,
		onUnauthorized: func() {},
	}
	for _, o := range opts {
		c = o(c)
	}

	return c, nil
}

// build URL with path
func (c *client) apipath(path ...string) string {
	elems := make([]string, 0, len(path)+1)
	elems = append(elems, c.api)
	for _, p := range path {
		elems = append(elems, url.PathEscape(strings.Trim(p, "/")))
	}
	return strings.Join(elems, "/")
}

// newRequest builds a request. When body is not nil, it is sent as JSON.
func (c *client) newRequest(
	ctx context.Context, method string, query url.Values, body any, path ...string,
) (*http.Request, error) {
	var payload io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		payload = bytes.NewReader(b)
	}

	target := c.apipath(path...)
	if len(query) != 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, payload)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// do sends the request with credential.
//
// Failures before getting any response are returned as CUI errors.
func (c *client) do(req *http.Request) (*http.Response, error) {
	if c.credential != nil {
		if token := c.credential(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpclient.Do(req)
	if err != nil {
		return nil, cui.New(
			fmt.Sprintf("network error: no response from %s", req.URL.Host),
			cui.WithCause(err),
			cui.WithRequest(req.Method, req.URL.String()),
		)
	}
	if resp.StatusCode == http.StatusUnauthorized {
		c.onUnauthorized()
	}
	return resp, nil
}

// fetchJson sends a request and decodes its response into v.
func fetchJson[T any](
	c *client, ctx context.Context, method string, query url.Values, body any,
	v *T, messageFor MessageFor, path ...string,
) error {
	req, err := c.newRequest(ctx, method, query, body, path...)
	if err != nil {
		return err
	}
	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return unmarshalJsonResponse(resp, v, messageFor)
}

// fetchNothing sends a request and discards its response payload.
func (c *client) fetchNothing(
	ctx context.Context, method string, body any, messageFor MessageFor, path ...string,
) error {
	req, err := c.newRequest(ctx, method, nil, body, path...)
	if err != nil {
		return err
	}
	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return unmarshalResponseDiscardingPayload(resp, messageFor)
}

func serverError(resp *http.Response) string {
	return fmt.Sprintf("server error (status code = %d)", resp.StatusCode)
}

func trustCa(hc *http.Client, cacerts []string) (*http.Client, error) {
	if len(cacerts) <= 0 {
		return hc, nil
	}

	if hc.Transport == nil {
		hc.Transport = http.DefaultTransport
	}

	tran, ok := hc.Transport.(*http.Transport)
	if !ok {
		return nil, fmt.Errorf("failed to add ca cert")
	}
	tran = tran.Clone()

	tcc := tran.TLSClientConfig.Clone()
	if tcc == nil {
		tcc = &tls.Config{}
	}

	rootcas := tcc.RootCAs
	if rootcas == nil {
		rootcas = x509.NewCertPool()
		tcc.RootCAs = rootcas
	}
	for _, ca := range cacerts {
		bin, err := base64.StdEncoding.DecodeString(ca)
		if err != nil {
			return nil, err
		}

		if !rootcas.AppendCertsFromPEM(bin) {
			return nil, fmt.Errorf("failed to add cert")
		}
	}

	tran.TLSClientConfig = tcc
	hc.Transport = tran
	return hc, nil
}
