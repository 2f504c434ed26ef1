package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	apierr "github.com/opst/mlconsole/pkg/api/types/errors"
	"github.com/opst/mlconsole/pkg/api/types/paging"
	"github.com/opst/mlconsole/pkg/api/types/reports"
)

// DefaultReportsPageSize is the page size used when a request does not tell it.
const DefaultReportsPageSize = 10

// positive parses s as a positive integer. Otherwise, it returns def.
func positive(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return def
	}
	return n
}

// ListReportsHandler serves a page of reports.
//
// Query parameters:
//
//   - page, pageSize: paging. Unparsable values fall back to 1 and 10.
//   - status, type: filter by equality.
func ListReportsHandler(st *Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		page := positive(c.QueryParam("page"), 1)
		pageSize := positive(c.QueryParam("pageSize"), DefaultReportsPageSize)
		status := reports.Status(c.QueryParam("status"))
		typ := reports.Type(c.QueryParam("type"))

		items := st.Reports(func(r reports.Summary) bool {
			if status != "" && r.Status != status {
				return false
			}
			if typ != "" && r.Type != typ {
				return false
			}
			return true
		})
		return c.JSON(http.StatusOK, paging.Slice(items, page, pageSize))
	}
}

func GetReportHandler(st *Store, param string) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := c.Param(param)
		r, ok := st.Report(id)
		if !ok {
			return apierr.NotFound(fmt.Sprintf("report %s is not found", id))
		}
		return c.JSON(http.StatusOK, r)
	}
}

func CreateReportHandler(st *Store, now func() time.Time) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()
		if !strings.HasPrefix(strings.ToLower(req.Header.Get(echo.HeaderContentType)), echo.MIMEApplicationJSON) {
			return apierr.BadRequest(
				"unexpected content type. it should be application/json", nil,
			)
		}
		spec := reports.Spec{}
		if err := json.NewDecoder(req.Body).Decode(&spec); err != nil {
			return apierr.BadRequest("can not understand the requested json", err)
		}
		if spec.Title == "" {
			return apierr.BadRequest("title is required", nil)
		}

		created := st.AddReport(reports.Detail{
			Summary: reports.Summary{
				ExperimentId: spec.ExperimentId,
				Title:        spec.Title,
				Description:  spec.Description,
				Type:         spec.Type,
				Status:       reports.Draft,
				CreatedAt:    now().UTC(),
				CreatedBy:    "mock",
			},
		})
		return c.JSON(http.StatusCreated, created.Summary)
	}
}

func UpdateReportHandler(st *Store, param string) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := c.Param(param)
		change := reports.Change{}
		if err := json.NewDecoder(c.Request().Body).Decode(&change); err != nil {
			return apierr.BadRequest("can not understand the requested json", err)
		}

		updated, ok, _ := st.UpdateReport(id, func(r *reports.Detail) error {
			if change.Title != nil {
				r.Title = *change.Title
			}
			if change.Description != nil {
				r.Description = *change.Description
			}
			if change.Type != nil {
				r.Type = *change.Type
			}
			if change.Tags != nil {
				r.Tags = change.Tags
			}
			return nil
		})
		if !ok {
			return apierr.NotFound(fmt.Sprintf("report %s is not found", id))
		}
		return c.JSON(http.StatusOK, updated.Summary)
	}
}

var errNotPublishable = errors.New("report is still generating")

func PublishReportHandler(st *Store, param string, now func() time.Time) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := c.Param(param)
		published, ok, err := st.UpdateReport(id, func(r *reports.Detail) error {
			if r.Status == reports.Generating {
				return errNotPublishable
			}
			if r.Status != reports.Published {
				t := now().UTC()
				r.Status = reports.Published
				r.PublishedAt = &t
			}
			return nil
		})
		if !ok {
			return apierr.NotFound(fmt.Sprintf("report %s is not found", id))
		}
		if err != nil {
			return apierr.NewErrorResponse(
				http.StatusConflict, err.Error(),
				apierr.WithAdvice("wait for the generation to finish"),
			)
		}
		return c.JSON(http.StatusOK, published.Summary)
	}
}

func DeleteReportHandler(st *Store, param string) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := c.Param(param)
		if !st.DeleteReport(id) {
			return apierr.NotFound(fmt.Sprintf("report %s is not found", id))
		}
		return c.NoContent(http.StatusNoContent)
	}
}

var exportPage = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>{{ .Title }}</title></head>
<body>
<h1>{{ .Title }}</h1>
<p>{{ .Description }}</p>
<dl>
<dt>experiment</dt><dd>{{ .ExperimentId }}</dd>
<dt>status</dt><dd>{{ .Status }}</dd>
<dt>created by</dt><dd>{{ .CreatedBy }}</dd>
</dl>
{{ with .Conclusions }}<h2>Conclusions</h2><ul>{{ range . }}<li>{{ . }}</li>{{ end }}</ul>{{ end }}
</body>
</html>
`))

// ExportReportHandler renders a report. Only format=html is supported.
func ExportReportHandler(st *Store, param string) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := c.Param(param)
		format := reports.ExportFormat(c.QueryParam("format"))
		if format != "" && format != reports.HTML {
			return apierr.BadRequest(
				fmt.Sprintf("format %s is not supported. use html", format), nil,
			)
		}
		r, ok := st.Report(id)
		if !ok {
			return apierr.NotFound(fmt.Sprintf("report %s is not found", id))
		}

		resp := c.Response()
		resp.Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
		resp.Header().Set(
			echo.HeaderContentDisposition,
			fmt.Sprintf(`attachment; filename="%s.html"`, r.Id),
		)
		resp.WriteHeader(http.StatusOK)
		return exportPage.Execute(resp, r)
	}
}
