package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrTune/Sem-Planner/internal/middleware"
	"github.com/MrTune/Sem-Planner/internal/repository"
	"github.com/MrTune/Sem-Planner/internal/service"
	"github.com/MrTune/Sem-Planner/pkg/clock"
)

var fixedNow = time.Date(2024, time.May, 15, 9, 0, 0, 0, time.UTC)

type envelope struct {
	Data  json.RawMessage        `json:"data"`
	Error map[string]interface{} `json:"error"`
	Meta  map[string]interface{} `json:"meta"`
}

func buildPlannerRouter(t *testing.T) (*gin.Engine, *service.Planner) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := repository.NewMemoryBlobHub().Open("test")
	metrics := service.NewMetricsService()
	gateway := service.NewCollectionGateway(store, service.GatewayConfig{Key: "semesterPlannerData", SeedCourses: 7}, nil, metrics, nil)
	planner := service.NewPlanner(gateway, clock.Fixed(fixedNow), service.PlannerConfig{
		Location:    time.UTC,
		Origin:      "test",
		StoreDriver: "memory",
		StoreKey:    "semesterPlannerData",
	}, nil, metrics, nil)
	exporter := service.NewExportService(planner, nil, nil, nil)

	router := gin.New()
	router.Use(middleware.WithResponseMeta(), middleware.PlannerHeaders("test", "memory"))
	Register(router, "/api/v1", Handlers{
		Courses: NewCourseHandler(planner, exporter),
		Agenda:  NewAgendaHandler(planner),
		System:  NewSystemHandler(planner, metrics),
		Metrics: NewMetricsHandler(metrics, func() bool { return planner.Status().Loaded }),
	})
	return router, planner
}

func performRequest(router *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func doJSON(t *testing.T, router *gin.Engine, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *bytes.Buffer
	if body != "" {
		reader = bytes.NewBufferString(body)
	} else {
		reader = &bytes.Buffer{}
	}
	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp := performRequest(router, req)
	var env envelope
	if resp.Body.Len() > 0 && resp.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &env))
	}
	return resp, env
}

func TestPlannerRoutesIntegration(t *testing.T) {
	router, _ := buildPlannerRouter(t)

	resp, _ := doJSON(t, router, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, resp.Code)

	resp, env := doJSON(t, router, http.MethodGet, "/api/v1/courses", "")
	require.Equal(t, http.StatusOK, resp.Code)
	var overview struct {
		Today   string `json:"today"`
		Courses []struct {
			ID   int    `json:"id"`
			Name string `json:"name"`
		} `json:"courses"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &overview))
	assert.Equal(t, "2024-05-15", overview.Today)
	require.Len(t, overview.Courses, 7)
	assert.Equal(t, "Course 1: Subject Name", overview.Courses[0].Name)

	resp, _ = doJSON(t, router, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusOK, resp.Code)

	resp, env = doJSON(t, router, http.MethodPost, "/api/v1/courses/1/components", `{"name":"Midsem","date":"2024-05-14","max":50,"obtained":40,"group":"Midsem"}`)
	require.Equal(t, http.StatusCreated, resp.Code)
	midsemID, _ := env.Meta["componentId"].(string)
	require.NotEmpty(t, midsemID)

	resp, env = doJSON(t, router, http.MethodPost, "/api/v1/courses/1/components", "")
	require.Equal(t, http.StatusCreated, resp.Code)
	endsemID, _ := env.Meta["componentId"].(string)

	resp, _ = doJSON(t, router, http.MethodPut, "/api/v1/courses/1/components/"+endsemID+"/date", `{"value":"2024-05-16"}`)
	require.Equal(t, http.StatusOK, resp.Code)
	resp, env = doJSON(t, router, http.MethodPut, "/api/v1/courses/1/components/"+endsemID+"/max", `{"value":50}`)
	require.Equal(t, http.StatusOK, resp.Code)

	var course struct {
		TotalMarks float64 `json:"totalMarks"`
		Components []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
			Band string `json:"band"`
		} `json:"components"`
		Stats struct {
			Percentage             float64 `json:"percentage"`
			CurrentPercentageLabel string  `json:"currentPercentageLabel"`
			HasFinished            bool    `json:"hasFinished"`
		} `json:"stats"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &course))
	assert.Equal(t, 100.0, course.TotalMarks)
	assert.Equal(t, 40.0, course.Stats.Percentage)
	assert.Equal(t, "80.0", course.Stats.CurrentPercentageLabel)
	assert.True(t, course.Stats.HasFinished)
	require.Len(t, course.Components, 2)
	assert.Equal(t, "New Evaluative", course.Components[1].Name)
	assert.Equal(t, "urgent", course.Components[1].Band)

	resp, env = doJSON(t, router, http.MethodPut, "/api/v1/courses/1/components/"+endsemID+"/obtained", `{"value":"abc"}`)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "VALIDATION_ERROR", env.Error["code"])

	resp, env = doJSON(t, router, http.MethodGet, "/api/v1/upcoming", "")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.EqualValues(t, 1, env.Meta["count"])
	assert.Contains(t, env.Meta, "processing_time_ms")
	assert.Equal(t, "test", resp.Header().Get(middleware.OriginHeader))

	resp, env = doJSON(t, router, http.MethodGet, "/api/v1/calendar", "")
	require.Equal(t, http.StatusOK, resp.Code)
	var grid struct {
		Month int `json:"month"`
		Cells []struct {
			Placeholder bool `json:"placeholder"`
			Day         int  `json:"day"`
			Entries     []struct {
				CourseID int `json:"courseId"`
			} `json:"entries"`
		} `json:"cells"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &grid))
	assert.Equal(t, 5, grid.Month)
	assert.True(t, grid.Cells[0].Placeholder)
	assert.Equal(t, 14, grid.Cells[3+13].Day)
	require.Len(t, grid.Cells[3+13].Entries, 1)
	assert.Equal(t, 1, grid.Cells[3+13].Entries[0].CourseID)

	resp, _ = doJSON(t, router, http.MethodGet, "/api/v1/calendar?month=13", "")
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = performRequest(router, httptest.NewRequest(http.MethodGet, "/api/v1/courses/1/export?format=csv", nil))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "text/csv", resp.Header().Get("Content-Type"))
	assert.Contains(t, resp.Header().Get("Content-Disposition"), "course-1-subject-name.csv")

	resp, _ = doJSON(t, router, http.MethodDelete, "/api/v1/courses/1/components/"+midsemID, "")
	assert.Equal(t, http.StatusOK, resp.Code)
	resp, _ = doJSON(t, router, http.MethodDelete, "/api/v1/courses/1/components", "")
	assert.Equal(t, http.StatusOK, resp.Code)

	resp, env = doJSON(t, router, http.MethodGet, "/api/v1/status", "")
	require.Equal(t, http.StatusOK, resp.Code)
	var status struct {
		LoadStatus string `json:"loadStatus"`
		Seeded     bool   `json:"seeded"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &status))
	assert.Equal(t, "absent", status.LoadStatus)
	assert.True(t, status.Seeded)
	assert.NotNil(t, env.Meta["metrics"])

	resp, env = doJSON(t, router, http.MethodPost, "/api/v1/reload", "")
	require.Equal(t, http.StatusOK, resp.Code)
	require.NoError(t, json.Unmarshal(env.Data, &status))
	assert.Equal(t, "ok", status.LoadStatus)

	resp = performRequest(router, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "planner_mutations_total")
}

func TestCourseLifecycleRoutes(t *testing.T) {
	router, _ := buildPlannerRouter(t)

	resp, env := doJSON(t, router, http.MethodPost, "/api/v1/courses", `{"name":"Chemistry"}`)
	require.Equal(t, http.StatusCreated, resp.Code)
	var created struct {
		ID int `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, 8, created.ID)

	resp, _ = doJSON(t, router, http.MethodPost, "/api/v1/courses", `{"name":""}`)
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp, _ = doJSON(t, router, http.MethodPut, "/api/v1/courses/8/name", `{"name":"Organic"}`)
	assert.Equal(t, http.StatusOK, resp.Code)

	resp, _ = doJSON(t, router, http.MethodDelete, "/api/v1/courses/8", "")
	assert.Equal(t, http.StatusNoContent, resp.Code)

	resp, env = doJSON(t, router, http.MethodGet, "/api/v1/courses/8", "")
	assert.Equal(t, http.StatusNotFound, resp.Code)
	assert.Equal(t, "course not found", env.Error["message"])

	resp, _ = doJSON(t, router, http.MethodGet, "/api/v1/courses/1", "")
	assert.Equal(t, http.StatusOK, resp.Code)
}
