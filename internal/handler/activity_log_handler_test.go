package handler_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/kegiatan-api/internal/dto"
	"github.com/noah-isme/kegiatan-api/internal/handler"
	"github.com/noah-isme/kegiatan-api/internal/models"
	"github.com/noah-isme/kegiatan-api/internal/service"
)

func newActivityLogApp(svc service.ActivityService, feed service.ChangeFeed) *fiber.App {
	app := fiber.New()
	handler.NewActivityLogHandler(svc, feed, zerolog.Nop()).Register(app.Group("/api/v1/activity-logs"))
	return app
}

func TestActivityLogHandlerListMatchesContract(t *testing.T) {
	svc := &stubActivityService{logResp: dto.ChangeLogListResponse{
		Items: []dto.ChangeLogResponse{
			{
				ID:         2,
				ActivityID: "K001",
				Action:     models.ChangeActionUpdate,
				OldDetail:  ptrString("ID: K001, Title: Seminar AI, Date: 10-05-2025, Location: Aula FT, Category: Seminar, ResponsibleID: 101"),
				NewDetail:  ptrString("ID: K001, Title: Seminar AI, Date: 10-05-2025, Location: Aula Utama, Category: Seminar, ResponsibleID: 101"),
				Changes:    map[string]interface{}{"location": map[string]interface{}{"old": "Aula FT", "new": "Aula Utama"}},
				CreatedAt:  time.Date(2025, 5, 11, 8, 0, 0, 0, time.UTC),
			},
			{
				ID:         1,
				ActivityID: "K001",
				Action:     models.ChangeActionInsert,
				NewDetail:  ptrString("ID: K001, Title: Seminar AI, Date: 10-05-2025, Location: Aula FT, Category: Seminar, ResponsibleID: 101"),
				CreatedAt:  time.Date(2025, 5, 10, 8, 0, 0, 0, time.UTC),
			},
		},
		Pagination: dto.NewPaginationMeta(1, 0, 2),
	}}
	app := newActivityLogApp(svc, nil)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/activity-logs?activity_id=K001&action=UPDATE&page=2&page_size=10", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	validateContract(t, "activity_logs.schema.json", resp)

	require.Equal(t, dto.ChangeLogListRequest{ActivityID: "K001", Action: "UPDATE", Page: 2, PageSize: 10}, svc.lastLogReq)
}

func TestActivityLogHandlerRejectsInvalidPaging(t *testing.T) {
	app := newActivityLogApp(&stubActivityService{}, nil)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/activity-logs?page=abc", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/activity-logs?page_size=x", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestActivityLogHandlerWebsocketRequiresUpgrade(t *testing.T) {
	feed := service.NewChangeFeed(nil, "", zerolog.Nop())
	app := newActivityLogApp(&stubActivityService{}, feed)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/activity-logs/ws", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusUpgradeRequired, resp.StatusCode)
}

func TestActivityLogHandlerWithoutFeedHasNoWebsocketRoute(t *testing.T) {
	app := newActivityLogApp(&stubActivityService{}, nil)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/activity-logs/ws", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}
