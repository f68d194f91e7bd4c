package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/fasthttp/router"
	"github.com/prasetya/reminder-gateway/internal/model"
	"github.com/prasetya/reminder-gateway/internal/services"
	xhttp "github.com/prasetya/reminder-gateway/pkg/http"
)

type ReminderService interface {
	Create(ctx context.Context, p model.ReminderCreateRequest) (*model.Reminder, error)
	Update(ctx context.Context, id int64, p model.ReminderUpdateRequest) (*model.Reminder, error)
	Get(ctx context.Context, id int64) (*model.Reminder, error)
	List(ctx context.Context, f model.ReminderFilter) ([]*model.Reminder, int64, error)
	Delete(ctx context.Context, id int64) error
	Quota(ctx context.Context, owner string) (int64, int, error)
	Stats(ctx context.Context) (*model.StatusCounts, error)
}

type AttemptService interface {
	ListByReminder(ctx context.Context, reminderID int64) ([]*model.DispatchLog, error)
}

type ReminderHandler struct {
	svc      ReminderService
	attempts AttemptService
}

func RegisterReminderRoutes(e *router.Group, h *ReminderHandler) {
	e.POST("/reminders", h.CreateReminder)
	e.GET("/reminders", h.ListReminders)
	e.GET("/reminders/quota", h.GetQuota)
	e.GET("/reminders/{id}", h.GetReminder)
	e.PATCH("/reminders/{id}", h.UpdateReminder)
	e.DELETE("/reminders/{id}", h.DeleteReminder)
	e.GET("/reminders/{id}/attempts", h.ListAttempts)
	e.GET("/stats", h.GetStats)
}

func NewReminderHandler(reminderService ReminderService, attemptService AttemptService) *ReminderHandler {
	return &ReminderHandler{
		svc:      reminderService,
		attempts: attemptService,
	}
}

type createReminderRequest struct {
	Owner       string `json:"owner"`
	Target      string `json:"target"`
	Body        string `json:"body"`
	ScheduledAt string `json:"scheduled_at"`
	Timezone    string `json:"timezone"`
}

type updateReminderRequest struct {
	Target      *string `json:"target"`
	Body        *string `json:"body"`
	ScheduledAt *string `json:"scheduled_at"`
	Timezone    *string `json:"timezone"`
}

type listRemindersResponse struct {
	Items []*model.Reminder `json:"items"`
	Total int64             `json:"total"`
}

type quotaResponse struct {
	Owner   string `json:"owner"`
	Pending int64  `json:"pending"`
	Max     int    `json:"max"`
}

type attemptsResponse struct {
	Items []*model.DispatchLog `json:"items"`
}

/* --------------------------------- Routes ----------------------------------- */

func (h *ReminderHandler) CreateReminder(ctx *xhttp.RequestCtx) {
	var req createReminderRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, 400, "invalid JSON: "+err.Error())
		return
	}

	scheduledAt, err := parseTime(req.ScheduledAt)
	if err != nil {
		writeError(ctx, 400, "invalid scheduled_at: "+err.Error())
		return
	}

	tz := model.TimezoneWIB
	if req.Timezone != "" {
		tz = model.Timezone(strings.ToUpper(strings.TrimSpace(req.Timezone)))
	}

	p := model.ReminderCreateRequest{
		Owner:       req.Owner,
		Target:      req.Target,
		Body:        req.Body,
		ScheduledAt: scheduledAt,
		Timezone:    tz,
	}
	rem, err := h.svc.Create(ctx, p)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 201, rem)
}

func (h *ReminderHandler) GetReminder(ctx *xhttp.RequestCtx) {
	id, err := pathInt64(ctx, "id")
	if err != nil {
		writeError(ctx, 400, "invalid id")
		return
	}

	rem, err := h.svc.Get(ctx, id)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 200, rem)
}

func (h *ReminderHandler) UpdateReminder(ctx *xhttp.RequestCtx) {
	id, err := pathInt64(ctx, "id")
	if err != nil {
		writeError(ctx, 400, "invalid id")
		return
	}

	var req updateReminderRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, 400, "invalid JSON: "+err.Error())
		return
	}

	p := model.ReminderUpdateRequest{
		Target: req.Target,
		Body:   req.Body,
	}
	if req.ScheduledAt != nil {
		t, err := parseTime(*req.ScheduledAt)
		if err != nil {
			writeError(ctx, 400, "invalid scheduled_at: "+err.Error())
			return
		}
		p.ScheduledAt = &t
	}
	if req.Timezone != nil {
		tz := model.Timezone(strings.ToUpper(strings.TrimSpace(*req.Timezone)))
		p.Timezone = &tz
	}

	rem, err := h.svc.Update(ctx, id, p)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 200, rem)
}

func (h *ReminderHandler) DeleteReminder(ctx *xhttp.RequestCtx) {
	id, err := pathInt64(ctx, "id")
	if err != nil {
		writeError(ctx, 400, "invalid id")
		return
	}

	if err := h.svc.Delete(ctx, id); err != nil {
		writeServiceError(ctx, err)
		return
	}
	ctx.Response.SetStatusCode(204)
}

func (h *ReminderHandler) ListReminders(ctx *xhttp.RequestCtx) {
	var f model.ReminderFilter

	if v := query(ctx, "owner"); v != "" {
		f.Owner = &v
	}
	if v := query(ctx, "status"); v != "" {
		parts := strings.Split(v, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
			if parts[i] != "" {
				f.Statuses = append(f.Statuses, model.ReminderStatus(parts[i]))
			}
		}
	}
	if v := query(ctx, "from"); v != "" {
		if t, e := parseTime(v); e == nil {
			f.From = &t
		}
	}
	if v := query(ctx, "to"); v != "" {
		if t, e := parseTime(v); e == nil {
			f.To = &t
		}
	}
	if v := query(ctx, "limit"); v != "" {
		if n, e := strconv.Atoi(v); e == nil {
			f.Limit = n
		}
	}
	if v := query(ctx, "offset"); v != "" {
		if n, e := strconv.Atoi(v); e == nil {
			f.Offset = n
		}
	}
	if strings.EqualFold(query(ctx, "order"), "desc") {
		f.Desc = true
	}

	items, total, err := h.svc.List(ctx, f)
	if err != nil {
		writeError(ctx, 400, err.Error())
		return
	}
	writeJSON(ctx, 200, listRemindersResponse{Items: items, Total: total})
}

func (h *ReminderHandler) GetQuota(ctx *xhttp.RequestCtx) {
	owner := query(ctx, "owner")

	pending, max, err := h.svc.Quota(ctx, owner)
	if err != nil {
		writeError(ctx, 500, err.Error())
		return
	}
	writeJSON(ctx, 200, quotaResponse{Owner: owner, Pending: pending, Max: max})
}

func (h *ReminderHandler) ListAttempts(ctx *xhttp.RequestCtx) {
	id, err := pathInt64(ctx, "id")
	if err != nil {
		writeError(ctx, 400, "invalid id")
		return
	}

	items, err := h.attempts.ListByReminder(ctx, id)
	if err != nil {
		writeError(ctx, 500, err.Error())
		return
	}
	writeJSON(ctx, 200, attemptsResponse{Items: items})
}

func (h *ReminderHandler) GetStats(ctx *xhttp.RequestCtx) {
	counts, err := h.svc.Stats(ctx)
	if err != nil {
		writeError(ctx, 500, err.Error())
		return
	}
	writeJSON(ctx, 200, counts)
}

/* --------------------------------- Helpers ----------------------------------- */

func writeServiceError(ctx *xhttp.RequestCtx, err error) {
	switch {
	case errors.Is(err, services.ErrQuotaExceeded):
		writeError(ctx, 429, err.Error())
	case errors.Is(err, services.ErrNotFound):
		writeError(ctx, 404, err.Error())
	case errors.Is(err, services.ErrNotPending):
		writeError(ctx, 409, err.Error())
	default:
		writeError(ctx, 400, err.Error())
	}
}

func readJSON(ctx *xhttp.RequestCtx, dst any) error {
	body := ctx.PostBody()
	return json.Unmarshal(body, dst)
}

func writeJSON(ctx *xhttp.RequestCtx, status int, v any) {
	b, _ := json.Marshal(v)
	ctx.Response.Header.Set("Content-Type", "application/json; charset=utf-8")
	ctx.Response.SetStatusCode(status)
	ctx.Response.SetBodyRaw(b)
}

func writeError(ctx *xhttp.RequestCtx, status int, msg string) {
	writeJSON(ctx, status, map[string]string{"error": msg})
}

func pathInt64(ctx *xhttp.RequestCtx, name string) (int64, error) {
	v, _ := ctx.UserValue(name).(string)
	return strconv.ParseInt(v, 10, 64)
}

func query(ctx *xhttp.RequestCtx, key string) string {
	return string(ctx.QueryArgs().Peek(key))
}

func parseTime(s string) (time.Time, error) {
	// Accept RFC3339 or YYYY-MM-DD HH:MM
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02 15:04", s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}
