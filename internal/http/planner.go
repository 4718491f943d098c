package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sun1tar/task-planner/internal/models"
	"github.com/sun1tar/task-planner/internal/repository"
	"github.com/sun1tar/task-planner/internal/storage"
)

// PlannerHandler обслуживает дневной план, настройки и обратную связь
type PlannerHandler struct {
	*TaskHandler
	client *repository.Client
	store  *storage.Store
}

func NewPlannerHandler(base *TaskHandler, client *repository.Client, store *storage.Store) *PlannerHandler {
	return &PlannerHandler{
		TaskHandler: base,
		client:      client,
		store:       store,
	}
}

func parsePlanDate(raw string) (string, bool) {
	d, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return "", false
	}
	return d.Format("2006-01-02"), true
}

// GetPlan обрабатывает GET /v1/planner/{date}
func (h *PlannerHandler) GetPlan(w http.ResponseWriter, r *http.Request) {
	session, ok := h.verifySession(w, r)
	if !ok {
		return
	}

	date, ok := parsePlanDate(r.PathValue("date"))
	if !ok {
		http.Error(w, `{"error":"date must be yyyy-MM-dd"}`, http.StatusBadRequest)
		return
	}

	plan := h.client.LoadPlan(r.Context(), session.UserID, date)
	if plan == nil {
		// Пустой план - валидный ответ: день ещё не спланирован
		plan = &models.DailyPlan{UserID: session.UserID, Date: date}
	}
	writeJSON(w, http.StatusOK, plan)
}

// PutPlan обрабатывает PUT /v1/planner/{date}
func (h *PlannerHandler) PutPlan(w http.ResponseWriter, r *http.Request) {
	logEntry := h.logEntry(r, "PutPlan")

	session, ok := h.verifySession(w, r)
	if !ok {
		return
	}

	date, ok := parsePlanDate(r.PathValue("date"))
	if !ok {
		http.Error(w, `{"error":"date must be yyyy-MM-dd"}`, http.StatusBadRequest)
		return
	}

	var plan models.DailyPlan
	if err := json.NewDecoder(r.Body).Decode(&plan); err != nil {
		logEntry.WithError(err).Warn("invalid request body")
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return
	}
	plan.UserID = session.UserID
	plan.Date = date
	plan.DailyGoal = sanitizeInput(plan.DailyGoal)
	plan.Notes = sanitizeInput(plan.Notes)

	result := h.client.SavePlan(r.Context(), &plan)
	logEntry.WithFields(logrus.Fields{
		"date":   date,
		"remote": result.RemoteOK,
		"local":  result.LocalOK,
	}).Info("daily plan saved")
	writeJSON(w, http.StatusOK, map[string]any{"plan": plan, "persisted": result})
}

// GetSettings обрабатывает GET /v1/settings: ключ пользователя, затем
// общий ключ, затем дефолты
func (h *PlannerHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	session, ok := h.verifySession(w, r)
	if !ok {
		return
	}

	settings := models.Settings{DefaultView: "list", ShowCompleted: true}
	if !h.store.GetJSON(storage.SettingsKey(session.UserID), &settings) {
		h.store.GetJSON(storage.KeySettings, &settings)
	}
	writeJSON(w, http.StatusOK, settings)
}

// PutSettings обрабатывает PUT /v1/settings. Первичная запись - ключ
// пользователя, общий ключ пишется best-effort.
func (h *PlannerHandler) PutSettings(w http.ResponseWriter, r *http.Request) {
	logEntry := h.logEntry(r, "PutSettings")

	session, ok := h.verifySession(w, r)
	if !ok {
		return
	}

	var settings models.Settings
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		logEntry.WithError(err).Warn("invalid request body")
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return
	}

	localOK := h.store.SetJSON(storage.SettingsKey(session.UserID), settings)
	h.store.SetJSON(storage.KeySettings, settings)

	writeJSON(w, http.StatusOK, map[string]any{
		"settings":  settings,
		"persisted": repository.WriteResult{LocalOK: localOK},
	})
}

type feedbackRequest struct {
	Message string `json:"message"`
	Page    string `json:"page,omitempty"`
}

// PostFeedback обрабатывает POST /v1/feedback - отчёт дописывается под
// ключ feedbackReports
func (h *PlannerHandler) PostFeedback(w http.ResponseWriter, r *http.Request) {
	logEntry := h.logEntry(r, "PostFeedback")

	session, ok := h.verifySession(w, r)
	if !ok {
		return
	}

	var req feedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Message == "" {
		http.Error(w, `{"error":"message is required"}`, http.StatusBadRequest)
		return
	}

	var reports []models.FeedbackReport
	h.store.GetJSON(storage.KeyFeedback, &reports)
	reports = append(reports, models.FeedbackReport{
		UserID:    session.UserID,
		Message:   sanitizeInput(req.Message),
		Page:      sanitizeInput(req.Page),
		CreatedAt: time.Now(),
	})
	localOK := h.store.SetJSON(storage.KeyFeedback, reports)

	logEntry.WithField("count", len(reports)).Info("feedback recorded")
	writeJSON(w, http.StatusCreated, map[string]any{
		"persisted": repository.WriteResult{LocalOK: localOK},
	})
}
