package handler

import (
	"net/http"

	"github.com/templui/goalsetter/internal/ctxkeys"
	"github.com/templui/goalsetter/internal/model"
	"github.com/templui/goalsetter/internal/service"
)

type GoalHandler struct {
	goalService *service.GoalService
}

func NewGoalHandler(goalService *service.GoalService) *GoalHandler {
	return &GoalHandler{
		goalService: goalService,
	}
}

func (h *GoalHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := ctxkeys.UserID(r.Context())

	query := r.URL.Query()
	filter := model.GoalFilter{
		Category: model.Category(query.Get("category")),
		Priority: model.Priority(query.Get("priority")),
		Status:   model.GoalStatus(query.Get("status")),
	}

	goals, err := h.goalService.Goals(r.Context(), userID, filter)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, goals)
}

func (h *GoalHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.goalService.Stats(r.Context(), ctxkeys.UserID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

func (h *GoalHandler) Get(w http.ResponseWriter, r *http.Request) {
	goal, err := h.goalService.Goal(r.Context(), ctxkeys.UserID(r.Context()), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, goal)
}

func (h *GoalHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in model.NewGoal
	if err := decodeBody(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}

	goal, err := h.goalService.Create(r.Context(), ctxkeys.UserID(r.Context()), in)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, goal)
}

func (h *GoalHandler) Update(w http.ResponseWriter, r *http.Request) {
	data, err := readBody(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	patch, err := model.ParseGoalPatch(data)
	if err != nil {
		writeError(w, r, err)
		return
	}

	goal, err := h.goalService.Update(r.Context(), ctxkeys.UserID(r.Context()), r.PathValue("id"), patch)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, goal)
}

func (h *GoalHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Status model.GoalStatus `json:"status"`
	}
	if err := decodeBody(w, r, &body); err != nil {
		writeError(w, r, err)
		return
	}

	goal, err := h.goalService.UpdateStatus(r.Context(), ctxkeys.UserID(r.Context()), r.PathValue("id"), body.Status)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, goal)
}

func (h *GoalHandler) Delete(w http.ResponseWriter, r *http.Request) {
	goalID := r.PathValue("id")

	err := h.goalService.Delete(r.Context(), ctxkeys.UserID(r.Context()), goalID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"id": goalID})
}

func (h *GoalHandler) AddMilestone(w http.ResponseWriter, r *http.Request) {
	var in model.MilestoneInput
	if err := decodeBody(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}

	goal, err := h.goalService.AddMilestone(r.Context(), ctxkeys.UserID(r.Context()), r.PathValue("id"), in)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, goal)
}

func (h *GoalHandler) UpdateMilestone(w http.ResponseWriter, r *http.Request) {
	data, err := readBody(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	patch, err := model.ParseMilestonePatch(data)
	if err != nil {
		writeError(w, r, err)
		return
	}

	goal, err := h.goalService.UpdateMilestone(r.Context(), ctxkeys.UserID(r.Context()),
		r.PathValue("id"), r.PathValue("milestoneId"), patch)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, goal)
}

func (h *GoalHandler) RemoveMilestone(w http.ResponseWriter, r *http.Request) {
	goal, err := h.goalService.RemoveMilestone(r.Context(), ctxkeys.UserID(r.Context()),
		r.PathValue("id"), r.PathValue("milestoneId"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, goal)
}
