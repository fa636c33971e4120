package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"nutricoach"
	"nutricoach/store"
)

// Repository is the persistence the handlers use.
type Repository interface {
	CreateUser(ctx context.Context, u nutricoach.UserProfile) (*nutricoach.UserProfile, error)
	GetUser(ctx context.Context, id uint) (*nutricoach.UserProfile, error)
	ListUsers(ctx context.Context, offset, limit int) ([]nutricoach.UserProfile, error)
	UpdateUser(ctx context.Context, id uint, upd store.UserUpdate) (*nutricoach.UserProfile, error)
	UpsertRecord(ctx context.Context, userID uint, in store.RecordInput) (*nutricoach.DailyRecord, error)
	GetRecord(ctx context.Context, userID uint, date nutricoach.Date) (*nutricoach.DailyRecord, error)
	ListRecords(ctx context.Context, userID uint, offset, limit int) ([]nutricoach.DailyRecord, error)
	ListRecordDates(ctx context.Context, userID uint, start, end *nutricoach.Date) ([]nutricoach.Date, error)
	Ping(ctx context.Context) error
}

// SummaryBuilder produces the daily summary of a user.
type SummaryBuilder interface {
	BuildSummary(ctx context.Context, userID uint, date nutricoach.Date) (nutricoach.DailySummary, error)
}

type Handler struct {
	repo              Repository
	summaries         SummaryBuilder
	feedbackAvailable bool
}

func NewHandler(repo Repository, summaries SummaryBuilder, feedbackAvailable bool) *Handler {
	return &Handler{
		repo:              repo,
		summaries:         summaries,
		feedbackAvailable: feedbackAvailable,
	}
}

type createUserRequest struct {
	Nickname *string           `json:"nickname" binding:"omitempty,max=64"`
	HeightCm float64           `json:"height_cm" binding:"required,gt=0"`
	WeightKg float64           `json:"weight_kg" binding:"required,gt=0"`
	Age      int               `json:"age" binding:"required,gt=0"`
	Gender   nutricoach.Gender `json:"gender" binding:"required,oneof=male female other"`
	Goal     nutricoach.Goal   `json:"goal" binding:"required,oneof=lose_fat maintain gain_muscle"`
}

type updateUserRequest struct {
	Nickname *string            `json:"nickname" binding:"omitempty,max=64"`
	HeightCm *float64           `json:"height_cm" binding:"omitempty,gt=0"`
	WeightKg *float64           `json:"weight_kg" binding:"omitempty,gt=0"`
	Age      *int               `json:"age" binding:"omitempty,gt=0"`
	Gender   *nutricoach.Gender `json:"gender" binding:"omitempty,oneof=male female other"`
	Goal     *nutricoach.Goal   `json:"goal" binding:"omitempty,oneof=lose_fat maintain gain_muscle"`
}

type recordRequest struct {
	RecordDate             *nutricoach.Date `json:"record_date" binding:"required"`
	CaloriesConsumed       *int             `json:"calories_consumed" binding:"required,gte=0"`
	ProteinG               *float64         `json:"protein_g" binding:"required,gte=0"`
	FatG                   *float64         `json:"fat_g" binding:"required,gte=0"`
	CarbsG                 *float64         `json:"carbs_g" binding:"required,gte=0"`
	CaloriesBurnedExercise *int             `json:"calories_burned_exercise" binding:"omitempty,gte=0"`
	ResetFeedback          bool             `json:"reset_feedback"`
}

type pageQuery struct {
	Skip  int `form:"skip,default=0" binding:"gte=0"`
	Limit int `form:"limit,default=100" binding:"gt=0"`
}

type datesQuery struct {
	Start string `form:"start"`
	End   string `form:"end"`
}

func (h *Handler) Health(c *gin.Context) {
	status := http.StatusOK
	body := gin.H{"status": "ok", "feedback_available": h.feedbackAvailable}
	if err := h.repo.Ping(c.Request.Context()); err != nil {
		status = http.StatusServiceUnavailable
		body["status"] = "degraded"
		body["database"] = err.Error()
	}
	c.JSON(status, body)
}

func (h *Handler) CreateUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationError(c, err)
		return
	}

	u := nutricoach.UserProfile{
		HeightCm: req.HeightCm,
		WeightKg: req.WeightKg,
		Age:      req.Age,
		Gender:   req.Gender,
		Goal:     req.Goal,
	}
	if req.Nickname != nil {
		u.Nickname = *req.Nickname
	}

	created, err := h.repo.CreateUser(c.Request.Context(), u)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *Handler) ListUsers(c *gin.Context) {
	var q pageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		validationError(c, err)
		return
	}

	users, err := h.repo.ListUsers(c.Request.Context(), q.Skip, q.Limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *Handler) GetUser(c *gin.Context) {
	id, ok := userIDParam(c)
	if !ok {
		return
	}

	user, err := h.repo.GetUser(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *Handler) UpdateUser(c *gin.Context) {
	id, ok := userIDParam(c)
	if !ok {
		return
	}

	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationError(c, err)
		return
	}

	updated, err := h.repo.UpdateUser(c.Request.Context(), id, store.UserUpdate{
		Nickname: req.Nickname,
		HeightCm: req.HeightCm,
		WeightKg: req.WeightKg,
		Age:      req.Age,
		Gender:   req.Gender,
		Goal:     req.Goal,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *Handler) UpsertRecord(c *gin.Context) {
	id, ok := userIDParam(c)
	if !ok {
		return
	}

	var req recordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationError(c, err)
		return
	}

	in := store.RecordInput{
		RecordDate:             *req.RecordDate,
		CaloriesConsumed:       *req.CaloriesConsumed,
		ProteinG:               *req.ProteinG,
		FatG:                   *req.FatG,
		CarbsG:                 *req.CarbsG,
		CaloriesBurnedExercise: req.CaloriesBurnedExercise,
		ResetFeedback:          req.ResetFeedback,
	}

	record, err := h.repo.UpsertRecord(c.Request.Context(), id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

func (h *Handler) ListRecords(c *gin.Context) {
	id, ok := userIDParam(c)
	if !ok {
		return
	}

	var q pageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		validationError(c, err)
		return
	}

	records, err := h.repo.ListRecords(c.Request.Context(), id, q.Skip, q.Limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, records)
}

func (h *Handler) ListRecordDates(c *gin.Context) {
	id, ok := userIDParam(c)
	if !ok {
		return
	}

	var q datesQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		validationError(c, err)
		return
	}

	start, err := optionalDate(q.Start)
	if err != nil {
		validationError(c, err)
		return
	}
	end, err := optionalDate(q.End)
	if err != nil {
		validationError(c, err)
		return
	}

	dates, err := h.repo.ListRecordDates(c.Request.Context(), id, start, end)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dates)
}

func (h *Handler) GetRecord(c *gin.Context) {
	id, ok := userIDParam(c)
	if !ok {
		return
	}
	date, ok := dateParam(c)
	if !ok {
		return
	}

	// A missing user is reported before a missing record.
	if _, err := h.repo.GetUser(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	record, err := h.repo.GetRecord(c.Request.Context(), id, date)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

func (h *Handler) GetSummary(c *gin.Context) {
	id, ok := userIDParam(c)
	if !ok {
		return
	}
	date, ok := dateParam(c)
	if !ok {
		return
	}

	summary, err := h.summaries.BuildSummary(c.Request.Context(), id, date)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func userIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("user_id"), 10, 64)
	if err != nil || id < 1 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "user_id must be a positive integer"})
		return 0, false
	}
	return uint(id), true
}

func dateParam(c *gin.Context) (nutricoach.Date, bool) {
	date, err := nutricoach.ParseDate(c.Param("record_date"))
	if err != nil {
		validationError(c, err)
		return nutricoach.Date{}, false
	}
	return date, true
}

func optionalDate(s string) (*nutricoach.Date, error) {
	if s == "" {
		return nil, nil
	}
	d, err := nutricoach.ParseDate(s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func validationError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": err.Error()})
}

// respondError maps domain errors onto HTTP statuses.
func respondError(c *gin.Context, err error) {
	_ = c.Error(err)

	switch {
	case errors.Is(err, nutricoach.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"detail": "User not found"})
	case errors.Is(err, nutricoach.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"detail": "Daily record not found"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Internal server error"})
	}
}
