package nutricoach

import (
	"context"
	"net/http"
)

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// TextGenerator is the external text-generation collaborator: prompt in, text or failure out.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// FeedbackNotifier is told about feedback that was generated and persisted.
type FeedbackNotifier interface {
	FeedbackGenerated(ctx context.Context, summary DailySummary) error
}

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

func (g Gender) Valid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderOther:
		return true
	}
	return false
}

type Goal string

const (
	GoalLoseFat    Goal = "lose_fat"
	GoalMaintain   Goal = "maintain"
	GoalGainMuscle Goal = "gain_muscle"
)

func (g Goal) Valid() bool {
	switch g {
	case GoalLoseFat, GoalMaintain, GoalGainMuscle:
		return true
	}
	return false
}

// UserProfile holds the body metrics and goal of one user.
type UserProfile struct {
	ID       uint    `gorm:"primaryKey" json:"id"`
	Nickname string  `gorm:"size:64" json:"nickname"`
	HeightCm float64 `gorm:"not null" json:"height_cm"`
	WeightKg float64 `gorm:"not null" json:"weight_kg"`
	Age      int     `gorm:"not null" json:"age"`
	Gender   Gender  `gorm:"size:16;not null" json:"gender"`
	Goal     Goal    `gorm:"size:16;not null" json:"goal"`
}

func (UserProfile) TableName() string { return "users" }

// DailyRecord is the nutrition and exercise log of one user for one calendar date.
// At most one record exists per (user, date).
type DailyRecord struct {
	ID                     uint    `gorm:"primaryKey" json:"id"`
	UserID                 uint    `gorm:"not null;uniqueIndex:ux_daily_user_date,priority:1" json:"user_id"`
	RecordDate             Date    `gorm:"type:date;not null;uniqueIndex:ux_daily_user_date,priority:2;index" json:"record_date"`
	CaloriesConsumed       int     `gorm:"not null" json:"calories_consumed"`
	ProteinG               float64 `gorm:"not null" json:"protein_g"`
	FatG                   float64 `gorm:"not null" json:"fat_g"`
	CarbsG                 float64 `gorm:"not null" json:"carbs_g"`
	CaloriesBurnedExercise int     `gorm:"not null;default:0" json:"calories_burned_exercise"`

	// Feedback is empty until the first summary computes it.
	Feedback string `gorm:"type:text" json:"feedback,omitempty"`

	User *UserProfile `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

func (DailyRecord) TableName() string { return "daily_records" }

// HasFeedback reports whether feedback was already computed for the record.
func (r DailyRecord) HasFeedback() bool {
	return r.Feedback != ""
}

// DailySummary is derived on every request and never persisted.
type DailySummary struct {
	Date                     Date        `json:"date"`
	User                     UserProfile `json:"user_info"`
	Record                   DailyRecord `json:"daily_record"`
	BMR                      float64     `json:"bmr"`
	RecommendedDailyCalories float64     `json:"recommended_daily_calories"`
	CalorieBalance           float64     `json:"calorie_balance"`
	Feedback                 string      `json:"llm_feedback"`
}
