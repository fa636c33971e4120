package feedback

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"nutricoach"
)

// fakeLLM implements nutricoach.TextGenerator.
type fakeLLM struct {
	text  string
	err   error
	delay time.Duration
	calls atomic.Int32
	// prompts received, guarded by mu
	mu      sync.Mutex
	prompts []string
}

func (f *fakeLLM) GenerateText(ctx context.Context, prompt string) (string, error) {
	f.calls.Add(1)
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return f.text, f.err
}

// fakeStore is an in-memory FeedbackStore.
type fakeStore struct {
	mu      sync.Mutex
	records map[uint]nutricoach.DailyRecord
	// preempt, when set, is stored by a phantom writer right before our save.
	preempt string
	getErr  error
	saveErr error
	saves   int
}

func newFakeStore(records ...nutricoach.DailyRecord) *fakeStore {
	s := &fakeStore{records: map[uint]nutricoach.DailyRecord{}}
	for _, r := range records {
		s.records[r.ID] = r
	}
	return s
}

func (s *fakeStore) GetRecordByID(ctx context.Context, id uint) (*nutricoach.DailyRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, s.getErr
	}
	r, ok := s.records[id]
	if !ok {
		return nil, nutricoach.ErrRecordNotFound
	}
	return &r, nil
}

func (s *fakeStore) SaveRecordFeedback(ctx context.Context, recordID uint, text string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return false, s.saveErr
	}
	r, ok := s.records[recordID]
	if !ok {
		return false, nutricoach.ErrRecordNotFound
	}
	if s.preempt != "" && r.Feedback == "" {
		r.Feedback = s.preempt
		s.records[recordID] = r
	}
	if r.Feedback != "" {
		return false, nil
	}
	s.saves++
	r.Feedback = text
	s.records[recordID] = r
	return true, nil
}

func (s *fakeStore) feedback(id uint) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.records[id].Feedback
}

type fakeNotifier struct {
	mu        sync.Mutex
	summaries []nutricoach.DailySummary
	err       error
}

func (n *fakeNotifier) FeedbackGenerated(ctx context.Context, s nutricoach.DailySummary) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.summaries = append(n.summaries, s)
	return n.err
}

type fakeLocker struct {
	acquired atomic.Int32
	released atomic.Int32
	err      error
}

func (l *fakeLocker) Acquire(ctx context.Context, key string) (func(context.Context) error, error) {
	if l.err != nil {
		return nil, l.err
	}
	l.acquired.Add(1)
	return func(context.Context) error {
		l.released.Add(1)
		return nil
	}, nil
}

var errBoom = errors.New("boom")

func sampleUser() nutricoach.UserProfile {
	return nutricoach.UserProfile{
		ID:       7,
		Nickname: "User007",
		HeightCm: 175,
		WeightKg: 70,
		Age:      30,
		Gender:   nutricoach.GenderMale,
		Goal:     nutricoach.GoalLoseFat,
	}
}

func sampleRecord() nutricoach.DailyRecord {
	return nutricoach.DailyRecord{
		ID:                     11,
		UserID:                 7,
		RecordDate:             nutricoach.NewDate(2024, time.May, 1),
		CaloriesConsumed:       2200,
		ProteinG:               120,
		FatG:                   70.5,
		CarbsG:                 250,
		CaloriesBurnedExercise: 300,
	}
}

func sampleSummary(record nutricoach.DailyRecord) nutricoach.DailySummary {
	return nutricoach.DailySummary{
		Date:                     record.RecordDate,
		User:                     sampleUser(),
		Record:                   record,
		BMR:                      1648.75,
		RecommendedDailyCalories: 1478.5,
		CalorieBalance:           1021.5,
	}
}
