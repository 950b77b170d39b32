package learning

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/eigo-backend/internal/domain/account"
	"github.com/yungbote/eigo-backend/internal/domain/aggregates"
	"github.com/yungbote/eigo-backend/internal/domain/content"
	"github.com/yungbote/eigo-backend/internal/pkg/validate"
)

// UserAnswer is one learner submission for a question.
type UserAnswer struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	AccountID      uuid.UUID `gorm:"type:uuid;not null;column:account_id;index:idx_user_answer_account_question,priority:1" json:"account_id"`
	QuestionID     uuid.UUID `gorm:"type:uuid;not null;column:question_id;index:idx_user_answer_account_question,priority:2;index" json:"question_id"`
	SubmittedText  string    `gorm:"not null;column:submitted_text" json:"submitted_text" validate:"notblank,max=2000"`
	IsCorrect      bool      `gorm:"not null;default:false;column:is_correct" json:"is_correct"`
	ManuallyMarked bool      `gorm:"not null;default:false;column:manually_marked" json:"manually_marked"`
	AnsweredAt     time.Time `gorm:"not null;column:answered_at;index" json:"answered_at"`

	Account  *account.Account  `gorm:"foreignKey:AccountID;constraint:OnDelete:RESTRICT" json:"-" validate:"-"`
	Question *content.Question `gorm:"foreignKey:QuestionID;constraint:OnDelete:RESTRICT" json:"-" validate:"-"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (UserAnswer) TableName() string { return "user_answers" }

// NewUserAnswer grades text against the accepted answers.
func NewUserAnswer(accountID, questionID uuid.UUID, text string, accepted []string, now time.Time) (UserAnswer, error) {
	const op = "learning.NewUserAnswer"
	if accountID == uuid.Nil {
		return UserAnswer{}, aggregates.Validation(op, "account_id", "account_id is required")
	}
	if questionID == uuid.Nil {
		return UserAnswer{}, aggregates.Validation(op, "question_id", "question_id is required")
	}
	ua := UserAnswer{
		ID:            uuid.New(),
		AccountID:     accountID,
		QuestionID:    questionID,
		SubmittedText: strings.TrimSpace(text),
		AnsweredAt:    now.UTC(),
	}
	if err := validate.Struct(op, ua); err != nil {
		return UserAnswer{}, err
	}
	ua.IsCorrect = Matches(ua.SubmittedText, accepted)
	return ua, nil
}

// Mark overrides the automatic grading.
func (ua *UserAnswer) Mark(correct bool) {
	ua.IsCorrect = correct
	ua.ManuallyMarked = true
}
