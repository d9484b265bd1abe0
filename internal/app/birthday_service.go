package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"birthday_card_bot/internal/domain/birthday"

	"github.com/sirupsen/logrus"
)

// Custom application-level errors for the birthday service
var ErrSelfSet = fmt.Errorf("subjects cannot set their own birthday")

// BirthdayService handles the set/get birthday operations behind the slash
// commands.
type BirthdayService struct {
	birthdayRepo birthday.Repository
	logger       *logrus.Entry
	leadDays     int
}

func NewBirthdayService(br birthday.Repository, logger *logrus.Entry, leadDays int) *BirthdayService {
	return &BirthdayService{
		birthdayRepo: br,
		logger:       logger,
		leadDays:     leadDays,
	}
}

// SetBirthday validates and upserts the subject's birthday. A subject cannot
// set their own (the surprise would be spoiled by the confirmation the bot
// posts); an admin or friend has to do it.
func (s *BirthdayService) SetBirthday(ctx context.Context, performingUserID, subjectID, dateStr string) (*birthday.Record, error) {
	if performingUserID == subjectID {
		return nil, ErrSelfSet
	}

	md, err := birthday.ParseMonthDay(strings.TrimSpace(dateStr))
	if err != nil {
		return nil, err
	}

	record := &birthday.Record{
		SubjectID: subjectID,
		MonthDay:  md,
	}
	if err := s.birthdayRepo.Set(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to save birthday for subject %s: %w", subjectID, err)
	}

	s.logger.WithFields(logrus.Fields{
		"subject_id": subjectID,
		"set_by":     performingUserID,
		"month_day":  md.String(),
	}).Info("Birthday set")
	return record, nil
}

// GetBirthday returns the subject's stored birthday, or
// database.ErrBirthdayNotFound when none is set.
func (s *BirthdayService) GetBirthday(ctx context.Context, subjectID string) (*birthday.Record, error) {
	return s.birthdayRepo.Get(ctx, subjectID)
}

// CoordinationStartDate computes when coordination will begin for the given
// birthday: its next occurrence on or after now, minus the configured lead
// days. Used for the confirmation replies. A stored Feb 29 only occurs in
// leap years; time.Date would silently normalize it to Mar 1, a date the
// matching scan never fires on, so non-leap years are skipped instead.
func (s *BirthdayService) CoordinationStartDate(md birthday.MonthDay, now time.Time) time.Time {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	for year := now.Year(); ; year++ {
		next := time.Date(year, md.Month, md.Day, 0, 0, 0, 0, now.Location())
		if next.Month() != md.Month {
			continue
		}
		if !next.Before(today) {
			return next.AddDate(0, 0, -s.leadDays)
		}
	}
}
