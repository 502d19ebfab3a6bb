package service

import (
	"fmt"
	"time"

	"glec/pkg/config"
	"glec/pkg/model"

	"github.com/teambition/rrule-go"
)

const (
	generatedSlotTitle = "GLEC 미팅"
	generatedSlotType  = model.MeetingTypeConsultation
)

// WorkingHours describes when generated slots may start.
type WorkingHours struct {
	Location     *time.Location
	MeetingHours []int
	SlotLength   time.Duration
	AdvanceDays  int
	MinLeadTime  time.Duration
	Holidays     map[string]struct{}
}

func WorkingHoursFromConfig(cfg *config.Config) (WorkingHours, error) {
	loc, err := time.LoadLocation(cfg.WorkingHoursTimezone)
	if err != nil {
		return WorkingHours{}, fmt.Errorf("invalid working hours timezone: %w", err)
	}

	holidays := make(map[string]struct{}, len(cfg.Holidays))
	for _, day := range cfg.Holidays {
		holidays[day] = struct{}{}
	}

	return WorkingHours{
		Location:     loc,
		MeetingHours: cfg.WorkingHoursMeetingHours,
		SlotLength:   time.Duration(cfg.WorkingHoursSlotMinutes) * time.Minute,
		AdvanceDays:  cfg.WorkingHoursAdvanceDays,
		MinLeadTime:  cfg.WorkingHoursMinLeadTime,
		Holidays:     holidays,
	}, nil
}

// Occurrences lists slot start times from now through days ahead: weekday
// meeting hours, minus holidays and anything inside the minimum lead time.
func (w WorkingHours) Occurrences(now time.Time, days int) ([]time.Time, error) {
	if days <= 0 {
		days = w.AdvanceDays
	}

	local := now.In(w.Location)
	dayStart := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, w.Location)
	until := dayStart.AddDate(0, 0, days+1)

	rule, err := rrule.NewRRule(rrule.ROption{
		Freq:      rrule.DAILY,
		Dtstart:   dayStart,
		Until:     until,
		Byweekday: []rrule.Weekday{rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR},
		Byhour:    w.MeetingHours,
		Byminute:  []int{0},
		Bysecond:  []int{0},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build working hours rule: %w", err)
	}

	earliest := now.Add(w.MinLeadTime)
	var out []time.Time
	for _, start := range rule.Between(dayStart, until, true) {
		if start.Before(earliest) {
			continue
		}
		if _, holiday := w.Holidays[start.In(w.Location).Format(time.DateOnly)]; holiday {
			continue
		}
		out = append(out, start)
	}
	return out, nil
}

// Slots builds the generated slot documents for the given start times.
func (w WorkingHours) Slots(starts []time.Time, now time.Time) []*model.MeetingSlot {
	slots := make([]*model.MeetingSlot, 0, len(starts))
	for _, start := range starts {
		start = start.UTC()
		slots = append(slots, &model.MeetingSlot{
			Title:           generatedSlotTitle,
			MeetingType:     generatedSlotType,
			StartTime:       start,
			EndTime:         start.Add(w.SlotLength),
			DurationMinutes: int(w.SlotLength.Minutes()),
			Timezone:        w.Location.String(),
			MeetingLocation: model.LocationOnline,
			MaxBookings:     1,
			Status:          model.SlotAvailable,
			Generated:       true,
			CreatedBy:       "slotgen",
			CreatedAt:       now,
			UpdatedAt:       now,
		})
	}
	return slots
}
