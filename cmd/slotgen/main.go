package main

import (
	"context"
	"flag"

	"glec/internal/meetings/repository"
	"glec/internal/meetings/service"
	"glec/internal/meetings/validator"
	"glec/pkg/config"
	"glec/pkg/model"
	"glec/pkg/sanitizer"
)

const JobName = "slot-generator"

// Fills the calendar with working-hour slots. Safe to run on a schedule;
// slots that already exist are skipped.
func main() {
	days := flag.Int("days", 0, "days ahead to generate (defaults to WORKING_HOURS_ADVANCE_DAYS)")
	flag.Parse()

	cfg := config.Load(JobName)
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	hours, err := service.WorkingHoursFromConfig(cfg)
	if err != nil {
		cfg.Log.Fatal("Invalid working hours configuration", "error", err)
	}

	slots := service.NewSlotService(
		repository.NewSlotRepository(cfg),
		validator.NewMeetingValidator(cfg.Log),
		hours,
		cfg,
	)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.RequestTimeout*10)
	defer cancel()

	result, err := slots.Generate(ctx, &model.GenerateSlotsRequest{DaysAhead: sanitizer.ClampInt(*days, 0, 90)})
	if err != nil {
		cfg.Log.Error("Slot generation failed", "error", err)
		return
	}
	cfg.Log.Info("Slot generation finished", "created", result.Created, "skipped", result.Skipped)
}
