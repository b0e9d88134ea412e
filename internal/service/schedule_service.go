package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/thartark/yogastudoapp-sub000/internal/models"
	"github.com/thartark/yogastudoapp-sub000/internal/repository"
	"github.com/thartark/yogastudoapp-sub000/pkg/rabbitmq"
	"gorm.io/gorm"
)

var ErrTemplateNotFound = errors.New("class template not found")

const (
	DefaultHorizonDays = 14
	MaxHorizonDays     = 90
)

type ScheduleService interface {
	CreateTemplate(ctx context.Context, template *models.ClassTemplate) error
	GetTemplate(ctx context.Context, id uint) (*models.ClassTemplate, error)
	ListTemplates(ctx context.Context) ([]models.ClassTemplate, error)
	GenerateInstances(ctx context.Context, templateID uint, horizonDays int) (int, error)
	DetectInstructorConflicts(ctx context.Context, instructorID string) ([]models.ConflictRecord, error)
	DetectRoomConflicts(ctx context.Context, roomID string) ([]models.ConflictRecord, error)
}

type scheduleService struct {
	templateRepo repository.TemplateRepository
	instanceRepo repository.InstanceRepository
	publisher    *rabbitmq.Publisher
	now          func() time.Time
}

func NewScheduleService(
	templateRepo repository.TemplateRepository,
	instanceRepo repository.InstanceRepository,
	publisher *rabbitmq.Publisher,
) ScheduleService {
	return &scheduleService{
		templateRepo: templateRepo,
		instanceRepo: instanceRepo,
		publisher:    publisher,
		now:          time.Now,
	}
}

func (s *scheduleService) CreateTemplate(ctx context.Context, template *models.ClassTemplate) error {
	if _, err := template.Weekdays(); err != nil {
		return err
	}
	if _, _, err := template.StartClock(); err != nil {
		return err
	}
	if err := s.templateRepo.Create(ctx, template); err != nil {
		return fmt.Errorf("create template: %w", err)
	}
	return nil
}

func (s *scheduleService) GetTemplate(ctx context.Context, id uint) (*models.ClassTemplate, error) {
	template, err := s.templateRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTemplateNotFound
		}
		return nil, err
	}
	return template, nil
}

func (s *scheduleService) ListTemplates(ctx context.Context) ([]models.ClassTemplate, error) {
	return s.templateRepo.FindAll(ctx)
}

// GenerateInstances expands the template into dated instances over the
// horizon. Occurrences that already exist are skipped, so re-running for the
// same template and horizon creates nothing new. A deactivated template
// generates nothing but keeps its existing instances untouched.
func (s *scheduleService) GenerateInstances(ctx context.Context, templateID uint, horizonDays int) (int, error) {
	template, err := s.templateRepo.FindByID(ctx, templateID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrTemplateNotFound
		}
		return 0, err
	}
	if !template.Active {
		return 0, nil
	}

	if horizonDays <= 0 {
		horizonDays = DefaultHorizonDays
	}
	if horizonDays > MaxHorizonDays {
		horizonDays = MaxHorizonDays
	}

	starts, err := expandOccurrences(template, s.now(), horizonDays)
	if err != nil {
		return 0, err
	}
	if len(starts) == 0 {
		return 0, nil
	}

	instances := make([]models.ClassInstance, 0, len(starts))
	for _, start := range starts {
		instances = append(instances, models.ClassInstance{
			TemplateID:   &template.ID,
			InstructorID: template.InstructorID,
			RoomID:       template.RoomID,
			StartTime:    start,
			EndTime:      start.Add(template.Duration()),
			Capacity:     template.Capacity,
			Status:       models.InstanceScheduled,
		})
	}

	created, err := s.instanceRepo.CreateOccurrences(ctx, instances)
	if err != nil {
		return 0, fmt.Errorf("create occurrences: %w", err)
	}

	if s.publisher != nil {
		for _, inst := range created {
			_ = s.publisher.Publish("instance.generated", InstanceGeneratedEvent{
				InstanceID: inst.ID, TemplateID: template.ID, StartTime: inst.StartTime,
			})
		}
	}
	return len(created), nil
}

// expandOccurrences lists the start times matching the template's weekdays
// within the horizonDays calendar days starting at from. A horizon with no
// matching day yields an empty slice, not an error.
func expandOccurrences(template *models.ClassTemplate, from time.Time, horizonDays int) ([]time.Time, error) {
	weekdays, err := template.Weekdays()
	if err != nil {
		return nil, err
	}
	hour, minute, err := template.StartClock()
	if err != nil {
		return nil, err
	}

	match := make(map[time.Weekday]bool, len(weekdays))
	for _, d := range weekdays {
		match[d] = true
	}

	var starts []time.Time
	for d := 0; d < horizonDays; d++ {
		day := from.AddDate(0, 0, d)
		if !match[day.Weekday()] {
			continue
		}
		start := time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, day.Location())
		if !start.After(from) {
			continue // today's occurrence that already started
		}
		starts = append(starts, start)
	}
	return starts, nil
}
