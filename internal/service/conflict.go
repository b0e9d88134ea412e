package service

import (
	"context"
	"sort"

	"github.com/thartark/yogastudoapp-sub000/internal/models"
)

// DetectInstructorConflicts reports overlapping scheduled instances assigned
// to one instructor. Advisory: conflicts never block generation or booking.
func (s *scheduleService) DetectInstructorConflicts(ctx context.Context, instructorID string) ([]models.ConflictRecord, error) {
	instances, err := s.instanceRepo.FindScheduledByInstructor(ctx, instructorID)
	if err != nil {
		return nil, err
	}
	return findOverlaps(instances, models.ConflictInstructor, instructorID), nil
}

// DetectRoomConflicts reports double-booked rooms with the same overlap rule.
func (s *scheduleService) DetectRoomConflicts(ctx context.Context, roomID string) ([]models.ConflictRecord, error) {
	instances, err := s.instanceRepo.FindScheduledByRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	return findOverlaps(instances, models.ConflictRoom, roomID), nil
}

// findOverlaps compares every pair of instances that can overlap, not just
// neighbours after sorting: an instance spanning several shorter ones
// conflicts with each of them. Once a later start reaches the current end the
// inner scan stops, since starts are sorted. Equal start times count as an
// overlap.
func findOverlaps(instances []models.ClassInstance, kind models.ConflictKind, keyID string) []models.ConflictRecord {
	sort.Slice(instances, func(i, j int) bool {
		if instances[i].StartTime.Equal(instances[j].StartTime) {
			return instances[i].ID < instances[j].ID
		}
		return instances[i].StartTime.Before(instances[j].StartTime)
	})

	var conflicts []models.ConflictRecord
	for i := range instances {
		for j := i + 1; j < len(instances); j++ {
			if !instances[j].StartTime.Before(instances[i].EndTime) {
				break
			}
			conflicts = append(conflicts, models.ConflictRecord{
				Kind:        kind,
				KeyID:       keyID,
				AInstanceID: instances[i].ID,
				BInstanceID: instances[j].ID,
			})
		}
	}
	return conflicts
}
