package consumer

import (
	"encoding/json"
	"log"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/thartark/yogastudoapp-sub000/internal/models"
	"gorm.io/gorm"
)

// scheduleAction is the payload sent by the external admin scheduler when it
// cancels or completes an instance.
type scheduleAction struct {
	InstanceID uint `json:"instance_id"`
}

// ScheduleConsumer applies scheduling actions taken outside the core. Once an
// instance leaves the scheduled state, the booking service refuses new
// bookings on it.
type ScheduleConsumer struct {
	db *gorm.DB
}

func NewScheduleConsumer(db *gorm.DB) *ScheduleConsumer {
	return &ScheduleConsumer{db: db}
}

func (sc *ScheduleConsumer) Start(msgs <-chan amqp.Delivery) {
	go func() {
		for msg := range msgs {
			sc.handleMessage(msg)
		}
		log.Println("[ScheduleConsumer] channel closed, stopping consumer")
	}()
}

func (sc *ScheduleConsumer) handleMessage(msg amqp.Delivery) {
	var status models.InstanceStatus
	switch msg.RoutingKey {
	case "schedule.instance_cancelled":
		status = models.InstanceCancelled
	case "schedule.instance_completed":
		status = models.InstanceCompleted
	default:
		msg.Ack(false)
		return
	}

	var action scheduleAction
	if err := json.Unmarshal(msg.Body, &action); err != nil {
		log.Printf("[ScheduleConsumer] failed to unmarshal: %v", err)
		msg.Nack(false, false)
		return
	}

	result := sc.db.Model(&models.ClassInstance{}).
		Where("id = ?", action.InstanceID).
		Update("status", status)
	if result.Error != nil {
		log.Printf("[ScheduleConsumer] failed to update instance %d: %v", action.InstanceID, result.Error)
		msg.Nack(false, true) // requeue
		return
	}
	if result.RowsAffected == 0 {
		log.Printf("[ScheduleConsumer] unknown instance %d, dropping", action.InstanceID)
		msg.Ack(false)
		return
	}

	log.Printf("[ScheduleConsumer] instance %d marked %s", action.InstanceID, status)
	msg.Ack(false)
}
