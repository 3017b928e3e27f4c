// Package pipeline 定义了救护车调度任务的处理流程。
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"medimate-go/internal/location"
	"medimate-go/internal/model"
	"medimate-go/internal/repository"
	"medimate-go/internal/service"
	"medimate-go/pkg/log"
	"medimate-go/pkg/tasks"
)

const (
	DefaultETA         = "8-10 minutes"
	DefaultDestination = "Nearest Emergency Hospital"
)

// Dispatcher 消费调度任务，把 pending 请求标记为已派车。
type Dispatcher struct {
	repo       repository.AmbulanceRepository
	facilities service.FacilityService
	now        func() time.Time
}

// NewDispatcher 创建 Dispatcher。facilities 可以为 nil，此时目的地使用默认文案。
func NewDispatcher(repo repository.AmbulanceRepository, facilities service.FacilityService) *Dispatcher {
	return &Dispatcher{repo: repo, facilities: facilities, now: time.Now}
}

// Process 处理一条调度任务。已取消或已派车的请求视为处理完成，重复投递是安全的。
func (d *Dispatcher) Process(ctx context.Context, task tasks.DispatchTask) error {
	log.Infow("[Dispatcher] processing dispatch", "request_id", task.RequestID)

	destination := d.destination(ctx, task)
	updated, err := d.repo.MarkDispatched(task.RequestID, DefaultETA, destination, d.now())
	if err != nil {
		return fmt.Errorf("mark dispatched: %w", err)
	}
	if updated {
		log.Infow("[Dispatcher] ambulance dispatched", "request_id", task.RequestID, "destination", destination)
		return nil
	}

	req, err := d.repo.FindByID(task.RequestID)
	if errors.Is(err, repository.ErrNotFound) {
		// 请求不存在，重试没有意义
		log.Warnw("[Dispatcher] dispatch for unknown request dropped", "request_id", task.RequestID)
		return nil
	}
	if err != nil {
		return err
	}
	log.Infow("[Dispatcher] request already settled", "request_id", req.ID, "status", req.Status)
	return nil
}

// destination 在有坐标时选择最近的医院，查询失败回退为默认文案。
func (d *Dispatcher) destination(ctx context.Context, task tasks.DispatchTask) string {
	if d.facilities == nil || task.Lat == nil || task.Lng == nil {
		return DefaultDestination
	}
	loc := location.Context{State: location.StateResolved, Lat: *task.Lat, Lng: *task.Lng}
	list, err := d.facilities.Nearby(ctx, loc, model.FacilityHospital, service.MaxRadiusMeters)
	if err != nil {
		log.Warnw("[Dispatcher] nearest hospital lookup failed", "request_id", task.RequestID, "error", err)
		return DefaultDestination
	}
	if len(list.Facilities) == 0 {
		return DefaultDestination
	}
	return list.Facilities[0].Name
}

// InlineQueue 在未配置 Kafka 时同步处理调度任务。
type InlineQueue struct {
	Dispatcher *Dispatcher
}

func (q InlineQueue) PublishDispatch(ctx context.Context, task tasks.DispatchTask) error {
	return q.Dispatcher.Process(ctx, task)
}
