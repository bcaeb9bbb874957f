package daemon

import (
	"fmt"

	"git.home.luguber.info/inful/linkmon/internal/server/responses"
)

const (
	serviceOK       = "ok"
	serviceDown     = "down"
	serviceDisabled = "disabled"
)

// ServiceStatuses reports the state of each internal service for the
// getStatus RPC result and the status page.
func (d *Daemon) ServiceStatuses() []responses.ServiceStatus {
	running := d.currentStatus() == StatusRunning

	statuses := make([]responses.ServiceStatus, 0, 6)

	control := responses.ServiceStatus{Label: "control loop", Status: serviceDown}
	if d.ctrl.Running() {
		control.Status = serviceOK
		if pending := d.ctrl.Pending(); pending > 0 {
			control.StatusInfo = fmt.Sprintf("%d queued", pending)
		}
	}
	statuses = append(statuses, control)

	scheduler := responses.ServiceStatus{Label: "probe scheduler", Status: serviceDown}
	if d.scheduler != nil && d.scheduler.Started() {
		scheduler.Status = serviceOK
	}
	statuses = append(statuses, scheduler)

	api := responses.ServiceStatus{Label: "api server", Status: serviceDown}
	admin := responses.ServiceStatus{Label: "admin server", Status: serviceDown}
	if d.httpServer != nil && running {
		api.Status = serviceOK
		admin.Status = serviceOK
	}
	statuses = append(statuses, api, admin)

	watcher := responses.ServiceStatus{Label: "config watcher", Status: serviceDisabled}
	if d.watcher != nil {
		watcher.Status = serviceDown
		if running {
			watcher.Status = serviceOK
		}
	}
	statuses = append(statuses, watcher)

	notifier := responses.ServiceStatus{Label: "notifier", Status: serviceDisabled}
	if d.notifier.Enabled() {
		notifier.Status = serviceOK
	}
	statuses = append(statuses, notifier)

	return statuses
}
