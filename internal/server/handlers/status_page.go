package handlers

import (
	"encoding/json"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"runtime"
	"time"

	"git.home.luguber.info/inful/linkmon/internal/errors"
	"git.home.luguber.info/inful/linkmon/internal/logfields"
	"git.home.luguber.info/inful/linkmon/internal/netstate"
	"git.home.luguber.info/inful/linkmon/internal/version"
)

// StatusProvider defines the minimal surface needed to render the admin status page.
// It is implemented by the daemon.
type StatusProvider interface {
	GetStatus() string
	GetStartTime() time.Time
	GetConfigFilePath() string
}

// StatusPageData represents data for status page rendering.
type StatusPageData struct {
	DaemonInfo    Info          `json:"daemon_info"`
	Networks      []NetworkCard `json:"networks"`
	SystemMetrics SystemMetrics `json:"system_metrics"`
	LastUpdated   time.Time     `json:"last_updated"`
}

// Info holds basic daemon information.
type Info struct {
	Status     string    `json:"status"`
	Version    string    `json:"version"`
	StartTime  time.Time `json:"start_time"`
	Uptime     string    `json:"uptime"`
	ConfigFile string    `json:"config_file"`
}

// NetworkCard is one network section of the status page.
type NetworkCard struct {
	Name       string    `json:"name"`
	Status     string    `json:"status"`
	StatusInfo string    `json:"status_info,omitempty"`
	Selection  string    `json:"selection,omitempty"`
	Links      []LinkRow `json:"links"`
}

// LinkRow is one link line within a network card.
type LinkRow struct {
	Alias      string  `json:"alias"`
	URL        string  `json:"url"`
	Status     string  `json:"status"`
	Monitored  bool    `json:"monitored"`
	HealthPct  float64 `json:"health_pct"`
	RespTimeMS float64 `json:"resp_time_ms"`
	SuccessPct float64 `json:"success_pct"`
	ErrorInfo  string  `json:"error_info,omitempty"`
	Selected   bool    `json:"selected"`
}

// SystemMetrics provides system resource information.
type SystemMetrics struct {
	MemoryUsage    string `json:"memory_usage"`
	GoroutineCount int    `json:"goroutine_count"`
	NetworkCount   int    `json:"network_count"`
	LinkCount      int    `json:"link_count"`
}

// GenerateStatusData collects and formats status information.
func GenerateStatusData(p StatusProvider, store *netstate.Store) (*StatusPageData, error) {
	if p == nil {
		return nil, errors.ValidationError("status provider is nil").Build()
	}

	cfgFile := p.GetConfigFilePath()
	if cfgFile == "" {
		cfgFile = "linkmon.yaml"
	}
	st := p.GetStatus()
	if st == "" {
		st = "stopped"
	}

	data := &StatusPageData{LastUpdated: time.Now()}
	data.DaemonInfo = Info{
		Status:     st,
		Version:    version.Version,
		StartTime:  p.GetStartTime(),
		Uptime:     time.Since(p.GetStartTime()).Truncate(time.Second).String(),
		ConfigFile: cfgFile,
	}

	if store != nil {
		for _, row := range store.NetworksView() {
			card := NetworkCard{
				Name:       row.Name,
				Status:     string(row.Status),
				StatusInfo: row.StatusInfo,
				Selection:  row.Selection,
			}
			if view, ok := store.LinksSnapshot(row.Name); ok {
				for _, l := range view.Links {
					card.Links = append(card.Links, LinkRow{
						Alias:      l.Alias,
						URL:        l.URL,
						Status:     string(l.Status),
						Monitored:  l.Monitored,
						HealthPct:  round1(l.HealthPct),
						RespTimeMS: round1(l.RespTimeMS),
						SuccessPct: round1(l.SuccessPct),
						ErrorInfo:  l.ErrorInfo,
						Selected:   l.Alias == row.Selection,
					})
					data.SystemMetrics.LinkCount++
				}
			}
			data.Networks = append(data.Networks, card)
		}
		data.SystemMetrics.NetworkCount = len(data.Networks)
	}

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	data.SystemMetrics.MemoryUsage = fmt.Sprintf("%.2f MB", float64(m.Alloc)/1024/1024)
	data.SystemMetrics.GoroutineCount = runtime.NumGoroutine()

	return data, nil
}

// StatusPageHandlers serves the status page as JSON or HTML.
type StatusPageHandlers struct {
	provider     StatusProvider
	store        *netstate.Store
	errorAdapter *errors.HTTPErrorAdapter
}

func NewStatusPageHandlers(provider StatusProvider, store *netstate.Store) *StatusPageHandlers {
	return &StatusPageHandlers{
		provider:     provider,
		store:        store,
		errorAdapter: errors.NewHTTPErrorAdapter(slog.Default()),
	}
}

func (h *StatusPageHandlers) HandleStatusPage(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	data, err := GenerateStatusData(h.provider, h.store)
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}

	slog.Debug("Status endpoint served", slog.Duration("duration", time.Since(start)), logfields.Count(len(data.Networks)))

	if r.Header.Get("Accept") == "application/json" || r.URL.Query().Get("format") == "json" {
		w.Header().Set("Content-Type", "application/json")
		if encodeErr := json.NewEncoder(w).Encode(data); encodeErr != nil {
			slog.Error("failed to encode status json", logfields.Error(encodeErr))
			internalErr := errors.WrapError(encodeErr, errors.CategoryInternal, "failed to encode status json").Build()
			h.errorAdapter.WriteErrorResponse(w, r, internalErr)
		}
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	t, err := template.New("status").Parse(statusHTMLTemplate)
	if err != nil {
		internalErr := errors.WrapError(err, errors.CategoryInternal, "failed to parse status template").Build()
		h.errorAdapter.WriteErrorResponse(w, r, internalErr)
		return
	}
	if err := t.Execute(w, data); err != nil {
		internalErr := errors.WrapError(err, errors.CategoryInternal, "failed to render status template").Build()
		h.errorAdapter.WriteErrorResponse(w, r, internalErr)
		return
	}
}

const statusHTMLTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>linkmon Daemon Status</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; margin: 20px; background: #f5f5f5; }
        .container { max-width: 1200px; margin: 0 auto; background: white; padding: 20px; border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        .header { border-bottom: 2px solid #eee; padding-bottom: 20px; margin-bottom: 30px; }
        .status { display: inline-block; padding: 4px 12px; border-radius: 20px; font-weight: bold; text-transform: uppercase; font-size: 12px; }
        .status.running { background: #d4edda; color: #155724; }
        .status.stopped { background: #f8d7da; color: #721c24; }
        .metrics { display: grid; grid-template-columns: repeat(auto-fit, minmax(250px, 1fr)); gap: 20px; margin: 30px 0; }
        .metric-card { background: #f8f9fa; padding: 15px; border-radius: 6px; border-left: 4px solid #007bff; }
        .metric-value { font-size: 24px; font-weight: bold; color: #007bff; }
        .metric-label { color: #666; font-size: 14px; margin-top: 4px; }
        .net-grid { display: grid; gap: 15px; }
        .net-card { background: #f8f9fa; padding: 15px; border-radius: 6px; border: 1px solid #dee2e6; }
        .net-header { display: flex; justify-content: space-between; align-items: center; margin-bottom: 10px; }
        .net-status { padding: 2px 8px; border-radius: 12px; font-size: 11px; font-weight: bold; }
        .ok { background: #d4edda; color: #155724; }
        .degraded { background: #fff3cd; color: #856404; }
        .down { background: #f8d7da; color: #721c24; }
        .unknown { background: #e9ecef; color: #495057; }
        table { width: 100%; border-collapse: collapse; margin-top: 10px; font-size: 13px; }
        th, td { text-align: left; padding: 4px 8px; border-bottom: 1px solid #dee2e6; }
        th { color: #666; font-weight: 600; }
        .selected { font-weight: bold; }
        .muted { color: #999; }
        .updated { color: #666; font-size: 12px; text-align: center; margin-top: 20px; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>linkmon Daemon Status</h1>
            <p>
                <span class="status {{if eq .DaemonInfo.Status "running"}}running{{else}}stopped{{end}}">{{.DaemonInfo.Status}}</span>
                Version {{.DaemonInfo.Version}} &bull; Uptime: {{.DaemonInfo.Uptime}} &bull; Config: {{.DaemonInfo.ConfigFile}}
            </p>
        </div>

        <div class="metrics">
            <div class="metric-card">
                <div class="metric-value">{{.SystemMetrics.NetworkCount}}</div>
                <div class="metric-label">Networks</div>
            </div>
            <div class="metric-card">
                <div class="metric-value">{{.SystemMetrics.LinkCount}}</div>
                <div class="metric-label">Links</div>
            </div>
            <div class="metric-card">
                <div class="metric-value">{{.SystemMetrics.GoroutineCount}}</div>
                <div class="metric-label">Goroutines</div>
            </div>
            <div class="metric-card">
                <div class="metric-value">{{.SystemMetrics.MemoryUsage}}</div>
                <div class="metric-label">Memory</div>
            </div>
        </div>

        <h2>Networks</h2>
        <div class="net-grid">
            {{range .Networks}}
            <div class="net-card">
                <div class="net-header">
                    <strong>{{.Name}}</strong>
                    <span class="net-status {{.Status}}">{{.Status}}</span>
                </div>
                {{if .StatusInfo}}<div style="color: #666; font-size: 14px;">{{.StatusInfo}}</div>{{end}}
                {{if .Selection}}<div style="margin-top: 4px;">Selected link: <strong>{{.Selection}}</strong></div>{{end}}
                {{if .Links}}
                <table>
                    <tr><th>Alias</th><th>Status</th><th>Health %</th><th>Resp ms</th><th>Success %</th><th>Error</th></tr>
                    {{range .Links}}
                    <tr{{if .Selected}} class="selected"{{end}}>
                        <td>{{.Alias}}{{if not .Monitored}}<span class="muted"> (unmonitored)</span>{{end}}</td>
                        <td><span class="net-status {{.Status}}">{{.Status}}</span></td>
                        <td>{{printf "%.1f" .HealthPct}}</td>
                        <td>{{printf "%.1f" .RespTimeMS}}</td>
                        <td>{{printf "%.1f" .SuccessPct}}</td>
                        <td>{{.ErrorInfo}}</td>
                    </tr>
                    {{end}}
                </table>
                {{end}}
            </div>
            {{end}}
        </div>

        <div class="updated">Last updated: {{.LastUpdated.Format "2006-01-02 15:04:05 UTC"}}</div>
    </div>
</body>
</html>`
