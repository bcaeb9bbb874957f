// Package responses defines the wire types returned by linkmon's HTTP
// and JSON-RPC handlers.
package responses

import "time"

// Header is carried on every successful RPC result. Key names the
// network the result belongs to. InstanceID and SequenceID are the
// coherency token of the state category the method reads; a poller
// echoes them back on its next request to receive the abbreviated
// "unchanged" form when nothing moved. Both are omitted on methods
// that read no tokened category.
type Header struct {
	Method     string `json:"method"`
	Key        string `json:"key,omitempty"`
	InstanceID string `json:"instanceId,omitempty"`
	SequenceID string `json:"sequenceId,omitempty"`
}

// LinkStats is one link row of a getLinks result. Percentages are
// rounded to one decimal.
type LinkStats struct {
	Alias      string  `json:"alias"`
	Status     string  `json:"status,omitempty"`
	HealthPct  float64 `json:"healthPct"`
	RespTime   float64 `json:"respTime"`
	SuccessPct float64 `json:"successPct"`
	ErrorInfo  string  `json:"errorInfo,omitempty"`
}

// LinksSummary aggregates attempt counters across a network's links.
// Each request is counted once even when retried.
type LinksSummary struct {
	SuccessOnFirstAttempt uint64 `json:"successOnFirstAttempt"`
	SuccessOnRetry        uint64 `json:"successOnRetry"`
	FailNetworkDown       uint64 `json:"failNetworkDown"`
	FailBadRequest        uint64 `json:"failBadRequest"`
	FailOthers            uint64 `json:"failOthers"`
}

// LinksResult is the getLinks result. In the unchanged form every
// field but Header is omitted.
type LinksResult struct {
	Header  Header        `json:"header"`
	Status  string        `json:"status,omitempty"`
	Info    string        `json:"info,omitempty"`
	Summary *LinksSummary `json:"summary,omitempty"`
	Links   []LinkStats   `json:"links,omitempty"`
	Display string        `json:"display,omitempty"`
	Debug   string        `json:"debug,omitempty"`
}

// ServiceStatus reports one daemon subsystem on getStatus.
type ServiceStatus struct {
	Label      string `json:"label"`
	Status     string `json:"status,omitempty"`
	StatusInfo string `json:"statusInfo,omitempty"`
}

// StatusResult is the getStatus result.
type StatusResult struct {
	Header        Header          `json:"header"`
	Status        string          `json:"status,omitempty"`
	StatusInfo    string          `json:"statusInfo,omitempty"`
	DaemonVersion string          `json:"daemonVersion,omitempty"`
	Selection     string          `json:"selection,omitempty"`
	Services      []ServiceStatus `json:"services,omitempty"`
	Display       string          `json:"display,omitempty"`
}

// PackageRecord is one published package instance.
type PackageRecord struct {
	PackageID string `json:"packageId"`
	Name      string `json:"name"`
	Timestamp string `json:"timestamp"`
}

// TrackInfo is the publish history of one stable track uuid.
type TrackInfo struct {
	Path   string          `json:"path"`
	Name   string          `json:"name"`
	Latest *PackageRecord  `json:"latest,omitempty"`
	Older  []PackageRecord `json:"older,omitempty"`
}

// PackagesResult is the getPackages result, keyed by track uuid.
type PackagesResult struct {
	Header Header               `json:"header"`
	Tracks map[string]TrackInfo `json:"tracks,omitempty"`
}

// NetworkInfo is one row of a getNetworks result.
type NetworkInfo struct {
	Name       string `json:"name"`
	Status     string `json:"status"`
	StatusInfo string `json:"statusInfo,omitempty"`
	Selection  string `json:"selection,omitempty"`
	Links      int    `json:"links"`
	Monitored  int    `json:"monitored"`
}

// NetworksResult is the getNetworks result.
type NetworksResult struct {
	Header   Header        `json:"header"`
	Networks []NetworkInfo `json:"networks"`
}

// SuccessResult acknowledges a mutation (prePublish, postPublish).
type SuccessResult struct {
	Header Header `json:"header"`
	Result bool   `json:"result"`
	Info   string `json:"info,omitempty"`
}

// InfoResult carries a short informational string (fsChange).
type InfoResult struct {
	Header Header `json:"header"`
	Info   string `json:"info"`
}

// HealthResponse is the admin health check payload.
type HealthResponse struct {
	Status       string    `json:"status"`
	Timestamp    time.Time `json:"timestamp"`
	Version      string    `json:"version"`
	Uptime       float64   `json:"uptime"`
	DaemonStatus string    `json:"daemon_status,omitempty"`
	Networks     int       `json:"networks,omitempty"`
}
