package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"git.home.luguber.info/inful/linkmon/internal/coherency"
	derrors "git.home.luguber.info/inful/linkmon/internal/errors"
	"git.home.luguber.info/inful/linkmon/internal/netstate"
	"git.home.luguber.info/inful/linkmon/internal/server/responses"
	"git.home.luguber.info/inful/linkmon/internal/version"
)

type getLinksParams struct {
	Network    string `json:"network"`
	Summary    *bool  `json:"summary,omitempty"`
	Links      *bool  `json:"links,omitempty"`
	Display    *bool  `json:"display,omitempty"`
	Debug      *bool  `json:"debug,omitempty"`
	InstanceID string `json:"instanceId,omitempty"`
	SequenceID string `json:"sequenceId,omitempty"`
}

// getLinks reads the links category of one network. Summary and links
// default on; requesting display alone turns them off unless asked for
// explicitly; debug turns everything on.
func (h *RPCHandlers) getLinks(_ context.Context, params json.RawMessage) (any, error) {
	var p getLinksParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	if p.Network == "" {
		return nil, derrors.ValidationError("network is required").Build()
	}

	view, ok := h.state.LinksSnapshot(p.Network)
	if !ok {
		return nil, errUnknownNetwork(p.Network)
	}

	result := &responses.LinksResult{Header: headerFor("getLinks", p.Network, view.Token)}
	if view.Token.Check(p.InstanceID, p.SequenceID) == coherency.FreshnessCurrent {
		h.recorder.IncRPCUnchanged("getLinks")
		return result, nil
	}

	display := boolVal(p.Display)
	debug := boolVal(p.Debug)
	wantSummary := !display
	if p.Summary != nil {
		wantSummary = *p.Summary
	}
	wantLinks := !display
	if p.Links != nil {
		wantLinks = *p.Links
	}
	if debug {
		wantSummary, wantLinks, display = true, true, true
	}

	result.Status = string(view.Status)
	result.Info = view.Info
	if wantSummary {
		result.Summary = &responses.LinksSummary{
			SuccessOnFirstAttempt: view.Summary.SuccessOnFirstAttempt,
			SuccessOnRetry:        view.Summary.SuccessOnRetry,
			FailNetworkDown:       view.Summary.FailNetworkDown,
			FailBadRequest:        view.Summary.FailBadRequest,
			FailOthers:            view.Summary.FailOthers,
		}
	}
	stats := linkStatsFrom(view.Links)
	if wantLinks {
		result.Links = stats
	}
	if display {
		result.Display = responses.RenderLinksDisplay(result.Status, result.Info, view.Selection, stats)
	}
	if debug {
		result.Debug = renderLinksDebug(view)
	}
	return result, nil
}

type getStatusParams struct {
	Network    string `json:"network"`
	Display    *bool  `json:"display,omitempty"`
	Debug      *bool  `json:"debug,omitempty"`
	InstanceID string `json:"instanceId,omitempty"`
	SequenceID string `json:"sequenceId,omitempty"`
}

// getStatus reads the aggregate status category of one network plus the
// daemon's own subsystem report.
func (h *RPCHandlers) getStatus(_ context.Context, params json.RawMessage) (any, error) {
	var p getStatusParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	if p.Network == "" {
		return nil, derrors.ValidationError("network is required").Build()
	}

	view, ok := h.state.StatusSnapshot(p.Network)
	if !ok {
		return nil, errUnknownNetwork(p.Network)
	}

	result := &responses.StatusResult{Header: headerFor("getStatus", p.Network, view.Token)}
	if view.Token.Check(p.InstanceID, p.SequenceID) == coherency.FreshnessCurrent {
		h.recorder.IncRPCUnchanged("getStatus")
		return result, nil
	}

	result.Status = string(view.Status)
	result.StatusInfo = view.StatusInfo
	result.DaemonVersion = version.Version
	result.Selection = view.Selection
	if h.services != nil {
		result.Services = h.services.ServiceStatuses()
	}
	if boolVal(p.Display) || boolVal(p.Debug) {
		result.Display = responses.RenderStatusDisplay(view.Network, result.Status, result.StatusInfo, result.Selection, result.Services)
	}
	return result, nil
}

type getPackagesParams struct {
	Network    string `json:"network"`
	InstanceID string `json:"instanceId,omitempty"`
	SequenceID string `json:"sequenceId,omitempty"`
}

// getPackages reads the publish bookkeeping of one network.
func (h *RPCHandlers) getPackages(_ context.Context, params json.RawMessage) (any, error) {
	var p getPackagesParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	if p.Network == "" {
		return nil, derrors.ValidationError("network is required").Build()
	}

	view, ok := h.state.PackagesSnapshot(p.Network)
	if !ok {
		return nil, errUnknownNetwork(p.Network)
	}

	result := &responses.PackagesResult{Header: headerFor("getPackages", p.Network, view.Token)}
	if view.Token.Check(p.InstanceID, p.SequenceID) == coherency.FreshnessCurrent {
		h.recorder.IncRPCUnchanged("getPackages")
		return result, nil
	}

	result.Tracks = make(map[string]responses.TrackInfo, len(view.Tracks))
	for uuid, tr := range view.Tracks {
		info := responses.TrackInfo{Path: tr.Path, Name: tr.Name}
		if tr.Latest != nil {
			rec := packageRecordFrom(*tr.Latest)
			info.Latest = &rec
		}
		for _, inst := range tr.Older {
			info.Older = append(info.Older, packageRecordFrom(inst))
		}
		result.Tracks[uuid] = info
	}
	return result, nil
}

// getNetworks enumerates all configured networks. It reads no tokened
// category, so the header carries the method name alone.
func (h *RPCHandlers) getNetworks(_ context.Context, params json.RawMessage) (any, error) {
	var p struct{}
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}

	rows := h.state.NetworksView()
	result := &responses.NetworksResult{
		Header:   responses.Header{Method: "getNetworks"},
		Networks: make([]responses.NetworkInfo, 0, len(rows)),
	}
	for _, row := range rows {
		result.Networks = append(result.Networks, responses.NetworkInfo{
			Name:       row.Name,
			Status:     string(row.Status),
			StatusInfo: row.StatusInfo,
			Selection:  row.Selection,
			Links:      row.Links,
			Monitored:  row.Monitored,
		})
	}
	return result, nil
}

type prePublishParams struct {
	Network string `json:"network"`
	Path    string `json:"path"`
	Name    string `json:"name"`
}

// prePublish validates that a package publish may start on a network.
func (h *RPCHandlers) prePublish(ctx context.Context, params json.RawMessage) (any, error) {
	var p prePublishParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	if err := requireFields(
		field{"network", p.Network}, field{"path", p.Path}, field{"name", p.Name},
	); err != nil {
		return nil, err
	}

	if err := h.state.PrePublish(ctx, p.Network, p.Path, p.Name); err != nil {
		return nil, wrapStoreErr(err, p.Network)
	}
	return &responses.SuccessResult{
		Header: responses.Header{Method: "prePublish", Key: p.Network},
		Result: true,
	}, nil
}

type postPublishParams struct {
	Network   string `json:"network"`
	Path      string `json:"path"`
	Name      string `json:"name"`
	TrackUUID string `json:"trackUuid"`
	PackageID string `json:"packageId"`
	Timestamp string `json:"timestamp"`
}

// postPublish records a finished publish under the client's track uuid
// and bumps the packages token.
func (h *RPCHandlers) postPublish(ctx context.Context, params json.RawMessage) (any, error) {
	var p postPublishParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	if err := requireFields(
		field{"network", p.Network}, field{"path", p.Path}, field{"name", p.Name},
		field{"trackUuid", p.TrackUUID}, field{"packageId", p.PackageID},
	); err != nil {
		return nil, err
	}

	if err := h.state.PostPublish(ctx, p.Network, p.TrackUUID, p.Path, p.Name, p.PackageID, p.Timestamp); err != nil {
		return nil, wrapStoreErr(err, p.Network)
	}
	return &responses.SuccessResult{
		Header: responses.Header{Method: "postPublish", Key: p.Network},
		Result: true,
	}, nil
}

type fsChangeParams struct {
	Path string `json:"path"`
}

// fsChange marks the configuration dirty; the daemon reloads it off the
// request path. Fire and forget.
func (h *RPCHandlers) fsChange(_ context.Context, params json.RawMessage) (any, error) {
	var p fsChangeParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	if p.Path == "" {
		return nil, derrors.ValidationError("path is required").Build()
	}
	if h.reload == nil {
		return nil, derrors.DaemonUnavailable("configuration reload is not running").Build()
	}

	h.reload.ScheduleReload(p.Path)
	return &responses.InfoResult{
		Header: responses.Header{Method: "fsChange"},
		Info:   "Success",
	}, nil
}

func headerFor(method, key string, tok coherency.Token) responses.Header {
	return responses.Header{
		Method:     method,
		Key:        key,
		InstanceID: tok.InstanceID(),
		SequenceID: tok.SequenceID(),
	}
}

func errUnknownNetwork(name string) error {
	return derrors.New(derrors.CategoryNotFound, derrors.SeverityWarning, "unknown network").
		WithContext("network", name).
		Build()
}

func wrapStoreErr(err error, network string) error {
	if errors.Is(err, netstate.ErrUnknownNetwork) {
		return errUnknownNetwork(network)
	}
	return derrors.New(derrors.CategoryValidation, derrors.SeverityWarning, err.Error()).
		WithContext("network", network).
		Build()
}

type field struct{ name, value string }

func requireFields(fields ...field) error {
	for _, f := range fields {
		if f.value == "" {
			return derrors.ValidationError(f.name + " is required").Build()
		}
	}
	return nil
}

func boolVal(p *bool) bool { return p != nil && *p }

func round1(v float64) float64 { return math.Round(v*10) / 10 }

func linkStatsFrom(links []netstate.LinkView) []responses.LinkStats {
	out := make([]responses.LinkStats, 0, len(links))
	for _, l := range links {
		out = append(out, responses.LinkStats{
			Alias:      l.Alias,
			Status:     string(l.Status),
			HealthPct:  round1(l.HealthPct),
			RespTime:   round1(l.RespTimeMS),
			SuccessPct: round1(l.SuccessPct),
			ErrorInfo:  l.ErrorInfo,
		})
	}
	return out
}

func packageRecordFrom(inst netstate.PackageInstance) responses.PackageRecord {
	return responses.PackageRecord{
		PackageID: inst.PackageID,
		Name:      inst.PackageName,
		Timestamp: inst.Timestamp,
	}
}

// renderLinksDebug dumps the raw view including the token pair, for
// troubleshooting pollers that disagree with the daemon about state.
func renderLinksDebug(v netstate.LinksView) string {
	var b strings.Builder
	fmt.Fprintf(&b, "network=%s status=%s info=%q selection=%q\n", v.Network, v.Status, v.Info, v.Selection)
	fmt.Fprintf(&b, "token instance=%s sequence=%s\n", v.Token.InstanceID(), v.Token.SequenceID())
	fmt.Fprintf(&b, "summary first=%d retry=%d network_down=%d bad_request=%d other=%d\n",
		v.Summary.SuccessOnFirstAttempt, v.Summary.SuccessOnRetry,
		v.Summary.FailNetworkDown, v.Summary.FailBadRequest, v.Summary.FailOthers)
	for _, l := range v.Links {
		fmt.Fprintf(&b, "[%d] %s url=%s prio=%d monitored=%t status=%s health=%.2f resp=%.3fms success=%.2f",
			l.Index, l.Alias, l.URL, l.Priority, l.Monitored, l.Status, l.HealthPct, l.RespTimeMS, l.SuccessPct)
		if l.ErrorInfo != "" {
			fmt.Fprintf(&b, " err=%q", l.ErrorInfo)
		}
		b.WriteByte('\n')
	}
	return b.String()
}
