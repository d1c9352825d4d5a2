package catalog

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// Device is a managed device as reported by the remote API.
type Device struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Online bool   `json:"online"`
}

// Alarm is an alarm raised by a device.
type Alarm struct {
	ID       string `json:"id"`
	DeviceID string `json:"deviceId"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
}

// Endpoint is a network endpoint exposed through the remote API.
type Endpoint struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// FileEntry is one entry of a remote directory listing.
type FileEntry struct {
	Name  string `json:"name"`
	Size  int64  `json:"size"`
	IsDir bool   `json:"isDir"`
}

// DeviceService lists devices.
type DeviceService struct {
	remote *RemoteClient
}

// NewDeviceService creates a device service on top of remote.
func NewDeviceService(remote *RemoteClient) *DeviceService {
	return &DeviceService{remote: remote}
}

// List returns all devices.
func (s *DeviceService) List(ctx context.Context) ([]Device, error) {
	var devices []Device
	if err := s.remote.GetJSON(ctx, "devices", &devices); err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}
	return devices, nil
}

// AlarmService lists alarms and resolves the device that raised them.
type AlarmService struct {
	remote  *RemoteClient
	devices *DeviceService
}

// NewAlarmService creates an alarm service.
func NewAlarmService(remote *RemoteClient, devices *DeviceService) *AlarmService {
	return &AlarmService{remote: remote, devices: devices}
}

// List returns all active alarms.
func (s *AlarmService) List(ctx context.Context) ([]Alarm, error) {
	var alarms []Alarm
	if err := s.remote.GetJSON(ctx, "alarms", &alarms); err != nil {
		return nil, fmt.Errorf("failed to list alarms: %w", err)
	}
	return alarms, nil
}

// ByDevice groups the active alarms by the name of the raising device.
// Alarms of unknown devices are grouped under their device id.
func (s *AlarmService) ByDevice(ctx context.Context) (map[string][]Alarm, error) {
	alarms, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	devices, err := s.devices.List(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(devices))
	for _, d := range devices {
		names[d.ID] = d.Name
	}

	res := make(map[string][]Alarm)
	for _, a := range alarms {
		key := a.DeviceID
		if name, ok := names[a.DeviceID]; ok {
			key = name
		}
		res[key] = append(res[key], a)
	}
	return res, nil
}

// EndpointService lists endpoints.
type EndpointService struct {
	remote *RemoteClient
}

// NewEndpointService creates an endpoint service.
func NewEndpointService(remote *RemoteClient) *EndpointService {
	return &EndpointService{remote: remote}
}

// List returns all endpoints.
func (s *EndpointService) List(ctx context.Context) ([]Endpoint, error) {
	var endpoints []Endpoint
	if err := s.remote.GetJSON(ctx, "endpoints", &endpoints); err != nil {
		return nil, fmt.Errorf("failed to list endpoints: %w", err)
	}
	return endpoints, nil
}

// FileService browses files on behalf of the signed-in user. Its HTTP client
// authenticates every request with the session token.
type FileService struct {
	baseURL    string
	httpClient *http.Client
}

// List returns the entries of dir.
func (s *FileService) List(ctx context.Context, dir string) ([]FileEntry, error) {
	var entries []FileEntry
	target := s.baseURL + "/files?path=" + url.QueryEscape(dir)
	if err := getJSON(ctx, s.httpClient, target, &entries); err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}
	return entries, nil
}

// Close releases idle connections.
func (s *FileService) Close() error {
	s.httpClient.CloseIdleConnections()
	return nil
}
