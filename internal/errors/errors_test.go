package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestDaemonError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *DaemonError
		expected string
	}{
		{
			name:     "error without cause",
			err:      New(CategoryConfig, SeverityFatal, "configuration invalid"),
			expected: "config (fatal): configuration invalid",
		},
		{
			name:     "error with cause",
			err:      Wrap(fmt.Errorf("file not found"), CategoryConfig, SeverityFatal, "failed to load config"),
			expected: "config (fatal): failed to load config: file not found",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			result := test.err.Error()
			if result != test.expected {
				t.Errorf("Error() = %q, want %q", result, test.expected)
			}
		})
	}
}

func TestDaemonError_WithContext(t *testing.T) {
	err := New(CategoryProbe, SeverityWarning, "probe failed").
		WithContext("network", "testnet").
		WithContext("alias", "primary")

	if err.Context == nil {
		t.Fatal("Context should not be nil")
	}

	if err.Context["network"] != "testnet" {
		t.Errorf("Context[network] = %v, want testnet", err.Context["network"])
	}

	if err.Context["alias"] != "primary" {
		t.Errorf("Context[alias] = %v, want primary", err.Context["alias"])
	}
}

func TestIsCategory(t *testing.T) {
	configErr := New(CategoryConfig, SeverityFatal, "config error")
	probeErr := New(CategoryProbe, SeverityWarning, "probe error")
	standardErr := fmt.Errorf("standard error")

	tests := []struct {
		name     string
		err      error
		category ErrorCategory
		expected bool
	}{
		{"config error matches config category", configErr, CategoryConfig, true},
		{"config error doesn't match probe category", configErr, CategoryProbe, false},
		{"probe error matches probe category", probeErr, CategoryProbe, true},
		{"standard error doesn't match any category", standardErr, CategoryConfig, false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			result := IsCategory(test.err, test.category)
			if result != test.expected {
				t.Errorf("IsCategory() = %v, want %v", result, test.expected)
			}
		})
	}
}

func TestIsRetryable(t *testing.T) {
	retryableErr := Retryable(CategoryNetwork, SeverityWarning, "timeout")
	nonRetryableErr := New(CategoryConfig, SeverityFatal, "invalid")
	standardErr := fmt.Errorf("standard error")

	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"retryable error", retryableErr, true},
		{"non-retryable error", nonRetryableErr, false},
		{"standard error", standardErr, false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			result := IsRetryable(test.err)
			if result != test.expected {
				t.Errorf("IsRetryable() = %v, want %v", result, test.expected)
			}
		})
	}
}

func TestConvenienceFunctions(t *testing.T) {
	t.Run("ConfigNotFound", func(t *testing.T) {
		err := ConfigNotFound("/etc/linkmon/config.yaml")
		if err.Category != CategoryConfig {
			t.Errorf("Category = %v, want %v", err.Category, CategoryConfig)
		}
		if err.Severity != SeverityFatal {
			t.Errorf("Severity = %v, want %v", err.Severity, SeverityFatal)
		}
		if err.Context["path"] != "/etc/linkmon/config.yaml" {
			t.Errorf("Context[path] = %v", err.Context["path"])
		}
	})

	t.Run("NetworkTimeout", func(t *testing.T) {
		cause := fmt.Errorf("timeout")
		err := NetworkTimeout("https://example.com", cause)
		if err.Category != CategoryNetwork {
			t.Errorf("Category = %v, want %v", err.Category, CategoryNetwork)
		}
		if !err.Retryable {
			t.Error("NetworkTimeout should be retryable")
		}
		if !stdErrors.Is(err, cause) {
			t.Errorf("Cause should match wrapped cause: %v", cause)
		}
	})

	t.Run("UnknownNetwork", func(t *testing.T) {
		err := UnknownNetwork("nosuch")
		if err.Category != CategoryNotFound {
			t.Errorf("Category = %v, want %v", err.Category, CategoryNotFound)
		}
		if err.Context["network"] != "nosuch" {
			t.Errorf("Context[network] = %v, want nosuch", err.Context["network"])
		}
	})

	t.Run("CapacityExceeded", func(t *testing.T) {
		cause := fmt.Errorf("registry full")
		err := CapacityExceeded("links", 255, cause)
		if err.Category != CategoryCapacity {
			t.Errorf("Category = %v, want %v", err.Category, CategoryCapacity)
		}
		if err.Context["limit"] != 255 {
			t.Errorf("Context[limit] = %v, want 255", err.Context["limit"])
		}
		if !stdErrors.Is(err, cause) {
			t.Error("Cause should match wrapped cause")
		}
	})
}

func TestRPCCodeFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", ValidationError("bad param"), RPCCodeInvalidParams},
		{"not found", UnknownNetwork("x"), RPCCodeNotFound},
		{"capacity", CapacityExceeded("links", 255, nil), RPCCodeCapacity},
		{"daemon", DaemonUnavailable("starting"), RPCCodeUnavailable},
		{"probe", ProbeFailed("n", "a", fmt.Errorf("dial")), RPCCodeUpstream},
		{"config", ConfigRequired("networks"), RPCCodeConfig},
		{"plain error", fmt.Errorf("boom"), RPCCodeInternal},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := RPCCodeFor(test.err); got != test.want {
				t.Errorf("RPCCodeFor() = %d, want %d", got, test.want)
			}
		})
	}
}

func TestRPCDataFor(t *testing.T) {
	data := RPCDataFor(ProbeFailed("testnet", "primary", fmt.Errorf("dial")))
	if data["network"] != "testnet" {
		t.Errorf("data[network] = %v, want testnet", data["network"])
	}
	if data["retryable"] != true {
		t.Errorf("data[retryable] = %v, want true", data["retryable"])
	}

	if got := RPCDataFor(fmt.Errorf("plain")); got != nil {
		t.Errorf("plain errors should carry no data, got %v", got)
	}
}

func TestHTTPStatusCodeFor(t *testing.T) {
	adapter := NewHTTPErrorAdapter(nil)

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"validation", ValidationError("bad"), http.StatusBadRequest},
		{"not found", UnknownNetwork("x"), http.StatusNotFound},
		{"probe", ProbeFailed("n", "a", nil), http.StatusBadGateway},
		{"daemon", DaemonUnavailable("stopping"), http.StatusServiceUnavailable},
		{"plain", fmt.Errorf("boom"), http.StatusInternalServerError},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := adapter.StatusCodeFor(test.err); got != test.want {
				t.Errorf("StatusCodeFor() = %d, want %d", got, test.want)
			}
		})
	}
}
