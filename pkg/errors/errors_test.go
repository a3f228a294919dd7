package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		appErr   *AppError
		expected string
	}{
		{
			name: "without underlying error",
			appErr: &AppError{
				Code:    CodeNotFound,
				Message: "resource not found",
			},
			expected: "NOT_FOUND: resource not found",
		},
		{
			name: "with underlying error",
			appErr: &AppError{
				Code:    CodeInternal,
				Message: "internal error",
				Err:     errors.New("database connection failed"),
			},
			expected: "INTERNAL_ERROR: internal error (caused by: database connection failed)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.appErr.Error()
			if got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	originalErr := errors.New("original error")
	appErr := TransientStorage("storage unavailable", originalErr)

	if !errors.Is(appErr, originalErr) {
		t.Errorf("errors.Is should find the original error")
	}
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		wantCode   string
		wantStatus int
	}{
		{"not found", NotFound("Appointment"), CodeNotFound, http.StatusNotFound},
		{"not found with id", NotFoundWithID("Doctor", "abc"), CodeNotFound, http.StatusNotFound},
		{"validation", Validation("bad", nil), CodeValidation, http.StatusUnprocessableEntity},
		{"invalid input", InvalidInput("bad id"), CodeInvalidInput, http.StatusBadRequest},
		{"unauthorized", Unauthorized("token"), CodeUnauthorized, http.StatusUnauthorized},
		{"forbidden", Forbidden("not yours"), CodeForbidden, http.StatusForbidden},
		{"conflict", Conflict("slot taken"), CodeConflict, http.StatusConflict},
		{"invalid transition", InvalidTransition("completed", "pending"), CodeInvalidTransition, http.StatusConflict},
		{"internal", Internal("boom", nil), CodeInternal, http.StatusInternalServerError},
		{"transient", TransientStorage("retry", nil), CodeTransientStorage, http.StatusServiceUnavailable},
		{"timeout", Timeout("slow"), CodeTimeout, http.StatusGatewayTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.wantCode {
				t.Errorf("expected code %s, got %s", tt.wantCode, tt.err.Code)
			}
			if tt.err.StatusCode() != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, tt.err.StatusCode())
			}
		})
	}
}

func TestNotFoundWithID(t *testing.T) {
	err := NotFoundWithID("Appointment", "12345")

	if err.Message != "Appointment not found" {
		t.Errorf("expected message 'Appointment not found', got %s", err.Message)
	}
	if err.Details["resource"] != "Appointment" {
		t.Errorf("expected resource 'Appointment', got %v", err.Details["resource"])
	}
	if err.Details["id"] != "12345" {
		t.Errorf("expected id '12345', got %v", err.Details["id"])
	}
}

func TestInvalidTransition_Details(t *testing.T) {
	err := InvalidTransition("pending", "completed")

	if err.Details["current_status"] != "pending" {
		t.Errorf("expected current_status pending, got %v", err.Details["current_status"])
	}
	if err.Details["requested_status"] != "completed" {
		t.Errorf("expected requested_status completed, got %v", err.Details["requested_status"])
	}
}

func TestRetryable(t *testing.T) {
	if !TransientStorage("retry", nil).Retryable() {
		t.Error("transient storage errors should be retryable")
	}
	if Conflict("taken").Retryable() {
		t.Error("conflicts should not be retryable")
	}
}

func TestAsAppError(t *testing.T) {
	t.Run("wrapped app error", func(t *testing.T) {
		original := Conflict("slot taken")
		wrapped := fmt.Errorf("create: %w", original)

		got := AsAppError(wrapped)
		if got != original {
			t.Errorf("AsAppError should unwrap to the original AppError")
		}
	})

	t.Run("plain error", func(t *testing.T) {
		got := AsAppError(errors.New("boom"))
		if got.Code != CodeInternal {
			t.Errorf("expected code %s, got %s", CodeInternal, got.Code)
		}
	})
}

func TestHasCode(t *testing.T) {
	err := fmt.Errorf("wrap: %w", Forbidden("no"))

	if !HasCode(err, CodeForbidden) {
		t.Error("HasCode should match wrapped forbidden error")
	}
	if HasCode(err, CodeConflict) {
		t.Error("HasCode should not match a different code")
	}
	if HasCode(errors.New("plain"), CodeInternal) {
		t.Error("HasCode should not match a plain error")
	}
}

func TestToJSON(t *testing.T) {
	err := Conflict("slot taken").WithDetails(map[string]any{"time": "09:00"})
	got := string(err.ToJSON())
	want := `{"code":"CONFLICT","message":"slot taken","details":{"time":"09:00"}}`
	if got != want {
		t.Errorf("ToJSON() = %s, want %s", got, want)
	}
}
