package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func TestToFiberStatusCodes(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", Validation("bad"), fiber.StatusBadRequest},
		{"not found", NotFound("missing"), fiber.StatusNotFound},
		{"forbidden", Forbidden("no"), fiber.StatusForbidden},
		{"unauthorized", Unauthorized("who"), fiber.StatusUnauthorized},
		{"conflict", Conflict("dup"), fiber.StatusConflict},
		{"wrapped", fmt.Errorf("outer: %w", NotFound("inner")), fiber.StatusNotFound},
		{"plain", errors.New("boom"), fiber.StatusInternalServerError},
		{"fiber passthrough", fiber.NewError(fiber.StatusTeapot, "tea"), fiber.StatusTeapot},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var fe *fiber.Error
			if !errors.As(ToFiber(tt.err), &fe) {
				t.Fatalf("expected *fiber.Error")
			}
			if fe.Code != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, fe.Code)
			}
		})
	}
}

func TestIsFollowsWrapChain(t *testing.T) {
	base := errors.New("db down")
	err := fmt.Errorf("change status: %w", Wrap(CodeInternal, "update failed", base))
	if !Is(err, CodeInternal) {
		t.Fatalf("expected internal code")
	}
	if Is(err, CodeNotFound) {
		t.Fatalf("unexpected not_found code")
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped base error")
	}
}
