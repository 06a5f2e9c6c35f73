package models

import (
	"errors"
	"testing"
)

func TestParseApplicationStatus(t *testing.T) {
	for _, s := range ApplicationStatuses() {
		got, err := ParseApplicationStatus(" " + string(s) + " ")
		if err != nil || got != s {
			t.Fatalf("parse %q = %q, %v", s, got, err)
		}
	}

	for _, bad := range []string{"", "hired", "Interviewing", "Offer Sent"} {
		_, err := ParseApplicationStatus(bad)
		var unknown *UnknownStatusError
		if !errors.As(err, &unknown) || unknown.Value != bad {
			t.Fatalf("parse %q: err = %v", bad, err)
		}
	}
}

func TestOfferSpellings(t *testing.T) {
	if !StatusOffer.IsOffer() || !StatusOffered.IsOffer() || StatusHired.IsOffer() {
		t.Fatal("both Offer and Offered are the offer stage")
	}
	for _, s := range []ApplicationStatus{StatusHired, StatusRejected, StatusWithdrawn} {
		if !s.IsClosed() {
			t.Fatalf("%s should be closed", s)
		}
	}
	if StatusInterview.IsClosed() {
		t.Fatal("Interview is not closed")
	}
}
