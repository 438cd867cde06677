package config

import "testing"

func TestParseDefaults(t *testing.T) {
	opts, err := Parse([]string{"--input", "in.wav", "--output", "out.json"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !opts.IsolateDrums {
		t.Fatal("expected isolate_drums to default true")
	}
	if opts.ConfidenceThreshold != 0.7 {
		t.Fatalf("expected default confidence 0.7, got %v", opts.ConfidenceThreshold)
	}
	if opts.QuantizationGrid != "sixteenth" {
		t.Fatalf("expected default grid sixteenth, got %v", opts.QuantizationGrid)
	}
}

func TestParseNoSeparation(t *testing.T) {
	opts, err := Parse([]string{"--input", "in.wav", "--no-separation"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.IsolateDrums {
		t.Fatal("expected isolate_drums false with --no-separation")
	}
}

func TestParseContradictoryMLFlags(t *testing.T) {
	_, err := Parse([]string{"--input", "in.wav", "--ml", "--no-ml"})
	if err == nil {
		t.Fatal("expected error for contradictory --ml/--no-ml")
	}
	var cfgErr *Error
	if !asError(err, &cfgErr) {
		t.Fatalf("expected *config.Error, got %T", err)
	}
	if cfgErr.Kind != KindInvalidOptions {
		t.Fatalf("expected KindInvalidOptions, got %v", cfgErr.Kind)
	}
}

func TestParseTempoCandidates(t *testing.T) {
	opts, err := Parse([]string{"--input", "in.wav", "--tempo-candidates", "120,90.5"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(opts.TempoCandidatesHint) != 2 || opts.TempoCandidatesHint[0] != 120 || opts.TempoCandidatesHint[1] != 90.5 {
		t.Fatalf("unexpected tempo candidates: %v", opts.TempoCandidatesHint)
	}
}

func TestValidateRejectsBadGrid(t *testing.T) {
	opts := Defaults()
	opts.QuantizationGrid = "bogus"
	if err := opts.Validate(); err == nil {
		t.Fatal("expected error for invalid grid")
	}
}

func TestValidateRejectsOutOfRangeConfidence(t *testing.T) {
	opts := Defaults()
	opts.ConfidenceThreshold = 1.5
	if err := opts.Validate(); err == nil {
		t.Fatal("expected error for out-of-range confidence")
	}
}

func TestErrorGRPCStatus(t *testing.T) {
	err := NewError(KindModelUnavailable, "no model", nil)
	st := err.GRPCStatus()
	if st == nil {
		t.Fatal("expected non-nil status")
	}
	if st.Message() == "" {
		t.Fatal("expected non-empty status message")
	}
}

func asError(err error, target **Error) bool {
	if ce, ok := err.(*Error); ok {
		*target = ce
		return true
	}
	return false
}
