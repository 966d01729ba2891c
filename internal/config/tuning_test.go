package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadTuningConfigPartialOverride(t *testing.T) {
	path := writeConfig(t, "tuning.json", `{"gate_radius_m": 5, "slip_speed_thresh_mph": 30}`)

	cfg, err := LoadTuningConfig(path)
	if err != nil {
		t.Fatalf("LoadTuningConfig: %v", err)
	}

	p := cfg.Pipeline()
	if p.GateRadiusM != 5 {
		t.Errorf("GateRadiusM = %g, want override 5", p.GateRadiusM)
	}
	if p.SlipSpeedThreshMPH != 30 {
		t.Errorf("SlipSpeedThreshMPH = %g, want override 30", p.SlipSpeedThreshMPH)
	}
	// Omitted fields keep their defaults.
	if p.PulsesPerRev != 128 {
		t.Errorf("PulsesPerRev = %g, want default 128", p.PulsesPerRev)
	}
	if p.HeadingAlpha != 0.10 {
		t.Errorf("HeadingAlpha = %g, want default 0.10", p.HeadingAlpha)
	}
}

func TestLoadTuningConfigEmptyIsDefaults(t *testing.T) {
	path := writeConfig(t, "tuning.json", `{}`)
	cfg, err := LoadTuningConfig(path)
	if err != nil {
		t.Fatalf("LoadTuningConfig: %v", err)
	}
	if got, want := cfg.Pipeline().MinLapTimeS, 5.0; got != want {
		t.Errorf("MinLapTimeS = %g, want %g", got, want)
	}
}

func TestLoadTuningConfigRejections(t *testing.T) {
	t.Run("wrong_extension", func(t *testing.T) {
		path := writeConfig(t, "tuning.yaml", `{}`)
		if _, err := LoadTuningConfig(path); err == nil {
			t.Error("expected rejection of non-json extension")
		}
	})

	t.Run("missing_file", func(t *testing.T) {
		if _, err := LoadTuningConfig(filepath.Join(t.TempDir(), "absent.json")); err == nil {
			t.Error("expected error for missing file")
		}
	})

	t.Run("malformed_json", func(t *testing.T) {
		path := writeConfig(t, "tuning.json", `{"gate_radius_m": `)
		if _, err := LoadTuningConfig(path); err == nil {
			t.Error("expected parse error")
		}
	})

	t.Run("invalid_values", func(t *testing.T) {
		path := writeConfig(t, "tuning.json", `{"heading_alpha": 1.5}`)
		if _, err := LoadTuningConfig(path); err == nil {
			t.Error("expected validation error for alpha out of range")
		}
	})

	t.Run("invalid_combined_with_defaults", func(t *testing.T) {
		path := writeConfig(t, "tuning.json", `{"gate_radius_m": -1}`)
		if _, err := LoadTuningConfig(path); err == nil {
			t.Error("expected validation error for negative radius")
		}
	})
}
