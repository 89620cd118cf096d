package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
)

func TestLoadConfig(t *testing.T) {

	viper.Reset()
	defer viper.Reset()

	file := filepath.Join(t.TempDir(), "gaze.yaml")

	data := []byte(`
variant: "640"
backend: dnn
pipeline:
  min_confidence: 0.8
`)

	if err := os.WriteFile(file, data, 0644); err != nil {
		t.Fatalf("error writing config: %v", err)
	}

	if err := loadConfig(file); err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}

	if viper.GetString("backend") != "dnn" || viper.GetFloat64("fps") != 30 {
		t.Errorf("unexpected backend %q or fps %v", viper.GetString("backend"), viper.GetFloat64("fps"))
	}

	cfg, err := pipelineConfig()

	if err != nil {
		t.Fatalf("pipelineConfig failed: %v", err)
	}

	if cfg.DetectWidth != 640 || cfg.DetectHeight != 480 || cfg.NumPriors != 17640 {
		t.Errorf("expected 640 variant, got %+v", cfg)
	}

	if cfg.MinConfidence != 0.8 || cfg.MaxIoU != 0.5 {
		t.Errorf("unexpected thresholds %f %f", cfg.MinConfidence, cfg.MaxIoU)
	}

	if cfg.GazeWidth != 224 || cfg.GazeHeight != 224 {
		t.Errorf("unexpected gaze size %dx%d", cfg.GazeWidth, cfg.GazeHeight)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {

	viper.Reset()
	defer viper.Reset()

	if err := loadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Errorf("expected error for missing named config file")
	}
}

func TestPipelineConfigErrors(t *testing.T) {

	viper.Reset()
	defer viper.Reset()

	viper.Set("variant", "1080")

	if _, err := pipelineConfig(); err == nil {
		t.Errorf("expected error for unknown variant")
	}

	viper.Set("variant", "320")
	viper.Set("pipeline", map[string]interface{}{"gaze_width": 0})

	if _, err := pipelineConfig(); err == nil {
		t.Errorf("expected error for zero gaze width")
	}
}

func TestNewLogger(t *testing.T) {

	if _, err := newLogger("verbose", ""); err == nil {
		t.Errorf("expected error for unknown log level")
	}

	file := filepath.Join(t.TempDir(), "gaze.log")
	logger, err := newLogger("debug", file)

	if err != nil {
		t.Fatalf("newLogger failed: %v", err)
	}

	logger.Info("hello")

	if _, err := os.Stat(file); err != nil {
		t.Errorf("expected log file written: %v", err)
	}
}
