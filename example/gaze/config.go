package main

import (
	"errors"
	"fmt"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/swdee/go-gaze/pipeline"
	"github.com/swdee/go-gaze/postprocess"
)

// bindFlag binds a command line flag to a config key
func bindFlag(key string, flag *pflag.Flag) {
	if err := viper.BindPFlag(key, flag); err != nil {
		panic(fmt.Sprintf("error binding flag %s: %v", flag.Name, err))
	}
}

// loadConfig reads the config file and environment, the config file is
// optional unless one is named explicitly
func loadConfig(file string) error {

	viper.SetDefault("onnx.library", "")
	viper.SetDefault("onnx.intra_op_threads", 0)
	viper.SetDefault("onnx.inter_op_threads", 0)
	viper.SetDefault("dnn.backend", "")
	viper.SetDefault("dnn.target", "")
	viper.SetDefault("cameras", []string{"0"})
	viper.SetDefault("fps", 30)
	viper.SetDefault("max_read_errors", 10)
	viper.SetDefault("capture.width", 0)
	viper.SetDefault("capture.height", 0)
	viper.SetDefault("capture.keep_source", true)
	viper.SetDefault("publish.addr", "")
	viper.SetDefault("cpu_cores", []int{})

	viper.SetEnvPrefix("GAZE")
	viper.SetEnvKeyReplacer(envKeyReplacer)
	viper.AutomaticEnv()

	if file != "" {
		viper.SetConfigFile(file)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName("gaze")
		viper.SetConfigType("yaml")
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError

		if file != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	return nil
}

// pipelineConfig returns the pipeline settings for the configured UltraFace
// variant with any overrides from the pipeline section applied
func pipelineConfig() (pipeline.Config, error) {

	variant, err := postprocess.ParseUltraFaceVariant(viper.GetString("variant"))

	if err != nil {
		return pipeline.Config{}, err
	}

	cfg := pipeline.ConfigForVariant(variant)

	if err := viper.UnmarshalKey("pipeline", &cfg); err != nil {
		return cfg, fmt.Errorf("error decoding pipeline config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid pipeline config: %w", err)
	}

	return cfg, nil
}
