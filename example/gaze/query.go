package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/swdee/go-gaze"
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Print the input and output tensors of the detection and gaze models",
	RunE: func(cmd *cobra.Command, args []string) error {

		cfg, err := pipelineConfig()

		if err != nil {
			return err
		}

		models := []struct {
			name   string
			path   string
			width  int
			height int
		}{
			{"detection", viper.GetString("models.detect"), cfg.DetectWidth, cfg.DetectHeight},
			{"gaze", viper.GetString("models.gaze"), cfg.GazeWidth, cfg.GazeHeight},
		}

		for _, m := range models {
			model, err := openModel(m.path, m.width, m.height)

			if err != nil {
				return fmt.Errorf("error loading %s model: %w", m.name, err)
			}

			fmt.Printf("%s model: %s\n", m.name, m.path)

			d, ok := model.(gaze.Describer)

			if ok {
				err = gaze.Query(os.Stdout, d)
			}

			model.Close()

			if err != nil {
				return fmt.Errorf("error querying %s model: %w", m.name, err)
			}
		}

		return nil
	},
}
