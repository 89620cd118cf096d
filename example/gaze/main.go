/*
Example code showing how to run face detection and gaze estimation on
camera streams and image files
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Version is the application version
const Version = "0.1.0"

var (
	// cfgFile is the config file given on the command line
	cfgFile string
	// log is the logger shared by subcommands
	log *logrus.Logger
)

var rootCmd = &cobra.Command{
	Use:     "gaze",
	Short:   "Face detection and gaze estimation on camera streams",
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {

		// a .env file is optional
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("error loading .env file: %w", err)
		}

		if err := loadConfig(cfgFile); err != nil {
			return err
		}

		var err error
		log, err = newLogger(viper.GetString("log.level"), viper.GetString("log.file"))

		return err
	},
	SilenceUsage: true,
}

func main() {
	// Create a context that listens for Ctrl+C (SIGINT) or Kill (SIGTERM)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()

	flags.StringVarP(&cfgFile, "config", "c", "", "Config file (default: ./gaze.yaml if present)")
	flags.String("backend", "onnx", "Inference backend, onnx or dnn")
	flags.String("detect-model", "../data/version-RFB-320.onnx", "UltraFace face detection model file")
	flags.String("gaze-model", "../data/eth-xgaze_resnet18.onnx", "Gaze estimation model file")
	flags.String("variant", "320", "UltraFace model variant, 320, 320-int8 or 640")
	flags.String("log-level", "info", "Log level")

	bindFlag("backend", flags.Lookup("backend"))
	bindFlag("models.detect", flags.Lookup("detect-model"))
	bindFlag("models.gaze", flags.Lookup("gaze-model"))
	bindFlag("variant", flags.Lookup("variant"))
	bindFlag("log.level", flags.Lookup("log-level"))

	rootCmd.AddCommand(runCmd, imageCmd, queryCmd)
}

// envKeyReplacer maps nested config keys to environment variable names,
// eg: models.detect is read from GAZE_MODELS_DETECT
var envKeyReplacer = strings.NewReplacer(".", "_", "-", "_")
