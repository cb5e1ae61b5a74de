package app

import (
	"fmt"
	"io"
	"os"

	"github.com/relabs-tech/compass_camera/internal/config"
	"github.com/relabs-tech/compass_camera/internal/preview"
)

// RunPreview prints the preview size the camera would use for screen, given
// as "WIDTHxHEIGHT". An empty screen uses camera.screen from the config.
func RunPreview(screen string) error {
	cfg, logger, err := setup("preview")
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	return printPreview(os.Stdout, cfg.Camera, screen)
}

func printPreview(w io.Writer, camera config.CameraConfig, screen string) error {
	s := camera.Screen
	if screen != "" {
		var err error
		if s, err = preview.ParseSize(screen); err != nil {
			return err
		}
	}

	chosen := camera.PreviewSize(s)
	_, err := fmt.Fprintf(w, "preview %s (screen %s, portrait=%t, %d candidates)\n",
		chosen, preview.Landscape(s), camera.Portrait, len(camera.SupportedSizes))
	return err
}
