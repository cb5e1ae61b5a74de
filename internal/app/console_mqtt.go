package app

import (
	"fmt"
	"io"
	"os"

	"github.com/relabs-tech/compass_camera/internal/gps"
	"github.com/relabs-tech/compass_camera/internal/imu"
)

// RunConsoleMQTT prints heading reports and GPS fixes as they arrive on MQTT.
func RunConsoleMQTT() error {
	cfg, logger, err := setup("console")
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	client, err := connectMQTT(cfg.MQTT.Broker, cfg.MQTT.ClientIDConsole, logger)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	var out io.Writer = os.Stdout

	if err := subscribeJSON(client, cfg.Topics.Heading, logger, func(r imu.HeadingReport) {
		fmt.Fprintln(out, formatReport(r))
	}); err != nil {
		return err
	}
	if err := subscribeJSON(client, cfg.Topics.GPS, logger, func(f gps.Fix) {
		fmt.Fprintln(out, formatFix(f))
	}); err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()
	<-ctx.Done()

	logger.Info("console shutting down")
	return nil
}

func formatReport(r imu.HeadingReport) string {
	valid := ""
	if !r.Valid {
		valid = " (degenerate)"
	}
	return fmt.Sprintf("[HEAD] %3d° %-5s%s  %s", r.Degrees, r.Cardinal, valid, r.Time)
}

func formatFix(f gps.Fix) string {
	return fmt.Sprintf(
		"[GPS ] time=%s date=%s lat=%.6f lon=%.6f speed=%.1fkn course=%.1f° validity=%s",
		f.Time, f.Date, f.Latitude, f.Longitude, f.SpeedKnots, f.CourseDeg, f.Validity,
	)
}
