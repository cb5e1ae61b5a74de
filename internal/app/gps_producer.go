package app

import (
	"errors"
	"io"

	serial "github.com/jacobsa/go-serial/serial"
	"go.uber.org/zap"

	"github.com/relabs-tech/compass_camera/internal/gps"
)

// RunGPSProducer reads NMEA from the GPS serial port and publishes every RMC
// fix to the GPS topic. The course over ground is a reference readout only;
// it is not fused with the magnetic heading.
func RunGPSProducer() error {
	cfg, logger, err := setup("gps")
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	client, err := connectMQTT(cfg.MQTT.Broker, cfg.MQTT.ClientIDGPS, logger)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	serialOpts := serial.OpenOptions{
		PortName:              cfg.GPS.SerialPort,
		BaudRate:              cfg.GPS.BaudRate,
		DataBits:              8,
		StopBits:              1,
		MinimumReadSize:       1,
		ParityMode:            serial.PARITY_NONE,
		InterCharacterTimeout: 0,
	}
	port, err := serial.Open(serialOpts)
	if err != nil {
		return err
	}
	defer port.Close()
	logger.Infof("GPS serial port opened on %s at %d baud", serialOpts.PortName, serialOpts.BaudRate)

	return publishFixes(gps.NewReader(port), client, cfg.Topics.GPS, logger)
}

// publishFixes forwards fixes from r until the stream ends.
func publishFixes(r *gps.Reader, client publisher, topic string, logger *zap.SugaredLogger) error {
	r.OnParseError = func(line string, err error) {
		logger.Debugw("NMEA parse error", "line", line, "error", err)
	}
	for {
		f, err := r.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := publishJSON(client, topic, f, true); err != nil {
			logger.Warnw("GPS publish error", "error", err)
			continue
		}
		logger.Debugw("published GPS fix", "course", f.CourseDeg, "cardinal", f.CourseCardinal(), "validity", f.Validity)
	}
}
