package gps

import (
	"bufio"
	"io"
	"strings"

	nmea "github.com/adrianmo/go-nmea"
)

// ParseLine parses one NMEA sentence. Only RMC sentences yield a fix; other
// sentence types and unparsable lines return ok=false. err is set only for
// lines that look like NMEA but fail to parse.
func ParseLine(line string) (f Fix, ok bool, err error) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "$") {
		return Fix{}, false, nil
	}

	sentence, err := nmea.Parse(line)
	if err != nil {
		return Fix{}, false, err
	}
	if sentence.DataType() != nmea.TypeRMC {
		return Fix{}, false, nil
	}

	m := sentence.(nmea.RMC)
	return Fix{
		Time:       m.Time.String(),
		Date:       m.Date.String(),
		Latitude:   m.Latitude,
		Longitude:  m.Longitude,
		SpeedKnots: m.Speed,
		CourseDeg:  m.Course,
		Validity:   m.Validity,
	}, true, nil
}

// Reader turns an NMEA byte stream into fixes.
type Reader struct {
	r *bufio.Reader

	// OnParseError, when set, sees sentences that failed to parse.
	OnParseError func(line string, err error)
}

func NewReader(r io.Reader) *Reader {
	return &Reader{r: bufio.NewReader(r)}
}

// Next blocks until the next RMC fix or a read error.
func (r *Reader) Next() (Fix, error) {
	for {
		line, err := r.r.ReadString('\n')
		if line != "" {
			f, ok, perr := ParseLine(line)
			if perr != nil && r.OnParseError != nil {
				r.OnParseError(strings.TrimSpace(line), perr)
			}
			if ok {
				return f, nil
			}
		}
		if err != nil {
			return Fix{}, err
		}
	}
}
