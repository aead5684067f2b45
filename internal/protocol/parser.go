// Package protocol decodes the statsd wire grammar:
//
//	name:value|type[|@rate]
//
// one sample per line, one or more lines per UDP datagram. Parsing never
// allocates a fresh sample for a malformed line; it returns a ParseError and
// resynchronizes at the next newline, exactly as evstatsd's read callback
// does, so a single garbled line in a batched datagram cannot sink the rest
// of the batch.
package protocol

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/cc-metrics/statsgod/internal/aggregate"
)

// ParseError reports why a single line was rejected. The offending line is
// preserved verbatim for logging.
type ParseError struct {
	Line   string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("statsd: %s: %q", e.Reason, e.Line)
}

// ParseDatagram splits a UDP payload into newline-terminated samples.
// Malformed lines are reported in errs but do not stop the remaining lines
// in the datagram from being parsed.
func ParseDatagram(data []byte) (samples []aggregate.Sample, errs []*ParseError) {
	text := string(data)
	for len(text) > 0 {
		var line string
		if i := strings.IndexByte(text, '\n'); i >= 0 {
			line, text = text[:i], text[i+1:]
		} else {
			line, text = text, ""
		}
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}
		s, err := parseLine(line)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		samples = append(samples, s)
	}
	return samples, errs
}

func parseLine(line string) (aggregate.Sample, error) {
	nameSep := strings.IndexByte(line, ':')
	if nameSep <= 0 {
		return aggregate.Sample{}, &ParseError{Line: line, Reason: "missing metric name or value"}
	}
	name := line[:nameSep]
	rest := line[nameSep+1:]

	fields := strings.Split(rest, "|")
	if len(fields) < 2 {
		return aggregate.Sample{}, &ParseError{Line: line, Reason: "missing type code"}
	}

	valueText := fields[0]
	if valueText == "" {
		return aggregate.Sample{}, &ParseError{Line: line, Reason: "empty value"}
	}

	typ, ok := aggregate.TypeFromCode(fields[1])
	if !ok {
		return aggregate.Sample{}, &ParseError{Line: line, Reason: fmt.Sprintf("unknown type code %q", fields[1])}
	}

	rate := 1.0
	if len(fields) >= 3 {
		if typ != aggregate.Counter && typ != aggregate.Timer {
			return aggregate.Sample{}, &ParseError{Line: line, Reason: "sample rate only valid for counters and timers"}
		}
		rateText, cut := strings.CutPrefix(fields[2], "@")
		if !cut {
			return aggregate.Sample{}, &ParseError{Line: line, Reason: "malformed sample rate"}
		}
		r, err := strconv.ParseFloat(rateText, 64)
		if err != nil || r <= 0 || r > 1 {
			return aggregate.Sample{}, &ParseError{Line: line, Reason: "malformed sample rate"}
		}
		rate = r
	}

	if typ == aggregate.Set {
		return aggregate.Sample{Name: name, Type: typ, Token: valueText}, nil
	}

	value, err := strconv.ParseFloat(valueText, 64)
	if err != nil {
		return aggregate.Sample{}, &ParseError{Line: line, Reason: "value is not numeric"}
	}

	s := aggregate.Sample{Name: name, Type: typ, Value: value, Rate: rate}
	if typ == aggregate.Gauge {
		switch valueText[0] {
		case '+':
			s.Signed, s.Sign = true, 1
		case '-':
			s.Signed, s.Sign = true, -1
		}
		if s.Signed {
			// value carries the "-" from ParseFloat already; Apply combines
			// Sign and the unsigned magnitude, so strip it here or a
			// negative delta would have its sign applied twice.
			s.Value = math.Abs(value)
		}
	}
	return s, nil
}
