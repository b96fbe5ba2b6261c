package segment

import (
	"io"
	"time"

	protocol "github.com/influxdata/line-protocol"
	"github.com/pkg/errors"
)

// LoadLineProtocol reads points in line protocol from r and builds an
// in-memory segment. Tags become dictionary encoded dimensions, fields
// become metric columns and the measurement name is stored in the
// "_measurement" dimension. Timestamps are truncated to milliseconds.
func LoadLineProtocol(r io.Reader, precision time.Duration) (*MemIndex, error) {
	buf, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "reading line protocol")
	}

	handler := protocol.NewMetricHandler()
	handler.SetTimePrecision(precision)
	parser := protocol.NewParser(handler)
	metrics, err := parser.Parse(buf)
	if err != nil {
		return nil, errors.Wrap(err, "parsing line protocol")
	}

	b := NewBuilder()
	for _, m := range metrics {
		row := Row{
			Timestamp:  m.Time().UnixNano() / int64(time.Millisecond),
			Dimensions: map[string][]string{"_measurement": {m.Name()}},
			Metrics:    make(map[string]interface{}, len(m.FieldList())),
		}
		for _, tag := range m.TagList() {
			row.Dimensions[tag.Key] = []string{tag.Value}
		}
		for _, field := range m.FieldList() {
			row.Metrics[field.Key] = field.Value
		}
		b.Add(row)
	}
	return b.Build()
}
