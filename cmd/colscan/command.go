package main

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/influxdata/colstore/filter"
	"github.com/influxdata/colstore/granularity"
	"github.com/influxdata/colstore/kit/cli"
	"github.com/influxdata/colstore/kit/platform/errors"
	"github.com/influxdata/colstore/kit/prom"
	"github.com/influxdata/colstore/logger"
	"github.com/influxdata/colstore/query/aggregation"
	"github.com/influxdata/colstore/query/timeseries"
	"github.com/influxdata/colstore/segment"
	"github.com/influxdata/colstore/storage"
	"github.com/opentracing/opentracing-go"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/uber/jaeger-client-go"
	jaegerzap "github.com/uber/jaeger-client-go/log/zap"
	"go.uber.org/zap"
)

// Command represents the program execution for "colscan".
type Command struct {
	Stdout io.Writer
	Stderr io.Writer

	ctx context.Context

	configPath   string
	file         string
	precision    time.Duration
	filter       string
	granularity  string
	start        string
	end          string
	aggregations []string
	logLevel     string
	logFormat    string
	metrics      bool
	trace        bool
}

// NewCommand returns the cobra command running colscan.
func NewCommand(ctx context.Context, stdout, stderr io.Writer) *cobra.Command {
	c := &Command{
		Stdout: stdout,
		Stderr: stderr,
		ctx:    ctx,
	}
	cmd := cli.NewCommand(viper.New(), &cli.Program{
		Run:   c.Run,
		Name:  "colscan",
		Short: "Aggregate line protocol into time buckets",
		Opts: []cli.Opt{
			cli.NewOpt(&c.configPath, "config", "", "path to a TOML configuration file"),
			cli.NewOpt(&c.file, "file", "", "line protocol file to load"),
			cli.NewOpt(&c.precision, "precision", time.Nanosecond, "precision of the line protocol timestamps"),
			cli.NewOpt(&c.filter, "filter", "", "InfluxQL condition on tags, e.g. \"host = 'a'\""),
			cli.NewOpt(&c.granularity, "granularity", "all", "bucket width: a name such as hour or day, or a duration"),
			cli.NewOpt(&c.start, "start", "", "RFC3339 start of the query interval"),
			cli.NewOpt(&c.end, "end", "", "RFC3339 end of the query interval (exclusive)"),
			cli.NewOpt(&c.aggregations, "agg", []string{"count:rows"}, "aggregation as type:name[:field] or type:name:=expression"),
			cli.NewOpt(&c.logLevel, "log-level", "", "log level, overrides the configuration file"),
			cli.NewOpt(&c.logFormat, "log-format", "", "log format, overrides the configuration file"),
			cli.NewOpt(&c.metrics, "metrics", false, "print the storage and query metrics after the results"),
			cli.NewOpt(&c.trace, "trace", false, "trace the query and log its spans at info level"),
		},
	})
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	return cmd
}

// Run executes the command.
func (c *Command) Run() error {
	config := NewConfig()
	if c.configPath != "" {
		if err := config.FromTomlFile(c.configPath); err != nil {
			return err
		}
	}
	if c.logLevel != "" {
		if err := config.Logging.Level.Set(c.logLevel); err != nil {
			return err
		}
	}
	if c.logFormat != "" {
		config.Logging.Format = c.logFormat
	}

	log, err := config.Logging.New(c.Stderr)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	if c.trace {
		defer setupTracing(log)()
	}

	q, err := c.query(config.Query.NullHandling())
	if err != nil {
		return err
	}

	if c.file == "" {
		return &errors.Error{Code: errors.EInvalid, Op: "colscan", Msg: "no line protocol file given"}
	}
	f, err := os.Open(c.file)
	if err != nil {
		return err
	}
	defer f.Close()

	start := time.Now()
	idx, err := segment.LoadLineProtocol(f, c.precision)
	if err != nil {
		return err
	}
	log.Info("Loaded segment",
		zap.String("path", c.file),
		zap.Int("rows", idx.NumRows()),
		zap.Strings("dimensions", idx.AvailableDimensions()),
		zap.Duration("elapsed", time.Since(start)))

	adapter := storage.NewStorageAdapter(idx, storage.WithLogger(log))
	engine := timeseries.NewEngine(adapter, config.Query, timeseries.WithLogger(log))
	ctx := logger.NewContextWithLogger(c.ctx, log.With(zap.String("query", fmt.Sprintf("%016x", q.Digest()))))
	results, err := engine.Run(ctx, q)
	if err != nil {
		return err
	}

	if err := c.printResults(q, results); err != nil {
		return err
	}
	fmt.Fprintf(c.Stdout, "\n%s rows, %s buckets, %s of aggregation state per bucket\n",
		humanize.Comma(int64(adapter.NumRows())),
		humanize.Comma(int64(len(results))),
		humanize.Bytes(uint64(q.MaxIntermediateSize())))

	if c.metrics {
		reg := prom.NewRegistry(log)
		reg.MustRegisterCollectors(
			prom.CollectorFunc(storage.PrometheusCollectors),
			prom.CollectorFunc(timeseries.PrometheusCollectors),
		)
		fmt.Fprintln(c.Stdout)
		return reg.WriteText(c.Stdout)
	}
	return nil
}

// setupTracing installs a Jaeger tracer reporting finished spans to log and
// returns the function restoring the previous global tracer.
func setupTracing(log *zap.Logger) func() {
	old := opentracing.GlobalTracer()
	tracer, closer := jaeger.NewTracer("colscan",
		jaeger.NewConstSampler(true),
		jaeger.NewLoggingReporter(jaegerzap.NewLogger(log.With(zap.String("service", "tracing")))),
	)
	opentracing.SetGlobalTracer(tracer)
	return func() {
		_ = closer.Close()
		opentracing.SetGlobalTracer(old)
	}
}

func (c *Command) query(nulls aggregation.NullHandling) (timeseries.Query, error) {
	q := timeseries.Query{Interval: granularity.Eternity}

	if c.filter != "" {
		f, err := filter.Parse(c.filter)
		if err != nil {
			return q, err
		}
		q.Filter = f
	}

	gran, err := granularity.Parse(c.granularity)
	if err != nil {
		return q, err
	}
	q.Granularity = gran

	if q.Interval.Start, err = parseTime(c.start, math.MinInt64); err != nil {
		return q, err
	}
	if q.Interval.End, err = parseTime(c.end, math.MaxInt64); err != nil {
		return q, err
	}

	for _, s := range c.aggregations {
		spec, err := parseAggregation(s)
		if err != nil {
			return q, err
		}
		agg, err := aggregation.New(spec, nulls)
		if err != nil {
			return q, err
		}
		q.Aggregations = append(q.Aggregations, agg)
	}
	return q, nil
}

// parseTime returns s as milliseconds since the epoch, or dflt when s is
// empty.
func parseTime(s string, dflt int64) (int64, error) {
	if s == "" {
		return dflt, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return 0, &errors.Error{Code: errors.EInvalid, Op: "colscan", Msg: "invalid time " + s, Err: err}
	}
	return t.UnixMilli(), nil
}

// parseAggregation parses type:name, type:name:field and
// type:name:=expression.
func parseAggregation(s string) (aggregation.Spec, error) {
	parts := strings.SplitN(s, ":", 3)
	if len(parts) < 2 {
		return aggregation.Spec{}, errors.Errorf(errors.EInvalid, "colscan", "invalid aggregation %q", s)
	}
	spec := aggregation.Spec{Type: parts[0], Name: parts[1]}
	if len(parts) == 3 {
		if expr, ok := strings.CutPrefix(parts[2], "="); ok {
			spec.Expression = expr
		} else {
			spec.FieldName = parts[2]
		}
	}
	return spec, nil
}

func (c *Command) printResults(q timeseries.Query, results []timeseries.Result) error {
	names := make([]string, 0, len(q.Aggregations))
	for _, agg := range q.Aggregations {
		names = append(names, agg.Name())
	}
	sort.Strings(names)

	tw := tabwriter.NewWriter(c.Stdout, 8, 8, 1, '\t', 0)
	fmt.Fprintln(tw, strings.Join(append([]string{"time"}, names...), "\t"))
	for _, r := range results {
		row := []string{formatTime(r.Time)}
		for _, name := range names {
			v := r.Values[name]
			if v == nil {
				row = append(row, "null")
				continue
			}
			row = append(row, fmt.Sprint(v))
		}
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}

func formatTime(ms int64) string {
	if ms == math.MinInt64 {
		return "-inf"
	}
	return time.UnixMilli(ms).UTC().Format(time.RFC3339Nano)
}
