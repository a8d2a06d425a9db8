package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"kafkatap/internal/api"
	"kafkatap/internal/client"
	"kafkatap/internal/signals"
	"kafkatap/internal/tap"
)

var version = "development"

type Config struct {
	Brokers      []string `mapstructure:"brokers"`
	Partition    int      `mapstructure:"partition"`
	Offset       string   `mapstructure:"offset"`
	Count        int64    `mapstructure:"count"`
	Exit         bool     `mapstructure:"exit"`
	Delimiter    string   `mapstructure:"delimiter"`
	KeyDelimiter string   `mapstructure:"key-delimiter"`
	PrintOffset  bool     `mapstructure:"print-offset"`
	Unbuffered   bool     `mapstructure:"unbuffered"`
	Quiet        bool     `mapstructure:"quiet"`
	Output       string   `mapstructure:"log-output"`
	StatusAddr   string   `mapstructure:"status-addr"`
	Properties   []string `mapstructure:"property"`
}

func main() {
	fs := pflag.NewFlagSet("kafkatap", pflag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: kafkatap [flags] <topic>\n\n")
		fs.PrintDefaults()
	}
	fs.StringSliceP("brokers", "b", []string{"localhost:9092"}, "Kafka broker addresses")
	fs.IntP("partition", "p", tap.PartitionAll, "Partition to consume (default: all partitions)")
	fs.StringP("offset", "o", "beginning", "Start offset: beginning, end, stored, N (absolute) or -N (from end)")
	fs.Int64P("count", "c", 0, "Stop after this many messages (0 = unlimited)")
	fs.BoolP("exit", "e", false, "Exit once all consumed partitions reach end-of-log")
	fs.StringP("delimiter", "d", "\\n", "Record delimiter byte (escapes: \\n \\t \\r \\0 \\\\ \\xNN)")
	fs.StringP("key-delimiter", "k", "\\t", "Key delimiter byte; giving this flag also turns on key printing")
	fs.BoolP("print-offset", "O", false, "Prefix each record with its offset")
	fs.BoolP("unbuffered", "u", false, "Do not buffer output")
	fs.CountP("verbose", "v", "Increase log verbosity (repeatable)")
	fs.BoolP("quiet", "q", false, "Only log errors")
	fs.StringArrayP("property", "X", nil, "Client property name=value (use -X list to show known names)")
	fs.String("status-addr", "", "Serve /metrics, /healthz and /statusz on this address (disabled when empty)")
	fs.String("log-output", "console", "Log output format [console, json]")
	versionFlag := fs.Bool("version", false, "Print version and exit")

	// Bind flags and environment variables
	viper.SetEnvPrefix("KAFKATAP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.BindPFlags(fs)
	viper.AutomaticEnv()

	err := fs.Parse(os.Args[1:])
	switch {
	case err == pflag.ErrHelp:
		os.Exit(0)
	case err != nil:
		fmt.Fprintf(os.Stderr, "Error: %s\n\n", err.Error())
		fs.PrintDefaults()
		os.Exit(2)
	case *versionFlag:
		fmt.Println(version)
		os.Exit(0)
	}

	var config Config
	if err = viper.Unmarshal(&config); err != nil {
		fmt.Fprintf(os.Stderr, "Config unmarshal failed: %s\n\n", err.Error())
		os.Exit(2)
	}

	// Setup logger
	verbosity, _ := fs.GetCount("verbose")
	level := zerolog.InfoLevel
	switch {
	case config.Quiet:
		level = zerolog.ErrorLevel
	case verbosity == 1:
		level = zerolog.DebugLevel
	case verbosity >= 2:
		level = zerolog.TraceLevel
	}
	zerolog.SetGlobalLevel(level)

	var logger zerolog.Logger
	if config.Output == "json" {
		logger = zerolog.New(os.Stderr)
	} else {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	logger = logger.With().
		Timestamp().
		Str("service", "kafkatap").
		Logger()

	// Client configuration, flags first, then raw property overrides.
	connectorConfig := client.ConnectorConfig{
		BrokerAddrs: config.Brokers,
		ClientID:    "kafkatap",
	}
	feedConfig := client.FeedConfig{
		GroupID: "kafkatap",
	}
	properties := client.Properties{
		Connector: &connectorConfig,
		Feed:      &feedConfig,
	}
	dump := false
	for _, property := range config.Properties {
		switch property {
		case "list", "help":
			for _, name := range client.KnownProperties() {
				fmt.Println(name)
			}
			os.Exit(0)
		case "dump":
			dump = true
			continue
		}
		if err := properties.Set(property); err != nil {
			logger.Fatal().Err(err).Msg("Invalid configuration property")
		}
	}

	runConfig, topic := buildRunConfig(fs, config, &logger)
	runConfig.Topic = topic

	if dump {
		fmt.Printf("%+v\n%+v\n%+v\n", runConfig, connectorConfig, feedConfig)
		os.Exit(0)
	}

	connector, err := client.NewConnector(connectorConfig)
	if err != nil {
		logger.Fatal().Err(err).Msg("Error creating client")
	}
	brokerAdmin, err := client.NewBrokerAdmin(connectorConfig)
	if err != nil {
		logger.Fatal().Err(err).Msg("Error creating metadata client")
	}
	feed := client.NewFeed(connector, feedConfig, &logger)

	var out io.Writer = os.Stdout
	flush := func() error { return nil }
	if !config.Unbuffered {
		buffered := bufio.NewWriter(os.Stdout)
		out = buffered
		flush = buffered.Flush
	}

	tp := tap.New(runConfig, brokerAdmin, feed, out, &logger)

	// Optional status/metrics server
	var httpServer *http.Server
	var healthy, ready *int32
	if config.StatusAddr != "" {
		srvConfig := api.Config{
			Addr:    config.StatusAddr,
			Service: "kafkatap",
		}
		srv, _ := api.NewServer(&srvConfig, tp.Status, &logger)
		httpServer, healthy, ready = srv.ListenAndServe()
	}

	// graceful shutdown
	stopCh := signals.SetupSignalHandler()
	sd, _ := signals.NewShutdown(5*time.Second, &logger)
	go sd.Graceful(stopCh, httpServer, tp, healthy, ready)

	err = tp.Run(context.Background())
	if ferr := flush(); err == nil && ferr != nil {
		err = ferr
	}
	if err != nil {
		logger.Fatal().Err(err).Msg("Consumption failed")
	}
}

// buildRunConfig validates the consumer-facing flags and returns the
// immutable run configuration plus the positional topic argument.
func buildRunConfig(fs *pflag.FlagSet, config Config, logger *zerolog.Logger) (tap.Config, string) {
	if fs.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Error: topic missing")
		fs.Usage()
		os.Exit(2)
	}
	topic := fs.Arg(0)

	if len(config.Brokers) == 0 {
		fmt.Fprintln(os.Stderr, "Error: broker list missing")
		fs.Usage()
		os.Exit(2)
	}

	delimiter, err := tap.ParseDelimiter(config.Delimiter)
	if err != nil {
		logger.Fatal().Err(err).Msg("Invalid record delimiter")
	}
	keyDelimiter, err := tap.ParseDelimiter(config.KeyDelimiter)
	if err != nil {
		logger.Fatal().Err(err).Msg("Invalid key delimiter")
	}

	offset, ok := tap.ParseOffset(config.Offset)
	if !ok {
		logger.Warn().
			Str("token", config.Offset).
			Str("offset", offset.String()).
			Msg("Malformed offset token, using best-effort value")
	}

	return tap.Config{
		Partition:    config.Partition,
		Offset:       offset,
		Count:        config.Count,
		ExitOnEOF:    config.Exit,
		Delimiter:    delimiter,
		KeyDelimiter: keyDelimiter,
		PrintOffset:  config.PrintOffset,
		PrintKey:     fs.Changed("key-delimiter"),
	}, topic
}
