package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/minolabo/radirec/internal/config"
	"github.com/minolabo/radirec/internal/record"
)

func main() {
	// Command line flags
	var (
		urlFlag      = flag.String("url", "", "Program URL (http://radiko.jp/#!/ts/<station>/<start> or ?sid=&t= form)")
		stationFlag  = flag.String("station", "", "Station id (used with -start and -duration)")
		startFlag    = flag.String("start", "", "Start timestamp, YYYYMMDDhhmm or YYYYMMDDhhmmss")
		durationFlag = flag.Int("duration", 0, "Recording length in minutes")
		outputFlag   = flag.String("output", "", "Output directory (overrides config)")
		templateFlag = flag.String("template", "", "File name template (overrides config)")
		mailFlag     = flag.String("mail", "", "Premium account mail (overrides config)")
		passFlag     = flag.String("pass", "", "Premium account password (overrides config)")
		ffmpegFlag   = flag.String("ffmpeg", "", "Path to the ffmpeg binary (overrides config)")
		configFlag   = flag.String("config", config.DefaultFile, "Path to config file")
		imageFlag    = flag.Bool("image", false, "Save the program image next to the recording")
		saveFlag     = flag.Bool("save-config", false, "Write the effective settings back to the config file")
		verboseFlag  = flag.Bool("verbose", false, "Show verbose output")
		dryRunFlag   = flag.Bool("dry-run", false, "Resolve the recording window without recording")
	)

	flag.Parse()

	// CLI mode - require a program selector
	if *urlFlag == "" && *stationFlag == "" && flag.NArg() == 0 {
		fmt.Println("radirec - Record time-free radiko programs")
		fmt.Println()
		fmt.Println("Usage:")
		fmt.Println("  radirec -url <URL> [options]")
		fmt.Println("  radirec -station <ID> -start <YYYYMMDDhhmm> -duration <minutes> [options]")
		fmt.Println("  radirec <URL> [options]")
		fmt.Println()
		fmt.Println("For interactive mode, use: radirec-tui")
		fmt.Println()
		flag.PrintDefaults()
		os.Exit(1)
	}

	// Load config
	settings, err := config.Load(*configFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	// Apply flags
	if *outputFlag != "" {
		settings.OutputDir = *outputFlag
	}
	if *templateFlag != "" {
		settings.Template = *templateFlag
	}
	if *mailFlag != "" {
		settings.Mail = *mailFlag
	}
	if *passFlag != "" {
		settings.Password = *passFlag
	}
	if *ffmpegFlag != "" {
		settings.FFmpegPath = *ffmpegFlag
	}
	if *imageFlag {
		settings.SaveProgramImage = true
	}

	if *saveFlag {
		if err := settings.Save(*configFlag); err != nil {
			fmt.Fprintf(os.Stderr, "Error saving config: %v\n", err)
			os.Exit(1)
		}
	}

	input := record.Input{
		ProgramURL:  *urlFlag,
		StationID:   *stationFlag,
		Start:       *startFlag,
		DurationMin: *durationFlag,
	}
	if input.ProgramURL == "" && input.StationID == "" && flag.NArg() > 0 {
		input.ProgramURL = flag.Arg(0)
	}

	// Handle interrupts
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Println("\nInterrupted, cancelling...")
		cancel()
	}()

	logLevel := zerolog.WarnLevel
	if *verboseFlag {
		logLevel = zerolog.DebugLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(logLevel).With().Timestamp().Logger()

	// Create job with progress callback
	job := record.NewJob(settings, log, func(event record.ProgressEvent) {
		if event.Level == record.LevelVerbose && !*verboseFlag {
			return
		}

		prefix := ""
		switch event.Level {
		case record.LevelError:
			prefix = "x "
		case record.LevelWarning:
			prefix = "! "
		case record.LevelSuccess:
			prefix = "+ "
		case record.LevelInfo:
			prefix = "> "
		default:
			prefix = "  "
		}

		fmt.Println(prefix + event.Message)
	})

	if *dryRunFlag {
		w, err := job.ResolveWindow(input)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error resolving window: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("[Dry run] %s %s - %s (%d seconds)\n", w.StationID, w.FromTimestamp(), w.ToTimestamp(), w.Seconds())
		return
	}

	outPath, err := job.Run(ctx, input)
	if err != nil {
		if ctx.Err() != nil || errors.Is(err, context.Canceled) {
			fmt.Println("\nRecording cancelled.")
			os.Exit(130)
		}
		fmt.Fprintf(os.Stderr, "Error during recording: %v\n", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Printf("Complete! Saved to %s\n", outPath)
}
