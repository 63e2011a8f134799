package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"
	"github.com/xeptore/flaw/v8"
	"gopkg.in/matryer/try.v1"

	"github.com/odklm/spotfetch/audio"
	"github.com/odklm/spotfetch/config"
	"github.com/odklm/spotfetch/constant"
	"github.com/odklm/spotfetch/errutil"
	"github.com/odklm/spotfetch/log"
	"github.com/odklm/spotfetch/must"
	"github.com/odklm/spotfetch/scrape"
	"github.com/odklm/spotfetch/spotify"
)

const flagConfigFilePath = "config"

func main() {
	logger := log.NewPretty(os.Stdout).Level(zerolog.TraceLevel)
	if err := godotenv.Load(); nil != err {
		if errors.Is(err, os.ErrNotExist) {
			logger.Warn().Msg(".env file was not found")
		} else {
			logger.Fatal().Err(err).Msg("Failed to load .env file")
		}
	}

	configFlag := &cli.StringFlag{ //nolint:exhaustruct
		Name:     flagConfigFilePath,
		Aliases:  []string{"c"},
		Usage:    "Config file path",
		Required: false,
	}

	//nolint:exhaustruct
	app := &cli.App{
		Name:     "spotfetch",
		Version:  constant.Version,
		Compiled: constant.CompileTime,
		Suggest:  true,
		Usage:    "Spotify playlist and track downloader",
		Commands: []*cli.Command{
			//nolint:exhaustruct
			{
				Name:      "playlist",
				Aliases:   []string{"p"},
				Usage:     "Download every track of a playlist",
				ArgsUsage: "<link>",
				Action:    runPlaylist,
				Flags:     []cli.Flag{configFlag},
			},
			//nolint:exhaustruct
			{
				Name:      "track",
				Aliases:   []string{"t"},
				Usage:     "Download a single track",
				ArgsUsage: "<link>",
				Action:    runTrack,
				Flags:     []cli.Flag{configFlag},
			},
			//nolint:exhaustruct
			{
				Name:      "validate",
				Aliases:   []string{"v"},
				Usage:     "Check whether a playlist link points to an accessible playlist",
				ArgsUsage: "<link>",
				Action:    runValidate,
			},
		},
	}

	if err := app.Run(os.Args); nil != err {
		if errors.Is(err, context.Canceled) {
			logger.Trace().Msg("Application was canceled")
			return
		}
		if flawErr := new(flaw.Flaw); errors.As(err, &flawErr) {
			if b, dumpErr := errutil.FlawToYAML(flawErr); nil == dumpErr {
				if f, tmpErr := os.CreateTemp("", "spotfetch-flaw-*.yaml"); nil == tmpErr {
					_, _ = f.Write(b)
					_ = f.Close()
					logger.Error().Str("dump_file_path", f.Name()).Msg("Failure details were dumped to a file")
				}
			}
			logger.Fatal().Func(log.Flaw(flawErr)).Msg("Application exited with flaw")
			return
		}
		logger.Fatal().Err(err).Msg("Application exited with error")
	}
}

func loadConfig(cliCtx *cli.Context, logger zerolog.Logger) (*config.Config, error) {
	cfgEnv := os.Getenv("CONFIG")
	cfgFilePath := cliCtx.String(flagConfigFilePath)
	switch {
	case cfgFilePath != "" && cfgEnv != "":
		return nil, errors.New("config file path and config environment variable are both set. specify only one")
	case cfgFilePath == "" && cfgEnv == "":
		return nil, errors.New("config file path and config environment variable are both empty. specify one")
	case cfgFilePath != "":
		logger.Debug().Str("config_file_path", cfgFilePath).Msg("Loading config from file")
		cfg, err := config.FromFile(cfgFilePath)
		if nil != err {
			return nil, fmt.Errorf("failed to load config file: %v", err)
		}
		return cfg, nil
	default:
		logger.Debug().Msg("Loading config from environment variable")
		cfg, err := config.FromString(cfgEnv)
		if nil != err {
			return nil, fmt.Errorf("failed to load config from environment variable: %v", err)
		}
		return cfg, nil
	}
}

func linkArg(cliCtx *cli.Context) (string, error) {
	link := cliCtx.Args().First()
	if link == "" {
		return "", errors.New("link argument is required")
	}
	return link, nil
}

func newScraper(logger zerolog.Logger, cfg *config.Config, events scrape.Events) *scrape.Scraper {
	client := spotify.NewClient(logger, spotify.Options{}) //nolint:exhaustruct
	resolver := audio.NewYTDLP(logger, cfg.YTDLPPath)
	return scrape.New(logger, client, resolver, events, cfg.MusicDir, cfg.SpacesAllowed())
}

func runPlaylist(cliCtx *cli.Context) error {
	return runScrape(cliCtx, func(ctx context.Context, s *scrape.Scraper, link string) (scrape.Summary, error) {
		return s.Playlist(ctx, link)
	})
}

func runTrack(cliCtx *cli.Context) error {
	return runScrape(cliCtx, func(ctx context.Context, s *scrape.Scraper, link string) (scrape.Summary, error) {
		return s.Track(ctx, link)
	})
}

func runScrape(cliCtx *cli.Context, do func(ctx context.Context, s *scrape.Scraper, link string) (scrape.Summary, error)) error {
	ctx, cancel := signal.NotifyContext(cliCtx.Context, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := log.NewPretty(os.Stdout).Level(zerolog.TraceLevel)
	defer func() {
		if r := recover(); nil != r {
			logger.Fatal().Func(log.Panic(r)).Msg("Unexpected panic")
		}
	}()
	cfg, err := loadConfig(cliCtx, logger)
	if nil != err {
		return err
	}
	link, err := linkArg(cliCtx)
	if nil != err {
		return err
	}

	scraper := newScraper(logger, cfg, &logEvents{logger: logger})

	var summary scrape.Summary
	err = try.Do(func(attempt int) (retry bool, err error) {
		const maxAttempts = 3
		attemptRemained := attempt < maxAttempts
		time.Sleep(time.Duration(attempt-1) * 3 * time.Second)
		s, err := do(ctx, scraper, link)
		if nil != err {
			_, isSentinel := errutil.IsAny(err, spotify.ErrInvalidLink, spotify.ErrAccessDenied, spotify.ErrMalformedPage, spotify.ErrNotFound, audio.ErrUnavailable)
			switch {
			case errutil.IsContext(ctx):
				return false, err
			case errors.Is(err, context.DeadlineExceeded):
				return attemptRemained, context.DeadlineExceeded
			case errors.Is(err, spotify.ErrRateLimited), errors.Is(err, audio.ErrRateLimited):
				return attemptRemained, err
			case isSentinel:
				return false, err
			case errutil.IsFlaw(err):
				return false, must.BeFlaw(err).Append(flaw.P{"link": link})
			default:
				panic(errutil.UnknownError(err))
			}
		}
		summary = s
		return false, nil
	})
	if nil != err {
		return err
	}

	logger.
		Info().
		Int("succeeded", summary.Succeeded).
		Int("failed", summary.Failed).
		Strs("failed_titles", summary.FailedTitles).
		Msg("Scrape finished")
	if summary.Failed > 0 {
		return fmt.Errorf("%d of %d tracks failed to download", summary.Failed, summary.Succeeded+summary.Failed)
	}
	return nil
}

func runValidate(cliCtx *cli.Context) error {
	ctx, cancel := signal.NotifyContext(cliCtx.Context, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := log.NewPretty(os.Stdout).Level(zerolog.TraceLevel)
	link, err := linkArg(cliCtx)
	if nil != err {
		return err
	}

	kind, id, err := spotify.Classify(link)
	if nil != err {
		return err
	}
	if kind != spotify.KindPlaylist {
		return fmt.Errorf("expected a playlist link, got a %s link", kind)
	}

	client := spotify.NewClient(logger, spotify.Options{}) //nolint:exhaustruct
	if !client.ValidatePlaylist(ctx, id) {
		return errors.New("playlist does not exist or is not accessible")
	}
	logger.Info().Str("playlist_id", id).Msg("Playlist exists and is accessible")
	return nil
}

// logEvents renders scrape progress through the process logger.
type logEvents struct {
	logger zerolog.Logger
}

func (e *logEvents) TrackStarted(meta scrape.TrackMeta) {
	e.logger.Info().Str("title", meta.Title).Str("artists", meta.Artists).Msg("Downloading track")
}

func (e *logEvents) TrackFinished(meta scrape.TrackMeta, alreadyExisted bool) {
	if alreadyExisted {
		e.logger.Info().Str("title", meta.Title).Str("file", meta.File).Msg("Track file already exists, skipped")
		return
	}
	e.logger.Info().Str("title", meta.Title).Str("file", meta.File).Msg("Track downloaded")
}

func (e *logEvents) Progress(percent int) {
	e.logger.Info().Int("percent", percent).Msg("Playlist progress")
}

func (e *logEvents) Done(summary scrape.Summary) {
	e.logger.
		Debug().
		Int("succeeded", summary.Succeeded).
		Int("failed", summary.Failed).
		Msg("Scrape run complete")
}
