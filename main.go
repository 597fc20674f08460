package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/jilund/wyoming-microsoft-tts/config"
	"github.com/jilund/wyoming-microsoft-tts/voice"
)

func newInterruptContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	c := make(chan os.Signal, 2)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case <-c:
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(c)
	}()

	return ctx, cancel
}

type flags struct {
	configPath      string
	provider        string
	subscriptionKey string
	serviceRegion   string
	voice           string
	outputFormat    string
	outputDir       string
	voicesDir       string
	logLevel        string
}

func main() {
	ctx, cancel := newInterruptContext(context.Background())
	defer cancel()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var f flags
	var cfg *config.Config

	root := &cobra.Command{
		Use:           "wyoming-microsoft-tts",
		Short:         "Synthesize speech with Microsoft Azure text to speech",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load(f.configPath)
			if err != nil {
				return err
			}
			applyFlags(cmd, &f, loaded)
			if err := setupLogging(loaded.LogLevel, loaded.LogFormat); err != nil {
				return err
			}
			cfg = loaded
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&f.configPath, "config", "", "path to a YAML config file")
	pf.StringVar(&f.provider, "provider", "", "speech provider (microsoft, elevenlabs)")
	pf.StringVar(&f.subscriptionKey, "subscription-key", "", "Azure speech subscription key")
	pf.StringVar(&f.serviceRegion, "service-region", "", "Azure speech region")
	pf.StringVar(&f.voice, "voice", "", "default voice")
	pf.StringVar(&f.outputFormat, "output-format", "", "output audio format")
	pf.StringVar(&f.outputDir, "output-dir", "", "directory for synthesized audio")
	pf.StringVar(&f.voicesDir, "download-dir", "", "directory for the downloaded voices.json")
	pf.StringVar(&f.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	root.AddCommand(
		newSynthesizeCommand(func() *config.Config { return cfg }),
		newVoicesCommand(func() *config.Config { return cfg }),
		newFormatsCommand(),
	)
	return root
}

func applyFlags(cmd *cobra.Command, f *flags, cfg *config.Config) {
	set := func(name string, dst *string, v string) {
		if cmd.Flags().Changed(name) {
			*dst = v
		}
	}
	set("provider", &cfg.Provider, f.provider)
	set("subscription-key", &cfg.SubscriptionKey, f.subscriptionKey)
	set("service-region", &cfg.ServiceRegion, f.serviceRegion)
	set("voice", &cfg.Voice, f.voice)
	set("output-format", &cfg.OutputFormat, f.outputFormat)
	set("output-dir", &cfg.OutputDir, f.outputDir)
	set("download-dir", &cfg.VoicesDir, f.voicesDir)
	set("log-level", &cfg.LogLevel, f.logLevel)
}

func setupLogging(level, format string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level; %w", err)
	}
	logrus.SetLevel(lvl)
	if strings.EqualFold(format, "json") {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	logrus.SetOutput(os.Stderr)
	return nil
}

func newSynthesizeCommand(cfg func() *config.Config) *cobra.Command {
	var (
		voiceName string
		format    string
		upload    bool
	)

	cmd := &cobra.Command{
		Use:   "synthesize [text...]",
		Short: "Synthesize text (or stdin) to an audio file and print its path",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := cfg()

			text := strings.Join(args, " ")
			if len(args) == 0 {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("failed to read stdin; %w", err)
				}
				text = string(data)
			}

			synth, err := c.NewSynthesizer()
			if err != nil {
				return err
			}

			opts := []voice.CallOption{voice.WithVoice(voiceName)}
			if format != "" {
				f, err := voice.ParseOutputFormat(format)
				if err != nil {
					return err
				}
				opts = append(opts, voice.WithFormat(f))
			}

			path, err := synth.Synthesize(cmd.Context(), text, opts...)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)

			if upload {
				if !c.S3.Configured() {
					return fmt.Errorf("upload requested but s3 is not configured")
				}
				url, err := c.S3.UploadFile(path)
				if err != nil {
					return fmt.Errorf("failed to upload audio; %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), url)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&voiceName, "speaker", "", "voice for this call (overrides --voice)")
	cmd.Flags().StringVar(&format, "format", "", "output format for this call")
	cmd.Flags().BoolVar(&upload, "upload", false, "upload the audio file to s3")
	return cmd
}

func newVoicesCommand(cfg func() *config.Config) *cobra.Command {
	var (
		update bool
		lang   string
	)

	cmd := &cobra.Command{
		Use:   "voices",
		Short: "List available voices",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := cfg()
			voices, err := c.NewCatalog().Voices(cmd.Context(), update || c.UpdateVoices)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			for _, v := range voice.Sorted(voices, lang) {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", v.Key, v.Name, v.Language.Code, v.Quality)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&update, "update", false, "download the latest voice list first")
	cmd.Flags().StringVar(&lang, "language", "", "only list voices for a locale (en-US) or language (en)")
	return cmd
}

func newFormatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "formats",
		Short: "List supported output formats",
		Run: func(cmd *cobra.Command, args []string) {
			w := cmd.OutOrStdout()
			for _, f := range voice.Formats() {
				fmt.Fprintf(w, "%s\t%s\n", f.Name, f.Header)
			}
		},
	}
}
