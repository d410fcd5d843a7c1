package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"readaloud/internal/cli/scheme/colours"
	"readaloud/internal/config"
	"readaloud/internal/reader/aloud"
	"readaloud/internal/reader/tts"
)

func main() {
	config.SetDefaults()

	// Cancelling the context quits playback, which stops the engine
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var configFile string

	rootCmd := &cobra.Command{
		Use:   "readaloud [text]",
		Short: "🔊 Read text aloud with live pause, resume and quit",
		Long: `
┌─────────────────────────────────────┐
│  🔊 readaloud                       │
│  Text in, speech out                │
└─────────────────────────────────────┘

Reads text from an argument, a file, the clipboard or stdin, strips markup and
links, picks a voice for the detected language and narrates it sentence by
sentence. Press p to pause, r to resume and q to quit while it reads.
Use --output to write audio files instead.
		`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Load(configFile); err != nil {
				return err
			}
			verbose, _ := cmd.Flags().GetBool("verbose")
			return config.ConfigureLogging(viper.GetString("log.level"), verbose)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return aloud.NewReadAloud(config.Current()).ReadCommand(cmd, args)
		},
	}

	voicesCmd := &cobra.Command{
		Use:   "voices",
		Short: "🎤 List the voices of the selected engine",
		Long:  "Print every voice the engine offers as index: name (id) [languages]",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return aloud.NewReadAloud(config.Current()).VoicesCommand(cmd, args)
		},
	}

	// Persistent flags
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default readaloud.yaml in the user config dir)")
	rootCmd.PersistentFlags().StringP("engine", "e", "auto", "TTS engine: auto, espeak, say, sapi, google or mock")
	rootCmd.PersistentFlags().Bool("refresh-voices", false, "Ignore the cached voice list and enumerate again")
	rootCmd.PersistentFlags().Bool("verbose", false, "Log debug output to stderr")

	// Input
	rootCmd.Flags().StringP("text", "t", "", "Text to read")
	rootCmd.Flags().StringP("file", "f", "", "File to read")
	rootCmd.Flags().BoolP("clipboard", "c", false, "Read the clipboard contents")

	// Playback
	rootCmd.Flags().BoolP("word-indicator", "w", false, "Show spoken/total words after each sentence")
	rootCmd.Flags().Bool("highlight", false, "Show each sentence as it is spoken")
	rootCmd.Flags().IntP("rate", "r", tts.DefaultRate, "Speaking rate in words per minute")
	rootCmd.Flags().IntP("voice", "v", -1, "Voice index, see --list-voices")
	rootCmd.Flags().StringP("lang", "l", "", "Language used to pick a voice, skips detection")
	rootCmd.Flags().Bool("no-detect", false, "Do not detect the language of the text")
	rootCmd.Flags().Bool("line-controls", false, "Read p/r/q commands followed by Enter instead of single keys")
	rootCmd.Flags().Bool("list-voices", false, "List available voices and exit")

	// Export
	rootCmd.Flags().StringP("output", "o", "", "Write audio to this file instead of speaking")
	rootCmd.Flags().Bool("split", false, "Write one file per sentence, numbered from 1")
	rootCmd.Flags().String("transcode", "", "Also convert exported audio to this format, e.g. mp3 or wav")

	_ = viper.BindPFlag("tts.engine", rootCmd.PersistentFlags().Lookup("engine"))
	_ = viper.BindPFlag("tts.rate", rootCmd.Flags().Lookup("rate"))

	rootCmd.AddCommand(voicesCmd)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logrus.WithError(err).Debug("Command failed")
		colours.Error.Printf("❌ Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
