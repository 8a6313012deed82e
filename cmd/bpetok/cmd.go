package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/AniTho/Generative-AI/pkg/config"
	"github.com/AniTho/Generative-AI/pkg/logging"
	"github.com/AniTho/Generative-AI/tokenizer"
)

const (
	kindBPE  = "bpe"
	kindByte = "byte"
	kindWord = "word"
)

// session is the state shared by all subcommands once flags are parsed.
type session struct {
	cfg    *config.Config
	log    zerolog.Logger
	corpus string
	kind   string
}

func NewCLI() *cobra.Command {
	rt := &session{}

	rootCmd := &cobra.Command{
		Use:   "bpetok",
		Short: "Train a byte-pair-encoding tokenizer and encode or decode text with it",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Disable usage printing on errors
			cmd.SilenceUsage = true
			return rt.setup(cmd)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "Config file (default ./bpetok.yaml or $HOME/.bpetok/bpetok.yaml)")
	flags.StringVar(&rt.corpus, "corpus", "", "Training text file")
	flags.StringVar(&rt.kind, "kind", kindBPE, "Tokenizer kind: bpe, byte or word")
	flags.Int("max-new-tokens", tokenizer.DefaultMaxNewTokens, "Number of merges to learn")
	flags.Int("workers", 1, "Goroutines counting pairs per merge step")
	flags.Bool("stop-early", false, "Keep the merges learned so far when the corpus runs out of pairs")
	flags.String("log-level", "info", "Log level")

	trainCmd := &cobra.Command{
		Use:   "train",
		Short: "Train on the corpus and print the learned merges",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.train(cmd)
		},
	}

	encodeCmd := &cobra.Command{
		Use:   "encode TEXT...",
		Short: "Print the token ids of TEXT",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tok, err := rt.build()
			if err != nil {
				return err
			}
			ids := tok.Encode(strings.Join(args, " "))
			strs := make([]string, len(ids))
			for i, id := range ids {
				strs[i] = strconv.FormatInt(id, 10)
			}
			fmt.Fprintln(cmd.OutOrStdout(), strings.Join(strs, " "))
			return nil
		},
	}

	decodeCmd := &cobra.Command{
		Use:   "decode ID...",
		Short: "Print the text of token ids",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]int64, len(args))
			for i, arg := range args {
				id, err := strconv.ParseInt(arg, 10, 64)
				if err != nil {
					return fmt.Errorf("invalid token id %q: %w", arg, err)
				}
				ids[i] = id
			}

			tok, err := rt.build()
			if err != nil {
				return err
			}
			text, err := tok.Decode(ids)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		},
	}

	rootCmd.AddCommand(trainCmd, encodeCmd, decodeCmd)
	return rootCmd
}

// setup loads the config file and lets explicitly set flags override it.
func (rt *session) setup(cmd *cobra.Command) error {
	flags := cmd.Flags()

	path, _ := flags.GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	if flags.Changed("max-new-tokens") {
		cfg.Tokenizer.MaxNewTokens, _ = flags.GetInt("max-new-tokens")
	}
	if flags.Changed("workers") {
		cfg.Tokenizer.Workers, _ = flags.GetInt("workers")
	}
	if flags.Changed("stop-early") {
		cfg.Tokenizer.StopEarly, _ = flags.GetBool("stop-early")
	}
	if flags.Changed("log-level") {
		cfg.Log.Level, _ = flags.GetString("log-level")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	rt.cfg = cfg
	rt.log, err = logging.New(cfg.Log.Level, cfg.Log.Pretty, cmd.ErrOrStderr())
	return err
}

func (rt *session) readCorpus() (string, error) {
	if rt.corpus == "" {
		return "", fmt.Errorf("--corpus is required for the %s tokenizer", rt.kind)
	}
	data, err := os.ReadFile(rt.corpus)
	if err != nil {
		return "", fmt.Errorf("read corpus: %w", err)
	}
	return string(data), nil
}

// trainBPE trains on the corpus and also returns the corpus text.
func (rt *session) trainBPE() (*tokenizer.BPETokenizer, string, error) {
	text, err := rt.readCorpus()
	if err != nil {
		return nil, "", err
	}

	opts := []tokenizer.Option{
		tokenizer.WithLogger(rt.log),
		tokenizer.WithWorkers(rt.cfg.Tokenizer.Workers),
	}
	if rt.cfg.Tokenizer.StopEarly {
		opts = append(opts, tokenizer.WithStopEarly())
	}
	tok, err := tokenizer.TrainBPE(text, rt.cfg.Tokenizer.MaxNewTokens, opts...)
	return tok, text, err
}

// build constructs the tokenizer selected by --kind. Nothing is persisted, so
// BPE retrains from the corpus on every run; training is deterministic.
func (rt *session) build() (tokenizer.Tokenizer, error) {
	switch rt.kind {
	case kindBPE:
		tok, _, err := rt.trainBPE()
		return tok, err
	case kindByte:
		return tokenizer.NewByteTokenizer(), nil
	case kindWord:
		text, err := rt.readCorpus()
		if err != nil {
			return nil, err
		}
		return tokenizer.NewWordLevel(text)
	default:
		return nil, fmt.Errorf("unknown tokenizer kind %q (want %s, %s or %s)", rt.kind, kindBPE, kindByte, kindWord)
	}
}

func (rt *session) train(cmd *cobra.Command) error {
	if rt.kind != kindBPE {
		return fmt.Errorf("train only applies to the %s tokenizer", kindBPE)
	}
	tok, text, err := rt.trainBPE()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, m := range tok.Merges() {
		fmt.Fprintf(out, "%d\t\"%s\" + \"%s\" -> \"%s\"\n",
			m.ID, tok.DecodeToken(m.Pair.A), tok.DecodeToken(m.Pair.B), tok.DecodeToken(m.ID))
	}

	ids := tok.Encode(text)
	ratio := 0.0
	if len(ids) > 0 {
		ratio = float64(len(text)) / float64(len(ids))
	}
	fmt.Fprintf(out, "vocab=%d merges=%d compression=%.2fx (%d bytes → %d tokens)\n",
		tok.VocabSize(), tok.NumMerges(), ratio, len(text), len(ids))
	return nil
}
