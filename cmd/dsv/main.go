// Command dsv is the disassembly soundness checker's CLI front end:
// it loads a disassembler-produced program description, explores it
// per the core's symbolic semantics, and reports unreachable
// instructions and recovered jump tables.
package main

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/vtsse/dsvcheck/internal/batch"
	"github.com/vtsse/dsvcheck/internal/config"
	"github.com/vtsse/dsvcheck/internal/iface"
	"github.com/vtsse/dsvcheck/internal/report"
)

// programInput is the on-disk shape a normalizer hands the core: the
// three address maps spec §6 names as external interfaces, plus the
// section bytes the binary-info oracle reads through.
type programInput struct {
	Instructions map[string]string `json:"instructions"`
	Next         map[string]string `json:"next"`
	Symbols      map[string]string `json:"symbols"`
	Entries      []string          `json:"entries"`
	Sections     struct {
		Rodata sectionInput `json:"rodata"`
		Data   sectionInput `json:"data"`
		Text   sectionInput `json:"text"`
	} `json:"sections"`
}

type sectionInput struct {
	Base  string `json:"base"`
	Bytes string `json:"bytes"`
}

func parseHexAddr(s string) (uint64, error) {
	return strconv.ParseUint(s, 0, 64)
}

func (s sectionInput) decode() (uint64, []byte, error) {
	if s.Base == "" {
		return 0, nil, nil
	}
	base, err := parseHexAddr(s.Base)
	if err != nil {
		return 0, nil, fmt.Errorf("section base %q: %w", s.Base, err)
	}
	raw, err := hex.DecodeString(s.Bytes)
	if err != nil {
		return 0, nil, fmt.Errorf("section bytes: %w", err)
	}
	return base, raw, nil
}

func loadProgram(path string) (*iface.Program, *iface.BinaryImage, []uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("dsv: open input: %w", err)
	}
	defer f.Close()

	var in programInput
	if err := json.NewDecoder(f).Decode(&in); err != nil {
		return nil, nil, nil, fmt.Errorf("dsv: decode input: %w", err)
	}

	prog := iface.NewProgram()
	for a, text := range in.Instructions {
		addr, err := parseHexAddr(a)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("dsv: instruction address %q: %w", a, err)
		}
		prog.Inst[addr] = text
	}
	for a, n := range in.Next {
		addr, err := parseHexAddr(a)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("dsv: next-map address %q: %w", a, err)
		}
		next, err := parseHexAddr(n)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("dsv: next-map target %q: %w", n, err)
		}
		prog.Next[addr] = next
	}
	for a, sym := range in.Symbols {
		addr, err := parseHexAddr(a)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("dsv: symbol address %q: %w", a, err)
		}
		prog.Sym[addr] = sym
	}

	rodataBase, rodataBytes, err := in.Sections.Rodata.decode()
	if err != nil {
		return nil, nil, nil, err
	}
	dataBase, dataBytes, err := in.Sections.Data.decode()
	if err != nil {
		return nil, nil, nil, err
	}
	textBase, textBytes, err := in.Sections.Text.decode()
	if err != nil {
		return nil, nil, nil, err
	}
	img := iface.NewBinaryImage(rodataBase, rodataBytes, dataBase, dataBytes, textBase, textBytes)

	entries := make([]uint64, 0, len(in.Entries))
	for _, e := range in.Entries {
		addr, err := parseHexAddr(e)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("dsv: entry address %q: %w", e, err)
		}
		entries = append(entries, addr)
	}

	return prog, img, entries, nil
}

func buildRootCmd() *cobra.Command {
	v := viper.New()
	var inputPath, cfgFile string

	root := &cobra.Command{
		Use:   "dsv",
		Short: "Symbolic soundness checker for disassembled x86-64 binaries",
	}
	root.PersistentFlags().StringVar(&inputPath, "input", "", "path to the disassembler-derived program JSON")
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "optional config file (yaml/json/toml)")
	config.BindFlags(root.PersistentFlags())

	setup := func(cmd *cobra.Command) (config.Config, *logrus.Entry, error) {
		v.BindPFlags(cmd.Flags())
		v.BindPFlags(cmd.Root().PersistentFlags())
		if cfgFile != "" {
			v.SetConfigFile(cfgFile)
			if err := v.ReadInConfig(); err != nil {
				return config.Config{}, nil, fmt.Errorf("dsv: read config: %w", err)
			}
		}
		cfg, err := config.Load(v)
		if err != nil {
			return config.Config{}, nil, err
		}
		logger := logrus.New()
		if cfg.Verbose {
			logger.SetLevel(logrus.DebugLevel)
		}
		return cfg, logger.WithField("component", "dsv"), nil
	}

	explore := func(cmd *cobra.Command, resumeCkpt string) error {
		cfg, log, err := setup(cmd)
		if err != nil {
			return err
		}
		if inputPath == "" {
			return fmt.Errorf("dsv: --input is required")
		}
		prog, img, entries, err := loadProgram(inputPath)
		if err != nil {
			return err
		}

		rpt := report.New()
		skip := map[uint64]bool{}
		var alreadyDone []uint64
		if resumeCkpt != "" {
			ckpt, err := report.LoadCheckpoint(resumeCkpt)
			if err != nil {
				return fmt.Errorf("dsv: resume: %w", err)
			}
			rpt.Restore(ckpt)
			for _, a := range ckpt.Completed {
				skip[a] = true
			}
			alreadyDone = ckpt.Completed
			log.Infof("resumed checkpoint with %d entries already explored", len(alreadyDone))
		}

		pool := batch.NewPool(cfg.NumWorkers)
		completed, err := pool.Explore(context.Background(), cfg, prog, img, entries, skip, rpt, log, alreadyDone)
		if err != nil {
			return fmt.Errorf("dsv: explore: %w", err)
		}
		rpt.Log(log)

		ckptPath := cfg.CheckpointPath
		if ckptPath != "" {
			if err := report.SaveCheckpoint(ckptPath, rpt.Snapshot(completed)); err != nil {
				return err
			}
		}
		if err := rpt.Fatal(); err != nil {
			return fmt.Errorf("dsv: %w", err)
		}
		return nil
	}

	exploreCmd := &cobra.Command{
		Use:   "explore",
		Short: "Explore every entry point and report unreachable instructions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return explore(cmd, "")
		},
	}

	verifyCmd := &cobra.Command{
		Use:   "verify",
		Short: "Explore and exit non-zero only on a fatal soundness error",
		RunE: func(cmd *cobra.Command, args []string) error {
			return explore(cmd, "")
		},
	}

	var resumeFrom string
	resumeCmd := &cobra.Command{
		Use:   "resume",
		Short: "Continue a batch exploration from a saved checkpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			if resumeFrom == "" {
				return fmt.Errorf("dsv: --from is required")
			}
			return explore(cmd, resumeFrom)
		},
	}
	resumeCmd.Flags().StringVar(&resumeFrom, "from", "", "checkpoint file to resume from")

	root.AddCommand(exploreCmd, verifyCmd, resumeCmd)
	return root
}

func main() {
	if err := buildRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
