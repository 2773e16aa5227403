package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"herdbook/internal/core/apperror"
	coretagging "herdbook/internal/core/tagging"
	"herdbook/internal/domain/tagging"
)

func (a *app) previewCmd() *cobra.Command {
	var (
		sf    settingsFlags
		cf    contextFlags
		start int64
		count int
	)
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Show the next tags for a set of settings without consuming numbers",
		Example: `  tagctl preview --prefix HF --start 17 --count 3
  tagctl preview --system custom --format '{PREFIX}-{BREED}-{NUMBER:4}' --breed Holstein`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := sf.settings("")
			if err != nil {
				return err
			}
			tags, err := tagging.PreviewTagNumbers(s, cf.context(), start, count, time.Now())
			if err != nil {
				return err
			}
			return a.print(cmd.OutOrStdout(), tags, strings.Join(tags, "\n"))
		},
	}
	sf.bind(cmd)
	cf.bind(cmd)
	cmd.Flags().Int64Var(&start, "start", 1, "first sequence number")
	cmd.Flags().IntVar(&count, "count", 5, fmt.Sprintf("number of tags (max %d)", tagging.MaxPreviewCount))
	return cmd
}

func (a *app) checkDigitCmd() *cobra.Command {
	var symbology string
	cmd := &cobra.Command{
		Use:   "checkdigit BASE",
		Short: "Compute an EAN-13 or UPC-A check digit",
		Example: `  tagctl checkdigit 590123412345
  tagctl checkdigit --symbology upc 03600029145`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			base := args[0]
			var (
				digit int
				err   error
			)
			switch coretagging.BarcodeType(strings.ToLower(symbology)) {
			case coretagging.BarcodeEAN13:
				digit, err = tagging.EAN13CheckDigit(base)
			case coretagging.BarcodeUPC:
				digit, err = tagging.UPCACheckDigit(base)
			default:
				return fmt.Errorf("unsupported symbology %q (want ean13 or upc)", symbology)
			}
			if err != nil {
				return err
			}
			code := base + strconv.Itoa(digit)
			return a.print(cmd.OutOrStdout(), map[string]any{
				"base":       base,
				"checkDigit": digit,
				"code":       code,
			}, code)
		},
	}
	cmd.Flags().StringVar(&symbology, "symbology", "ean13", "ean13 or upc")
	return cmd
}

func (a *app) validateCmd() *cobra.Command {
	var sf settingsFlags
	cmd := &cobra.Command{
		Use:   "validate TAG",
		Short: "Check a tag against the format rules of a set of settings",
		Example: `  tagctl validate COW-001
  tagctl validate --system barcode --barcode-type ean13 5901234123457`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := sf.settings("")
			if err != nil {
				return err
			}
			verdict, err := tagging.NewGenerator(nil).CheckTag(args[0], s)
			if err != nil {
				return fmt.Errorf("tag rule: %w", err)
			}

			text := "valid"
			if !verdict.IsValid {
				text = "invalid: " + strings.Join(verdict.Errors, "; ")
			}
			if err := a.print(cmd.OutOrStdout(), verdict, text); err != nil {
				return err
			}
			if !verdict.IsValid {
				return errors.New("tag is invalid")
			}
			return nil
		},
	}
	sf.bind(cmd)
	return cmd
}

// generatedTag is one generate result as printed by the CLI.
type generatedTag struct {
	Tag      string `json:"tag"`
	AnimalID string `json:"animalId,omitempty"`
	Outcome  string `json:"outcome"`
	Fallback bool   `json:"fallback"`
	Attempts int    `json:"attempts"`
}

func (a *app) generateCmd() *cobra.Command {
	var (
		cf         contextFlags
		farmID     string
		count      int
		strict     bool
		noRegister bool
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate tags for a farm from the local store",
		Long: `Generate draws numbers from the farm's counter in the local SQLite store and,
unless --no-register is given, records each tag as an active animal so later
tags do not collide with it. Store the farm's settings first with "settings set".`,
		Example: `  tagctl generate --farm farm-1 --count 3
  tagctl generate --farm farm-1 --breed Angus --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if count < 1 {
				return errors.New("--count must be at least 1")
			}
			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			ctx := a.commandContext(cmd)
			if _, err := store.GetTaggingSettings(ctx, farmID); apperror.IsNotFound(err) {
				return fmt.Errorf("no settings stored for farm %q, run \"tagctl settings set\" first", farmID)
			}
			gen := tagging.NewGenerator(store, tagging.WithObserver(tagging.LogObserver{Logger: a.log}))

			out := make([]generatedTag, 0, count)
			for i := 0; i < count; i++ {
				var res coretagging.Result
				if strict {
					if res, err = gen.TryGenerate(ctx, farmID, cf.context()); err != nil {
						return err
					}
				} else {
					res = gen.Generate(ctx, farmID, cf.context())
				}

				g := generatedTag{
					Tag:      res.Tag,
					Outcome:  string(res.Outcome),
					Fallback: res.Outcome.IsFallback(),
					Attempts: res.Attempts,
				}
				if !noRegister {
					if g.AnimalID, err = store.RegisterTag(ctx, farmID, res.Tag); err != nil {
						return err
					}
				}
				if g.Fallback {
					fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s is a fallback tag (%s)\n", g.Tag, g.Outcome)
				}
				out = append(out, g)
			}

			lines := make([]string, len(out))
			for i, g := range out {
				lines[i] = g.Tag
			}
			return a.print(cmd.OutOrStdout(), out, strings.Join(lines, "\n"))
		},
	}
	cf.bind(cmd)
	cmd.Flags().StringVar(&farmID, "farm", "", "farm id")
	cmd.Flags().IntVar(&count, "count", 1, "number of tags")
	cmd.Flags().BoolVar(&strict, "strict", false, "fail instead of falling back to a timestamp tag")
	cmd.Flags().BoolVar(&noRegister, "no-register", false, "do not record generated tags")
	_ = cmd.MarkFlagRequired("farm")
	return cmd
}

func (a *app) settingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Manage farm tagging settings in the local store",
	}

	var (
		sf     settingsFlags
		farmID string
		next   int64
	)
	set := &cobra.Command{
		Use:     "set",
		Short:   "Store a farm's tagging settings",
		Example: `  tagctl settings set --farm farm-1 --system custom --format '{PREFIX}-{YEAR:2}-{NUMBER:4}' --next 40`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := sf.settings(farmID)
			if err != nil {
				return err
			}
			if next < 0 {
				return errors.New("--next must not be negative")
			}
			s.NextNumber = next
			if err := tagging.NewGenerator(nil).CompileRule(s.TagRule); err != nil {
				return fmt.Errorf("tag rule: %w", err)
			}

			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.SaveTaggingSettings(a.commandContext(cmd), s); err != nil {
				return err
			}
			return a.print(cmd.OutOrStdout(), s, "saved settings for "+farmID)
		},
	}
	sf.bind(set)
	set.Flags().StringVar(&farmID, "farm", "", "farm id")
	set.Flags().Int64Var(&next, "next", 0, "move the farm counter forward so the next tag uses at least this number")
	_ = set.MarkFlagRequired("farm")

	var getFarm string
	get := &cobra.Command{
		Use:   "get",
		Short: "Print a farm's tagging settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			s, err := store.GetTaggingSettings(a.commandContext(cmd), getFarm)
			if err != nil {
				return err
			}
			text := fmt.Sprintf("farm=%s system=%s prefix=%s next=%d", s.FarmID, s.NumberingSystem, s.TagPrefix, s.NextNumber)
			return a.print(cmd.OutOrStdout(), s, text)
		},
	}
	get.Flags().StringVar(&getFarm, "farm", "", "farm id")
	_ = get.MarkFlagRequired("farm")

	cmd.AddCommand(set, get)
	return cmd
}

func (a *app) retireCmd() *cobra.Command {
	var farmID string
	cmd := &cobra.Command{
		Use:   "retire TAG",
		Short: "Mark the animal carrying TAG as inactive, freeing the tag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.RetireTag(a.commandContext(cmd), farmID, args[0]); err != nil {
				return err
			}
			return a.print(cmd.OutOrStdout(), map[string]string{"retired": args[0]}, "retired "+args[0])
		},
	}
	cmd.Flags().StringVar(&farmID, "farm", "", "farm id")
	_ = cmd.MarkFlagRequired("farm")
	return cmd
}
