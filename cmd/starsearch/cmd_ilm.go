package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/dm/starsearch/internal/format"
	"github.com/dm/starsearch/internal/lifecycle"
	"github.com/dm/starsearch/internal/tui"
)

func newILMCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ilm <policy> set <delete-after|warm-after|cold-after> <days> | <policy> set rollover <max_size|none> <max_docs|none>",
		Short: "Show index lifecycle state and edit lifecycle policies",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runILMSet(cmd, args)
		},
	}
	cmd.AddCommand(newILMInfoCmd(a))
	return cmd
}

func newILMInfoCmd(a *app) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "info",
		Short: "Show lifecycle phase, age, size and projected transitions per index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, _, err := a.client(cmd.Context())
			if err != nil {
				return err
			}
			recs, err := lifecycle.NewNormalizer(c, a.log).Lifecycle(cmd.Context(), all)
			if err != nil {
				return err
			}
			return a.output(recs, func() {
				if len(recs) == 0 {
					fmt.Fprintln(a.out, "No indices with ILM policies found")
					return
				}
				fmt.Fprintln(a.out, tui.RenderLifecycleTable(recs))
				fmt.Fprintln(a.out, tui.StyleDim.Render(fmt.Sprintf("%s indices, %s total", format.FormatNumber(int64(len(recs))), format.FormatBytes(totalSize(recs)))))
			})
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "include indices without a lifecycle policy")
	return cmd
}

func totalSize(recs []lifecycle.IndexRecord) int64 {
	var n int64
	for _, r := range recs {
		n += r.SizeBytes
	}
	return n
}

func (a *app) runILMSet(cmd *cobra.Command, args []string) error {
	if len(args) < 4 || args[1] != "set" {
		return fmt.Errorf("usage: %s", cmd.Use)
	}
	policy, what, values := args[0], args[2], args[3:]

	// Validate arguments before any request is made.
	var apply func(m *lifecycle.Mutator) (*lifecycle.Change, error)
	switch what {
	case "delete-after", "warm-after", "cold-after":
		if len(values) != 1 {
			return fmt.Errorf("usage: ilm <policy> set %s <days>", what)
		}
		days, err := parseDays(values[0])
		if err != nil {
			return err
		}
		apply = func(m *lifecycle.Mutator) (*lifecycle.Change, error) {
			switch what {
			case "delete-after":
				return m.SetDeletePhase(cmd.Context(), policy, days)
			case "warm-after":
				return m.SetWarmPhase(cmd.Context(), policy, days)
			default:
				return m.SetColdPhase(cmd.Context(), policy, days)
			}
		}
	case "rollover":
		if len(values) != 2 {
			return fmt.Errorf("usage: ilm <policy> set rollover <max_size|none> <max_docs|none>")
		}
		maxSize := values[0]
		if maxSize == "none" {
			maxSize = ""
		} else if format.ParseHumanBytes(maxSize) <= 0 {
			return fmt.Errorf("max_size must be a byte size such as 50gb, or none, got %q", maxSize)
		}
		var maxDocs *int64
		if values[1] != "none" {
			n, err := strconv.ParseInt(values[1], 10, 64)
			if err != nil {
				return fmt.Errorf("max_docs must be an integer or none, got %q", values[1])
			}
			maxDocs = &n
		}
		apply = func(m *lifecycle.Mutator) (*lifecycle.Change, error) {
			return m.SetRollover(cmd.Context(), policy, maxSize, maxDocs)
		}
	default:
		return fmt.Errorf("unknown setting %q: want delete-after, warm-after, cold-after or rollover", what)
	}

	c, _, _, err := a.client(cmd.Context())
	if err != nil {
		return err
	}
	change, err := apply(lifecycle.NewMutator(c, a.cfg.Lifecycle.MutatorConfig(), a.log))
	if err != nil {
		return err
	}
	return a.output(change, func() { a.printMessage(change.Message) })
}
