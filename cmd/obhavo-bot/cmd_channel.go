package main

import (
	"errors"
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/i474232898/obhavo-bot/internal/channel"
	"github.com/i474232898/obhavo-bot/internal/common"
	"github.com/i474232898/obhavo-bot/internal/telegram"
)

var channelCmd = &cobra.Command{
	Use:   "channel",
	Short: "Manage digest destinations",
	Long:  `Add, list and manage the channels and groups that receive the daily digest.`,
}

var channelAddCmd = &cobra.Command{
	Use:   "add <chat-id>",
	Short: "Register a channel or group",
	Args:  cobra.ExactArgs(1),
	RunE:  runChannelAdd,
}

var channelListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered destinations",
	RunE:  runChannelList,
}

var channelRemoveCmd = &cobra.Command{
	Use:   "remove <chat-id>",
	Short: "Remove a destination",
	Args:  cobra.ExactArgs(1),
	RunE:  runChannelRemove,
}

var channelEnableCmd = &cobra.Command{
	Use:   "enable <chat-id> <true|false>",
	Short: "Enable or disable the daily digest for a destination",
	Args:  cobra.ExactArgs(2),
	RunE:  runChannelEnable,
}

var channelScheduleCmd = &cobra.Command{
	Use:   "schedule <chat-id> <HH:MM>",
	Short: "Change the time of day a destination receives the digest",
	Args:  cobra.ExactArgs(2),
	RunE:  runChannelSchedule,
}

var (
	addTitle    string
	addType     string
	addTime     string
	addDisabled bool
)

func init() {
	channelAddCmd.Flags().StringVar(&addTitle, "title", "", "display title")
	channelAddCmd.Flags().StringVar(&addType, "type", string(channel.TypeChannel), "channel or group")
	channelAddCmd.Flags().StringVar(&addTime, "time", "", "daily send time HH:MM (default time when empty)")
	channelAddCmd.Flags().BoolVar(&addDisabled, "disabled", false, "register without enabling delivery")

	rootCmd.AddCommand(channelCmd)
	channelCmd.AddCommand(channelAddCmd)
	channelCmd.AddCommand(channelListCmd)
	channelCmd.AddCommand(channelRemoveCmd)
	channelCmd.AddCommand(channelEnableCmd)
	channelCmd.AddCommand(channelScheduleCmd)
}

// withRegistry runs fn against the persistent registry. Destinations kept
// in memory would vanish with the process, so a database is required.
func withRegistry(cmd *cobra.Command, fn func(reg channel.Registry) error) error {
	cfg, log, err := setup(false)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()
	if cfg.DatabaseURL == "" {
		return errors.New("DATABASE_URL is not set")
	}

	st, err := openStores(cmd.Context(), cfg, log)
	if err != nil {
		return err
	}
	defer st.Close()
	return fn(st.registry)
}

func runChannelAdd(cmd *cobra.Command, args []string) error {
	chatID := args[0]
	if !telegram.ValidChatID(chatID) {
		return fmt.Errorf("invalid chat id %q", chatID)
	}
	typ := channel.Type(addType)
	if !typ.Valid() {
		return fmt.Errorf("invalid type %q", addType)
	}
	d := channel.Destination{ChatID: chatID, Title: addTitle, Type: typ, Enabled: !addDisabled}
	if addTime != "" {
		sched, err := channel.ParseSchedule(addTime)
		if err != nil {
			return err
		}
		d.ScheduledTime = sched.String()
	}

	return withRegistry(cmd, func(reg channel.Registry) error {
		added, err := reg.Add(cmd.Context(), d)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "registered %s (%s)\n", added.ChatID, added.ID)
		return nil
	})
}

func runChannelList(cmd *cobra.Command, args []string) error {
	return withRegistry(cmd, func(reg channel.Registry) error {
		list, err := reg.List(cmd.Context())
		if err != nil {
			return err
		}
		if len(list) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "no destinations registered")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "CHAT ID\tTITLE\tTYPE\tENABLED\tTIME\tLAST SENT")
		for _, d := range list {
			last := "-"
			if d.LastSentAt != nil {
				last = d.LastSentAt.Format("2006-01-02 15:04 MST")
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%s\t%s\n",
				d.ChatID, d.Title, d.Type, d.Enabled, common.OrDefault(d.ScheduledTime, "-"), last)
		}
		return w.Flush()
	})
}

func runChannelRemove(cmd *cobra.Command, args []string) error {
	return withRegistry(cmd, func(reg channel.Registry) error {
		return reg.Remove(cmd.Context(), args[0])
	})
}

func runChannelEnable(cmd *cobra.Command, args []string) error {
	enabled, err := strconv.ParseBool(args[1])
	if err != nil {
		return fmt.Errorf("invalid enabled value %q", args[1])
	}
	return withRegistry(cmd, func(reg channel.Registry) error {
		return reg.SetEnabled(cmd.Context(), args[0], enabled)
	})
}

func runChannelSchedule(cmd *cobra.Command, args []string) error {
	sched, err := channel.ParseSchedule(args[1])
	if err != nil {
		return err
	}
	return withRegistry(cmd, func(reg channel.Registry) error {
		return reg.SetSchedule(cmd.Context(), args[0], sched.String())
	})
}

