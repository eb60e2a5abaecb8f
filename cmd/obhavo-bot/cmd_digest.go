package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/i474232898/obhavo-bot/internal/digest"
	"github.com/i474232898/obhavo-bot/internal/telegram"
	"github.com/i474232898/obhavo-bot/internal/weather"
	"github.com/i474232898/obhavo-bot/internal/weather/providers"
)

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Print the digest as it would be sent now",
	RunE:  runPreview,
}

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send the digest to one chat immediately",
	Long: `Send the digest to one chat immediately. The destination's
last-sent marker is not touched, so the scheduled delivery still happens.`,
	RunE: runSend,
}

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Fetch current weather for every region into the cache",
	RunE:  runRefresh,
}

var sendChatID string

func init() {
	sendCmd.Flags().StringVar(&sendChatID, "chat-id", "", "numeric chat id or @channelusername")
	_ = sendCmd.MarkFlagRequired("chat-id")

	rootCmd.AddCommand(previewCmd)
	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(refreshCmd)
}

func runPreview(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup(false)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	st, err := openStores(cmd.Context(), cfg, log)
	if err != nil {
		return err
	}
	defer st.Close()

	msg, err := digest.NewService(st.cache, newRenderer(cfg), nil, log).Preview(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), msg.Text)
	for _, b := range msg.Buttons {
		fmt.Fprintf(cmd.OutOrStdout(), "[%s] %s\n", b.Text, b.URL)
	}
	return nil
}

func runSend(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup(true)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	if !telegram.ValidChatID(sendChatID) {
		return fmt.Errorf("invalid chat id %q", sendChatID)
	}

	st, err := openStores(cmd.Context(), cfg, log)
	if err != nil {
		return err
	}
	defer st.Close()

	api, err := newBotAPI(cfg)
	if err != nil {
		return err
	}
	client := telegram.NewClient(api, cfg.SendTimeout, cfg.SendPerSecond, log)

	receipt, err := digest.NewService(st.cache, newRenderer(cfg), client, log).SendNow(cmd.Context(), sendChatID)
	if err != nil {
		if receipt.Raw != "" {
			fmt.Fprintln(cmd.ErrOrStderr(), receipt.Raw)
		}
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "sent to %s, message id %d\n", sendChatID, receipt.MessageID)
	return nil
}

func runRefresh(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup(false)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	st, err := openStores(cmd.Context(), cfg, log)
	if err != nil {
		return err
	}
	defer st.Close()

	provider := providers.NewOpenMeteoProvider(newHTTPClient(cfg.HTTPTimeout))
	n, err := weather.NewRefresher(st.cache, provider, weather.Regions(), cfg.HTTPTimeout*3, log, nil).Refresh(cmd.Context())
	if err != nil {
		return err
	}
	log.Info("weather cache refreshed", zap.Int("regions", n))
	fmt.Fprintf(cmd.OutOrStdout(), "refreshed %d of %d regions\n", n, len(weather.Regions()))
	return nil
}
