package command

// live.go streams realtime events to the terminal until interrupted.

import (
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"dareduel/internal/microservices/http-api/models"
	"dareduel/pkg/realtime"
)

var liveCmd = &cobra.Command{
	Use:   "live",
	Short: "Watch live events (friends online, dares, notifications)",
	Long: `Connect to the realtime feed and print events as they happen:
friends coming online or going offline, dares being sent, accepted and
resolved, and new notifications. Reconnects automatically if the
connection drops. Press Ctrl+C to stop.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, creds, err := authedClient()
		if err != nil {
			return err
		}

		endpoint := wsEndpoint(apiURL)
		rt := realtime.NewClient(realtime.Config{
			Endpoint: endpoint,
			UserID:   creds.UserID,
		})

		rt.On(realtime.TypeConnectionOpened, func(msg *realtime.Message) {
			color.Green("✓ Connected to %s", endpoint)
		})
		rt.On(realtime.TypeConnectionClosed, func(msg *realtime.Message) {
			color.Yellow("· Server is closing the session, will reconnect...")
		})
		rt.On(realtime.TypePeerOnline, func(msg *realtime.Message) {
			var p realtime.PeerPresence
			if err := msg.DecodeData(&p); err != nil {
				return
			}
			color.Green("● %s is online", p.UserID)
		})
		rt.On(realtime.TypePeerOffline, func(msg *realtime.Message) {
			var p realtime.PeerPresence
			if err := msg.DecodeData(&p); err != nil {
				return
			}
			color.HiBlack("○ %s went offline", p.UserID)
		})
		rt.On(realtime.TypeEntityCreated, func(msg *realtime.Message) { printEntityEvent("new", msg) })
		rt.On(realtime.TypeEntityUpdated, func(msg *realtime.Message) { printEntityEvent("updated", msg) })
		rt.On(realtime.TypeEntityRemoved, func(msg *realtime.Message) { printEntityEvent("removed", msg) })

		fmt.Println("Watching live events (Ctrl+C to stop)...")
		rt.Connect(creds.AccessToken)
		defer rt.Disconnect()

		interrupt := make(chan os.Signal, 1)
		signal.Notify(interrupt, os.Interrupt)
		<-interrupt

		fmt.Println("\nClosing connection...")
		return nil
	},
}

// wsEndpoint turns the API base URL into the websocket feed address.
func wsEndpoint(api string) string {
	endpoint := strings.TrimSuffix(api, "/")
	endpoint = strings.Replace(endpoint, "https://", "wss://", 1)
	endpoint = strings.Replace(endpoint, "http://", "ws://", 1)
	return endpoint + "/ws"
}

func printEntityEvent(verb string, msg *realtime.Message) {
	var event realtime.EntityEvent
	if err := msg.DecodeData(&event); err != nil {
		return
	}

	switch event.Entity {
	case realtime.EntityChallenge:
		var ch models.Challenge
		if err := event.Unpack(&ch); err == nil && ch.Description != "" {
			color.Cyan("⚔ dare %s: %q [%s]", verb, ch.Description, ch.Status)
			return
		}
		color.Cyan("⚔ dare %s (%s)", verb, event.EntityID)
	case realtime.EntityFriendRequest:
		color.Magenta("✉ friend request %s (%s)", verb, event.EntityID)
	case realtime.EntityNotification:
		var n models.Notification
		if err := event.Unpack(&n); err == nil && n.Title != "" {
			color.Yellow("🔔 %s: %s", n.Title, n.Message)
			return
		}
		color.Yellow("🔔 notification %s", verb)
	default:
		fmt.Printf("· %s %s (%s)\n", event.Entity, verb, event.EntityID)
	}
}

func init() {
	rootCmd.AddCommand(liveCmd)
}
