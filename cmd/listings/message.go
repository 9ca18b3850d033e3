// Message and chat commands.
package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/listings/internal/chat"
	"github.com/mesh-intelligence/listings/internal/sqlite"
	"github.com/mesh-intelligence/listings/pkg/types"
)

const timeLayout = "2006-01-02 15:04:05"

func (a *app) messageCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "message",
		Aliases: []string{"msg"},
		Short:   "Send and read direct messages",
	}
	cmd.AddCommand(
		a.messageSendCmd(),
		a.messageInboxCmd(),
		a.messageReadCmd(),
		a.messageDeleteCmd(),
		a.messageThreadCmd(),
	)
	return cmd
}

func printMessages(w io.Writer, msgs []*types.Message) {
	table(w, "ID\tFROM\tTO\tSENT\tREAD\tCONTENT", func(tw io.Writer) {
		for _, m := range msgs {
			fmt.Fprintf(tw, "%d\t%d\t%d\t%s\t%t\t%s\n", m.MessageID, m.SenderID, m.RecipientID,
				m.SentAt.Local().Format(timeLayout), m.IsRead, m.Content)
		}
	})
}

func (a *app) messageSendCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "send <from-user> <to-user> <text...>",
		Short: "Send a message",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args[:2])
			if err != nil {
				return err
			}
			content := strings.Join(args[2:], " ")
			return a.withStore(func(store *sqlite.Backend) error {
				m, err := store.Messages().Send(ids[0], ids[1], content)
				if err != nil {
					return err
				}
				return a.emit(cmd, m, func(w io.Writer) { printMessages(w, []*types.Message{m}) })
			})
		},
	}
}

func (a *app) messageInboxCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inbox <user-id>",
		Short: "List messages received by a user, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return a.withStore(func(store *sqlite.Backend) error {
				msgs, err := store.Messages().Inbox(id)
				if err != nil {
					return err
				}
				unread, err := store.Messages().UnreadCount(id)
				if err != nil {
					return err
				}
				result := struct {
					Unread   int              `json:"unread"`
					Messages []*types.Message `json:"messages"`
				}{unread, msgs}
				return a.emit(cmd, result, func(w io.Writer) {
					fmt.Fprintf(w, "%d unread\n", unread)
					printMessages(w, msgs)
				})
			})
		},
	}
}

func (a *app) messageReadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "read <message-id>",
		Short: "Mark a message as read",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return a.withStore(func(store *sqlite.Backend) error {
				if err := store.Messages().MarkRead(id); err != nil {
					return err
				}
				return a.emit(cmd, map[string]int64{"read": id}, func(w io.Writer) {
					fmt.Fprintf(w, "message %d marked read\n", id)
				})
			})
		},
	}
}

func (a *app) messageDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <message-id>",
		Short: "Delete a message",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return a.withStore(func(store *sqlite.Backend) error {
				if err := store.Messages().Delete(id); err != nil {
					return err
				}
				return a.emit(cmd, map[string]int64{"deleted": id}, func(w io.Writer) {
					fmt.Fprintf(w, "deleted message %d\n", id)
				})
			})
		},
	}
}

func (a *app) messageThreadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "thread <user-a> <user-b>",
		Short: "Show the conversation between two users, oldest first",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			return a.withStore(func(store *sqlite.Backend) error {
				msgs, err := store.Messages().Between(ids[0], ids[1])
				if err != nil {
					return err
				}
				return a.emit(cmd, msgs, func(w io.Writer) { printMessages(w, msgs) })
			})
		},
	}
}

func (a *app) chatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chats <user-id>",
		Short: "List a user's conversations, most recent first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return a.withStore(func(store *sqlite.Backend) error {
				summaries, err := chat.NewAggregator(store.Messages(), store.Users()).Conversations(id)
				if err != nil {
					return err
				}
				return a.emit(cmd, summaries, func(w io.Writer) {
					table(w, "WITH\tNAME\tUNREAD\tLAST\tPREVIEW", func(tw io.Writer) {
						for _, s := range summaries {
							fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%s\n", s.CounterpartID, orDash(s.CounterpartName),
								s.Unread, s.PreviewAt.Local().Format(timeLayout), preview(s.PreviewText))
						}
					})
				})
			})
		},
	}
}

// preview shortens text to one table-friendly line.
func preview(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	const width = 48
	if r := []rune(text); len(r) > width {
		return string(r[:width-1]) + "…"
	}
	return text
}
