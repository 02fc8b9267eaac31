// seedr publishes git collaboration events to a relay from the command
// line: announce a repository, file an issue, submit a patch or flip a
// status, using the same builders the test harness seeds with.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/nbd-wtf/go-nostr"
	"github.com/urfave/cli/v2"

	"github.com/gitnostr/simulatr/pkg/log"
	"github.com/gitnostr/simulatr/pkg/nip34"
	"github.com/gitnostr/simulatr/pkg/nostr/event"
	"github.com/gitnostr/simulatr/pkg/nostr/eventid"
	"github.com/gitnostr/simulatr/pkg/nostr/keys"
	"github.com/gitnostr/simulatr/pkg/nostr/kind"
)

var slog, chk = log.New()

const name = "seedr"

func main() {
	app := &cli.App{
		Name:  name,
		Usage: "publish git collaboration events to a relay",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "relay", Value: "ws://127.0.0.1:3334",
				Usage: "relay websocket URL"},
			&cli.StringFlag{Name: "sec",
				Usage: "secret key in hex; generated when absent"},
		},
		Commands: []*cli.Command{
			{
				Name:  "repo",
				Usage: "announce a repository",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "id", Required: true,
						Usage: "repository identifier (d tag)"},
					&cli.StringFlag{Name: "name"},
					&cli.StringFlag{Name: "description"},
					&cli.StringSliceFlag{Name: "clone"},
					&cli.StringSliceFlag{Name: "web"},
					&cli.StringSliceFlag{Name: "topic"},
				},
				Action: doRepo,
			},
			{
				Name:  "issue",
				Usage: "file an issue against a repository",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "repo", Required: true,
						Usage: "repository address kind:pubkey:identifier"},
					&cli.StringFlag{Name: "subject"},
					&cli.StringSliceFlag{Name: "label"},
				},
				ArgsUsage: "[issue text]",
				Action:    doIssue,
			},
			{
				Name:  "patch",
				Usage: "submit a patch; the diff is read from stdin",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "repo", Required: true,
						Usage: "repository address kind:pubkey:identifier"},
					&cli.StringFlag{Name: "subject"},
					&cli.StringFlag{Name: "commit"},
					&cli.StringFlag{Name: "parent-commit"},
					&cli.BoolFlag{Name: "root",
						Usage: "mark as first patch of a series"},
				},
				Action: doPatch,
			},
			{
				Name:  "status",
				Usage: "set the status of an issue or patch",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "repo", Required: true},
					&cli.StringFlag{Name: "target", Required: true,
						Usage: "event id of the issue or patch"},
					&cli.StringFlag{Name: "state", Required: true,
						Usage: "one of open, applied, closed, draft"},
					&cli.StringFlag{Name: "merge-commit"},
				},
				Action: doStatus,
			},
		},
	}
	if err := app.Run(os.Args); chk(err) {
		os.Exit(1)
	}
}

func secretKey(c *cli.Context) string {
	if sk := c.String("sec"); sk != "" {
		return sk
	}
	sk := keys.GeneratePrivateKey()
	slog.I.F("generated key %s", sk)
	return sk
}

// publish signs ev and hands it to the relay over a real client
// connection, waiting for the OK acknowledgment.
func publish(c *cli.Context, ev *event.T, sk string) error {
	if err := ev.Sign(sk); chk(err) {
		return err
	}
	rl, err := nostr.RelayConnect(c.Context, c.String("relay"))
	if chk(err) {
		return err
	}
	defer rl.Close()
	tags := make(nostr.Tags, len(ev.Tags))
	for i, t := range ev.Tags {
		tags[i] = nostr.Tag(t)
	}
	err = rl.Publish(context.Background(), nostr.Event{
		ID:        ev.ID.String(),
		PubKey:    ev.PubKey,
		CreatedAt: nostr.Timestamp(ev.CreatedAt),
		Kind:      ev.Kind.ToInt(),
		Tags:      tags,
		Content:   ev.Content,
		Sig:       ev.Sig,
	})
	if chk(err) {
		return err
	}
	fmt.Println(ev.ID)
	return nil
}

func doRepo(c *cli.Context) error {
	ev, err := nip34.Announcement{
		Identifier:  c.String("id"),
		Name:        c.String("name"),
		Description: c.String("description"),
		Clone:       c.StringSlice("clone"),
		Web:         c.StringSlice("web"),
		Topics:      c.StringSlice("topic"),
	}.Build()
	if chk(err) {
		return err
	}
	return publish(c, ev, secretKey(c))
}

func doIssue(c *cli.Context) error {
	addr, err := nip34.ParseAddress(c.String("repo"))
	if chk(err) {
		return err
	}
	ev, err := nip34.Issue{
		Repo:    addr,
		Subject: c.String("subject"),
		Content: strings.Join(c.Args().Slice(), " "),
		Labels:  c.StringSlice("label"),
	}.Build()
	if chk(err) {
		return err
	}
	return publish(c, ev, secretKey(c))
}

func doPatch(c *cli.Context) error {
	addr, err := nip34.ParseAddress(c.String("repo"))
	if chk(err) {
		return err
	}
	diff, err := os.ReadFile("/dev/stdin")
	if chk(err) {
		return err
	}
	ev, err := nip34.Patch{
		Repo:         addr,
		Subject:      c.String("subject"),
		Commit:       c.String("commit"),
		ParentCommit: c.String("parent-commit"),
		Root:         c.Bool("root"),
		Diff:         string(diff),
	}.Build()
	if chk(err) {
		return err
	}
	return publish(c, ev, secretKey(c))
}

var statusKinds = map[string]kind.T{
	"open":    kind.GitStatusOpen,
	"applied": kind.GitStatusApplied,
	"closed":  kind.GitStatusClosed,
	"draft":   kind.GitStatusDraft,
}

func doStatus(c *cli.Context) error {
	addr, err := nip34.ParseAddress(c.String("repo"))
	if chk(err) {
		return err
	}
	k, ok := statusKinds[c.String("state")]
	if !ok {
		return errors.New("state must be one of open, applied, closed, draft")
	}
	ev, err := nip34.Status{
		Kind:        k,
		Target:      eventid.T(c.String("target")),
		Repo:        addr,
		MergeCommit: c.String("merge-commit"),
	}.Build()
	if chk(err) {
		return err
	}
	return publish(c, ev, secretKey(c))
}
