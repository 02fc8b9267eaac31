package main

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/alexflint/go-arg"
	"github.com/kardianos/osext"
	"github.com/mdp/qrterminal/v3"

	"github.com/gitnostr/simulatr/app"
	"github.com/gitnostr/simulatr/pkg/eventstore/memory"
	"github.com/gitnostr/simulatr/pkg/interrupt"
	"github.com/gitnostr/simulatr/pkg/log"
	"github.com/gitnostr/simulatr/pkg/nostr/keys"
)

var slog, chk = log.New()

var args app.Config

func main() {
	arg.MustParse(&args)
	log.SetLogLevelName(args.LogLevel)
	slog.T.S(args)
	dataDir := profileDir(args.Profile)
	configPath := filepath.Join(dataDir, "config.json")
	if args.InitCfgCmd != nil {
		if args.Pubkey == "" {
			args.Pubkey, _ = keys.GetPublicKey(keys.GeneratePrivateKey())
		}
		if err := os.MkdirAll(dataDir, 0700); chk(err) {
			os.Exit(1)
		}
		if err := args.Save(configPath); chk(err) {
			slog.E.F("failed to write relay configuration: '%s'", err)
			os.Exit(1)
		}
		slog.I.F("wrote configuration to %s", configPath)
		return
	}
	var conf app.Config
	if err := conf.Load(configPath); err == nil {
		// flags given on the command line win over the stored config
		if args.Name == "" {
			args.Name = conf.Name
		}
		if args.Description == "" {
			args.Description = conf.Description
		}
		if args.Pubkey == "" {
			args.Pubkey = conf.Pubkey
		}
		if args.Contact == "" {
			args.Contact = conf.Contact
		}
		if args.Icon == "" {
			args.Icon = conf.Icon
		}
	}
	store := memory.New()
	if err := store.Init(); chk(err) {
		os.Exit(1)
	}
	rl := app.NewRelay(store)
	rl.Info.Name = args.Name
	rl.Info.Description = args.Description
	rl.Info.PubKey = args.Pubkey
	rl.Info.Contact = args.Contact
	rl.Info.Icon = args.Icon
	if args.LatencyMs > 0 || args.JitterMs > 0 {
		rl.SetLatency(time.Duration(args.LatencyMs)*time.Millisecond,
			time.Duration(args.JitterMs)*time.Millisecond)
	}
	if args.QR {
		qrterminal.GenerateHalfBlock("ws://"+args.Listen,
			qrterminal.L, os.Stdout)
	}
	srv := &http.Server{Addr: args.Listen, Handler: rl}
	interrupt.AddHandler(func() {
		rl.Shutdown()
		_ = srv.Shutdown(context.Background())
	})
	slog.I.Ln("listening on", args.Listen)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		chk(err)
		return
	}
	<-interrupt.HandlersDone.Wait()
}

// profileDir resolves the directory config lives in: a dot directory under
// the user home, or next to the binary when no home is resolvable.
func profileDir(profile string) string {
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, "."+profile)
	}
	dir, err := osext.ExecutableFolder()
	if chk(err) {
		return "." + profile
	}
	return filepath.Join(dir, "."+profile)
}
