package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/peerlink/internal/flagx"
)

// parseFlags populates selected client Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   directory API base URL (e.g., "http://127.0.0.1:3001")
//	-r string   relay websocket URL (e.g., "ws://127.0.0.1:3001/ws")
//	-k string   keystore directory
//	-t int      directory request timeout (in seconds)
//
// The function first filters os.Args to only the flags it recognizes using
// flagx.FilterArgs, avoiding collisions with other components.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-r", "-k", "-t"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.ServerEndpointAddr, "a", config.ServerEndpointAddr, "directory API base URL")
	fs.StringVar(&config.RelayEndpointAddr, "r", config.RelayEndpointAddr, "relay websocket URL")
	fs.StringVar(&config.KeystoreDir, "k", config.KeystoreDir, "keystore directory")
	requestTimeout := fs.Int("t", int(config.RequestTimeout.Seconds()), "directory request timeout (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.RequestTimeout = time.Duration(*requestTimeout) * time.Second
}
