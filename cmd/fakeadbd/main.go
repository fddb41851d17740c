// Command fakeadbd runs the emulated device daemon standalone, for poking at
// it with a real adb server by hand. It prints the port it is listening on,
// serves until interrupted, then dumps everything it recorded.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/inconshreveable/log15"
	"github.com/urfave/cli"

	"github.com/mauricelam/fakeadbd"
)

func main() {
	a := cli.NewApp()
	a.Name = "fakeadbd"
	a.Usage = "run an emulated ADB device daemon that records commands"
	a.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "network",
			Value: "tcp4",
			Usage: "address family to listen on (tcp4 or tcp6)",
		},
		cli.StringFlag{
			Name:  "banner",
			Value: "device::",
			Usage: "device banner sent in the connect greeting",
		},
		cli.BoolFlag{
			Name:  "quiet",
			Usage: "suppress protocol logging",
		},
	}
	a.Action = run
	if err := a.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	l := log15.New()
	if c.Bool("quiet") {
		l.SetHandler(log15.DiscardHandler())
	}

	d, err := fakeadbd.Start(c.String("network"),
		fakeadbd.WithLogger(l),
		fakeadbd.WithBanner(c.String("banner")))
	if err != nil {
		return err
	}
	fmt.Printf("listening on port %d\n", d.Port())

	sigC := make(chan os.Signal, 1)
	signal.Notify(sigC, syscall.SIGINT, syscall.SIGTERM)
	<-sigC
	d.Stop()

	for _, cmd := range d.Commands().Snapshot() {
		fmt.Printf("command: %s\n", cmd)
	}
	for _, req := range d.SyncRequests().Snapshot() {
		fmt.Printf("sync: %s %s\n", req.Op, req.Path)
	}
	return nil
}
