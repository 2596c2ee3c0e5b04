package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/urfave/cli"

	"github.com/absfs/sealfile"
	"github.com/absfs/sealfile/internal/config"
	"github.com/absfs/sealfile/internal/server"
)

const passwordEnv = "SEALFILE_PASSWORD"

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "sealfile: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "sealfile"
	app.Usage = "Password-based file encryption"
	app.Version = sealfile.Version
	app.Writer = os.Stdout
	app.ErrWriter = os.Stderr
	app.Flags = getFlags()
	app.Commands = []cli.Command{
		{
			Name:      "encrypt",
			Usage:     "seal each FILE into FILE.enc",
			ArgsUsage: "FILE...",
			Action:    encryptAction,
		},
		{
			Name:      "decrypt",
			Usage:     "open each sealed FILE and write the recovered file",
			ArgsUsage: "FILE...",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "out, o",
					Usage: "write recovered files to `DIR`",
					Value: ".",
				},
			},
			Action: decryptAction,
		},
		{
			Name:      "verify",
			Usage:     "seal FILE in memory and check it opens to the same bytes",
			ArgsUsage: "FILE",
			Action:    verifyAction,
		},
		{
			Name:  "serve",
			Usage: "run the HTTP service",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "listen",
					Usage: "bind to `ADDR` (default from config)",
				},
			},
			Action: serveAction,
		},
	}
	return app
}

func getFlags() []cli.Flag {
	return []cli.Flag{
		cli.StringFlag{
			Name:  "config, c",
			Usage: "load configuration from `FILE`",
		},
		cli.StringFlag{
			Name:  "level, l",
			Usage: "logging level [debug|info|warn|error]",
			Value: "info",
		},
		cli.StringFlag{
			Name:   "password, p",
			Usage:  "password used to seal and open files",
			EnvVar: passwordEnv,
		},
		cli.StringFlag{
			Name:  "cipher",
			Usage: "cipher suite [aes-256-gcm|chacha20-poly1305]",
		},
		cli.IntFlag{
			Name:  "iterations",
			Usage: "PBKDF2 iteration count; must match the sealing side",
			Value: sealfile.DefaultIterations,
		},
	}
}

// setup loads the configuration, applies global flag overrides and builds the
// pipeline.
func setup(c *cli.Context) (*config.Config, *sealfile.Pipeline, sealfile.Logger, error) {
	cfg, err := config.NewConfig(c.GlobalString("config"))
	if err != nil {
		return nil, nil, nil, err
	}
	if c.GlobalIsSet("level") {
		level, err := sealfile.ParseLogLevel(c.GlobalString("level"))
		if err != nil {
			return nil, nil, nil, err
		}
		cfg.LogLevel = level
	}
	if c.GlobalIsSet("cipher") {
		suite, err := sealfile.ParseCipherSuite(c.GlobalString("cipher"))
		if err != nil {
			return nil, nil, nil, err
		}
		cfg.Cipher = suite
	}

	logger := sealfile.NewLogger(cfg.LogLevel)
	logger.SetWriter(c.App.ErrWriter)

	pc := cfg.PipelineConfig()
	pc.KDF.Iterations = c.GlobalInt("iterations")
	pipeline, err := sealfile.New(sealfile.WithConfig(pc), sealfile.WithLogger(logger))
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, pipeline, logger, nil
}

func password(c *cli.Context) (string, error) {
	pw := c.GlobalString("password")
	if pw == "" {
		return "", fmt.Errorf("password required (use --password or %s)", passwordEnv)
	}
	return pw, nil
}

func encryptAction(c *cli.Context) error {
	if c.NArg() == 0 {
		return errors.New("encrypt: at least one FILE is required")
	}
	pw, err := password(c)
	if err != nil {
		return err
	}
	_, pipeline, _, err := setup(c)
	if err != nil {
		return err
	}

	v := sealfile.NewVault(osFS{}, pipeline)
	return report(c.App.Writer, "sealed", v.SealAll(context.Background(), c.Args(), pw))
}

func decryptAction(c *cli.Context) error {
	if c.NArg() == 0 {
		return errors.New("decrypt: at least one FILE is required")
	}
	pw, err := password(c)
	if err != nil {
		return err
	}
	_, pipeline, _, err := setup(c)
	if err != nil {
		return err
	}

	v := sealfile.NewVault(osFS{}, pipeline)
	return report(c.App.Writer, "opened", v.OpenAll(context.Background(), c.Args(), c.String("out"), pw))
}

func verifyAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return errors.New("verify: exactly one FILE is required")
	}
	pw, err := password(c)
	if err != nil {
		return err
	}
	_, pipeline, _, err := setup(c)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(c.Args().First())
	if err != nil {
		return err
	}
	res, err := pipeline.Verify(data, pw)
	if err != nil {
		return err
	}
	if !res.OK {
		return errors.Errorf("verify %s: %s", c.Args().First(), res.Detail)
	}
	fmt.Fprintf(c.App.Writer, "%s: ok (archive %d bytes, container %d bytes)\n",
		c.Args().First(), res.ArchiveSize, res.ContainerSize)
	return nil
}

func serveAction(c *cli.Context) error {
	cfg, pipeline, logger, err := setup(c)
	if err != nil {
		return err
	}
	if addr := c.String("listen"); addr != "" {
		cfg.Listen = addr
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return server.New(cfg, pipeline, logger).ListenAndServe(ctx)
}

// report prints one line per file and returns an error naming how many
// failed.
func report(w io.Writer, verb string, results []sealfile.VaultResult) error {
	failed := 0
	for _, res := range results {
		if res.Err != nil {
			failed++
			fmt.Fprintf(w, "%s: %v\n", res.Source, res.Err)
			continue
		}
		fmt.Fprintf(w, "%s %s -> %s\n", verb, res.Source, res.Path)
	}
	if failed > 0 {
		return errors.Errorf("%d of %d files failed", failed, len(results))
	}
	return nil
}
