// Command vyrad serves the Vyra payment API over HTTP.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/kirannarayanak/vyra/internal/config"
	"github.com/kirannarayanak/vyra/internal/server"
	"github.com/kirannarayanak/vyra/rpc"
	"github.com/kirannarayanak/vyra/sdk"
	"github.com/kirannarayanak/vyra/signer"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("load configuration")
	}
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}

	network, err := cfg.Network()
	if err != nil {
		log.WithError(err).Fatal("resolve network")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var operator *signer.Signer
	if cfg.PrivateKey != "" {
		operator, err = signer.New(cfg.PrivateKey)
		if err != nil {
			log.WithError(err).Fatal("load operator key")
		}
		log.WithField("address", operator.Address().Hex()).Info("operator key loaded")
	} else {
		log.Warn("no operator key configured, running read-only")
	}

	caller, err := rpc.DialTxCaller(ctx, network.RPCURL, operator, network.ChainID)
	if err != nil {
		log.WithError(err).Fatal("connect to rpc endpoint")
	}
	defer caller.Close()

	client, err := sdk.New(ctx, network, caller, sdk.WithSigner(operator))
	if err != nil {
		log.WithError(err).Fatal("assemble sdk")
	}
	defer client.Close()

	log.WithFields(logrus.Fields{
		"network": network.Name,
		"chainId": network.ChainID,
	}).Info("vyrad starting")

	if err := server.New(cfg, client, log).Run(ctx); err != nil {
		log.WithError(err).Fatal("server exited")
	}
}
